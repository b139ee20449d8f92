package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// SupervisorPatch is a partial supervisor update. Nil fields are left untouched.
type SupervisorPatch struct {
	StaffNo    *string
	Firstname  *string
	Lastname   *string
	Othernames *string
	Phone      *string
	Email      *string
	Active     *bool
}

// SupervisorService manages the supervisor roster
type SupervisorService struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewSupervisorService creates a new SupervisorService
func NewSupervisorService(store repositories.Store, logger zerolog.Logger) *SupervisorService {
	return &SupervisorService{store: store, logger: logger}
}

// List returns supervisors by active flag
func (s *SupervisorService) List(ctx context.Context, active bool) ([]*models.Supervisor, error) {
	supervisors, err := s.store.Supervisors().List(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("error listing supervisors: %w", err)
	}
	return supervisors, nil
}

// Update merges patch into supervisor id. A new email also renames the
// supervisor's credential, whose username is the email address.
func (s *SupervisorService) Update(ctx context.Context, id int64, patch SupervisorPatch) (*models.Supervisor, error) {
	var updated *models.Supervisor
	err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		rec, err := tx.Supervisors().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NewBadRequestError("Record not found")
			}
			return err
		}
		previousEmail := rec.Email

		if patch.StaffNo != nil {
			key := models.NormalizeNaturalKey(*patch.StaffNo)
			if key == "" {
				return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Staff No. cannot be empty")
			}
			rec.StaffNo = key
		}
		fields := rosterFields{&rec.Firstname, &rec.Lastname, &rec.Othernames, &rec.Phone, &rec.Email}
		if err := applyContactPatch(fields, patch.Firstname, patch.Lastname, patch.Othernames, patch.Phone, patch.Email); err != nil {
			return err
		}
		if patch.Active != nil {
			rec.Active = *patch.Active
		}

		if err := tx.Supervisors().Update(ctx, rec); err != nil {
			return rosterWriteError(err, "Staff No., phone or email already in use")
		}
		if rec.Email != previousEmail {
			if err := tx.Users().UpdateUsername(ctx, models.CredentialSupervisor, rec.ID, rec.Email); err != nil {
				return rosterWriteError(err, "Email already in use as a username")
			}
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("supervisorID", id).Msg("Supervisor updated")
	return updated, nil
}

// Delete removes supervisors and their credentials in one transaction
func (s *SupervisorService) Delete(ctx context.Context, ids []int64) (int64, error) {
	affected, err := deleteRoster(ctx, s.store, ids, models.CredentialSupervisor,
		func(tx repositories.Store) func(context.Context, []int64) (int64, error) {
			return tx.Supervisors().Delete
		},
		"Cannot delete a record with dependencies")
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Ints64("ids", ids).Msg("Supervisors deleted")
	return affected, nil
}
