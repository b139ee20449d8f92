package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
	"github.com/attachtrack/attachtrack/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// StudentPatch is a partial student update. Nil fields are left untouched.
type StudentPatch struct {
	RegistrationNo *string
	Firstname      *string
	Lastname       *string
	Othernames     *string
	Phone          *string
	Email          *string
	Active         *bool
	Approved       *bool
}

// rosterFields are the fields students and supervisors share
type rosterFields struct {
	firstname  *string
	lastname   *string
	othernames **string
	phone      *string
	email      *string
}

// applyContactPatch validates and merges the shared roster fields
func applyContactPatch(dst rosterFields, firstname, lastname, othernames, phone, address *string) error {
	if firstname != nil {
		if !validation.IsName(*firstname) {
			return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Invalid first name")
		}
		*dst.firstname = strings.TrimSpace(*firstname)
	}
	if lastname != nil {
		if !validation.IsName(*lastname) {
			return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Invalid last name")
		}
		*dst.lastname = strings.TrimSpace(*lastname)
	}
	if othernames != nil {
		*dst.othernames = helpers.NullableString(*othernames)
	}
	if phone != nil {
		normalized, ok := validation.NormalizeKePhone(*phone)
		if !ok {
			return apperrors.NewBadRequestError(fmt.Sprintf("Invalid phone number %s", strings.TrimSpace(*phone)))
		}
		*dst.phone = normalized
	}
	if address != nil {
		normalized := models.NormalizeEmail(*address)
		if !validation.IsEmail(normalized) {
			return apperrors.NewBadRequestError(fmt.Sprintf("Invalid email address %s", normalized))
		}
		*dst.email = normalized
	}
	return nil
}

// StudentService manages the student roster
type StudentService struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(store repositories.Store, logger zerolog.Logger) *StudentService {
	return &StudentService{store: store, logger: logger}
}

// List returns students by active flag
func (s *StudentService) List(ctx context.Context, active bool) ([]*models.Student, error) {
	students, err := s.store.Students().List(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return students, nil
}

// Update merges patch into student id. A new registration number also
// renames the student's credential.
func (s *StudentService) Update(ctx context.Context, id int64, patch StudentPatch) (*models.Student, error) {
	var updated *models.Student
	err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		rec, err := tx.Students().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NewBadRequestError("Record not found")
			}
			return err
		}
		previousKey := rec.RegistrationNo

		if patch.RegistrationNo != nil {
			key := models.NormalizeNaturalKey(*patch.RegistrationNo)
			if key == "" {
				return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Registration No. cannot be empty")
			}
			rec.RegistrationNo = key
		}
		fields := rosterFields{&rec.Firstname, &rec.Lastname, &rec.Othernames, &rec.Phone, &rec.Email}
		if err := applyContactPatch(fields, patch.Firstname, patch.Lastname, patch.Othernames, patch.Phone, patch.Email); err != nil {
			return err
		}
		if patch.Active != nil {
			rec.Active = *patch.Active
		}
		if patch.Approved != nil {
			rec.Approved = *patch.Approved
		}

		if err := tx.Students().Update(ctx, rec); err != nil {
			return rosterWriteError(err, "Registration No., phone or email already in use")
		}
		if rec.RegistrationNo != previousKey {
			if err := tx.Users().UpdateUsername(ctx, models.CredentialStudent, rec.ID, rec.RegistrationNo); err != nil {
				return rosterWriteError(err, "Registration No. already in use as a username")
			}
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("studentID", id).Msg("Student updated")
	return updated, nil
}

// Delete removes students and their credentials in one transaction
func (s *StudentService) Delete(ctx context.Context, ids []int64) (int64, error) {
	affected, err := deleteRoster(ctx, s.store, ids, models.CredentialStudent,
		func(tx repositories.Store) func(context.Context, []int64) (int64, error) { return tx.Students().Delete },
		"Failed to delete, record dependencies found")
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Ints64("ids", ids).Msg("Students deleted")
	return affected, nil
}

// rosterWriteError turns store constraint errors into client errors
func rosterWriteError(err error, conflictMessage string) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		return apperrors.NewConflictError(conflictMessage)
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NewBadRequestError("Record not found")
	}
	return err
}

// deleteRoster deletes roster rows and the credentials provisioned for them
func deleteRoster(
	ctx context.Context,
	store repositories.Store,
	ids []int64,
	credentialType models.CredentialType,
	rows func(tx repositories.Store) func(context.Context, []int64) (int64, error),
	dependentsMessage string,
) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.NewBadRequestError("No records selected")
	}

	var affected int64
	err := store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		n, err := rows(tx)(ctx, ids)
		if err != nil {
			if errors.Is(err, repositories.ErrHasDependents) {
				return apperrors.NewHasDependentsError(dependentsMessage)
			}
			return err
		}
		if _, err := tx.Users().DeleteByType(ctx, credentialType, ids); err != nil {
			return err
		}
		affected = n
		return nil
	})
	return affected, err
}
