package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// Score bounds
const (
	MinScore = 0
	MaxScore = 100
)

// AttachmentInput carries the fields a student supplies for a new attachment
type AttachmentInput struct {
	Company                   string
	StartDate                 time.Time
	EndDate                   time.Time
	IndustrySupervisor        string
	IndustrySupervisorContact string
}

// AttachmentPatch is a partial update. Nil fields are left untouched.
type AttachmentPatch struct {
	Company                   *string
	StartDate                 *time.Time
	EndDate                   *time.Time
	IndustrySupervisor        *string
	IndustrySupervisorContact *string
	Supervisor                *int64
	Score                     *float64
	Grade                     *string
	StudentDone               *bool
	Cancelled                 *bool
}

// AttachmentService manages attachments and their status lifecycle
type AttachmentService struct {
	store  repositories.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(store repositories.Store, logger zerolog.Logger) *AttachmentService {
	return &AttachmentService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ListByStatus returns the attachments in status with student and supervisor names
func (s *AttachmentService) ListByStatus(ctx context.Context, status models.AttachmentStatus) ([]*models.AttachmentListing, error) {
	if !status.IsValid() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Invalid status %s", status))
	}
	listings, err := s.store.Attachments().ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("error listing attachments: %w", err)
	}
	return listings, nil
}

func validateDates(start, end time.Time) error {
	if end.Before(start) {
		return apperrors.NewBadRequestError("End date cannot be before start date")
	}
	return nil
}

// Create opens a new attachment for studentID. A student may hold only one
// open attachment at a time.
func (s *AttachmentService) Create(ctx context.Context, studentID int64, input AttachmentInput) (*models.Attachment, error) {
	if strings.TrimSpace(input.Company) == "" ||
		strings.TrimSpace(input.IndustrySupervisor) == "" ||
		strings.TrimSpace(input.IndustrySupervisorContact) == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed,
			"Company, industry supervisor and industry supervisor contact are required")
	}
	if err := validateDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	var created *models.Attachment
	err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		if _, err := tx.Students().GetByID(ctx, studentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NewBadRequestError("Student not found")
			}
			return err
		}

		open, err := tx.Attachments().HasOpen(ctx, studentID)
		if err != nil {
			return err
		}
		if open {
			return apperrors.NewCustomError(apperrors.ErrOpenAttachmentExists,
				"There is an attachment that has not been marked as completed")
		}

		now := s.now()
		created = &models.Attachment{
			Student:                   studentID,
			Company:                   strings.TrimSpace(input.Company),
			StartDate:                 input.StartDate,
			EndDate:                   input.EndDate,
			IndustrySupervisor:        strings.TrimSpace(input.IndustrySupervisor),
			IndustrySupervisorContact: strings.TrimSpace(input.IndustrySupervisorContact),
			Status:                    models.StatusNotAssigned,
			DateCreated:               now,
			DateUpdate:                now,
		}
		return tx.Attachments().Create(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("attachmentID", created.ID).Int64("studentID", studentID).Msg("Attachment created")
	return created, nil
}

// moveTo applies one status step, rejecting moves the lifecycle forbids
func moveTo(a *models.Attachment, next models.AttachmentStatus) error {
	if !a.Status.CanTransition(next) {
		return apperrors.NewCustomError(apperrors.ErrIllegalTransition,
			fmt.Sprintf("Cannot move attachment from %s to %s", a.Status, next))
	}
	a.Status = next
	return nil
}

// Update merges patch into attachment id on behalf of actor. Status steps
// are applied in order: supervisor assignment, student completion, grading,
// cancellation. Students may only edit their own attachment and cannot
// assign supervisors, grade or cancel.
func (s *AttachmentService) Update(ctx context.Context, id int64, patch AttachmentPatch, actor Actor) (*models.Attachment, error) {
	var updated *models.Attachment
	err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		rec, err := tx.Attachments().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NewBadRequestError("Record not found")
			}
			return err
		}
		if err := authorizePatch(actor, rec, patch); err != nil {
			s.logger.Warn().Int64("attachmentID", id).Int64("caller", actor.CredentialID).Err(err).Msg("Attachment update refused")
			return err
		}
		previous := rec.Status

		if patch.Company != nil {
			rec.Company = strings.TrimSpace(*patch.Company)
		}
		if patch.StartDate != nil {
			rec.StartDate = *patch.StartDate
		}
		if patch.EndDate != nil {
			rec.EndDate = *patch.EndDate
		}
		if patch.IndustrySupervisor != nil {
			rec.IndustrySupervisor = strings.TrimSpace(*patch.IndustrySupervisor)
		}
		if patch.IndustrySupervisorContact != nil {
			rec.IndustrySupervisorContact = strings.TrimSpace(*patch.IndustrySupervisorContact)
		}
		if err := validateDates(rec.StartDate, rec.EndDate); err != nil {
			return err
		}

		if patch.Supervisor != nil && (rec.Supervisor == nil || *rec.Supervisor != *patch.Supervisor) {
			if _, err := tx.Supervisors().GetByID(ctx, *patch.Supervisor); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.NewBadRequestError("Supervisor not found")
				}
				return err
			}
			if rec.Supervisor == nil {
				if err := moveTo(rec, models.StatusOnGoing); err != nil {
					return err
				}
			}
			supervisor := *patch.Supervisor
			rec.Supervisor = &supervisor
		}

		if patch.StudentDone != nil && *patch.StudentDone {
			if err := moveTo(rec, models.StatusAwaitingGrading); err != nil {
				return err
			}
		}

		if patch.Score != nil && patch.Grade != nil {
			score, grade := *patch.Score, strings.TrimSpace(*patch.Grade)
			if score < MinScore || score > MaxScore {
				return apperrors.NewCustomError(apperrors.ErrValidationFailed,
					fmt.Sprintf("Score must be between %d and %d", MinScore, MaxScore))
			}
			if err := moveTo(rec, models.StatusCompleted); err != nil {
				return err
			}
			rec.Score = &score
			rec.Grade = &grade
		}

		if patch.Cancelled != nil && *patch.Cancelled {
			if err := moveTo(rec, models.StatusCancelled); err != nil {
				return err
			}
		}

		rec.DateUpdate = s.now()
		updatedBy := actor.CredentialID
		rec.UpdatedBy = &updatedBy

		if err := tx.Attachments().Update(ctx, rec); err != nil {
			return err
		}
		if rec.Status != previous {
			metrics.RecordTransition(string(rec.Status))
			s.logger.Info().Int64("attachmentID", rec.ID).
				Str("from", string(previous)).Str("to", string(rec.Status)).
				Int64("updatedBy", actor.CredentialID).Msg("Attachment status changed")
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// authorizePatch rejects changes actor may not make to rec
func authorizePatch(actor Actor, rec *models.Attachment, patch AttachmentPatch) error {
	if !actor.canActFor(rec.Student) {
		return permissionDenied("You can only change your own attachments")
	}
	if !actor.IsStudent() {
		return nil
	}
	if patch.Supervisor != nil || patch.Score != nil || patch.Grade != nil ||
		(patch.Cancelled != nil && *patch.Cancelled) {
		return permissionDenied("Students cannot assign supervisors, grade or cancel attachments")
	}
	return nil
}

// Delete removes the listed attachments that are still NOT-ASSIGNED or
// CANCELLED and returns how many went away
func (s *AttachmentService) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.NewBadRequestError("No records selected")
	}
	affected, err := s.store.Attachments().Delete(ctx, ids, models.DeletableStatuses)
	if err != nil {
		if errors.Is(err, repositories.ErrHasDependents) {
			return 0, apperrors.NewHasDependentsError("Cannot delete an attachment that has logbook entries")
		}
		return 0, fmt.Errorf("error deleting attachments: %w", err)
	}
	s.logger.Info().Int64("affected", affected).Ints64("ids", ids).Msg("Attachments deleted")
	return affected, nil
}
