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
	"github.com/rs/zerolog"
)

// LogInput is the body of a logbook entry
type LogInput struct {
	LogDate time.Time
	Log     string
}

// LogbookService manages logbook entries of attachments
type LogbookService struct {
	store  repositories.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewLogbookService creates a new LogbookService
func NewLogbookService(store repositories.Store, logger zerolog.Logger) *LogbookService {
	return &LogbookService{store: store, logger: logger, now: time.Now}
}

func validateLog(input LogInput) error {
	if strings.TrimSpace(input.Log) == "" {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Log text is required")
	}
	if input.LogDate.IsZero() {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Log date is required")
	}
	return nil
}

// authorizeAttachment checks that actor may read or write the logbook of
// attachmentID. Only students need the lookup.
func (s *LogbookService) authorizeAttachment(ctx context.Context, attachmentID int64, actor Actor) error {
	if !actor.IsStudent() {
		return nil
	}
	attachment, err := s.store.Attachments().GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewBadRequestError("Attachment not found")
		}
		return fmt.Errorf("error checking attachment: %w", err)
	}
	if !actor.canActFor(attachment.Student) {
		s.logger.Warn().Int64("attachmentID", attachmentID).Int64("caller", actor.CredentialID).Msg("Logbook access refused")
		return permissionDenied("You can only use the logbook of your own attachments")
	}
	return nil
}

// authorizeEntry checks that actor may change entry id
func (s *LogbookService) authorizeEntry(ctx context.Context, id int64, actor Actor) error {
	if !actor.IsStudent() {
		return nil
	}
	entry, err := s.store.Logbook().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewBadRequestError("Record not found")
		}
		return fmt.Errorf("error retrieving log: %w", err)
	}
	return s.authorizeAttachment(ctx, entry.Attachment, actor)
}

// List returns the entries of an attachment
func (s *LogbookService) List(ctx context.Context, attachmentID int64, actor Actor) ([]*models.LogbookEntry, error) {
	if err := s.authorizeAttachment(ctx, attachmentID, actor); err != nil {
		return nil, err
	}
	entries, err := s.store.Logbook().ListByAttachment(ctx, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("error listing logbook: %w", err)
	}
	return entries, nil
}

// Add appends an entry to an existing attachment
func (s *LogbookService) Add(ctx context.Context, attachmentID int64, input LogInput, actor Actor) (*models.LogbookEntry, error) {
	if err := validateLog(input); err != nil {
		return nil, err
	}

	attachment, err := s.store.Attachments().GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewBadRequestError("Attachment not found")
		}
		return nil, fmt.Errorf("error checking attachment: %w", err)
	}
	if !actor.canActFor(attachment.Student) {
		s.logger.Warn().Int64("attachmentID", attachmentID).Int64("caller", actor.CredentialID).Msg("Logbook access refused")
		return nil, permissionDenied("You can only use the logbook of your own attachments")
	}

	entry := &models.LogbookEntry{
		Attachment:  attachmentID,
		LogDate:     input.LogDate,
		Log:         strings.TrimSpace(input.Log),
		DateCreated: s.now(),
	}
	if err := s.store.Logbook().Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrHasDependents) {
			// attachment deleted between the check and the insert
			return nil, apperrors.NewBadRequestError("Attachment not found")
		}
		return nil, fmt.Errorf("error adding log: %w", err)
	}
	return entry, nil
}

// Edit replaces the date and text of entry id
func (s *LogbookService) Edit(ctx context.Context, id int64, input LogInput, actor Actor) (*models.LogbookEntry, error) {
	if err := validateLog(input); err != nil {
		return nil, err
	}
	if err := s.authorizeEntry(ctx, id, actor); err != nil {
		return nil, err
	}
	entry := &models.LogbookEntry{ID: id, LogDate: input.LogDate, Log: strings.TrimSpace(input.Log)}
	if err := s.store.Logbook().Update(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewBadRequestError("Record not found")
		}
		return nil, fmt.Errorf("error editing log: %w", err)
	}
	return s.store.Logbook().GetByID(ctx, id)
}

// Delete removes entry id
func (s *LogbookService) Delete(ctx context.Context, id int64, actor Actor) error {
	if err := s.authorizeEntry(ctx, id, actor); err != nil {
		return err
	}
	affected, err := s.store.Logbook().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting log: %w", err)
	}
	if affected == 0 {
		return apperrors.NewBadRequestError("Record not found")
	}
	return nil
}
