package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

var logbookColumns = []string{"id", "attachment", "log_date", "log", "date_created"}

type pgLogbookRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

func scanLogbookEntry(row pgx.Row) (*models.LogbookEntry, error) {
	var e models.LogbookEntry
	if err := row.Scan(&e.ID, &e.Attachment, &e.LogDate, &e.Log, &e.DateCreated); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByAttachment returns the entries of one attachment in date order
func (r *pgLogbookRepository) ListByAttachment(ctx context.Context, attachmentID int64) ([]*models.LogbookEntry, error) {
	sql, args, err := r.sb.Select(logbookColumns...).
		From("logbook").
		Where(squirrel.Eq{"attachment": attachmentID}).
		OrderBy("log_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list logbook query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("attachmentID", attachmentID).Msg("Error listing logbook")
		return nil, fmt.Errorf("error listing logbook: %w", err)
	}
	defer rows.Close()

	entries := []*models.LogbookEntry{}
	for rows.Next() {
		e, err := scanLogbookEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning logbook entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logbook: %w", err)
	}
	return entries, nil
}

// GetByID retrieves a logbook entry by ID
func (r *pgLogbookRepository) GetByID(ctx context.Context, id int64) (*models.LogbookEntry, error) {
	sql, args, err := r.sb.Select(logbookColumns...).
		From("logbook").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get logbook entry query: %w", err)
	}

	e, err := scanLogbookEntry(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving logbook entry: %w", err)
	}
	return e, nil
}

// Create inserts an entry and sets its ID
func (r *pgLogbookRepository) Create(ctx context.Context, entry *models.LogbookEntry) error {
	sql, args, err := r.sb.Insert("logbook").
		Columns("attachment", "log_date", "log", "date_created").
		Values(entry.Attachment, entry.LogDate, entry.Log, entry.DateCreated).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create logbook entry query: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&entry.ID); err != nil {
		logger.Error().Err(err).Int64("attachmentID", entry.Attachment).Msg("Error creating logbook entry")
		return fmt.Errorf("error creating logbook entry: %w", translateWriteError(err))
	}
	return nil
}

// Update overwrites the date and text of an entry
func (r *pgLogbookRepository) Update(ctx context.Context, entry *models.LogbookEntry) error {
	sql, args, err := r.sb.Update("logbook").
		Set("log_date", entry.LogDate).
		Set("log", entry.Log).
		Where(squirrel.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update logbook entry query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating logbook entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one entry
func (r *pgLogbookRepository) Delete(ctx context.Context, id int64) (int64, error) {
	sql, args, err := r.sb.Delete("logbook").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete logbook entry query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting logbook entry: %w", err)
	}
	return tag.RowsAffected(), nil
}
