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

var attachmentColumns = []string{
	"a.id", "a.student", "a.supervisor", "a.company", "a.start_date", "a.end_date",
	"a.industry_supervisor", "a.industry_supervisor_contact", "a.status", "a.score",
	"a.grade", "a.date_created", "a.date_update", "a.updated_by",
}

type pgAttachmentRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

func attachmentScanTargets(a *models.Attachment) []interface{} {
	return []interface{}{
		&a.ID, &a.Student, &a.Supervisor, &a.Company, &a.StartDate, &a.EndDate,
		&a.IndustrySupervisor, &a.IndustrySupervisorContact, &a.Status, &a.Score,
		&a.Grade, &a.DateCreated, &a.DateUpdate, &a.UpdatedBy,
	}
}

func statusStrings(statuses []models.AttachmentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// ListByStatus returns attachments in status joined with student and supervisor names
func (r *pgAttachmentRepository) ListByStatus(ctx context.Context, status models.AttachmentStatus) ([]*models.AttachmentListing, error) {
	columns := append(append([]string{}, attachmentColumns...),
		"s.firstname || ' ' || s.lastname AS student_name",
		"s.registration_no",
		"CASE WHEN sv.id IS NULL THEN NULL ELSE sv.firstname || ' ' || sv.lastname END AS supervisor_name",
	)
	sql, args, err := r.sb.Select(columns...).
		From("attachments a").
		Join("students s ON s.id = a.student").
		LeftJoin("supervisors sv ON sv.id = a.supervisor").
		Where(squirrel.Eq{"a.status": string(status)}).
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attachments query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("status", string(status)).Msg("Error listing attachments")
		return nil, fmt.Errorf("error listing attachments: %w", err)
	}
	defer rows.Close()

	listings := []*models.AttachmentListing{}
	for rows.Next() {
		var l models.AttachmentListing
		targets := append(attachmentScanTargets(&l.Attachment), &l.StudentName, &l.RegistrationNo, &l.SupervisorName)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("error scanning attachment: %w", err)
		}
		listings = append(listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}
	return listings, nil
}

// GetByID retrieves an attachment by ID
func (r *pgAttachmentRepository) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	sql, args, err := r.sb.Select(attachmentColumns...).
		From("attachments a").
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get attachment query: %w", err)
	}

	var a models.Attachment
	if err := r.q.QueryRow(ctx, sql, args...).Scan(attachmentScanTargets(&a)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("id", id).Msg("Error retrieving attachment")
		return nil, fmt.Errorf("error retrieving attachment: %w", err)
	}
	return &a, nil
}

// HasOpen reports whether the student has an attachment in an open status
func (r *pgAttachmentRepository) HasOpen(ctx context.Context, studentID int64) (bool, error) {
	found, err := queryExists(ctx, r.q, r.sb.Select("1").
		From("attachments").
		Where(squirrel.Eq{"student": studentID, "status": statusStrings(models.OpenStatuses)}))
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error checking open attachments")
		return false, fmt.Errorf("error checking open attachments: %w", err)
	}
	return found, nil
}

// Create inserts an attachment and sets its ID
func (r *pgAttachmentRepository) Create(ctx context.Context, a *models.Attachment) error {
	sql, args, err := r.sb.Insert("attachments").
		Columns("student", "supervisor", "company", "start_date", "end_date", "industry_supervisor",
			"industry_supervisor_contact", "status", "score", "grade", "date_created", "date_update", "updated_by").
		Values(a.Student, a.Supervisor, a.Company, a.StartDate, a.EndDate, a.IndustrySupervisor,
			a.IndustrySupervisorContact, string(a.Status), a.Score, a.Grade, a.DateCreated, a.DateUpdate, a.UpdatedBy).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create attachment query: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&a.ID); err != nil {
		logger.Error().Err(err).Int64("studentID", a.Student).Msg("Error creating attachment")
		return fmt.Errorf("error creating attachment: %w", translateWriteError(err))
	}
	return nil
}

// Update writes the full attachment row
func (r *pgAttachmentRepository) Update(ctx context.Context, a *models.Attachment) error {
	sql, args, err := r.sb.Update("attachments").
		SetMap(map[string]interface{}{
			"supervisor":                  a.Supervisor,
			"company":                     a.Company,
			"start_date":                  a.StartDate,
			"end_date":                    a.EndDate,
			"industry_supervisor":         a.IndustrySupervisor,
			"industry_supervisor_contact": a.IndustrySupervisorContact,
			"status":                      string(a.Status),
			"score":                       a.Score,
			"grade":                       a.Grade,
			"date_update":                 a.DateUpdate,
			"updated_by":                  a.UpdatedBy,
		}).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update attachment query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("id", a.ID).Msg("Error updating attachment")
		return fmt.Errorf("error updating attachment: %w", translateWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the given ids whose status is one of statuses
func (r *pgAttachmentRepository) Delete(ctx context.Context, ids []int64, statuses []models.AttachmentStatus) (int64, error) {
	sql, args, err := r.sb.Delete("attachments").
		Where(squirrel.Eq{"id": ids, "status": statusStrings(statuses)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete attachments query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting attachments: %w", translateWriteError(err))
	}
	return tag.RowsAffected(), nil
}
