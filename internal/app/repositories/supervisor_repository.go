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

var supervisorColumns = []string{
	"id", "staff_no", "firstname", "lastname", "othernames",
	"phone", "email", "active", "date_created",
}

type pgSupervisorRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

func scanSupervisor(row pgx.Row) (*models.Supervisor, error) {
	var s models.Supervisor
	err := row.Scan(&s.ID, &s.StaffNo, &s.Firstname, &s.Lastname, &s.Othernames,
		&s.Phone, &s.Email, &s.Active, &s.DateCreated)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns supervisors with the given active flag ordered by id
func (r *pgSupervisorRepository) List(ctx context.Context, active bool) ([]*models.Supervisor, error) {
	sql, args, err := r.sb.Select(supervisorColumns...).
		From("supervisors").
		Where(squirrel.Eq{"active": active}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list supervisors query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Bool("active", active).Msg("Error listing supervisors")
		return nil, fmt.Errorf("error listing supervisors: %w", err)
	}
	defer rows.Close()

	supervisors := []*models.Supervisor{}
	for rows.Next() {
		s, err := scanSupervisor(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning supervisor: %w", err)
		}
		supervisors = append(supervisors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supervisors: %w", err)
	}
	return supervisors, nil
}

// GetByID retrieves a supervisor by ID
func (r *pgSupervisorRepository) GetByID(ctx context.Context, id int64) (*models.Supervisor, error) {
	sql, args, err := r.sb.Select(supervisorColumns...).
		From("supervisors").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get supervisor query: %w", err)
	}

	s, err := scanSupervisor(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("id", id).Msg("Error retrieving supervisor")
		return nil, fmt.Errorf("error retrieving supervisor: %w", err)
	}
	return s, nil
}

func (r *pgSupervisorRepository) columnExists(ctx context.Context, column, value string) (bool, error) {
	found, err := queryExists(ctx, r.q, r.sb.Select("1").From("supervisors").Where(squirrel.Eq{column: value}))
	if err != nil {
		logger.Error().Err(err).Str("column", column).Msg("Error checking supervisor existence")
		return false, fmt.Errorf("error checking supervisor %s: %w", column, err)
	}
	return found, nil
}

// StaffNoExists checks if a staff number is taken
func (r *pgSupervisorRepository) StaffNoExists(ctx context.Context, staffNo string) (bool, error) {
	return r.columnExists(ctx, "staff_no", staffNo)
}

// PhoneExists checks if a phone number is taken by a supervisor
func (r *pgSupervisorRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.columnExists(ctx, "phone", phone)
}

// EmailExists checks if an email is taken by a supervisor
func (r *pgSupervisorRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.columnExists(ctx, "email", email)
}

// Create inserts supervisor and sets its ID
func (r *pgSupervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	sql, args, err := r.sb.Insert("supervisors").
		Columns("staff_no", "firstname", "lastname", "othernames", "phone", "email", "active", "date_created").
		Values(supervisor.StaffNo, supervisor.Firstname, supervisor.Lastname, supervisor.Othernames,
			supervisor.Phone, supervisor.Email, supervisor.Active, supervisor.DateCreated).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create supervisor query: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&supervisor.ID); err != nil {
		if err = translateWriteError(err); errors.Is(err, ErrDuplicate) {
			logger.Warn().Str("staffNo", supervisor.StaffNo).Msg("Duplicate supervisor rejected by constraint")
			return err
		}
		logger.Error().Err(err).Str("staffNo", supervisor.StaffNo).Msg("Error creating supervisor")
		return fmt.Errorf("error creating supervisor: %w", err)
	}
	return nil
}

// Update writes every mutable column of supervisor
func (r *pgSupervisorRepository) Update(ctx context.Context, supervisor *models.Supervisor) error {
	sql, args, err := r.sb.Update("supervisors").
		SetMap(map[string]interface{}{
			"staff_no":   supervisor.StaffNo,
			"firstname":  supervisor.Firstname,
			"lastname":   supervisor.Lastname,
			"othernames": supervisor.Othernames,
			"phone":      supervisor.Phone,
			"email":      supervisor.Email,
			"active":     supervisor.Active,
		}).
		Where(squirrel.Eq{"id": supervisor.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update supervisor query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating supervisor: %w", translateWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the supervisors with the given ids
func (r *pgSupervisorRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	sql, args, err := r.sb.Delete("supervisors").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete supervisors query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting supervisors: %w", translateWriteError(err))
	}
	return tag.RowsAffected(), nil
}
