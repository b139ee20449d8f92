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

var studentColumns = []string{
	"id", "registration_no", "firstname", "lastname", "othernames",
	"phone", "email", "active", "approved", "date_created",
}

type pgStudentRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.RegistrationNo, &s.Firstname, &s.Lastname, &s.Othernames,
		&s.Phone, &s.Email, &s.Active, &s.Approved, &s.DateCreated)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns students with the given active flag ordered by id
func (r *pgStudentRepository) List(ctx context.Context, active bool) ([]*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"active": active}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Bool("active", active).Msg("Error listing students")
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}
	return students, nil
}

// GetByID retrieves a student by ID
func (r *pgStudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	s, err := scanStudent(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("id", id).Msg("Error retrieving student")
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return s, nil
}

func (r *pgStudentRepository) columnExists(ctx context.Context, column, value string) (bool, error) {
	found, err := queryExists(ctx, r.q, r.sb.Select("1").From("students").Where(squirrel.Eq{column: value}))
	if err != nil {
		logger.Error().Err(err).Str("column", column).Msg("Error checking student existence")
		return false, fmt.Errorf("error checking student %s: %w", column, err)
	}
	return found, nil
}

// RegistrationNoExists checks if a registration number is taken
func (r *pgStudentRepository) RegistrationNoExists(ctx context.Context, registrationNo string) (bool, error) {
	return r.columnExists(ctx, "registration_no", registrationNo)
}

// PhoneExists checks if a phone number is taken by a student
func (r *pgStudentRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.columnExists(ctx, "phone", phone)
}

// EmailExists checks if an email is taken by a student
func (r *pgStudentRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.columnExists(ctx, "email", email)
}

// Create inserts student and sets its ID
func (r *pgStudentRepository) Create(ctx context.Context, student *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("registration_no", "firstname", "lastname", "othernames", "phone", "email", "active", "approved", "date_created").
		Values(student.RegistrationNo, student.Firstname, student.Lastname, student.Othernames,
			student.Phone, student.Email, student.Active, student.Approved, student.DateCreated).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&student.ID); err != nil {
		if err = translateWriteError(err); errors.Is(err, ErrDuplicate) {
			logger.Warn().Str("registrationNo", student.RegistrationNo).Msg("Duplicate student rejected by constraint")
			return err
		}
		logger.Error().Err(err).Str("registrationNo", student.RegistrationNo).Msg("Error creating student")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// Update writes every mutable column of student
func (r *pgStudentRepository) Update(ctx context.Context, student *models.Student) error {
	sql, args, err := r.sb.Update("students").
		SetMap(map[string]interface{}{
			"registration_no": student.RegistrationNo,
			"firstname":       student.Firstname,
			"lastname":        student.Lastname,
			"othernames":      student.Othernames,
			"phone":           student.Phone,
			"email":           student.Email,
			"active":          student.Active,
			"approved":        student.Approved,
		}).
		Where(squirrel.Eq{"id": student.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating student: %w", translateWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the students with the given ids
func (r *pgStudentRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete students query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting students: %w", translateWriteError(err))
	}
	return tag.RowsAffected(), nil
}
