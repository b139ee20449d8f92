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

type pgUserRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

// GetByUsername retrieves a credential by its username
func (r *pgUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	sql, args, err := r.sb.Select("id", "type", "type_id", "username", "password", "temp_password", "reset", "date_created").
		From("users").
		Where(squirrel.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	var u models.User
	err = r.q.QueryRow(ctx, sql, args...).Scan(
		&u.ID, &u.Type, &u.TypeID, &u.Username, &u.Password, &u.TempPassword, &u.Reset, &u.DateCreated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Str("username", username).Msg("Error retrieving user")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &u, nil
}

// Create inserts a credential and sets its ID
func (r *pgUserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("type", "type_id", "username", "password", "temp_password", "reset", "date_created").
		Values(string(user.Type), user.TypeID, user.Username, user.Password, user.TempPassword, user.Reset, user.DateCreated).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&user.ID); err != nil {
		if err = translateWriteError(err); errors.Is(err, ErrDuplicate) {
			logger.Warn().Str("username", user.Username).Msg("Duplicate username rejected by constraint")
			return err
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash and leaves the reset state
func (r *pgUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	sql, args, err := r.sb.Update("users").
		Set("password", passwordHash).
		Set("reset", false).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update password query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Msg("Error updating password")
		return fmt.Errorf("error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUsername renames the credential provisioned for a roster row. A
// missing credential is not an error.
func (r *pgUserRepository) UpdateUsername(ctx context.Context, credentialType models.CredentialType, typeID int64, username string) error {
	sql, args, err := r.sb.Update("users").
		Set("username", username).
		Where(squirrel.Eq{"type": string(credentialType), "type_id": typeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update username query: %w", err)
	}

	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("typeID", typeID).Msg("Error renaming credential")
		return fmt.Errorf("error updating username: %w", translateWriteError(err))
	}
	return nil
}

// DeleteByType removes the credentials provisioned for the given roster rows
func (r *pgUserRepository) DeleteByType(ctx context.Context, credentialType models.CredentialType, typeIDs []int64) (int64, error) {
	sql, args, err := r.sb.Delete("users").
		Where(squirrel.Eq{"type": string(credentialType), "type_id": typeIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete users query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting users: %w", err)
	}
	return tag.RowsAffected(), nil
}
