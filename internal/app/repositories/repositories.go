package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/attachtrack/attachtrack/internal/db"
	"github.com/attachtrack/attachtrack/internal/pkg/dberrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on a pgx pool
type PostgresStore struct {
	pg *db.PostgresDB
	q  DBTX
	tx pgx.Tx
	sb squirrel.StatementBuilderType
}

// NewPostgresStore creates a Store backed by PostgreSQL
func NewPostgresStore(pg *db.PostgresDB) *PostgresStore {
	return &PostgresStore{
		pg: pg,
		q:  pg.Pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (s *PostgresStore) withTx(tx pgx.Tx) *PostgresStore {
	return &PostgresStore{pg: s.pg, q: tx, tx: tx, sb: s.sb}
}

// Students returns the student repository
func (s *PostgresStore) Students() StudentRepository {
	return &pgStudentRepository{q: s.q, sb: s.sb}
}

// Supervisors returns the supervisor repository
func (s *PostgresStore) Supervisors() SupervisorRepository {
	return &pgSupervisorRepository{q: s.q, sb: s.sb}
}

// Users returns the credential repository
func (s *PostgresStore) Users() UserRepository {
	return &pgUserRepository{q: s.q, sb: s.sb}
}

// Attachments returns the attachment repository
func (s *PostgresStore) Attachments() AttachmentRepository {
	return &pgAttachmentRepository{q: s.q, sb: s.sb}
}

// Logbook returns the logbook repository
func (s *PostgresStore) Logbook() LogbookRepository {
	return &pgLogbookRepository{q: s.q, sb: s.sb}
}

// InTx runs fn in a transaction. Nested calls join the outer transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn TxFn) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	return s.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, s.withTx(tx))
	})
}

// Savepoint runs fn inside a SAVEPOINT of the current transaction
func (s *PostgresStore) Savepoint(ctx context.Context, fn TxFn) error {
	if s.tx == nil {
		return s.InTx(ctx, fn)
	}
	return db.WithSavepoint(ctx, s.tx, func(ctx context.Context, sp pgx.Tx) error {
		return fn(ctx, s.withTx(sp))
	})
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pg.Ping(ctx)
}

// translateWriteError maps constraint violations onto the store errors
func translateWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case dberrors.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", ErrDuplicate, dberrors.ConstraintName(err))
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", ErrHasDependents, dberrors.ConstraintName(err))
	}
	return err
}

// queryExists runs a "SELECT EXISTS (...)" around builder
func queryExists(ctx context.Context, q DBTX, builder squirrel.SelectBuilder) (bool, error) {
	sql, args, err := builder.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists query: %w", err)
	}
	var found bool
	if err := q.QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}
