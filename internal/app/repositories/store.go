package repositories

import (
	"context"
	"errors"

	"github.com/attachtrack/attachtrack/internal/app/models"
)

// Store level errors shared by every implementation
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record violates a unique constraint")
	ErrHasDependents = errors.New("record is still referenced by other records")
)

// StudentRepository persists the student roster
type StudentRepository interface {
	List(ctx context.Context, active bool) ([]*models.Student, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	RegistrationNoExists(ctx context.Context, registrationNo string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, ids []int64) (int64, error)
}

// SupervisorRepository persists the supervisor roster
type SupervisorRepository interface {
	List(ctx context.Context, active bool) ([]*models.Supervisor, error)
	GetByID(ctx context.Context, id int64) (*models.Supervisor, error)
	StaffNoExists(ctx context.Context, staffNo string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, supervisor *models.Supervisor) error
	Update(ctx context.Context, supervisor *models.Supervisor) error
	Delete(ctx context.Context, ids []int64) (int64, error)
}

// UserRepository persists login credentials
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// UpdateUsername renames the credential provisioned for a roster row
	UpdateUsername(ctx context.Context, credentialType models.CredentialType, typeID int64, username string) error
	DeleteByType(ctx context.Context, credentialType models.CredentialType, typeIDs []int64) (int64, error)
}

// AttachmentRepository persists attachments
type AttachmentRepository interface {
	ListByStatus(ctx context.Context, status models.AttachmentStatus) ([]*models.AttachmentListing, error)
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)
	HasOpen(ctx context.Context, studentID int64) (bool, error)
	Create(ctx context.Context, attachment *models.Attachment) error
	Update(ctx context.Context, attachment *models.Attachment) error
	// Delete removes the given ids whose status is one of statuses
	Delete(ctx context.Context, ids []int64, statuses []models.AttachmentStatus) (int64, error)
}

// LogbookRepository persists logbook entries
type LogbookRepository interface {
	ListByAttachment(ctx context.Context, attachmentID int64) ([]*models.LogbookEntry, error)
	GetByID(ctx context.Context, id int64) (*models.LogbookEntry, error)
	Create(ctx context.Context, entry *models.LogbookEntry) error
	Update(ctx context.Context, entry *models.LogbookEntry) error
	Delete(ctx context.Context, id int64) (int64, error)
}

// TxFn is run by Store.InTx and Store.Savepoint with a Store bound to the
// open transaction.
type TxFn func(ctx context.Context, tx Store) error

// Store groups the repositories behind one transactional boundary
type Store interface {
	Students() StudentRepository
	Supervisors() SupervisorRepository
	Users() UserRepository
	Attachments() AttachmentRepository
	Logbook() LogbookRepository

	// InTx runs fn in a transaction that commits when fn returns nil
	InTx(ctx context.Context, fn TxFn) error
	// Savepoint runs fn so that a failure undoes only fn's writes. Called
	// outside a transaction it behaves like InTx.
	Savepoint(ctx context.Context, fn TxFn) error

	Ping(ctx context.Context) error
}
