package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudent(regNo, phone, email string) *models.Student {
	return &models.Student{
		RegistrationNo: regNo,
		Firstname:      "Jane",
		Lastname:       "Wanjiru",
		Phone:          phone,
		Email:          email,
		Active:         true,
		DateCreated:    time.Now(),
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		require.NoError(t, tx.Students().Create(ctx, newStudent("A1", "+254700000001", "a1@x.com")))
		exists, err := tx.Students().RegistrationNoExists(ctx, "A1")
		require.NoError(t, err)
		assert.True(t, exists)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := store.Students().RegistrationNoExists(ctx, "A1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSavepointKeepsOuterWork(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		require.NoError(t, tx.Students().Create(ctx, newStudent("A1", "+254700000001", "a1@x.com")))
		spErr := tx.Savepoint(ctx, func(ctx context.Context, sp repositories.Store) error {
			if err := sp.Students().Create(ctx, newStudent("A2", "+254700000002", "a2@x.com")); err != nil {
				return err
			}
			return sp.Students().Create(ctx, newStudent("A3", "+254700000001", "a3@x.com"))
		})
		assert.ErrorIs(t, spErr, repositories.ErrDuplicate)
		return nil
	})
	require.NoError(t, err)

	students, err := store.Students().List(ctx, true)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "A1", students[0].RegistrationNo)
}

func TestCancelledContextAbortsCommit(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		cancel()
		return tx.Students().Create(ctx, newStudent("A1", "+254700000001", "a1@x.com"))
	})
	assert.ErrorIs(t, err, context.Canceled)

	exists, err := store.Students().RegistrationNoExists(context.Background(), "A1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInjectCreateErrorFiresOnce(t *testing.T) {
	store := New()
	ctx := context.Background()
	injected := errors.New("injected")

	store.InjectCreateError(EntityStudent, "A1", injected)
	err := store.Students().Create(ctx, newStudent("A1", "+254700000001", "a1@x.com"))
	assert.ErrorIs(t, err, injected)

	require.NoError(t, store.Students().Create(ctx, newStudent("A1", "+254700000001", "a1@x.com")))
}

func TestForeignKeyRestrictions(t *testing.T) {
	store := New()
	ctx := context.Background()

	student := newStudent("A1", "+254700000001", "a1@x.com")
	require.NoError(t, store.Students().Create(ctx, student))

	missing := int64(42)
	err := store.Attachments().Create(ctx, &models.Attachment{Student: student.ID, Supervisor: &missing, Status: models.StatusNotAssigned})
	assert.ErrorIs(t, err, repositories.ErrHasDependents)

	a := &models.Attachment{Student: student.ID, Status: models.StatusNotAssigned}
	require.NoError(t, store.Attachments().Create(ctx, a))

	_, err = store.Students().Delete(ctx, []int64{student.ID})
	assert.ErrorIs(t, err, repositories.ErrHasDependents)

	err = store.Logbook().Create(ctx, &models.LogbookEntry{Attachment: a.ID + 1, Log: "x"})
	assert.ErrorIs(t, err, repositories.ErrHasDependents)
}

func TestUpdateUsernameConflicts(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Users().Create(ctx, &models.User{Type: models.CredentialStudent, TypeID: 1, Username: "A1"}))
	require.NoError(t, store.Users().Create(ctx, &models.User{Type: models.CredentialStudent, TypeID: 2, Username: "A2"}))

	err := store.Users().UpdateUsername(ctx, models.CredentialStudent, 1, "A2")
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	// no credential for the row is not an error
	assert.NoError(t, store.Users().UpdateUsername(ctx, models.CredentialSupervisor, 1, "A9"))

	err = store.Users().Create(ctx, &models.User{Type: models.CredentialAdmin, Username: "A1"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}
