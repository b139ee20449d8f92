package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/app/repositories/memstore"
	"github.com/attachtrack/attachtrack/internal/db"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/auth"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phoneFor(i int) string {
	return fmt.Sprintf("07%08d", i)
}

func studentBatch(n int) []RosterRecord {
	records := make([]RosterRecord, n)
	for i := range records {
		records[i] = studentRecord(fmt.Sprintf("sct211-%04d/2020", i+1), phoneFor(i+1))
	}
	return records
}

func TestIngestStudentsCreatesRecordsAndCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.ingest.IngestStudents(ctx, studentBatch(2), true)
	require.NoError(t, err)
	if diff := cmp.Diff(&IngestResult{Created: 2, Errors: []RecordError{}}, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, result.OK())

	students, err := f.students.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "SCT211-0001/2020", students[0].RegistrationNo)
	assert.Equal(t, "+254700000001", students[0].Phone)
	assert.True(t, students[0].Approved)
	assert.True(t, students[0].Active)
	assert.Nil(t, students[0].Othernames)

	user, err := f.store.Users().GetByUsername(ctx, "SCT211-0001/2020")
	require.NoError(t, err)
	assert.Equal(t, models.CredentialStudent, user.Type)
	assert.Equal(t, students[0].ID, user.TypeID)
	assert.True(t, user.Reset)
	assert.Equal(t, "hashed:+254700000001", user.Password)
	require.NotNil(t, user.TempPassword)
	assert.Equal(t, "hashed:+254700000001", *user.TempPassword)

	notices := f.notifier.sent()
	require.Len(t, notices, 2)
	assert.Equal(t, "SCT211-0001/2020", notices[0].Username)
	assert.Equal(t, "Jane Wanjiru", notices[0].ToName)
	assert.NotContains(t, notices[0].Hint, "+254700000001")
}

func TestIngestStudentsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ingest.IngestStudents(ctx, studentBatch(2), false)
	require.NoError(t, err)

	result, err := f.ingest.IngestStudents(ctx, studentBatch(2), false)
	require.NoError(t, err)
	want := &IngestResult{Errors: []RecordError{
		{Key: "SCT211-0001/2020", Reason: ReasonAlreadyExists},
		{Key: "SCT211-0002/2020", Reason: ReasonAlreadyExists},
	}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, result.OK())
	assert.Len(t, f.notifier.sent(), 2)

	students, err := f.students.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestIngestStudentsReportsStoredPhoneAndEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ingest.IngestStudents(ctx, studentBatch(1), false)
	require.NoError(t, err)

	samePhone := studentRecord("SCT211-0100/2020", "+254700000001")
	sameEmail := studentRecord("SCT211-0101/2020", phoneFor(101))
	sameEmail.Email = "SCT211-00012020@students.example.ac.ke"
	fresh := studentRecord("SCT211-0102/2020", phoneFor(102))

	result, err := f.ingest.IngestStudents(ctx, []RosterRecord{samePhone, sameEmail, fresh}, false)
	require.NoError(t, err)
	want := &IngestResult{Created: 1, Errors: []RecordError{
		{Key: "+254700000001", Reason: "Already used by another student."},
		{Key: "sct211-00012020@students.example.ac.ke", Reason: "Already used by another student."},
	}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestBatchSize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ingest.IngestStudents(ctx, nil, false)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.EqualError(t, err, "No data provided")

	_, err = f.ingest.IngestStudents(ctx, studentBatch(201), false)
	assert.EqualError(t, err, "You cannot upload more than 200 records at once.")

	result, err := f.ingest.IngestStudents(ctx, studentBatch(200), false)
	require.NoError(t, err)
	assert.Equal(t, 200, result.Created)
}

func TestNewRosterIngestServiceClampsBatch(t *testing.T) {
	store := memstore.New()
	svc := NewRosterIngestService(store, plainHasher{}, &recordingNotifier{}, 5000, zerolog.Nop())
	assert.Equal(t, 200, svc.maxBatch)

	svc = NewRosterIngestService(store, plainHasher{}, &recordingNotifier{}, 3, zerolog.Nop())
	_, err := svc.IngestStudents(context.Background(), studentBatch(4), false)
	assert.EqualError(t, err, "You cannot upload more than 3 records at once.")
}

func TestIngestRejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name    string
		records func() []RosterRecord
		message string
	}{
		{
			name: "invalid phone",
			records: func() []RosterRecord {
				r := studentBatch(3)
				r[1].Phone = " 0202345678 "
				r[2].Phone = "12"
				return r
			},
			message: "Invalid phone number 0202345678",
		},
		{
			name: "missing key",
			records: func() []RosterRecord {
				r := studentBatch(2)
				r[1].Key = "  "
				return r
			},
			message: "Record 2 has no Registration No.",
		},
		{
			name: "missing name",
			records: func() []RosterRecord {
				r := studentBatch(2)
				r[0].Lastname = ""
				return r
			},
			message: "Invalid first or last name for SCT211-0001/2020",
		},
		{
			name: "invalid email",
			records: func() []RosterRecord {
				r := studentBatch(2)
				r[1].Email = "Not-An-Email"
				return r
			},
			message: "Invalid email address not-an-email",
		},
		{
			name: "repeated key after normalization",
			records: func() []RosterRecord {
				r := studentBatch(2)
				r[1].Key = " SCT211-0001/2020"
				return r
			},
			message: "Registration No. SCT211-0001/2020 appears more than once in the data.",
		},
		{
			name: "repeated phone in different shapes",
			records: func() []RosterRecord {
				r := studentBatch(2)
				r[1].Phone = "+254700000001"
				return r
			},
			message: "Phone No. +254700000001 appears more than once in the data",
		},
		{
			name: "repeated email",
			records: func() []RosterRecord {
				r := studentBatch(2)
				r[1].Email = r[0].Email
				return r
			},
			message: "Email address sct211-00012020@students.example.ac.ke appears more than once in the data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			result, err := f.ingest.IngestStudents(ctx, tt.records(), false)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, apperrors.ErrBadRequest)
			assert.EqualError(t, err, tt.message)

			students, err := f.students.List(ctx, true)
			require.NoError(t, err)
			assert.Empty(t, students)
			assert.Empty(t, f.notifier.sent())
		})
	}
}

func TestIngestTreatsInsertCollisionAsSoftError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.InjectCreateError(memstore.EntityStudent, "SCT211-0002/2020",
		fmt.Errorf("%w: students_registration_no_key", repositories.ErrDuplicate))

	result, err := f.ingest.IngestStudents(ctx, studentBatch(3), false)
	require.NoError(t, err)
	want := &IngestResult{Created: 2, Errors: []RecordError{
		{Key: "SCT211-0002/2020", Reason: ReasonAlreadyExists},
	}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, f.notifier.sent(), 2)
}

func TestIngestCredentialCollisionRollsBackRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.InjectCreateError(memstore.EntityUser, "SCT211-0001/2020",
		fmt.Errorf("%w: users_username_key", repositories.ErrDuplicate))

	result, err := f.ingest.IngestStudents(ctx, studentBatch(2), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "SCT211-0001/2020", result.Errors[0].Key)

	exists, err := f.store.Students().RegistrationNoExists(ctx, "SCT211-0001/2020")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIngestAbortsOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	boom := errors.New("connection reset")
	f.store.InjectCreateError(memstore.EntityStudent, "SCT211-0003/2020", boom)

	result, err := f.ingest.IngestStudents(ctx, studentBatch(3), false)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)

	students, err := f.students.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, students)
	_, err = f.store.Users().GetByUsername(ctx, "SCT211-0001/2020")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Empty(t, f.notifier.sent())
}

func TestIngestSupervisors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	records := []RosterRecord{
		supervisorRecord("stf-001", "0711000001"),
		supervisorRecord("STF-002", "0711000002"),
	}
	result, err := f.ingest.IngestSupervisors(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	user, err := f.store.Users().GetByUsername(ctx, "stf-001@example.ac.ke")
	require.NoError(t, err)
	assert.Equal(t, models.CredentialSupervisor, user.Type)
	assert.Equal(t, "hashed:STF-001", user.Password)
	require.NotNil(t, user.TempPassword)
	assert.Equal(t, "hashed:+254711000001", *user.TempPassword)

	again := supervisorRecord("STF-003", "+254711000002")
	result, err = f.ingest.IngestSupervisors(ctx, []RosterRecord{again})
	require.NoError(t, err)
	assert.Equal(t, []RecordError{{Key: "+254711000002", Reason: "Already used by another staff member."}}, result.Errors)

	_, err = f.ingest.IngestSupervisors(ctx, []RosterRecord{
		supervisorRecord("STF-004", "0711000004"),
		supervisorRecord("stf-004", "0711000005"),
	})
	assert.EqualError(t, err, "Staff No. STF-004 appears more than once in the data.")
}

// deadlineStore bounds every transaction the way the postgres store bounds
// requests that carry no deadline of their own
type deadlineStore struct {
	repositories.Store
}

func (s deadlineStore) InTx(ctx context.Context, fn repositories.TxFn) error {
	ctx, cancel := context.WithTimeout(ctx, db.DefaultTxTimeout)
	defer cancel()
	return s.Store.InTx(ctx, fn)
}

func TestIngestFullSupervisorBatchWithProductionBcryptCost(t *testing.T) {
	if testing.Short() {
		t.Skip("hashes 400 passwords at bcrypt cost 12")
	}
	store := memstore.New()
	hasher := auth.NewBcryptHasher(12)
	svc := NewRosterIngestService(deadlineStore{store}, hasher, &recordingNotifier{}, 200, zerolog.Nop())

	records := make([]RosterRecord, 200)
	for i := range records {
		records[i] = supervisorRecord(fmt.Sprintf("STF-%03d", i+1), phoneFor(i+1))
	}
	result, err := svc.IngestSupervisors(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 200, result.Created)
	assert.Empty(t, result.Errors)

	user, err := store.Users().GetByUsername(context.Background(), "stf-200@example.ac.ke")
	require.NoError(t, err)
	assert.True(t, hasher.Compare(user.Password, "STF-200"))
	require.NotNil(t, user.TempPassword)
	assert.True(t, hasher.Compare(*user.TempPassword, "+254700000200"))
}

type failingHasher struct {
	plainHasher
	fail string
}

func (h failingHasher) Hash(plain string) (string, error) {
	if plain == h.fail {
		return "", errors.New("hash failed")
	}
	return h.plainHasher.Hash(plain)
}

func TestIngestHashFailureSavesNothing(t *testing.T) {
	store := memstore.New()
	notifier := &recordingNotifier{}
	svc := NewRosterIngestService(store, failingHasher{fail: "+254700000002"}, notifier, 200, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.IngestStudents(ctx, studentBatch(3), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash failed")

	students, err := store.Students().List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Empty(t, notifier.sent())
}
