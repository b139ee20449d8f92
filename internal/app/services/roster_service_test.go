package services

import (
	"context"
	"testing"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentUpdateRenamesCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	studentID, _ := seedPeople(t, f)

	updated, err := f.students.Update(ctx, studentID, StudentPatch{
		RegistrationNo: ptr(" sct211-0999/2020 "),
		Phone:          ptr("0799000000"),
		Othernames:     ptr("Akinyi"),
		Active:         ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "SCT211-0999/2020", updated.RegistrationNo)
	assert.Equal(t, "+254799000000", updated.Phone)
	assert.Equal(t, "Akinyi", *updated.Othernames)
	assert.False(t, updated.Active)

	_, err = f.store.Users().GetByUsername(ctx, "SCT211-0001/2020")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	user, err := f.store.Users().GetByUsername(ctx, "SCT211-0999/2020")
	require.NoError(t, err)
	assert.Equal(t, studentID, user.TypeID)

	active, err := f.students.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	inactive, err := f.students.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, inactive, 1)
}

func TestStudentUpdateRejectsInvalidAndTakenValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ingest.IngestStudents(ctx, studentBatch(2), false)
	require.NoError(t, err)
	students, err := f.students.List(ctx, true)
	require.NoError(t, err)
	id := students[0].ID

	_, err = f.students.Update(ctx, id, StudentPatch{Phone: ptr("0202345678")})
	assert.EqualError(t, err, "Invalid phone number 0202345678")

	_, err = f.students.Update(ctx, id, StudentPatch{Email: ptr("nobody")})
	assert.EqualError(t, err, "Invalid email address nobody")

	_, err = f.students.Update(ctx, id, StudentPatch{Firstname: ptr(" ")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.students.Update(ctx, id, StudentPatch{Phone: ptr(students[1].Phone)})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.students.Update(ctx, id, StudentPatch{RegistrationNo: ptr(students[1].RegistrationNo)})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.students.Update(ctx, 999, StudentPatch{Active: ptr(false)})
	assert.EqualError(t, err, "Record not found")

	stored, err := f.students.List(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, students[0].Phone, stored[0].Phone)
}

func TestStudentDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	studentID, _ := seedPeople(t, f)

	_, err := f.students.Delete(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = f.attachments.Create(ctx, studentID, placement())
	require.NoError(t, err)

	_, err = f.students.Delete(ctx, []int64{studentID})
	assert.ErrorIs(t, err, apperrors.ErrHasDependents)
	assert.EqualError(t, err, "Failed to delete, record dependencies found")

	_, err = f.ingest.IngestStudents(ctx, []RosterRecord{studentRecord("SCT211-0500/2020", "0700000500")}, false)
	require.NoError(t, err)
	user, err := f.store.Users().GetByUsername(ctx, "SCT211-0500/2020")
	require.NoError(t, err)

	affected, err := f.students.Delete(ctx, []int64{user.TypeID, 777})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = f.store.Users().GetByUsername(ctx, "SCT211-0500/2020")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = f.store.Users().GetByUsername(ctx, "SCT211-0001/2020")
	assert.NoError(t, err)
}

func TestSupervisorUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	studentID, supervisorID := seedPeople(t, f)

	updated, err := f.supervisors.Update(ctx, supervisorID, SupervisorPatch{Email: ptr(" P.Otieno@Example.ac.ke ")})
	require.NoError(t, err)
	assert.Equal(t, "p.otieno@example.ac.ke", updated.Email)

	user, err := f.store.Users().GetByUsername(ctx, "p.otieno@example.ac.ke")
	require.NoError(t, err)
	assert.Equal(t, models.CredentialSupervisor, user.Type)

	_, err = f.supervisors.Update(ctx, supervisorID, SupervisorPatch{StaffNo: ptr("  ")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	a, err := f.attachments.Create(ctx, studentID, placement())
	require.NoError(t, err)
	_, err = f.attachments.Update(ctx, a.ID, AttachmentPatch{Supervisor: ptr(supervisorID)}, adminActor)
	require.NoError(t, err)

	_, err = f.supervisors.Delete(ctx, []int64{supervisorID})
	assert.ErrorIs(t, err, apperrors.ErrHasDependents)
	_, err = f.store.Users().GetByUsername(ctx, "p.otieno@example.ac.ke")
	assert.NoError(t, err, "credential must survive a blocked delete")
}
