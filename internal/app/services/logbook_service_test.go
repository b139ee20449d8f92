package services

import (
	"context"
	"testing"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogbookEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	studentID, _ := seedPeople(t, f)

	a, err := f.attachments.Create(ctx, studentID, placement())
	require.NoError(t, err)

	second, err := f.logbook.Add(ctx, a.ID, LogInput{LogDate: day(8), Log: "Configured routers"}, adminActor)
	require.NoError(t, err)
	first, err := f.logbook.Add(ctx, a.ID, LogInput{LogDate: day(7), Log: "  Orientation  "}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Orientation", first.Log)
	assert.False(t, first.DateCreated.IsZero())

	entries, err := f.logbook.List(ctx, a.ID, adminActor)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)

	edited, err := f.logbook.Edit(ctx, second.ID, LogInput{LogDate: day(9), Log: "Configured switches"}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Configured switches", edited.Log)
	assert.Equal(t, day(9), edited.LogDate)
	assert.Equal(t, a.ID, edited.Attachment)

	require.NoError(t, f.logbook.Delete(ctx, first.ID, adminActor))
	err = f.logbook.Delete(ctx, first.ID, adminActor)
	assert.EqualError(t, err, "Record not found")

	entries, err = f.logbook.List(ctx, a.ID, adminActor)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLogbookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	studentID, _ := seedPeople(t, f)

	a, err := f.attachments.Create(ctx, studentID, placement())
	require.NoError(t, err)

	_, err = f.logbook.Add(ctx, a.ID, LogInput{LogDate: day(7), Log: "   "}, adminActor)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.logbook.Add(ctx, a.ID, LogInput{Log: "No date"}, adminActor)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.logbook.Add(ctx, a.ID+1, LogInput{LogDate: day(7), Log: "Orphan"}, adminActor)
	assert.EqualError(t, err, "Attachment not found")

	_, err = f.logbook.Edit(ctx, 404, LogInput{LogDate: day(7), Log: "Missing"}, adminActor)
	assert.EqualError(t, err, "Record not found")

	entries, err := f.logbook.List(ctx, a.ID+1, adminActor)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogbookStudentAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ingest.IngestStudents(ctx, studentBatch(2), true)
	require.NoError(t, err)
	students, err := f.students.List(ctx, true)
	require.NoError(t, err)
	owner := Actor{CredentialID: 11, Type: models.CredentialStudent, TypeID: students[0].ID}
	other := Actor{CredentialID: 12, Type: models.CredentialStudent, TypeID: students[1].ID}

	a, err := f.attachments.Create(ctx, students[0].ID, placement())
	require.NoError(t, err)

	entry, err := f.logbook.Add(ctx, a.ID, LogInput{LogDate: day(7), Log: "Orientation"}, owner)
	require.NoError(t, err)

	_, err = f.logbook.Add(ctx, a.ID, LogInput{LogDate: day(8), Log: "Not mine"}, other)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.logbook.List(ctx, a.ID, other)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.logbook.Edit(ctx, entry.ID, LogInput{LogDate: day(8), Log: "Rewritten"}, other)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	err = f.logbook.Delete(ctx, entry.ID, other)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	err = f.logbook.Delete(ctx, entry.ID+100, other)
	assert.EqualError(t, err, "Record not found")

	entries, err := f.logbook.List(ctx, a.ID, owner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Orientation", entries[0].Log)

	_, err = f.logbook.Edit(ctx, entry.ID, LogInput{LogDate: day(8), Log: "Orientation day"}, owner)
	require.NoError(t, err)
	require.NoError(t, f.logbook.Delete(ctx, entry.ID, owner))
}
