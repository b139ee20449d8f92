package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to AttachmentStatus
		want     bool
	}{
		{StatusNotAssigned, StatusOnGoing, true},
		{StatusNotAssigned, StatusCancelled, true},
		{StatusNotAssigned, StatusAwaitingGrading, false},
		{StatusNotAssigned, StatusCompleted, false},
		{StatusOnGoing, StatusAwaitingGrading, true},
		{StatusOnGoing, StatusCompleted, true},
		{StatusOnGoing, StatusNotAssigned, false},
		{StatusNotGraded, StatusCompleted, true},
		{StatusAwaitingGrading, StatusCompleted, true},
		{StatusAwaitingGrading, StatusOnGoing, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCancelled, StatusOnGoing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestAttachmentStatusSets(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, AttachmentStatus("DONE").IsValid())

	assert.True(t, StatusNotGraded.IsOpen())
	assert.False(t, StatusCompleted.IsOpen())
	assert.False(t, StatusCancelled.IsOpen())
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, "SCT211-0001/2020", NormalizeNaturalKey("  sct211-0001/2020 "))
	assert.Equal(t, "jane@example.com", NormalizeEmail(" Jane@Example.COM "))
}

func TestFullName(t *testing.T) {
	s := &Student{Firstname: "Jane", Lastname: "Wanjiru"}
	assert.Equal(t, "Jane Wanjiru", s.FullName())
}
