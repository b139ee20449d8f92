package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestWithRollbackErrorKeepsCause(t *testing.T) {
	cause := apperrors.NewHasDependentsError("Cannot delete a record with dependencies")
	rbErr := errors.New("conn closed")

	err := withRollbackError(cause, fmt.Errorf("rollback error: %w", rbErr))

	assert.ErrorIs(t, err, apperrors.ErrHasDependents)
	assert.ErrorIs(t, err, rbErr)
	msg, ok := apperrors.Message(err)
	assert.True(t, ok)
	assert.Equal(t, "Cannot delete a record with dependencies", msg)
	assert.Contains(t, err.Error(), "rollback error: conn closed")
}
