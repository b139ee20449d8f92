package services

import (
	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
)

// Actor is the credential a change is made on behalf of
type Actor struct {
	CredentialID int64
	Type         models.CredentialType
	TypeID       int64
}

// IsStudent reports whether the actor is a student credential
func (a Actor) IsStudent() bool {
	return a.Type == models.CredentialStudent
}

// canActFor reports whether a may touch records of studentID. Admins and
// supervisors act on any student.
func (a Actor) canActFor(studentID int64) bool {
	return !a.IsStudent() || a.TypeID == studentID
}

func permissionDenied(message string) error {
	return apperrors.NewCustomError(apperrors.ErrPermissionDenied, message)
}
