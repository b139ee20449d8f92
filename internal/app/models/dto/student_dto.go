package dto

import (
	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
)

// StudentCandidate is one row of a bulk student upload. Its fields are
// checked by the ingestion pipeline so that every problem is reported with
// the offending value.
type StudentCandidate struct {
	RegistrationNo string `json:"registrationNo" example:"SCT211-0001/2020"`
	Firstname      string `json:"firstname" example:"Jane"`
	Lastname       string `json:"lastname" example:"Wanjiru"`
	Othernames     string `json:"othernames,omitempty" example:"Njeri"`
	Phone          string `json:"phone" example:"0712345678"`
	Email          string `json:"email" example:"jane@example.com"`
}

// UpdateStudentRequest is a partial student update. Empty strings and
// missing flags leave the stored value untouched.
type UpdateStudentRequest struct {
	RegistrationNo string `json:"registrationNo" binding:"omitempty,max=50"`
	Firstname      string `json:"firstname" binding:"omitempty,max=100"`
	Lastname       string `json:"lastname" binding:"omitempty,max=100"`
	Othernames     string `json:"othernames" binding:"omitempty,max=100"`
	Phone          string `json:"phone" binding:"omitempty,kephone"`
	Email          string `json:"email" binding:"omitempty,email"`
	Active         *bool  `json:"active"`
	Approved       *bool  `json:"approved"`
}

// StudentResponse represents a student record
type StudentResponse struct {
	ID             int64  `json:"id"`
	RegistrationNo string `json:"registrationNo"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Othernames     string `json:"othernames,omitempty"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Active         bool   `json:"active"`
	Approved       bool   `json:"approved"`
	DateCreated    string `json:"dateCreated" example:"2024-01-15 09:30:00"`
}

// ToStudentResponse converts a student model
func ToStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:             s.ID,
		RegistrationNo: s.RegistrationNo,
		Firstname:      s.Firstname,
		Lastname:       s.Lastname,
		Othernames:     helpers.StringValue(s.Othernames),
		Phone:          s.Phone,
		Email:          s.Email,
		Active:         s.Active,
		Approved:       s.Approved,
		DateCreated:    helpers.FormatTimestamp(s.DateCreated, false),
	}
}

// ToStudentResponses converts a list of student models
func ToStudentResponses(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, ToStudentResponse(s))
	}
	return out
}
