package models

import (
	"time"

	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
)

// Student defines the student model based on the 'students' table
type Student struct {
	ID             int64     `json:"id" db:"id" example:"1"`
	RegistrationNo string    `json:"registrationNo" db:"registration_no" example:"SCT211-0001/2020"`
	Firstname      string    `json:"firstname" db:"firstname" example:"Jane"`
	Lastname       string    `json:"lastname" db:"lastname" example:"Wanjiru"`
	Othernames     *string   `json:"othernames,omitempty" db:"othernames"`
	Phone          string    `json:"phone" db:"phone" example:"+254712345678"`
	Email          string    `json:"email" db:"email" example:"jane@students.example.ac.ke"`
	Active         bool      `json:"active" db:"active" example:"true"`
	Approved       bool      `json:"approved" db:"approved" example:"false"`
	DateCreated    time.Time `json:"dateCreated" db:"date_created"`
}

// FullName is the display name used in listings
func (s *Student) FullName() string {
	return helpers.FullName(s.Firstname, s.Lastname)
}
