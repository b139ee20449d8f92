package models

import (
	"time"

	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
)

// Supervisor is an academic staff member who oversees attachments
type Supervisor struct {
	ID          int64     `json:"id" db:"id" example:"1"`
	StaffNo     string    `json:"staffNo" db:"staff_no" example:"STF-042"`
	Firstname   string    `json:"firstname" db:"firstname" example:"Peter"`
	Lastname    string    `json:"lastname" db:"lastname" example:"Otieno"`
	Othernames  *string   `json:"othernames,omitempty" db:"othernames"`
	Phone       string    `json:"phone" db:"phone" example:"+254722000111"`
	Email       string    `json:"email" db:"email" example:"potieno@example.ac.ke"`
	Active      bool      `json:"active" db:"active" example:"true"`
	DateCreated time.Time `json:"dateCreated" db:"date_created"`
}

// FullName is the display name used in listings
func (s *Supervisor) FullName() string {
	return helpers.FullName(s.Firstname, s.Lastname)
}
