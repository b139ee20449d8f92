package dto

import (
	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
)

// SupervisorCandidate is one row of a bulk supervisor upload
type SupervisorCandidate struct {
	StaffNo    string `json:"staffNo" example:"STF-042"`
	Firstname  string `json:"firstname" example:"Peter"`
	Lastname   string `json:"lastname" example:"Otieno"`
	Othernames string `json:"othernames,omitempty"`
	Phone      string `json:"phone" example:"0722000111"`
	Email      string `json:"email" example:"p.otieno@example.ac.ke"`
}

// UpdateSupervisorRequest is a partial supervisor update
type UpdateSupervisorRequest struct {
	StaffNo    string `json:"staffNo" binding:"omitempty,max=50"`
	Firstname  string `json:"firstname" binding:"omitempty,max=100"`
	Lastname   string `json:"lastname" binding:"omitempty,max=100"`
	Othernames string `json:"othernames" binding:"omitempty,max=100"`
	Phone      string `json:"phone" binding:"omitempty,kephone"`
	Email      string `json:"email" binding:"omitempty,email"`
	Active     *bool  `json:"active"`
}

// SupervisorResponse represents a supervisor record
type SupervisorResponse struct {
	ID          int64  `json:"id"`
	StaffNo     string `json:"staffNo"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Othernames  string `json:"othernames,omitempty"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Active      bool   `json:"active"`
	DateCreated string `json:"dateCreated"`
}

// ToSupervisorResponse converts a supervisor model
func ToSupervisorResponse(s *models.Supervisor) SupervisorResponse {
	return SupervisorResponse{
		ID:          s.ID,
		StaffNo:     s.StaffNo,
		Firstname:   s.Firstname,
		Lastname:    s.Lastname,
		Othernames:  helpers.StringValue(s.Othernames),
		Phone:       s.Phone,
		Email:       s.Email,
		Active:      s.Active,
		DateCreated: helpers.FormatTimestamp(s.DateCreated, false),
	}
}

// ToSupervisorResponses converts a list of supervisor models
func ToSupervisorResponses(supervisors []*models.Supervisor) []SupervisorResponse {
	out := make([]SupervisorResponse, 0, len(supervisors))
	for _, s := range supervisors {
		out = append(out, ToSupervisorResponse(s))
	}
	return out
}
