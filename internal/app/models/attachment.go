package models

import (
	"time"
)

// AttachmentStatus is the lifecycle state of an attachment
type AttachmentStatus string

const (
	StatusNotAssigned     AttachmentStatus = "NOT-ASSIGNED"
	StatusOnGoing         AttachmentStatus = "ON-GOING"
	StatusNotGraded       AttachmentStatus = "NOT GRADED"
	StatusAwaitingGrading AttachmentStatus = "AWAITING GRADING"
	StatusCompleted       AttachmentStatus = "COMPLETED"
	StatusCancelled       AttachmentStatus = "CANCELLED"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []AttachmentStatus{
	StatusNotAssigned,
	StatusOnGoing,
	StatusNotGraded,
	StatusAwaitingGrading,
	StatusCompleted,
	StatusCancelled,
}

// OpenStatuses block a student from starting another attachment
var OpenStatuses = []AttachmentStatus{
	StatusNotAssigned,
	StatusOnGoing,
	StatusNotGraded,
	StatusAwaitingGrading,
}

// DeletableStatuses are the only states a bulk delete touches
var DeletableStatuses = []AttachmentStatus{
	StatusNotAssigned,
	StatusCancelled,
}

var transitions = map[AttachmentStatus][]AttachmentStatus{
	StatusNotAssigned:     {StatusOnGoing, StatusCancelled},
	StatusOnGoing:         {StatusNotGraded, StatusAwaitingGrading, StatusCompleted, StatusCancelled},
	StatusNotGraded:       {StatusAwaitingGrading, StatusCompleted, StatusCancelled},
	StatusAwaitingGrading: {StatusCompleted, StatusCancelled},
}

// IsValid reports whether s is a known status
func (s AttachmentStatus) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether s still counts as the student's current attachment
func (s AttachmentStatus) IsOpen() bool {
	for _, v := range OpenStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether an attachment may move from s to next.
// Staying put is allowed for every state except CANCELLED; a graded
// attachment may be re-graded.
func (s AttachmentStatus) CanTransition(next AttachmentStatus) bool {
	if s == next {
		return s != StatusCancelled
	}
	for _, v := range transitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// Attachment is one student's placement at a host company
type Attachment struct {
	ID                        int64            `json:"id" db:"id"`
	Student                   int64            `json:"student" db:"student"`
	Supervisor                *int64           `json:"supervisor,omitempty" db:"supervisor"`
	Company                   string           `json:"company" db:"company"`
	StartDate                 time.Time        `json:"startDate" db:"start_date"`
	EndDate                   time.Time        `json:"endDate" db:"end_date"`
	IndustrySupervisor        string           `json:"industrySupervisor" db:"industry_supervisor"`
	IndustrySupervisorContact string           `json:"industrySupervisorContact" db:"industry_supervisor_contact"`
	Status                    AttachmentStatus `json:"status" db:"status"`
	Score                     *float64         `json:"score,omitempty" db:"score"`
	Grade                     *string          `json:"grade,omitempty" db:"grade"`
	DateCreated               time.Time        `json:"dateCreated" db:"date_created"`
	DateUpdate                time.Time        `json:"dateUpdate" db:"date_update"`
	UpdatedBy                 *int64           `json:"updatedBy,omitempty" db:"updated_by"`
}

// AttachmentListing is an attachment joined with the names shown in lists
type AttachmentListing struct {
	Attachment
	StudentName    string  `json:"studentName" db:"student_name"`
	RegistrationNo string  `json:"registrationNo" db:"registration_no"`
	SupervisorName *string `json:"supervisorName,omitempty" db:"supervisor_name"`
}
