package dto

import (
	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
)

// CreateAttachmentRequest opens a new attachment for a student
type CreateAttachmentRequest struct {
	Company                   string `json:"company" binding:"required,max=200" example:"Safaricom PLC"`
	StartDate                 string `json:"startDate" binding:"required,datetime=2006-01-02" example:"2024-05-06"`
	EndDate                   string `json:"endDate" binding:"required,datetime=2006-01-02" example:"2024-08-09"`
	IndustrySupervisor        string `json:"industrySupervisor" binding:"required,max=200" example:"Mary Achieng"`
	IndustrySupervisorContact string `json:"industrySupervisorContact" binding:"required,max=200" example:"0733000222"`
}

// UpdateAttachmentRequest is a partial attachment update. Empty strings,
// a zero supervisor and missing flags are ignored; a score of 0 is kept.
type UpdateAttachmentRequest struct {
	Company                   string   `json:"company" binding:"omitempty,max=200"`
	StartDate                 string   `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate                   string   `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
	IndustrySupervisor        string   `json:"industrySupervisor" binding:"omitempty,max=200"`
	IndustrySupervisorContact string   `json:"industrySupervisorContact" binding:"omitempty,max=200"`
	Supervisor                int64    `json:"supervisor" binding:"omitempty,min=1" example:"4"`
	Score                     *float64 `json:"score" binding:"omitempty,min=0,max=100" example:"78"`
	Grade                     string   `json:"grade" binding:"omitempty,max=5" example:"A"`
	StudentDone               *bool    `json:"studentDone"`
	Cancelled                 *bool    `json:"cancelled"`
}

// AttachmentResponse represents an attachment record
type AttachmentResponse struct {
	ID                        int64    `json:"id"`
	Student                   int64    `json:"student"`
	Supervisor                *int64   `json:"supervisor"`
	Company                   string   `json:"company"`
	StartDate                 string   `json:"startDate"`
	EndDate                   string   `json:"endDate"`
	IndustrySupervisor        string   `json:"industrySupervisor"`
	IndustrySupervisorContact string   `json:"industrySupervisorContact"`
	Status                    string   `json:"status" example:"ON-GOING"`
	Score                     *float64 `json:"score"`
	Grade                     *string  `json:"grade"`
	DateCreated               string   `json:"dateCreated"`
	DateUpdate                string   `json:"dateUpdate"`
	UpdatedBy                 *int64   `json:"updatedBy"`
}

// AttachmentListingResponse is an attachment joined with its people
type AttachmentListingResponse struct {
	AttachmentResponse
	StudentName    string  `json:"studentName" example:"Jane Wanjiru"`
	RegistrationNo string  `json:"registrationNo" example:"SCT211-0001/2020"`
	SupervisorName *string `json:"supervisorName" example:"Peter Otieno"`
}

// ToAttachmentResponse converts an attachment model
func ToAttachmentResponse(a *models.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:                        a.ID,
		Student:                   a.Student,
		Supervisor:                a.Supervisor,
		Company:                   a.Company,
		StartDate:                 helpers.FormatDate(a.StartDate),
		EndDate:                   helpers.FormatDate(a.EndDate),
		IndustrySupervisor:        a.IndustrySupervisor,
		IndustrySupervisorContact: a.IndustrySupervisorContact,
		Status:                    string(a.Status),
		Score:                     a.Score,
		Grade:                     a.Grade,
		DateCreated:               helpers.FormatTimestamp(a.DateCreated, false),
		DateUpdate:                helpers.FormatTimestamp(a.DateUpdate, false),
		UpdatedBy:                 a.UpdatedBy,
	}
}

// ToAttachmentListingResponses converts joined attachment rows
func ToAttachmentListingResponses(listings []*models.AttachmentListing) []AttachmentListingResponse {
	out := make([]AttachmentListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, AttachmentListingResponse{
			AttachmentResponse: ToAttachmentResponse(&l.Attachment),
			StudentName:        l.StudentName,
			RegistrationNo:     l.RegistrationNo,
			SupervisorName:     l.SupervisorName,
		})
	}
	return out
}
