package dto

import (
	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
)

// LogRequest is the body used to add or edit a logbook entry
type LogRequest struct {
	LogDate string `json:"logDate" binding:"required,datetime=2006-01-02" example:"2024-05-07"`
	Log     string `json:"log" binding:"required" example:"Set up the staging cluster"`
}

// LogResponse represents a logbook entry
type LogResponse struct {
	ID          int64  `json:"id"`
	Attachment  int64  `json:"attachment"`
	LogDate     string `json:"logDate"`
	Log         string `json:"log"`
	DateCreated string `json:"dateCreated"`
}

// ToLogResponse converts a logbook model
func ToLogResponse(e *models.LogbookEntry) LogResponse {
	return LogResponse{
		ID:          e.ID,
		Attachment:  e.Attachment,
		LogDate:     helpers.FormatDate(e.LogDate),
		Log:         e.Log,
		DateCreated: helpers.FormatTimestamp(e.DateCreated, false),
	}
}

// ToLogResponses converts a list of logbook models
func ToLogResponses(entries []*models.LogbookEntry) []LogResponse {
	out := make([]LogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToLogResponse(e))
	}
	return out
}
