package controllers

import (
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/gin-gonic/gin"
)

// ingestResponse answers a committed upload with "OK" or the skipped records
func ingestResponse(ctx *gin.Context, result *services.IngestResult) {
	resp := dto.IngestResponse{
		Created: result.Created,
		Errors:  make([]dto.RecordErrorResponse, 0, len(result.Errors)),
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, dto.RecordErrorResponse{Key: e.Key, Reason: e.Reason})
	}

	message := "OK"
	if !result.OK() {
		message = "Some records were not added"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, message))
}
