package controllers

import (
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/middleware"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LogbookController handles logbook entries
type LogbookController struct {
	logbookService *services.LogbookService
	logger         zerolog.Logger
}

// NewLogbookController creates a new LogbookController
func NewLogbookController(logbookService *services.LogbookService, logger zerolog.Logger) *LogbookController {
	return &LogbookController{
		logbookService: logbookService,
		logger:         logger,
	}
}

func (c *LogbookController) bindLog(ctx *gin.Context) (services.LogInput, bool) {
	var req dto.LogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Debug().Err(err).Msg("Invalid logbook payload")
		middleware.HandleBindError(ctx, err)
		return services.LogInput{}, false
	}
	logDate, _ := helpers.ParseDate(req.LogDate)
	return services.LogInput{LogDate: logDate, Log: req.Log}, true
}

// List godoc
// @Summary List logbook entries of an attachment
// @Tags logbook
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.LogResponse}
// @Failure 403 {object} dto.APIResponse "Not the caller's own attachment"
// @Router /attachments/{id}/logs [get]
func (c *LogbookController) List(ctx *gin.Context) {
	attachmentID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	entries, err := c.logbookService.List(ctx.Request.Context(), attachmentID, actorFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToLogResponses(entries), ""))
}

// Add godoc
// @Summary Add a logbook entry
// @Tags logbook
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Param request body dto.LogRequest true "Entry"
// @Success 201 {object} dto.APIResponse{data=dto.LogResponse}
// @Failure 400 {object} dto.APIResponse "Attachment not found"
// @Failure 403 {object} dto.APIResponse "Not the caller's own attachment"
// @Router /attachments/{id}/logs [post]
func (c *LogbookController) Add(ctx *gin.Context) {
	attachmentID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	input, ok := c.bindLog(ctx)
	if !ok {
		return
	}

	entry, err := c.logbookService.Add(ctx.Request.Context(), attachmentID, input, actorFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ToLogResponse(entry), "OK"))
}

// Edit godoc
// @Summary Edit a logbook entry
// @Tags logbook
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Param request body dto.LogRequest true "Entry"
// @Success 200 {object} dto.APIResponse{data=dto.LogResponse}
// @Failure 400 {object} dto.APIResponse "Record not found"
// @Failure 403 {object} dto.APIResponse "Not the caller's own attachment"
// @Router /logs/{id} [put]
func (c *LogbookController) Edit(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	input, ok := c.bindLog(ctx)
	if !ok {
		return
	}

	entry, err := c.logbookService.Edit(ctx.Request.Context(), id, input, actorFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToLogResponse(entry), "OK"))
}

// Delete godoc
// @Summary Delete a logbook entry
// @Tags logbook
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse "Record not found"
// @Failure 403 {object} dto.APIResponse "Not the caller's own attachment"
// @Router /logs/{id} [delete]
func (c *LogbookController) Delete(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.logbookService.Delete(ctx.Request.Context(), id, actorFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "OK"))
}
