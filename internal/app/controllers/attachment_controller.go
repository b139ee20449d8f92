package controllers

import (
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/middleware"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AttachmentController handles attachments and their status changes
type AttachmentController struct {
	attachmentService *services.AttachmentService
	logger            zerolog.Logger
}

// NewAttachmentController creates a new AttachmentController
func NewAttachmentController(attachmentService *services.AttachmentService, logger zerolog.Logger) *AttachmentController {
	return &AttachmentController{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// List godoc
// @Summary List attachments by status
// @Tags attachments
// @Produce json
// @Security BearerAuth
// @Param status query string true "Attachment status" Enums(NOT-ASSIGNED, ON-GOING, NOT GRADED, AWAITING GRADING, COMPLETED, CANCELLED)
// @Success 200 {object} dto.APIResponse{data=[]dto.AttachmentListingResponse}
// @Failure 400 {object} dto.APIResponse "Invalid status"
// @Router /attachments [get]
func (c *AttachmentController) List(ctx *gin.Context) {
	status := models.AttachmentStatus(ctx.Query("status"))
	listings, err := c.attachmentService.ListByStatus(ctx.Request.Context(), status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToAttachmentListingResponses(listings), ""))
}

// Create godoc
// @Summary Add an attachment
// @Description Opens an attachment for a student. Students may only open their own, and only when they have no open attachment.
// @Tags attachments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body dto.CreateAttachmentRequest true "Attachment"
// @Success 201 {object} dto.APIResponse{data=dto.AttachmentResponse}
// @Failure 400 {object} dto.APIResponse "Student not found or an open attachment exists"
// @Failure 403 {object} dto.APIResponse "Not the caller's own record"
// @Router /students/{id}/attachments [post]
func (c *AttachmentController) Create(ctx *gin.Context) {
	studentID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if actor := actorFrom(ctx); actor.IsStudent() {
		if actor.TypeID != studentID {
			c.logger.Warn().Int64("studentID", studentID).Int64("caller", actor.TypeID).Msg("Student tried to add another student's attachment")
			middleware.HandleAPIError(ctx, apperrors.NewCustomError(apperrors.ErrPermissionDenied,
				"Students can only add their own attachments"))
			return
		}
	}

	var req dto.CreateAttachmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	// datetime binding has already checked the layout
	start, _ := helpers.ParseDate(req.StartDate)
	end, _ := helpers.ParseDate(req.EndDate)

	attachment, err := c.attachmentService.Create(ctx.Request.Context(), studentID, services.AttachmentInput{
		Company:                   req.Company,
		StartDate:                 start,
		EndDate:                   end,
		IndustrySupervisor:        req.IndustrySupervisor,
		IndustrySupervisorContact: req.IndustrySupervisorContact,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ToAttachmentResponse(attachment), "OK"))
}

// Update godoc
// @Summary Edit an attachment
// @Description Partial update. Assigning the first supervisor starts the attachment, studentDone asks for grading, score with grade completes it and cancelled cancels it.
// @Tags attachments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Param request body dto.UpdateAttachmentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.AttachmentResponse}
// @Failure 400 {object} dto.APIResponse "Record not found, supervisor not found or illegal status change"
// @Failure 403 {object} dto.APIResponse "Students may only mark their own attachment done or edit its details"
// @Router /attachments/{id} [put]
func (c *AttachmentController) Update(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.UpdateAttachmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	patch, err := attachmentPatch(req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	attachment, err := c.attachmentService.Update(ctx.Request.Context(), id, patch, actorFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToAttachmentResponse(attachment), "OK"))
}

// attachmentPatch turns the request into a patch: empty strings and a zero
// supervisor are absent, a zero score is kept
func attachmentPatch(req dto.UpdateAttachmentRequest) (services.AttachmentPatch, error) {
	patch := services.AttachmentPatch{
		Company:                   optional(req.Company),
		IndustrySupervisor:        optional(req.IndustrySupervisor),
		IndustrySupervisorContact: optional(req.IndustrySupervisorContact),
		Score:                     req.Score,
		Grade:                     optional(req.Grade),
		StudentDone:               req.StudentDone,
		Cancelled:                 req.Cancelled,
	}
	if req.Supervisor > 0 {
		supervisor := req.Supervisor
		patch.Supervisor = &supervisor
	}

	var err error
	if patch.StartDate, err = optionalDate(req.StartDate); err != nil {
		return patch, err
	}
	if patch.EndDate, err = optionalDate(req.EndDate); err != nil {
		return patch, err
	}
	return patch, nil
}

// Delete godoc
// @Summary Delete attachments
// @Description Deletes the listed attachments that are NOT-ASSIGNED or CANCELLED; others are left in place
// @Tags attachments
// @Produce json
// @Security BearerAuth
// @Param ids query []int true "Attachment IDs" collectionFormat(multi)
// @Success 200 {object} dto.APIResponse{data=dto.DeleteResponse}
// @Failure 400 {object} dto.APIResponse "No records selected"
// @Failure 409 {object} dto.APIResponse "Attachment has logbook entries"
// @Router /attachments [delete]
func (c *AttachmentController) Delete(ctx *gin.Context) {
	ids, err := parseIDsQuery(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	affected, err := c.attachmentService.Delete(ctx.Request.Context(), ids)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DeleteResponse{Affected: affected}, affectedMessage(affected)))
}
