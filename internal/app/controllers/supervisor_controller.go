package controllers

import (
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SupervisorController handles the supervisor roster
type SupervisorController struct {
	supervisorService *services.SupervisorService
	ingestService     *services.RosterIngestService
	logger            zerolog.Logger
}

// NewSupervisorController creates a new SupervisorController
func NewSupervisorController(
	supervisorService *services.SupervisorService,
	ingestService *services.RosterIngestService,
	logger zerolog.Logger,
) *SupervisorController {
	return &SupervisorController{
		supervisorService: supervisorService,
		ingestService:     ingestService,
		logger:            logger,
	}
}

// List godoc
// @Summary List supervisors
// @Tags supervisors
// @Produce json
// @Security BearerAuth
// @Param active query int false "1 for active supervisors, 0 for inactive" default(1)
// @Success 200 {object} dto.APIResponse{data=[]dto.SupervisorResponse}
// @Router /supervisors [get]
func (c *SupervisorController) List(ctx *gin.Context) {
	active, err := parseFlagQuery(ctx, "active", true)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	supervisors, err := c.supervisorService.List(ctx.Request.Context(), active)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToSupervisorResponses(supervisors), ""))
}

// BulkAdd godoc
// @Summary Upload supervisors
// @Description Adds up to 200 supervisors in one transaction. The email address becomes the username and the staff number the first password.
// @Tags supervisors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []dto.SupervisorCandidate true "Supervisors"
// @Success 200 {object} dto.APIResponse{data=dto.IngestResponse} "OK, or the skipped records"
// @Failure 400 {object} dto.APIResponse "Empty, oversized or invalid upload"
// @Router /supervisors [post]
func (c *SupervisorController) BulkAdd(ctx *gin.Context) {
	var req []dto.SupervisorCandidate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	records := make([]services.RosterRecord, 0, len(req))
	for _, s := range req {
		records = append(records, services.RosterRecord{
			Key:        s.StaffNo,
			Firstname:  s.Firstname,
			Lastname:   s.Lastname,
			Othernames: s.Othernames,
			Phone:      s.Phone,
			Email:      s.Email,
		})
	}

	c.logger.Debug().Int("records", len(records)).Msg("Bulk supervisor upload received")
	result, err := c.ingestService.IngestSupervisors(ctx.Request.Context(), records)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ingestResponse(ctx, result)
}

// Update godoc
// @Summary Edit a supervisor
// @Description A new email address also becomes the supervisor's username
// @Tags supervisors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Supervisor ID"
// @Param request body dto.UpdateSupervisorRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.SupervisorResponse}
// @Failure 400 {object} dto.APIResponse "Record not found or invalid field"
// @Failure 409 {object} dto.APIResponse "Staff No., phone or email already in use"
// @Router /supervisors/{id} [put]
func (c *SupervisorController) Update(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.UpdateSupervisorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	supervisor, err := c.supervisorService.Update(ctx.Request.Context(), id, services.SupervisorPatch{
		StaffNo:    optional(req.StaffNo),
		Firstname:  optional(req.Firstname),
		Lastname:   optional(req.Lastname),
		Othernames: optional(req.Othernames),
		Phone:      optional(req.Phone),
		Email:      optional(req.Email),
		Active:     req.Active,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToSupervisorResponse(supervisor), "OK"))
}

// Delete godoc
// @Summary Delete supervisors
// @Tags supervisors
// @Produce json
// @Security BearerAuth
// @Param ids query []int true "Supervisor IDs" collectionFormat(multi)
// @Success 200 {object} dto.APIResponse{data=dto.DeleteResponse}
// @Failure 400 {object} dto.APIResponse "No records selected"
// @Failure 409 {object} dto.APIResponse "Cannot delete a record with dependencies"
// @Router /supervisors [delete]
func (c *SupervisorController) Delete(ctx *gin.Context) {
	ids, err := parseIDsQuery(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	affected, err := c.supervisorService.Delete(ctx.Request.Context(), ids)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DeleteResponse{Affected: affected}, affectedMessage(affected)))
}
