package controllers

import (
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StudentController handles the student roster
type StudentController struct {
	studentService *services.StudentService
	ingestService  *services.RosterIngestService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(
	studentService *services.StudentService,
	ingestService *services.RosterIngestService,
	logger zerolog.Logger,
) *StudentController {
	return &StudentController{
		studentService: studentService,
		ingestService:  ingestService,
		logger:         logger,
	}
}

// List godoc
// @Summary List students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param active query int false "1 for active students, 0 for inactive" default(1)
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /students [get]
func (c *StudentController) List(ctx *gin.Context) {
	active, err := parseFlagQuery(ctx, "active", true)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	students, err := c.studentService.List(ctx.Request.Context(), active)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToStudentResponses(students), ""))
}

// BulkAdd godoc
// @Summary Upload students
// @Description Adds up to 200 students in one transaction. Records clashing with stored ones are skipped and reported; any other problem rejects the whole upload.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param approve query int false "1 to mark the uploaded students as approved" default(0)
// @Param request body []dto.StudentCandidate true "Students"
// @Success 200 {object} dto.APIResponse{data=dto.IngestResponse} "OK, or the skipped records"
// @Failure 400 {object} dto.APIResponse "Empty, oversized or invalid upload"
// @Router /students [post]
func (c *StudentController) BulkAdd(ctx *gin.Context) {
	approved, err := parseFlagQuery(ctx, "approve", false)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req []dto.StudentCandidate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	records := make([]services.RosterRecord, 0, len(req))
	for _, s := range req {
		records = append(records, services.RosterRecord{
			Key:        s.RegistrationNo,
			Firstname:  s.Firstname,
			Lastname:   s.Lastname,
			Othernames: s.Othernames,
			Phone:      s.Phone,
			Email:      s.Email,
		})
	}

	c.logger.Debug().Int("records", len(records)).Msg("Bulk student upload received")
	result, err := c.ingestService.IngestStudents(ctx.Request.Context(), records, approved)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ingestResponse(ctx, result)
}

// Update godoc
// @Summary Edit a student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body dto.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.APIResponse "Record not found or invalid field"
// @Failure 409 {object} dto.APIResponse "Registration No., phone or email already in use"
// @Router /students/{id} [put]
func (c *StudentController) Update(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.UpdateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	student, err := c.studentService.Update(ctx.Request.Context(), id, services.StudentPatch{
		RegistrationNo: optional(req.RegistrationNo),
		Firstname:      optional(req.Firstname),
		Lastname:       optional(req.Lastname),
		Othernames:     optional(req.Othernames),
		Phone:          optional(req.Phone),
		Email:          optional(req.Email),
		Active:         req.Active,
		Approved:       req.Approved,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToStudentResponse(student), "OK"))
}

// Delete godoc
// @Summary Delete students
// @Description Deletes the listed students together with their credentials
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param ids query []int true "Student IDs" collectionFormat(multi)
// @Success 200 {object} dto.APIResponse{data=dto.DeleteResponse}
// @Failure 400 {object} dto.APIResponse "No records selected"
// @Failure 409 {object} dto.APIResponse "Record dependencies found"
// @Router /students [delete]
func (c *StudentController) Delete(ctx *gin.Context) {
	ids, err := parseIDsQuery(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	affected, err := c.studentService.Delete(ctx.Request.Context(), ids)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DeleteResponse{Affected: affected}, affectedMessage(affected)))
}
