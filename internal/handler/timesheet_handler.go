package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
	"github.com/uni-payroll/catams-api/pkg/response"
)

type timesheetLifecycle interface {
	Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error)
	Create(ctx context.Context, req dto.CreateTimesheetRequest, actor *models.JWTClaims) (*models.Timesheet, error)
	Update(ctx context.Context, id string, req dto.UpdateTimesheetRequest, actor *models.JWTClaims) (*models.Timesheet, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	Config() dto.TimesheetConfig
}

type timesheetQueries interface {
	List(ctx context.Context, q dto.TimesheetQuery, actor *models.JWTClaims) ([]models.Timesheet, models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Timesheet, error)
	MyTimesheets(ctx context.Context, q dto.TimesheetQuery, actor *models.JWTClaims) ([]models.Timesheet, models.Pagination, error)
	Pending(ctx context.Context, actor *models.JWTClaims) ([]models.Timesheet, error)
	PendingFinal(ctx context.Context, actor *models.JWTClaims) ([]models.Timesheet, error)
}

// TimesheetHandler exposes the timesheet REST endpoints.
type TimesheetHandler struct {
	lifecycle timesheetLifecycle
	queries   timesheetQueries
}

// NewTimesheetHandler constructs the handler.
func NewTimesheetHandler(lifecycle timesheetLifecycle, queries timesheetQueries) *TimesheetHandler {
	return &TimesheetHandler{lifecycle: lifecycle, queries: queries}
}

// Quote godoc
// @Summary Price a timesheet without saving it
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param payload body dto.QuoteRequest true "Quote payload"
// @Success 200 {object} response.Envelope
// @Router /timesheets/quote [post]
func (h *TimesheetHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid quote payload"))
		return
	}
	quote, err := h.lifecycle.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote, nil)
}

// Create godoc
// @Summary Create a timesheet for a tutor
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimesheetRequest true "Timesheet payload"
// @Success 201 {object} response.Envelope
// @Router /timesheets [post]
func (h *TimesheetHandler) Create(c *gin.Context) {
	var req dto.CreateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid timesheet payload"))
		return
	}
	ts, err := h.lifecycle.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewTimesheetResponse(ts))
}

// List godoc
// @Summary List timesheets visible to the caller
// @Tags Timesheets
// @Produce json
// @Param tutorId query string false "Tutor ID"
// @Param courseId query string false "Course ID"
// @Param status query string false "Workflow status"
// @Param weekFrom query string false "Week start lower bound"
// @Param weekTo query string false "Week start upper bound"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	query, err := timesheetQueryFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.queries.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimesheetResponses(items), &pagination)
}

// Get godoc
// @Summary Get one timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id} [get]
func (h *TimesheetHandler) Get(c *gin.Context) {
	ts, err := h.queries.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimesheetResponse(ts), nil)
}

// Update godoc
// @Summary Update an editable timesheet
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param id path string true "Timesheet ID"
// @Param payload body dto.UpdateTimesheetRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id} [put]
func (h *TimesheetHandler) Update(c *gin.Context) {
	var req dto.UpdateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid timesheet payload"))
		return
	}
	ts, err := h.lifecycle.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimesheetResponse(ts), nil)
}

// Delete godoc
// @Summary Delete a draft timesheet
// @Tags Timesheets
// @Param id path string true "Timesheet ID"
// @Success 204
// @Router /timesheets/{id} [delete]
func (h *TimesheetHandler) Delete(c *gin.Context) {
	if err := h.lifecycle.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// My godoc
// @Summary List the caller's own timesheets
// @Tags Timesheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timesheets/me [get]
func (h *TimesheetHandler) My(c *gin.Context) {
	query, err := timesheetQueryFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.queries.MyTimesheets(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimesheetResponses(items), &pagination)
}

// Pending godoc
// @Summary List timesheets awaiting the caller's confirmation
// @Tags Timesheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timesheets/pending-approval [get]
func (h *TimesheetHandler) Pending(c *gin.Context) {
	items, err := h.queries.Pending(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimesheetResponses(items), nil)
}

// PendingFinal godoc
// @Summary List timesheets awaiting final HR confirmation
// @Tags Timesheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timesheets/pending-final-approval [get]
func (h *TimesheetHandler) PendingFinal(c *gin.Context) {
	items, err := h.queries.PendingFinal(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimesheetResponses(items), nil)
}

// Config godoc
// @Summary Report timesheet entry constraints
// @Tags Timesheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timesheets/config [get]
func (h *TimesheetHandler) Config(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.lifecycle.Config(), nil)
}

func timesheetQueryFrom(c *gin.Context) (dto.TimesheetQuery, error) {
	query := dto.TimesheetQuery{
		TutorID:  c.Query("tutorId"),
		CourseID: c.Query("courseId"),
		Status:   c.Query("status"),
		WeekFrom: c.Query("weekFrom"),
		WeekTo:   c.Query("weekTo"),
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return query, appErrors.Clone(appErrors.ErrValidation, "page must be a positive integer")
		}
		query.Page = page
	}
	if raw := c.Query("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return query, appErrors.Clone(appErrors.ErrValidation, "pageSize must be a positive integer")
		}
		query.PageSize = size
	}
	return query, nil
}
