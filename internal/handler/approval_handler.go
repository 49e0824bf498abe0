package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
	"github.com/uni-payroll/catams-api/pkg/response"
)

type approvalService interface {
	Apply(ctx context.Context, timesheetID string, req dto.ApprovalRequest, actor *models.JWTClaims) (*models.Timesheet, *models.ApprovalHistoryEntry, error)
	History(ctx context.Context, timesheetID string, actor *models.JWTClaims) ([]models.ApprovalHistoryEntry, error)
}

// ApprovalHandler exposes the workflow action endpoints.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(service approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// applyApprovalRequest is the transport payload naming the target timesheet.
type applyApprovalRequest struct {
	TimesheetID string                `json:"timesheetId" validate:"required"`
	Action      models.ApprovalAction `json:"action" validate:"required"`
	Comment     string                `json:"comment"`
}

// Apply godoc
// @Summary Perform a workflow action on a timesheet
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body applyApprovalRequest true "Approval action"
// @Success 200 {object} response.Envelope
// @Router /approvals [post]
func (h *ApprovalHandler) Apply(c *gin.Context) {
	var req applyApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approval payload"))
		return
	}
	if req.TimesheetID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "timesheetId is required"))
		return
	}
	ts, entry, err := h.service.Apply(c.Request.Context(),
		req.TimesheetID,
		dto.ApprovalRequest{Action: req.Action, Comment: req.Comment},
		claimsFromContext(c),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ApprovalResponse{
		Timesheet: dto.NewTimesheetResponse(ts),
		History:   dto.NewApprovalHistoryEntry(entry),
	}, nil)
}

// History godoc
// @Summary List the approval history of a timesheet
// @Tags Approvals
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /approvals/history/{id} [get]
func (h *ApprovalHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewApprovalHistoryEntries(entries), nil)
}
