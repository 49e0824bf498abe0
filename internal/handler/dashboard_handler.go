package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	"github.com/uni-payroll/catams-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, q dto.DashboardQuery, actor *models.JWTClaims) (*dto.DashboardSummary, error)
}

// DashboardHandler exposes the per-role dashboard aggregate.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Per-role dashboard aggregates
// @Tags Dashboard
// @Produce json
// @Param courseId query string false "Restrict to one course"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	query := dto.DashboardQuery{
		CourseID: c.Query("courseId"),
		From:     rangeParam(c, "startDate", "from"),
		To:       rangeParam(c, "endDate", "to"),
	}
	summary, err := h.service.Summary(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// rangeParam reads a query parameter under its primary name, falling back to
// the legacy alias so older clients keep working.
func rangeParam(c *gin.Context, name, alias string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.Query(alias)
}
