package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
	"github.com/uni-payroll/catams-api/pkg/middleware/requestid"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response in the common envelope. The request id is
// attached as trace_id so clients can quote it back to support.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")

	meta := map[string]interface{}{}
	if traceID := requestid.Value(c); traceID != "" {
		meta["trace_id"] = traceID
	}
	if len(appErr.Fields) > 0 {
		meta["fields"] = appErr.Fields
	}
	if len(appErr.AllowedActions) > 0 {
		meta["allowed_actions"] = appErr.AllowedActions
	}
	if len(meta) == 0 {
		meta = nil
	}

	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: meta})
}
