package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`

	// Fields carries field-level messages for VALIDATION_FAILED responses.
	Fields map[string]string `json:"fields,omitempty"`
	// AllowedActions lists recoverable next actions on INVALID_TRANSITION.
	AllowedActions []string `json:"allowed_actions,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches by code so sentinel comparisons survive Clone and decoration.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && t != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Core error codes. These are stable contract: clients dispatch on them.
var (
	// Validation.
	ErrValidation              = New("VALIDATION_FAILED", http.StatusBadRequest, "validation failed")
	ErrInvalidTutorialDelivery = New("INVALID_TUTORIAL_DELIVERY", http.StatusBadRequest, "tutorial delivery hours must equal 1.0")
	ErrWeekNotMonday           = New("WEEK_NOT_MONDAY", http.StatusBadRequest, "week start date must be a Monday")
	ErrWeekInFuture            = New("WEEK_IN_FUTURE", http.StatusBadRequest, "week start date must not be in the future")
	ErrHoursOutOfRange         = New("HOURS_OUT_OF_RANGE", http.StatusBadRequest, "delivery hours outside the permitted range")
	ErrNonPositiveHours        = New("NON_POSITIVE_HOURS", http.StatusBadRequest, "delivery hours must be greater than zero")
	ErrDescriptionRequired     = New("DESCRIPTION_REQUIRED", http.StatusBadRequest, "description is required")
	ErrCommentRequired         = New("COMMENT_REQUIRED", http.StatusBadRequest, "a comment is required for this action")
	ErrUnsupportedTaskType     = New("UNSUPPORTED_TASK_TYPE", http.StatusBadRequest, "task type is not payable under Schedule 1")
	ErrContemporaneousMarking  = New("CONTEMPORANEOUS_MARKING_NOT_PAYABLE", http.StatusBadRequest, "contemporaneous marking folds into tutorial associated hours")

	// Policy.
	ErrPolicyNotFound = New("POLICY_NOT_FOUND", http.StatusUnprocessableEntity, "no enterprise agreement rate matches the request")

	// Domain rules.
	ErrDuplicateTimesheet = New("DUPLICATE_TIMESHEET", http.StatusConflict, "a timesheet already exists for this tutor, course and week")
	ErrBudgetExceeded     = New("BUDGET_EXCEEDED", http.StatusUnprocessableEntity, "course budget would be exceeded")
	ErrNotEditable        = New("NOT_EDITABLE", http.StatusUnprocessableEntity, "timesheet is not editable in its current status")

	// Workflow.
	ErrInvalidTransition      = New("INVALID_TRANSITION", http.StatusConflict, "action is not valid for the current status and role")
	ErrConcurrentModification = New("CONCURRENT_MODIFICATION", http.StatusConflict, "timesheet was modified concurrently")

	// Access.
	ErrUnauthorized        = New("AUTHENTICATION_REQUIRED", http.StatusUnauthorized, "authentication required")
	ErrAuthorizationFailed = New("AUTHORIZATION_FAILED", http.StatusForbidden, "not permitted to perform this action")
	ErrResourceNotFound    = New("RESOURCE_NOT_FOUND", http.StatusNotFound, "resource not found")

	// Infrastructure.
	ErrPersistence = New("PERSISTENCE_FAILURE", http.StatusInternalServerError, "persistence failure")
	ErrCacheMiss   = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrPersistence.Code, ErrPersistence.Status, ErrPersistence.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithFields returns a VALIDATION_FAILED error carrying a field message map.
func WithFields(fields map[string]string) *Error {
	e := Clone(ErrValidation, "")
	e.Fields = fields
	return e
}

// WithAllowedActions decorates an error with the actions the caller could
// legally take from the current status.
func WithAllowedActions(err *Error, actions []string) *Error {
	e := Clone(err, "")
	e.AllowedActions = actions
	return e
}
