package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CATAMS API",
        "description": "Casual academic timesheet approval and payroll service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timesheets", "description": "Timesheet lifecycle and listings"},
        {"name": "Approvals", "description": "Confirmation workflow actions"},
        {"name": "Dashboard", "description": "Per-role aggregates"}
    ],
    "paths": {
        "/timesheets/quote": {
            "post": {
                "tags": ["Timesheets"],
                "summary": "Price a timesheet without saving it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timesheets": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "List timesheets visible to the caller",
                "parameters": [
                    {"name": "tutorId", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "weekFrom", "in": "query", "type": "string"},
                    {"name": "weekTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timesheets"],
                "summary": "Create a timesheet for a tutor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimesheetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timesheets/me": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "List the caller's own timesheets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timesheets/pending-approval": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "List timesheets awaiting the caller's confirmation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timesheets/pending-final-approval": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "List timesheets awaiting final HR confirmation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timesheets/config": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "Report timesheet entry constraints",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timesheets/{id}": {
            "get": {
                "tags": ["Timesheets"],
                "summary": "Get one timesheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Timesheets"],
                "summary": "Update an editable timesheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTimesheetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timesheets"],
                "summary": "Delete a draft timesheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/approvals": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Perform a workflow action on a timesheet",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApprovalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approvals/history/{id}": {
            "get": {
                "tags": ["Approvals"],
                "summary": "List the approval history of a timesheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Per-role dashboard aggregates",
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "QuoteRequest": {
            "type": "object",
            "properties": {
                "taskType": {"type": "string"},
                "qualification": {"type": "string"},
                "repeat": {"type": "boolean"},
                "contemporaneous": {"type": "boolean"},
                "hours": {"type": "number"},
                "sessionDate": {"type": "string"}
            },
            "required": ["taskType", "qualification", "hours", "sessionDate"]
        },
        "CreateTimesheetRequest": {
            "type": "object",
            "properties": {
                "tutorId": {"type": "string"},
                "courseId": {"type": "string"},
                "weekStart": {"type": "string"},
                "taskType": {"type": "string"},
                "qualification": {"type": "string"},
                "repeat": {"type": "boolean"},
                "contemporaneous": {"type": "boolean"},
                "hours": {"type": "number"},
                "description": {"type": "string"}
            },
            "required": ["tutorId", "courseId", "weekStart", "taskType", "qualification", "hours", "description"]
        },
        "UpdateTimesheetRequest": {
            "type": "object",
            "properties": {
                "weekStart": {"type": "string"},
                "taskType": {"type": "string"},
                "qualification": {"type": "string"},
                "repeat": {"type": "boolean"},
                "contemporaneous": {"type": "boolean"},
                "hours": {"type": "number"},
                "description": {"type": "string"},
                "version": {"type": "integer"}
            },
            "required": ["weekStart", "taskType", "qualification", "hours", "description", "version"]
        },
        "ApprovalRequest": {
            "type": "object",
            "properties": {
                "timesheetId": {"type": "string"},
                "action": {"type": "string"},
                "comment": {"type": "string"}
            },
            "required": ["timesheetId", "action"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
