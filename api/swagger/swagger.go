package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Performance Report API",
        "description": "Cohort performance dashboards and report exports over the institution API",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Performance", "description": "Cohort metrics, summaries and filters"},
        {"name": "Reports", "description": "PDF, spreadsheet and CSV exports"}
    ],
    "paths": {
        "/groups": {
            "get": {
                "tags": ["Performance"],
                "summary": "List groups",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Institution API failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{groupId}/performance": {
            "get": {
                "tags": ["Performance"],
                "summary": "Group performance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "groupId", "in": "path", "required": true, "type": "string"},
                    {"name": "program_code", "in": "query", "type": "string"},
                    {"name": "semester_code", "in": "query", "type": "string"},
                    {"name": "refresh", "in": "query", "type": "boolean"},
                    {"name": "X-Dashboard-View", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Superseded by a newer selection", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Institution API failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{groupId}/performance/report": {
            "get": {
                "tags": ["Performance"],
                "summary": "Filtered performance report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "groupId", "in": "path", "required": true, "type": "string"},
                    {"name": "program_code", "in": "query", "type": "string"},
                    {"name": "semester_code", "in": "query", "type": "string"},
                    {"name": "percentage_min", "in": "query", "type": "string"},
                    {"name": "percentage_max", "in": "query", "type": "string"},
                    {"name": "marks_min", "in": "query", "type": "string"},
                    {"name": "marks_max", "in": "query", "type": "string"},
                    {"name": "assignment_status", "in": "query", "type": "string", "enum": ["reviewed", "submitted", "not_submitted"]},
                    {"name": "performance_category", "in": "query", "type": "string", "enum": ["excellent", "good", "average", "below_average", "poor"]},
                    {"name": "X-Dashboard-View", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Superseded by a newer selection", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{groupId}/students/{studentId}/performance": {
            "get": {
                "tags": ["Performance"],
                "summary": "Student performance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "groupId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not in group", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/export": {
            "post": {
                "tags": ["Reports"],
                "summary": "Export a report",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/pdf", "text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Export failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/jobs": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report job",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Report jobs disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/jobs/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the job owner", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ReportFilter": {
            "type": "object",
            "properties": {
                "percentageMin": {"type": "string"},
                "percentageMax": {"type": "string"},
                "marksMin": {"type": "string"},
                "marksMax": {"type": "string"},
                "assignmentStatus": {"type": "string"},
                "performanceCategory": {"type": "string"}
            }
        },
        "ReportOptions": {
            "type": "object",
            "properties": {
                "includeStudentDetails": {"type": "boolean"},
                "includeAssignmentBreakdown": {"type": "boolean"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["type", "groupId", "format"],
            "properties": {
                "type": {"type": "string", "enum": ["performance_report", "student_report"]},
                "groupId": {"type": "string"},
                "groupName": {"type": "string"},
                "programCode": {"type": "string"},
                "semesterCode": {"type": "string"},
                "studentId": {"type": "string"},
                "filter": {"$ref": "#/definitions/ReportFilter"},
                "options": {"$ref": "#/definitions/ReportOptions"},
                "format": {"type": "string", "enum": ["pdf", "spreadsheet", "csv"]}
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
