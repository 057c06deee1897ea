package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Result Analysis API",
        "description": "Exam result aggregation, ranking and class analysis",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Analysis", "description": "Merit lists, grade distributions and subject performance"},
        {"name": "Grading", "description": "Grading system band checks"},
        {"name": "Reports", "description": "Asynchronous CSV/PDF exports"},
        {"name": "Dashboard", "description": "Role specific landing data"}
    ],
    "paths": {
        "/analysis/exams/{examId}/classes/{classId}": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Full class analysis for one exam",
                "parameters": [
                    {"name": "examId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "refresh", "in": "query", "required": false, "type": "boolean", "description": "Bypass the analysis cache"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Exam or class not found", "schema": {"$ref": "#/definitions/Envelope"}},
                    "502": {"description": "Result data unavailable", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/analysis/exams/{examId}/classes/{classId}/trends": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Per-student score trends across recent exams",
                "parameters": [
                    {"name": "examId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/analysis/exams/{examId}/classes/{classId}/students/{studentId}/charts": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Report card charts for one student",
                "parameters": [
                    {"name": "examId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Student has no results", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/analysis/exams/{examId}/cache": {
            "delete": {
                "tags": ["Analysis"],
                "summary": "Drop cached analyses of an exam",
                "parameters": [
                    {"name": "examId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/grading-systems/validate": {
            "post": {
                "tags": ["Grading"],
                "summary": "Validate grading system bands",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradingSystem"}}
                ],
                "responses": {
                    "200": {"description": "Valid", "schema": {"$ref": "#/definitions/Envelope"}},
                    "422": {"description": "Bands overlap or leave gaps", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/grading-systems/{id}/validate": {
            "get": {
                "tags": ["Grading"],
                "summary": "Validate a stored grading system",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Valid", "schema": {"$ref": "#/definitions/Envelope"}},
                    "422": {"description": "Bands overlap or leave gaps", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reports/analysis": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue an analysis export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download an export via signed token",
                "security": [],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard of the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "GradeScale": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "min_score": {"type": "number"},
                "max_score": {"type": "number"},
                "grade_point": {"type": "number"},
                "remark": {"type": "string"}
            }
        },
        "GradingSystem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "is_default": {"type": "boolean"},
                "scales": {"type": "array", "items": {"$ref": "#/definitions/GradeScale"}}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["type", "examId", "classId", "format"],
            "properties": {
                "type": {"type": "string", "enum": ["merit_list", "subject_performance", "grade_distribution"]},
                "examId": {"type": "string"},
                "classId": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "Envelope": {
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
