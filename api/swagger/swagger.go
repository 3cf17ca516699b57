package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Auditor API",
        "description": "Audits and corrects Canvas course assignments against institutional checklists.",
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
        {"name": "Audits", "description": "Checklist audits, corrections and exports"},
        {"name": "Courses", "description": "Course lookup across sub-accounts"},
        {"name": "Metrics", "description": "Operator instrumentation"}
    ],
    "paths": {
        "/audits": {
            "post": {
                "tags": ["Audits"],
                "summary": "Audit courses",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AuditRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-course audits", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No valid course id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/corrections": {
            "post": {
                "tags": ["Audits"],
                "summary": "Correct courses",
                "description": "Requires the ADMIN role.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AuditRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-course corrections", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No valid course id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role may not correct", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audits/{courseId}/export": {
            "get": {
                "tags": ["Audits"],
                "summary": "Export a course audit",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered report", "schema": {"type": "file"}},
                    "400": {"description": "Invalid course id or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "LMS unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/search": {
            "get": {
                "tags": ["Courses"],
                "summary": "Search courses by keyword",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "accountId", "in": "query", "required": true, "type": "integer"},
                    {"name": "q", "in": "query", "required": true, "type": "string"},
                    {"name": "refresh", "in": "query", "required": false, "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Matching courses; meta.cache_hit reports cache use", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing parameters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Instrumentation summary",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AuditRequest": {
            "type": "object",
            "properties": {
                "courseIds": {"type": "array", "items": {"type": "integer"}},
                "rawCourseIds": {"type": "string", "example": "12345, 12346\n12347"}
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
