package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Enrollment Admin API",
        "description": "Admin backend for student course enrollments with dynamic filtering, multi-column sort and streaming CSV export",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Course catalogue management"},
        {"name": "Enrollments", "description": "Enrollment listing, export and workflow"}
    ],
    "paths": {
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "filters", "in": "query", "type": "string", "description": "JSON array of {field, operator, value}"},
                    {"name": "sorts", "in": "query", "type": "string", "description": "JSON array of {field, direction}"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_dir", "in": "query", "type": "string"},
                    {"name": "logic", "in": "query", "type": "string", "enum": ["AND", "OR"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed filters/sorts JSON", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Create an enrollment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate enrollment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/export": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Export the filtered enrollment list as streamed CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/enrollments/{id}": {
            "put": {
                "tags": ["Enrollments"],
                "summary": "Partially update an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEnrollmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Duplicate enrollment"}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Delete an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "CreateCourseRequest": {
            "type": "object",
            "required": ["code", "name", "credits"],
            "properties": {
                "code": {"type": "string", "example": "IF001"},
                "name": {"type": "string"},
                "credits": {"type": "integer", "minimum": 1, "maximum": 6}
            }
        },
        "CreateEnrollmentRequest": {
            "type": "object",
            "required": ["nim", "student_name", "email", "course_code", "course_name", "credits", "academic_year", "semester", "status"],
            "properties": {
                "nim": {"type": "string", "example": "2021000001"},
                "student_name": {"type": "string"},
                "email": {"type": "string"},
                "course_code": {"type": "string", "example": "IF001"},
                "course_name": {"type": "string"},
                "credits": {"type": "integer", "minimum": 1, "maximum": 6},
                "academic_year": {"type": "string", "example": "2023/2024"},
                "semester": {"type": "string", "enum": ["GANJIL", "GENAP"]},
                "status": {"type": "string", "enum": ["DRAFT", "SUBMITTED", "APPROVED", "REJECTED"]}
            }
        },
        "UpdateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "nim": {"type": "string"},
                "student_name": {"type": "string"},
                "email": {"type": "string"},
                "course_code": {"type": "string"},
                "course_name": {"type": "string"},
                "credits": {"type": "integer"},
                "academic_year": {"type": "string"},
                "semester": {"type": "string", "enum": ["GANJIL", "GENAP"]},
                "status": {"type": "string", "enum": ["DRAFT", "SUBMITTED", "APPROVED", "REJECTED"]}
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
