package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Core API",
        "description": "Assignment validation and period merging for weekly school timetables",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Placements", "description": "Placement validation and period merging"},
        {"name": "Schedules", "description": "Schedule listings and section grids"},
        {"name": "Audit", "description": "Full-schedule conflict reports"}
    ],
    "paths": {
        "/placements/validate": {
            "post": {
                "tags": ["Placements"],
                "summary": "Validate a placement candidate",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidatePlacementRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflict findings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or out-of-range coordinate"}
                }
            }
        },
        "/placements": {
            "post": {
                "tags": ["Placements"],
                "summary": "Place a lesson into its anchor cell",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlaceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Committed entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Merge plan infeasible"}
                }
            }
        },
        "/merges/plan": {
            "post": {
                "tags": ["Placements"],
                "summary": "Plan a period merge",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanMergeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Merge plan", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedule entries",
                "parameters": [
                    {"name": "section", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "integer"},
                    {"name": "teacher", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}/timetable": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get one section's week grid",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}/timetable/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Export one section's timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Document bytes"}
                }
            }
        },
        "/sections/{id}/slots/{day}/{period}": {
            "delete": {
                "tags": ["Schedules"],
                "summary": "Clear one grid cell",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "day", "in": "path", "required": true, "type": "integer"},
                    {"name": "period", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "Audit the whole stored schedule",
                "parameters": [
                    {"name": "refresh", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Conflict report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ValidatePlacementRequest": {
            "type": "object",
            "required": ["section"],
            "properties": {
                "section": {"type": "string"},
                "day": {"type": "integer"},
                "period": {"type": "integer"},
                "subject_code": {"type": "string"},
                "teacher_code": {"type": "string"}
            }
        },
        "PlanMergeRequest": {
            "type": "object",
            "required": ["section", "subject_code"],
            "properties": {
                "section": {"type": "string"},
                "subject_code": {"type": "string"},
                "day": {"type": "integer"},
                "anchor_period": {"type": "integer"}
            }
        },
        "PlaceRequest": {
            "type": "object",
            "required": ["section", "subject_code"],
            "properties": {
                "section": {"type": "string"},
                "subject_code": {"type": "string"},
                "teacher_code": {"type": "string"},
                "day": {"type": "integer"},
                "anchor_period": {"type": "integer"},
                "force_single": {"type": "boolean"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
