// Package docs holds the OpenAPI document served under /swagger.
// Keep it in step with the handler annotations; `swag init -g cmd/api/main.go` regenerates it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/meetings/process": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Summarizes the transcript, extracts action items and assigns them against the team roster",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Meetings"],
                "summary": "Process meeting transcript",
                "parameters": [
                    {
                        "description": "Transcript and optional team",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.ProcessMeetingRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/meeting.ProcessResult"}},
                    "400": {"description": "Empty transcript", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "404": {"description": "Team not found", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "502": {"description": "Summarizer or store failure", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/meetings/{id}/tasks/{taskId}/assign": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Meetings"],
                "summary": "Assign action item",
                "parameters": [
                    {"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Action item ID", "name": "taskId", "in": "path", "required": true},
                    {
                        "description": "Assignee",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.AssignTaskRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.ActionItem"}},
                    "404": {"description": "Meeting or task not found", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/sync/snapshot": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Full user data snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.UserDataSnapshot"}},
                    "409": {"description": "A sync is already running", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/sync/updates": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Submit an update",
                "parameters": [
                    {
                        "description": "Update",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.QueueUpdateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/handler.QueueUpdateResponse"}},
                    "202": {"description": "Queued while offline", "schema": {"$ref": "#/definitions/handler.QueueUpdateResponse"}}
                }
            }
        },
        "/sync/stream": {
            "get": {
                "security": [{"BearerAuth": []}, {"QueryToken": []}],
                "produces": ["text/event-stream"],
                "tags": ["Sync"],
                "summary": "Live collection stream",
                "parameters": [
                    {"type": "string", "description": "meetings|team_meetings|tasks|teams|notifications", "name": "entity", "in": "query", "required": true},
                    {"type": "string", "description": "Team ID for team_meetings", "name": "id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Server-sent events, one per snapshot"},
                    "400": {"description": "Unknown entity", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errs": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "NOT_FOUND"},
                "message": {"type": "string"},
                "info": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handler.ProcessMeetingRequest": {
            "type": "object",
            "required": ["transcript"],
            "properties": {
                "transcript": {"type": "string"},
                "team_id": {"type": "string", "format": "uuid"},
                "file_name": {"type": "string", "maxLength": 255},
                "file_size": {"type": "integer", "minimum": 0},
                "title": {"type": "string", "maxLength": 255}
            }
        },
        "handler.AssignTaskRequest": {
            "type": "object",
            "required": ["assignee_id"],
            "properties": {
                "assignee_id": {"type": "string"}
            }
        },
        "handler.QueueUpdateRequest": {
            "type": "object",
            "required": ["type", "action"],
            "properties": {
                "type": {"type": "string", "enum": ["meeting", "task", "notification"]},
                "action": {"type": "string", "enum": ["create", "update", "delete"]},
                "payload": {"type": "object"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "handler.QueueUpdateResponse": {
            "type": "object",
            "properties": {
                "queued": {"type": "boolean"},
                "pending": {"type": "integer"},
                "online": {"type": "boolean"}
            }
        },
        "entities.ActionItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "meeting_id": {"type": "string"},
                "description": {"type": "string"},
                "owner": {"type": "string"},
                "deadline": {"type": "string"},
                "priority": {"type": "string", "enum": ["high", "medium", "low"]},
                "status": {"type": "string"},
                "assignee_id": {"type": "string"},
                "assignee_name": {"type": "string"},
                "assigned_by": {"type": "string"},
                "assigned_at": {"type": "string", "format": "date-time"}
            }
        },
        "entities.Meeting": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "team_id": {"type": "string"},
                "title": {"type": "string"},
                "summary": {"type": "string"},
                "confidence": {"type": "number"},
                "action_items": {"type": "array", "items": {"$ref": "#/definitions/entities.ActionItem"}},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "meeting.ProcessResult": {
            "type": "object",
            "properties": {
                "meeting": {"$ref": "#/definitions/entities.Meeting"},
                "unassigned_tasks": {"type": "array", "items": {"$ref": "#/definitions/entities.ActionItem"}},
                "assignment_summary": {
                    "type": "object",
                    "properties": {
                        "total_tasks": {"type": "integer"},
                        "auto_assigned": {"type": "integer"},
                        "unassigned": {"type": "integer"},
                        "speaker_matches": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "entities.UserDataSnapshot": {
            "type": "object",
            "properties": {
                "meetings": {"type": "array", "items": {"$ref": "#/definitions/entities.Meeting"}},
                "tasks": {"type": "array", "items": {"type": "object"}},
                "teams": {"type": "array", "items": {"type": "object"}},
                "notifications": {"type": "array", "items": {"type": "object"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        },
        "QueryToken": {
            "description": "Access token for EventSource clients, accepted on /sync/stream only.",
            "type": "apiKey",
            "name": "access_token",
            "in": "query"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Meeting Taskflow API",
	Description:      "Turns meeting transcripts into team-assigned action items and keeps clients in sync",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
