// Package docs registers the OpenAPI document generated by swaggo/swag.
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
        "/sessions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Opens a session over the restaurants within radius meters of the location",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Create a session",
                "parameters": [
                    {
                        "description": "search criteria",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.CreateSessionRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.CreateSessionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/join": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Accepts the caller's pending invitation",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Join a session by code",
                "parameters": [
                    {
                        "description": "join code",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.JoinRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Session"}}
                }
            }
        },
        "/sessions/{sessionId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Get a session",
                "parameters": [
                    {"type": "string", "description": "session id", "name": "sessionId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Session"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{sessionId}/invitations": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Invite a user",
                "parameters": [
                    {"type": "string", "description": "session id", "name": "sessionId", "in": "path", "required": true},
                    {
                        "description": "invitee",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.InviteRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Session"}}
                }
            }
        },
        "/sessions/{sessionId}/result": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Voting"],
                "summary": "Get the winning restaurant",
                "parameters": [
                    {"type": "string", "description": "session id", "name": "sessionId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Restaurant"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{sessionId}/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Voting"],
                "summary": "Open voting",
                "parameters": [
                    {"type": "string", "description": "session id", "name": "sessionId", "in": "path", "required": true},
                    {
                        "description": "voting window in minutes",
                        "name": "body",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/handler.StartRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Session"}}
                }
            }
        },
        "/sessions/{sessionId}/votes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Voting"],
                "summary": "Swipe on a restaurant",
                "parameters": [
                    {"type": "string", "description": "session id", "name": "sessionId", "in": "path", "required": true},
                    {
                        "description": "vote",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.VoteRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.CreateSessionRequest": {
            "type": "object",
            "required": ["latitude", "longitude", "radius"],
            "properties": {
                "latitude": {"type": "number", "maximum": 90, "minimum": -90},
                "longitude": {"type": "number", "maximum": 180, "minimum": -180},
                "radius": {"type": "number"}
            }
        },
        "handler.CreateSessionResponse": {
            "type": "object",
            "properties": {
                "joinCode": {"type": "string"},
                "sessionId": {"type": "string"}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "kind": {"type": "string"}
            }
        },
        "handler.InviteRequest": {
            "type": "object",
            "required": ["userId"],
            "properties": {
                "userId": {"type": "string"}
            }
        },
        "handler.JoinRequest": {
            "type": "object",
            "required": ["joinCode"],
            "properties": {
                "joinCode": {"type": "string"}
            }
        },
        "handler.StartRequest": {
            "type": "object",
            "properties": {
                "time": {"type": "integer", "maximum": 1440, "minimum": 0}
            }
        },
        "handler.VoteRequest": {
            "type": "object",
            "required": ["liked", "restaurantId"],
            "properties": {
                "liked": {"type": "boolean"},
                "restaurantId": {"type": "string"}
            }
        },
        "model.Candidate": {
            "type": "object",
            "properties": {
                "candidateId": {"type": "string"},
                "positiveVotes": {"type": "integer"},
                "score": {"type": "number"},
                "totalVotes": {"type": "integer"}
            }
        },
        "model.FinalSelection": {
            "type": "object",
            "properties": {
                "candidateId": {"type": "string"},
                "selectedAt": {"type": "string"}
            }
        },
        "model.Participant": {
            "type": "object",
            "properties": {
                "preferences": {"type": "array", "items": {"$ref": "#/definitions/model.Preference"}},
                "userId": {"type": "string"}
            }
        },
        "model.Preference": {
            "type": "object",
            "properties": {
                "candidateId": {"type": "string"},
                "liked": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        },
        "model.Restaurant": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "cuisine": {"type": "string"},
                "address": {"type": "string"},
                "rating": {"type": "number"},
                "priceRange": {"type": "string"}
            }
        },
        "model.Session": {
            "type": "object",
            "properties": {
                "candidates": {"type": "array", "items": {"$ref": "#/definitions/model.Candidate"}},
                "completedAt": {"type": "string"},
                "createdAt": {"type": "string"},
                "creator": {"type": "string"},
                "doneSwiping": {"type": "array", "items": {"type": "string"}},
                "expiresAt": {"type": "string"},
                "finalSelection": {"$ref": "#/definitions/model.FinalSelection"},
                "id": {"type": "string"},
                "joinCode": {"type": "string"},
                "participants": {"type": "array", "items": {"$ref": "#/definitions/model.Participant"}},
                "pendingInvitations": {"type": "array", "items": {"type": "string"}},
                "startedAt": {"type": "string"},
                "status": {"type": "string", "enum": ["CREATED", "MATCHING", "COMPLETED"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "BiteSwipe Session API",
	Description:      "Group restaurant decisions by swiping",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
