// Package docs serves the hand-maintained OpenAPI document behind /docs/*.
// It is shaped the way `swag init` would emit it (a SwaggerInfo registered
// with the swag spec registry) so http-swagger can serve it without a
// generator step.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Avalon API",
        "description": "API for Avalon game rooms and games.",
        "version": "1.0"
    },
    "basePath": "/",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register",
                "description": "Create a new user account. Returns user and session token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad request"},
                    "409": {"description": "Email already registered"},
                    "500": {"description": "Server error"}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "description": "Authenticate with email and password. Returns user and session token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"},
                    "401": {"description": "Invalid email or password"},
                    "500": {"description": "Server error"}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "tags": ["users"],
                "summary": "Get current user",
                "description": "Return the authenticated user's profile. Requires Bearer token.",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/rooms": {
            "post": {
                "tags": ["rooms"],
                "summary": "Create room",
                "description": "Create a new room. The requester becomes the host.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad request"},
                    "500": {"description": "Server error"}
                }
            }
        },
        "/api/rooms/{code}": {
            "get": {
                "tags": ["rooms"],
                "summary": "Get room",
                "description": "Get room details and latest game state. No authentication required.",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid room code"},
                    "404": {"description": "Room not found"},
                    "500": {"description": "Server error"}
                }
            }
        },
        "/api/rooms/{code}/join": {
            "post": {
                "tags": ["rooms"],
                "summary": "Join room",
                "description": "Join an existing room. Returns room, player, and optional latest game/snapshot.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"},
                    "401": {"description": "Password required or invalid"},
                    "404": {"description": "Room not found"},
                    "409": {"description": "Display name already taken in this room"},
                    "500": {"description": "Server error"}
                }
            }
        },
        "/api/rooms/{code}/games": {
            "post": {
                "tags": ["games"],
                "summary": "Create game",
                "description": "Create a new game in the room with all current room players (host only).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad request"},
                    "404": {"description": "Room not found"},
                    "500": {"description": "Server error"}
                }
            }
        }
    }
}`

// SwaggerInfo holds the exported Swagger spec, registered with the swag package at init time.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Avalon API",
	Description:      "API for Avalon game rooms and games.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
