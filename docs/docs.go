// Package docs registers the admin API description with swag.
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
        "/guilds/{guild}/giveaways": {
            "get": {
                "produces": ["application/json"],
                "tags": ["giveaways"],
                "summary": "List active giveaways",
                "parameters": [
                    {"type": "string", "description": "Guild ID", "name": "guild", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/guilds/{guild}/giveaways/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["giveaways"],
                "summary": "Get giveaway by ID",
                "parameters": [
                    {"type": "string", "description": "Guild ID", "name": "guild", "in": "path", "required": true},
                    {"type": "string", "description": "Giveaway ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.GiveawayResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/guilds/{guild}/giveaways/{id}/entrants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["giveaways"],
                "summary": "Get giveaway entrants",
                "parameters": [
                    {"type": "string", "description": "Guild ID", "name": "guild", "in": "path", "required": true},
                    {"type": "string", "description": "Giveaway ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.EntrantsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ListResponse": {
            "type": "object",
            "properties": {
                "giveaways": {"type": "array", "items": {"$ref": "#/definitions/http.GiveawayResponse"}},
                "total": {"type": "integer"}
            }
        },
        "http.GiveawayResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "guild_id": {"type": "string"},
                "channel_id": {"type": "string"},
                "creator_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "image_uri": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "winner_count": {"type": "integer"},
                "entrants": {"type": "array", "items": {"type": "string"}},
                "winner_ids": {"type": "array", "items": {"type": "string"}},
                "end_handled": {"type": "boolean"},
                "message_id": {"type": "string"},
                "log_message_id": {"type": "string"},
                "active": {"type": "boolean"},
                "excluded_entrants": {"type": "integer"}
            }
        },
        "http.EntrantsResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "entrants": {"type": "array", "items": {"type": "string"}},
                "total": {"type": "integer"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "object"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Giveaway Bot Admin API",
	Description:      "Read-only view of the giveaways tracked by the Discord bot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
