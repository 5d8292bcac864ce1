// Package docs holds the OpenAPI document served at /openapi.json and
// registers it with swag.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RootResponse"}}
                }
            }
        },
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PingResponse"}}
                }
            }
        },
        "/users": {
            "post": {
                "description": "Creates the user and its first session. Tokens are returned in headers.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Email and password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.AuthRequest"}}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/model.UserResponse"},
                        "headers": {
                            "x-access-token": {"type": "string", "description": "Access token"},
                            "x-refresh-token": {"type": "string", "description": "Refresh token"}
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "description": "Opens a new session. Sessions from earlier logins stay valid.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Login",
                "parameters": [
                    {"description": "Email and password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.AuthRequest"}}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/model.UserResponse"},
                        "headers": {
                            "x-access-token": {"type": "string", "description": "Access token"},
                            "x-refresh-token": {"type": "string", "description": "Refresh token"}
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get current user",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/users/me/access-token": {
            "get": {
                "description": "Requires the x-refresh-token and _id headers of a live session.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Issue a new access token",
                "parameters": [
                    {"type": "string", "description": "Refresh token", "name": "x-refresh-token", "in": "header", "required": true},
                    {"type": "string", "description": "User id", "name": "_id", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/model.AccessTokenResponse"},
                        "headers": {"x-access-token": {"type": "string", "description": "Access token"}}
                    },
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/lists": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "List the caller's lists",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.List"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "Create a list",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true},
                    {"description": "List title", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ListRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.List"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/lists/{id}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "Rename a list",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true},
                    {"type": "string", "description": "List id", "name": "id", "in": "path", "required": true},
                    {"description": "List title", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ListRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "Delete a list and its tasks",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true},
                    {"type": "string", "description": "List id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ListDeletedResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/lists/{id}/tasks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "List the tasks of a list",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true},
                    {"type": "string", "description": "List id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Task"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Add a task to a list",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true},
                    {"type": "string", "description": "List id", "name": "id", "in": "path", "required": true},
                    {"description": "Task title", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.TaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TaskCreatedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/lists/{id}/tasks/{taskId}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Update a task",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true},
                    {"type": "string", "description": "List id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Task id", "name": "taskId", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.TaskPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TaskUpdatedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Delete a task",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "x-access-token", "in": "header", "required": true},
                    {"type": "string", "description": "List id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Task id", "name": "taskId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TaskDeletedResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.AccessTokenResponse": {
            "type": "object",
            "properties": {"accessToken": {"type": "string"}}
        },
        "model.AuthRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "model.List": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "_userId": {"type": "string"},
                "created": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "model.ListDeletedResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "removedList": {"$ref": "#/definitions/model.List"}}
        },
        "model.ListRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}}
        },
        "model.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "model.PingResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "model.RootResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "status": {"type": "string"}}
        },
        "model.Task": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "_listId": {"type": "string"},
                "completed": {"type": "boolean"},
                "created": {"type": "string"},
                "title": {"type": "string"},
                "updated": {"type": "string"}
            }
        },
        "model.TaskCreatedResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "taskDoc": {"$ref": "#/definitions/model.Task"}}
        },
        "model.TaskDeletedResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "removedTask": {"$ref": "#/definitions/model.Task"}}
        },
        "model.TaskPatch": {
            "type": "object",
            "properties": {"completed": {"type": "boolean"}, "title": {"type": "string"}}
        },
        "model.TaskRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}}
        },
        "model.TaskUpdatedResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "updatedTask": {"$ref": "#/definitions/model.Task"}}
        },
        "model.UserResponse": {
            "type": "object",
            "properties": {"_id": {"type": "string"}, "createdAt": {"type": "string"}, "email": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "tasklist API",
	Description:      "Todo lists and tasks behind access and refresh token sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
