package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Session API",
        "description": "Session token lifecycle: signup, signin, refresh, verify and signout.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Account and session token lifecycle"},
        {"name": "Operations", "description": "Liveness, readiness and metrics"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/": {
            "get": {
                "summary": "Greeting",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Hello World!"}
                }
            }
        },
        "/signup": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register user",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "User created", "schema": {"$ref": "#/definitions/Message"}},
                    "400": {"description": "Missing field or user already exists", "schema": {"$ref": "#/definitions/Message"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/signin": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "User logged in", "schema": {"$ref": "#/definitions/Message"}},
                    "400": {"description": "Missing field, unknown user or wrong password", "schema": {"$ref": "#/definitions/Message"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/refresh-token": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange a token for a new one",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token refreshed successfully", "schema": {"$ref": "#/definitions/Message"}},
                    "400": {"description": "Token is required or user not found", "schema": {"$ref": "#/definitions/Message"}},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/Message"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/verify-token": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Verify a token",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token is valid", "schema": {"$ref": "#/definitions/Message"}},
                    "400": {"description": "Token is required", "schema": {"$ref": "#/definitions/Message"}},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/Message"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/signout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the bearer token",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "User logged out", "schema": {"$ref": "#/definitions/Message"}},
                    "400": {"description": "Token is required or error logging out", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Revocation store reachable"},
                    "503": {"description": "Revocation store unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "CredentialsRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "TokenRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {
                "token": {"type": "string"}
            }
        },
        "Message": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "token": {"type": "string"},
                "valid": {"type": "boolean"}
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
