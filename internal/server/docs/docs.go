// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g internal/server/swagger.go -o internal/server/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "PhishSentry Maintainers",
            "url": "https://github.com/phishsentry/phishsentry"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "summary": "Liveness probe",
                "tags": ["meta"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/scan": {
            "post": {
                "summary": "Scan and score a single URL",
                "tags": ["scan"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/server.ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/model.Report"}},
                    "400": {"description": "Invalid URL", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "summary": "List retained batch jobs",
                "tags": ["jobs"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "Jobs", "schema": {"type": "array", "items": {"$ref": "#/definitions/app.Job"}}}}
            },
            "post": {
                "summary": "Start a batch scan job",
                "tags": ["jobs"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/server.BatchRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job accepted", "schema": {"$ref": "#/definitions/app.Job"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs/{jobID}": {
            "get": {
                "summary": "Get a job with its results",
                "tags": ["jobs"],
                "parameters": [{"in": "path", "name": "jobID", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Job", "schema": {"$ref": "#/definitions/app.Job"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "delete": {
                "summary": "Cancel a running job",
                "tags": ["jobs"],
                "parameters": [{"in": "path", "name": "jobID", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Canceled"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/ws/jobs": {
            "get": {
                "summary": "Start a batch job and stream its events over a WebSocket",
                "tags": ["jobs"],
                "parameters": [{"in": "query", "name": "url", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "required": true}],
                "responses": {"101": {"description": "Switching protocols"}}
            }
        },
        "/blocklist": {
            "get": {
                "summary": "List blocklist entries",
                "tags": ["blocklist"],
                "responses": {"200": {"description": "Entries", "schema": {"type": "array", "items": {"$ref": "#/definitions/reputation.Entry"}}}}
            },
            "post": {
                "summary": "Add or update a blocklist entry",
                "tags": ["blocklist"],
                "parameters": [
                    {"in": "body", "name": "entry", "required": true, "schema": {"$ref": "#/definitions/reputation.Entry"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/blocklist/{host}": {
            "delete": {
                "summary": "Remove a blocklist entry",
                "tags": ["blocklist"],
                "parameters": [{"in": "path", "name": "host", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "server.ScanRequest": {
            "type": "object",
            "properties": {"url": {"type": "string", "example": "http://192.168.0.1/paypal/login"}}
        },
        "server.BatchRequest": {
            "type": "object",
            "properties": {"urls": {"type": "array", "items": {"type": "string"}}}
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "not found"}}
        },
        "model.Report": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "scan": {"type": "object"},
                "score": {"type": "object"},
                "created_at": {"type": "string"}
            }
        },
        "app.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "urls": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "enum": ["pending", "running", "done", "failed", "canceled"]},
                "error": {"type": "string"},
                "processed": {"type": "integer"},
                "total": {"type": "integer"},
                "started_at": {"type": "string"},
                "ended_at": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "reputation.Entry": {
            "type": "object",
            "properties": {
                "host": {"type": "string"},
                "score": {"type": "number"},
                "threats": {"type": "array", "items": {"type": "string"}},
                "source": {"type": "string"},
                "added_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PhishSentry API",
	Description:      "Scan URLs for phishing indicators and score their reputation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
