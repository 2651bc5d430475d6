package http

import (
	"net/http"

	"github.com/swaggo/swag"
)

// OpenAPIPath is where the API document is served when OpenAPI is enabled.
const OpenAPIPath = "/.well-known/openapi.json"

// SwaggerInfo holds the exported API document. It is registered with swag
// under its instance name, so the Swagger UI's doc.json serves it as well.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "construct API",
	Description:      "Assembles blockchain runtimes from construct_runtime! declarations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// OpenAPISpec serves the API document.
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write([]byte(doc))
}

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/compile": {
            "post": {
                "description": "Assembles the declaration in the request body into its artifacts. With build history enabled a new module table is recorded and answered with 201.",
                "consumes": ["text/plain"],
                "produces": ["application/vnd.api+json"],
                "tags": ["assembly"],
                "summary": "Assemble a runtime",
                "parameters": [
                    {"type": "string", "description": "Name of the declaration", "name": "source", "in": "query"},
                    {"type": "string", "description": "Comma separated artifact names", "name": "only", "in": "query"},
                    {"description": "construct_runtime! declaration", "name": "declaration", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "Assembled, or reused from history", "schema": {"$ref": "#/definitions/Document"}},
                    "201": {"description": "Assembled and recorded", "schema": {"$ref": "#/definitions/Document"}},
                    "400": {"description": "Empty body or unknown artifact", "schema": {"$ref": "#/definitions/Errors"}},
                    "413": {"description": "Declaration too large", "schema": {"$ref": "#/definitions/Errors"}},
                    "422": {"description": "Declaration rejected", "schema": {"$ref": "#/definitions/Errors"}}
                }
            }
        },
        "/normalize": {
            "post": {
                "description": "Returns the canonical module table of the declaration.",
                "consumes": ["text/plain"],
                "produces": ["application/vnd.api+json"],
                "tags": ["assembly"],
                "summary": "Normalize a declaration",
                "parameters": [
                    {"description": "construct_runtime! declaration", "name": "declaration", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "Module table", "schema": {"$ref": "#/definitions/Document"}},
                    "422": {"description": "Declaration rejected", "schema": {"$ref": "#/definitions/Errors"}}
                }
            }
        },
        "/builds": {
            "get": {
                "description": "Lists recorded builds, newest first.",
                "produces": ["application/vnd.api+json"],
                "tags": ["builds"],
                "summary": "List builds",
                "parameters": [
                    {"type": "integer", "name": "page[number]", "in": "query"},
                    {"type": "integer", "name": "page[size]", "in": "query"},
                    {"type": "string", "name": "filter[runtime]", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Builds", "schema": {"$ref": "#/definitions/Collection"}},
                    "503": {"description": "Build history disabled", "schema": {"$ref": "#/definitions/Errors"}}
                }
            }
        },
        "/builds/{id}": {
            "get": {
                "description": "Returns one recorded build including its artifacts.",
                "produces": ["application/vnd.api+json"],
                "tags": ["builds"],
                "summary": "Get a build",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Build", "schema": {"$ref": "#/definitions/Document"}},
                    "404": {"description": "Unknown build", "schema": {"$ref": "#/definitions/Errors"}},
                    "503": {"description": "Build history disabled", "schema": {"$ref": "#/definitions/Errors"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Liveness",
                "responses": {"200": {"description": "Alive"}}
            }
        },
        "/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Service version",
                "responses": {"200": {"description": "Version", "schema": {"$ref": "#/definitions/Version"}}}
            }
        }
    },
    "definitions": {
        "Resource": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "id": {"type": "string"},
                "attributes": {"type": "object"},
                "links": {"type": "object"},
                "meta": {"type": "object"}
            }
        },
        "Document": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Resource"}
            }
        },
        "Collection": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Resource"}},
                "links": {"type": "object"},
                "meta": {"type": "object"}
            }
        },
        "Errors": {
            "type": "object",
            "properties": {
                "errors": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "status": {"type": "string"},
                            "code": {"type": "string"},
                            "title": {"type": "string"},
                            "detail": {"type": "string"}
                        }
                    }
                }
            }
        },
        "Version": {
            "type": "object",
            "properties": {
                "version": {"type": "string"},
                "service": {"type": "string"}
            }
        }
    }
}`
