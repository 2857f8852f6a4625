package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the site service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>anniversary — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document for the JSON endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "anniversary", "version": "v0.1.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } } },
  "paths": {
    "/api/content": {
      "get": { "summary": "Resolved content values, start date and elapsed time", "responses": { "200": { "description": "content" } } }
    },
    "/admin/login": {
      "post": {
        "summary": "Exchange the admin password for a session token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "token returned" }, "401": { "description": "Access Denied" } }
      }
    },
    "/admin/logout": {
      "post": { "summary": "Revoke the current admin session", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/admin/form": {
      "get": { "security": [{"bearer": []}], "summary": "Editable form of the current document", "responses": { "200": { "description": "form sections" }, "401": { "description": "unauthorized" } } }
    },
    "/api/admin/uploads/{field}": {
      "post": {
        "security": [{"bearer": []}],
        "summary": "Stage an image for an image field",
        "parameters": [{ "name": "field", "in": "path", "required": true, "schema": {"type":"string"} }],
        "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"image":{"type":"string","format":"binary"},"x":{"type":"integer"},"y":{"type":"integer"},"w":{"type":"integer"},"h":{"type":"integer"}}}}}},
        "responses": { "200": { "description": "field and local preview" }, "400": { "description": "not an image field" }, "404": { "description": "unknown field" } }
      },
      "delete": {
        "security": [{"bearer": []}],
        "summary": "Drop a staged image",
        "parameters": [{ "name": "field", "in": "path", "required": true, "schema": {"type":"string"} }],
        "responses": { "204": { "description": "discarded" } }
      }
    },
    "/api/admin/save": {
      "post": {
        "security": [{"bearer": []}],
        "summary": "Upload staged images, then merge-write values and image URLs",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"values":{"type":"object","additionalProperties":{"type":"string"}}}}}}},
        "responses": { "200": { "description": "saved" }, "502": { "description": "an upload failed; nothing was written" } }
      }
    },
    "/api/admin/progress": {
      "get": { "security": [{"bearer": []}], "summary": "Per-field upload progress of the latest save", "responses": { "200": { "description": "progress" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
