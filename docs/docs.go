// Package docs registers the OpenAPI document served at /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/products": {
            "get": {
                "tags": ["catalog"],
                "summary": "List products in search or filter mode",
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "finish", "in": "query"},
                    {"type": "string", "name": "material", "in": "query"},
                    {"type": "string", "name": "sortBy", "in": "query", "enum": ["name", "code", "category", "newest"]},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "products and pagination", "schema": {"$ref": "#/definitions/ListResult"}}}
            }
        },
        "/api/products/{id}": {
            "get": {
                "tags": ["catalog"],
                "summary": "Get one product",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "product", "schema": {"$ref": "#/definitions/Product"}}, "404": {"description": "not found"}}
            }
        },
        "/api/filters/categories": {"get": {"tags": ["facets"], "summary": "Categories available under finish and material", "responses": {"200": {"description": "sorted values", "schema": {"type": "array", "items": {"type": "string"}}}}}},
        "/api/filters/finishes": {"get": {"tags": ["facets"], "summary": "Finishes available under category and material", "responses": {"200": {"description": "sorted values", "schema": {"type": "array", "items": {"type": "string"}}}}}},
        "/api/filters/materials": {"get": {"tags": ["facets"], "summary": "Materials available under category and finish", "responses": {"200": {"description": "sorted values", "schema": {"type": "array", "items": {"type": "string"}}}}}},
        "/api/categories": {"get": {"tags": ["facets"], "summary": "All categories", "responses": {"200": {"description": "sorted values"}}}},
        "/api/finishes": {"get": {"tags": ["facets"], "summary": "All finishes", "responses": {"200": {"description": "sorted values"}}}},
        "/api/materials": {"get": {"tags": ["facets"], "summary": "All materials", "responses": {"200": {"description": "sorted values"}}}},
        "/api/wishlist": {
            "get": {"tags": ["wishlist"], "summary": "Wishlist joined with products", "responses": {"200": {"description": "entries"}, "401": {"description": "login required"}}},
            "post": {"tags": ["wishlist"], "summary": "Add a product", "responses": {"201": {"description": "created"}, "400": {"description": "CONFLICT when already present"}}}
        },
        "/api/wishlist/{productId}": {
            "get": {"tags": ["wishlist"], "summary": "Membership check", "responses": {"200": {"description": "{inWishlist}"}}},
            "delete": {"tags": ["wishlist"], "summary": "Remove a product", "responses": {"200": {"description": "{success}"}}}
        },
        "/api/auth/login": {"post": {"tags": ["auth"], "summary": "Sign in by WhatsApp number", "responses": {"200": {"description": "user"}}}},
        "/api/auth/logout": {"post": {"tags": ["auth"], "summary": "Sign out", "responses": {"200": {"description": "{success}"}}}},
        "/api/auth/me": {"get": {"tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "user"}}}},
        "/api/auth/token": {"post": {"tags": ["auth"], "summary": "Issue an admin bearer token", "responses": {"200": {"description": "token"}}}},
        "/api/feedback": {
            "get": {"tags": ["feedback"], "summary": "Published feedback", "responses": {"200": {"description": "page"}}},
            "post": {"tags": ["feedback"], "summary": "Submit feedback", "responses": {"201": {"description": "created"}}}
        }
    },
    "definitions": {
        "Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "finish": {"type": "string"},
                "material": {"type": "string"},
                "length": {"type": "number"},
                "breadth": {"type": "number"},
                "height": {"type": "number"},
                "image": {"type": "string"},
                "images": {"type": "array", "items": {"type": "string"}},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "ListResult": {
            "type": "object",
            "properties": {
                "products": {"type": "array", "items": {"$ref": "#/definitions/Product"}},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "page": {"type": "integer"},
                        "limit": {"type": "integer"},
                        "total": {"type": "integer"},
                        "totalPages": {"type": "integer"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "vfcatalog API",
	Description:      "Furniture catalog with faceted listing, wishlists and feedback.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
