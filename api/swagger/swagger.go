package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Courier Operations API",
        "description": "Consignment lifecycle, rider assignment and return handling",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Bookings", "description": "Consignment booking lifecycle"},
        {"name": "Assignments", "description": "Rider delivery sheets"},
        {"name": "Returns", "description": "Rider return sheets"},
        {"name": "Voids", "description": "Cancellation and reconciliation"},
        {"name": "Tracking", "description": "Public shipment tracking"}
    ],
    "paths": {
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "destinationCity", "in": "query", "type": "string"},
                    {"name": "originCity", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Create booking",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rejected by validation screening", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{cn}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get consignment",
                "parameters": [
                    {"name": "cn", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/bookings/{cn}/status": {
            "put": {
                "tags": ["Bookings"],
                "summary": "Update consignment status",
                "parameters": [
                    {"name": "cn", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{cn}/remarks": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Append remark",
                "parameters": [
                    {"name": "cn", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sheets": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List delivery sheets",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "riderId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sheets/assign": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign consignment to rider",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already assigned"}
                }
            }
        },
        "/sheets/remove": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Remove consignment from sheet",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sheets/complete": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Complete active sheet",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sheets/mine": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Rider's active sheets with parcels",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sheets/consignments/{cn}/accept": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Accept assigned consignment",
                "parameters": [
                    {"name": "cn", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sheets/consignments/{cn}/decline": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Decline assigned consignment",
                "parameters": [
                    {"name": "cn", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeclineRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/returns": {
            "get": {
                "tags": ["Returns"],
                "summary": "List return sheets",
                "parameters": [
                    {"name": "riderId", "in": "query", "type": "string"},
                    {"name": "outcome", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Returns"],
                "summary": "Register return",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterReturnRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already registered"}
                }
            }
        },
        "/returns/today": {
            "get": {
                "tags": ["Returns"],
                "summary": "Rider's return sheet for today",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns/{id}/complete": {
            "put": {
                "tags": ["Returns"],
                "summary": "Record return sheet outcome",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/voids": {
            "get": {
                "tags": ["Voids"],
                "summary": "List cancelled consignments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Voids"],
                "summary": "Cancel consignment",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/voids/sweep": {
            "post": {
                "tags": ["Voids"],
                "summary": "Run auto-void sweep",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/track/{cn}": {
            "get": {
                "tags": ["Tracking"],
                "summary": "Track consignment",
                "parameters": [
                    {"name": "cn", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "CreateBookingRequest": {
            "type": "object",
            "properties": {
                "consignmentNumber": {"type": "string"},
                "consigneeName": {"type": "string"},
                "consigneeAddress": {"type": "string"},
                "consigneeMobile": {"type": "string"},
                "pieces": {"type": "integer"},
                "weight": {"type": "number"},
                "codAmount": {"type": "number"},
                "referenceNo": {"type": "string"},
                "destinationCity": {"type": "string"},
                "originCity": {"type": "string"},
                "serviceType": {"type": "string"},
                "accountNo": {"type": "string"},
                "agentName": {"type": "string"},
                "remarks": {"type": "string"}
            },
            "required": ["consignmentNumber", "consigneeName", "consigneeAddress", "consigneeMobile"]
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "remarks": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["status"]
        },
        "AssignRequest": {
            "type": "object",
            "properties": {
                "riderId": {"type": "string"},
                "consignmentNumber": {"type": "string"}
            },
            "required": ["riderId", "consignmentNumber"]
        },
        "DeclineRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "RegisterReturnRequest": {
            "type": "object",
            "properties": {
                "riderId": {"type": "string"},
                "consignmentNumber": {"type": "string"}
            },
            "required": ["consignmentNumber"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
