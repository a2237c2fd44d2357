package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Fees API",
        "description": "Fee payment allocation service for school fee management",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Fees", "description": "Payment context, allocation suggestions and outstanding balances"},
        {"name": "Payments", "description": "Payment recording and receipts"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/payment-context": {
            "get": {
                "tags": ["Fees"],
                "summary": "Full payment context for a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student has no fee assignments", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/allocations/suggest": {
            "post": {
                "tags": ["Fees"],
                "summary": "Suggest an allocation for a payment amount",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuggestAllocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid amount or strategy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/allocations/validate": {
            "post": {
                "tags": ["Fees"],
                "summary": "Validate a manually edited allocation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateAllocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/fees/outstanding": {
            "get": {
                "tags": ["Fees"],
                "summary": "Students with outstanding balances",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/fees/outstanding/export": {
            "get": {
                "tags": ["Fees"],
                "summary": "Export outstanding balances as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Exported file"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/payments": {
            "post": {
                "tags": ["Payments"],
                "summary": "Record a payment with its allocation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid allocation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Balance changed since validation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/payments/{id}/receipt": {
            "get": {
                "tags": ["Payments"],
                "summary": "Download the payment receipt as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "404": {"description": "Payment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SuggestAllocationRequest": {
            "type": "object",
            "required": ["amount", "strategy"],
            "properties": {
                "amount": {"type": "string", "example": "250.00"},
                "strategy": {"type": "string", "enum": ["overdue_first", "priority_based", "proportional"]}
            }
        },
        "AllocationInput": {
            "type": "object",
            "required": ["fee_component_id", "amount"],
            "properties": {
                "fee_component_id": {"type": "string"},
                "amount": {"type": "string", "example": "100.00"}
            }
        },
        "ValidateAllocationRequest": {
            "type": "object",
            "required": ["allocations"],
            "properties": {
                "allocations": {"type": "array", "items": {"$ref": "#/definitions/AllocationInput"}}
            }
        },
        "RecordPaymentRequest": {
            "type": "object",
            "required": ["student_id", "student_fee_assignment_id", "total_amount", "mode", "allocations"],
            "properties": {
                "student_id": {"type": "string"},
                "student_fee_assignment_id": {"type": "string"},
                "total_amount": {"type": "string", "example": "250.00"},
                "mode": {"type": "string", "enum": ["CASH", "BANK_TRANSFER", "CHEQUE", "MOBILE_MONEY"]},
                "date": {"type": "string", "format": "date-time"},
                "notes": {"type": "string"},
                "receipt_number": {"type": "string"},
                "allocations": {"type": "array", "items": {"$ref": "#/definitions/AllocationInput"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
