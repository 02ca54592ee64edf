package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Career Lab OS API",
        "description": "CRM, autonomous outreach and proctored assessment platform for Career Lab Consulting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login and two-factor enrolment"},
        {"name": "Leads", "description": "CRM lead funnel"},
        {"name": "Outreach", "description": "Autonomous outbound email"},
        {"name": "Exams", "description": "Assessment administration"},
        {"name": "Sessions", "description": "Candidate proctored sessions"},
        {"name": "Results", "description": "Result auditing"},
        {"name": "Chat", "description": "Operations assistant"},
        {"name": "Dashboard", "description": "Admin dashboard read models"},
        {"name": "Metrics", "description": "Runtime instrumentation"}
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
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already exists"}
                }
            }
        },
        "/auth/profile": {
            "put": {
                "tags": ["Auth"],
                "summary": "Update the authenticated user's display name",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated profile"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/2fa": {
            "get": {
                "tags": ["Auth"],
                "summary": "Report 2FA enrolment state",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Enrolment state"}
                }
            }
        },
        "/auth/2fa/setup": {
            "post": {
                "tags": ["Auth"],
                "summary": "Provision a TOTP secret",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Secret and provisioning URI"}
                }
            }
        },
        "/auth/2fa/verify": {
            "post": {
                "tags": ["Auth"],
                "summary": "Verify a TOTP code",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Code verified"},
                    "401": {"description": "Invalid code"}
                }
            }
        },
        "/leads": {
            "get": {
                "tags": ["Leads"],
                "summary": "List leads",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Paginated leads", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Leads"],
                "summary": "Register a lead",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/leads/{id}": {
            "get": {
                "tags": ["Leads"],
                "summary": "Fetch one lead with communications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Lead detail"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Leads"],
                "summary": "Patch a lead",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated lead"}
                }
            }
        },
        "/leads/{id}/analyze": {
            "post": {
                "tags": ["Leads"],
                "summary": "Run persona analysis on a lead",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Lead with analysis applied"},
                    "502": {"description": "Model returned invalid output"}
                }
            }
        },
        "/leads/{id}/followup": {
            "post": {
                "tags": ["Outreach"],
                "summary": "Send a follow-up email to one lead",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Recorded communication"}
                }
            }
        },
        "/outreach/process": {
            "post": {
                "tags": ["Outreach"],
                "summary": "Run one autonomous outreach batch",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Batch report"}
                }
            }
        },
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List exams with attempt counts",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Exams"}
                }
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Create an exam",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/exams/{id}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Fetch one exam including answer keys",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Exam"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/exams/{id}/generate": {
            "post": {
                "tags": ["Exams"],
                "summary": "Generate a question set",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Exam with new questions"},
                    "502": {"description": "Model returned invalid questions"}
                }
            }
        },
        "/exams/{id}/results": {
            "get": {
                "tags": ["Exams"],
                "summary": "List recorded attempts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Results"}
                }
            }
        },
        "/exams/{id}/results/export": {
            "get": {
                "tags": ["Exams"],
                "summary": "Export attempts as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/results/{id}/audit": {
            "post": {
                "tags": ["Results"],
                "summary": "Generate an integrity audit note",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Result with audit note"}
                }
            }
        },
        "/public/exams/submit": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Submit answers for grading without a tracked session",
                "responses": {
                    "201": {"description": "Graded result"},
                    "404": {"description": "Exam not found"}
                }
            }
        },
        "/public/exams/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Candidate view of an exam, answer keys stripped",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Public exam"}
                }
            }
        },
        "/public/exams/{id}/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Start a proctored session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Session with redacted exam"},
                    "400": {"description": "Identity or camera gate failed"}
                }
            }
        },
        "/public/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Fetch session state and countdown",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session"}
                }
            }
        },
        "/public/sessions/{id}/answers": {
            "put": {
                "tags": ["Sessions"],
                "summary": "Record an answer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Recorded"},
                    "409": {"description": "Session no longer active"}
                }
            }
        },
        "/public/sessions/{id}/flags": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Record an integrity violation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Recorded"}
                }
            }
        },
        "/public/sessions/{id}/submit": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Submit the session for grading",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Graded result"},
                    "409": {"description": "Already submitted"}
                }
            }
        },
        "/chat": {
            "post": {
                "tags": ["Chat"],
                "summary": "Ask the operations assistant",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Assistant reply"}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Headline dashboard counters",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Stats"}
                }
            }
        },
        "/dashboard/analytics": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Trailing lead acquisition chart",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Chart points"}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Aggregated runtime metrics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Snapshot"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "CONSULTOR"]}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
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
