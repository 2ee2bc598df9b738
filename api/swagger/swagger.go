package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hiring Pipeline API",
        "description": "Multi-stage hiring workflow: applications, stage gates, offers, reviews and scoring",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Login, token refresh and logout"},
        {"name": "Applications", "description": "Pipeline stage transitions and withdrawal"},
        {"name": "Offers", "description": "Offer state machine and letter generation"},
        {"name": "Stage Gates", "description": "Per-stage advancement requirements"},
        {"name": "Reviews", "description": "Scorecards and interviews"},
        {"name": "Approvals", "description": "Second-party sign-off requests"},
        {"name": "Scores", "description": "Candidate and organization ratings"},
        {"name": "Notifications", "description": "Per-account workflow inbox"},
        {"name": "Exports", "description": "Pipeline CSV snapshots"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Inactive account or missing membership"}
                }
            }
        },
        "/api/v1/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the presented refresh token",
                "responses": {
                    "200": {"description": "Revoked"},
                    "403": {"description": "Token belongs to another account"}
                }
            }
        },
        "/api/v1/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List applications visible to the caller",
                "responses": {
                    "200": {"description": "Paginated applications", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/applications/{id}": {
            "get": {
                "tags": ["Applications"],
                "summary": "Fetch one application with candidate and job detail",
                "responses": {
                    "200": {"description": "Application detail"},
                    "404": {"description": "Not found or not visible"}
                }
            },
            "delete": {
                "tags": ["Applications"],
                "summary": "Withdraw an application (candidate only)",
                "responses": {
                    "204": {"description": "Withdrawn"},
                    "409": {"description": "Already withdrawn"}
                }
            }
        },
        "/api/v1/applications/{id}/stage": {
            "put": {
                "tags": ["Applications"],
                "summary": "Advance an application to the next stage",
                "responses": {
                    "200": {"description": "Updated application"},
                    "409": {"description": "Advancement blocked by unmet stage gates"}
                }
            }
        },
        "/api/v1/applications/{id}/blockers": {
            "get": {
                "tags": ["Applications"],
                "summary": "List unmet gate requirements for the current stage",
                "responses": {
                    "200": {"description": "Blockers, empty when the stage is clear"}
                }
            }
        },
        "/api/v1/applications/{id}/offer": {
            "post": {
                "tags": ["Offers"],
                "summary": "Create a draft offer and move the application to the offer stage",
                "responses": {
                    "201": {"description": "Draft offer"},
                    "409": {"description": "A live offer already exists"}
                }
            }
        },
        "/api/v1/offers/{id}": {
            "get": {
                "tags": ["Offers"],
                "summary": "Fetch an offer",
                "responses": {
                    "200": {"description": "Offer"},
                    "404": {"description": "Not found or not visible"}
                }
            }
        },
        "/api/v1/offers/{id}/send": {
            "post": {
                "tags": ["Offers"],
                "summary": "Send a draft offer to the candidate",
                "responses": {
                    "200": {"description": "Offer marked SENT"},
                    "409": {"description": "Offer is not in DRAFT"}
                }
            }
        },
        "/api/v1/offers/{id}/view": {
            "post": {
                "tags": ["Offers"],
                "summary": "Record the candidate's first view of a sent offer",
                "responses": {
                    "200": {"description": "Offer, VIEWED on first call and unchanged after"}
                }
            }
        },
        "/api/v1/offers/{id}/sign": {
            "post": {
                "tags": ["Offers"],
                "summary": "Sign a viewed offer",
                "responses": {
                    "200": {"description": "Offer marked SIGNED"},
                    "409": {"description": "Offer is not in VIEWED"}
                }
            }
        },
        "/api/v1/offers/{id}/withdraw": {
            "post": {
                "tags": ["Offers"],
                "summary": "Withdraw a non-terminal offer and revert the application stage",
                "responses": {
                    "200": {"description": "Offer marked WITHDRAWN"},
                    "409": {"description": "Offer already terminal"}
                }
            }
        },
        "/api/v1/offers/{id}/letter": {
            "post": {
                "tags": ["Offers"],
                "summary": "Render the offer letter PDF and return a signed download link",
                "responses": {
                    "200": {"description": "Download URL, token and expiry"}
                }
            }
        },
        "/api/v1/offer-letters/download": {
            "get": {
                "tags": ["Offers"],
                "summary": "Download an offer letter using a signed token",
                "responses": {
                    "200": {"description": "PDF payload"},
                    "401": {"description": "Token invalid or expired"}
                }
            }
        },
        "/api/v1/jobs/{id}/stage-gates": {
            "get": {
                "tags": ["Stage Gates"],
                "summary": "List gate configurations for a job",
                "responses": {
                    "200": {"description": "Configurations"}
                }
            },
            "put": {
                "tags": ["Stage Gates"],
                "summary": "Create or replace a stage's gate configuration",
                "responses": {
                    "200": {"description": "Stored configuration"},
                    "403": {"description": "Requires an elevated role"}
                }
            }
        },
        "/api/v1/jobs/{id}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the job's pipeline as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/api/v1/applications/{id}/scorecards": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Submit a scorecard for the application's current stage",
                "responses": {
                    "201": {"description": "Scorecard"}
                }
            },
            "get": {
                "tags": ["Reviews"],
                "summary": "List scorecards for an application",
                "responses": {
                    "200": {"description": "Scorecards"}
                }
            }
        },
        "/api/v1/applications/{id}/interviews": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Schedule an interview",
                "responses": {
                    "201": {"description": "Interview with UTC-normalized time"}
                }
            },
            "get": {
                "tags": ["Reviews"],
                "summary": "List interviews for an application",
                "responses": {
                    "200": {"description": "Interviews"}
                }
            }
        },
        "/api/v1/applications/{id}/interviews/{interviewId}/complete": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Mark an interview completed",
                "responses": {
                    "204": {"description": "Completed"},
                    "409": {"description": "Already completed"}
                }
            }
        },
        "/api/v1/approvals": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Request a second-party approval",
                "responses": {
                    "201": {"description": "Pending request"},
                    "409": {"description": "A pending request already exists for this key"}
                }
            },
            "get": {
                "tags": ["Approvals"],
                "summary": "List approvals addressed to the caller",
                "responses": {
                    "200": {"description": "Approvals"}
                }
            }
        },
        "/api/v1/approvals/{id}": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Fetch one approval request",
                "responses": {
                    "200": {"description": "Approval request"}
                }
            }
        },
        "/api/v1/approvals/{id}/respond": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve or reject a pending request",
                "responses": {
                    "200": {"description": "Resolved request"},
                    "409": {"description": "Already resolved"}
                }
            }
        },
        "/api/v1/scores": {
            "put": {
                "tags": ["Scores"],
                "summary": "Create or replace the caller's score for a target",
                "responses": {
                    "200": {"description": "Score with the target's updated aggregate"}
                }
            }
        },
        "/api/v1/scores/{id}": {
            "delete": {
                "tags": ["Scores"],
                "summary": "Delete a score (admin only)",
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/api/v1/scores/{targetType}/{targetId}": {
            "get": {
                "tags": ["Scores"],
                "summary": "List scores for a candidate or organization",
                "responses": {
                    "200": {"description": "Scores with aggregate summary"}
                }
            }
        },
        "/api/v1/scores/{targetType}/{targetId}/mine": {
            "get": {
                "tags": ["Scores"],
                "summary": "Fetch the caller's own score for a target",
                "responses": {
                    "200": {"description": "Score"},
                    "404": {"description": "Caller has not scored this target"}
                }
            }
        },
        "/api/v1/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "responses": {
                    "200": {"description": "Notifications"}
                }
            }
        },
        "/api/v1/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification read",
                "responses": {
                    "204": {"description": "Marked"}
                }
            }
        }
    },
    "definitions": {
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
