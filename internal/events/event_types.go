package events

import (
	"time"

	"github.com/spec-kit/storefront/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventAdminSeeded    EventType = "admin_seeded"
)

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role     domain.Role `json:"role"`
	ClientIP string      `json:"client_ip,omitempty"`
}

// LoginFailedPayload payload. Reason is one of "unknown_email", "bad_password"
// or "rate_limited"; it is never returned to the client.
type LoginFailedPayload struct {
	Email    string `json:"email"`
	Reason   string `json:"reason"`
	ClientIP string `json:"client_ip,omitempty"`
}

// AdminSeededPayload payload.
type AdminSeededPayload struct {
	Email   string `json:"email"`
	Created bool   `json:"created"`
}
