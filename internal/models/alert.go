package models

import "time"

// Alert priorities.
const (
	AlertPriorityLow    = "low"
	AlertPriorityMedium = "medium"
	AlertPriorityHigh   = "high"
)

// Alert statuses. An alert transitions pending -> resolved exactly once,
// triggered by a dashboard operator, never by the orchestrator.
const (
	AlertStatusPending  = "pending"
	AlertStatusResolved = "resolved"
)

// ValidPriority reports whether p is a known alert priority.
func ValidPriority(p string) bool {
	return p == AlertPriorityLow || p == AlertPriorityMedium || p == AlertPriorityHigh
}

// EscalationAlert records a request for human intervention. Repeated
// escalations for the same user create distinct alerts: each one represents a
// separate trigger event.
type EscalationAlert struct {
	AlertID     string     `json:"alert_id"`
	UserID      string     `json:"user_id"`
	Reason      string     `json:"reason"`
	LastMessage string     `json:"last_message"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// AlertReceipt acknowledges a recorded escalation.
type AlertReceipt struct {
	AlertID string `json:"alert_id"`
	Status  string `json:"status"`
}
