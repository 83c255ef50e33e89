package models

import "time"

// AuditEvent is a single command audit-trail entry: every setpoint change,
// meat target, acknowledge, or session lifecycle command is recorded here.
type AuditEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Kind        string    `json:"kind"` // e.g. set_setpoint, acknowledge_alarms, start_session
	Description string    `json:"description"`
	Detail      any       `json:"detail,omitempty"`
}
