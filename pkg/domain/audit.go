package domain

import "time"

// AuditKind classifies an audit entry.
type AuditKind string

const (
	AuditPrompt   AuditKind = "prompt"
	AuditResponse AuditKind = "response"
	AuditError    AuditKind = "error"
)

// AuditEntry is one append-only forensic record of a Thinker exchange.
type AuditEntry struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	Conversation string    `json:"conversation,omitempty"`
	Thinker      string    `json:"thinker"`
	Kind         AuditKind `json:"kind"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
}
