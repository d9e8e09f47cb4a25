// Package queue defines message payloads exchanged over the message broker.
package queue

// SessionEvent is published whenever a session changes state: login,
// refresh rotation, logout or legacy migration. It carries enough for
// downstream consumers to build an audit trail without querying the
// primary database. No secrets or hashes ever travel in an event.
type SessionEvent struct {
	Type     string `json:"type"` // login | refresh | logout | legacy-migration
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`
	At       string `json:"at"` // RFC3339 UTC
}
