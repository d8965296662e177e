// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import "time"

// ModerationEvent represents a rejected chat message published to the
// analytics stream. The MySQL moderation log is the authoritative record;
// this event only feeds the search index and abuse counters.
type ModerationEvent struct {
	EventID    string    `json:"event_id"`
	UserID     *uint     `json:"user_id"`
	Content    string    `json:"content"`
	Reason     string    `json:"reason"`
	FlagType   string    `json:"flag_type"` // UNSAFE / CRISIS
	IPAddress  string    `json:"ip_address"`
	Source     string    `json:"source"` // websocket / rest
	OccurredAt time.Time `json:"occurred_at"`
}
