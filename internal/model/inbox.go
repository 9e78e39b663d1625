package model

import "time"

// InboxEntry is the derived per-conversation view for one user. It is recomputed
// reactively from the message and metadata streams and never persisted.
type InboxEntry struct {
	ConversationID  string    `json:"conversationId"`
	CounterpartName string    `json:"counterpartName"`
	Topic           string    `json:"topic"`
	Preview         string    `json:"preview"`
	UnreadCount     int       `json:"unreadCount"`
	LastActivityAt  time.Time `json:"lastActivityAt"`
}
