package event

import "encoding/json"

const (
	// client -> server
	EventClientMessage = "client_message"
	EventMarkRead      = "mark_read"

	// server -> client
	EventConversationSnapshot = "conversation_snapshot"
	EventInboxSnapshot        = "inbox_snapshot"
	EventError                = "error"
)

type WsEvent struct {
	Event          string          `json:"event"`
	ConversationID string          `json:"conversationId,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// ClientMessage is an inbound send over the socket. The conversation must
// already exist (first contact goes through the REST send endpoint, which can
// carry the counterpart or catalog item).
type ClientMessage struct {
	ConversationID  string `json:"conversationId"`
	Text            string `json:"text"`
	ClientTimestamp int64  `json:"clientTimestamp"` // unix millis, stamped at submission
}

// MarkRead asks for the viewer's unread messages in the conversation to be
// flipped.
type MarkRead struct {
	ConversationID string `json:"conversationId"`
}

// ErrorPayload is sent to the client when an inbound event fails.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
