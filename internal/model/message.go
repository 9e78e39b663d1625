package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemSender is the reserved sender for automated advisory messages. It is
// never a registered address and is excluded from unread counterpart logic.
const SystemSender = "System"

// Message represents a chat message document in MongoDB.
//
// ServerTimestamp is assigned by the store on commit and may be absent in the
// brief window between an optimistic send and the committed write landing in a
// subscription snapshot. ClientTimestamp is stamped by the sending client and is
// always present; it is only ever a fallback for ordering.
type Message struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID  string             `json:"conversationId" bson:"conversation_id"`
	Sender          string             `json:"sender" bson:"sender"`
	Text            string             `json:"text" bson:"text"`
	ServerTimestamp *time.Time         `json:"serverTimestamp" bson:"server_timestamp"`
	ClientTimestamp time.Time          `json:"clientTimestamp" bson:"client_timestamp"`
	Read            bool               `json:"read" bson:"read"`

	// TriggeredBy names the human sender whose first message caused a system
	// notice. It is empty on human messages. A notice never counts as unread
	// for the participant who triggered it.
	TriggeredBy string `json:"triggeredBy,omitempty" bson:"triggered_by,omitempty"`
}

// FromSystem reports whether the message is an automated system notice.
func (m *Message) FromSystem() bool {
	return m.Sender == SystemSender
}

// SentBy reports whether the message was sent by address, compared
// case-insensitively as read-state and relevance checks require.
func (m *Message) SentBy(address string) bool {
	return strings.EqualFold(m.Sender, address)
}
