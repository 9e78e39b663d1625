package model

import (
	"time"
)

// Conversation source types
const (
	SourceDirect  = "direct"
	SourceListing = "listing"
	SourceRequest = "request"
)

// Participant roles
const (
	RoleOwner  = "owner"
	RoleBuyer  = "buyer"
	RolePoster = "poster"
	RoleMember = "member"
)

// Conversation represents a conversation document in MongoDB. The ID is the
// deterministic string key derived by the identity resolver, not a store-assigned
// ObjectID, so both parties always land on the same document.
type Conversation struct {
	ID             string        `json:"id" bson:"_id"`
	Participants   []Participant `json:"participants" bson:"participants"`
	SourceType     string        `json:"sourceType" bson:"source_type"`
	SourceName     string        `json:"sourceName" bson:"source_name"`
	DeletedBy      []string      `json:"deletedBy" bson:"deleted_by"`
	LastActivityAt time.Time     `json:"lastActivityAt" bson:"last_activity_at"`
	CreatedAt      time.Time     `json:"createdAt" bson:"created_at"`
}

// Participant is the stored {address, displayName, role} record. Once written it
// is the only permitted source of display names for the conversation.
type Participant struct {
	Address     string `json:"address" bson:"address"`
	DisplayName string `json:"displayName" bson:"display_name"`
	Role        string `json:"role" bson:"role"`
}

// HasParticipant reports whether address is listed in the participant set.
// Comparison is exact; the case-insensitive compare is reserved for read-state
// and relevance checks.
func (c *Conversation) HasParticipant(address string) bool {
	for _, p := range c.Participants {
		if p.Address == address {
			return true
		}
	}
	return false
}

// DeletedFor reports whether address has soft-deleted this conversation.
func (c *Conversation) DeletedFor(address string) bool {
	for _, a := range c.DeletedBy {
		if a == address {
			return true
		}
	}
	return false
}
