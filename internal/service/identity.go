package service

import (
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
)

// IDSeparator joins the components of a derived conversation id.
const IDSeparator = "_"

// PlaceholderName is shown when a conversation predates participant metadata
// and no name can be resolved. Raw addresses are never exposed as names.
const PlaceholderName = "User"

// DirectConversationID derives the canonical id for a direct conversation
// between two addresses. The addresses are sorted lexicographically so both
// parties derive the same id regardless of who initiates. Derivation is
// case-sensitive; only read-state and relevance checks fold case.
func DirectConversationID(aAddress, bAddress string) string {
	if aAddress > bAddress {
		aAddress, bAddress = bAddress, aAddress
	}
	return aAddress + IDSeparator + bAddress
}

// ItemConversationID derives the id for a conversation initiated from a
// catalog item. Each (item, prospective counterpart) pair gets its own
// conversation even though the item has one owner.
func ItemConversationID(sourceID, actingUserAddress string) string {
	return sourceID + IDSeparator + actingUserAddress
}

// ResolveDisplayName returns the display name of the participant who is not
// the viewer. Participant metadata is the only sanctioned source of names;
// when it is entirely absent the generic placeholder is returned instead of
// the counterpart's address.
func ResolveDisplayName(conv *model.Conversation, viewerAddress string) string {
	if conv == nil {
		return PlaceholderName
	}
	for _, p := range conv.Participants {
		if p.Address != viewerAddress {
			if p.DisplayName != "" {
				return p.DisplayName
			}
			return PlaceholderName
		}
	}
	return PlaceholderName
}

// ResolveTopic returns the human label for a conversation: the item title for
// catalog-triggered chats, the counterpart's name for direct ones.
func ResolveTopic(conv *model.Conversation, viewerAddress string) string {
	if conv == nil {
		return PlaceholderName
	}
	if conv.SourceType != model.SourceDirect && conv.SourceName != "" {
		return conv.SourceName
	}
	return ResolveDisplayName(conv, viewerAddress)
}
