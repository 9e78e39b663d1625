package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/service"
)

func TestDirectConversationID(t *testing.T) {
	t.Run("SymmetricAcrossInitiators", func(t *testing.T) {
		a := "ali@seecs.edu.pk"
		b := "zara@seecs.edu.pk"
		assert.Equal(t, service.DirectConversationID(a, b), service.DirectConversationID(b, a))
	})

	t.Run("SortedLexicographically", func(t *testing.T) {
		id := service.DirectConversationID("zara@seecs.edu.pk", "ali@seecs.edu.pk")
		assert.Equal(t, "ali@seecs.edu.pk_zara@seecs.edu.pk", id)
	})

	t.Run("CaseSensitiveDerivation", func(t *testing.T) {
		// id derivation deliberately does not fold case; only read-state and
		// relevance checks do
		lower := service.DirectConversationID("ali@seecs.edu.pk", "zara@seecs.edu.pk")
		upper := service.DirectConversationID("Ali@seecs.edu.pk", "zara@seecs.edu.pk")
		assert.NotEqual(t, lower, upper)
	})
}

func TestItemConversationID(t *testing.T) {
	id := service.ItemConversationID("66f2a1b3c4d5e6f7a8b9c0d1", "ali@seecs.edu.pk")
	assert.Equal(t, "66f2a1b3c4d5e6f7a8b9c0d1_ali@seecs.edu.pk", id)
}

func TestResolveDisplayName(t *testing.T) {
	conv := &model.Conversation{
		ID: "x",
		Participants: []model.Participant{
			{Address: "ali@seecs.edu.pk", DisplayName: "Ali Raza", Role: model.RoleOwner},
			{Address: "zara@seecs.edu.pk", DisplayName: "Zara Khan", Role: model.RoleBuyer},
		},
	}

	t.Run("ReturnsCounterpartName", func(t *testing.T) {
		assert.Equal(t, "Zara Khan", service.ResolveDisplayName(conv, "ali@seecs.edu.pk"))
		assert.Equal(t, "Ali Raza", service.ResolveDisplayName(conv, "zara@seecs.edu.pk"))
	})

	t.Run("PlaceholderWhenMetadataAbsent", func(t *testing.T) {
		assert.Equal(t, "User", service.ResolveDisplayName(nil, "ali@seecs.edu.pk"))
	})

	t.Run("PlaceholderInsteadOfAddress", func(t *testing.T) {
		unnamed := &model.Conversation{
			Participants: []model.Participant{
				{Address: "ali@seecs.edu.pk"},
				{Address: "zara@seecs.edu.pk"},
			},
		}
		got := service.ResolveDisplayName(unnamed, "ali@seecs.edu.pk")
		assert.Equal(t, "User", got)
		assert.NotContains(t, got, "@")
	})
}

func TestResolveTopic(t *testing.T) {
	t.Run("ItemTitleForListingChats", func(t *testing.T) {
		conv := &model.Conversation{
			SourceType: model.SourceListing,
			SourceName: "Casio FX-991 Calculator",
			Participants: []model.Participant{
				{Address: "ali@seecs.edu.pk", DisplayName: "Ali Raza"},
				{Address: "zara@seecs.edu.pk", DisplayName: "Zara Khan"},
			},
		}
		assert.Equal(t, "Casio FX-991 Calculator", service.ResolveTopic(conv, "zara@seecs.edu.pk"))
	})

	t.Run("CounterpartNameForDirectChats", func(t *testing.T) {
		conv := &model.Conversation{
			SourceType: model.SourceDirect,
			Participants: []model.Participant{
				{Address: "ali@seecs.edu.pk", DisplayName: "Ali Raza"},
				{Address: "zara@seecs.edu.pk", DisplayName: "Zara Khan"},
			},
		}
		assert.Equal(t, "Ali Raza", service.ResolveTopic(conv, "zara@seecs.edu.pk"))
	})
}
