package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"
	"github.com/AhmadJamshaid/nust-marketplace/internal/service"
)

type stubCatalog struct {
	items map[string]*model.CatalogItem
}

func (s stubCatalog) GetItem(_ context.Context, itemID string) (*model.CatalogItem, error) {
	if item, ok := s.items[itemID]; ok {
		return item, nil
	}
	return nil, repo.ErrNotFound
}

const (
	ali  = "ali@seecs.edu.pk"
	zara = "zara@seecs.edu.pk"
)

func listingConv(id string) model.Conversation {
	return model.Conversation{
		ID:         id,
		SourceType: model.SourceListing,
		SourceName: "Casio FX-991 Calculator",
		Participants: []model.Participant{
			{Address: zara, DisplayName: "Zara Khan", Role: model.RoleOwner},
			{Address: ali, DisplayName: "Ali Raza", Role: model.RoleBuyer},
		},
		LastActivityAt: cts(10),
	}
}

func TestBuildInbox(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstMessagePlusNoticeCountsTwoForCounterpartZeroForSender", func(t *testing.T) {
		convID := "item1_" + ali
		msgs := []model.Message{
			{ConversationID: convID, Sender: ali, Text: "Hi", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
			{ConversationID: convID, Sender: model.SystemSender, Text: service.SystemNoticeText,
				TriggeredBy: ali, ServerTimestamp: ts(2), ClientTimestamp: cts(2)},
		}
		convs := []model.Conversation{listingConv(convID)}

		forSeller := service.BuildInbox(ctx, msgs, convs, zara, nil)
		require.Contains(t, forSeller, convID)
		assert.Equal(t, 2, forSeller[convID].UnreadCount)

		forBuyer := service.BuildInbox(ctx, msgs, convs, ali, nil)
		require.Contains(t, forBuyer, convID)
		assert.Equal(t, 0, forBuyer[convID].UnreadCount)
	})

	t.Run("PreviewIsLatestMessageInReconciledOrder", func(t *testing.T) {
		convID := "item1_" + ali
		msgs := []model.Message{
			{ConversationID: convID, Sender: zara, Text: "newest", ServerTimestamp: ts(5), ClientTimestamp: cts(5)},
			{ConversationID: convID, Sender: ali, Text: "oldest", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}
		convs := []model.Conversation{listingConv(convID)}

		inbox := service.BuildInbox(ctx, msgs, convs, ali, nil)
		require.Contains(t, inbox, convID)
		assert.Equal(t, "newest", inbox[convID].Preview)
	})

	t.Run("UnreadSkipsReadAndOwnMessages", func(t *testing.T) {
		convID := "item1_" + ali
		msgs := []model.Message{
			{ConversationID: convID, Sender: zara, Text: "seen", Read: true, ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
			{ConversationID: convID, Sender: zara, Text: "new", ServerTimestamp: ts(2), ClientTimestamp: cts(2)},
			{ConversationID: convID, Sender: ali, Text: "mine", ServerTimestamp: ts(3), ClientTimestamp: cts(3)},
		}
		convs := []model.Conversation{listingConv(convID)}

		inbox := service.BuildInbox(ctx, msgs, convs, ali, nil)
		require.Contains(t, inbox, convID)
		assert.Equal(t, 1, inbox[convID].UnreadCount)
	})

	t.Run("UnreadComparesSendersCaseInsensitively", func(t *testing.T) {
		convID := "item1_" + ali
		msgs := []model.Message{
			{ConversationID: convID, Sender: "ALI@SEECS.EDU.PK", Text: "hi", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}
		convs := []model.Conversation{listingConv(convID)}

		inbox := service.BuildInbox(ctx, msgs, convs, ali, nil)
		require.Contains(t, inbox, convID)
		assert.Equal(t, 0, inbox[convID].UnreadCount)
	})

	t.Run("SoftDeletedConversationHiddenForDeleterOnly", func(t *testing.T) {
		convID := "item1_" + ali
		conv := listingConv(convID)
		conv.DeletedBy = []string{ali}
		msgs := []model.Message{
			{ConversationID: convID, Sender: zara, Text: "hello?", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}
		convs := []model.Conversation{conv}

		assert.NotContains(t, service.BuildInbox(ctx, msgs, convs, ali, nil), convID)
		assert.Contains(t, service.BuildInbox(ctx, msgs, convs, zara, nil), convID)
	})

	t.Run("NonParticipantExcluded", func(t *testing.T) {
		convID := "item1_" + ali
		msgs := []model.Message{
			{ConversationID: convID, Sender: ali, Text: "Hi", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}
		convs := []model.Conversation{listingConv(convID)}

		inbox := service.BuildInbox(ctx, msgs, convs, "hamza@seecs.edu.pk", nil)
		assert.Empty(t, inbox)
	})

	t.Run("CounterpartNameAndTopicFromMetadata", func(t *testing.T) {
		convID := "item1_" + ali
		msgs := []model.Message{
			{ConversationID: convID, Sender: ali, Text: "Hi", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}
		convs := []model.Conversation{listingConv(convID)}

		inbox := service.BuildInbox(ctx, msgs, convs, zara, nil)
		require.Contains(t, inbox, convID)
		assert.Equal(t, "Ali Raza", inbox[convID].CounterpartName)
		assert.Equal(t, "Casio FX-991 Calculator", inbox[convID].Topic)
	})

	t.Run("LegacyConversationResolvedThroughCatalogForItemOwner", func(t *testing.T) {
		// pre-metadata conversations used the bare item id; the owner never
		// sent a message here but must still see the chat
		catalog := stubCatalog{items: map[string]*model.CatalogItem{
			"item1": {ID: "item1", Name: "Old Bicycle", OwnerAddress: zara, OwnerName: "Zara Khan", Kind: model.CatalogListing},
		}}
		msgs := []model.Message{
			{ConversationID: "item1", Sender: ali, Text: "still available?", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}

		inbox := service.BuildInbox(ctx, msgs, nil, zara, catalog)
		require.Contains(t, inbox, "item1")
		assert.Equal(t, "Old Bicycle", inbox["item1"].Topic)
		assert.Equal(t, 1, inbox["item1"].UnreadCount)
	})

	t.Run("LegacyCatalogProbeStripsIDSuffix", func(t *testing.T) {
		catalog := stubCatalog{items: map[string]*model.CatalogItem{
			"item1": {ID: "item1", Name: "Old Bicycle", OwnerAddress: zara, OwnerName: "Zara Khan", Kind: model.CatalogListing},
		}}
		convID := "item1_" + ali
		msgs := []model.Message{
			{ConversationID: convID, Sender: ali, Text: "still available?", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}

		inbox := service.BuildInbox(ctx, msgs, nil, zara, catalog)
		require.Contains(t, inbox, convID)
		assert.Equal(t, "Old Bicycle", inbox[convID].Topic)
	})

	t.Run("NoMetadataNoCatalogFallsBackToSenderRelevance", func(t *testing.T) {
		msgs := []model.Message{
			{ConversationID: "orphan", Sender: ali, Text: "hello", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}

		forSender := service.BuildInbox(ctx, msgs, nil, ali, nil)
		require.Contains(t, forSender, "orphan")
		assert.Equal(t, "Unknown Item", forSender["orphan"].Topic)
		assert.Equal(t, "User", forSender["orphan"].CounterpartName)

		assert.Empty(t, service.BuildInbox(ctx, msgs, nil, zara, nil))
	})

	t.Run("GroupsMessagesAcrossConversations", func(t *testing.T) {
		convA := "item1_" + ali
		convB := service.DirectConversationID(ali, zara)
		direct := model.Conversation{
			ID:         convB,
			SourceType: model.SourceDirect,
			Participants: []model.Participant{
				{Address: ali, DisplayName: "Ali Raza", Role: model.RoleMember},
				{Address: zara, DisplayName: "Zara Khan", Role: model.RoleMember},
			},
			LastActivityAt: cts(20),
		}
		msgs := []model.Message{
			{ConversationID: convA, Sender: ali, Text: "about the calculator", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
			{ConversationID: convB, Sender: zara, Text: "hey", ServerTimestamp: ts(2), ClientTimestamp: cts(2)},
		}
		convs := []model.Conversation{listingConv(convA), direct}

		inbox := service.BuildInbox(ctx, msgs, convs, ali, nil)
		require.Len(t, inbox, 2)
		assert.Equal(t, 0, inbox[convA].UnreadCount)
		assert.Equal(t, 1, inbox[convB].UnreadCount)
	})

	t.Run("LastActivityFromMetadataWhenPresent", func(t *testing.T) {
		convID := "item1_" + ali
		conv := listingConv(convID)
		conv.LastActivityAt = time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
		msgs := []model.Message{
			{ConversationID: convID, Sender: ali, Text: "Hi", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}

		inbox := service.BuildInbox(ctx, msgs, []model.Conversation{conv}, zara, nil)
		require.Contains(t, inbox, convID)
		assert.Equal(t, conv.LastActivityAt, inbox[convID].LastActivityAt)
	})
}
