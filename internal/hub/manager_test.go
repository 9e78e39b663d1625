package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
	"github.com/AhmadJamshaid/nust-marketplace/internal/event"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/service"
)

type chatStub struct {
	sent   []service.SendInput
	marked []string
}

func (s *chatStub) SendMessage(_ context.Context, in service.SendInput) (*model.Message, error) {
	s.sent = append(s.sent, in)
	return &model.Message{}, nil
}

func (s *chatStub) OpenConversation(context.Context, service.OpenInput) (*service.OpenResult, error) {
	return nil, nil
}

func (s *chatStub) ConversationMessages(context.Context, string, int64) (*db.PaginatedResult[model.Message], error) {
	return nil, nil
}

func (s *chatStub) MarkRead(_ context.Context, conversationID, _ string) (int64, error) {
	s.marked = append(s.marked, conversationID)
	return 0, nil
}

func (s *chatStub) DeleteForUser(context.Context, string, string) error { return nil }

func (s *chatStub) InboxSnapshot(context.Context, string) (map[string]model.InboxEntry, error) {
	return nil, nil
}

func (s *chatStub) SubscribeInbox(context.Context, string) (*service.InboxSubscription, error) {
	return nil, nil
}

func (s *chatStub) SubscribeConversation(context.Context, string) (*db.Subscription[model.Message], error) {
	return nil, nil
}

func newTestHub(t *testing.T, stub *chatStub) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &Hub{
		chat:   stub,
		logger: zap.NewNop(),
		ctx:    ctx,
		cancel: cancel,
	}
}

func TestHandleEvent_ClientMessage(t *testing.T) {
	client := &Client{
		userAddress: "ali@seecs.edu.pk",
		displayName: "Ali Raza",
		ctx:         context.Background(),
	}

	t.Run("CarriesClientTimestamp", func(t *testing.T) {
		stub := &chatStub{}
		h := newTestHub(t, stub)

		stamp := int64(1756500000000)
		payload, err := json.Marshal(event.ClientMessage{
			ConversationID:  "conv",
			Text:            "hi",
			ClientTimestamp: stamp,
		})
		require.NoError(t, err)

		h.handleEvent(event.WsEvent{Event: event.EventClientMessage, Payload: payload}, client)

		require.Len(t, stub.sent, 1)
		assert.Equal(t, "ali@seecs.edu.pk", stub.sent[0].Sender.Address)
		assert.Equal(t, "Ali Raza", stub.sent[0].Sender.DisplayName)
		assert.Equal(t, time.UnixMilli(stamp).UTC(), stub.sent[0].ClientTimestamp)
	})

	t.Run("OmittedTimestampLeftZeroForServerFallback", func(t *testing.T) {
		stub := &chatStub{}
		h := newTestHub(t, stub)

		payload, err := json.Marshal(event.ClientMessage{
			ConversationID: "conv",
			Text:           "hi",
		})
		require.NoError(t, err)

		h.handleEvent(event.WsEvent{Event: event.EventClientMessage, Payload: payload}, client)

		require.Len(t, stub.sent, 1)
		assert.True(t, stub.sent[0].ClientTimestamp.IsZero())
	})
}

func TestHandleEvent_MarkRead(t *testing.T) {
	stub := &chatStub{}
	h := newTestHub(t, stub)
	client := &Client{userAddress: "ali@seecs.edu.pk", ctx: context.Background()}

	payload, err := json.Marshal(event.MarkRead{ConversationID: "conv"})
	require.NoError(t, err)

	h.handleEvent(event.WsEvent{Event: event.EventMarkRead, Payload: payload}, client)

	assert.Equal(t, []string{"conv"}, stub.marked)
}
