package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/event"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"
	"github.com/AhmadJamshaid/nust-marketplace/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type inboundEvent struct {
	event  event.WsEvent
	client *Client
}

// Hub bridges websocket clients and the conversation engine. Each registered
// client gets a live inbox subscription and, when it opened a conversation,
// a conversation subscription; the hub forwards every store snapshot to the
// client in reconciled order. Inbound client events are sends and read marks,
// processed by a worker pool.
type Hub struct {
	chat   service.ChatService
	logger *zap.Logger

	clients   map[string]*Client
	clientsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	upgrader websocket.Upgrader

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(chat service.ChatService, allowedOrigins []string, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	h := &Hub{
		chat:       chat,
		logger:     logger,
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundEvent, 4096),
		ctx:        ctx,
		cancel:     cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}

	go h.run()

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c.ID] = c
	h.clientsMu.Unlock()

	go h.streamInbox(c)
	if c.conversationID != "" {
		go h.streamConversation(c)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()

	// cancels the client's subscriptions through its context
	c.Close()
	h.logger.Debug("client removed", zap.String("client_id", c.ID))
}

// streamInbox forwards the client's inbox snapshots until the client goes away.
func (h *Hub) streamInbox(c *Client) {
	sub, err := h.chat.SubscribeInbox(c.ctx, c.userAddress)
	if err != nil {
		h.sendError(c, "subscribe_failed", err)
		return
	}
	defer sub.Cancel()

	for {
		select {
		case <-c.ctx.Done():
			return
		case entries, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			payload, err := json.Marshal(entries)
			if err != nil {
				continue
			}
			c.Send(event.WsEvent{
				Event:   event.EventInboxSnapshot,
				Payload: payload,
			})
		}
	}
}

// streamConversation forwards the open conversation's message snapshots in
// reconciled order.
func (h *Hub) streamConversation(c *Client) {
	sub, err := h.chat.SubscribeConversation(c.ctx, c.conversationID)
	if err != nil {
		h.sendError(c, "subscribe_failed", err)
		return
	}
	defer sub.Cancel()

	for {
		select {
		case <-c.ctx.Done():
			return
		case msgs, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			payload, err := json.Marshal(service.OrderMessages(msgs))
			if err != nil {
				continue
			}
			c.Send(event.WsEvent{
				Event:          event.EventConversationSnapshot,
				ConversationID: c.conversationID,
				Payload:        payload,
			})
		}
	}
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	switch ev.Event {
	case event.EventClientMessage:
		var msg event.ClientMessage
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			h.sendError(c, "bad_payload", err)
			return
		}

		in := service.SendInput{
			Sender: model.Participant{
				Address:     c.userAddress,
				DisplayName: c.displayName,
			},
			Text:           msg.Text,
			ConversationID: msg.ConversationID,
		}
		if msg.ClientTimestamp > 0 {
			in.ClientTimestamp = time.UnixMilli(msg.ClientTimestamp).UTC()
		}

		_, err := h.chat.SendMessage(ctx, in)
		if err != nil {
			h.sendError(c, sendErrorCode(err), err)
		}

	case event.EventMarkRead:
		var mark event.MarkRead
		if err := json.Unmarshal(ev.Payload, &mark); err != nil {
			h.sendError(c, "bad_payload", err)
			return
		}
		if _, err := h.chat.MarkRead(ctx, mark.ConversationID, c.userAddress); err != nil {
			h.sendError(c, sendErrorCode(err), err)
		}

	default:
		h.logger.Warn("unknown event type", zap.String("event", ev.Event))
	}
}

func sendErrorCode(err error) string {
	switch {
	case errors.Is(err, repo.ErrEmptyText),
		errors.Is(err, repo.ErrInvalidConversationID),
		errors.Is(err, repo.ErrInvalidAddress):
		return "invalid_argument"
	case errors.Is(err, repo.ErrNotFound):
		return "not_found"
	case repo.IsTransient(err),
		errors.Is(err, repo.ErrOperationTimeout):
		return "store_unavailable"
	default:
		return "internal"
	}
}

func (h *Hub) sendError(c *Client, code string, err error) {
	payload, merr := json.Marshal(event.ErrorPayload{Code: code, Message: err.Error()})
	if merr != nil {
		return
	}
	c.Send(event.WsEvent{Event: event.EventError, Payload: payload})
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userAddress, displayName, conversationID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userAddress, displayName, conversationID, conn, h)
}

// Stop closes every client connection and drains the worker pool.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.RLock()
	for _, c := range h.clients {
		c.Close()
	}
	h.clientsMu.RUnlock()

	close(h.inbound)
	h.wg.Wait()
}
