package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound events
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound events
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one connected websocket. Every client observes its own inbox
// stream; a client that opened a conversation also observes that
// conversation's message stream. The engine assumes one active subscription
// per (conversation, client) pair.
type Client struct {
	ID             string
	userAddress    string
	displayName    string
	conversationID string

	conn    *websocket.Conn
	manager *Hub
	egress  chan event.WsEvent
	logger  *zap.Logger

	ctx            context.Context
	cancel         context.CancelFunc
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
}

// RegisterClient creates a client for one WebSocket connection and hands it to
// the hub. conversationID may be empty for inbox-only observers.
func RegisterClient(userAddress, displayName, conversationID string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		ID:             uuid.New().String(),
		userAddress:    userAddress,
		displayName:    displayName,
		conversationID: conversationID,
		conn:           conn,
		manager:        h,
		egress:         make(chan event.WsEvent, sendBufSize),
		logger:         h.logger,
		ctx:            ctx,
		cancel:         cancel,
		connClosed:     make(chan struct{}),
	}

	select {
	case h.register <- client:
		go client.readPump()
		go client.writePump()
		h.logger.Info("client registered",
			zap.String("client_id", client.ID),
			zap.String("user", userAddress),
			zap.String("conversation_id", conversationID),
		)
		return client
	case <-time.After(registerTimeout):
		h.logger.Warn("client registration timeout", zap.String("client_id", client.ID))
		cancel()
		conn.Close()
		return nil
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-time.After(unregisterTimeout):
			c.logger.Warn("client unregister timeout", zap.String("client_id", c.ID))
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent

			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.logger.Debug("client disconnected", zap.String("client_id", c.ID))
					return
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.logger.Debug("client timed out", zap.String("client_id", c.ID))
					return
				}

				c.logger.Warn("client read error", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

			// hand off without blocking the reader
			select {
			case c.manager.inbound <- inboundEvent{client: c, event: ev}:
			case <-time.After(inboundSendTimeout):
				c.logger.Warn("inbound queue full, dropping client", zap.String("client_id", c.ID))
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Warn("client write error", zap.String("client_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Send enqueues an outbound event, disconnecting the client if its egress
// stays full past the send timeout.
func (c *Client) Send(ev event.WsEvent) {
	select {
	case c.egress <- ev:
	case <-time.After(sendTimeout):
		c.logger.Warn("egress full, disconnecting client", zap.String("client_id", c.ID))
		select {
		case c.manager.unregister <- c:
		case <-time.After(unregisterTimeout):
		}
	case <-c.ctx.Done():
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		close(c.egress)

		// wait for writePump to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}
