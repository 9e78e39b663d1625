package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	messagePageSize = 25
)

type messageRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (string, error)
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
	ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error)
	ListAll(ctx context.Context) ([]model.Message, error)
	ListPage(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error)
	MarkRead(ctx context.Context, conversationID, viewer string) (int64, error)
	SubscribeConversation(ctx context.Context, conversationID string) (*db.Subscription[model.Message], error)
	SubscribeAll(ctx context.Context) (*db.Subscription[model.Message], error)
}

func NewMessageRepository(con *mongo.Database, repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// Insert
// -----------------------------------------------------------------------------

// Insert commits one message document. The authoritative server timestamp is
// stamped here, at commit time; the client timestamp the message arrived with
// is left untouched. The write is attempted exactly once: after a lost ack the
// server may already have applied the insert, and re-sending would duplicate
// the append, so retry policy stays with the caller.
func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (string, error) {
	if err := m.validateMessage(msg); err != nil {
		return "", err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	stamped := *msg
	now := time.Now().UTC()
	stamped.ServerTimestamp = &now
	stamped.Read = false

	result, err := m.mongoRepo.Create(ctx, stamped)
	if err != nil {
		m.logger.Error("failed to insert message",
			zap.Error(err),
			zap.String("conversation_id", msg.ConversationID),
			zap.Bool("transient", IsTransient(err)),
		)
		return "", fmt.Errorf("insert message failed: %w", err)
	}

	insertedID := ""
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		insertedID = oid.Hex()
		msg.ID = oid
	}
	msg.ServerTimestamp = stamped.ServerTimestamp
	msg.Read = false

	m.logger.Info("message inserted",
		zap.String("inserted_id", insertedID),
		zap.String("conversation_id", msg.ConversationID),
	)
	return insertedID, nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (m *messageRepository) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	if err := m.validateConversationID(conversationID); err != nil {
		return 0, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("conversation_id", conversationID).Build()
	count, err := m.mongoRepo.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count messages failed: %w", err)
	}
	return count, nil
}

func (m *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	if err := m.validateConversationID(conversationID); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("conversation_id", conversationID).Build()
	msgs, err := m.mongoRepo.FindAll(ctx, filter, "server_timestamp")
	if err != nil {
		return nil, m.handleReadError(err, conversationID)
	}
	return msgs, nil
}

// ListAll returns the global message stream, the inbox aggregator's input.
func (m *messageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msgs, err := m.mongoRepo.FindAll(ctx, db.Empty(), "server_timestamp")
	if err != nil {
		return nil, fmt.Errorf("list all messages failed: %w", err)
	}
	return msgs, nil
}

func (m *messageRepository) ListPage(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if err := m.validateConversationID(conversationID); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("conversation_id", conversationID).Build()

	result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
		Page:     page,
		PageSize: messagePageSize,
		SortBy:   "server_timestamp",
		SortDesc: false,
	})
	if err != nil {
		return nil, m.handleReadError(err, conversationID)
	}

	m.logger.Debug("messages page fetched",
		zap.String("conversation_id", conversationID),
		zap.Int("count", len(result.Data)),
		zap.Int64("total", result.Total),
	)
	return result, nil
}

// -----------------------------------------------------------------------------
// MarkRead
// -----------------------------------------------------------------------------

// MarkRead flips read on every unread message in the conversation that the
// viewer did not send and did not trigger, in one batch. Sender comparison is
// case-insensitive, which MongoDB equality is not, so qualification happens
// here and the flip targets the matched ids. An id that matches no messages is
// an idempotent no-op, not a not-found error; the caller cannot know whether
// anything qualifies before asking.
func (m *messageRepository) MarkRead(ctx context.Context, conversationID, viewer string) (int64, error) {
	if err := m.validateConversationID(conversationID); err != nil {
		return 0, err
	}
	if viewer == "" {
		return 0, ErrInvalidAddress
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("conversation_id", conversationID).
		Eq("read", false).
		Build()

	unread, err := m.mongoRepo.FindAll(ctx, filter, "")
	if err != nil {
		return 0, m.handleReadError(err, conversationID)
	}

	ids := make([]primitive.ObjectID, 0, len(unread))
	for _, msg := range unread {
		if msg.SentBy(viewer) {
			continue
		}
		if msg.FromSystem() && strings.EqualFold(msg.TriggeredBy, viewer) {
			continue
		}
		ids = append(ids, msg.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	batch := db.NewFilter().InObjectIDs("_id", ids).Build()
	result, err := m.mongoRepo.UpdateMany(ctx, batch, map[string]interface{}{"read": true})
	if err != nil {
		return 0, fmt.Errorf("mark read failed: %w", err)
	}

	m.logger.Info("messages marked read",
		zap.String("conversation_id", conversationID),
		zap.String("viewer", viewer),
		zap.Int64("count", result.ModifiedCount),
	)
	return result.ModifiedCount, nil
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

func (m *messageRepository) SubscribeConversation(ctx context.Context, conversationID string) (*db.Subscription[model.Message], error) {
	if err := m.validateConversationID(conversationID); err != nil {
		return nil, err
	}
	filter := db.NewFilter().Eq("conversation_id", conversationID).Build()
	return m.mongoRepo.Subscribe(ctx, filter, "server_timestamp", m.logger)
}

func (m *messageRepository) SubscribeAll(ctx context.Context) (*db.Subscription[model.Message], error) {
	return m.mongoRepo.Subscribe(ctx, db.Empty(), "server_timestamp", m.logger)
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) validateMessage(msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.ConversationID == "" {
		return ErrInvalidConversationID
	}
	if strings.TrimSpace(msg.Text) == "" {
		return ErrEmptyText
	}
	if msg.Sender == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (m *messageRepository) validateConversationID(conversationID string) error {
	if conversationID == "" {
		return ErrInvalidConversationID
	}
	return nil
}

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) handleReadError(err error, conversationID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("conversation_id", conversationID))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("conversation_id", conversationID))
		return err
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("conversation_id", conversationID))
	return fmt.Errorf("list messages failed: %w", err)
}
