package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type conversationRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

type ConversationRepository interface {
	Upsert(ctx context.Context, conv *model.Conversation) error
	Get(ctx context.Context, conversationID string) (*model.Conversation, error)
	ListForUser(ctx context.Context, address string) ([]model.Conversation, error)
	SoftDelete(ctx context.Context, conversationID, address string) error
	SubscribeForUser(ctx context.Context, address string) (*db.Subscription[model.Conversation], error)
}

func NewConversationRepository(con *mongo.Database, repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

// Upsert writes the conversation metadata document, creating it when absent.
// Every call bumps last_activity_at and clears deleted_by unconditionally:
// new activity must make the conversation visible again to anyone who hid it.
// Repeated calls with identical data are safe.
func (r *conversationRepository) Upsert(ctx context.Context, conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return ErrInvalidConversationID
	}
	if len(conv.Participants) == 0 {
		return ErrInvalidAddress
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := db.NewFilter().Eq("_id", conv.ID).Build()
	update := bson.M{
		"$set": bson.M{
			"participants":     conv.Participants,
			"source_type":      conv.SourceType,
			"source_name":      conv.SourceName,
			"last_activity_at": now,
			"deleted_by":       []string{},
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	result, err := r.mongoRepo.Upsert(ctx, filter, update)
	if err != nil {
		r.logger.Error("conversation upsert failed",
			zap.String("conversation_id", conv.ID),
			zap.Error(err),
		)
		return fmt.Errorf("upsert conversation failed: %w", err)
	}

	conv.LastActivityAt = now
	conv.DeletedBy = []string{}

	r.logger.Debug("conversation upserted",
		zap.String("conversation_id", conv.ID),
		zap.Bool("created", result.UpsertedCount > 0),
	)
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("_id", conversationID).Build()
	conv, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch conversation failed: %w", err)
	}
	return conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, address string) ([]model.Conversation, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := r.userFilter(address)
	convs, err := r.mongoRepo.FindAll(ctx, filter, "last_activity_at")
	if err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return convs, nil
}

// SoftDelete hides the conversation from address's inbox. The message log is
// untouched; the next Upsert clears the flag again.
func (r *conversationRepository) SoftDelete(ctx context.Context, conversationID, address string) error {
	if conversationID == "" {
		return ErrInvalidConversationID
	}
	if address == "" {
		return ErrInvalidAddress
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("_id", conversationID).Build()
	update := bson.M{"$addToSet": bson.M{"deleted_by": address}}

	result, err := r.mongoRepo.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("soft delete failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	r.logger.Info("conversation soft-deleted",
		zap.String("conversation_id", conversationID),
		zap.String("address", address),
	)
	return nil
}

func (r *conversationRepository) SubscribeForUser(ctx context.Context, address string) (*db.Subscription[model.Conversation], error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}
	return r.mongoRepo.Subscribe(ctx, r.userFilter(address), "last_activity_at", r.logger)
}

func (r *conversationRepository) userFilter(address string) bson.M {
	return db.NewFilter().
		ElemMatch("participants", bson.M{"address": address}).
		Build()
}

func (r *conversationRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
