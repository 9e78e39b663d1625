package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"

	"go.uber.org/zap"
)

// SystemNoticeText is the fixed advisory appended after a conversation's first
// human message.
const SystemNoticeText = "🔔 Seller has been notified via WhatsApp!"

var (
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	ErrNoTarget         = errors.New("no conversation target: need a conversation id, a counterpart, or a catalog item")
)

// SourceRef identifies the catalog item a conversation is initiated from. The
// catalog boundary supplies the owner's address and display name.
type SourceRef struct {
	ID    string
	Type  string // model.SourceListing or model.SourceRequest
	Name  string
	Owner model.Participant
}

// SendInput carries one message send. Exactly one of ConversationID,
// Counterpart, or Source selects the target conversation. Sender comes from
// the authentication boundary and is trusted as-is.
type SendInput struct {
	Sender          model.Participant
	Text            string
	ClientTimestamp time.Time

	ConversationID string
	Counterpart    *model.Participant
	Source         *SourceRef
}

// OpenInput derives a conversation id without writing anything.
type OpenInput struct {
	Viewer      model.Participant
	Counterpart *model.Participant
	Source      *SourceRef
}

// OpenResult is the derived id plus any existing metadata.
type OpenResult struct {
	ConversationID string              `json:"conversationId"`
	Conversation   *model.Conversation `json:"conversation"`
}

type ChatService interface {
	SendMessage(ctx context.Context, in SendInput) (*model.Message, error)
	OpenConversation(ctx context.Context, in OpenInput) (*OpenResult, error)
	ConversationMessages(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error)
	MarkRead(ctx context.Context, conversationID, viewer string) (int64, error)
	DeleteForUser(ctx context.Context, conversationID, viewer string) error
	InboxSnapshot(ctx context.Context, viewer string) (map[string]model.InboxEntry, error)
	SubscribeInbox(ctx context.Context, viewer string) (*InboxSubscription, error)
	SubscribeConversation(ctx context.Context, conversationID string) (*db.Subscription[model.Message], error)
}

type chatService struct {
	messages      repo.MessageRepository
	conversations repo.ConversationRepository
	catalog       CatalogLookup
	logger        *zap.Logger
	now           func() time.Time
}

func NewChatService(
	messages repo.MessageRepository,
	conversations repo.ConversationRepository,
	catalog CatalogLookup,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		messages:      messages,
		conversations: conversations,
		catalog:       catalog,
		logger:        logger,
		now:           time.Now,
	}
}

// SendMessage appends one human message. Metadata is upserted first, so its
// existence is a precondition the log can rely on, and the upsert itself is
// what restores the conversation for anyone who soft-deleted it. When the
// conversation had no prior message, one system notice is appended right after
// the human message commits.
func (s *chatService) SendMessage(ctx context.Context, in SendInput) (*model.Message, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, repo.ErrEmptyText
	}
	if in.Sender.Address == "" {
		return nil, repo.ErrInvalidAddress
	}

	conv, err := s.resolveTarget(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.Upsert(ctx, conv); err != nil {
		return nil, err
	}

	count, err := s.messages.CountByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	first := count == 0

	clientTS := in.ClientTimestamp
	if clientTS.IsZero() {
		clientTS = s.now().UTC()
	}

	msg := &model.Message{
		ConversationID:  conv.ID,
		Sender:          in.Sender.Address,
		Text:            in.Text,
		ClientTimestamp: clientTS,
	}
	if _, err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}

	if first {
		s.injectSystemNotice(ctx, conv.ID, in.Sender.Address)
	}

	return msg, nil
}

// injectSystemNotice appends the one-time advisory. It runs in the same
// logical operation as the first human append; a failure here leaves the human
// message committed, so it is logged rather than failing the send.
func (s *chatService) injectSystemNotice(ctx context.Context, conversationID, triggeredBy string) {
	notice := &model.Message{
		ConversationID:  conversationID,
		Sender:          model.SystemSender,
		Text:            SystemNoticeText,
		ClientTimestamp: s.now().UTC(),
		TriggeredBy:     triggeredBy,
	}
	if _, err := s.messages.Insert(ctx, notice); err != nil {
		s.logger.Error("system notice append failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("system notice injected",
		zap.String("conversation_id", conversationID),
		zap.String("triggered_by", triggeredBy),
	)
}

// resolveTarget derives the conversation document the send lands in.
func (s *chatService) resolveTarget(ctx context.Context, in SendInput) (*model.Conversation, error) {
	switch {
	case in.Source != nil:
		return itemConversation(in.Source, in.Sender)

	case in.Counterpart != nil:
		if strings.EqualFold(in.Counterpart.Address, in.Sender.Address) {
			return nil, ErrSelfConversation
		}
		return directConversation(in.Sender, *in.Counterpart), nil

	case in.ConversationID != "":
		conv, err := s.conversations.Get(ctx, in.ConversationID)
		if err != nil {
			return nil, err
		}
		return conv, nil

	default:
		return nil, ErrNoTarget
	}
}

func itemConversation(src *SourceRef, sender model.Participant) (*model.Conversation, error) {
	if src.ID == "" {
		return nil, repo.ErrInvalidConversationID
	}
	if strings.EqualFold(src.Owner.Address, sender.Address) {
		return nil, ErrSelfConversation
	}

	ownerRole, senderRole := model.RoleOwner, model.RoleBuyer
	if src.Type == model.SourceRequest {
		ownerRole, senderRole = model.RolePoster, model.RoleMember
	}

	owner := src.Owner
	owner.Role = ownerRole
	actor := sender
	actor.Role = senderRole

	return &model.Conversation{
		ID:           ItemConversationID(src.ID, sender.Address),
		Participants: []model.Participant{owner, actor},
		SourceType:   src.Type,
		SourceName:   src.Name,
	}, nil
}

func directConversation(a, b model.Participant) *model.Conversation {
	a.Role = model.RoleMember
	b.Role = model.RoleMember
	return &model.Conversation{
		ID:           DirectConversationID(a.Address, b.Address),
		Participants: []model.Participant{a, b},
		SourceType:   model.SourceDirect,
	}
}

// OpenConversation derives the conversation id for a chat the viewer is about
// to enter and returns any existing metadata. Nothing is written; the
// conversation document is created lazily on first send.
func (s *chatService) OpenConversation(ctx context.Context, in OpenInput) (*OpenResult, error) {
	if in.Viewer.Address == "" {
		return nil, repo.ErrInvalidAddress
	}

	var id string
	switch {
	case in.Source != nil:
		if in.Source.ID == "" {
			return nil, repo.ErrInvalidConversationID
		}
		if strings.EqualFold(in.Source.Owner.Address, in.Viewer.Address) {
			return nil, ErrSelfConversation
		}
		id = ItemConversationID(in.Source.ID, in.Viewer.Address)
	case in.Counterpart != nil:
		if strings.EqualFold(in.Counterpart.Address, in.Viewer.Address) {
			return nil, ErrSelfConversation
		}
		id = DirectConversationID(in.Viewer.Address, in.Counterpart.Address)
	default:
		return nil, ErrNoTarget
	}

	conv, err := s.conversations.Get(ctx, id)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	return &OpenResult{ConversationID: id, Conversation: conv}, nil
}

// ConversationMessages returns one page of the conversation in reconciled
// presentation order.
func (s *chatService) ConversationMessages(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	result, err := s.messages.ListPage(ctx, conversationID, page)
	if err != nil {
		return nil, err
	}
	result.Data = OrderMessages(result.Data)
	return result, nil
}

// MarkRead flips every qualifying unread message in the conversation for the
// viewer. The viewer's own messages are never touched.
func (s *chatService) MarkRead(ctx context.Context, conversationID, viewer string) (int64, error) {
	return s.messages.MarkRead(ctx, conversationID, viewer)
}

// DeleteForUser hides the conversation from the viewer's inbox. Any new
// message from either party restores it; there is no permanent leave.
func (s *chatService) DeleteForUser(ctx context.Context, conversationID, viewer string) error {
	if viewer == "" {
		return repo.ErrInvalidAddress
	}
	return s.conversations.SoftDelete(ctx, conversationID, viewer)
}

// InboxSnapshot computes the viewer's inbox once, outside any subscription.
func (s *chatService) InboxSnapshot(ctx context.Context, viewer string) (map[string]model.InboxEntry, error) {
	if viewer == "" {
		return nil, repo.ErrInvalidAddress
	}

	msgs, err := s.messages.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("inbox snapshot: %w", err)
	}
	convs, err := s.conversations.ListForUser(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("inbox snapshot: %w", err)
	}

	return BuildInbox(ctx, msgs, convs, viewer, s.catalog), nil
}

// SubscribeConversation exposes the live message stream for one conversation.
// Snapshots arrive unordered from the store; callers present them through
// OrderMessages.
func (s *chatService) SubscribeConversation(ctx context.Context, conversationID string) (*db.Subscription[model.Message], error) {
	return s.messages.SubscribeConversation(ctx, conversationID)
}
