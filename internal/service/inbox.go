package service

import (
	"context"
	"strings"
	"sync"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"

	"go.uber.org/zap"
)

// legacyTopic labels conversations whose item can no longer be resolved.
const legacyTopic = "Unknown Item"

// CatalogLookup resolves a catalog item for the legacy relevance fallback.
// Satisfied by repo.CatalogRepository.
type CatalogLookup interface {
	GetItem(ctx context.Context, itemID string) (*model.CatalogItem, error)
}

// conversationInfo is the tagged metadata variant for one conversation:
// current stored metadata, a legacy catalog inference, or nothing at all.
type conversationInfo struct {
	conv *model.Conversation // infoCurrent
	item *model.CatalogItem  // infoLegacy
	kind infoKind
}

type infoKind int

const (
	infoNone infoKind = iota
	infoCurrent
	infoLegacy
)

// BuildInbox computes the per-user inbox view from a full message snapshot and
// the viewer's conversation metadata snapshot. Messages are grouped by
// conversation, filtered to those relevant to the viewer, conversations the
// viewer soft-deleted are dropped, and unread counts are computed with
// case-insensitive sender comparison. The catalog lookup is only consulted for
// conversations that predate metadata; new conversations always carry it.
func BuildInbox(
	ctx context.Context,
	msgs []model.Message,
	convs []model.Conversation,
	viewer string,
	catalog CatalogLookup,
) map[string]model.InboxEntry {
	metaByID := make(map[string]*model.Conversation, len(convs))
	for i := range convs {
		metaByID[convs[i].ID] = &convs[i]
	}

	groups := GroupBy(msgs, func(m model.Message) string { return m.ConversationID })

	entries := make(map[string]model.InboxEntry, len(groups))
	for convID, group := range groups {
		info := resolveInfo(ctx, convID, metaByID[convID], catalog)

		if !relevantTo(info, group, viewer) {
			continue
		}
		if info.kind == infoCurrent && info.conv.DeletedFor(viewer) {
			continue
		}

		ordered := OrderMessages(group)
		last := ordered[len(ordered)-1]

		unread := Filter(ordered, func(m model.Message) bool {
			return countsAsUnread(&m, viewer)
		})

		entry := model.InboxEntry{
			ConversationID: convID,
			Preview:        last.Text,
			UnreadCount:    len(unread),
			LastActivityAt: effectiveTimestamp(&last),
		}

		switch info.kind {
		case infoCurrent:
			entry.CounterpartName = ResolveDisplayName(info.conv, viewer)
			entry.Topic = ResolveTopic(info.conv, viewer)
			entry.LastActivityAt = info.conv.LastActivityAt
		case infoLegacy:
			entry.Topic = info.item.Name
			if strings.EqualFold(info.item.OwnerAddress, viewer) {
				entry.CounterpartName = PlaceholderName
			} else {
				entry.CounterpartName = info.item.OwnerName
			}
		default:
			entry.CounterpartName = PlaceholderName
			entry.Topic = legacyTopic
		}

		entries[convID] = entry
	}

	return entries
}

// countsAsUnread applies the unread rule: unread for the viewer means not yet
// read, not sent by the viewer, and for system notices, not triggered by the
// viewer's own first message.
func countsAsUnread(m *model.Message, viewer string) bool {
	if m.Read || m.SentBy(viewer) {
		return false
	}
	if m.FromSystem() && strings.EqualFold(m.TriggeredBy, viewer) {
		return false
	}
	return true
}

// relevantTo decides whether the viewer sees this conversation, matching over
// the metadata variant. The legacy branches only exist to tolerate data
// written before conversation metadata did.
func relevantTo(info conversationInfo, group []model.Message, viewer string) bool {
	switch info.kind {
	case infoCurrent:
		for _, p := range info.conv.Participants {
			if strings.EqualFold(p.Address, viewer) {
				return true
			}
		}
		return false
	case infoLegacy:
		if strings.EqualFold(info.item.OwnerAddress, viewer) {
			return true
		}
		return hasMessageFrom(group, viewer)
	default:
		return hasMessageFrom(group, viewer)
	}
}

func hasMessageFrom(group []model.Message, viewer string) bool {
	for _, m := range group {
		if m.SentBy(viewer) {
			return true
		}
	}
	return false
}

// resolveInfo classifies a conversation's metadata. Legacy conversation ids
// were bare catalog item ids, so the catalog is probed with the raw id and,
// failing that, with the prefix before the id separator.
func resolveInfo(ctx context.Context, convID string, conv *model.Conversation, catalog CatalogLookup) conversationInfo {
	if conv != nil {
		return conversationInfo{conv: conv, kind: infoCurrent}
	}
	if catalog == nil {
		return conversationInfo{kind: infoNone}
	}

	if item, err := catalog.GetItem(ctx, convID); err == nil && item != nil {
		return conversationInfo{item: item, kind: infoLegacy}
	}
	if idx := strings.Index(convID, IDSeparator); idx > 0 {
		if item, err := catalog.GetItem(ctx, convID[:idx]); err == nil && item != nil {
			return conversationInfo{item: item, kind: infoLegacy}
		}
	}
	return conversationInfo{kind: infoNone}
}

// -----------------------------------------------------------------------------
// Live inbox subscription
// -----------------------------------------------------------------------------

// InboxSubscription is a cancellable stream of inbox snapshots for one viewer.
type InboxSubscription struct {
	snapshots chan map[string]model.InboxEntry
	cancel    context.CancelFunc
	once      sync.Once
}

// Snapshots returns the conflated snapshot channel; it closes after Cancel.
func (s *InboxSubscription) Snapshots() <-chan map[string]model.InboxEntry {
	return s.snapshots
}

// Cancel releases both underlying store subscriptions.
func (s *InboxSubscription) Cancel() {
	s.once.Do(s.cancel)
}

// SubscribeInbox combines the global message stream with the viewer's
// conversation metadata stream and recomputes the inbox on every change from
// either side. Callers must Cancel on teardown.
func (s *chatService) SubscribeInbox(ctx context.Context, viewer string) (*InboxSubscription, error) {
	if viewer == "" {
		return nil, repo.ErrInvalidAddress
	}

	subCtx, cancel := context.WithCancel(ctx)

	msgSub, err := s.messages.SubscribeAll(subCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	convSub, err := s.conversations.SubscribeForUser(subCtx, viewer)
	if err != nil {
		msgSub.Cancel()
		cancel()
		return nil, err
	}

	sub := &InboxSubscription{
		snapshots: make(chan map[string]model.InboxEntry, 1),
		cancel: func() {
			msgSub.Cancel()
			convSub.Cancel()
			cancel()
		},
	}

	go s.runInboxLoop(subCtx, viewer, msgSub, convSub, sub)

	return sub, nil
}

func (s *chatService) runInboxLoop(
	ctx context.Context,
	viewer string,
	msgSub *db.Subscription[model.Message],
	convSub *db.Subscription[model.Conversation],
	out *InboxSubscription,
) {
	defer close(out.snapshots)

	var (
		msgs     []model.Message
		convs    []model.Conversation
		haveMsgs bool
	)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-msgSub.Snapshots():
			if !ok {
				return
			}
			msgs = snap
			haveMsgs = true
		case snap, ok := <-convSub.Snapshots():
			if !ok {
				return
			}
			convs = snap
		}

		// hold emission until the message stream has produced its first
		// snapshot; metadata alone yields an empty inbox
		if !haveMsgs {
			continue
		}

		entries := BuildInbox(ctx, msgs, convs, viewer, s.catalog)
		s.logger.Debug("inbox recomputed",
			zap.String("viewer", viewer),
			zap.Int("conversations", len(entries)),
		)

		select {
		case out.snapshots <- entries:
		default:
			select {
			case <-out.snapshots:
			default:
			}
			select {
			case out.snapshots <- entries:
			default:
			}
		}
	}
}
