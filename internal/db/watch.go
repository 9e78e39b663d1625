package db

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Subscription is a long-lived watch on a filtered slice of a collection. It
// delivers the full current result set on every change, starting with an
// initial snapshot. The snapshot channel is conflated: when the receiver is
// slow, intermediate snapshots are replaced by the latest one rather than
// queued. Callers must Cancel when no longer observing.
type Subscription[T any] struct {
	snapshots chan []T
	cancel    context.CancelFunc
	once      sync.Once
}

// Snapshots returns the channel of full result-set snapshots. The channel is
// closed after Cancel or when the underlying change stream terminates.
func (s *Subscription[T]) Snapshots() <-chan []T {
	return s.snapshots
}

// Cancel releases the subscription and its change stream.
func (s *Subscription[T]) Cancel() {
	s.once.Do(s.cancel)
}

// NewSubscription wraps a caller-managed snapshot channel. Subscribe feeds one
// from a change stream; any other snapshot source can feed one directly.
func NewSubscription[T any](snapshots chan []T, cancel context.CancelFunc) *Subscription[T] {
	if cancel == nil {
		cancel = func() {}
	}
	return &Subscription[T]{
		snapshots: snapshots,
		cancel:    cancel,
	}
}

// Subscribe opens a change stream on the repository's collection and re-runs
// the filtered query on every mutation, pushing the full ordered result set to
// the subscription channel.
func (r *Repository[T]) Subscribe(ctx context.Context, filter bson.M, sortBy string, logger *zap.Logger) (*Subscription[T], error) {
	streamOpts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, mongo.Pipeline{}, streamOpts)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(make(chan []T, 1), cancel)

	go func() {
		defer close(sub.snapshots)
		defer stream.Close(context.Background())

		// initial snapshot before any change arrives
		if snap, err := r.FindAll(subCtx, filter, sortBy); err == nil {
			sub.push(snap)
		} else if subCtx.Err() == nil {
			logger.Warn("initial snapshot query failed", zap.Error(err))
		}

		for stream.Next(subCtx) {
			snap, err := r.FindAll(subCtx, filter, sortBy)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				logger.Warn("snapshot requery failed", zap.Error(err))
				continue
			}
			sub.push(snap)
		}

		if err := stream.Err(); err != nil && subCtx.Err() == nil {
			logger.Error("change stream terminated", zap.Error(err))
		}
	}()

	return sub, nil
}

// push replaces any undelivered snapshot with the latest one.
func (s *Subscription[T]) push(snap []T) {
	for {
		select {
		case s.snapshots <- snap:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}
