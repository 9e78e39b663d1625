package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound              = errors.New("resource not found")
	ErrEmptyText             = errors.New("message text cannot be empty")
	ErrInvalidConversationID = errors.New("invalid conversation ID: cannot be empty")
	ErrInvalidAddress        = errors.New("invalid address: cannot be empty")
	ErrInvalidMessage        = errors.New("invalid message: message cannot be nil")
	ErrOperationTimeout      = errors.New("operation timeout exceeded")
)

// IsTransient reports whether err is a retryable store failure. The caller owns
// retry policy for anything beyond the bounded in-repo write retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
