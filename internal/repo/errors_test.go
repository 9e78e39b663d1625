package repo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"
)

func TestIsTransient(t *testing.T) {
	t.Run("NilIsNotTransient", func(t *testing.T) {
		assert.False(t, repo.IsTransient(nil))
	})

	t.Run("ContextErrorsAreNotTransient", func(t *testing.T) {
		assert.False(t, repo.IsTransient(context.Canceled))
		assert.False(t, repo.IsTransient(context.DeadlineExceeded))
		assert.False(t, repo.IsTransient(fmt.Errorf("wrapped: %w", context.Canceled)))
	})

	t.Run("DomainErrorsAreNotTransient", func(t *testing.T) {
		assert.False(t, repo.IsTransient(repo.ErrNotFound))
		assert.False(t, repo.IsTransient(repo.ErrEmptyText))
		assert.False(t, repo.IsTransient(errors.New("duplicate key")))
	})

	t.Run("NetworkLabelledErrorsAreTransient", func(t *testing.T) {
		err := mongo.CommandError{Labels: []string{"NetworkError"}}
		assert.True(t, repo.IsTransient(err))
	})
}
