package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/service"
)

func ts(sec int) *time.Time {
	t := time.Date(2026, 8, 1, 12, 0, sec, 0, time.UTC)
	return &t
}

func cts(sec int) time.Time {
	return time.Date(2026, 8, 1, 12, 0, sec, 0, time.UTC)
}

func TestOrderMessages(t *testing.T) {
	t.Run("SettledTimestampsWinRegardlessOfArrivalOrder", func(t *testing.T) {
		m1 := model.Message{Text: "first", ServerTimestamp: ts(1), ClientTimestamp: cts(9)}
		m2 := model.Message{Text: "second", ServerTimestamp: ts(2), ClientTimestamp: cts(0)}

		got := service.OrderMessages([]model.Message{m2, m1})
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Text)
		assert.Equal(t, "second", got[1].Text)

		// same result from the other arrival order
		again := service.OrderMessages([]model.Message{m1, m2})
		assert.Equal(t, got, again)
	})

	t.Run("ClientTimestampFallbackBeforeCommit", func(t *testing.T) {
		// two rapid sends, neither committed yet
		m1 := model.Message{Text: "hi", ClientTimestamp: cts(1)}
		m2 := model.Message{Text: "you there?", ClientTimestamp: cts(2)}

		got := service.OrderMessages([]model.Message{m2, m1})
		assert.Equal(t, "hi", got[0].Text)
		assert.Equal(t, "you there?", got[1].Text)
	})

	t.Run("NoReorderOnceServerTimestampsSettleInSameRelativeOrder", func(t *testing.T) {
		provisional := []model.Message{
			{Text: "hi", ClientTimestamp: cts(1)},
			{Text: "you there?", ClientTimestamp: cts(2)},
		}
		before := service.OrderMessages(provisional)

		settled := []model.Message{
			{Text: "hi", ServerTimestamp: ts(5), ClientTimestamp: cts(1)},
			{Text: "you there?", ServerTimestamp: ts(6), ClientTimestamp: cts(2)},
		}
		after := service.OrderMessages(settled)

		assert.Equal(t, before[0].Text, after[0].Text)
		assert.Equal(t, before[1].Text, after[1].Text)
	})

	t.Run("MixedSettledAndProvisional", func(t *testing.T) {
		committed := model.Message{Text: "committed", ServerTimestamp: ts(3), ClientTimestamp: cts(0)}
		inflight := model.Message{Text: "inflight", ClientTimestamp: cts(4)}

		got := service.OrderMessages([]model.Message{inflight, committed})
		assert.Equal(t, "committed", got[0].Text)
		assert.Equal(t, "inflight", got[1].Text)
	})

	t.Run("EqualTimestampsKeepInsertionOrder", func(t *testing.T) {
		m1 := model.Message{Text: "a", ServerTimestamp: ts(1), ClientTimestamp: cts(1)}
		m2 := model.Message{Text: "b", ServerTimestamp: ts(1), ClientTimestamp: cts(1)}

		got := service.OrderMessages([]model.Message{m1, m2})
		assert.Equal(t, "a", got[0].Text)
		assert.Equal(t, "b", got[1].Text)
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		input := []model.Message{
			{Text: "later", ServerTimestamp: ts(9), ClientTimestamp: cts(9)},
			{Text: "earlier", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
		}
		_ = service.OrderMessages(input)
		assert.Equal(t, "later", input[0].Text)
	})

	t.Run("IdempotentOnSortedInput", func(t *testing.T) {
		input := []model.Message{
			{Text: "1", ServerTimestamp: ts(1), ClientTimestamp: cts(1)},
			{Text: "2", ServerTimestamp: ts(2), ClientTimestamp: cts(2)},
			{Text: "3", ClientTimestamp: cts(3)},
		}
		once := service.OrderMessages(input)
		twice := service.OrderMessages(once)
		assert.Equal(t, once, twice)
	})
}
