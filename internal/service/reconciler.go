package service

import (
	"sort"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
)

// OrderMessages produces the stable presentation order for one conversation's
// live message set. Two messages are compared by server timestamp when both
// carry one; a message still waiting for its store commit is compared by its
// client timestamp instead. A client timestamp never overrides a settled
// server timestamp, so once every timestamp has settled all subscribers
// converge on the same order. Equal stamps keep input order. The input slice
// is not mutated.
func OrderMessages(msgs []model.Message) []model.Message {
	ordered := make([]model.Message, len(msgs))
	copy(ordered, msgs)

	sort.SliceStable(ordered, func(i, j int) bool {
		return effectiveTimestamp(&ordered[i]).Before(effectiveTimestamp(&ordered[j]))
	})
	return ordered
}

func effectiveTimestamp(m *model.Message) time.Time {
	if m.ServerTimestamp != nil {
		return *m.ServerTimestamp
	}
	return m.ClientTimestamp
}
