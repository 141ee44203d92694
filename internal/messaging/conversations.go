package messaging

import (
	"sort"

	"campuswire/pkg/types"

	"github.com/samber/lo"
)

// Conversation summarises the exchange between an identity and one
// counterpart.
type Conversation struct {
	Counterpart string         `json:"counterpart"`
	Latest      *types.Message `json:"latest"`
	Unread      int            `json:"unread"`
	Total       int            `json:"total"`
}

// Conversations folds the messages of identityID into one entry per
// counterpart, newest conversation first. Unread counts only messages
// received by identityID.
func Conversations(identityID string, messages []*types.Message) []Conversation {
	relevant := lo.Filter(messages, func(m *types.Message, _ int) bool {
		return m.From == identityID || m.To == identityID
	})
	grouped := lo.GroupBy(relevant, func(m *types.Message) string {
		if m.From == identityID {
			return m.To
		}
		return m.From
	})

	out := make([]Conversation, 0, len(grouped))
	for counterpart, thread := range grouped {
		latest := lo.MaxBy(thread, func(a, b *types.Message) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID > b.ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
		out = append(out, Conversation{
			Counterpart: counterpart,
			Latest:      latest,
			Unread: lo.CountBy(thread, func(m *types.Message) bool {
				return m.To == identityID && !m.Read
			}),
			Total: len(thread),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Latest, out[j].Latest
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return out[i].Counterpart < out[j].Counterpart
	})
	return out
}
