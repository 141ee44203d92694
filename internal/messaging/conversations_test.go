package messaging

import (
	"testing"
	"time"

	"campuswire/pkg/types"

	"github.com/stretchr/testify/require"
)

func TestConversations_Fold(t *testing.T) {
	req := require.New(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	messages := []*types.Message{
		{ID: "1", From: "me", To: "ana", Body: "hi", CreatedAt: at(0)},
		{ID: "2", From: "ana", To: "me", Body: "hey", CreatedAt: at(1)},
		{ID: "3", From: "ana", To: "me", Body: "you there?", CreatedAt: at(2)},
		{ID: "4", From: "bo", To: "me", Body: "lab?", Read: true, CreatedAt: at(5)},
		{ID: "5", From: "me", To: "cy", Body: "notes", CreatedAt: at(3)},
		{ID: "6", From: "ana", To: "bo", Body: "not mine", CreatedAt: at(9)},
	}

	got := Conversations("me", messages)
	req.Len(got, 3)

	req.Equal("bo", got[0].Counterpart)
	req.Equal("4", got[0].Latest.ID)
	req.Zero(got[0].Unread)

	req.Equal("cy", got[1].Counterpart)
	req.Zero(got[1].Unread, "own messages never count as unread")

	req.Equal("ana", got[2].Counterpart)
	req.Equal("3", got[2].Latest.ID)
	req.Equal(2, got[2].Unread)
	req.Equal(3, got[2].Total)
}

func TestConversations_Empty(t *testing.T) {
	require.Empty(t, Conversations("me", nil))
}
