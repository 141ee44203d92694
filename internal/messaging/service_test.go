package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"campuswire/internal/fanout"
	"campuswire/internal/mocks"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeNotifier struct {
	calls  []types.Notice
	report fanout.Report
	err    error
}

func (n *fakeNotifier) NotifyDirect(_ context.Context, _, to string, notice types.Notice) (fanout.Report, error) {
	notice.Recipient = to
	n.calls = append(n.calls, notice)
	return n.report, n.err
}

type roomRecorder struct{ rooms []string }

func (d *roomRecorder) Deliver(room, _ string, _ any) int {
	d.rooms = append(d.rooms, room)
	return 1
}

func newService(t *testing.T) (*Service, *mocks.MockMessageStore, *mocks.MockDirectory, *fakeNotifier, *roomRecorder) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	dir := mocks.NewMockDirectory(ctrl)
	notifier := &fakeNotifier{report: fanout.Report{Resolved: 1, Persisted: 1}}
	deliverer := &roomRecorder{}
	svc := NewService(store, dir, notifier, deliverer, logs.GetLoggerFromLevel(slog.LevelError))
	return svc, store, dir, notifier, deliverer
}

func TestService_Send(t *testing.T) {
	req := require.New(t)
	svc, store, dir, notifier, deliverer := newService(t)
	sender := types.Identity{ID: "s1", Name: "Amina", Role: types.RoleStudent}

	dir.EXPECT().FindIdentity(gomock.Any(), "s2").Return(types.Identity{ID: "s2"}, nil)
	store.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	msg, report, err := svc.Send(context.Background(), sender, "s2", strings.Repeat("a", 200))
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal("s1", msg.From)
	req.Equal(1, report.Persisted)
	req.Equal([]string{"user:s2", "user:s1"}, deliverer.rooms)

	req.Len(notifier.calls, 1)
	req.Equal("s2", notifier.calls[0].Recipient)
	req.Equal("New message from Amina", notifier.calls[0].Title)
	req.Equal(types.NotificationMessage, notifier.calls[0].Type)
	req.True(strings.HasSuffix(notifier.calls[0].Body, "…"))
}

func TestService_SendRejects(t *testing.T) {
	req := require.New(t)
	svc, _, dir, notifier, deliverer := newService(t)
	sender := types.Identity{ID: "s1"}

	_, _, err := svc.Send(context.Background(), sender, "s1", "hi")
	req.ErrorIs(err, ErrSelfMessage)

	_, _, err = svc.Send(context.Background(), sender, "s2", "")
	req.ErrorIs(err, types.ErrInvalidMessage)

	dir.EXPECT().FindIdentity(gomock.Any(), "ghost").Return(types.Identity{}, interfaces.ErrIdentityNotFound)
	_, _, err = svc.Send(context.Background(), sender, "ghost", "hi")
	req.ErrorIs(err, ErrRecipientNotFound)

	req.Empty(notifier.calls)
	req.Empty(deliverer.rooms)
}

func TestService_SendStoreFailureStopsFanout(t *testing.T) {
	svc, store, dir, notifier, deliverer := newService(t)
	dir.EXPECT().FindIdentity(gomock.Any(), "s2").Return(types.Identity{ID: "s2"}, nil)
	store.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(errors.New("locked"))

	msg, _, err := svc.Send(context.Background(), types.Identity{ID: "s1"}, "s2", "hi")
	require.Error(t, err)
	require.Nil(t, msg)
	require.Empty(t, notifier.calls)
	require.Empty(t, deliverer.rooms)
}

func TestService_SendPartialNotification(t *testing.T) {
	svc, store, dir, notifier, _ := newService(t)
	notifier.err = fanout.ErrPartialPersistence
	notifier.report = fanout.Report{Resolved: 1}
	dir.EXPECT().FindIdentity(gomock.Any(), "s2").Return(types.Identity{ID: "s2"}, nil)
	store.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil)

	msg, report, err := svc.Send(context.Background(), types.Identity{ID: "s1"}, "s2", "hi")
	require.ErrorIs(t, err, fanout.ErrPartialPersistence)
	require.NotNil(t, msg, "the message itself is kept")
	require.True(t, report.Degraded())
}

func TestService_Conversations(t *testing.T) {
	svc, store, _, _, _ := newService(t)
	store.EXPECT().MessagesFor(gomock.Any(), "me").Return([]*types.Message{
		{ID: "1", From: "ana", To: "me", Body: "hi"},
	}, nil)

	got, err := svc.Conversations(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].Unread)
}
