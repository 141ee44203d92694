package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"campuswire/internal/audience"
	"campuswire/internal/mocks"
	"campuswire/internal/presence"
	"campuswire/pkg/types"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type liveConn struct {
	id     string
	mu     sync.Mutex
	frames int
}

func (c *liveConn) ID() string            { return c.id }
func (c *liveConn) Close() error          { return nil }
func (c *liveConn) Done() <-chan struct{} { return nil }

func (c *liveConn) Send([]byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	return true
}

// countingDeliverer records every room a delivery was attempted for.
type countingDeliverer struct {
	online   map[string]int
	attempts []string
}

func (d *countingDeliverer) Deliver(room, _ string, _ any) int {
	d.attempts = append(d.attempts, room)
	return d.online[room]
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func notice() types.Notice {
	return types.Notice{Type: types.NotificationAnnouncement, Title: "Midterm moved"}
}

func TestEngine_CourseAudienceScenario(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockDirectory(ctrl)
	store := mocks.NewMockNotificationStore(ctrl)

	dir.EXPECT().CourseRoster(gomock.Any(), "cs101").Return([]string{"s1", "s2", "s3"}, true, nil)

	var written []*types.NotificationRecord
	store.EXPECT().CreateMany(gomock.Any(), gomock.Len(3)).
		DoAndReturn(func(_ context.Context, records []*types.NotificationRecord) error {
			written = records
			return nil
		}).Times(1)

	registry := presence.NewRegistry(nil, testLogger())
	online := &liveConn{id: "c-s2"}
	registry.Register(types.Identity{ID: "s2", Role: types.RoleStudent}, online)

	engine := NewEngine(audience.NewResolver(dir), registry, store, 0, testLogger())
	report, err := engine.NotifyAudience(context.Background(), "prof", notice(), types.CourseRule("cs101"))
	req.NoError(err)
	req.Equal(Report{Resolved: 3, Persisted: 3, Delivered: 1}, report)
	req.False(report.Degraded())
	req.Equal(1, online.frames)

	recipients := make([]string, 0, len(written))
	for _, r := range written {
		recipients = append(recipients, r.Recipient)
		req.Equal("prof", *r.Sender)
		req.Equal(types.PriorityNormal, r.Priority)
		req.NotEmpty(r.ID)
		req.False(r.Read)
	}
	req.ElementsMatch([]string{"s1", "s2", "s3"}, recipients)
}

func TestEngine_OverlappingRulesNotifyOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockDirectory(ctrl)
	store := mocks.NewMockNotificationStore(ctrl)

	x := types.Identity{ID: "x", Role: types.RoleStudent, Active: true, Faculty: "CS", Level: "L3"}
	dir.EXPECT().FindByAttribute(gomock.Any(), types.AttrFaculty, "CS").Return([]types.Identity{x}, nil)
	dir.EXPECT().FindByAttribute(gomock.Any(), types.AttrLevel, "L3").Return([]types.Identity{x}, nil)
	store.EXPECT().CreateMany(gomock.Any(), gomock.Len(1)).Return(nil)

	deliverer := &countingDeliverer{}
	engine := NewEngine(audience.NewResolver(dir), deliverer, store, 0, testLogger())
	report, err := engine.NotifyAudience(context.Background(), "prof", notice(), types.FacultyRule("CS"), types.LevelRule("L3"))
	req.NoError(err)
	req.Equal(1, report.Resolved)
	req.Equal([]string{"user:x"}, deliverer.attempts)
}

func TestEngine_BatchesBulkWrites(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockDirectory(ctrl)
	store := mocks.NewMockNotificationStore(ctrl)

	students := make([]types.Identity, 0, 7)
	for i := 0; i < 7; i++ {
		students = append(students, types.Identity{ID: fmt.Sprintf("s%d", i), Role: types.RoleStudent, Active: true})
	}
	dir.EXPECT().ActiveStudents(gomock.Any()).Return(students, nil)
	gomock.InOrder(
		store.EXPECT().CreateMany(gomock.Any(), gomock.Len(3)).Return(nil),
		store.EXPECT().CreateMany(gomock.Any(), gomock.Len(3)).Return(errors.New("disk full")),
		store.EXPECT().CreateMany(gomock.Any(), gomock.Len(1)).Return(nil),
	)

	deliverer := &countingDeliverer{}
	engine := NewEngine(audience.NewResolver(dir), deliverer, store, 3, testLogger())
	report, err := engine.NotifyAudience(context.Background(), "admin", notice(), types.AllStudents())
	req.ErrorIs(err, ErrPartialPersistence)
	req.ErrorContains(err, "disk full")
	req.Equal(Report{Resolved: 7, Persisted: 4, Delivered: 0}, report)
	req.True(report.Degraded())
	req.Len(deliverer.attempts, 7, "live delivery is attempted for every recipient regardless of persistence")
}

func TestEngine_EmptyAudience(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockDirectory(ctrl)
	store := mocks.NewMockNotificationStore(ctrl)
	dir.EXPECT().CourseRoster(gomock.Any(), "deleted").Return(nil, false, nil)

	engine := NewEngine(audience.NewResolver(dir), &countingDeliverer{}, store, 0, testLogger())
	report, err := engine.NotifyAudience(context.Background(), "prof", notice(), types.CourseRule("deleted"))
	require.NoError(t, err)
	require.Equal(t, Report{}, report)
}

func TestEngine_AudienceErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockDirectory(ctrl)
	store := mocks.NewMockNotificationStore(ctrl)
	engine := NewEngine(audience.NewResolver(dir), &countingDeliverer{}, store, 0, testLogger())

	_, err := engine.NotifyAudience(context.Background(), "prof", notice())
	require.ErrorIs(t, err, ErrNoAudience)

	_, err = engine.NotifyAudience(context.Background(), "prof", types.Notice{Type: "announcement"}, types.AllStudents())
	require.ErrorIs(t, err, types.ErrInvalidNotice)

	dir.EXPECT().ActiveStudents(gomock.Any()).Return(nil, errors.New("timeout"))
	_, err = engine.NotifyAudience(context.Background(), "prof", notice(), types.AllStudents())
	require.ErrorIs(t, err, ErrResolution)
}

func TestEngine_NotifyDirect(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockNotificationStore(ctrl)

	store.EXPECT().CreateOne(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *types.NotificationRecord) error {
			req.Equal("s1", r.Recipient)
			req.Nil(r.Sender, "system notices carry no sender")
			req.Equal(types.NotificationGrade, r.Type)
			return nil
		})

	deliverer := &countingDeliverer{}
	engine := NewEngine(nil, deliverer, store, 0, testLogger())
	report, err := engine.NotifyDirect(context.Background(), "", "s1",
		types.Notice{Type: types.NotificationGrade, Title: "New grade"})
	req.NoError(err)
	req.Equal(Report{Resolved: 1, Persisted: 1}, report)
	req.Equal([]string{"user:s1"}, deliverer.attempts)
}

func TestEngine_NotifyDirectPersistenceFailureStillDelivers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockNotificationStore(ctrl)
	store.EXPECT().CreateOne(gomock.Any(), gomock.Any()).Return(errors.New("locked"))

	deliverer := &countingDeliverer{online: map[string]int{"user:s1": 2}}
	engine := NewEngine(nil, deliverer, store, 0, testLogger())
	report, err := engine.NotifyDirect(context.Background(), "p1", "s1", notice())
	req.ErrorIs(err, ErrPartialPersistence)
	req.Equal(Report{Resolved: 1, Persisted: 0, Delivered: 1}, report)
}

func TestEngine_NotifyDirectRejectsBadRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := NewEngine(nil, &countingDeliverer{}, mocks.NewMockNotificationStore(ctrl), 0, testLogger())
	_, err := engine.NotifyDirect(context.Background(), "p1", "not valid!", notice())
	require.ErrorIs(t, err, types.ErrInvalidUserID)
}

func TestEngine_NotifyEach(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockNotificationStore(ctrl)
	store.EXPECT().CreateMany(gomock.Any(), gomock.Len(2)).
		DoAndReturn(func(_ context.Context, records []*types.NotificationRecord) error {
			req.Equal("s1", records[0].Recipient)
			req.Equal("Absent in cs101", records[0].Title)
			req.Equal("s2", records[1].Recipient)
			return nil
		})

	deliverer := &countingDeliverer{online: map[string]int{"user:s2": 1}}
	engine := NewEngine(nil, deliverer, store, 0, testLogger())
	report, err := engine.NotifyEach(context.Background(), "p1", []types.Notice{
		{Recipient: "s1", Type: types.NotificationAttendance, Title: "Absent in cs101"},
		{Recipient: "s2", Type: types.NotificationAttendance, Title: "Late in cs101"},
	})
	req.NoError(err)
	req.Equal(Report{Resolved: 2, Persisted: 2, Delivered: 1}, report)

	_, err = engine.NotifyEach(context.Background(), "p1", []types.Notice{{Type: types.NotificationAttendance, Title: "x"}})
	req.ErrorIs(err, types.ErrInvalidUserID)
}
