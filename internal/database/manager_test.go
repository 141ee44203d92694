package database

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	dbconfig "campuswire/pkg/database"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := dbconfig.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")
	cfg.WriteRetryDelay = 0

	manager, err := NewManager(cfg, logs.GetLoggerFromLevel(slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

func seedDirectory(t *testing.T, m *Manager) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []Course{{ID: "cs101", Title: "Intro"}, {ID: "ma201", Title: "Algebra"}} {
		require.NoError(t, m.UpsertCourse(ctx, c))
	}
	identities := []types.Identity{
		{ID: "s1", Role: types.RoleStudent, Name: "Ada", Faculty: "Science", Department: "CS", Level: "L1", Active: true, Courses: []string{"cs101", "ma201"}, Clubs: []string{"chess"}},
		{ID: "s2", Role: types.RoleStudent, Name: "Bo", Faculty: "Science", Department: "Math", Level: "L2", Active: true, Courses: []string{"ma201"}},
		{ID: "s3", Role: types.RoleStudent, Name: "Cy", Faculty: "Arts", Department: "History", Level: "L1", Active: false, Courses: []string{"cs101"}},
		{ID: "p1", Role: types.RoleProfessor, Name: "Prof", Faculty: "Science", Department: "CS", Active: true},
	}
	for _, identity := range identities {
		require.NoError(t, m.UpsertIdentity(ctx, identity))
	}
}

func TestManager_FindIdentity(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	seedDirectory(t, m)
	ctx := context.Background()

	s1, err := m.FindIdentity(ctx, "s1")
	req.NoError(err)
	req.Equal(types.RoleStudent, s1.Role)
	req.True(s1.Active)
	req.Equal([]string{"cs101", "ma201"}, s1.Courses)
	req.Equal([]string{"chess"}, s1.Clubs)

	_, err = m.FindIdentity(ctx, "ghost")
	req.ErrorIs(err, interfaces.ErrIdentityNotFound)
}

func TestManager_UpsertIdentityReplacesMemberships(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	seedDirectory(t, m)
	ctx := context.Background()

	req.NoError(m.UpsertIdentity(ctx, types.Identity{ID: "s1", Role: types.RoleStudent, Active: true, Courses: []string{"cs101"}}))
	s1, err := m.FindIdentity(ctx, "s1")
	req.NoError(err)
	req.Equal([]string{"cs101"}, s1.Courses)
	req.Empty(s1.Clubs)

	err = m.UpsertIdentity(ctx, types.Identity{ID: "s9", Role: types.RoleStudent, Courses: []string{"nope"}})
	req.Error(err, "enrolling in an unknown course violates the foreign key")
	_, err = m.FindIdentity(ctx, "s9")
	req.ErrorIs(err, interfaces.ErrIdentityNotFound, "failed upsert leaves nothing behind")
}

func TestManager_AudienceQueries(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	seedDirectory(t, m)
	ctx := context.Background()

	active, err := m.ActiveStudents(ctx)
	req.NoError(err)
	req.Equal([]string{"s1", "s2"}, lo.Map(active, func(i types.Identity, _ int) string { return i.ID }))

	science, err := m.FindByAttribute(ctx, types.AttrFaculty, "Science")
	req.NoError(err)
	req.ElementsMatch([]string{"p1", "s1", "s2"}, lo.Map(science, func(i types.Identity, _ int) string { return i.ID }))

	_, err = m.FindByAttribute(ctx, types.Attribute("shoe_size"), "42")
	req.ErrorIs(err, ErrUnknownAttribute)

	roster, found, err := m.CourseRoster(ctx, "cs101")
	req.NoError(err)
	req.True(found)
	req.Equal([]string{"s1", "s3"}, roster, "rosters are not filtered by active flag")

	roster, found, err = m.CourseRoster(ctx, "zz999")
	req.NoError(err)
	req.False(found)
	req.Empty(roster)
}

func newRecord(recipient string, at time.Time) *types.NotificationRecord {
	sender := "p1"
	return &types.NotificationRecord{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Sender:    &sender,
		Type:      types.NotificationAnnouncement,
		Title:     "Exam moved",
		Body:      "Room B12",
		Priority:  types.PriorityHigh,
		Data:      json.RawMessage(`{"room":"B12"}`),
		CreatedAt: at,
	}
}

func TestManager_NotificationLifecycle(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	first := newRecord("s1", base)
	second := newRecord("s1", base.Add(time.Minute))
	second.Sender = nil
	second.Data = nil
	req.NoError(m.CreateOne(ctx, first))
	req.NoError(m.CreateMany(ctx, []*types.NotificationRecord{second, newRecord("s2", base)}))

	inbox, err := m.ListForRecipient(ctx, "s1", false, 0)
	req.NoError(err)
	req.Len(inbox, 2)
	req.Equal(second.ID, inbox[0].ID, "newest first")
	req.Nil(inbox[0].Sender)
	req.Nil(inbox[0].Data)
	req.Equal("p1", *inbox[1].Sender)
	req.JSONEq(`{"room":"B12"}`, string(inbox[1].Data))
	req.Equal(types.PriorityHigh, inbox[1].Priority)

	req.ErrorIs(m.MarkRead(ctx, first.ID, "s2"), interfaces.ErrNotificationNotFound)
	req.ErrorIs(m.MarkRead(ctx, "missing", "s1"), interfaces.ErrNotificationNotFound)
	req.NoError(m.MarkRead(ctx, first.ID, "s1"))
	req.NoError(m.MarkRead(ctx, first.ID, "s1"), "marking twice is fine")

	unread, err := m.ListForRecipient(ctx, "s1", true, 10)
	req.NoError(err)
	req.Len(unread, 1)
	req.Equal(second.ID, unread[0].ID)

	limited, err := m.ListForRecipient(ctx, "s1", false, 1)
	req.NoError(err)
	req.Len(limited, 1)

	purged, err := m.PurgeRead(ctx, time.Now().Add(-time.Hour))
	req.NoError(err)
	req.Zero(purged, "recently read records are kept")
	purged, err = m.PurgeRead(ctx, time.Now().Add(time.Hour))
	req.NoError(err)
	req.Equal(1, purged)
}

func TestManager_CreateManyIsAtomic(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	ctx := context.Background()
	at := time.Now().UTC()

	dup := newRecord("s1", at)
	batch := []*types.NotificationRecord{newRecord("s2", at), dup, dup}
	req.Error(m.CreateMany(ctx, batch))

	inbox, err := m.ListForRecipient(ctx, "s2", false, 0)
	req.NoError(err)
	req.Empty(inbox, "no row of a failed batch survives")
}

func TestManager_Messages(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	req.NoError(m.StoreMessage(ctx, &types.Message{ID: "m1", From: "s1", To: "s2", Body: "hi", CreatedAt: base}))
	req.NoError(m.StoreMessage(ctx, &types.Message{ID: "m2", From: "s2", To: "s1", Body: "yo", CreatedAt: base.Add(time.Second)}))
	req.NoError(m.StoreMessage(ctx, &types.Message{ID: "m3", From: "s3", To: "s2", Body: "hey", CreatedAt: base}))

	msgs, err := m.MessagesFor(ctx, "s1")
	req.NoError(err)
	req.Equal([]string{"m1", "m2"}, lo.Map(msgs, func(msg *types.Message, _ int) string { return msg.ID }))

	changed, err := m.MarkConversationRead(ctx, "s1", "s2")
	req.NoError(err)
	req.Equal(1, changed)
	msgs, err = m.MessagesFor(ctx, "s1")
	req.NoError(err)
	req.True(msgs[1].Read)
	req.False(msgs[0].Read, "own sent messages are untouched")
}

func TestManager_Assessments(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	ctx := context.Background()
	at := time.Now().UTC()

	a1 := &types.Assessment{ID: "a1", StudentID: "s1", CourseID: "cs101", Type: types.AssessmentLab, Score: 15, MaxScore: 20, Weight: 0.4, CreatedAt: at}
	a2 := &types.Assessment{ID: "a2", StudentID: "s1", CourseID: "cs101", Type: types.AssessmentFinalExam, Score: 60, MaxScore: 100, Weight: 0.6, CreatedAt: at.Add(time.Second)}
	req.NoError(m.StoreAssessment(ctx, a1))
	req.NoError(m.StoreAssessment(ctx, a2))
	req.Error(m.StoreAssessment(ctx, &types.Assessment{ID: "bad", StudentID: "s1", CourseID: "cs101", Type: types.AssessmentLab, MaxScore: 0, CreatedAt: at}))

	set, err := m.Assessments(ctx, "s1", "cs101")
	req.NoError(err)
	req.Len(set, 2)
	req.Equal(0.4, set[0].Weight)

	deleted, err := m.DeleteAssessment(ctx, "a1")
	req.NoError(err)
	req.Equal("s1", deleted.StudentID)
	_, err = m.DeleteAssessment(ctx, "a1")
	req.ErrorIs(err, interfaces.ErrAssessmentNotFound)

	set, err = m.Assessments(ctx, "s1", "cs101")
	req.NoError(err)
	req.Len(set, 1)
}

func TestManager_AttendanceUpsert(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	ctx := context.Background()
	morning := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

	req.NoError(m.StoreAttendance(ctx, []*types.AttendanceRecord{
		{StudentID: "s1", CourseID: "cs101", SessionDate: morning, Status: types.AttendanceAbsent, MarkedBy: "p1"},
		{StudentID: "s1", CourseID: "cs101", SessionDate: morning.AddDate(0, 0, 1), Status: types.AttendancePresent, MarkedBy: "p1"},
	}))
	req.NoError(m.StoreAttendance(ctx, []*types.AttendanceRecord{
		{StudentID: "s1", CourseID: "cs101", SessionDate: morning.Add(3 * time.Hour), Status: types.AttendanceExcused, MarkedBy: "p1"},
	}))

	records, err := m.Attendance(ctx, "s1", "cs101")
	req.NoError(err)
	req.Len(records, 2, "same day marks overwrite")
	req.Equal(types.AttendanceExcused, records[0].Status)
	req.True(records[0].SessionDate.Equal(SessionDay(morning)))
}

// FUNCTIONAL VALIDATION TEST: Startup refuses a database that lost an index
// after it was migrated
func TestNewManager_RejectsDriftedSchema(t *testing.T) {
	req := require.New(t)
	cfg := dbconfig.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "drifted.db")
	logger := logs.GetLoggerFromLevel(slog.LevelError)

	m, err := NewManager(cfg, logger)
	req.NoError(err)
	_, err = m.db.Exec("DROP INDEX idx_notifications_read_at")
	req.NoError(err)
	req.NoError(m.Close())

	_, err = NewManager(cfg, logger)
	req.ErrorContains(err, "database schema invalid")
	req.ErrorContains(err, "idx_notifications_read_at")
}

func TestManager_StoreAnnouncement(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()
	a := &types.Announcement{
		ID: "an1", Author: "p1", Type: types.NotificationAnnouncement, Title: "Welcome", Body: "Hello",
		Priority: types.PriorityNormal, Audience: []types.AudienceRule{types.AllStudents()}, CreatedAt: time.Now(),
	}
	require.NoError(t, m.StoreAnnouncement(ctx, a))
	require.Error(t, m.StoreAnnouncement(ctx, a), "duplicate id")

	var audience string
	require.NoError(t, m.db.Get(&audience, "SELECT audience FROM announcements WHERE id = ?", "an1"))
	require.JSONEq(t, `[{"kind":"all"}]`, audience)
}

func TestManager_ConcurrentWrites(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()
	at := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, m.CreateOne(ctx, newRecord("s1", at)))
		}()
	}
	wg.Wait()

	inbox, err := m.ListForRecipient(ctx, "s1", false, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 20)
}

func TestManager_ClosedRejectsWrites(t *testing.T) {
	m := setupTestManager(t)
	require.NoError(t, m.HealthCheck(context.Background()))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")
	require.ErrorIs(t, m.CreateOne(context.Background(), newRecord("s1", time.Now())), ErrManagerClosed)
}

func TestManager_CancelledWrite(t *testing.T) {
	m := setupTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.CreateOne(ctx, newRecord("s1", time.Now())), context.Canceled)
}

// FUNCTIONAL VALIDATION TEST: A write that committed is reported as committed
// even when its caller gave up while it was running
func TestManager_WriteOutcomeSurvivesCancellation(t *testing.T) {
	req := require.New(t)
	m := setupTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := m.executeWrite(ctx, func(db *sqlx.DB) error {
		cancel()
		_, err := db.Exec(`INSERT INTO courses (id, title) VALUES ('cs101', 'Intro')`)
		return err
	})
	req.NoError(err)

	var count int
	req.NoError(m.db.Get(&count, "SELECT COUNT(*) FROM courses WHERE id = 'cs101'"))
	req.Equal(1, count)
}

// FUNCTIONAL VALIDATION TEST: Writes queued before Close still get an answer
func TestManager_CloseAnswersQueuedWrites(t *testing.T) {
	m := setupTestManager(t)
	ctx := context.Background()
	release := make(chan struct{})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- m.executeWrite(ctx, func(*sqlx.DB) error {
			<-release
			return nil
		})
	}()
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.UpsertCourse(ctx, Course{ID: uuid.NewString(), Title: "queued"})
		}()
	}

	time.Sleep(20 * time.Millisecond)
	closed := make(chan error, 1)
	go func() { closed <- m.Close() }()
	close(release)

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrManagerClosed)
		}
	}
	require.NoError(t, <-closed)
}
