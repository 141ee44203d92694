package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"campuswire/internal/app"
	"campuswire/internal/auth"
	"campuswire/internal/config"
	"campuswire/internal/database"
	pkgdatabase "campuswire/pkg/database"
	"campuswire/pkg/types"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret-0123456789abcdef"

// campus is a running application with a seeded directory.
type campus struct {
	app    *app.Application
	signer *auth.Signer
	base   string
}

func professorID() *string {
	id := "p1"
	return &id
}

// seedDirectory writes the directory every scenario starts from.
func seedDirectory(t *testing.T, path string) {
	t.Helper()
	cfg := pkgdatabase.DefaultConfig()
	cfg.DatabasePath = path
	m, err := database.NewManager(cfg, logs.GetLoggerFromLevel(slog.LevelError))
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.UpsertIdentity(ctx, types.Identity{ID: "p1", Role: types.RoleProfessor, Name: "Prof. Okafor", Faculty: "Science", Active: true}))
	require.NoError(t, m.UpsertCourse(ctx, database.Course{ID: "cs101", Title: "Intro to CS", ProfessorID: professorID()}))
	require.NoError(t, m.UpsertCourse(ctx, database.Course{ID: "ma201", Title: "Algebra"}))
	for _, identity := range []types.Identity{
		{ID: "s1", Role: types.RoleStudent, Name: "Ada", Faculty: "Science", Department: "CS", Level: "L1", Active: true, Courses: []string{"cs101"}},
		{ID: "s2", Role: types.RoleStudent, Name: "Bo", Faculty: "Science", Department: "CS", Level: "L1", Active: true, Courses: []string{"cs101"}},
		{ID: "s3", Role: types.RoleStudent, Name: "Cy", Faculty: "Arts", Department: "History", Level: "L2", Active: true, Courses: []string{"ma201"}},
	} {
		require.NoError(t, m.UpsertIdentity(ctx, identity))
	}
}

func startCampus(t *testing.T, mutate func(*config.Config)) *campus {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "campus.db")
	seedDirectory(t, dbPath)

	cfg := config.DefaultConfig()
	cfg.Database.Path = dbPath
	cfg.Notifications.BadgerPath = filepath.Join(dir, "badger")
	cfg.Notifications.PurgeInterval = 0
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = 0
	cfg.Auth.Secret = testSecret
	cfg.LogLevel = "ERROR"
	if mutate != nil {
		mutate(cfg)
	}

	application, err := app.NewApplication(cfg, logs.GetLoggerFromLevel(slog.LevelError))
	require.NoError(t, err)
	require.NoError(t, application.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Stop(ctx)
	})

	signer, err := auth.NewSigner(testSecret, cfg.Auth.Issuer, time.Hour)
	require.NoError(t, err)
	return &campus{app: application, signer: signer, base: "http://" + application.GetAddr()}
}

func (c *campus) token(t *testing.T, id string, role types.Role) string {
	t.Helper()
	token, err := c.signer.Sign(id, role)
	require.NoError(t, err)
	return token
}

// call performs an API request and returns the status and body.
func (c *campus) call(t *testing.T, method, path, token, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, c.base+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func (c *campus) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+strings.TrimPrefix(c.base, "http://")+"/ws", header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

// connect dials and waits until the registry reports the identity online.
func (c *campus) connect(t *testing.T, id string, role types.Role) *websocket.Conn {
	t.Helper()
	conn, _, err := c.dial(t, c.token(t, id, role))
	require.NoError(t, err)
	observer := c.token(t, "p1", types.RoleProfessor)
	require.Eventually(t, func() bool { return c.online(observer, id) }, 2*time.Second, 10*time.Millisecond)
	return conn
}

// online asks the presence endpoint. It runs inside Eventually, so failures
// read as offline instead of failing the test.
func (c *campus) online(token, id string) bool {
	req, err := http.NewRequest(http.MethodGet, c.base+"/api/v1/presence/"+id, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	return err == nil && resp.StatusCode == http.StatusOK && strings.Contains(string(raw), `"online":true`)
}

// await reads frames until one with the wanted event arrives.
func await(t *testing.T, conn *websocket.Conn, event string) types.Frame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var frame types.Frame
		require.NoError(t, conn.ReadJSON(&frame), "waiting for %s", event)
		if frame.Event == event {
			return frame
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}
