package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"campuswire/internal/mocks"
	"campuswire/internal/presence"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	frames []string
	err    error
}

func (d *recordingDispatcher) Dispatch(_ string, _ types.Identity, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, string(data))
	return d.err
}

func (d *recordingDispatcher) received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.frames...)
}

type gatewayFixture struct {
	handler    *Handler
	server     *httptest.Server
	registry   *presence.Registry
	verifier   *mocks.MockTokenVerifier
	directory  *mocks.MockDirectory
	dispatcher *recordingDispatcher
}

func newGatewayFixture(t *testing.T, cfg Config) *gatewayFixture {
	ctrl := gomock.NewController(t)
	logger := logs.GetLoggerFromLevel(slog.LevelError)
	f := &gatewayFixture{
		registry:   presence.NewRegistry(nil, logger),
		verifier:   mocks.NewMockTokenVerifier(ctrl),
		directory:  mocks.NewMockDirectory(ctrl),
		dispatcher: &recordingDispatcher{},
	}
	f.handler = NewHandler(f.verifier, f.directory, f.registry, f.dispatcher, cfg, logger)
	f.server = httptest.NewServer(f.handler)
	t.Cleanup(f.server.Close)
	return f
}

func (f *gatewayFixture) allow(token string, identity types.Identity) {
	f.verifier.EXPECT().Verify(gomock.Any(), token).
		Return(types.Claims{UserID: identity.ID, Role: identity.Role}, nil).AnyTimes()
	f.directory.EXPECT().FindIdentity(gomock.Any(), identity.ID).Return(identity, nil).AnyTimes()
}

func (f *gatewayFixture) url(query string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + query
}

func (f *gatewayFixture) dial(t *testing.T, token string) *websocket.Conn {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(f.url(""), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) types.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame types.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func student(id string) types.Identity {
	return types.Identity{ID: id, Role: types.RoleStudent, Active: true}
}

func TestHandler_RejectsBadHandshakes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthTimeout = 50 * time.Millisecond

	tests := []struct {
		name       string
		setup      func(f *gatewayFixture)
		header     string
		query      string
		wantStatus int
	}{
		{
			name:       "missing token",
			setup:      func(f *gatewayFixture) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non bearer header",
			setup:      func(f *gatewayFixture) {},
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "invalid token",
			setup: func(f *gatewayFixture) {
				f.verifier.EXPECT().Verify(gomock.Any(), "bad").Return(types.Claims{}, interfaces.ErrUnauthorized)
			},
			header:     "Bearer bad",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "verification times out",
			setup: func(f *gatewayFixture) {
				f.verifier.EXPECT().Verify(gomock.Any(), "slow").
					DoAndReturn(func(ctx context.Context, _ string) (types.Claims, error) {
						<-ctx.Done()
						return types.Claims{}, ctx.Err()
					})
			},
			query:      "?access_token=slow",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown identity",
			setup: func(f *gatewayFixture) {
				f.verifier.EXPECT().Verify(gomock.Any(), "ghost").Return(types.Claims{UserID: "ghost"}, nil)
				f.directory.EXPECT().FindIdentity(gomock.Any(), "ghost").Return(types.Identity{}, interfaces.ErrIdentityNotFound)
			},
			header:     "Bearer ghost",
			wantStatus: http.StatusForbidden,
		},
		{
			name: "inactive identity",
			setup: func(f *gatewayFixture) {
				f.verifier.EXPECT().Verify(gomock.Any(), "old").Return(types.Claims{UserID: "s9"}, nil)
				f.directory.EXPECT().FindIdentity(gomock.Any(), "s9").Return(types.Identity{ID: "s9", Role: types.RoleStudent}, nil)
			},
			header:     "Bearer old",
			wantStatus: http.StatusForbidden,
		},
		{
			name: "role mismatch",
			setup: func(f *gatewayFixture) {
				f.verifier.EXPECT().Verify(gomock.Any(), "forged").Return(types.Claims{UserID: "s1", Role: types.RoleAdmin}, nil)
				f.directory.EXPECT().FindIdentity(gomock.Any(), "s1").Return(student("s1"), nil)
			},
			header:     "Bearer forged",
			wantStatus: http.StatusForbidden,
		},
		{
			name: "directory unavailable",
			setup: func(f *gatewayFixture) {
				f.verifier.EXPECT().Verify(gomock.Any(), "ok").Return(types.Claims{UserID: "s1"}, nil)
				f.directory.EXPECT().FindIdentity(gomock.Any(), "s1").Return(types.Identity{}, errors.New("db down"))
			},
			header:     "Bearer ok",
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t, cfg)
			tt.setup(f)

			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			_, resp, err := websocket.DefaultDialer.Dial(f.url(tt.query), header)
			require.Error(t, err)
			require.NotNil(t, resp)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			require.Empty(t, f.registry.OnlineIdentities(), "a rejected handshake never registers")
		})
	}
}

func TestHandler_LifecycleAndPresence(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, DefaultConfig())
	f.allow("tok-p1", types.Identity{ID: "p1", Role: types.RoleProfessor, Active: true})
	f.allow("tok-s1", student("s1"))

	observer := f.dial(t, "tok-p1")
	req.Eventually(func() bool { return f.registry.IsOnline("p1") }, 2*time.Second, 10*time.Millisecond)

	device := f.dial(t, "tok-s1")
	frame := readFrame(t, observer)
	req.Equal(types.EventPresence, frame.Event)
	var change PresenceChange
	req.NoError(json.Unmarshal(frame.Payload, &change))
	req.Equal(PresenceChange{Identity: "s1", Online: true, Connections: 1}, change)

	req.Eventually(func() bool { return f.registry.IsOnline("s1") }, 2*time.Second, 10*time.Millisecond)
	req.Equal(1, f.registry.Deliver("user:s1", types.EventNotification, map[string]string{"title": "hello"}))
	req.Equal(types.EventNotification, readFrame(t, device).Event)

	req.NoError(device.Close())
	frame = readFrame(t, observer)
	req.Equal(types.EventPresence, frame.Event)
	req.NoError(json.Unmarshal(frame.Payload, &change))
	req.Equal(PresenceChange{Identity: "s1"}, change)
	req.False(f.registry.IsOnline("s1"))
}

func TestHandler_SecondDeviceKeepsIdentityOnline(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, DefaultConfig())
	f.allow("tok", student("u"))

	phone := f.dial(t, "tok")
	laptop := f.dial(t, "tok")
	req.Eventually(func() bool { return f.registry.ConnectionCount("u") == 2 }, 2*time.Second, 10*time.Millisecond)

	req.NoError(phone.Close())
	req.Eventually(func() bool { return f.registry.ConnectionCount("u") == 1 }, 2*time.Second, 10*time.Millisecond)
	req.True(f.registry.IsOnline("u"))

	req.NoError(laptop.Close())
	req.Eventually(func() bool { return !f.registry.IsOnline("u") }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_CloseAll(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, DefaultConfig())
	f.allow("tok-a", student("a"))
	f.allow("tok-b", student("b"))

	a := f.dial(t, "tok-a")
	f.dial(t, "tok-b")
	req.Eventually(func() bool { return f.registry.IsOnline("a") && f.registry.IsOnline("b") }, 2*time.Second, 10*time.Millisecond)

	req.Equal(2, f.handler.CloseAll())
	req.Eventually(func() bool { return len(f.registry.OnlineIdentities()) == 0 }, 2*time.Second, 10*time.Millisecond)

	req.NoError(a.SetReadDeadline(time.Now().Add(2 * time.Second)))
	for {
		if _, _, err := a.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHandler_InboundFramesReachDispatcher(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, DefaultConfig())
	f.allow("tok", student("s1"))

	conn := f.dial(t, "tok")
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"typing.start","payload":{"to":"s2"}}`)))
	req.Eventually(func() bool { return len(f.dispatcher.received()) == 1 }, 2*time.Second, 10*time.Millisecond)

	f.dispatcher.mu.Lock()
	f.dispatcher.err = errors.New("queue full")
	f.dispatcher.mu.Unlock()

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"typing.stop"}`)))
	frame := readFrame(t, conn)
	req.Equal(types.EventError, frame.Event)
	req.JSONEq(`{"error":"queue full"}`, string(frame.Payload))
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?access_token=q", nil)
	require.Equal(t, "q", bearerToken(r))

	r.Header.Set("Authorization", "Bearer h")
	require.Equal(t, "h", bearerToken(r), "header wins over query")

	r.Header.Set("Authorization", "Token h")
	require.Empty(t, bearerToken(r))
}
