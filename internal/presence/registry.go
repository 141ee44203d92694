// Package presence tracks who is reachable right now, through which
// connections and in which rooms.
package presence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

// member is one registered connection. Its mutex serializes every mutation
// for the handle; shard locks are only ever taken while holding it, never the
// other way around.
type member struct {
	mu       sync.Mutex
	conn     interfaces.Connection
	identity types.Identity
	rooms    map[string]struct{}
	pinned   map[string]struct{}
	removed  bool
}

type connShard struct {
	mu      sync.RWMutex
	members map[string]*member // handle -> member
}

type setShard struct {
	mu   sync.RWMutex
	sets map[string]map[string]*member // identity or room -> handle -> member
}

func (s *setShard) add(key string, m *member) (first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]*member)
		s.sets[key] = set
	}
	first = len(set) == 0
	set[m.conn.ID()] = m
	return first
}

// remove drops m from key's set and reports whether the set is now empty.
// RACE CONDITION FIX: Only the same member instance is removed, so a stale
// cleanup never evicts a newer registration reusing the handle
func (s *setShard) remove(key string, m *member) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return true
	}
	handle := m.conn.ID()
	if set[handle] == m {
		delete(set, handle)
	}
	if len(set) == 0 {
		// TECHNICAL DISCOVERY: Clean up empty sets to prevent memory leaks
		delete(s.sets, key)
		return true
	}
	return false
}

func (s *setShard) snapshot(key string) []*member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.sets[key]
	out := make([]*member, 0, len(set))
	for _, m := range set {
		out = append(out, m)
	}
	return out
}

// Registry is the concurrency-safe map from identity to live connections and
// from room to member connections.
// ARCHITECTURAL DISCOVERY: Three independently sharded indexes keep unrelated
// connections off each other's locks while a per-connection mutex keeps
// register, join, leave and deregister linearizable for a single handle
type Registry struct {
	conns      [shardCount]connShard
	identities [shardCount]setShard
	rooms      [shardCount]setShard
	autoJoin   AutoJoinPolicy
	logger     *slog.Logger
	now        func() time.Time
}

// NewRegistry creates an empty registry. A nil policy selects DefaultAutoJoin.
func NewRegistry(policy AutoJoinPolicy, logger *slog.Logger) *Registry {
	if policy == nil {
		policy = DefaultAutoJoin
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		autoJoin: policy,
		logger:   logger.With(slog.String("component", "presence")),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for i := 0; i < shardCount; i++ {
		r.conns[i].members = make(map[string]*member)
		r.identities[i].sets = make(map[string]map[string]*member)
		r.rooms[i].sets = make(map[string]map[string]*member)
	}
	return r
}

func shardOf(key string) int {
	return int(xxhash.Sum64String(key) % shardCount)
}

func (r *Registry) lookup(handle string) *member {
	shard := &r.conns[shardOf(handle)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return shard.members[handle]
}

// Register adds an authenticated connection and joins the auto-join rooms.
// It reports whether this is the identity's first live connection. A second
// call with the same handle is a no-op.
func (r *Registry) Register(identity types.Identity, conn interfaces.Connection) (firstConnection bool) {
	handle := conn.ID()
	m := &member{
		conn:     conn,
		identity: identity,
		rooms:    make(map[string]struct{}),
		pinned:   make(map[string]struct{}),
	}

	// FUNCTIONAL DISCOVERY: The member is locked before it becomes visible so
	// a racing Deregister for the same handle waits for the indexes to fill
	m.mu.Lock()
	defer m.mu.Unlock()

	shard := &r.conns[shardOf(handle)]
	shard.mu.Lock()
	if _, exists := shard.members[handle]; exists {
		shard.mu.Unlock()
		return false
	}
	shard.members[handle] = m
	shard.mu.Unlock()

	firstConnection = r.identities[shardOf(identity.ID)].add(identity.ID, m)

	for _, room := range r.autoJoin(identity) {
		if _, dup := m.rooms[room]; dup {
			continue
		}
		m.rooms[room] = struct{}{}
		m.pinned[room] = struct{}{}
		r.rooms[shardOf(room)].add(room, m)
	}
	// The own user room is pinned even under a custom policy.
	own := types.UserRoom(identity.ID)
	if _, ok := m.rooms[own]; !ok {
		m.rooms[own] = struct{}{}
		m.pinned[own] = struct{}{}
		r.rooms[shardOf(own)].add(own, m)
	}

	r.logger.Debug("connection registered",
		slog.String("connection", handle),
		slog.String("identity", identity.ID),
		slog.Bool("first", firstConnection))
	return firstConnection
}

// Deregister removes a connection with all its room memberships. It returns
// the owning identity and whether that identity has no live connection left.
// Unknown handles return ("", false).
func (r *Registry) Deregister(handle string) (identityID string, wentOffline bool) {
	shard := &r.conns[shardOf(handle)]
	shard.mu.Lock()
	m, ok := shard.members[handle]
	if ok {
		delete(shard.members, handle)
	}
	shard.mu.Unlock()
	if !ok {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removed {
		return "", false
	}
	m.removed = true

	for room := range m.rooms {
		r.rooms[shardOf(room)].remove(room, m)
	}
	m.rooms = map[string]struct{}{}

	identityID = m.identity.ID
	wentOffline = r.identities[shardOf(identityID)].remove(identityID, m)

	r.logger.Debug("connection deregistered",
		slog.String("connection", handle),
		slog.String("identity", identityID),
		slog.Bool("offline", wentOffline))
	return identityID, wentOffline
}

// JoinRoom adds the connection to room. Joining a room twice is a no-op.
func (r *Registry) JoinRoom(handle, room string) error {
	if _, _, ok := types.SplitRoom(room); !ok {
		return ErrInvalidRoom
	}
	m := r.lookup(handle)
	if m == nil {
		return ErrUnknownConnection
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removed {
		return ErrUnknownConnection
	}
	if _, in := m.rooms[room]; in {
		return nil
	}
	m.rooms[room] = struct{}{}
	r.rooms[shardOf(room)].add(room, m)
	return nil
}

// LeaveRoom removes the connection from room. Leaving a room the connection
// is not in is a no-op. Auto-joined rooms cannot be left.
func (r *Registry) LeaveRoom(handle, room string) error {
	m := r.lookup(handle)
	if m == nil {
		return ErrUnknownConnection
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removed {
		return ErrUnknownConnection
	}
	if _, pinned := m.pinned[room]; pinned {
		return ErrPinnedRoom
	}
	if _, in := m.rooms[room]; !in {
		return nil
	}
	delete(m.rooms, room)
	r.rooms[shardOf(room)].remove(room, m)
	return nil
}

// Lookup returns the identity that owns a registered connection.
func (r *Registry) Lookup(handle string) (types.Identity, bool) {
	m := r.lookup(handle)
	if m == nil {
		return types.Identity{}, false
	}
	return m.identity, true
}

// Rooms returns the sorted room set of a connection.
func (r *Registry) Rooms(handle string) []string {
	m := r.lookup(handle)
	if m == nil {
		return nil
	}
	m.mu.Lock()
	rooms := make([]string, 0, len(m.rooms))
	for room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.Unlock()
	sort.Strings(rooms)
	return rooms
}

// IsOnline reports whether the identity has at least one live connection.
func (r *Registry) IsOnline(identityID string) bool {
	return r.ConnectionCount(identityID) > 0
}

// ConnectionCount returns how many live connections the identity holds.
func (r *Registry) ConnectionCount(identityID string) int {
	shard := &r.identities[shardOf(identityID)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.sets[identityID])
}

// OnlineIdentities returns a sorted point-in-time snapshot of online ids.
func (r *Registry) OnlineIdentities() []string {
	var ids []string
	for i := range r.identities {
		shard := &r.identities[i]
		shard.mu.RLock()
		for id := range shard.sets {
			ids = append(ids, id)
		}
		shard.mu.RUnlock()
	}
	sort.Strings(ids)
	return ids
}

// Deliver pushes one event to every connection currently in room and returns
// how many accepted it. An empty room is not an error.
func (r *Registry) Deliver(room, event string, payload any) int {
	members := r.rooms[shardOf(room)].snapshot(room)
	if len(members) == 0 {
		return 0
	}
	frame, err := r.encode(event, payload)
	if err != nil {
		r.logger.Error("failed to encode frame", slog.String("event", event), slog.Any("error", err))
		return 0
	}
	return r.send(members, frame, "")
}

// SendTo pushes one event to a single connection. It reports false when the
// handle is unknown or the frame was dropped.
func (r *Registry) SendTo(handle, event string, payload any) bool {
	m := r.lookup(handle)
	if m == nil {
		return false
	}
	frame, err := r.encode(event, payload)
	if err != nil {
		r.logger.Error("failed to encode frame", slog.String("event", event), slog.Any("error", err))
		return false
	}
	return m.conn.Send(frame)
}

// Broadcast pushes one event to every registered connection except the one
// with handle except.
func (r *Registry) Broadcast(event string, payload any, except string) int {
	var members []*member
	for i := range r.conns {
		shard := &r.conns[i]
		shard.mu.RLock()
		for _, m := range shard.members {
			members = append(members, m)
		}
		shard.mu.RUnlock()
	}
	if len(members) == 0 {
		return 0
	}
	frame, err := r.encode(event, payload)
	if err != nil {
		r.logger.Error("failed to encode frame", slog.String("event", event), slog.Any("error", err))
		return 0
	}
	return r.send(members, frame, except)
}

// TECHNICAL DISCOVERY: No lock is held while sending; Send never blocks so a
// stalled client only loses its own frames
func (r *Registry) send(members []*member, frame []byte, except string) int {
	reached := 0
	for _, m := range members {
		handle := m.conn.ID()
		if handle == except {
			continue
		}
		if m.conn.Send(frame) {
			reached++
		} else {
			r.logger.Debug("frame dropped", slog.String("connection", handle))
		}
	}
	return reached
}

func (r *Registry) encode(event string, payload any) ([]byte, error) {
	return EncodeFrame(event, payload, r.now())
}

// EncodeFrame builds the wire envelope for an event.
func EncodeFrame(event string, payload any, at time.Time) ([]byte, error) {
	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(types.Frame{Event: event, Payload: raw, Timestamp: at})
}

// GetStats returns registry statistics for monitoring and debugging.
func (r *Registry) GetStats() map[string]int {
	stats := map[string]int{}
	for i := 0; i < shardCount; i++ {
		r.conns[i].mu.RLock()
		stats["total_connections"] += len(r.conns[i].members)
		r.conns[i].mu.RUnlock()

		r.identities[i].mu.RLock()
		stats["online_identities"] += len(r.identities[i].sets)
		r.identities[i].mu.RUnlock()

		r.rooms[i].mu.RLock()
		stats["active_rooms"] += len(r.rooms[i].sets)
		r.rooms[i].mu.RUnlock()
	}
	return stats
}
