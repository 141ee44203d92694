package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"campuswire/pkg/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State of a gateway connection. Transitions only move forward.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection implements the interfaces.Connection interface over a gorilla
// WebSocket.
// ARCHITECTURAL DISCOVERY: WebSocket writes must be serialized to prevent race
// conditions, so every frame goes through one writer goroutine and Send only
// ever enqueues
type Connection struct {
	id           string
	conn         *websocket.Conn
	sendCh       chan []byte
	writeTimeout time.Duration
	pingInterval time.Duration
	state        atomic.Int32
	identity     types.Identity
	done         chan struct{}
	closeOnce    sync.Once
	mu           sync.RWMutex // protects identity
}

// NewConnection wraps an upgraded socket in state connecting and starts its
// writer. bufferSize bounds how many frames may queue before Send drops.
func NewConnection(conn *websocket.Conn, bufferSize int, writeTimeout, pingInterval time.Duration) *Connection {
	c := &Connection{
		id:           uuid.New().String(),
		conn:         conn,
		sendCh:       make(chan []byte, bufferSize),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		done:         make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))

	go c.writeLoop()
	return c
}

// ID returns the connection handle.
func (c *Connection) ID() string { return c.id }

// Done is closed when the connection is closed.
func (c *Connection) Done() <-chan struct{} { return c.done }

// State returns the current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// Identity returns the identity bound at authentication.
func (c *Connection) Identity() types.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Authenticate binds the verified identity: connecting -> authenticated.
func (c *Connection) Authenticate(identity types.Identity) error {
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateAuthenticated)) {
		return ErrInvalidTransition
	}
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
	return nil
}

// Activate marks the connection registered: authenticated -> active.
func (c *Connection) Activate() error {
	if !c.state.CompareAndSwap(int32(StateAuthenticated), int32(StateActive)) {
		return ErrInvalidTransition
	}
	return nil
}

// Send enqueues a frame without blocking.
// FUNCTIONAL DISCOVERY: A full buffer drops the frame instead of waiting so a
// stalled client cannot hold up a fan-out loop
func (c *Connection) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- frame:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close moves to closed from any state and releases the socket. Safe to call
// more than once.
// ARCHITECTURAL DISCOVERY: Clean shutdown requires careful goroutine coordination;
// sendCh is never closed so a racing Send cannot panic
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

func (c *Connection) writeLoop() {
	var tick <-chan time.Time
	if c.pingInterval > 0 {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case frame := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				_ = c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				_ = c.Close()
				return
			}

		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				_ = c.Close()
				return
			}

		case <-c.done:
			return
		}
	}
}
