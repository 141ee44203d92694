package interfaces

//go:generate go run go.uber.org/mock/mockgen -source=connection.go -destination=../../internal/mocks/connection.go -package=mocks

// Connection is one live transport session as seen by the presence registry.
// ARCHITECTURAL DISCOVERY: The registry only ever pushes pre-encoded frames,
// so the transport contract is a non-blocking send plus lifecycle hooks
type Connection interface {
	// ID returns the unique connection handle.
	ID() string

	// Send enqueues an encoded frame without blocking. It returns false when
	// the frame was dropped because the outbound buffer is full or the
	// connection is closed.
	Send(frame []byte) bool

	// Close tears down the transport. Safe to call more than once.
	Close() error

	// Done is closed once the transport is gone.
	Done() <-chan struct{}
}
