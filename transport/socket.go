package transport

// ReadyState is the state of a socket
type ReadyState int

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

// Socket is the transport a connection is served over. Send is expected to
// serialize its own writes.
type Socket interface {
	// Protocol returns the negotiated subprotocol
	Protocol() string

	// ReadyState returns the current state of the socket
	ReadyState() ReadyState

	// Send writes a text frame
	Send(data string) error

	// Close closes the socket with a close code and reason
	Close(code CloseCode, reason string) error
}

// EventHandler receives the socket events of an accepted connection
type EventHandler interface {
	HandleMessage(raw []byte)
	HandleError(err error)
	HandleClose()
}
