// Package ws adapts gorilla websocket connections to the transport Socket
// and feeds their events to a connection.
package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/transport"
	"github.com/gorilla/websocket"
)

var (
	// CloseDeadlineDuration bounds the write of a close control message
	CloseDeadlineDuration time.Duration = 100 * time.Millisecond

	// WriteTimeout bounds the write of a single message
	WriteTimeout = 10 * time.Second

	// ReadLimit is the maximum size of an inbound message
	ReadLimit int64 = 1 << 20

	ErrSocketClosed = errors.New("socket is closed")
	ErrSendTimeout  = errors.New("timed out queueing message for a slow peer")
)

var _ transport.Socket = (*Socket)(nil)

// Socket is a transport.Socket backed by a gorilla websocket. All data
// frames are written by a single write loop.
type Socket struct {
	ws       *websocket.Conn
	log      *logger.LogWrapper
	state    int32
	outgoing chan string
	done     chan struct{}
	doneOnce sync.Once
}

// NewSocket wraps an upgraded websocket connection
func NewSocket(ws *websocket.Conn, log *logger.LogWrapper) *Socket {
	if log == nil {
		log = logger.NewNoopLogger()
	}

	ws.SetReadLimit(ReadLimit)
	return &Socket{
		ws:       ws,
		log:      log,
		state:    int32(transport.StateOpen),
		outgoing: make(chan string, 64),
		done:     make(chan struct{}),
	}
}

// Protocol returns the negotiated subprotocol
func (s *Socket) Protocol() string {
	return s.ws.Subprotocol()
}

// ReadyState returns the current state of the socket
func (s *Socket) ReadyState() transport.ReadyState {
	return transport.ReadyState(atomic.LoadInt32(&s.state))
}

func (s *Socket) setState(state transport.ReadyState) {
	atomic.StoreInt32(&s.state, int32(state))
}

// Send queues a text frame for the write loop
func (s *Socket) Send(data string) error {
	if s.ReadyState() != transport.StateOpen {
		return ErrSocketClosed
	}

	select {
	case s.outgoing <- data:
		return nil
	case <-s.done:
		return ErrSocketClosed
	default:
	}

	// the queue is full, wait no longer than a single write may take
	timer := time.NewTimer(WriteTimeout)
	defer timer.Stop()

	select {
	case s.outgoing <- data:
		return nil
	case <-s.done:
		return ErrSocketClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

// Close writes a close control message and closes the connection
func (s *Socket) Close(code transport.CloseCode, reason string) error {
	if s.ReadyState() >= transport.StateClosing {
		return nil
	}
	s.setState(transport.StateClosing)

	closeMsg := websocket.FormatCloseMessage(int(code), reason)
	deadline := time.Now().Add(CloseDeadlineDuration)

	var err error
	if werr := s.ws.WriteControl(websocket.CloseMessage, closeMsg, deadline); werr != nil && werr != websocket.ErrCloseSent {
		s.log.WithError(werr).Errorf("failed to write close control message to websocket, trying force close")
		err = werr
	}

	s.finish()
	if cerr := s.ws.Close(); cerr != nil && err == nil {
		err = cerr
	}

	s.log.WithField("code", code).Infof("CLOSED connection with %q", reason)
	return err
}

// finish marks the socket closed and stops the write loop
func (s *Socket) finish() {
	s.setState(transport.StateClosed)
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Serve runs the read and write loops, dispatching socket events to h. It
// blocks until the connection is gone.
func (s *Socket) Serve(h transport.EventHandler) {
	go s.writeLoop()
	s.readLoop(h)
}

func (s *Socket) writeLoop() {
	for {
		select {
		case <-s.done:
			return

		case data := <-s.outgoing:
			s.ws.SetWriteDeadline(time.Now().Add(WriteTimeout))

			// Send the message to the client; if this times out, the WebSocket
			// connection will be corrupt, hence we need to close the write loop
			// and the connection immediately
			if err := s.ws.WriteMessage(websocket.TextMessage, []byte(data)); err != nil {
				s.log.WithError(err).Warnf("sending message failed")
				s.finish()
				s.ws.Close()
				return
			}
		}
	}
}

func (s *Socket) readLoop(h transport.EventHandler) {
	for {
		messageType, data, err := s.ws.ReadMessage()
		if err != nil {
			// a normal closure or a socket we closed ourselves is not an error
			if s.ReadyState() != transport.StateOpen || websocket.IsCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				s.log.Debugf("gracefully closing connection")
				s.finish()
				s.ws.Close()
				h.HandleClose()
				return
			}

			// the connection closes the socket once the error was flushed
			s.log.WithError(err).Errorf("read failed")
			h.HandleError(err)
			return
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		h.HandleMessage(data)
	}
}
