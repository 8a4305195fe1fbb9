package transport

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"
)

// sentMessage is a frame recorded by fakeSocket
type sentMessage struct {
	ID      string      `json:"id"`
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
	Query   interface{} `json:"query"`
}

func (m sentMessage) payloadMap() map[string]interface{} {
	p, _ := m.Payload.(map[string]interface{})
	return p
}

type fakeSocket struct {
	mx       sync.Mutex
	protocol string
	state    ReadyState
	sent     []string
	closed   bool
	code     CloseCode
	reason   string
}

func newFakeSocket(protocol string) *fakeSocket {
	return &fakeSocket{
		protocol: protocol,
		state:    StateOpen,
	}
}

func (s *fakeSocket) Protocol() string {
	return s.protocol
}

func (s *fakeSocket) ReadyState() ReadyState {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

func (s *fakeSocket) Send(data string) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.sent = append(s.sent, data)
	return nil
}

func (s *fakeSocket) Close(code CloseCode, reason string) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if !s.closed {
		s.closed = true
		s.code = code
		s.reason = reason
	}
	s.state = StateClosed
	return nil
}

func (s *fakeSocket) closeCode() (CloseCode, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.code, s.closed
}

func (s *fakeSocket) raw() []string {
	s.mx.Lock()
	defer s.mx.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *fakeSocket) messages(t *testing.T) []sentMessage {
	t.Helper()
	var out []sentMessage
	for _, data := range s.raw() {
		var msg sentMessage
		require.NoError(t, json.Unmarshal([]byte(data), &msg))
		out = append(out, msg)
	}
	return out
}

// waitMessages waits until at least n messages were sent
func (s *fakeSocket) waitMessages(t *testing.T, n int) []sentMessage {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(s.raw()) >= n
	}, 2*time.Second, 5*time.Millisecond, "expected %d messages, got %v", n, s.raw())
	return s.messages(t)
}

// waitType waits for a message of type t and returns every message up to it
func (s *fakeSocket) waitType(t *testing.T, mt MessageType) []sentMessage {
	t.Helper()
	var out []sentMessage
	require.Eventually(t, func() bool {
		out = out[:0]
		for _, msg := range s.messages(t) {
			out = append(out, msg)
			if msg.Type == mt {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "no %s message in %v", mt, s.raw())
	return out
}

func types(msgs []sentMessage) []MessageType {
	out := make([]MessageType, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Type)
	}
	return out
}

func newTestSchema(t *testing.T) *graphql.Schema {
	t.Helper()
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"hello": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return "world", nil
					},
				},
			},
		}),
		Subscription: graphql.NewObject(graphql.ObjectConfig{
			Name: "Subscription",
			Fields: graphql.Fields{
				"counter": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source, nil
					},
					Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
						c := make(chan interface{})
						go func() {
							defer close(c)
							for i := 1; i <= 3; i++ {
								select {
								case <-p.Context.Done():
									return
								case c <- i:
								}
							}
						}()
						return c, nil
					},
				},
			},
		}),
	})
	require.NoError(t, err)
	return &schema
}

// newTestConnection accepts a fake socket on a server built from config.
// The connection is torn down when the test ends.
func newTestConnection(t *testing.T, config Config, protocol string) (*ConnectionContext, *fakeSocket) {
	t.Helper()
	if config.Schema == nil {
		config.Schema = newTestSchema(t)
	}
	if config.Execute == nil {
		config.Execute = DefaultExecute
	}

	srv, err := NewSubscriptionServer(config)
	require.NoError(t, err)

	socket := newFakeSocket(protocol)
	c, err := srv.HandleConnection(context.Background(), socket)
	require.NoError(t, err)
	t.Cleanup(c.HandleClose)
	return c, socket
}

func send(c *ConnectionContext, frame string) {
	c.HandleMessage([]byte(frame))
}
