package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bhoriuchi/graphql-subscriptions-transport/metadata"
	"github.com/bhoriuchi/graphql-subscriptions-transport/transport/stream"
	"github.com/bhoriuchi/graphql-subscriptions-transport/utils/interval"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// completions records OnOperationComplete calls
type completions struct {
	mx  sync.Mutex
	ids []string
}

func (c *completions) hook(socket Socket, id string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.ids = append(c.ids, id)
}

func (c *completions) get() []string {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]string(nil), c.ids...)
}

func TestNewSubscriptionServerRequiresExecute(t *testing.T) {
	_, err := NewSubscriptionServer(Config{})
	assert.ErrorIs(t, err, ErrMissingExecute)
}

func TestRejectsUnsupportedSubprotocol(t *testing.T) {
	srv, err := NewSubscriptionServer(Config{Execute: DefaultExecute})
	require.NoError(t, err)

	socket := newFakeSocket("graphql-transport-ws")
	c, err := srv.HandleConnection(context.Background(), socket)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrUnsupportedSubprotocol)

	code, closed := socket.closeCode()
	assert.True(t, closed)
	assert.Equal(t, ProtocolError, code)
	assert.Empty(t, socket.raw())
}

func TestQueryAfterInit(t *testing.T) {
	c, socket := newTestConnection(t, Config{}, Subprotocol)

	send(c, `{"type":"connection_init","payload":{}}`)
	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	msgs := socket.waitType(t, MsgComplete)
	require.Equal(t, []MessageType{MsgConnectionAck, MsgData, MsgComplete}, types(msgs))

	assert.Equal(t, "1", msgs[1].ID)
	assert.Equal(t, map[string]interface{}{
		"data": map[string]interface{}{"hello": "world"},
	}, msgs[1].payloadMap())
	assert.Equal(t, "1", msgs[2].ID)
	assert.Equal(t, DialectCurrent, c.Dialect())

	require.Eventually(t, func() bool {
		return c.Operations().Count() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStartWithoutInit(t *testing.T) {
	c, socket := newTestConnection(t, Config{}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	msgs := socket.waitType(t, MsgComplete)
	assert.Equal(t, []MessageType{MsgData, MsgComplete}, types(msgs))
}

func TestAckPrecedesOperationMessages(t *testing.T) {
	gate := make(chan struct{})
	c, socket := newTestConnection(t, Config{
		OnConnect: func(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error) {
			<-gate
			return true, nil
		},
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)
	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, socket.raw())
	assert.True(t, c.Operations().Has("1"))

	close(gate)
	msgs := socket.waitType(t, MsgComplete)
	assert.Equal(t, []MessageType{MsgConnectionAck, MsgData, MsgComplete}, types(msgs))
}

func TestValidationErrorsSkipExecutor(t *testing.T) {
	var calls int32
	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			atomic.AddInt32(&calls, 1)
			return graphql.Execute(p)
		},
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ nope }"}}`)

	msgs := socket.waitType(t, MsgComplete)
	require.Equal(t, []MessageType{MsgData, MsgComplete}, types(msgs))

	errs, ok := msgs[0].payloadMap()["errors"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, errs)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDuplicateStartReplacesOperation(t *testing.T) {
	done := &completions{}
	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			if _, block := p.Args["block"]; block {
				return stream.Func(func(ctx context.Context) (*graphql.Result, bool, error) {
					<-ctx.Done()
					return nil, false, ctx.Err()
				})
			}
			return graphql.Execute(p)
		},
		OnOperationComplete: done.hook,
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }","variables":{"block":true}}}`)
	require.Eventually(t, func() bool {
		op := c.Operations().Get("1")
		return op != nil && op.Stream() != nil
	}, time.Second, 5*time.Millisecond)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	socket.waitType(t, MsgComplete)
	time.Sleep(20 * time.Millisecond)
	msgs := socket.messages(t)

	assert.Equal(t, []MessageType{MsgData, MsgComplete}, types(msgs))
	assert.Equal(t, map[string]interface{}{
		"data": map[string]interface{}{"hello": "world"},
	}, msgs[0].payloadMap())
	assert.Equal(t, []string{"1", "1"}, done.get())
}

func TestStopUnknownOperation(t *testing.T) {
	done := &completions{}
	c, socket := newTestConnection(t, Config{
		OnOperationComplete: done.hook,
	}, Subprotocol)

	send(c, `{"id":"nope","type":"stop"}`)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, socket.raw())
	assert.Empty(t, done.get())
}

func TestSubscriptionStreamsEveryValue(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		Subscribe: DefaultSubscribe,
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"subscription { counter }"}}`)

	msgs := socket.waitType(t, MsgComplete)
	require.Equal(t, []MessageType{MsgData, MsgData, MsgData, MsgComplete}, types(msgs))
	for i, msg := range msgs[:3] {
		assert.Equal(t, map[string]interface{}{
			"data": map[string]interface{}{"counter": float64(i + 1)},
		}, msg.payloadMap())
	}
}

func TestStopAfterFirstValue(t *testing.T) {
	gate := make(chan struct{})
	done := &completions{}

	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			ch := make(chan *graphql.Result)
			go func() {
				defer close(ch)
				for i := 1; i <= 3; i++ {
					if i > 1 {
						select {
						case <-gate:
						case <-p.Context.Done():
							return
						}
					}
					select {
					case ch <- &graphql.Result{Data: map[string]interface{}{"n": i}}:
					case <-p.Context.Done():
						return
					}
				}
			}()
			return ch
		},
		OnOperationComplete: done.hook,
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)
	socket.waitMessages(t, 1)

	send(c, `{"id":"1","type":"stop"}`)
	close(gate)

	time.Sleep(30 * time.Millisecond)
	msgs := socket.messages(t)
	require.Equal(t, []MessageType{MsgData}, types(msgs))
	assert.Equal(t, map[string]interface{}{
		"data": map[string]interface{}{"n": float64(1)},
	}, msgs[0].payloadMap())
	assert.Equal(t, []string{"1"}, done.get())
	assert.False(t, c.Operations().Has("1"))
}

func TestStopBeforeExecution(t *testing.T) {
	gate := make(chan struct{})
	var calls int32
	c, socket := newTestConnection(t, Config{
		OnConnect: func(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error) {
			<-gate
			return nil, nil
		},
		Execute: func(p graphql.ExecuteParams) interface{} {
			atomic.AddInt32(&calls, 1)
			return graphql.Execute(p)
		},
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)
	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)
	send(c, `{"id":"1","type":"stop"}`)
	close(gate)

	socket.waitType(t, MsgConnectionAck)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []MessageType{MsgConnectionAck}, types(socket.messages(t)))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, c.Operations().Has("1"))
}

func TestOnConnectRejection(t *testing.T) {
	var calls int32
	c, socket := newTestConnection(t, Config{
		OnConnect: func(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error) {
			return false, nil
		},
		Execute: func(p graphql.ExecuteParams) interface{} {
			atomic.AddInt32(&calls, 1)
			return graphql.Execute(p)
		},
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)
	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	msgs := socket.waitType(t, MsgConnectionError)
	assert.Equal(t, ErrProhibitedConnection.Error(), msgs[0].payloadMap()["message"])

	require.Eventually(t, func() bool {
		code, closed := socket.closeCode()
		return closed && code == UnexpectedCondition
	}, time.Second, 5*time.Millisecond)

	for _, msg := range socket.messages(t) {
		assert.NotEqual(t, MsgData, msg.Type)
		assert.NotEqual(t, MsgConnectionAck, msg.Type)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestOnConnectError(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		OnConnect: func(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error) {
			return nil, errors.New("bad token")
		},
	}, Subprotocol)

	send(c, `{"id":"init","type":"connection_init"}`)

	msgs := socket.waitType(t, MsgConnectionError)
	assert.Equal(t, "init", msgs[0].ID)
	assert.Equal(t, "bad token", msgs[0].payloadMap()["message"])
}

func TestOnConnectPanic(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		OnConnect: func(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error) {
			panic("boom")
		},
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)

	msgs := socket.waitType(t, MsgConnectionError)
	assert.Contains(t, msgs[0].payloadMap()["message"], "boom")
}

func TestHandshakeValueReachesOperationContext(t *testing.T) {
	type seen struct {
		user string
		conn *ConnectionContext
	}
	got := make(chan seen, 1)

	c, socket := newTestConnection(t, Config{
		OnConnect: func(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error) {
			return map[string]interface{}{"user": "alice"}, nil
		},
		Execute: func(p graphql.ExecuteParams) interface{} {
			user, _ := metadata.ReadString(p.Context, "user")
			conn, _ := FromContext(p.Context)
			got <- seen{user: user, conn: conn}
			return graphql.Execute(p)
		},
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)
	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	socket.waitType(t, MsgComplete)
	s := <-got
	assert.Equal(t, "alice", s.user)
	assert.Same(t, c, s.conn)
}

func TestOnOperationCanRejectAndRewrite(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		OnOperation: func(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error) {
			if msg.ID == "denied" {
				return nil, errors.New("not allowed")
			}
			params.Query = "{ hello }"
			return params, nil
		},
	}, Subprotocol)

	send(c, `{"id":"denied","type":"start","payload":{"query":"{ hello }"}}`)
	msgs := socket.waitType(t, MsgError)
	assert.Equal(t, "denied", msgs[0].ID)
	assert.Equal(t, "not allowed", msgs[0].payloadMap()["message"])

	send(c, `{"id":"2","type":"start","payload":{"query":"{ nope }"}}`)
	msgs = socket.waitType(t, MsgComplete)
	assert.Equal(t, []MessageType{MsgError, MsgData, MsgComplete}, types(msgs))
	assert.Equal(t, map[string]interface{}{
		"data": map[string]interface{}{"hello": "world"},
	}, msgs[1].payloadMap())
}

func TestStartPayloadErrors(t *testing.T) {
	c, socket := newTestConnection(t, Config{}, Subprotocol)

	send(c, `{"type":"start","payload":{"query":"{ hello }"}}`)
	msgs := socket.waitMessages(t, 1)
	assert.Equal(t, MsgError, msgs[0].Type)
	assert.Equal(t, ErrMissingID.Error(), msgs[0].payloadMap()["message"])

	send(c, `{"id":"1","type":"start","payload":{}}`)
	msgs = socket.waitMessages(t, 2)
	assert.Equal(t, MsgError, msgs[1].Type)
	assert.Equal(t, "1", msgs[1].ID)
	assert.Contains(t, msgs[1].payloadMap()["message"], "Failed to parse query")

	send(c, `{"id":"2","type":"start","payload":{"query":"{ hello"}}`)
	msgs = socket.waitMessages(t, 3)
	assert.Equal(t, MsgError, msgs[2].Type)
	assert.Equal(t, "2", msgs[2].ID)
}

func TestParseErrorKeepsConnection(t *testing.T) {
	c, socket := newTestConnection(t, Config{}, Subprotocol)

	send(c, `not json`)
	msgs := socket.waitMessages(t, 1)
	assert.Equal(t, MsgConnectionError, msgs[0].Type)
	assert.NotEmpty(t, msgs[0].payloadMap()["message"])

	send(c, `{"type":"connection_init"}`)
	msgs = socket.waitMessages(t, 2)
	assert.Equal(t, MsgConnectionAck, msgs[1].Type)
}

func TestUnknownMessageType(t *testing.T) {
	c, socket := newTestConnection(t, Config{}, Subprotocol)

	send(c, `{"id":"3","type":"bogus"}`)

	msgs := socket.waitMessages(t, 1)
	assert.Equal(t, MsgError, msgs[0].Type)
	assert.Equal(t, "3", msgs[0].ID)
	assert.Equal(t, ErrInvalidMessageType.Error(), msgs[0].payloadMap()["message"])
}

func TestStreamErrorFormatting(t *testing.T) {
	failing := func(p graphql.ExecuteParams) interface{} {
		return stream.Func(func(ctx context.Context) (*graphql.Result, bool, error) {
			return nil, false, errors.New("boom")
		})
	}

	t.Run("bare error", func(t *testing.T) {
		c, socket := newTestConnection(t, Config{Execute: failing}, Subprotocol)

		send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

		msgs := socket.waitType(t, MsgError)
		assert.Equal(t, map[string]interface{}{
			"name":    "Error",
			"message": "boom",
		}, msgs[0].payloadMap())
	})

	t.Run("formatError hook", func(t *testing.T) {
		c, socket := newTestConnection(t, Config{
			Execute: failing,
			OnOperation: func(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error) {
				params.FormatError = func(err error, params *ExecutionParams) (interface{}, error) {
					return map[string]interface{}{"message": "formatted " + err.Error()}, nil
				}
				return params, nil
			},
		}, Subprotocol)

		send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

		msgs := socket.waitType(t, MsgError)
		assert.Equal(t, map[string]interface{}{
			"message": "formatted boom",
		}, msgs[0].payloadMap())
	})

	t.Run("failing formatError hook", func(t *testing.T) {
		c, socket := newTestConnection(t, Config{
			Execute: failing,
			OnOperation: func(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error) {
				params.FormatError = func(err error, params *ExecutionParams) (interface{}, error) {
					return nil, errors.New("formatter broke")
				}
				return params, nil
			},
		}, Subprotocol)

		send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

		msgs := socket.waitType(t, MsgError)
		assert.Equal(t, "boom", msgs[0].payloadMap()["message"])
	})
}

func TestFormatResponseFailureSkipsValue(t *testing.T) {
	var n int32
	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			return stream.FromResults(
				&graphql.Result{Data: map[string]interface{}{"n": 1}},
				&graphql.Result{Data: map[string]interface{}{"n": 2}},
			)
		},
		OnOperation: func(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error) {
			params.FormatResponse = func(result *ExecutionResult, params *ExecutionParams) (*ExecutionResult, error) {
				if atomic.AddInt32(&n, 1) == 1 {
					return nil, errors.New("cannot format")
				}
				result.Extensions = map[string]interface{}{"formatted": true}
				return result, nil
			}
			return params, nil
		},
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	msgs := socket.waitType(t, MsgComplete)
	require.Equal(t, []MessageType{MsgData, MsgComplete}, types(msgs))
	assert.Equal(t, map[string]interface{}{
		"data":       map[string]interface{}{"n": float64(2)},
		"extensions": map[string]interface{}{"formatted": true},
	}, msgs[0].payloadMap())
}

func TestInvalidExecutorResult(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			return 42
		},
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	msgs := socket.waitType(t, MsgError)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Contains(t, msgs[0].payloadMap()["message"], "invalid operation result type")
	assert.False(t, c.Operations().Has("1"))
}

func TestKeepAlive(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		KeepAlive: 20 * time.Millisecond,
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)

	msgs := socket.waitMessages(t, 2)
	assert.Equal(t, []MessageType{MsgConnectionAck, MsgKeepAlive}, types(msgs[:2]))

	socket.waitMessages(t, 4)
	for _, msg := range socket.messages(t)[1:] {
		assert.Equal(t, MsgKeepAlive, msg.Type)
	}

	c.HandleClose()
	time.Sleep(30 * time.Millisecond)
	count := len(socket.raw())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, count, len(socket.raw()))
}

func TestKeepAliveClearsWhenSocketStopsBeingOpen(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		KeepAlive: 10 * time.Millisecond,
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)
	socket.waitMessages(t, 3)

	var ka *interval.Interval
	require.Eventually(t, func() bool {
		c.kaMx.Lock()
		defer c.kaMx.Unlock()
		ka = c.ka
		return ka != nil
	}, time.Second, 5*time.Millisecond)

	// the peer went away but nothing has torn the connection down yet
	socket.mx.Lock()
	socket.state = StateClosing
	socket.mx.Unlock()
	assert.False(t, c.isClosed())

	select {
	case <-ka.Done():
	case <-time.After(time.Second):
		t.Fatal("keep-alive was not cleared after the socket stopped being open")
	}

	count := len(socket.raw())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, len(socket.raw()))
	for _, msg := range socket.messages(t)[1:] {
		assert.Equal(t, MsgKeepAlive, msg.Type)
	}
}

func TestUnencodableResultBecomesOperationError(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			return &graphql.Result{
				Data: map[string]interface{}{"hello": make(chan int)},
			}
		},
	}, Subprotocol)

	send(c, `{"type":"connection_init"}`)
	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	msgs := socket.waitType(t, MsgComplete)
	require.Equal(t, []MessageType{MsgConnectionAck, MsgError, MsgComplete}, types(msgs))
	assert.Equal(t, "1", msgs[1].ID)
	assert.Contains(t, msgs[1].payloadMap()["message"], "unsupported type")
	assert.Equal(t, "1", msgs[2].ID)
}

func TestTerminateClosesSocket(t *testing.T) {
	c, socket := newTestConnection(t, Config{}, Subprotocol)

	send(c, `{"type":"connection_terminate"}`)

	code, closed := socket.closeCode()
	assert.True(t, closed)
	assert.Equal(t, NormalClosure, code)
}

func TestTransportErrorTearsDownOnce(t *testing.T) {
	var disconnects int32
	done := &completions{}

	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			return stream.Func(func(ctx context.Context) (*graphql.Result, bool, error) {
				<-ctx.Done()
				return nil, false, ctx.Err()
			})
		},
		OnDisconnect: func(socket Socket, c *ConnectionContext) {
			atomic.AddInt32(&disconnects, 1)
		},
		OnOperationComplete: done.hook,
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)
	require.Eventually(t, func() bool {
		op := c.Operations().Get("1")
		return op != nil && op.Stream() != nil
	}, time.Second, 5*time.Millisecond)

	c.HandleError(errors.New("read failed"))
	c.HandleClose()

	msgs := socket.waitMessages(t, 1)
	assert.Equal(t, MsgConnectionError, msgs[0].Type)
	require.Eventually(t, func() bool {
		code, closed := socket.closeCode()
		return closed && code == UnexpectedCondition
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&disconnects))
	assert.Equal(t, []string{"1"}, done.get())
	assert.Equal(t, 0, c.Operations().Count())

	select {
	case <-c.Closed():
	default:
		t.Fatal("connection not marked closed")
	}

	send(c, `{"type":"connection_init"}`)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, socket.raw(), 1)
}

func TestConcurrentOperationsAreIndependent(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		Subscribe: DefaultSubscribe,
	}, Subprotocol)

	send(c, `{"id":"a","type":"start","payload":{"query":"subscription { counter }"}}`)
	send(c, `{"id":"b","type":"start","payload":{"query":"{ hello }"}}`)

	require.Eventually(t, func() bool {
		completed := map[string]bool{}
		for _, msg := range socket.messages(t) {
			if msg.Type == MsgComplete {
				completed[msg.ID] = true
			}
		}
		return completed["a"] && completed["b"]
	}, 2*time.Second, 5*time.Millisecond)

	perID := map[string][]MessageType{}
	for _, msg := range socket.messages(t) {
		perID[msg.ID] = append(perID[msg.ID], msg.Type)
	}
	assert.Equal(t, []MessageType{MsgData, MsgData, MsgData, MsgComplete}, perID["a"])
	assert.Equal(t, []MessageType{MsgData, MsgComplete}, perID["b"])
}

func TestOnOperationResultChecks(t *testing.T) {
	t.Run("nil params", func(t *testing.T) {
		c, socket := newTestConnection(t, Config{
			OnOperation: func(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error) {
				return nil, nil
			},
		}, Subprotocol)

		send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

		msgs := socket.waitType(t, MsgError)
		assert.Equal(t, ErrInvalidParams.Error(), msgs[0].payloadMap()["message"])
	})

	t.Run("missing schema", func(t *testing.T) {
		c, socket := newTestConnection(t, Config{
			OnOperation: func(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error) {
				params.Schema = nil
				return params, nil
			},
		}, Subprotocol)

		send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

		msgs := socket.waitType(t, MsgError)
		assert.Equal(t, ErrMissingSchema.Error(), msgs[0].payloadMap()["message"])
	})
}

func TestExecutorPanicBecomesOperationError(t *testing.T) {
	c, socket := newTestConnection(t, Config{
		Execute: func(p graphql.ExecuteParams) interface{} {
			panic("executor exploded")
		},
	}, Subprotocol)

	send(c, `{"id":"1","type":"start","payload":{"query":"{ hello }"}}`)

	msgs := socket.waitType(t, MsgError)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Contains(t, msgs[0].payloadMap()["message"], "executor exploded")

	// the connection survives
	send(c, `{"id":"2","type":"start","payload":{"query":"{ hello }"}}`)
	msgs = socket.waitMessages(t, 2)
	assert.Equal(t, MsgError, msgs[1].Type)
	assert.Equal(t, "2", msgs[1].ID)
}
