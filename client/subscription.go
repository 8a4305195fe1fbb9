package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bhoriuchi/graphql-subscriptions-transport/transport"
	"github.com/bhoriuchi/graphql-subscriptions-transport/utils/backoff"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClientClosed is returned once the subscription client is closed
var ErrClientClosed = errors.New("subscription client closed")

// SubscriptionOptions subscription client options
type SubscriptionOptions struct {
	URL         string
	Subprotocol string
	Legacy      bool
	Header      http.Header
	Dialer      *websocket.Dialer
	Retries     int
	Backoff     *backoff.Options
}

// SubscriptionClient speaks the subscriptions transport protocol
type SubscriptionClient struct {
	conn     *websocket.Conn
	codec    *transport.Codec
	writeMx  sync.Mutex
	incoming chan transport.OperationMessage
	done     chan struct{}
	once     sync.Once
	errMx    sync.Mutex
	err      error
}

// Dial connects to a subscriptions server, retrying with backoff
func Dial(ctx context.Context, opts *SubscriptionOptions) (*SubscriptionClient, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	subprotocol := opts.Subprotocol
	if subprotocol == "" {
		subprotocol = transport.Subprotocol
	}

	d := *dialer
	d.Subprotocols = []string{subprotocol}

	b := backoff.NewBackoff(opts.Backoff)
	for {
		conn, _, err := d.DialContext(ctx, opts.URL, opts.Header)
		if err == nil {
			dialect := transport.DialectCurrent
			if opts.Legacy {
				dialect = transport.DialectLegacy
			}

			c := &SubscriptionClient{
				conn:     conn,
				codec:    transport.NewCodecWithDialect(dialect),
				incoming: make(chan transport.OperationMessage, 64),
				done:     make(chan struct{}),
			}
			go c.readLoop()
			return c, nil
		}

		if int(b.Attempts()) >= opts.Retries {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}

// Subprotocol returns the subprotocol the server accepted
func (c *SubscriptionClient) Subprotocol() string {
	return c.conn.Subprotocol()
}

func (c *SubscriptionClient) readLoop() {
	defer close(c.incoming)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.errMx.Lock()
			c.err = err
			c.errMx.Unlock()
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			continue
		}

		select {
		case c.incoming <- *msg:
		case <-c.done:
			return
		}
	}
}

// Err returns the error that ended the read loop, if any. A close frame from
// the server is returned as a *websocket.CloseError.
func (c *SubscriptionClient) Err() error {
	c.errMx.Lock()
	defer c.errMx.Unlock()
	return c.err
}

// Send encodes and writes a message
func (c *SubscriptionClient) Send(msg transport.OperationMessage) error {
	data, err := c.codec.Encode(msg)
	if err != nil || data == nil {
		return err
	}

	c.writeMx.Lock()
	defer c.writeMx.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SendRaw writes a frame as is
func (c *SubscriptionClient) SendRaw(data []byte) error {
	c.writeMx.Lock()
	defer c.writeMx.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Init sends connection_init
func (c *SubscriptionClient) Init(payload interface{}) error {
	return c.Send(transport.OperationMessage{
		Type:    transport.MsgConnectionInit,
		Payload: payload,
	})
}

// Start starts an operation
func (c *SubscriptionClient) Start(id string, request Request) error {
	return c.Send(transport.OperationMessage{
		ID:   id,
		Type: transport.MsgStart,
		Payload: transport.StartMessagePayload{
			Query:         request.GetQuery(),
			Variables:     request.GetVariables(),
			OperationName: request.GetOperationName(),
		},
	})
}

// Subscribe starts an operation under a generated id and returns the id
func (c *SubscriptionClient) Subscribe(request Request) (string, error) {
	id := uuid.New().String()
	if err := c.Start(id, request); err != nil {
		return "", err
	}
	return id, nil
}

// Stop stops an operation
func (c *SubscriptionClient) Stop(id string) error {
	return c.Send(transport.OperationMessage{
		ID:   id,
		Type: transport.MsgStop,
	})
}

// Terminate asks the server to close the connection
func (c *SubscriptionClient) Terminate() error {
	return c.Send(transport.OperationMessage{
		Type: transport.MsgConnectionTerminate,
	})
}

// Next returns the next message from the server
func (c *SubscriptionClient) Next(ctx context.Context) (*transport.OperationMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-c.incoming:
		if !ok {
			return nil, ErrClientClosed
		}
		return &msg, nil
	}
}

// Close closes the connection
func (c *SubscriptionClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.writeMx.Lock()
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(100*time.Millisecond),
		)
		c.writeMx.Unlock()
		err = c.conn.Close()
	})
	return err
}
