package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/metadata"
	"github.com/bhoriuchi/graphql-subscriptions-transport/utils/interval"
)

type connectionKey struct{}

var _ EventHandler = (*ConnectionContext)(nil)

// ConnectionContext is the state of one accepted socket
type ConnectionContext struct {
	id     string
	ctx    context.Context
	server *SubscriptionServer
	socket Socket
	codec  *Codec
	mgr    *OperationManager
	log    *logger.LogWrapper

	hsMx sync.RWMutex
	hs   *handshake

	closed    chan struct{}
	closeOnce sync.Once

	kaMx   sync.Mutex
	kaOnce sync.Once
	ka     *interval.Interval
}

// FromContext returns the connection an operation context belongs to
func FromContext(ctx context.Context) (*ConnectionContext, bool) {
	c, ok := ctx.Value(connectionKey{}).(*ConnectionContext)
	return c, ok
}

// ID returns the connection id
func (c *ConnectionContext) ID() string {
	return c.id
}

// Context returns the context the connection was accepted with
func (c *ConnectionContext) Context() context.Context {
	return c.ctx
}

// Socket returns the underlying socket
func (c *ConnectionContext) Socket() Socket {
	return c.socket
}

// Dialect returns the negotiated dialect
func (c *ConnectionContext) Dialect() Dialect {
	return c.codec.Dialect()
}

// Operations returns the operation table
func (c *ConnectionContext) Operations() *OperationManager {
	return c.mgr
}

// Closed is closed once the connection has been torn down
func (c *ConnectionContext) Closed() <-chan struct{} {
	return c.closed
}

func (c *ConnectionContext) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *ConnectionContext) handshake() *handshake {
	c.hsMx.RLock()
	defer c.hsMx.RUnlock()
	return c.hs
}

func (c *ConnectionContext) setHandshake(hs *handshake) {
	c.hsMx.Lock()
	defer c.hsMx.Unlock()
	c.hs = hs
}

// HandleMessage handles a single inbound frame
func (c *ConnectionContext) HandleMessage(raw []byte) {
	if c.isClosed() {
		return
	}

	msg, err := c.codec.Decode(raw)
	if err != nil {
		c.log.WithError(err).Errorf("failed to parse message")
		c.sendError("", MsgConnectionError, ErrorPayload{Message: err.Error()})
		return
	}

	switch msg.Type {
	case MsgConnectionInit:
		c.handleConnectionInit(msg)

	case MsgConnectionTerminate:
		c.handleConnectionTerminate(msg)

	case MsgStart:
		c.handleStart(msg)

	case MsgStop:
		c.handleStop(msg)

	default:
		c.log.WithField("type", msg.Type).Errorf("failed to handle message")
		c.sendError(msg.ID, MsgError, ErrorPayload{Message: ErrInvalidMessageType.Error()})
	}
}

// HandleError handles a transport error. The client is notified, the socket
// is closed after the flush delay and the connection is torn down.
func (c *ConnectionContext) HandleError(err error) {
	if err == nil {
		err = errors.New("unknown socket error")
	}

	c.log.WithError(err).Errorf("force closing connection")
	c.sendError("", MsgConnectionError, ErrorPayload{Message: err.Error()})
	c.closeAfterFlush(UnexpectedCondition, err.Error())
	c.teardown()
}

// HandleClose tears the connection down after the socket closed
func (c *ConnectionContext) HandleClose() {
	c.teardown()
}

// teardown stops every operation and calls the disconnect hook, once
func (c *ConnectionContext) teardown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.stopKeepAlive()
		c.stopAll()
		c.server.config.OnDisconnect(c.socket, c)
		c.log.Infof("connection closed")
	})
}

// closeAfterFlush closes the socket once queued messages had a chance to be
// delivered
func (c *ConnectionContext) closeAfterFlush(code CloseCode, reason string) {
	interval.SetTimeout(func() {
		if err := c.socket.Close(code, reason); err != nil {
			c.log.WithError(err).Errorf("failed to close websocket")
		}
	}, FlushDelay)
}

// operationContext builds the context of an operation from the handshake
// value. Handshake fields are shallow copied so operations never share them.
func (c *ConnectionContext) operationContext(initResult interface{}) context.Context {
	ctx := context.WithValue(c.ctx, connectionKey{}, c)

	switch fields := initResult.(type) {
	case map[string]interface{}:
		return metadata.NewWithFields(ctx, fields)
	case metadata.Fields:
		return metadata.NewWithFields(ctx, fields)
	}
	return metadata.NewWithContext(ctx)
}
