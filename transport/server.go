package transport

import (
	"context"
	"fmt"

	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/google/uuid"
)

// SubscriptionServer accepts sockets and serves the subscriptions transport
// protocol over them.
type SubscriptionServer struct {
	config Config
	log    *logger.LogWrapper
}

// NewSubscriptionServer creates a new server. Every unset hook is replaced
// by its no-op default.
func NewSubscriptionServer(config Config) (*SubscriptionServer, error) {
	if config.Execute == nil {
		return nil, ErrMissingExecute
	}

	config = config.withDefaults()
	return &SubscriptionServer{
		config: config,
		log:    config.Logger,
	}, nil
}

// IsSupportedSubprotocol returns true for the subprotocols the server speaks
func IsSupportedSubprotocol(protocol string) bool {
	return protocol == Subprotocol || protocol == LegacySubprotocol
}

// HandleConnection accepts a socket. If the negotiated subprotocol is not
// supported the socket is closed with a protocol error and no connection is
// created. The caller feeds the socket events to the returned connection.
func (s *SubscriptionServer) HandleConnection(ctx context.Context, socket Socket) (*ConnectionContext, error) {
	if !IsSupportedSubprotocol(socket.Protocol()) {
		err := fmt.Errorf("%w: %q", ErrUnsupportedSubprotocol, socket.Protocol())
		s.log.WithError(err).Warnf("rejecting connection")
		if cerr := socket.Close(ProtocolError, err.Error()); cerr != nil {
			s.log.WithError(cerr).Errorf("failed to close websocket")
		}
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	id := uuid.NewString()
	c := &ConnectionContext{
		id:     id,
		ctx:    ctx,
		server: s,
		socket: socket,
		codec:  NewCodec(),
		mgr:    NewOperationManager(),
		hs:     resolvedHandshake(true),
		closed: make(chan struct{}),
		log: s.log.
			WithField("connectionId", id).
			WithField("subprotocol", socket.Protocol()),
	}

	c.log.Debugf("accepted connection")
	return c, nil
}
