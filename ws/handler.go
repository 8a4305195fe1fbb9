package ws

import (
	"context"
	"net/http"

	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/transport"
	"github.com/gorilla/websocket"
)

// NewUpgrader returns an upgrader that negotiates the supported subprotocols
func NewUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
		Subprotocols: []string{
			transport.Subprotocol,
			transport.LegacySubprotocol,
		},
	}
}

// Handler upgrades requests and serves the subscriptions transport over them
type Handler struct {
	Server   *transport.SubscriptionServer
	Upgrader websocket.Upgrader
	Logger   *logger.LogWrapper

	// ContextFunc optionally derives the connection context from the request
	ContextFunc func(r *http.Request) context.Context
}

// ServeHTTP upgrades the request and blocks until the connection is closed
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	// Establish a WebSocket connection
	log.Debugf("upgrading connection to websocket")
	conn, err := h.Upgrader.Upgrade(w, r, nil)

	// Bail out if the WebSocket connection could not be established
	if err != nil {
		log.WithError(err).Warnf("Failed to establish WebSocket connection")
		return
	}

	log.Debugf("Client requested %q subprotocol", conn.Subprotocol())

	ctx := r.Context()
	if h.ContextFunc != nil {
		ctx = h.ContextFunc(r)
	}

	socket := NewSocket(conn, log)
	c, err := h.Server.HandleConnection(ctx, socket)
	if err != nil {
		return
	}

	socket.Serve(c)
}
