package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bhoriuchi/graphql-subscriptions-transport/ide"
	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/options"
	"github.com/bhoriuchi/graphql-subscriptions-transport/transport"
	"github.com/bhoriuchi/graphql-subscriptions-transport/ws"
	"github.com/graphql-go/graphql"
)

// Constants
const (
	ContentTypeJSON           = "application/json"
	ContentTypeGraphQL        = "application/graphql"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

type Server struct {
	schema        graphql.Schema
	log           *logger.LogWrapper
	options       *options.Options
	subscriptions *transport.SubscriptionServer
	ws            *ws.Handler
}

// New creates a server that executes HTTP requests and serves the
// subscriptions transport over websocket upgrades
func New(schema graphql.Schema, opts ...options.Option) (*Server, error) {
	o := &options.Options{
		LogFunc:    logger.NoopLogFunc,
		Playground: ide.NewDefaultPlaygroundOptions(),
		WS:         options.NewDefaultWSOptions(),
	}

	for _, opt := range opts {
		opt(o)
	}

	log := logger.NewLogWrapper(o.LogFunc, nil)
	subscriptions, err := transport.NewSubscriptionServer(transport.Config{
		Schema:              &schema,
		RootValue:           o.WS.RootValue,
		Execute:             o.WS.Execute,
		Subscribe:           o.WS.Subscribe,
		ValidationRules:     o.WS.ValidationRules,
		KeepAlive:           o.WS.KeepAlive,
		Logger:              log,
		OnConnect:           o.WS.OnConnect,
		OnDisconnect:        o.WS.OnDisconnect,
		OnOperation:         o.WS.OnOperation,
		OnOperationComplete: o.WS.OnOperationComplete,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		schema:        schema,
		log:           log,
		options:       o,
		subscriptions: subscriptions,
	}

	s.ws = &ws.Handler{
		Server:   subscriptions,
		Upgrader: ws.NewUpgrader(),
		Logger:   log,
	}

	if o.WSContextFunc != nil {
		s.ws.ContextFunc = func(r *http.Request) context.Context {
			return o.WSContextFunc(options.RequestTypeWS, r)
		}
	}

	return s, nil
}

// SubscriptionServer returns the websocket transport server
func (s *Server) SubscriptionServer() *transport.SubscriptionServer {
	return s.subscriptions
}

// isWSUpgrade identifies a websocket upgrade
func (s *Server) isWSUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// ServeHTTP provides an entrypoint into executing graphQL queries.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.isWSUpgrade(r) {
		s.ws.ServeHTTP(w, r)
		return
	}

	if s.wantsPlayground(r) {
		ide.RenderPlayground(s.options.Playground, w, r)
		return
	}

	if s.options.ContextFunc != nil {
		ctx = s.options.ContextFunc(options.RequestTypeHTTP, r)
	}
	s.ContextHandler(ctx, w, r)
}

// wantsPlayground returns true for browser requests without a query
func (s *Server) wantsPlayground(r *http.Request) bool {
	if s.options.Playground == nil || r.Method != http.MethodGet {
		return false
	}

	acceptHeader := r.Header.Get("Accept")
	_, raw := r.URL.Query()["raw"]
	return !raw && r.URL.Query().Get("query") == "" &&
		!strings.Contains(acceptHeader, ContentTypeJSON) &&
		strings.Contains(acceptHeader, "text/html")
}
