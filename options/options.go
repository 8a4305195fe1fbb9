package options

import (
	"context"
	"net/http"
	"time"

	"github.com/bhoriuchi/graphql-subscriptions-transport/ide"
	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/transport"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

const (
	RequestTypeHTTP RequestType = "http"
	RequestTypeWS   RequestType = "ws"
)

type RequestType string

type RootValueFunc func(ctx context.Context, r *http.Request) map[string]interface{}

type FormatErrorFunc func(err error) gqlerrors.FormattedError

type ContextFunc func(t RequestType, r *http.Request) context.Context

type ResultCallbackFunc func(ctx context.Context, params *graphql.Params, result *graphql.Result, responseBody []byte)

type Option func(opts *Options)

type Options struct {
	Pretty             bool
	RootValueFunc      RootValueFunc
	FormatErrorFunc    FormatErrorFunc
	ContextFunc        ContextFunc
	WSContextFunc      ContextFunc
	ResultCallbackFunc ResultCallbackFunc
	LogFunc            logger.LogFunc
	WS                 *WSOptions
	Playground         *ide.PlaygroundOptions
}

// WSOptions configure the websocket subscriptions transport
type WSOptions struct {
	KeepAlive           time.Duration
	RootValue           interface{}
	Execute             transport.ExecuteFunc
	Subscribe           transport.SubscribeFunc
	ValidationRules     []graphql.ValidationRuleFn
	OnConnect           transport.ConnectFunc
	OnDisconnect        transport.DisconnectFunc
	OnOperation         transport.OperationFunc
	OnOperationComplete transport.OperationCompleteFunc
}

// NewDefaultWSOptions executes operations with graphql-go
func NewDefaultWSOptions() *WSOptions {
	return &WSOptions{
		Execute:   transport.DefaultExecute,
		Subscribe: transport.DefaultSubscribe,
	}
}

func WithPretty() Option {
	return func(opts *Options) {
		opts.Pretty = true
	}
}

func WithLogFunc(l logger.LogFunc) Option {
	return func(opts *Options) {
		opts.LogFunc = l
	}
}

func WithRootValueFunc(f RootValueFunc) Option {
	return func(opts *Options) {
		opts.RootValueFunc = f
	}
}

func WithFormatErrorFunc(f FormatErrorFunc) Option {
	return func(opts *Options) {
		opts.FormatErrorFunc = f
	}
}

func WithContextFunc(f ContextFunc) Option {
	return func(opts *Options) {
		opts.ContextFunc = f
	}
}

func WithWebsocketContextFunc(f ContextFunc) Option {
	return func(opts *Options) {
		opts.WSContextFunc = f
	}
}

func WithResultCallbackFunc(f ResultCallbackFunc) Option {
	return func(opts *Options) {
		opts.ResultCallbackFunc = f
	}
}

func WithPlaygroundOptions(o *ide.PlaygroundOptions) Option {
	return func(opts *Options) {
		opts.Playground = o
	}
}

// WithWSOptions replaces the websocket options
func WithWSOptions(o *WSOptions) Option {
	return func(opts *Options) {
		opts.WS = o
	}
}

// WithKeepAlive sets the keep-alive interval of websocket connections
func WithKeepAlive(d time.Duration) Option {
	return func(opts *Options) {
		opts.WS.KeepAlive = d
	}
}

// WithRootValue sets the root value passed to websocket operations
func WithRootValue(v interface{}) Option {
	return func(opts *Options) {
		opts.WS.RootValue = v
	}
}

func WithExecuteFunc(f transport.ExecuteFunc) Option {
	return func(opts *Options) {
		opts.WS.Execute = f
	}
}

func WithSubscribeFunc(f transport.SubscribeFunc) Option {
	return func(opts *Options) {
		opts.WS.Subscribe = f
	}
}

func WithValidationRules(rules []graphql.ValidationRuleFn) Option {
	return func(opts *Options) {
		opts.WS.ValidationRules = rules
	}
}

func WithOnConnect(f transport.ConnectFunc) Option {
	return func(opts *Options) {
		opts.WS.OnConnect = f
	}
}

func WithOnDisconnect(f transport.DisconnectFunc) Option {
	return func(opts *Options) {
		opts.WS.OnDisconnect = f
	}
}

func WithOnOperation(f transport.OperationFunc) Option {
	return func(opts *Options) {
		opts.WS.OnOperation = f
	}
}

func WithOnOperationComplete(f transport.OperationCompleteFunc) Option {
	return func(opts *Options) {
		opts.WS.OnOperationComplete = f
	}
}
