package transport

import (
	"context"
	"time"

	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// ExecuteFunc executes a query or mutation. It returns a *graphql.Result, a
// result channel or a stream.ResultStream.
type ExecuteFunc func(p graphql.ExecuteParams) interface{}

// SubscribeFunc executes a subscription. It returns the same kinds of values
// as ExecuteFunc.
type SubscribeFunc func(p graphql.ExecuteParams) interface{}

// ConnectFunc resolves the connection_init payload into the handshake value.
// Returning false rejects the connection. A map[string]interface{} value is
// copied into the context of every operation on the connection.
type ConnectFunc func(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error)

// DisconnectFunc is called once when the connection is torn down
type DisconnectFunc func(socket Socket, c *ConnectionContext)

// OperationFunc may replace the execution params of a start message
type OperationFunc func(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error)

// OperationCompleteFunc is called when an operation is removed
type OperationCompleteFunc func(socket Socket, id string)

// FormatResponseFunc formats each result before it is sent
type FormatResponseFunc func(result *ExecutionResult, params *ExecutionParams) (*ExecutionResult, error)

// FormatErrorFunc formats a stream error before it is sent
type FormatErrorFunc func(err error, params *ExecutionParams) (interface{}, error)

// ExecutionParams are the parameters of a single operation
type ExecutionParams struct {
	Query          string
	Document       *ast.Document
	Variables      map[string]interface{}
	OperationName  string
	Context        context.Context
	Schema         *graphql.Schema
	FormatResponse FormatResponseFunc
	FormatError    FormatErrorFunc
}

// Config defines the configuration of a SubscriptionServer
type Config struct {
	Schema              *graphql.Schema
	RootValue           interface{}
	Execute             ExecuteFunc
	Subscribe           SubscribeFunc
	ValidationRules     []graphql.ValidationRuleFn
	KeepAlive           time.Duration
	Logger              *logger.LogWrapper
	OnConnect           ConnectFunc
	OnDisconnect        DisconnectFunc
	OnOperation         OperationFunc
	OnOperationComplete OperationCompleteFunc
}

func defaultOnConnect(payload interface{}, socket Socket, c *ConnectionContext) (interface{}, error) {
	return nil, nil
}

func defaultOnDisconnect(socket Socket, c *ConnectionContext) {}

func defaultOnOperation(msg OperationMessage, params *ExecutionParams, socket Socket) (*ExecutionParams, error) {
	return params, nil
}

func defaultOnOperationComplete(socket Socket, id string) {}

// withDefaults fills every unset hook with its no-op or identity default
func (config Config) withDefaults() Config {
	if config.ValidationRules == nil {
		config.ValidationRules = graphql.SpecifiedRules
	}
	if config.Logger == nil {
		config.Logger = logger.NewNoopLogger()
	}
	if config.OnConnect == nil {
		config.OnConnect = defaultOnConnect
	}
	if config.OnDisconnect == nil {
		config.OnDisconnect = defaultOnDisconnect
	}
	if config.OnOperation == nil {
		config.OnOperation = defaultOnOperation
	}
	if config.OnOperationComplete == nil {
		config.OnOperationComplete = defaultOnOperationComplete
	}
	return config
}
