package transport

import (
	"context"
	"fmt"

	"github.com/bhoriuchi/graphql-subscriptions-transport/transport/stream"
	"github.com/graphql-go/graphql"
)

// DefaultExecute executes queries and mutations with graphql-go
func DefaultExecute(p graphql.ExecuteParams) interface{} {
	return graphql.Execute(p)
}

// DefaultSubscribe executes subscriptions with graphql-go
func DefaultSubscribe(p graphql.ExecuteParams) interface{} {
	return graphql.ExecuteSubscription(p)
}

// toResultStream normalizes an executor return value into a cancelable
// stream. cancel stops the execution context.
func toResultStream(result interface{}, cancel context.CancelFunc) (stream.ResultStream, error) {
	switch r := result.(type) {
	case stream.ResultStream:
		return stream.WithCancel(r, func() {
			stream.Cancel(r)
			cancel()
		}), nil

	case chan *graphql.Result:
		return stream.FromChannel(r, cancel), nil

	case <-chan *graphql.Result:
		return stream.FromChannel(r, cancel), nil

	case *graphql.Result:
		if r == nil {
			return nil, fmt.Errorf("executor returned a nil result")
		}
		return stream.WithCancel(stream.FromResults(r), cancel), nil

	case graphql.Result:
		return stream.WithCancel(stream.FromResults(&r), cancel), nil

	case nil:
		return nil, fmt.Errorf("executor returned no result")
	}

	return nil, fmt.Errorf("invalid operation result type %T", result)
}

// toExecutionResult converts a graphql-go result to its wire shape
func toExecutionResult(res *graphql.Result) *ExecutionResult {
	if res == nil {
		return &ExecutionResult{}
	}

	return &ExecutionResult{
		Errors:     res.Errors,
		Data:       res.Data,
		Extensions: res.Extensions,
	}
}
