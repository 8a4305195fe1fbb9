package transport

import (
	"encoding/json"

	"github.com/graphql-go/graphql/gqlerrors"
)

// OperationMessage is the canonical message envelope. Legacy messages are
// translated to and from this shape by the Codec.
type OperationMessage struct {
	ID      string      `json:"id,omitempty"`
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func (msg OperationMessage) String() string {
	s, _ := json.Marshal(msg)
	if s != nil {
		return string(s)
	}
	return "<invalid>"
}

// StartMessagePayload defines the parameters of an operation that
// a client requests to be started.
type StartMessagePayload struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// ErrorPayload is the payload of connection_error and error messages
type ErrorPayload struct {
	Message string `json:"message"`
}

// NamedErrorPayload is sent for errors that carry nothing but a message
type NamedErrorPayload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ExecutionResult result of an execution
type ExecutionResult struct {
	Errors     gqlerrors.FormattedErrors `json:"errors,omitempty"`
	Data       interface{}               `json:"data,omitempty"`
	Extensions map[string]interface{}    `json:"extensions,omitempty"`
}
