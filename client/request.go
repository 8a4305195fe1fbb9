package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

const defaultRequestTimeout = 10

// BeforeFunc modifies the request before it is sent
type BeforeFunc func(req *http.Request) error

// Request is a single GraphQL operation. It is sent as the body of an HTTP
// request or as the payload of a websocket start message.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// GetQuery gets the query
func (r *Request) GetQuery() string {
	return r.Query
}

// GetOperationName gets the operation name
func (r *Request) GetOperationName() string {
	return r.OperationName
}

// GetVariables gets the variables, never nil
func (r *Request) GetVariables() map[string]interface{} {
	if r.Variables == nil {
		return map[string]interface{}{}
	}
	return r.Variables
}

func (r *Request) toReader() (io.Reader, error) {
	j, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(j), nil
}
