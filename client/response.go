package client

import (
	"errors"
	"net/http"

	"github.com/bhoriuchi/graphql-subscriptions-transport/utils"
	"github.com/graphql-go/graphql/gqlerrors"
)

// ErrNoData is returned when decoding a response without a body
var ErrNoData = errors.New("no data to decode")

type graphQLResponse struct {
	Data       interface{}               `json:"data"`
	Errors     gqlerrors.FormattedErrors `json:"errors"`
	Extensions map[string]interface{}    `json:"extensions"`
}

// Response is the result of an HTTP request
type Response struct {
	httpRequest  *http.Request
	httpResponse *http.Response
	rawResult    []byte
	data         interface{}
	errors       gqlerrors.FormattedErrors
	extensions   map[string]interface{}
}

// HTTPRequest returns the http request
func (c *Response) HTTPRequest() *http.Request {
	return c.httpRequest
}

// HTTPResponse returns the http response
func (c *Response) HTTPResponse() *http.Response {
	return c.httpResponse
}

// RawResult returns the raw result body
func (c *Response) RawResult() []byte {
	return c.rawResult
}

// Data returns the data
func (c *Response) Data() interface{} {
	return c.data
}

// Errors returns the errors
func (c *Response) Errors() gqlerrors.FormattedErrors {
	return c.errors
}

// Extensions returns the response extensions
func (c *Response) Extensions() map[string]interface{} {
	return c.extensions
}

// FirstError returns the first error or nil
func (c *Response) FirstError() *gqlerrors.FormattedError {
	if !c.HasErrors() {
		return nil
	}
	first := c.errors[0]
	return &first
}

// HasErrors returns true if errors are present
func (c *Response) HasErrors() bool {
	return len(c.errors) > 0
}

// Decode decodes the data into out
func (c *Response) Decode(out interface{}) error {
	if len(c.rawResult) == 0 {
		return ErrNoData
	}
	return utils.ReMarshal(c.data, out)
}
