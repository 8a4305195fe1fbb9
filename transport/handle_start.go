package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/transport/stream"
	"github.com/bhoriuchi/graphql-subscriptions-transport/utils"
	"github.com/graphql-go/graphql"
)

func (c *ConnectionContext) handleStart(msg *OperationMessage) {
	if msg.ID == "" {
		c.log.Errorf("received START message without an id")
		c.sendError("", MsgError, ErrorPayload{Message: ErrMissingID.Error()})
		return
	}

	opLog := c.log.WithField("operationId", msg.ID)
	opLog.Debugf("received START message")

	// reserve the id now so starts and stops keep the order they arrived in
	op := c.startOperation(msg.ID)
	go c.runOperation(op, c.handshake(), msg, opLog)
}

// runOperation drives a single operation from handshake to its terminal
// message. Nothing that fails here escapes to the connection.
func (c *ConnectionContext) runOperation(op *Operation, hs *handshake, msg *OperationMessage, opLog *logger.LogWrapper) {
	defer func() {
		if r := recover(); r != nil {
			c.failOperation(op, fmt.Errorf("operation failed: %v", r), opLog)
		}
	}()

	initResult, err := hs.wait(c.closed)
	if err != nil {
		c.mgr.RemoveIf(op)
		op.Cancel()
		if !errors.Is(err, errConnectionClosed) {
			opLog.WithError(err).Errorf("operation rejected by handshake")
			c.sendError(op.ID, MsgConnectionError, ErrorPayload{Message: err.Error()})
		}
		return
	}

	if op.Cancelled() {
		opLog.Tracef("operation stopped during the handshake")
		return
	}

	params, err := c.buildParams(msg, initResult)
	if err != nil {
		c.failOperation(op, err, opLog)
		return
	}

	s, err := c.execute(op, params, opLog)
	if err != nil {
		c.failOperation(op, err, opLog)
		return
	}

	if !op.Attach(s) {
		opLog.Tracef("operation stopped before execution began")
		stream.Cancel(s)
		return
	}

	// legacy clients expect an acknowledgement once the operation is streaming
	op.Do(func() {
		c.sendMessage(op.ID, MsgSubscriptionSuccess, nil)
	})

	c.drive(op, s, params, opLog)
}

// buildParams validates the start payload and resolves the execution params
func (c *ConnectionContext) buildParams(msg *OperationMessage, initResult interface{}) (*ExecutionParams, error) {
	if msg.Payload == nil {
		return nil, fmt.Errorf("Failed to parse payload from Message: %s", msg)
	}

	payload := StartMessagePayload{}
	if err := utils.ReMarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("Failed to parse payload from Message: %s", msg)
	}

	if payload.Query == "" {
		return nil, fmt.Errorf("Failed to parse query from Message: %s", msg)
	}

	if payload.Variables == nil {
		payload.Variables = map[string]interface{}{}
	}

	base := &ExecutionParams{
		Query:         payload.Query,
		Variables:     payload.Variables,
		OperationName: payload.OperationName,
		Context:       c.operationContext(initResult),
		Schema:        c.server.config.Schema,
	}

	params, err := c.server.config.OnOperation(*msg, base, c.socket)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, ErrInvalidParams
	}
	if params.Schema == nil {
		return nil, ErrMissingSchema
	}
	if params.Context == nil {
		params.Context = base.Context
	}
	if params.Variables == nil {
		params.Variables = map[string]interface{}{}
	}

	return params, nil
}

// execute parses, validates and executes the operation. Validation errors do
// not invoke an executor, they become the single result of the operation.
func (c *ConnectionContext) execute(op *Operation, params *ExecutionParams, opLog *logger.LogWrapper) (stream.ResultStream, error) {
	document := params.Document
	if document == nil {
		doc, err := utils.ParseQuery(params.Query)
		if err != nil {
			return nil, err
		}
		document = doc
	}

	validation := graphql.ValidateDocument(params.Schema, document, c.server.config.ValidationRules)
	if !validation.IsValid || len(validation.Errors) > 0 {
		opLog.Debugf("operation failed validation with %d errors", len(validation.Errors))
		return stream.FromResults(&graphql.Result{Errors: validation.Errors}), nil
	}

	executor := c.server.config.Execute
	if c.server.config.Subscribe != nil && utils.IsSubscriptionOperation(document, params.OperationName) {
		executor = ExecuteFunc(c.server.config.Subscribe)
	}

	ctx, cancel := context.WithCancel(params.Context)
	result := executor(graphql.ExecuteParams{
		Schema:        *params.Schema,
		Root:          c.server.config.RootValue,
		AST:           document,
		OperationName: params.OperationName,
		Args:          params.Variables,
		Context:       ctx,
	})

	s, err := toResultStream(result, cancel)
	if err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// drive consumes the stream and emits data messages followed by exactly one
// terminal message
func (c *ConnectionContext) drive(op *Operation, s stream.ResultStream, params *ExecutionParams, opLog *logger.LogWrapper) {
	for {
		res, ok, err := s.Next(op.Context())
		if op.Cancelled() {
			opLog.Tracef("operation stopped")
			return
		}

		if err != nil {
			opLog.WithError(err).Errorf("operation stream failed")
			payload := c.formatError(err, params, opLog)
			op.Do(func() {
				c.sendError(op.ID, MsgError, payload)
			})
			c.finishOperation(op)
			return
		}

		if !ok {
			opLog.Tracef("operation has no more results")
			op.Do(func() {
				c.sendMessage(op.ID, MsgComplete, nil)
			})
			c.finishOperation(op)
			return
		}

		result := toExecutionResult(res)
		if params.FormatResponse != nil {
			formatted, ferr := formatResponse(params, result)
			if ferr != nil {
				opLog.WithError(ferr).Errorf("Error in formatResponse function")
				continue
			}
			if formatted != nil {
				result = formatted
			}
		}

		op.Do(func() {
			c.sendMessage(op.ID, MsgData, result)
		})
	}
}

// failOperation reports a structural failure and removes the operation
func (c *ConnectionContext) failOperation(op *Operation, err error, opLog *logger.LogWrapper) {
	opLog.WithError(err).Errorf("operation failed")
	op.Do(func() {
		c.sendError(op.ID, MsgError, ErrorPayload{Message: err.Error()})
	})
	c.finishOperation(op)
}

// formatError applies the configured error formatter and makes sure the
// resulting payload serializes to something meaningful
func (c *ConnectionContext) formatError(err error, params *ExecutionParams, opLog *logger.LogWrapper) interface{} {
	var payload interface{} = err

	if params.FormatError != nil {
		formatted, ferr := formatErrorSafe(params, err)
		if ferr != nil {
			opLog.WithError(ferr).Errorf("Error in formatError function")
		} else if formatted != nil {
			payload = formatted
		}
	}

	if e, ok := payload.(error); ok && isBareError(e) {
		return NamedErrorPayload{
			Name:    errorName(e),
			Message: e.Error(),
		}
	}

	return payload
}

func formatResponse(params *ExecutionParams, result *ExecutionResult) (formatted *ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatResponse panicked: %v", r)
		}
	}()
	return params.FormatResponse(result, params)
}

func formatErrorSafe(params *ExecutionParams, in error) (formatted interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatError panicked: %v", r)
		}
	}()
	return params.FormatError(in, params)
}

// isBareError returns true if err has no serializable attributes of its own
func isBareError(err error) bool {
	if _, ok := err.(json.Marshaler); ok {
		return false
	}

	b, merr := json.Marshal(err)
	if merr != nil {
		return true
	}

	switch string(b) {
	case "{}", "null", `""`:
		return true
	}
	return false
}

func errorName(err error) string {
	if named, ok := err.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "Error"
}
