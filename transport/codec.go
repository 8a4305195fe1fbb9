package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bhoriuchi/graphql-subscriptions-transport/utils"
)

// ParseError is returned when an inbound frame is not a valid message
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// wireMessage is the union of the current and legacy inbound shapes
type wireMessage struct {
	ID            json.RawMessage `json:"id,omitempty"`
	Type          MessageType     `json:"type"`
	Payload       interface{}     `json:"payload,omitempty"`
	Query         interface{}     `json:"query,omitempty"`
	Variables     interface{}     `json:"variables,omitempty"`
	OperationName interface{}     `json:"operationName,omitempty"`
}

// legacyStartMessage is a start message in the legacy shape where the
// operation fields live on the message itself
type legacyStartMessage struct {
	ID            string      `json:"id,omitempty"`
	Type          MessageType `json:"type"`
	Query         interface{} `json:"query,omitempty"`
	Variables     interface{} `json:"variables,omitempty"`
	OperationName interface{} `json:"operationName,omitempty"`
}

// Codec translates between raw frames and canonical messages. The dialect is
// negotiated once from the first decoded message and never changes.
type Codec struct {
	mx      sync.RWMutex
	dialect Dialect
}

// NewCodec creates a codec with an undecided dialect
func NewCodec() *Codec {
	return &Codec{}
}

// NewCodecWithDialect creates a codec whose dialect is already decided
func NewCodecWithDialect(d Dialect) *Codec {
	return &Codec{dialect: d}
}

// Dialect returns the negotiated dialect
func (c *Codec) Dialect() Dialect {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.dialect
}

// IsLegacy returns true if the connection speaks the legacy dialect
func (c *Codec) IsLegacy() bool {
	return c.Dialect() == DialectLegacy
}

// negotiate fixes the dialect if it has not been decided yet
func (c *Codec) negotiate(t MessageType) Dialect {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.dialect == DialectUndecided {
		if isLegacyType(t) {
			c.dialect = DialectLegacy
		} else {
			c.dialect = DialectCurrent
		}
	}

	return c.dialect
}

// Decode parses a raw frame into a canonical message
func (c *Codec) Decode(raw []byte) (*OperationMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Err: ErrNotAnObject}
	}

	w := wireMessage{}
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, &ParseError{Err: err}
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	c.negotiate(w.Type)

	msg := &OperationMessage{
		ID:      id,
		Type:    w.Type,
		Payload: w.Payload,
	}

	switch w.Type {
	case LegacyMsgInit:
		msg.Type = MsgConnectionInit

	case LegacyMsgSubscriptionStart:
		payload := map[string]interface{}{}
		if w.Query != nil {
			payload["query"] = w.Query
		}
		if w.Variables != nil {
			payload["variables"] = w.Variables
		}
		if w.OperationName != nil {
			payload["operationName"] = w.OperationName
		}
		msg.Type = MsgStart
		msg.Payload = payload

	case LegacyMsgSubscriptionEnd:
		msg.Type = MsgStop

	case LegacyMsgInitSuccess:
		msg.Type = MsgConnectionAck

	case LegacyMsgInitFail:
		msg.Type = MsgConnectionError
		if m, ok := w.Payload.(map[string]interface{}); ok {
			if e, ok := m["error"]; ok && len(m) == 1 {
				msg.Payload = map[string]interface{}{"message": e}
			}
		}

	case LegacyMsgSubscriptionData:
		msg.Type = MsgData

	case LegacyMsgSubscriptionFail:
		msg.Type = MsgError

	case LegacyMsgKeepAlive:
		msg.Type = MsgKeepAlive
	}

	return msg, nil
}

// Encode serializes a canonical message in the connection's dialect. A nil
// result with no error means the message does not exist in the dialect and
// must not be sent.
func (c *Codec) Encode(msg OperationMessage) ([]byte, error) {
	if c.Dialect() != DialectLegacy {
		if msg.Type == MsgSubscriptionSuccess {
			return nil, nil
		}
		return json.Marshal(msg)
	}

	out := msg
	switch msg.Type {
	case MsgConnectionAck:
		out.Type = LegacyMsgInitSuccess

	case MsgConnectionError:
		out.Type = LegacyMsgInitFail
		if message, ok := errorMessageOf(msg.Payload); ok {
			out.Payload = map[string]interface{}{"error": message}
		}

	case MsgError:
		out.Type = LegacyMsgSubscriptionFail

	case MsgData:
		out.Type = LegacyMsgSubscriptionData

	case MsgKeepAlive:
		out.Type = LegacyMsgKeepAlive

	case MsgComplete:
		return nil, nil

	case MsgConnectionInit:
		out.Type = LegacyMsgInit

	case MsgStop:
		out.Type = LegacyMsgSubscriptionEnd

	case MsgStart:
		payload := map[string]interface{}{}
		if msg.Payload != nil {
			if err := utils.ReMarshal(msg.Payload, &payload); err != nil {
				return nil, err
			}
		}
		return json.Marshal(legacyStartMessage{
			ID:            msg.ID,
			Type:          LegacyMsgSubscriptionStart,
			Query:         payload["query"],
			Variables:     payload["variables"],
			OperationName: payload["operationName"],
		})
	}

	return json.Marshal(out)
}

// decodeID accepts string ids and the numeric ids used by legacy clients
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return id, nil
	}

	var id json.Number
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", fmt.Errorf("invalid message id %s", string(raw))
	}
	return id.String(), nil
}

// errorMessageOf extracts a non-empty message from an error payload
func errorMessageOf(payload interface{}) (string, bool) {
	switch p := payload.(type) {
	case ErrorPayload:
		return p.Message, p.Message != ""
	case *ErrorPayload:
		if p != nil {
			return p.Message, p.Message != ""
		}
	case map[string]interface{}:
		if m, ok := p["message"].(string); ok && m != "" {
			return m, true
		}
	}
	return "", false
}
