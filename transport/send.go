package transport

// sendMessage encodes msg in the connection's dialect and writes it if the
// socket is open. An operation message that cannot be encoded is replaced by
// an error message for the same id.
func (c *ConnectionContext) sendMessage(id string, t MessageType, payload interface{}) {
	msg := OperationMessage{
		ID:      id,
		Type:    t,
		Payload: payload,
	}

	data, err := c.codec.Encode(msg)
	if err != nil {
		c.log.WithError(err).Errorf("failed to encode %s message", t)
		if id != "" && t != MsgError {
			c.sendMessage(id, MsgError, ErrorPayload{Message: err.Error()})
		}
		return
	}

	// not part of the connection's dialect
	if data == nil {
		return
	}

	if c.socket.ReadyState() != StateOpen {
		c.log.Tracef("socket not open, dropping %s message", t)
		return
	}

	if err := c.socket.Send(string(data)); err != nil {
		c.log.WithError(err).Warnf("failed to send %s message", t)
	}
}

// sendError sends an error or connection_error message
func (c *ConnectionContext) sendError(id string, t MessageType, payload interface{}) {
	if t != MsgError && t != MsgConnectionError {
		c.log.Errorf("%q is not an error message type, sending %q", t, MsgError)
		t = MsgError
	}
	c.sendMessage(id, t, payload)
}
