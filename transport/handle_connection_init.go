package transport

import "fmt"

func (c *ConnectionContext) handleConnectionInit(msg *OperationMessage) {
	c.log.Tracef("received CONNECTION_INIT message")

	// operations started from here on wait for this handshake
	hs := newHandshake()
	c.setHandshake(hs)

	go func() {
		value, err := c.connect(msg.Payload)
		if err == nil {
			if ok, isBool := value.(bool); isBool && !ok {
				err = ErrProhibitedConnection
			}
		}

		if err != nil {
			c.log.WithError(err).Errorf("connection initialisation failed")
			c.sendError(msg.ID, MsgConnectionError, ErrorPayload{Message: err.Error()})
			hs.resolve(nil, err)
			c.closeAfterFlush(UnexpectedCondition, err.Error())
			return
		}

		c.log.Tracef("connection initialized")
		c.sendMessage("", MsgConnectionAck, nil)
		c.startKeepAlive()

		// resolve only after the ack was handed to the socket so it always
		// precedes operation messages
		hs.resolve(value, nil)
	}()
}

// connect runs the connect hook, turning a panic into an error
func (c *ConnectionContext) connect(payload interface{}) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("onConnect hook panicked: %v", r)
		}
	}()

	return c.server.config.OnConnect(payload, c.socket, c)
}
