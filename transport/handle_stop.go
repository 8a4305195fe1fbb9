package transport

func (c *ConnectionContext) handleStop(msg *OperationMessage) {
	c.log.WithField("operationId", msg.ID).Debugf("received STOP message")
	if msg.ID != "" {
		c.stopOperation(msg.ID)
	}
}

func (c *ConnectionContext) handleConnectionTerminate(msg *OperationMessage) {
	c.log.Debugf("received CONNECTION_TERMINATE message")
	if err := c.socket.Close(NormalClosure, "Client requested normal closure: terminate request"); err != nil {
		c.log.WithError(err).Errorf("failed to close websocket")
	}
}
