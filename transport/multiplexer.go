package transport

// startOperation registers a placeholder for id, stopping any operation
// already registered with the same id
func (c *ConnectionContext) startOperation(id string) *Operation {
	op := newOperation(c.ctx, id)
	if prev := c.mgr.Add(op); prev != nil {
		c.log.WithField("operationId", id).Debugf("replacing active operation")
		c.cancelOperation(prev)
	}
	return op
}

// stopOperation cancels and removes the operation for id. It is a no-op if
// the id is not registered.
func (c *ConnectionContext) stopOperation(id string) {
	if op := c.mgr.Remove(id); op != nil {
		c.cancelOperation(op)
	}
}

// finishOperation removes op after it completed or failed unless it has
// already been stopped or replaced
func (c *ConnectionContext) finishOperation(op *Operation) {
	if c.mgr.RemoveIf(op) {
		c.cancelOperation(op)
	}
}

// stopAll stops every registered operation
func (c *ConnectionContext) stopAll() {
	for _, id := range c.mgr.IDs() {
		c.stopOperation(id)
	}
}

func (c *ConnectionContext) cancelOperation(op *Operation) {
	op.Cancel()
	c.log.WithField("operationId", op.ID).Tracef("operation removed, %d remaining", c.mgr.Count())
	c.server.config.OnOperationComplete(c.socket, op.ID)
}
