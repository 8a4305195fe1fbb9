package transport

import "github.com/bhoriuchi/graphql-subscriptions-transport/utils/interval"

// startKeepAlive sends a keep-alive right away and then once per interval
// while the socket is open. It only ever starts once per connection.
func (c *ConnectionContext) startKeepAlive() {
	every := c.server.config.KeepAlive
	if every <= 0 {
		return
	}

	c.kaOnce.Do(func() {
		c.log.Tracef("sending KEEP_ALIVE message")
		c.sendMessage("", MsgKeepAlive, nil)

		ka := interval.SetInterval(func(i *interval.Interval) {
			if c.socket.ReadyState() != StateOpen {
				c.log.Tracef("socket no longer open, clearing keep-alive")
				i.Clear()
				return
			}
			c.log.Tracef("sending KEEP_ALIVE message")
			c.sendMessage("", MsgKeepAlive, nil)
		}, every)

		c.kaMx.Lock()
		defer c.kaMx.Unlock()
		c.ka = ka
		if c.isClosed() {
			ka.Clear()
		}
	})
}

func (c *ConnectionContext) stopKeepAlive() {
	c.kaMx.Lock()
	defer c.kaMx.Unlock()

	if c.ka != nil {
		c.ka.Clear()
	}
}
