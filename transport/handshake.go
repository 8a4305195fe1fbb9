package transport

import "sync"

// handshake is the deferred outcome of the connection_init exchange
type handshake struct {
	done  chan struct{}
	once  sync.Once
	value interface{}
	err   error
}

func newHandshake() *handshake {
	return &handshake{done: make(chan struct{})}
}

// resolvedHandshake returns a handshake that has already succeeded with value
func resolvedHandshake(value interface{}) *handshake {
	h := newHandshake()
	h.resolve(value, nil)
	return h
}

func (h *handshake) resolve(value interface{}, err error) {
	h.once.Do(func() {
		h.value = value
		h.err = err
		close(h.done)
	})
}

// wait blocks until the handshake is resolved or abort is closed
func (h *handshake) wait(abort <-chan struct{}) (interface{}, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-abort:
		return nil, errConnectionClosed
	}
}
