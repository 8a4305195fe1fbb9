package pubsub

import (
	"context"
	"sync"
)

// DefaultBufferSize per subscriber buffer of the in-memory backend
const DefaultBufferSize = 16

type memorySubscriber struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func (s *memorySubscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Memory is an in-process PubSub. A slow subscriber blocks publishers of
// its topic until it reads or unsubscribes.
type Memory struct {
	mx     sync.RWMutex
	topics map[string]map[*memorySubscriber]struct{}
	closed bool
}

// NewMemory creates an in-memory PubSub
func NewMemory() *Memory {
	return &Memory{
		topics: map[string]map[*memorySubscriber]struct{}{},
	}
}

// Publish implements PubSub
func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mx.RLock()
	if m.closed {
		m.mx.RUnlock()
		return ErrClosed
	}
	subs := make([]*memorySubscriber, 0, len(m.topics[topic]))
	for sub := range m.topics[topic] {
		subs = append(subs, sub)
	}
	m.mx.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- payload:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe implements PubSub
func (m *Memory) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	sub := &memorySubscriber{
		ch:   make(chan []byte, DefaultBufferSize),
		done: make(chan struct{}),
	}

	m.mx.Lock()
	if m.closed {
		m.mx.Unlock()
		return nil, ErrClosed
	}
	if _, ok := m.topics[topic]; !ok {
		m.topics[topic] = map[*memorySubscriber]struct{}{}
	}
	m.topics[topic][sub] = struct{}{}
	m.mx.Unlock()

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer m.unsubscribe(topic, sub)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			case payload := <-sub.ch:
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				case <-sub.done:
					return
				}
			}
		}
	}()

	return out, nil
}

func (m *Memory) unsubscribe(topic string, sub *memorySubscriber) {
	sub.close()

	m.mx.Lock()
	defer m.mx.Unlock()
	if subs, ok := m.topics[topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(m.topics, topic)
		}
	}
}

// Close ends every subscription
func (m *Memory) Close() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	for _, subs := range m.topics {
		for sub := range subs {
			sub.close()
		}
	}
	return nil
}
