package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bhoriuchi/graphql-subscriptions-transport/transport/stream"
)

// Operation is a single active operation on a connection. It starts as a
// placeholder that only reserves the id and is attached to its result stream
// once execution begins.
type Operation struct {
	ID string

	mx        sync.Mutex
	ctx       context.Context
	cancelCtx context.CancelFunc
	stream    stream.ResultStream
	cancelled atomic.Bool
}

func newOperation(ctx context.Context, id string) *Operation {
	ctx, cancel := context.WithCancel(ctx)
	return &Operation{
		ID:        id,
		ctx:       ctx,
		cancelCtx: cancel,
	}
}

// Context is canceled when the operation is stopped
func (o *Operation) Context() context.Context {
	return o.ctx
}

// Attach replaces the placeholder with the executing stream. It returns false
// when the operation was stopped in the meantime, in which case the caller
// owns the stream and must cancel it.
func (o *Operation) Attach(s stream.ResultStream) bool {
	o.mx.Lock()
	defer o.mx.Unlock()

	if o.cancelled.Load() {
		return false
	}

	o.stream = s
	return true
}

// Stream returns the attached stream or nil for a placeholder
func (o *Operation) Stream() stream.ResultStream {
	o.mx.Lock()
	defer o.mx.Unlock()
	return o.stream
}

// Cancelled returns true once Cancel has been called
func (o *Operation) Cancelled() bool {
	return o.cancelled.Load()
}

// Cancel requests termination. The operation context is canceled before
// Cancel waits for a running Do, and once Cancel returns Do never runs again.
func (o *Operation) Cancel() {
	if !o.cancelled.CompareAndSwap(false, true) {
		return
	}
	o.cancelCtx()

	o.mx.Lock()
	s := o.stream
	o.mx.Unlock()

	if s != nil {
		stream.Cancel(s)
	}
}

// Do runs f unless the operation has been cancelled. Cancellation waits for
// a running f so nothing is sent for the operation after Cancel returns.
// f is a single socket send, so the wait is bounded by the socket's own
// write limit.
func (o *Operation) Do(f func()) bool {
	o.mx.Lock()
	defer o.mx.Unlock()

	if o.cancelled.Load() {
		return false
	}

	f()
	return true
}

// OperationManager is the operation table of a connection
type OperationManager struct {
	mx         sync.RWMutex
	operations map[string]*Operation
}

// NewOperationManager creates an empty operation table
func NewOperationManager() *OperationManager {
	return &OperationManager{
		operations: map[string]*Operation{},
	}
}

// Count returns the number of active operations
// can be used for diagnostics
func (m *OperationManager) Count() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.operations)
}

// Has returns true if the operation exists
func (m *OperationManager) Has(id string) bool {
	m.mx.RLock()
	defer m.mx.RUnlock()

	_, ok := m.operations[id]
	return ok
}

// Get returns the operation for id or nil
func (m *OperationManager) Get(id string) *Operation {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.operations[id]
}

// IDs returns the ids of all active operations
func (m *OperationManager) IDs() []string {
	m.mx.RLock()
	defer m.mx.RUnlock()

	ids := make([]string, 0, len(m.operations))
	for id := range m.operations {
		ids = append(ids, id)
	}
	return ids
}

// Add registers op and returns the operation it replaced, if any
func (m *OperationManager) Add(op *Operation) *Operation {
	m.mx.Lock()
	defer m.mx.Unlock()

	prev := m.operations[op.ID]
	m.operations[op.ID] = op
	return prev
}

// Remove removes a single operation and returns it
func (m *OperationManager) Remove(id string) *Operation {
	m.mx.Lock()
	defer m.mx.Unlock()

	op, ok := m.operations[id]
	if ok {
		delete(m.operations, id)
	}
	return op
}

// RemoveIf removes op only if it is still the registered operation for its id
func (m *OperationManager) RemoveIf(op *Operation) bool {
	m.mx.Lock()
	defer m.mx.Unlock()

	if current, ok := m.operations[op.ID]; ok && current == op {
		delete(m.operations, op.ID)
		return true
	}
	return false
}
