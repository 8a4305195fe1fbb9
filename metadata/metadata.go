// Package metadata attaches a mutable set of named values to a context. The
// subscriptions transport seeds it with the handshake value of a connection
// so resolvers and hooks can read who is connected.
package metadata

import (
	"context"
	"sync"
)

type metadataKey struct{}

// MetadataKey is the context key of the metadata store
var MetadataKey interface{} = metadataKey{}

// Fields is a set of named values carried by a metadata context
type Fields map[string]interface{}

type store struct {
	mx     sync.RWMutex
	fields Fields
}

// New creates a new metadata context
func New() context.Context {
	return NewWithContext(context.Background())
}

// NewWithContext creates a new, empty metadata store on top of ctx
func NewWithContext(ctx context.Context) context.Context {
	return NewWithFields(ctx, nil)
}

// NewWithFields creates a metadata store on top of ctx holding a shallow
// copy of fields
func NewWithFields(ctx context.Context, fields Fields) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &store{fields: Fields{}}
	for k, v := range fields {
		s.fields[k] = v
	}
	return context.WithValue(ctx, MetadataKey, s)
}

func getStore(ctx context.Context) *store {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(MetadataKey).(*store)
	return s
}

// Copy returns a shallow copy of the metadata fields
func Copy(ctx context.Context) Fields {
	fields := Fields{}
	s := getStore(ctx)
	if s == nil {
		return fields
	}

	s.mx.RLock()
	defer s.mx.RUnlock()
	for k, v := range s.fields {
		fields[k] = v
	}
	return fields
}

// Set sets the value in the metadata
func Set(ctx context.Context, key string, value interface{}) bool {
	s := getStore(ctx)
	if key == "" || s == nil {
		return false
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	s.fields[key] = value
	return true
}

// Delete deletes the metadata
func Delete(ctx context.Context, key string) bool {
	s := getStore(ctx)
	if key == "" || s == nil {
		return false
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	if _, ok := s.fields[key]; !ok {
		return false
	}
	delete(s.fields, key)
	return true
}

// Read reads a value from the metadata
func Read(ctx context.Context, key string) (interface{}, bool) {
	s := getStore(ctx)
	if key == "" || s == nil {
		return nil, false
	}

	s.mx.RLock()
	defer s.mx.RUnlock()
	val, ok := s.fields[key]
	return val, ok
}

// ReadString reads a string from the metadata
func ReadString(ctx context.Context, key string) (string, bool) {
	value, _ := Read(ctx, key)
	v, ok := value.(string)
	return v, ok
}

// ReadBool reads a boolean from the metadata
func ReadBool(ctx context.Context, key string) (bool, bool) {
	value, _ := Read(ctx, key)
	v, ok := value.(bool)
	return v, ok
}

// ReadInt reads an int from the metadata
func ReadInt(ctx context.Context, key string) (int, bool) {
	value, _ := Read(ctx, key)
	v, ok := value.(int)
	return v, ok
}
