// Package stream provides the lazy result sequences produced by executing an
// operation. A stream is either plain or cancelable; cancelable streams
// implement Canceler and accept a best-effort early termination request.
package stream

import (
	"context"
	"sync"

	"github.com/graphql-go/graphql"
)

// ResultStream is a lazy, possibly unbounded sequence of execution results.
type ResultStream interface {
	// Next blocks until the next result is produced. ok is false once the
	// sequence is exhausted.
	Next(ctx context.Context) (result *graphql.Result, ok bool, err error)
}

// Canceler is implemented by streams that support early termination.
type Canceler interface {
	Cancel()
}

// Cancel requests early termination of s and reports whether s supports it.
func Cancel(s ResultStream) bool {
	if c, ok := s.(Canceler); ok {
		c.Cancel()
		return true
	}
	return false
}

// IsCancelable returns true if the stream supports early termination
func IsCancelable(s ResultStream) bool {
	_, ok := s.(Canceler)
	return ok
}

// Func adapts a function to a plain ResultStream
type Func func(ctx context.Context) (*graphql.Result, bool, error)

// Next calls f
func (f Func) Next(ctx context.Context) (*graphql.Result, bool, error) {
	return f(ctx)
}

// sliceStream yields a fixed list of results
type sliceStream struct {
	mx      sync.Mutex
	results []*graphql.Result
}

// FromResults creates a plain stream yielding the results in order
func FromResults(results ...*graphql.Result) ResultStream {
	return &sliceStream{results: results}
}

// Empty creates a plain stream that is already exhausted
func Empty() ResultStream {
	return &sliceStream{}
}

func (s *sliceStream) Next(ctx context.Context) (*graphql.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	if len(s.results) == 0 {
		return nil, false, nil
	}

	next := s.results[0]
	s.results = s.results[1:]
	return next, true, nil
}

// channelStream reads results from a channel until it is closed
type channelStream struct {
	ch <-chan *graphql.Result
}

func (s *channelStream) Next(ctx context.Context) (*graphql.Result, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res, more := <-s.ch:
		if !more {
			return nil, false, nil
		}
		return res, true, nil
	}
}

// cancelableChannelStream is a channelStream whose producer can be stopped
type cancelableChannelStream struct {
	channelStream
	cancel context.CancelFunc
	once   sync.Once
}

// Cancel stops the producer and drains whatever it still has in flight so a
// producer blocked on send can observe the cancellation and close the channel.
func (s *cancelableChannelStream) Cancel() {
	s.once.Do(func() {
		s.cancel()
		go func() {
			for range s.ch {
			}
		}()
	})
}

// FromChannel creates a stream over ch. When cancel is non-nil the stream is
// cancelable and cancel is used to stop the producer.
func FromChannel(ch <-chan *graphql.Result, cancel context.CancelFunc) ResultStream {
	if cancel == nil {
		return &channelStream{ch: ch}
	}

	return &cancelableChannelStream{
		channelStream: channelStream{ch: ch},
		cancel:        cancel,
	}
}

// cancelableStream tags an arbitrary stream with a cancel function
type cancelableStream struct {
	ResultStream
	cancel func()
	once   sync.Once
}

func (s *cancelableStream) Cancel() {
	s.once.Do(s.cancel)
}

// WithCancel returns a cancelable stream that delegates to s and calls cancel
// once when canceled.
func WithCancel(s ResultStream, cancel func()) ResultStream {
	if cancel == nil {
		return s
	}
	return &cancelableStream{ResultStream: s, cancel: cancel}
}
