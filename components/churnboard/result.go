package churnboard

import (
	"context"
	"sync"
)

// State is the lifecycle stage of a single request slot.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Result is the outcome of one fetch site. Data holds the last successful
// payload; HasData tells whether it is meaningful. Only slots marked with
// KeepPrevious carry data through loading and failure.
type Result[T any] struct {
	State   State  `json:"state"`
	Data    T      `json:"data"`
	HasData bool   `json:"has_data"`
	Message string `json:"error,omitempty"`
}

// Idle returns an empty result.
func Idle[T any]() Result[T] {
	return Result[T]{State: StateIdle}
}

// Success wraps a fetched payload.
func Success[T any](data T) Result[T] {
	return Result[T]{State: StateSuccess, Data: data, HasData: true}
}

// Failure wraps a user-facing error message.
func Failure[T any](message string) Result[T] {
	return Result[T]{State: StateError, Message: message}
}

func (r Result[T]) IsLoading() bool { return r.State == StateLoading }
func (r Result[T]) IsError() bool   { return r.State == StateError }
func (r Result[T]) IsSuccess() bool { return r.State == StateSuccess }

// Ticket identifies one fetch generation of a Slot.
type Ticket struct {
	gen uint64
}

// Slot owns a Result and guards it against stale responses. Every Begin
// starts a new generation and cancels the in-flight one; only the newest
// generation may commit.
type Slot[T any] struct {
	mu     sync.Mutex
	gen    uint64
	keep   bool
	result Result[T]
	cancel context.CancelFunc
}

// KeepPrevious makes the slot hold its last successful data while a
// refresh is loading and after it fails. By default data is dropped.
func (s *Slot[T]) KeepPrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keep = true
}

// Begin marks the slot loading and returns a context bound to this
// generation.
func (s *Slot[T]) Begin(ctx context.Context) (context.Context, Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	if !s.keep {
		s.clearData()
	}
	s.result.State = StateLoading
	s.result.Message = ""
	return runCtx, Ticket{gen: s.gen}
}

// Resolve commits data for the ticket's generation. Stale tickets are
// ignored and reported as false.
func (s *Slot[T]) Resolve(t Ticket, data T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.gen {
		return false
	}
	s.release()
	s.result = Success(data)
	return true
}

// Fail records an error for the ticket's generation. Data survives only
// on KeepPrevious slots.
func (s *Slot[T]) Fail(t Ticket, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.gen {
		return false
	}
	s.release()
	if !s.keep {
		s.clearData()
	}
	s.result.State = StateError
	s.result.Message = message
	return true
}

// Dismiss clears a visible error.
func (s *Slot[T]) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result.State != StateError {
		return
	}
	s.result.Message = ""
	if s.result.HasData {
		s.result.State = StateSuccess
	} else {
		s.result.State = StateIdle
	}
}

// Reset drops data and cancels any in-flight generation.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.result = Idle[T]()
}

// Snapshot returns a copy of the current result.
func (s *Slot[T]) Snapshot() Result[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Run executes fetch as a new generation and commits the outcome. describe
// turns an error into the message shown to the viewer.
func (s *Slot[T]) Run(ctx context.Context, fetch func(context.Context) (T, error), describe func(error) string) (Result[T], error) {
	runCtx, ticket := s.Begin(ctx)
	data, err := fetch(runCtx)
	if err != nil {
		s.Fail(ticket, describe(err))
		return s.Snapshot(), err
	}
	s.Resolve(ticket, data)
	return s.Snapshot(), nil
}

func (s *Slot[T]) clearData() {
	var zero T
	s.result.Data = zero
	s.result.HasData = false
}

func (s *Slot[T]) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
