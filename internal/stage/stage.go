// Package stage drives one named asynchronous transformation (transcribe,
// summarize, translate, ask) with a tri-state result and a single-flight guard.
package stage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrInFlight is returned to a caller whose Execute arrived while another
// invocation of the same executor was still pending. No call was made for it.
var ErrInFlight = errors.New("stage invocation already pending")

// Result is the executor's observable state.
type Result[T any] struct {
	Status Status
	Value  T
	Err    string
	Code   utils.Code
}

// Stage defines one transformation. Validate and Apply are optional.
//
// Validate checks local prerequisites and must not perform I/O beyond reading
// the workspace. Call issues the single outbound request. Apply commits a
// successful value (workspace keys, chat history) and must be all-or-nothing.
type Stage[Req, T any] struct {
	Name     string
	Validate func(ctx context.Context, req Req) error
	Call     func(ctx context.Context, req Req) (T, error)
	Apply    func(ctx context.Context, value T) error
}

type Executor[Req, T any] struct {
	stage Stage[Req, T]
	log   logrus.FieldLogger

	mu       sync.Mutex
	result   Result[T]
	onChange func(Result[T])
}

func New[Req, T any](s Stage[Req, T], log logrus.FieldLogger) *Executor[Req, T] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Executor[Req, T]{
		stage:  s,
		log:    log.WithField("stage", s.Name),
		result: Result[T]{Status: StatusIdle},
	}
}

func (e *Executor[Req, T]) Name() string { return e.stage.Name }

// OnChange registers a callback fired after every state transition. It runs
// with the executor locked and must not call back into the executor.
func (e *Executor[Req, T]) OnChange(fn func(Result[T])) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Result returns a snapshot of the current state.
func (e *Executor[Req, T]) Result() Result[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// Pending reports whether an invocation is outstanding.
func (e *Executor[Req, T]) Pending() bool {
	return e.Result().Status == StatusPending
}

// Execute runs the stage once. While a previous invocation is pending it
// returns ErrInFlight without touching the state or issuing a call.
func (e *Executor[Req, T]) Execute(ctx context.Context, req Req) (T, error) {
	var zero T

	e.mu.Lock()
	if e.result.Status == StatusPending {
		e.mu.Unlock()
		e.log.Debug("ignoring invocation while pending")
		return zero, ErrInFlight
	}
	e.result = Result[T]{Status: StatusPending}
	e.notifyLocked()
	e.mu.Unlock()

	start := time.Now()
	value, err := e.run(ctx, req)
	log := e.log.WithField("latency_ms", time.Since(start).Milliseconds())

	e.mu.Lock()
	if err != nil {
		e.result = Result[T]{Status: StatusError, Err: utils.Message(err), Code: utils.CodeOf(err)}
		log.WithError(err).WithField("code", e.result.Code).Warn("stage failed")
	} else {
		e.result = Result[T]{Status: StatusSuccess, Value: value}
		log.Info("stage succeeded")
	}
	e.notifyLocked()
	e.mu.Unlock()

	if err != nil {
		return zero, err
	}
	return value, nil
}

func (e *Executor[Req, T]) run(ctx context.Context, req Req) (T, error) {
	var zero T

	if e.stage.Validate != nil {
		if err := e.stage.Validate(ctx, req); err != nil {
			return zero, err
		}
	}
	value, err := e.stage.Call(ctx, req)
	if err != nil {
		return zero, err
	}
	if e.stage.Apply != nil {
		if err := e.stage.Apply(ctx, value); err != nil {
			return zero, err
		}
	}
	return value, nil
}

// Reset returns a settled executor to idle. A pending executor is left alone.
func (e *Executor[Req, T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result.Status == StatusPending {
		return
	}
	e.result = Result[T]{Status: StatusIdle}
	e.notifyLocked()
}

// notifyLocked runs the callback under the lock so observers see transitions
// in order.
func (e *Executor[Req, T]) notifyLocked() {
	if e.onChange != nil {
		e.onChange(e.result)
	}
}
