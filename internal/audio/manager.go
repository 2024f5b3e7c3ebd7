// Package audio owns spoken playback of pipeline text. At most one session
// plays at a time, and every acquired audio resource is released exactly once
// whichever way the session ends.
package audio

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StatePlaying    State = "playing"
	StateStopped    State = "stopped"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeFinished    Outcome = "finished"
	OutcomeInterrupted Outcome = "interrupted"
	OutcomeFailed      Outcome = "failed"
)

// Handle is an acquired playable resource. Only the Port that produced it
// knows what it is.
type Handle any

// Port acquires, plays and releases audio. Play blocks until playback ends or
// ctx is cancelled.
type Port interface {
	Acquire(ctx context.Context, text, lang string) (Handle, error)
	Play(ctx context.Context, h Handle) error
	Release(h Handle) error
}

// Event is emitted on every state change. Outcome and Err are set on the
// terminal states.
type Event struct {
	Session uint64
	State   State
	Outcome Outcome
	Err     error
}

type session struct {
	id      uint64
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool

	handle    Handle
	hasHandle bool

	outcome Outcome
	err     error
}

type Manager struct {
	port Port
	log  logrus.FieldLogger

	// startMu serializes Start so two callers cannot interleave their
	// stop-then-acquire sequences.
	startMu sync.Mutex

	mu      sync.Mutex
	state   State
	nextID  uint64
	current *session
	last    *session
	onEvent func(Event)
}

func NewManager(port Port, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		port:  port,
		log:   log.WithField("component", "audio"),
		state: StateIdle,
	}
}

// OnEvent registers a callback for state changes. It runs with the manager
// locked and must not call back into the manager.
func (m *Manager) OnEvent(fn func(Event)) {
	m.mu.Lock()
	m.onEvent = fn
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start stops whatever is playing, acquires audio for text and begins
// playback in the background. It returns once playback has started, or with a
// RESOURCE_ACQUISITION error when the audio could not be obtained. A Stop that
// lands during acquisition makes Start return nil with the session
// interrupted.
func (m *Manager) Start(ctx context.Context, text, lang string) error {
	const op = "Audio.Start"

	if strings.TrimSpace(text) == "" {
		return utils.E(utils.CodeEmptyInput, op, "nothing to speak", nil)
	}

	// Stop before queueing on startMu so a slow acquisition in progress is
	// cancelled instead of waited out, then again under the lock.
	m.Stop()
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.Stop()

	sctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.nextID++
	s := &session{id: m.nextID, cancel: cancel, done: make(chan struct{})}
	m.current = s
	m.setStateLocked(s, StateRequesting, nil)
	m.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{"session": s.id, "lang": lang})
	h, err := m.port.Acquire(sctx, text, lang)

	m.mu.Lock()
	stopped := s.stopped
	if err == nil {
		s.handle, s.hasHandle = h, true
	}
	if err == nil && !stopped {
		m.setStateLocked(s, StatePlaying, nil)
	}
	m.mu.Unlock()

	switch {
	case stopped:
		// A late handle is released here and never reported as playing.
		log.Debug("acquisition superseded by stop")
		m.finish(s, OutcomeInterrupted, nil)
		return nil
	case err != nil:
		aerr := utils.E(utils.CodeResourceAcquisition, op, "failed to acquire audio", err)
		log.WithError(err).Warn("audio acquisition failed")
		m.finish(s, OutcomeFailed, aerr)
		return aerr
	}

	go m.play(sctx, s, log)
	return nil
}

func (m *Manager) play(ctx context.Context, s *session, log logrus.FieldLogger) {
	err := m.port.Play(ctx, s.handle)

	m.mu.Lock()
	stopped := s.stopped
	m.mu.Unlock()

	switch {
	case stopped || ctx.Err() != nil:
		m.finish(s, OutcomeInterrupted, nil)
	case err != nil:
		log.WithError(err).Warn("playback failed")
		m.finish(s, OutcomeFailed, utils.E(utils.CodeResourceAcquisition, "Audio.Play", "playback failed", err))
	default:
		m.finish(s, OutcomeFinished, nil)
	}
}

// finish runs once per session, on the goroutine that owns it.
func (m *Manager) finish(s *session, outcome Outcome, cause error) {
	if s.hasHandle {
		if err := m.port.Release(s.handle); err != nil {
			m.log.WithError(err).WithField("session", s.id).Warn("failed to release audio")
		}
	}
	s.cancel()

	m.mu.Lock()
	s.outcome, s.err = outcome, cause
	m.setStateLocked(s, terminalState(outcome), cause)
	if m.current == s {
		m.current = nil
	}
	m.last = s
	m.setStateLocked(s, StateIdle, nil)
	m.mu.Unlock()

	close(s.done)
}

// Stop interrupts the current session and returns after its resources have
// been released. It is a no-op when idle.
func (m *Manager) Stop() {
	m.mu.Lock()
	s := m.current
	if s == nil {
		m.mu.Unlock()
		return
	}
	s.stopped = true
	m.mu.Unlock()

	s.cancel()
	<-s.done
}

// Wait blocks until the current session ends and reports how it ended. With
// no current session it returns the outcome of the last one.
func (m *Manager) Wait(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	s := m.current
	if s == nil {
		s = m.last
	}
	m.mu.Unlock()

	if s == nil {
		return OutcomeNone, nil
	}
	select {
	case <-s.done:
		return s.outcome, s.err
	case <-ctx.Done():
		return OutcomeNone, ctx.Err()
	}
}

func (m *Manager) setStateLocked(s *session, st State, err error) {
	m.state = st
	if m.onEvent == nil {
		return
	}
	ev := Event{Session: s.id, State: st, Err: err}
	switch st {
	case StateStopped, StateCompleted, StateFailed:
		ev.Outcome = s.outcome
	}
	m.onEvent(ev)
}

func terminalState(o Outcome) State {
	switch o {
	case OutcomeFinished:
		return StateCompleted
	case OutcomeInterrupted:
		return StateStopped
	default:
		return StateFailed
	}
}
