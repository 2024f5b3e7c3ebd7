// Package workspace holds the pipeline artifacts of one session: the source
// reference, the transcript and where it came from, and the summary. Values are
// replaced whole; a multi-key Commit lands completely or not at all.
package workspace

import (
	"context"
	"sync"

	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type Key string

const (
	KeySourceReference  Key = "sourceReference"
	KeyTranscript       Key = "transcript"
	KeyTranscriptSource Key = "transcriptSource"
	KeySummary          Key = "summary"
)

// Keys lists every persisted key in display order.
var Keys = []Key{KeySourceReference, KeyTranscript, KeyTranscriptSource, KeySummary}

func (k Key) Valid() bool {
	switch k {
	case KeySourceReference, KeyTranscript, KeyTranscriptSource, KeySummary:
		return true
	}
	return false
}

// State is the persisted workspace document. Absent artifacts are nil.
type State struct {
	SourceReference  *string `json:"sourceReference,omitempty"`
	Transcript       *string `json:"transcript,omitempty"`
	TranscriptSource *string `json:"transcriptSource,omitempty"`
	Summary          *string `json:"summary,omitempty"`
}

func (s *State) field(k Key) **string {
	switch k {
	case KeySourceReference:
		return &s.SourceReference
	case KeyTranscript:
		return &s.Transcript
	case KeyTranscriptSource:
		return &s.TranscriptSource
	case KeySummary:
		return &s.Summary
	}
	return nil
}

// Value returns the artifact stored under k.
func (s State) Value(k Key) (string, bool) {
	f := s.field(k)
	if f == nil || *f == nil {
		return "", false
	}
	return **f, true
}

func (s *State) set(k Key, v string) {
	if f := s.field(k); f != nil {
		*f = &v
	}
}

func (s *State) clear(k Key) {
	if f := s.field(k); f != nil {
		*f = nil
	}
}

// Backend persists the whole State. Update must run fn against the latest
// stored state and persist the result only when fn returns nil.
type Backend interface {
	Load(ctx context.Context) (State, error)
	Update(ctx context.Context, fn func(*State) error) error
}

// Store is the workspace handed to stage executors and the audio manager.
type Store struct {
	backend Backend
	mu      sync.Mutex
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// NewMemory returns a store that lives as long as the process.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

func (s *Store) Get(ctx context.Context, key Key) (string, bool, error) {
	const op = "Workspace.Get"

	if !key.Valid() {
		return "", false, utils.E(utils.CodeInvalidArgument, op, "unknown workspace key "+string(key), nil)
	}
	st, err := s.backend.Load(ctx)
	if err != nil {
		return "", false, utils.E(utils.CodeInternal, op, "failed to load workspace", err)
	}
	v, ok := st.Value(key)
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key Key, value string) error {
	return s.Commit(ctx, map[Key]string{key: value})
}

func (s *Store) Clear(ctx context.Context, key Key) error {
	return s.Commit(ctx, nil, key)
}

// Commit writes every key in values and clears every key in clear as a single
// update. Nothing is written if any key is unknown or the backend fails.
func (s *Store) Commit(ctx context.Context, values map[Key]string, clear ...Key) error {
	if err := checkKeys("Workspace.Commit", values, clear); err != nil {
		return err
	}
	return s.CommitFunc(ctx, func(State) (map[Key]string, []Key, error) {
		return values, clear, nil
	})
}

// CommitIf is Commit guarded by check, which sees the latest stored state
// inside the same update. When check fails nothing is written and its error is
// returned as is.
func (s *Store) CommitIf(ctx context.Context, check func(State) error, values map[Key]string, clear ...Key) error {
	if err := checkKeys("Workspace.CommitIf", values, clear); err != nil {
		return err
	}
	return s.CommitFunc(ctx, func(st State) (map[Key]string, []Key, error) {
		if err := check(st); err != nil {
			return nil, nil, err
		}
		return values, clear, nil
	})
}

// CommitFunc derives the keys to write and clear from the latest stored state
// and applies them in one update. plan may run more than once when the
// backend retries, so it must not have side effects.
func (s *Store) CommitFunc(ctx context.Context, plan func(State) (map[Key]string, []Key, error)) error {
	const op = "Workspace.Commit"

	s.mu.Lock()
	defer s.mu.Unlock()

	var planErr error
	err := s.backend.Update(ctx, func(st *State) error {
		planErr = nil
		values, clear, err := plan(*st)
		if err == nil {
			err = checkKeys(op, values, clear)
		}
		if err != nil {
			planErr = err
			return err
		}
		for _, k := range clear {
			st.clear(k)
		}
		for k, v := range values {
			st.set(k, v)
		}
		return nil
	})
	if err != nil {
		if planErr != nil {
			return planErr
		}
		return utils.E(utils.CodeInternal, op, "failed to persist workspace", err)
	}
	return nil
}

func checkKeys(op string, values map[Key]string, clear []Key) error {
	for k := range values {
		if !k.Valid() {
			return utils.E(utils.CodeInvalidArgument, op, "unknown workspace key "+string(k), nil)
		}
	}
	for _, k := range clear {
		if !k.Valid() {
			return utils.E(utils.CodeInvalidArgument, op, "unknown workspace key "+string(k), nil)
		}
	}
	return nil
}

// Snapshot returns a copy of the whole workspace.
func (s *Store) Snapshot(ctx context.Context) (State, error) {
	st, err := s.backend.Load(ctx)
	if err != nil {
		return State{}, utils.E(utils.CodeInternal, "Workspace.Snapshot", "failed to load workspace", err)
	}
	return st, nil
}

// Reset clears every artifact.
func (s *Store) Reset(ctx context.Context) error {
	return s.Commit(ctx, nil, Keys...)
}
