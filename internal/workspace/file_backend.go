package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// FileBackend stores the workspace as JSON on disk so it survives between CLI
// invocations. A sibling lock file serialises read-modify-write across processes.
type FileBackend struct {
	path string
	lock *flock.Flock
}

func NewFileBackend(dir, sessionID string) (*FileBackend, error) {
	if sessionID == "" {
		sessionID = "default"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	path := filepath.Join(dir, sessionID+".json")
	return &FileBackend{path: path, lock: flock.New(path + ".lock")}, nil
}

func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Load(ctx context.Context) (State, error) {
	ok, err := b.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return State{}, fmt.Errorf("lock workspace: %w", err)
	}
	if !ok {
		return State{}, errors.New("lock workspace: not acquired")
	}
	defer b.lock.Unlock()
	return b.read()
}

func (b *FileBackend) Update(ctx context.Context, fn func(*State) error) error {
	ok, err := b.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock workspace: %w", err)
	}
	if !ok {
		return errors.New("lock workspace: not acquired")
	}
	defer b.lock.Unlock()

	st, err := b.read()
	if err != nil {
		return err
	}
	if err := fn(&st); err != nil {
		return err
	}
	return b.write(st)
}

func (b *FileBackend) read() (State, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read workspace: %w", err)
	}
	var st State
	if len(raw) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode workspace %s: %w", b.path, err)
	}
	return st, nil
}

// write replaces the file through a rename so readers never see half a document.
func (b *FileBackend) write(st State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write workspace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write workspace: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write workspace: %w", err)
	}
	return nil
}
