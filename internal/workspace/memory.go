package workspace

import (
	"context"
	"sync"
)

type MemoryBackend struct {
	mu    sync.Mutex
	state State
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(context.Context) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, nil
}

func (b *MemoryBackend) Update(_ context.Context, fn func(*State) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state
	if err := fn(&next); err != nil {
		return err
	}
	b.state = next
	return nil
}
