package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"ArxivReader/internal/ports"
)

// MemorySlots keeps slots in process memory; nothing survives a restart.
type MemorySlots struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[string][]chan struct{}
}

var (
	_ ports.SlotStore   = (*MemorySlots)(nil)
	_ ports.SlotWatcher = (*MemorySlots)(nil)
)

// NewMemorySlots returns an empty store.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{data: map[string][]byte{}, watchers: map[string][]chan struct{}{}}
}

func (m *MemorySlots) Read(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ports.ErrSlotNotFound)
	}
	return slices.Clone(v), nil
}

func (m *MemorySlots) Write(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = slices.Clone(data)
	for _, ch := range m.watchers[name] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Watch blocks until ctx is done, calling onChange after each Write.
func (m *MemorySlots) Watch(ctx context.Context, name string, onChange func()) error {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	m.watchers[name] = append(m.watchers[name], ch)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.watchers[name] = slices.DeleteFunc(m.watchers[name], func(c chan struct{}) bool { return c == ch })
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			onChange()
		}
	}
}

func (m *MemorySlots) Close() error { return nil }
