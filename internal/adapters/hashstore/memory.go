// Package hashstore implements the Memory and File HashStore variants (spec
// §4.8).
package hashstore

import (
	"sync"

	"go.trai.ch/watchdag/internal/core/ports"
)

var (
	_ ports.HashStore = (*Memory)(nil)
	_ ports.HashStore = (*File)(nil)
)

// Memory is an in-process HashStore; its contents are lost on restart.
type Memory struct {
	mu      sync.Mutex
	digests map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{digests: make(map[string]string)}
}

func (m *Memory) Load(task string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	digest, ok := m.digests[task]
	return digest, ok, nil
}

func (m *Memory) Save(task string, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digests[task] = digest
	return nil
}

func (m *Memory) Prune(activeTasks []string) error {
	active := make(map[string]struct{}, len(activeTasks))
	for _, t := range activeTasks {
		active[t] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for task := range m.digests {
		if _, ok := active[task]; !ok {
			delete(m.digests, task)
		}
	}
	return nil
}
