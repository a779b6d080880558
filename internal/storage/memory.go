package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
)

// Memory is an in-process Store for offline use and tests.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

func NewMemory(bucket string) *Memory {
	return &Memory{bucket: bucket, objects: make(map[string][]byte)}
}

func (m *Memory) url(key string) string {
	u := url.URL{Scheme: "memory", Host: m.bucket, Path: "/" + key}
	return u.String()
}

func (m *Memory) IssuePutURL(_ context.Context, key string) (string, error) {
	return m.url(key), nil
}

func (m *Memory) IssueGetURL(_ context.Context, key string) (string, error) {
	return m.url(key), nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrStorage, ErrObjectNotFound)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Keys returns the stored keys in no particular order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
