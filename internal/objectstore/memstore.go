package objectstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used by engine tests so bronze/gold logic
// can be exercised without a live S3 endpoint or testcontainers-go/localstack.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func (m *MemStore) objectKey(bucket, key string) string { return bucket + "/" + key }

func (m *MemStore) Put(_ context.Context, bucket, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[m.objectKey(bucket, key)] = data

	return nil
}

func (m *MemStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := m.objectKey(bucket, prefix)

	var keys []string

	for k := range m.objects {
		if strings.HasPrefix(k, want) {
			keys = append(keys, strings.TrimPrefix(k, bucket+"/"))
		}
	}

	sort.Strings(keys)

	return keys, nil
}

func (m *MemStore) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[m.objectKey(bucket, key)]
	if !ok {
		return nil, ErrNoSuchObject
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}
