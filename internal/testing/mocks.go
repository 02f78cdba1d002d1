package testing

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockAttachmentStore is an in-memory attachment store for testing.
// It satisfies any store interface with a matching Save method.
type MockAttachmentStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	err   error
}

// NewMockAttachmentStore creates a new mock attachment store
func NewMockAttachmentStore() *MockAttachmentStore {
	return &MockAttachmentStore{blobs: make(map[string][]byte)}
}

// SetError sets the error to return from Save
func (m *MockAttachmentStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Save stores the payload and returns a deterministic reference
func (m *MockAttachmentStore) Save(ctx context.Context, tradeID int64, filename, contentType string, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("mock://trade_%d/%s", tradeID, filename)
	m.blobs[ref] = data
	return ref, nil
}

// Get returns the stored payload for ref
func (m *MockAttachmentStore) Get(ref string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[ref]
	return data, ok
}

// Count returns the number of stored payloads
func (m *MockAttachmentStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
