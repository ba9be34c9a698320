package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	createdAt   time.Time
}

// MemoryStore is an in-memory ObjectStore for tests. It supports failure
// injection for put and delete, and records delete calls so tests can assert
// best-effort cleanup behavior.
type MemoryStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]memObject

	// FailPut, when set, is consulted before every Put.
	FailPut func(key string) error
	// FailDelete, when set, is consulted before every Delete.
	FailDelete func(key string) error
	// Unavailable makes Exists report false.
	Unavailable bool

	deleteCalls []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]memObject),
	}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, opts PutOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPut != nil {
		if err := m.FailPut(key); err != nil {
			return err
		}
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	m.objects[key] = memObject{
		data:        copied,
		contentType: opts.ContentType,
		createdAt:   time.Now(),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCalls = append(m.deleteCalls, key)

	if m.FailDelete != nil {
		if err := m.FailDelete(key); err != nil {
			return err
		}
	}

	// Deleting a missing key is not an error.
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	infos := make([]ObjectInfo, 0, len(keys))
	for _, key := range keys {
		obj := m.objects[key]
		infos = append(infos, ObjectInfo{
			Key:         key,
			Size:        int64(len(obj.data)),
			ContentType: obj.contentType,
			CreatedAt:   obj.createdAt,
		})
		if limit > 0 && len(infos) >= limit {
			break
		}
	}
	return infos, nil
}

func (m *MemoryStore) SignURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return fmt.Sprintf("%s?expires=%ds", m.PublicURL(key), int(ttl.Seconds())), nil
}

func (m *MemoryStore) Exists(_ context.Context) (bool, error) {
	if m.Unavailable {
		return false, fmt.Errorf("bucket %s unreachable", m.bucket)
	}
	return true, nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.local/%s/%s", m.bucket, key)
}

func (m *MemoryStore) StoreURI(key string) string {
	return fmt.Sprintf("s3://%s/%s", m.bucket, key)
}

func (m *MemoryStore) Bucket() string {
	return m.bucket
}

// Has reports whether key currently exists.
func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// DeleteCalls returns every key Delete was invoked with, in order.
func (m *MemoryStore) DeleteCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleteCalls...)
}

// SetCreatedAt backdates an object, for sweep grace-period tests.
func (m *MemoryStore) SetCreatedAt(key string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj, ok := m.objects[key]; ok {
		obj.createdAt = at
		m.objects[key] = obj
	}
}

var _ ObjectStore = (*MemoryStore)(nil)
