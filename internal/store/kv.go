package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store: closed")

// Entry is one key/value pair of a namespace.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the persistence substrate. Keys live in namespaces; List returns the
// entries of one namespace ordered by key.
type KV interface {
	Get(ctx context.Context, ns, key string) ([]byte, bool, error)
	Set(ctx context.Context, ns, key string, value []byte) error
	List(ctx context.Context, ns string) ([]Entry, error)
	Close() error
}

// Namespace scopes a KV to a single namespace.
type Namespace struct {
	kv   KV
	name string
}

// NewNamespace returns a view of kv restricted to name.
func NewNamespace(kv KV, name string) Namespace {
	return Namespace{kv: kv, name: name}
}

// Name returns the namespace name.
func (n Namespace) Name() string {
	return n.name
}

// Get reads a raw value.
func (n Namespace) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.kv.Get(ctx, n.name, key)
}

// Set writes a raw value.
func (n Namespace) Set(ctx context.Context, key string, value []byte) error {
	return n.kv.Set(ctx, n.name, key, value)
}

// List returns all entries ordered by key.
func (n Namespace) List(ctx context.Context) ([]Entry, error) {
	return n.kv.List(ctx, n.name)
}

// SetJSON encodes v and writes it under key.
func (n Namespace) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", n.name, key, err)
	}
	if err := n.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", n.name, key, err)
	}
	return nil
}

// Option configures store helpers.
type Option func(*options)

type options struct {
	warn func(format string, args ...any)
}

// WithWarn sets the hook used to report recoverable problems such as corrupt
// stored values.
func WithWarn(fn func(format string, args ...any)) Option {
	return func(o *options) {
		o.warn = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{warn: func(string, ...any) {}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.warn == nil {
		o.warn = func(string, ...any) {}
	}
	return o
}

// Memory is an in-process KV. It does not survive the process.
type Memory struct {
	mu     sync.Mutex
	data   map[string]map[string][]byte
	closed bool
}

// NewMemory returns an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: map[string]map[string][]byte{}}
}

// Get implements KV.
func (m *Memory) Get(_ context.Context, ns, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[ns][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements KV.
func (m *Memory) Set(_ context.Context, ns, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	bucket, ok := m.data[ns]
	if !ok {
		bucket = map[string][]byte{}
		m.data[ns] = bucket
	}
	bucket[key] = append([]byte(nil), value...)
	return nil
}

// List implements KV.
func (m *Memory) List(_ context.Context, ns string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	bucket := m.data[ns]
	out := make([]Entry, 0, len(bucket))
	for k, v := range bucket {
		out = append(out, Entry{Key: k, Value: append([]byte(nil), v...)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Close implements KV.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
