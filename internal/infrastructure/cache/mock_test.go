// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// mockKeyValueEntry implements jetstream.KeyValueEntry for testing
type mockKeyValueEntry struct {
	key      string
	value    []byte
	revision uint64
	created  time.Time
}

func (m *mockKeyValueEntry) Key() string                     { return m.key }
func (m *mockKeyValueEntry) Value() []byte                   { return m.value }
func (m *mockKeyValueEntry) Revision() uint64                { return m.revision }
func (m *mockKeyValueEntry) Created() time.Time              { return m.created }
func (m *mockKeyValueEntry) Delta() uint64                   { return 0 }
func (m *mockKeyValueEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }
func (m *mockKeyValueEntry) Bucket() string                  { return KVStoreNameDashboardStats }

// mockNatsKeyValue implements INatsKeyValue for testing. Revisions are
// bucket wide like a JetStream stream sequence.
type mockNatsKeyValue struct {
	data      map[string]*mockKeyValueEntry
	sequence  uint64
	now       func() time.Time
	putError  error
	getError  error
	beforeSet func()
}

func newMockNatsKeyValue(now func() time.Time) *mockNatsKeyValue {
	return &mockNatsKeyValue{
		data: make(map[string]*mockKeyValueEntry),
		now:  now,
	}
}

func (m *mockNatsKeyValue) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	entry, exists := m.data[key]
	if !exists {
		return nil, jetstream.ErrKeyNotFound
	}
	return entry, nil
}

func (m *mockNatsKeyValue) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	if m.putError != nil {
		return 0, m.putError
	}
	return m.store(key, value), nil
}

func (m *mockNatsKeyValue) Create(ctx context.Context, key string, value []byte, opts ...jetstream.KVCreateOpt) (uint64, error) {
	return m.Update(ctx, key, value, 0)
}

func (m *mockNatsKeyValue) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	if hook := m.beforeSet; hook != nil {
		m.beforeSet = nil
		hook()
	}
	if m.putError != nil {
		return 0, m.putError
	}
	var current uint64
	if prev, ok := m.data[key]; ok {
		current = prev.revision
	}
	if current != revision {
		return 0, jetstream.ErrKeyExists
	}
	return m.store(key, value), nil
}

func (m *mockNatsKeyValue) store(key string, value []byte) uint64 {
	m.sequence++
	m.data[key] = &mockKeyValueEntry{key: key, value: value, revision: m.sequence, created: m.now()}
	return m.sequence
}
