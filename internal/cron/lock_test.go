package cron

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLeaseStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryLeaseStore() *memoryLeaseStore {
	return &memoryLeaseStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryLeaseStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryLeaseStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

// expire simulates the TTL running out.
func (m *memoryLeaseStore) expire(key string) {
	delete(m.values, key)
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := newMemoryLeaseStore()
	first, err := NewRedisLock(store, "lh:lock:cron-worker:test", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "lh:lock:cron-worker:test", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second worker must not take a held lease")

	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.values, "lh:lock:cron-worker:test", "non-holder release must not drop the lease")

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lease should be free after holder release")
}

func TestRedisLockTokenNamesHolder(t *testing.T) {
	t.Setenv("LOCKERHUB_INSTANCE_ID", "cron-a")
	store := newMemoryLeaseStore()
	lock, err := NewRedisLock(store, "lease", 0)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, strings.HasPrefix(store.values["lease"], "cron-a:"))
	assert.Equal(t, defaultLockTTL, store.ttls["lease"])
}

func TestRedisLockExpiredLeaseIsNotReleasedByOldHolder(t *testing.T) {
	store := newMemoryLeaseStore()
	stale, _ := NewRedisLock(store, "lease", time.Minute)
	fresh, _ := NewRedisLock(store, "lease", time.Minute)
	ctx := context.Background()

	ok, err := stale.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	store.expire("lease")
	ok, err = fresh.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, stale.Release(ctx))
	assert.Contains(t, store.values, "lease", "old holder freed a lease it no longer owns")
}

func TestRedisLockRejectsDoubleAcquire(t *testing.T) {
	lock, _ := NewRedisLock(newMemoryLeaseStore(), "lease", time.Minute)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = lock.Acquire(ctx)
	assert.Error(t, err)
}

func TestNewRedisLockValidatesInput(t *testing.T) {
	_, err := NewRedisLock(nil, "lease", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemoryLeaseStore(), "", time.Minute)
	assert.Error(t, err)
}
