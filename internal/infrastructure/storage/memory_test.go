package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "cart")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "cart", "[]"))
	value, err := m.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	require.NoError(t, m.Set(ctx, "cart", `[{"id":"a"}]`))
	value, err = m.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, value)

	require.NoError(t, m.Delete(ctx, "cart"))
	_, err = m.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySetRespectsCanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, m.Set(ctx, "cart", "[]"))
	_, err := m.Get(context.Background(), "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryWatchDeliversInWriteOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := &recorder{}

	cancel := m.Watch("customer", rec.record)
	defer cancel()

	require.NoError(t, m.Set(ctx, "customer", "1"))
	require.NoError(t, m.Set(ctx, "other", "x"))
	require.NoError(t, m.Set(ctx, "customer", "2"))
	require.NoError(t, m.Delete(ctx, "customer"))

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1", "2", ""}, rec.snapshot())
}

func TestMemoryWatchCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := &recorder{}

	cancel := m.Watch("customer", rec.record)
	require.NoError(t, m.Set(ctx, "customer", "1"))
	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	cancel()
	require.NoError(t, m.Set(ctx, "customer", "2"))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"1"}, rec.snapshot())
}
