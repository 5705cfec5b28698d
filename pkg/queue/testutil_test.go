package queue

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schorsch3000/squeuelite/pkg/storage"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestStorage opens a migrated SQLite database in the test's temp dir.
func newTestStorage(t *testing.T) *storage.GormStorage {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err, "open sqlite")
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newTestQueue creates a Queue driven by a fake clock.
func newTestQueue(t *testing.T, opts ...Option) (*Queue, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	q, err := New(newTestStorage(t), opts...)
	require.NoError(t, err)
	return q, clock
}
