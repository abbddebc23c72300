package reaper

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/comic_reader/internal/db"
	"github.com/Skotchmaster/comic_reader/internal/repo"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (c *countingSweeper) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, now)
	return 1, c.err
}

func (c *countingSweeper) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestReaper_SweepsOnStartAndTick(t *testing.T) {
	s := &countingSweeper{}
	r := New(s, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}

func TestReaper_KeepsGoingAfterError(t *testing.T) {
	s := &countingSweeper{err: errors.New("db down")}
	r := New(s, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	assert.Eventually(t, func() bool { return s.count() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestNew_DefaultInterval(t *testing.T) {
	r := New(&countingSweeper{}, 0)
	assert.Equal(t, 10*time.Minute, r.interval)
}

func TestReaper_SweepDeletesExpiredRows(t *testing.T) {
	gdb, err := db.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "reaper.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	ledger := &repo.GormLedger{DB: gdb}
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = ledger.Save(ctx, "stale", now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = ledger.Save(ctx, "fresh", now.Add(time.Minute))
	require.NoError(t, err)

	r := New(ledger, time.Hour)
	r.now = func() time.Time { return now }
	r.sweep(ctx)

	stale, err := ledger.Exists(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, stale)
	fresh, err := ledger.Exists(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, fresh)
}
