package pollers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	mu         sync.Mutex
	deleted    []uuid.UUID
	maxAges    []time.Duration
	cleanupErr error
}

func (f *fakeImages) DeleteRender(id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return 2, nil
}

func (f *fakeImages) CleanupOldImages(maxAge time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxAges = append(f.maxAges, maxAge)
	return 0, f.cleanupErr
}

type fakeRecords struct {
	ids    []uuid.UUID
	cutoff time.Time
}

func (f *fakeRecords) DeleteOlderThan(cutoff time.Time) ([]uuid.UUID, error) {
	f.cutoff = cutoff
	return f.ids, nil
}

func TestCleanupPollerPrunesRecordsAndFiles(t *testing.T) {
	images := &fakeImages{}
	records := &fakeRecords{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	p := NewCleanupPoller(images, records, 24*time.Hour, DefaultConfig(CleanupPollerName, time.Hour))
	p.now = func() time.Time { return now }

	require.NoError(t, p.poll(context.Background()))
	assert.Equal(t, now.Add(-24*time.Hour), records.cutoff)
	assert.Equal(t, records.ids, images.deleted)
	assert.Equal(t, []time.Duration{24 * time.Hour}, images.maxAges)
}

func TestCleanupPollerWithoutDatabase(t *testing.T) {
	images := &fakeImages{}
	p := NewCleanupPoller(images, nil, time.Hour, DefaultConfig(CleanupPollerName, time.Minute))

	require.NoError(t, p.poll(context.Background()))
	assert.Empty(t, images.deleted)
	assert.Len(t, images.maxAges, 1)
}

func TestCleanupPollerDisabledWithoutRetention(t *testing.T) {
	p := NewCleanupPoller(&fakeImages{}, nil, 0, DefaultConfig(CleanupPollerName, time.Minute))
	require.NoError(t, p.Start(context.Background()))
	assert.False(t, p.IsRunning())
}

func TestRunOnceRetriesAndReturnsLastError(t *testing.T) {
	var calls atomic.Int32
	cfg := DefaultConfig("flaky", time.Minute)
	cfg.RetryDelay = time.Millisecond
	p := NewBasePoller(cfg, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})

	err := p.RunOnce(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int32(cfg.MaxRetries), calls.Load())
}

func TestBasePollerStartStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	p := NewBasePoller(DefaultConfig("tick", time.Hour), func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("poller did not run on start")
	}

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	m.Register(NewBasePoller(DefaultConfig("b", time.Hour), func(context.Context) error { return nil }))
	m.Register(NewBasePoller(DefaultConfig("a", time.Hour), func(context.Context) error { return nil }))

	assert.Equal(t, []string{"a", "b"}, m.ListPollers())

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.IsRunning())
	p, ok := m.GetPoller("a")
	require.True(t, ok)
	assert.True(t, p.IsRunning())

	m.Unregister("a")
	_, ok = m.GetPoller("a")
	assert.False(t, ok)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsRunning())
}
