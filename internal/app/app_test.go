package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricewatch/internal/config"
	"pricewatch/internal/domain"
	"pricewatch/internal/storage"
	"pricewatch/internal/transport"
	"pricewatch/pkg/logx"
)

type fakeAdapter struct {
	mu      sync.Mutex
	out     chan<- transport.Update
	stopped bool
	sent    []string
}

func (f *fakeAdapter) Start(ctx context.Context, out chan<- transport.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = out
	return nil
}

func (f *fakeAdapter) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeAdapter) SendText(ctx context.Context, to transport.ChatTarget, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeAdapter) push(up transport.Update) {
	f.mu.Lock()
	out := f.out
	f.mu.Unlock()
	out <- up
}

func (f *fakeAdapter) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeAdapter) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func newTestApp(t *testing.T) (*App, storage.Store, *fakeAdapter) {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "app.db")}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logSvc, log := logx.New(logx.Config{Level: "error"})
	fa := &fakeAdapter{}
	a, err := newApp(filepath.Join(t.TempDir(), "config.yaml"), &config.Config{}, logSvc, log, st, fa)
	require.NoError(t, err)
	return a, st, fa
}

func TestLoadJobsHonorsPausedFlag(t *testing.T) {
	a, st, _ := newTestApp(t)
	ctx := context.Background()

	// One paused night owl with an offset, one untouched default user.
	_, err := st.CreateUser(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, st.SetSchedule(ctx, 1, 23, 15, 3))
	require.NoError(t, st.SetPaused(ctx, 1, true))
	_, err = st.CreateUser(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, a.loadJobs(ctx))

	snap := a.reg.Snapshot()
	require.Len(t, snap, 2)

	require.True(t, snap[1].Paused, "paused flag must survive a restart")
	require.Equal(t, domain.FireHour(23, 3), snap[1].Hour)
	require.Equal(t, 15, snap[1].Minute)

	require.False(t, snap[2].Paused)
	require.Equal(t, domain.DefaultHour, snap[2].Hour)
	require.Equal(t, domain.DefaultMinute, snap[2].Minute)
}

func TestLoadJobsIsRerunSafe(t *testing.T) {
	a, st, _ := newTestApp(t)
	ctx := context.Background()

	_, err := st.CreateUser(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, st.SetPaused(ctx, 7, true))

	require.NoError(t, a.loadJobs(ctx))
	require.NoError(t, a.loadJobs(ctx))

	snap := a.reg.Snapshot()
	require.Len(t, snap, 1)
	require.True(t, snap[7].Paused)
}

func TestRunDispatchesAndShutsDown(t *testing.T) {
	a, st, fa := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		fa.mu.Lock()
		defer fa.mu.Unlock()
		return fa.out != nil
	}, 2*time.Second, 10*time.Millisecond, "adapter never started")

	fa.push(transport.Update{ChatID: 5, Text: "/start"})

	require.Eventually(t, func() bool { return fa.sentCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	u, err := st.GetUser(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultHour, u.Hour)
	require.True(t, a.reg.Has(5))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not shut down")
	}
	require.True(t, fa.isStopped())
}
