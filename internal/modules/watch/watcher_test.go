package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitForEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestWatcherCreateEvent(t *testing.T) {
	dir := t.TempDir()

	w, err := New(zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	ev := waitForEvent(t, w.Events())
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, OpCreated, ev.Op)
}

func TestWatcherFileMovedIn(t *testing.T) {
	watched := t.TempDir()
	staging := t.TempDir()

	w, err := New(zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(watched))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	src := filepath.Join(staging, "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))
	dst := filepath.Join(watched, "clip.mp4")
	require.NoError(t, os.Rename(src, dst))

	ev := waitForEvent(t, w.Events())
	assert.Equal(t, dst, ev.Path)
}

func TestWatcherIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()

	w, err := New(zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	// The file event that follows must be the first thing delivered.
	path := filepath.Join(dir, "after.png")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	ev := waitForEvent(t, w.Events())
	assert.Equal(t, path, ev.Path)
}

func TestWatcherClosesChannelOnCancel(t *testing.T) {
	dir := t.TempDir()

	w, err := New(zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, ok := <-w.Events()
	assert.False(t, ok, "event channel should be closed")
}

func TestDispatcherAppliesSettleDelay(t *testing.T) {
	events := make(chan Event, 1)

	var mu sync.Mutex
	var processed []string
	process := func(ctx context.Context, path string) {
		mu.Lock()
		processed = append(processed, path)
		mu.Unlock()
	}

	settle := 80 * time.Millisecond
	d := NewDispatcher(events, settle, process, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	start := time.Now()
	events <- Event{Path: "/in/photo.jpg", Op: OpCreated}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.GreaterOrEqual(t, time.Since(start), settle)
	mu.Lock()
	assert.Equal(t, []string{"/in/photo.jpg"}, processed)
	mu.Unlock()

	close(events)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after channel close")
	}
}

func TestDispatcherSerializesEvents(t *testing.T) {
	events := make(chan Event, 4)

	var mu sync.Mutex
	var order []string
	process := func(ctx context.Context, path string) {
		mu.Lock()
		order = append(order, path)
		mu.Unlock()
	}

	d := NewDispatcher(events, 0, process, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	events <- Event{Path: "a", Op: OpCreated}
	events <- Event{Path: "b", Op: OpMoved}
	events <- Event{Path: "c", Op: OpCreated}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a", "b", "c"}, order)
	mu.Unlock()
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	events := make(chan Event)
	d := NewDispatcher(events, time.Minute, func(ctx context.Context, path string) {
		t.Error("process should not run")
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	// Event arrives, then cancellation lands during the settle wait.
	go func() { events <- Event{Path: "x", Op: OpCreated} }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
