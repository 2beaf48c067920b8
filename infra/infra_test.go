package infra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemQueueFIFO(t *testing.T) {
	q := NewMemQueue()
	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push(NewJob("a.json"))
	q.Push(NewJob("b.json"))
	assert.Equal(t, 2, q.Len())

	j, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a.json", j.Path)
	assert.NotEmpty(t, j.ID)
	j, _ = q.Pop()
	assert.Equal(t, "b.json", j.Path)
	assert.Zero(t, q.Len())
}

func TestConsumeDeliversAndReportsFailures(t *testing.T) {
	q := NewMemQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got, failed []string
	done := make(chan error, 1)
	go func() {
		done <- Consume(ctx, q, func(_ context.Context, j Job) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, j.Path)
			if j.Path == "bad.json" {
				return errors.New("boom")
			}
			return nil
		}, func(j Job, _ error) {
			mu.Lock()
			failed = append(failed, j.Path)
			mu.Unlock()
		})
	}()

	q.Push(NewJob("one.json"))
	q.Push(NewJob("bad.json"))
	q.Push(NewJob("two.json"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{"one.json", "bad.json", "two.json"}, got)
	assert.Equal(t, []string{"bad.json"}, failed)
}

func TestWatcherMatch(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, []string{"**/*.json", "n8n/*.yaml"}, NewMemQueue())
	require.NoError(t, err)

	assert.True(t, w.Match("flow.json"))
	assert.True(t, w.Match(filepath.Join(dir, "nested", "deep", "flow.json")))
	assert.True(t, w.Match("n8n/flow.yaml"))
	assert.False(t, w.Match("other/flow.yaml"))
	assert.False(t, w.Match("notes.txt"))

	all, err := NewWatcher(dir, nil, NewMemQueue())
	require.NoError(t, err)
	assert.True(t, all.Match("anything.bin"))
}

func TestWatcherRejectsBadPattern(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), []string{"[unclosed"}, NewMemQueue())
	assert.Error(t, err)
}

func TestWatcherScanQueuesExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"a.json", "sub/b.json", "skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte("{}"), 0o644))
	}
	q := NewMemQueue()
	w, err := NewWatcher(dir, []string{"**/*.json"}, q)
	require.NoError(t, err)

	n, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var paths []string
	for {
		j, ok := q.Pop()
		if !ok {
			break
		}
		paths = append(paths, j.Path)
	}
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "sub", "b.json")}, paths)
}

// startWatcher runs w until the test ends and waits until the watch on dir
// is live.
func startWatcher(t *testing.T, w *Watcher, q *MemQueue, dir string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	// each write restarts the settle timer, so poll slower than it fires
	tick := max(3*w.settle, 100*time.Millisecond)
	warm := filepath.Join(dir, "warmup.json")
	require.Eventually(t, func() bool {
		if q.Len() > 0 {
			return true
		}
		_ = os.WriteFile(warm, []byte("{}"), 0o644)
		return false
	}, 10*time.Second, tick)
	j, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, warm, j.Path)
}

func TestWatcherRunQueuesNewFiles(t *testing.T) {
	dir := t.TempDir()
	q := NewMemQueue()
	w, err := NewWatcher(dir, []string{"**/*.json"}, q, WithSettle(20*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w, q, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	target := filepath.Join(dir, "nested", "drop.json")
	require.Eventually(t, func() bool {
		if q.Len() > 0 {
			return true
		}
		_ = os.WriteFile(target, []byte(`{"workflow":{"nodes":[]}}`), 0o644)
		return false
	}, 5*time.Second, 100*time.Millisecond)

	j, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, target, j.Path)
	_, more := q.Pop()
	assert.False(t, more)
}

func TestWatcherWaitsForWritesToSettle(t *testing.T) {
	dir := t.TempDir()
	q := NewMemQueue()
	w, err := NewWatcher(dir, []string{"*.json"}, q, WithSettle(200*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w, q, dir)

	p := filepath.Join(dir, "late.json")
	f, err := os.Create(p)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = f.WriteString(`{"workflow":{"nodes":[]}}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return q.Len() > 0 }, 5*time.Second, 20*time.Millisecond)
	j, ok := q.Pop()
	require.True(t, ok)
	b, err := os.ReadFile(j.Path)
	require.NoError(t, err)
	assert.Equal(t, `{"workflow":{"nodes":[]}}`, string(b))

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, q.Len(), "create and write collapse into one job")

	w.mu.Lock()
	assert.Empty(t, w.pending)
	w.mu.Unlock()
}

func TestPaths(t *testing.T) {
	t.Setenv("CASHBOARD_DATA_DIR", "/var/lib/cashboard")
	assert.Equal(t, "/var/lib/cashboard", DataDir())
	assert.Equal(t, filepath.Join("/x", "imports"), ImportDir("/x"))
	assert.Equal(t, filepath.Join("/x", "cashboard.db"), DBPath("/x"))

	t.Setenv("CASHBOARD_DATA_DIR", "")
	assert.Equal(t, "data", DataDir())
}
