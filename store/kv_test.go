package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "cashboard-canvas-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, "cashboard-canvas-a", []byte(`{"a":1}`)))
	require.NoError(t, kv.Put(ctx, "cashboard-canvas-b", []byte(`{"b":1}`)))
	require.NoError(t, kv.Put(ctx, "cashboard-viewport-a", []byte(`{}`)))
	require.NoError(t, kv.Put(ctx, "cashboard-canvas-a", []byte(`{"a":2}`)))

	v, err := kv.Get(ctx, "cashboard-canvas-a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(v))

	keys, err := kv.Keys(ctx, "cashboard-canvas-")
	require.NoError(t, err)
	assert.Equal(t, []string{"cashboard-canvas-a", "cashboard-canvas-b"}, keys)

	require.NoError(t, kv.Delete(ctx, "cashboard-canvas-a"))
	require.NoError(t, kv.Delete(ctx, "cashboard-canvas-a"))
	_, err = kv.Get(ctx, "cashboard-canvas-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemKV(t *testing.T) { exerciseKV(t, NewMemKV()) }

func TestMemKVHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	kv := NewMemKV()
	assert.ErrorIs(t, kv.Put(ctx, "k", nil), context.Canceled)
	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemKVGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	require.NoError(t, kv.Put(ctx, "k", []byte("abc")))
	v, _ := kv.Get(ctx, "k")
	v[0] = 'z'
	v2, _ := kv.Get(ctx, "k")
	assert.Equal(t, "abc", string(v2))
}

func TestFileKV(t *testing.T) {
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "canvases"))
	require.NoError(t, err)
	exerciseKV(t, kv)
}

func TestFileKVEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, "odd/key with space", []byte("x")))
	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"odd/key with space"}, keys)
	matches, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	assert.Len(t, matches, 1)
}

func TestSQLiteKV(t *testing.T) {
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "cashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	exerciseKV(t, kv)
}

// fakeBucket mimics a JetStream bucket, including its key restrictions.
type fakeBucket struct {
	mu   sync.Mutex
	data map[string][]byte
}

type fakeEntry struct {
	jetstream.KeyValueEntry
	value []byte
}

func (e fakeEntry) Value() []byte { return e.value }

func (f *fakeBucket) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return fakeEntry{value: v}, nil
}

func (f *fakeBucket) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range key {
		if c == ' ' || c == '*' || c == '>' {
			return 0, jetstream.ErrInvalidKey
		}
	}
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[key] = value
	return uint64(len(f.data)), nil
}

func (f *fakeBucket) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeBucket) Keys(context.Context, ...jetstream.WatchOpt) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.data) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	out := make([]string, 0, len(f.data))
	for k := range f.data {
		out = append(out, k)
	}
	return out, nil
}

func TestNATSKV(t *testing.T) {
	fb := &fakeBucket{}
	kv := &NATSKV{kv: fb}
	exerciseKV(t, kv)

	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, CanvasKey("x")+" *.>", []byte("v")))
	keys, err := kv.Keys(ctx, CanvasKey("x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cashboard-canvas-x *.>"}, keys)
}

func TestNATSKVEmptyBucket(t *testing.T) {
	kv := &NATSKV{kv: &fakeBucket{}}
	keys, err := kv.Keys(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeyEncoding(t *testing.T) {
	cases := map[string]string{
		"cashboard-canvas-Main": "cashboard-canvas-Main",
		"a.b":                   "a=2Eb",
		"x y=z":                 "x=20y=3Dz",
		"naïve":                 "na=C3=AFve",
	}
	for in, want := range cases {
		assert.Equal(t, want, encodeKey(in), in)
		back, err := decodeKey(want)
		require.NoError(t, err)
		assert.Equal(t, in, back)
	}
	_, err := decodeKey("bad=4")
	assert.Error(t, err)
	_, err = decodeKey("bad=ZZ")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "AUDEX-Corporation---Asset---Monetary-Flows", SanitizeTitle("AUDEX Corporation - Asset & Monetary Flows"))
	assert.Equal(t, "cashboard-canvas-New-Canvas", CanvasKey("New Canvas"))
	assert.Equal(t, "cashboard-viewport-caf-", ViewportKey("café"))
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, c, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemKV{}, kv)
	require.NoError(t, c.Close())

	kv, c, err = Open(ctx, Options{Backend: BackendFile, Dir: filepath.Join(dir, "files")})
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)
	require.NoError(t, c.Close())

	kv, c, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(dir, "kv.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteKV{}, kv)
	require.NoError(t, c.Close())

	_, _, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
