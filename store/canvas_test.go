package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/metrics"
	"github.com/b0ase/cashboard/model"
)

type failingKV struct{ *MemKV }

func (failingKV) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func stepClock() func() time.Time {
	t := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	s := NewCanvasStore(kv, WithClock(stepClock()))
	c := catalog.DefaultCanvas()
	vp := &model.Viewport{X: 1, Y: 2, Zoom: 0.35}

	require.NoError(t, s.Save(ctx, c.Title, c, model.View{Viewport: vp, CanvasScale: 35}))

	got, view, found := s.Load(ctx, c.Title)
	require.True(t, found)
	assert.Equal(t, c.Title, got.Title)
	assert.Len(t, got.Nodes, 24)
	assert.Len(t, got.Edges, 21)
	assert.Equal(t, vp, view.Viewport)
	assert.Equal(t, 35, view.CanvasScale)

	stored, ok := s.View(ctx, c.Title)
	require.True(t, ok)
	assert.Equal(t, vp, stored.Viewport)
}

func TestSavesDifferOnlyInTimestamp(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	s := NewCanvasStore(kv, WithClock(stepClock()))
	c := catalog.DefaultCanvas()

	require.NoError(t, s.Save(ctx, "Main", c, model.View{}))
	first, _ := kv.Get(ctx, CanvasKey("Main"))
	require.NoError(t, s.Save(ctx, "Main", c, model.View{}))
	second, _ := kv.Get(ctx, CanvasKey("Main"))

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(first, &a))
	require.NoError(t, json.Unmarshal(second, &b))
	assert.NotEqual(t, a["timestamp"], b["timestamp"])
	delete(a, "timestamp")
	delete(b, "timestamp")
	assert.Equal(t, a, b)
}

func TestSaveSkipsEmptyCanvas(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	s := NewCanvasStore(kv)
	require.NoError(t, s.Save(ctx, "Empty", model.Canvas{}, model.View{}))
	keys, _ := kv.Keys(ctx, "")
	assert.Empty(t, keys)
}

func TestLoadFallbacks(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	m := metrics.New()
	core, logs := observer.New(zap.WarnLevel)
	s := NewCanvasStore(kv, WithMetrics(m), WithLogger(zap.New(core)))

	_, _, found := s.Load(ctx, "Nope")
	assert.False(t, found)

	require.NoError(t, kv.Put(ctx, CanvasKey("Bad"), []byte("{broken")))
	_, _, found = s.Load(ctx, "Bad")
	assert.False(t, found)
	assert.Equal(t, 1, logs.FilterMessage("failed to parse saved canvas state").Len())

	require.NoError(t, kv.Put(ctx, CanvasKey("Hollow"), []byte(`{"version":2,"nodes":[],"edges":[]}`)))
	_, _, found = s.Load(ctx, "Hollow")
	assert.False(t, found)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadFallbacks.WithLabelValues(ReasonMissing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadFallbacks.WithLabelValues(ReasonMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadFallbacks.WithLabelValues(ReasonEmpty)))
}

func TestLoadMirrorsLegacyViewport(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	s := NewCanvasStore(kv)
	require.NoError(t, kv.Put(ctx, CanvasKey("AUDEX Corporation - Asset & Monetary Flows"), []byte(browserSave)))

	c, view, found := s.Load(ctx, "AUDEX Corporation - Asset & Monetary Flows")
	require.True(t, found)
	assert.Len(t, c.Nodes, 3)
	require.NotNil(t, view.Viewport)

	raw, err := kv.Get(ctx, ViewportKey("AUDEX Corporation - Asset & Monetary Flows"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"viewport":{"x":10,"y":20,"zoom":0.35}}`, string(raw))
}

func TestSaveFailureIsReturnedAndCounted(t *testing.T) {
	m := metrics.New()
	s := NewCanvasStore(failingKV{NewMemKV()}, WithMetrics(m))
	err := s.Save(context.Background(), "Main", catalog.DefaultCanvas(), model.View{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveFailures))
}

func TestTitlesAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewCanvasStore(NewMemKV())
	c := model.Canvas{Nodes: []model.Node{{ID: "a", Kind: model.KindTask}}}
	require.NoError(t, s.Save(ctx, "One", c, model.View{Viewport: &model.Viewport{Zoom: 1}}))
	require.NoError(t, s.Save(ctx, "Two words", c, model.View{}))

	titles, err := s.Titles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two-words"}, titles)

	require.NoError(t, s.Delete(ctx, "One"))
	_, _, found := s.Load(ctx, "One")
	assert.False(t, found)
	_, ok := s.View(ctx, "One")
	assert.False(t, ok)
}
