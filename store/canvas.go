package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/b0ase/cashboard/metrics"
	"github.com/b0ase/cashboard/model"
)

// Load fallback reasons, as counted in metrics.
const (
	ReasonMissing   = "missing"
	ReasonMalformed = "malformed"
	ReasonEmpty     = "empty"
	ReasonBackend   = "backend"
)

// CanvasStore saves and loads canvases by tab title.
type CanvasStore struct {
	kv  KV
	log *zap.Logger
	m   *metrics.Metrics
	now func() time.Time
}

type CanvasOption func(*CanvasStore)

func WithLogger(l *zap.Logger) CanvasOption { return func(s *CanvasStore) { s.log = l } }

func WithMetrics(m *metrics.Metrics) CanvasOption { return func(s *CanvasStore) { s.m = m } }

func WithClock(now func() time.Time) CanvasOption { return func(s *CanvasStore) { s.now = now } }

func NewCanvasStore(kv KV, opts ...CanvasOption) *CanvasStore {
	s := &CanvasStore{kv: kv, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// KV exposes the backing store.
func (s *CanvasStore) KV() KV { return s.kv }

// Save writes c under title. A canvas without nodes and edges is skipped.
// Last write wins.
func (s *CanvasStore) Save(ctx context.Context, title string, c model.Canvas, view model.View) error {
	if len(c.Nodes) == 0 && len(c.Edges) == 0 {
		return nil
	}
	env := NewEnvelope(title, s.now().UTC().Format(time.RFC3339Nano), c, view)
	b, err := json.Marshal(env)
	if err != nil {
		s.m.SaveFailed()
		return fmt.Errorf("encode canvas %q: %w", title, err)
	}
	if err := s.kv.Put(ctx, CanvasKey(title), b); err != nil {
		s.m.SaveFailed()
		s.log.Warn("canvas save failed", zap.String("title", title), zap.Error(err))
		return fmt.Errorf("save canvas %q: %w", title, err)
	}
	if env.hasView() {
		if err := s.putView(ctx, title, env.View()); err != nil {
			s.m.SaveFailed()
			s.log.Warn("viewport save failed", zap.String("title", title), zap.Error(err))
			return err
		}
	}
	s.m.SaveOK()
	s.log.Debug("canvas saved", zap.String("title", title), zap.Int("nodes", len(c.Nodes)), zap.Int("edges", len(c.Edges)))
	return nil
}

// Load returns the canvas saved under title. found is false when nothing
// usable is stored: the key is missing, the payload is malformed, or it
// holds no nodes. Callers then use their initial canvas.
func (s *CanvasStore) Load(ctx context.Context, title string) (model.Canvas, model.View, bool) {
	raw, err := s.kv.Get(ctx, CanvasKey(title))
	switch {
	case errors.Is(err, ErrNotFound):
		s.m.LoadFellBack(ReasonMissing)
		return model.Canvas{}, model.View{}, false
	case err != nil:
		s.m.LoadFellBack(ReasonBackend)
		s.log.Warn("canvas load failed", zap.String("title", title), zap.Error(err))
		return model.Canvas{}, model.View{}, false
	}
	env, err := Migrate(raw)
	if err != nil {
		s.m.LoadFellBack(ReasonMalformed)
		s.log.Warn("failed to parse saved canvas state", zap.String("title", title), zap.Error(err))
		return model.Canvas{}, model.View{}, false
	}
	if len(env.Nodes) == 0 {
		s.m.LoadFellBack(ReasonEmpty)
		return model.Canvas{}, model.View{}, false
	}
	view := env.View()
	if env.hasView() {
		if err := s.putView(ctx, title, view); err != nil {
			s.log.Warn("viewport mirror failed", zap.String("title", title), zap.Error(err))
		}
	}
	s.log.Debug("canvas loaded", zap.String("title", title), zap.Int("nodes", len(env.Nodes)), zap.Int("version", env.Version))
	return env.Canvas("", title), view, true
}

// View reads the viewport key on its own.
func (s *CanvasStore) View(ctx context.Context, title string) (model.View, bool) {
	raw, err := s.kv.Get(ctx, ViewportKey(title))
	if err != nil {
		return model.View{}, false
	}
	var v model.View
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn("malformed viewport", zap.String("title", title), zap.Error(err))
		return model.View{}, false
	}
	return v, true
}

// Titles lists the sanitized titles that have a saved canvas.
func (s *CanvasStore) Titles(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, canvasPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k[len(canvasPrefix):])
	}
	return out, nil
}

// Delete removes the canvas and viewport keys for title.
func (s *CanvasStore) Delete(ctx context.Context, title string) error {
	return errors.Join(s.kv.Delete(ctx, CanvasKey(title)), s.kv.Delete(ctx, ViewportKey(title)))
}

func (s *CanvasStore) putView(ctx context.Context, title string, v model.View) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, ViewportKey(title), b)
}
