// Package canvas owns the nodes and edges of a single canvas and every
// mutation applied to them.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/plugin"
)

var (
	ErrNeedsTemplate = errors.New("kind requires a template selection")
	ErrNodeNotFound  = errors.New("node not found")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrInvalidValue  = errors.New("invalid value")
)

// NeedsTemplateError carries the template items a business kind offers.
// It matches ErrNeedsTemplate with errors.Is.
type NeedsTemplateError struct {
	Kind  model.Kind
	Items []model.TemplateItem
}

func (e *NeedsTemplateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNeedsTemplate, e.Kind)
}

func (e *NeedsTemplateError) Unwrap() error { return ErrNeedsTemplate }

const (
	MinThreshold = 1
	MaxThreshold = 15
)

// Frame is the visible region used to place new nodes.
type Frame struct {
	Viewport model.Viewport
	Width    float64
	Height   float64
}

// DefaultFrame is used when callers have no screen size to report.
var DefaultFrame = Frame{Viewport: model.Viewport{Zoom: 1}, Width: 1280, Height: 800}

// Center converts the screen center into canvas coordinates.
func (f Frame) Center() model.Position {
	zoom := f.Viewport.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultFrame.Width, DefaultFrame.Height
	}
	return model.Position{X: -f.Viewport.X + (w/2)/zoom, Y: -f.Viewport.Y + (h/2)/zoom}
}

type Option func(*Controller)

func WithIDs(f IDFunc) Option { return func(c *Controller) { c.ids = f } }

func WithRand(r *rand.Rand) Option { return func(c *Controller) { c.rnd = r } }

func WithBus(b plugin.EventBus) Option { return func(c *Controller) { c.bus = b } }

func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.log = l } }

func WithCatalog(cat *catalog.Catalog) Option { return func(c *Controller) { c.cat = cat } }

// OnChange registers the hook run after every mutation, typically autosave.
func OnChange(f func(context.Context, model.Canvas)) Option {
	return func(c *Controller) { c.onChange = f }
}

// Controller is not safe for concurrent use; callers serialize access.
type Controller struct {
	id    model.ID
	title string
	nodes []model.Node
	edges []model.Edge

	ids      IDFunc
	rnd      *rand.Rand
	bus      plugin.EventBus
	log      *zap.Logger
	cat      *catalog.Catalog
	onChange func(context.Context, model.Canvas)
}

// New takes ownership of a copy of seed.
func New(seed model.Canvas, opts ...Option) *Controller {
	s := seed.Clone()
	c := &Controller{id: s.ID, title: s.Title, nodes: s.Nodes, edges: s.Edges}
	for _, o := range opts {
		o(c)
	}
	if c.ids == nil {
		c.ids = MillisIDs(nil)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.bus == nil {
		c.bus = plugin.Nop{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.cat == nil {
		c.cat = catalog.Builtin()
	}
	return c
}

func (c *Controller) ID() model.ID   { return c.id }
func (c *Controller) Title() string  { return c.title }
func (c *Controller) Len() int       { return len(c.nodes) }
func (c *Controller) EdgeCount() int { return len(c.edges) }

func (c *Controller) SetTitle(title string) { c.title = title }

// SetOnChange replaces the mutation hook.
func (c *Controller) SetOnChange(f func(context.Context, model.Canvas)) { c.onChange = f }

// Snapshot returns a deep copy of the current canvas.
func (c *Controller) Snapshot() model.Canvas {
	return model.Canvas{ID: c.id, Title: c.title, Nodes: c.nodes, Edges: c.edges}.Clone()
}

// Node returns a copy of the node with the given id.
func (c *Controller) Node(id model.ID) (model.Node, bool) {
	i := c.index(id)
	if i < 0 {
		return model.Node{}, false
	}
	return c.nodes[i].Clone(), true
}

func (c *Controller) index(id model.ID) int {
	for i := range c.nodes {
		if c.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) changed(ctx context.Context, event string, fields map[string]any) {
	if err := c.bus.Emit(ctx, event, fields); err != nil {
		c.log.Warn("emit canvas event", zap.String("event", event), zap.Error(err))
	}
	if c.onChange != nil {
		c.onChange(ctx, c.Snapshot())
	}
}

func (c *Controller) jitter() float64 { return (c.rnd.Float64() - 0.5) * 200 }

func (c *Controller) nearCenter(f Frame) model.Position {
	p := f.Center()
	return model.Position{X: p.X + c.jitter(), Y: p.Y + c.jitter()}
}

func (c *Controller) insert(ctx context.Context, n model.Node) model.Node {
	c.nodes = append(c.nodes, n)
	c.changed(ctx, plugin.EventNodeAdded, map[string]any{"canvas": string(c.id), "id": string(n.ID), "kind": string(n.Kind)})
	return n.Clone()
}

// Pick handles a palette click. Business kinds return a *NeedsTemplateError
// with the catalog items to choose from; every other kind inserts a bare
// node near the center of f.
func (c *Controller) Pick(ctx context.Context, kind model.Kind, f Frame) (model.Node, error) {
	if kind.IsBusiness() {
		return model.Node{}, &NeedsTemplateError{Kind: kind, Items: c.cat.Items(kind)}
	}
	n := model.Node{
		ID:       c.ids(),
		Position: c.nearCenter(f),
		Kind:     kind,
		Label:    strings.ToUpper(string(kind)),
	}
	return c.insert(ctx, n), nil
}

// AddNode appends a node below the existing ones. It never opens the
// template modal, whatever the kind.
func (c *Controller) AddNode(ctx context.Context, kind model.Kind) model.Node {
	id := c.ids()
	n := model.Node{
		ID:             id,
		Position:       model.Position{X: 100 + c.rnd.Float64()*200, Y: 100 + float64(len(c.nodes))*120},
		Kind:           kind,
		Label:          strings.ToUpper(string(kind)),
		HandcashHandle: strings.Join(strings.Fields(string(kind)), "_") + "_" + lastN(string(id), 4),
	}
	return c.insert(ctx, n)
}

// InsertTemplateNode materializes one template item as an annotated node.
func (c *Controller) InsertTemplateNode(ctx context.Context, kind model.Kind, item model.TemplateItem, f Frame) model.Node {
	id := c.ids()
	sub := item.Description
	if sub == "" {
		sub = item.Category
	}
	tmpl := item
	n := model.Node{
		ID:             id,
		Position:       c.nearCenter(f),
		Kind:           kind,
		Label:          item.Name,
		Subtitle:       sub,
		Template:       &tmpl,
		HandcashHandle: strings.Join(strings.Fields(item.Name), "_") + "_" + lastN(string(id), 4),
	}
	return c.insert(ctx, n)
}

// Replace swaps the whole node and edge set.
func (c *Controller) Replace(ctx context.Context, nodes []model.Node, edges []model.Edge) {
	cp := model.Canvas{Nodes: nodes, Edges: edges}.Clone()
	c.nodes, c.edges = cp.Nodes, cp.Edges
	c.changed(ctx, plugin.EventCanvasLoaded, map[string]any{"canvas": string(c.id), "nodes": len(c.nodes), "edges": len(c.edges)})
}

// Append adds nodes and edges as-is; ids are not checked for collisions.
func (c *Controller) Append(ctx context.Context, nodes []model.Node, edges []model.Edge) {
	cp := model.Canvas{Nodes: nodes, Edges: edges}.Clone()
	c.nodes = append(c.nodes, cp.Nodes...)
	c.edges = append(c.edges, cp.Edges...)
	c.changed(ctx, plugin.EventImported, map[string]any{"canvas": string(c.id), "nodes": len(nodes), "edges": len(edges)})
}

// Connect adds an animated edge. Parallel edges are allowed.
func (c *Controller) Connect(ctx context.Context, source, target model.ID) (model.Edge, error) {
	if c.index(source) < 0 {
		return model.Edge{}, fmt.Errorf("connect source %s: %w", source, ErrNodeNotFound)
	}
	if c.index(target) < 0 {
		return model.Edge{}, fmt.Errorf("connect target %s: %w", target, ErrNodeNotFound)
	}
	e := model.Edge{
		ID:       model.ID("reactflow__edge-" + string(source) + "-" + string(target)),
		Source:   source,
		Target:   target,
		Animated: true,
	}
	c.edges = append(c.edges, e)
	c.changed(ctx, plugin.EventEdgeAdded, map[string]any{"canvas": string(c.id), "source": string(source), "target": string(target)})
	return e, nil
}

// DeleteNode removes the node and every edge touching it. It reports
// whether anything was removed; unknown ids are a silent no-op.
func (c *Controller) DeleteNode(ctx context.Context, id model.ID) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.nodes = append(c.nodes[:i:i], c.nodes[i+1:]...)
	kept := c.edges[:0:0]
	for _, e := range c.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	c.edges = kept
	c.changed(ctx, plugin.EventNodeDeleted, map[string]any{"canvas": string(c.id), "id": string(id)})
	return true
}

// DeleteEdge removes edges with the given id.
func (c *Controller) DeleteEdge(ctx context.Context, id model.ID) bool {
	kept := c.edges[:0:0]
	for _, e := range c.edges {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(c.edges) {
		return false
	}
	c.edges = kept
	c.changed(ctx, plugin.EventEdgeDeleted, map[string]any{"canvas": string(c.id), "id": string(id)})
	return true
}

// Update applies fn to the node in place.
func (c *Controller) Update(ctx context.Context, id model.ID, fn func(*model.Node)) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, ErrNodeNotFound)
	}
	fn(&c.nodes[i])
	c.changed(ctx, plugin.EventNodeUpdated, map[string]any{"canvas": string(c.id), "id": string(id)})
	return nil
}

// UpdateNode stores n in place of the node with id. The id is kept.
func (c *Controller) UpdateNode(ctx context.Context, id model.ID, n model.Node) error {
	n = n.Clone()
	n.ID = id
	return c.Update(ctx, id, func(dst *model.Node) { *dst = n })
}

func (c *Controller) MoveNode(ctx context.Context, id model.ID, pos model.Position) error {
	return c.Update(ctx, id, func(n *model.Node) { n.Position = pos })
}

func (c *Controller) SetHandle(ctx context.Context, id model.ID, handle string) error {
	return c.Update(ctx, id, func(n *model.Node) { n.HandcashHandle = handle })
}

func (c *Controller) SetTokenAddress(ctx context.Context, id model.ID, addr string) error {
	return c.Update(ctx, id, func(n *model.Node) { n.TokenAddress = addr })
}

func (c *Controller) SetWalletType(ctx context.Context, id model.ID, wt model.WalletType) error {
	if !wt.Valid() {
		return fmt.Errorf("wallet type %q: %w", wt, ErrInvalidValue)
	}
	return c.Update(ctx, id, func(n *model.Node) { n.WalletType = wt })
}

// SetMultisig sets the signature threshold and, when non-nil, the signers.
func (c *Controller) SetMultisig(ctx context.Context, id model.ID, threshold int, signers []string) error {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return fmt.Errorf("threshold %d outside %d..%d: %w", threshold, MinThreshold, MaxThreshold, ErrInvalidValue)
	}
	return c.Update(ctx, id, func(n *model.Node) {
		n.MultisigThreshold = threshold
		if signers != nil {
			n.MultisigSigners = append([]string(nil), signers...)
		}
	})
}
