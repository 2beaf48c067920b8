// Package workspace ties tabs, canvases, navigation and the template modal
// into one editing session, and keeps the sessions of a process.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/b0ase/cashboard/canvas"
	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/editor"
	"github.com/b0ase/cashboard/format/cashboard"
	"github.com/b0ase/cashboard/format/n8n"
	"github.com/b0ase/cashboard/logging"
	"github.com/b0ase/cashboard/metrics"
	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/nav"
	"github.com/b0ase/cashboard/picker"
	"github.com/b0ase/cashboard/plugin"
	"github.com/b0ase/cashboard/store"
	"github.com/b0ase/cashboard/tabs"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoModal         = errors.New("no template modal is open")
	ErrUnknownFormat   = errors.New("not a workflow export or n8n workflow")
)

const maxLogs = 1000

type Option func(*Workspace)

// WithStore enables load-on-open and autosave.
func WithStore(s *store.CanvasStore) Option { return func(w *Workspace) { w.store = s } }

func WithBus(b plugin.EventBus) Option { return func(w *Workspace) { w.bus = b } }

func WithLogger(l *zap.Logger) Option { return func(w *Workspace) { w.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(w *Workspace) { w.m = m } }

func WithCatalog(c *catalog.Catalog) Option { return func(w *Workspace) { w.cat = c } }

// WithNavigator hands drill targets to an external workflow view.
func WithNavigator(n nav.Navigator) Option { return func(w *Workspace) { w.navigate = n } }

// WithTemplateTabs controls whether organization templates open in a new
// tab (the default) or replace the active canvas.
func WithTemplateTabs(on bool) Option { return func(w *Workspace) { w.templateTabs = on } }

func WithIDs(f canvas.IDFunc) Option { return func(w *Workspace) { w.ids = f } }

func WithClock(now func() time.Time) Option { return func(w *Workspace) { w.now = now } }

// tabState is the per-tab canvas, its drill history and presentation.
type tabState struct {
	ctrl  *canvas.Controller
	stack nav.Stack
	view  model.View
}

// Workspace is one editing session. All methods are safe for concurrent
// use; they serialize on the workspace mutex.
type Workspace struct {
	mu sync.Mutex

	id           string
	created      time.Time
	tabs         *tabs.Manager
	states       map[string]*tabState
	modal        *picker.Modal
	style        cashboard.Style
	store        *store.CanvasStore
	cat          *catalog.Catalog
	bus          plugin.EventBus
	log          *zap.Logger
	m            *metrics.Metrics
	navigate     nav.Navigator
	templateTabs bool
	ids          canvas.IDFunc
	now          func() time.Time

	logs []string
}

// New opens a workspace with the main tab active and loaded.
func New(ctx context.Context, id string, opts ...Option) *Workspace {
	w := &Workspace{
		id:           id,
		states:       make(map[string]*tabState),
		style:        cashboard.DefaultStyle,
		bus:          plugin.Nop{},
		log:          zap.NewNop(),
		templateTabs: true,
		now:          time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	if w.cat == nil {
		w.cat = catalog.Builtin()
	}
	if w.ids == nil {
		w.ids = canvas.MillisIDs(w.now)
	}
	w.log = logging.OrNop(w.log).With(zap.String("session", id))
	w.created = w.now()
	w.tabs = tabs.New(tabs.WithClock(w.now))
	w.activate(ctx)
	return w
}

func (w *Workspace) ID() string { return w.id }

func (w *Workspace) Created() time.Time { return w.created }

func (w *Workspace) logf(format string, a ...any) {
	line := w.now().Format(time.RFC3339) + " " + fmt.Sprintf(format, a...)
	w.logs = append(w.logs, line)
	if len(w.logs) > maxLogs {
		w.logs = w.logs[len(w.logs)-maxLogs:]
	}
}

// Logs returns the session's activity log, oldest first.
func (w *Workspace) Logs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.logs...)
}

// activate makes sure the active tab has state. The first time a tab is
// activated its saved canvas, if any, replaces the seed.
func (w *Workspace) activate(ctx context.Context) *tabState {
	return w.open(ctx, true)
}

func (w *Workspace) open(ctx context.Context, load bool) *tabState {
	tab := w.tabs.Active()
	if st, ok := w.states[tab.ID]; ok {
		return st
	}
	seed := tab.Seed
	view := model.View{}
	if load && w.store != nil {
		if c, v, found := w.store.Load(ctx, tab.Title); found {
			seed.Nodes, seed.Edges = c.Nodes, c.Edges
			view = v
			w.logf("loaded %q from store: %d nodes", tab.Title, len(c.Nodes))
		} else if v, ok := w.store.View(ctx, tab.Title); ok {
			view = v
		}
	}
	if view.CanvasScale == 0 {
		view.CanvasScale = DefaultScale
	}
	st := &tabState{view: view}
	st.stack = nav.Root(seed)
	st.ctrl = w.controllerFor(tab.ID, seed, true)
	w.states[tab.ID] = st
	return st
}

// controllerFor builds a controller over c. Only a tab's root canvas is
// autosaved; drill-in levels are derived from their parent node.
func (w *Workspace) controllerFor(tabID string, c model.Canvas, root bool) *canvas.Controller {
	opts := []canvas.Option{
		canvas.WithIDs(w.ids),
		canvas.WithBus(w.bus),
		canvas.WithLogger(w.log),
		canvas.WithCatalog(w.cat),
	}
	if root {
		opts = append(opts, canvas.OnChange(func(ctx context.Context, snap model.Canvas) {
			w.autosave(ctx, tabID, snap)
		}))
	}
	return canvas.New(c, opts...)
}

func (w *Workspace) autosave(ctx context.Context, tabID string, c model.Canvas) {
	if w.store == nil {
		return
	}
	tab, ok := w.tabs.Get(tabID)
	if !ok {
		return
	}
	view := model.View{}
	if st, ok := w.states[tabID]; ok {
		view = st.view
	}
	if err := w.store.Save(ctx, tab.Title, c, view); err != nil {
		w.log.Error("autosave failed", zap.String("tab", tabID), zap.Error(err))
	}
}

// persist saves the active tab's root canvas with its current view.
func (w *Workspace) persist(ctx context.Context) {
	st := w.activate(ctx)
	if !st.stack.AtRoot() {
		return
	}
	w.autosave(ctx, w.tabs.ActiveID(), st.ctrl.Snapshot())
}

// Controller returns the canvas handle of the active tab at its current
// navigation level. Callers sharing the workspace across goroutines should
// use Do instead.
func (w *Workspace) Controller() *canvas.Controller {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activate(context.Background()).ctrl
}

// Do runs fn with the active controller while holding the workspace lock.
func (w *Workspace) Do(ctx context.Context, fn func(*canvas.Controller) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.activate(ctx).ctrl)
}

// Canvas returns a snapshot of what the active tab shows.
func (w *Workspace) Canvas(ctx context.Context) model.Canvas {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activate(ctx).ctrl.Snapshot()
}

// AddNodeToActiveCanvas appends a node of kind below the existing ones.
func (w *Workspace) AddNodeToActiveCanvas(ctx context.Context, kind model.Kind) model.Node {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.activate(ctx).ctrl.AddNode(ctx, kind)
	w.logf("added %s node %s", kind, n.ID)
	return n
}

// DeleteNodeFromCanvas removes a node and its edges from the active canvas.
func (w *Workspace) DeleteNodeFromCanvas(ctx context.Context, id model.ID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ok := w.activate(ctx).ctrl.DeleteNode(ctx, id)
	if ok {
		w.logf("deleted node %s", id)
	}
	return ok
}

// PickResult is either the inserted node or the modal that opened.
type PickResult struct {
	Node  *model.Node   `json:"node,omitempty"`
	Modal *picker.Modal `json:"modal,omitempty"`
}

// Pick handles a palette click on the active canvas.
func (w *Workspace) Pick(ctx context.Context, kind model.Kind, f canvas.Frame) (PickResult, error) {
	if !kind.Valid() {
		return PickResult{}, fmt.Errorf("pick %q: %w", kind, model.ErrUnknownKind)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.activate(ctx).ctrl.Pick(ctx, kind, f)
	var nt *canvas.NeedsTemplateError
	switch {
	case errors.As(err, &nt):
		m := picker.Modal{Kind: nt.Kind, Items: nt.Items}
		w.modal = &m
		return PickResult{Modal: &m}, nil
	case err != nil:
		return PickResult{}, err
	}
	w.logf("picked %s node %s", kind, n.ID)
	return PickResult{Node: &n}, nil
}

// Modal returns the open template modal, if any.
func (w *Workspace) Modal() *picker.Modal {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modal == nil {
		return nil
	}
	m := *w.modal
	m.Items = append([]model.TemplateItem(nil), m.Items...)
	return &m
}

func (w *Workspace) CloseModal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.modal = nil
}

// SelectTemplate applies the choice of item in the open modal.
func (w *Workspace) SelectTemplate(ctx context.Context, item model.TemplateItem, f canvas.Frame) (picker.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modal == nil {
		return picker.Outcome{}, ErrNoModal
	}
	out := picker.Select(w.cat, *w.modal, item, w.templateTabs)
	w.modal = nil
	switch out.Action {
	case picker.Reopen:
		w.modal = out.Next
	case picker.NewTab:
		tab := w.tabs.Create(&item)
		w.activate(ctx)
		w.logf("opened template tab %s for %q", tab.ID, item.Name)
	case picker.ReplaceCanvas:
		w.activate(ctx).ctrl.Replace(ctx, out.Canvas.Nodes, out.Canvas.Edges)
		w.logf("replaced canvas with %q template", item.Name)
	case picker.InsertNode:
		n := w.activate(ctx).ctrl.InsertTemplateNode(ctx, out.Kind, item, f)
		w.logf("inserted %s template %q as %s", out.Kind, item.Name, n.ID)
	}
	return out, nil
}

// ClickNode drills into a node of the active canvas. When a navigator takes
// the node, the local stack is left alone and the returned entry carries
// the workflow id.
func (w *Workspace) ClickNode(ctx context.Context, id model.ID) (nav.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	node, ok := st.ctrl.Node(id)
	if !ok {
		return nav.Entry{}, fmt.Errorf("click %s: %w", id, canvas.ErrNodeNotFound)
	}
	entry := nav.Resolve(node, w.navigate)
	if entry.WorkflowID != "" {
		w.logf("handed %s to workflow %s", id, entry.WorkflowID)
		return entry, nil
	}
	w.moveTo(st, nav.Reduce(w.stash(st), nav.DrillInto{Entry: entry}))
	w.logf("drilled into %s", id)
	return entry, nil
}

// Back returns to the previous level. At the root it does nothing.
func (w *Workspace) Back(ctx context.Context) nav.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	w.moveTo(st, nav.Reduce(w.stash(st), nav.Back{}))
	e, _ := st.stack.Current()
	return e
}

// JumpTo activates breadcrumb i. Out-of-range indexes are ignored.
func (w *Workspace) JumpTo(ctx context.Context, i int) nav.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	w.moveTo(st, nav.Reduce(w.stash(st), nav.JumpTo{Index: i}))
	e, _ := st.stack.Current()
	return e
}

func (w *Workspace) Breadcrumbs(ctx context.Context) []nav.Crumb {
	w.mu.Lock()
	defer w.mu.Unlock()
	return nav.Breadcrumbs(w.activate(ctx).stack)
}

// stash records the live canvas in the current stack entry, so edits made
// at a level survive leaving it.
func (w *Workspace) stash(st *tabState) nav.Stack {
	s := st.stack
	if s.Index >= 0 && s.Index < len(s.Entries) {
		entries := append([]nav.Entry(nil), s.Entries...)
		snap := st.ctrl.Snapshot()
		entries[s.Index].Canvas.Nodes, entries[s.Index].Canvas.Edges = snap.Nodes, snap.Edges
		s.Entries = entries
	}
	return s
}

func (w *Workspace) moveTo(st *tabState, next nav.Stack) {
	prev := st.stack.Index
	st.stack = next
	if next.Index == prev && len(next.Entries) > 0 && st.ctrl != nil {
		return
	}
	e, ok := next.Current()
	if !ok {
		return
	}
	c := e.Canvas
	if next.Index == 0 {
		c.Title = w.tabs.Active().Title
	}
	st.ctrl = w.controllerFor(w.tabs.ActiveID(), c, next.Index == 0)
}

// Form opens the property editor for a node of the active canvas.
func (w *Workspace) Form(ctx context.Context, id model.ID) (editor.Form, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.activate(ctx).ctrl.Node(id)
	if !ok {
		return editor.Form{}, fmt.Errorf("edit %s: %w", id, canvas.ErrNodeNotFound)
	}
	return editor.NewForm(n), nil
}

// EditNode validates values against the node's schema and saves them.
func (w *Workspace) EditNode(ctx context.Context, id model.ID, values map[string]any) (model.Node, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctrl := w.activate(ctx).ctrl
	n, ok := ctrl.Node(id)
	if !ok {
		return model.Node{}, fmt.Errorf("edit %s: %w", id, canvas.ErrNodeNotFound)
	}
	updated, err := editor.Apply(n, values)
	if err != nil {
		return model.Node{}, err
	}
	if err := ctrl.UpdateNode(ctx, id, updated); err != nil {
		return model.Node{}, err
	}
	w.logf("edited node %s", id)
	return updated, nil
}

// Export renders the active canvas as an export document.
func (w *Workspace) Export(ctx context.Context) cashboard.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	return cashboard.Export(st.ctrl.Snapshot(), st.view, w.style, w.now())
}

// Import appends an export document to the active canvas and applies its
// viewport.
func (w *Workspace) Import(ctx context.Context, doc cashboard.Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	if vp := cashboard.Import(ctx, st.ctrl, doc); vp != nil {
		v := *vp
		st.view.Viewport = &v
		w.persist(ctx)
	}
	w.m.Imported("cashboard", nil)
	w.logf("imported %d nodes, %d edges", len(doc.Workflow.Nodes), len(doc.Workflow.Edges))
}

// ImportN8n opens an n8n workflow in a new tab.
func (w *Workspace) ImportN8n(ctx context.Context, wf n8n.N8nWorkflow) tabs.Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := n8n.ToCanvas(wf)
	title := wf.Name
	if title == "" {
		title = "Imported Workflow"
	}
	tab := w.tabs.Open(title, c)
	st := w.open(ctx, false)
	w.autosave(ctx, tab.ID, st.ctrl.Snapshot())
	w.m.Imported("n8n", nil)
	w.logf("imported n8n workflow %q into %s", title, tab.ID)
	return tab
}

// ImportBytes detects the document format and imports it: workflow exports
// append to the active canvas, n8n workflows open a tab. It returns the
// format name.
func (w *Workspace) ImportBytes(ctx context.Context, b []byte) (string, error) {
	doc, err := cashboard.Parse(b)
	if err == nil {
		w.Import(ctx, doc)
		return "cashboard", nil
	}
	if !errors.Is(err, cashboard.ErrNoWorkflow) {
		w.m.Imported("cashboard", err)
		return "", err
	}
	wf, nerr := n8n.Parse(b)
	if nerr != nil {
		w.m.Imported("unknown", nerr)
		return "", fmt.Errorf("%w: %v", ErrUnknownFormat, nerr)
	}
	w.ImportN8n(ctx, wf)
	return "n8n", nil
}
