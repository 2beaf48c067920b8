package workspace

import (
	"context"
	"fmt"

	"github.com/b0ase/cashboard/canvas"
	"github.com/b0ase/cashboard/format/cashboard"
	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/nav"
	"github.com/b0ase/cashboard/picker"
	"github.com/b0ase/cashboard/tabs"
)

// Canvas scale is a zoom percentage.
const (
	MinScale     = 10
	MaxScale     = 200
	ScaleStep    = 10
	DefaultScale = 35
)

type ZoomDir int

const (
	ZoomReset ZoomDir = iota
	ZoomIn
	ZoomOut
)

// ParseZoom maps "in", "out" and "reset" to a direction.
func ParseZoom(s string) (ZoomDir, error) {
	switch s {
	case "in":
		return ZoomIn, nil
	case "out":
		return ZoomOut, nil
	case "reset", "":
		return ZoomReset, nil
	}
	return 0, fmt.Errorf("zoom direction %q", s)
}

// Tabs lists the open tabs in display order.
func (w *Workspace) Tabs() []tabs.Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tabs.Tabs()
}

func (w *Workspace) ActiveTab() tabs.Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tabs.Active()
}

// CreateTab opens a blank tab, or a template tab when tmpl is set.
func (w *Workspace) CreateTab(ctx context.Context, tmpl *model.TemplateItem) tabs.Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.tabs.Create(tmpl)
	w.activate(ctx)
	w.logf("created tab %s %q", t.ID, t.Title)
	return t
}

// CreateNodeTab opens a details tab for a node of the active canvas.
func (w *Workspace) CreateNodeTab(ctx context.Context, id model.ID) (tabs.Tab, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.activate(ctx).ctrl.Node(id)
	if !ok {
		return tabs.Tab{}, fmt.Errorf("node tab %s: %w", id, canvas.ErrNodeNotFound)
	}
	t := w.tabs.CreateForNode(n)
	w.activate(ctx)
	w.logf("created node tab %s", t.ID)
	return t, nil
}

// CloseTab closes a tab and drops its in-memory state. Saved canvases stay
// in the store.
func (w *Workspace) CloseTab(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.tabs.Close(id); err != nil {
		return err
	}
	delete(w.states, id)
	w.logf("closed tab %s", id)
	return nil
}

func (w *Workspace) SwitchTab(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.tabs.Switch(id); err != nil {
		return err
	}
	w.activate(ctx)
	return nil
}

// RenameTab renames the active tab through the inline editor. Blank titles
// are ignored. The canvas is saved under the new title right away.
func (w *Workspace) RenameTab(ctx context.Context, id, title string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.tabs.BeginRename(id) {
		if _, ok := w.tabs.Get(id); !ok {
			return false, fmt.Errorf("rename %s: %w", id, tabs.ErrTabNotFound)
		}
		return false, nil
	}
	if err := w.tabs.SetDraft(title); err != nil {
		return false, err
	}
	oldTitle, newTitle, changed := w.tabs.CommitRename()
	if !changed {
		return false, nil
	}
	st := w.activate(ctx)
	if st.stack.AtRoot() {
		st.ctrl.SetTitle(newTitle)
	}
	if len(st.stack.Entries) > 0 {
		st.stack.Entries[0].Title = newTitle
		st.stack.Entries[0].Canvas.Title = newTitle
	}
	w.persist(ctx)
	w.logf("renamed tab %s: %q -> %q", id, oldTitle, newTitle)
	return true, nil
}

// View returns the active tab's presentation state.
func (w *Workspace) View(ctx context.Context) model.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activate(ctx).view
}

func (w *Workspace) SetViewport(ctx context.Context, vp model.Viewport) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	st.view.Viewport = &vp
	w.persist(ctx)
}

func (w *Workspace) SetSettings(ctx context.Context, s model.Settings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	st.view.Settings = &s
	w.persist(ctx)
}

func (w *Workspace) settings(st *tabState) *model.Settings {
	if st.view.Settings == nil {
		s := model.DefaultSettings()
		st.view.Settings = &s
	}
	return st.view.Settings
}

// ToggleRunning flips the workflow status between running and stopped.
func (w *Workspace) ToggleRunning(ctx context.Context) model.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.settings(w.activate(ctx))
	if s.WorkflowStatus == "running" {
		s.WorkflowStatus = "stopped"
	} else {
		s.WorkflowStatus = "running"
	}
	w.persist(ctx)
	return *s
}

func (w *Workspace) ToggleAutoMode(ctx context.Context) model.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.settings(w.activate(ctx))
	s.AutoMode = !s.AutoMode
	w.persist(ctx)
	return *s
}

func (w *Workspace) ConnectionStyle() cashboard.Style {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.style
}

// CycleConnectionStyle advances the edge style for the whole session.
func (w *Workspace) CycleConnectionStyle() cashboard.Style {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.style = cashboard.NextStyle(w.style)
	return w.style
}

// Zoom steps the active tab's scale by ScaleStep within MinScale..MaxScale,
// or resets it to DefaultScale. The viewport zoom follows the scale.
func (w *Workspace) Zoom(ctx context.Context, dir ZoomDir) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	s := st.view.CanvasScale
	switch dir {
	case ZoomIn:
		s = min(MaxScale, s+ScaleStep)
	case ZoomOut:
		s = max(MinScale, s-ScaleStep)
	default:
		s = DefaultScale
	}
	st.view.CanvasScale = s
	vp := model.Viewport{Zoom: float64(s) / 100}
	if st.view.Viewport != nil {
		vp.X, vp.Y = st.view.Viewport.X, st.view.Viewport.Y
	}
	st.view.Viewport = &vp
	w.persist(ctx)
	return s
}

// State is everything a client needs to draw the session.
type State struct {
	ID              string          `json:"id"`
	Tabs            []tabs.Tab      `json:"tabs"`
	ActiveTab       string          `json:"activeTab"`
	Canvas          model.Canvas    `json:"canvas"`
	View            model.View      `json:"view"`
	Breadcrumbs     []nav.Crumb     `json:"breadcrumbs"`
	Modal           *picker.Modal   `json:"modal,omitempty"`
	ConnectionStyle cashboard.Style `json:"connectionStyle"`
}

func (w *Workspace) State(ctx context.Context) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.activate(ctx)
	s := State{
		ID:              w.id,
		Tabs:            w.tabs.Tabs(),
		ActiveTab:       w.tabs.ActiveID(),
		Canvas:          st.ctrl.Snapshot(),
		View:            st.view,
		Breadcrumbs:     nav.Breadcrumbs(st.stack),
		ConnectionStyle: w.style,
	}
	if w.modal != nil {
		m := *w.modal
		s.Modal = &m
	}
	return s
}
