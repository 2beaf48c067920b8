// Package tabs manages the list of open canvases and which one is active.
package tabs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/model"
)

var (
	ErrProtectedTab = errors.New("tab cannot be closed")
	ErrTabNotFound  = errors.New("tab not found")
	ErrNotEditing   = errors.New("no tab is being renamed")
)

const MainID = catalog.MainTabID

type Tab struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Seed       model.Canvas        `json:"-"`
	IsTemplate bool                `json:"isTemplate,omitempty"`
	Template   *model.TemplateItem `json:"templateData,omitempty"`
	Node       *model.Node         `json:"nodeCanvasData,omitempty"`
}

// Manager is not safe for concurrent use.
type Manager struct {
	tabs    []Tab
	active  string
	editing string
	draft   string
	now     func() time.Time
	last    int64
}

type Option func(*Manager)

// WithClock sets the time source used for tab ids.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// New starts with the main tab seeded by the default canvas.
func New(opts ...Option) *Manager {
	m := &Manager{now: time.Now}
	for _, o := range opts {
		o(m)
	}
	seed := catalog.DefaultCanvas()
	m.tabs = []Tab{{ID: MainID, Title: seed.Title, Seed: seed}}
	m.active = MainID
	return m
}

func (m *Manager) millis() string {
	ms := m.now().UnixMilli()
	if ms <= m.last {
		ms = m.last + 1
	}
	m.last = ms
	return strconv.FormatInt(ms, 10)
}

// Tabs returns a copy of the tab list in display order.
func (m *Manager) Tabs() []Tab { return append([]Tab(nil), m.tabs...) }

func (m *Manager) ActiveID() string { return m.active }

// Active returns the active tab.
func (m *Manager) Active() Tab {
	t, _ := m.Get(m.active)
	return t
}

func (m *Manager) Get(id string) (Tab, bool) {
	for _, t := range m.tabs {
		if t.ID == id {
			return t, true
		}
	}
	return Tab{}, false
}

func (m *Manager) push(t Tab) Tab {
	m.tabs = append(m.tabs, t)
	m.active = t.ID
	return t
}

// Create opens a new tab and activates it. A template tab is seeded with
// the template's organization graph; a blank tab starts empty.
func (m *Manager) Create(tmpl *model.TemplateItem) Tab {
	id := "tab-" + m.millis()
	t := Tab{ID: id, Title: "New Canvas", Seed: model.Canvas{ID: model.ID(id), Title: "New Canvas", Nodes: []model.Node{}, Edges: []model.Edge{}}}
	if tmpl != nil {
		item := *tmpl
		oc := catalog.OrganizationCanvas(item).Canvas()
		oc.ID, oc.Title = model.ID(id), item.Name
		t.Title, t.Seed, t.IsTemplate, t.Template = item.Name, oc, true, &item
	}
	return m.push(t)
}

// Open adds a tab titled title, seeded with a copy of c, and activates it.
func (m *Manager) Open(title string, c model.Canvas) Tab {
	id := "tab-" + m.millis()
	seed := c.Clone()
	seed.ID, seed.Title = model.ID(id), title
	if seed.Nodes == nil {
		seed.Nodes = []model.Node{}
	}
	if seed.Edges == nil {
		seed.Edges = []model.Edge{}
	}
	return m.push(Tab{ID: id, Title: title, Seed: seed})
}

// CreateForNode opens a details tab for node, seeded with its drill-in graph.
func (m *Manager) CreateForNode(node model.Node) Tab {
	id := "node-" + string(node.ID) + "-" + m.millis()
	title := node.Label + " Details"
	seed := catalog.SubCanvasOrDefault(node)
	seed.ID, seed.Title = model.ID(id), title
	n := node.Clone()
	return m.push(Tab{ID: id, Title: title, Seed: seed, Node: &n})
}

// Switch activates id.
func (m *Manager) Switch(id string) error {
	if _, ok := m.Get(id); !ok {
		return fmt.Errorf("switch %s: %w", id, ErrTabNotFound)
	}
	m.active = id
	return nil
}

// Close removes a tab. Closing the active tab activates main.
func (m *Manager) Close(id string) error {
	if id == MainID {
		return ErrProtectedTab
	}
	idx := -1
	for i, t := range m.tabs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("close %s: %w", id, ErrTabNotFound)
	}
	m.tabs = append(m.tabs[:idx:idx], m.tabs[idx+1:]...)
	if m.active == id {
		m.active = MainID
	}
	if m.editing == id {
		m.editing, m.draft = "", ""
	}
	return nil
}

// Editing reports the tab being renamed and the current draft.
func (m *Manager) Editing() (id, draft string, ok bool) {
	return m.editing, m.draft, m.editing != ""
}

// BeginRename starts inline editing. Only the active tab can be renamed;
// other ids are ignored.
func (m *Manager) BeginRename(id string) bool {
	if id != m.active {
		return false
	}
	t, ok := m.Get(id)
	if !ok {
		return false
	}
	m.editing, m.draft = id, t.Title
	return true
}

func (m *Manager) SetDraft(s string) error {
	if m.editing == "" {
		return ErrNotEditing
	}
	m.draft = s
	return nil
}

// CommitRename applies the trimmed draft unless it is blank, and ends editing
// either way. It returns the renamed tab's old and new titles.
func (m *Manager) CommitRename() (oldTitle, newTitle string, changed bool) {
	id, draft := m.editing, strings.TrimSpace(m.draft)
	m.editing, m.draft = "", ""
	if id == "" || draft == "" {
		return "", "", false
	}
	for i := range m.tabs {
		if m.tabs[i].ID == id {
			oldTitle = m.tabs[i].Title
			m.tabs[i].Title = draft
			m.tabs[i].Seed.Title = draft
			return oldTitle, draft, oldTitle != draft
		}
	}
	return "", "", false
}

func (m *Manager) CancelRename() {
	m.editing, m.draft = "", ""
}
