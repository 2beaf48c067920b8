// Package nav models drilling into nodes as a stack of canvas snapshots
// with a movable cursor. Every transition is a pure function of the stack.
package nav

import (
	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/model"
)

// Entry is one canvas in the navigation history.
type Entry struct {
	ID         string
	Title      string
	Canvas     model.Canvas
	Parent     *model.Node
	WorkflowID string // set when the target is an external workflow
}

// Stack never shrinks on Back; only a drill from a non-tip index truncates.
type Stack struct {
	Entries []Entry
	Index   int
}

// Root starts a stack at the given canvas.
func Root(c model.Canvas) Stack {
	return Stack{Entries: []Entry{{ID: string(c.ID), Title: c.Title, Canvas: c}}}
}

// Current returns the active entry. ok is false for an empty stack.
func (s Stack) Current() (Entry, bool) {
	if s.Index < 0 || s.Index >= len(s.Entries) {
		return Entry{}, false
	}
	return s.Entries[s.Index], true
}

func (s Stack) AtRoot() bool { return s.Index == 0 }

type Action interface{ isAction() }

type DrillInto struct{ Entry Entry }

type Back struct{}

type JumpTo struct{ Index int }

func (DrillInto) isAction() {}
func (Back) isAction()      {}
func (JumpTo) isAction()    {}

// Reduce applies a to s and returns the new stack. s is not modified.
func Reduce(s Stack, a Action) Stack {
	switch a := a.(type) {
	case DrillInto:
		keep := s.Index + 1
		if keep > len(s.Entries) {
			keep = len(s.Entries)
		}
		entries := make([]Entry, keep, keep+1)
		copy(entries, s.Entries[:keep])
		entries = append(entries, a.Entry)
		return Stack{Entries: entries, Index: len(entries) - 1}
	case Back:
		if s.Index > 0 {
			s.Index--
		}
		return s
	case JumpTo:
		if a.Index >= 0 && a.Index < len(s.Entries) {
			s.Index = a.Index
		}
		return s
	}
	return s
}

// Crumb is one breadcrumb label.
type Crumb struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

func Breadcrumbs(s Stack) []Crumb {
	out := make([]Crumb, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = Crumb{Index: i, Title: e.Title, Active: i == s.Index}
	}
	return out
}

// Navigator hands a drill target off to an external workflow view. When it
// returns false the drill falls back to a local sub-canvas.
type Navigator func(workflowID string, node model.Node) bool

// Resolve builds the entry a drill into node lands on.
//
// With a navigator wired, the node's child workflow id (or a synthetic
// node-canvas-<id>) is handed to it. Otherwise, or when the navigator
// declines, the kind's sub-canvas is used, and an empty canvas when the kind
// has none.
func Resolve(node model.Node, navigate Navigator) Entry {
	parent := node.Clone()
	title := node.Label
	if navigate != nil {
		wid := node.ChildWorkflowID
		if wid == "" {
			wid = "node-canvas-" + string(node.ID)
		}
		if navigate(wid, parent) {
			return Entry{ID: wid, Title: title, Parent: &parent, WorkflowID: wid,
				Canvas: model.Canvas{ID: model.ID(wid), Title: title}}
		}
	}
	id := "node-canvas-" + string(node.ID)
	c, ok := catalog.SubCanvas(node)
	if !ok {
		c = model.Canvas{Nodes: []model.Node{}, Edges: []model.Edge{}}
	}
	c.ID, c.Title = model.ID(id), title
	return Entry{ID: id, Title: title, Canvas: c, Parent: &parent}
}
