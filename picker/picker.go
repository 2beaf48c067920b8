// Package picker is the template selection modal: which items are offered
// for a kind, and what selecting one should do.
package picker

import (
	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/model"
)

// Modal is the open template list.
type Modal struct {
	Kind  model.Kind           `json:"kind"`
	Items []model.TemplateItem `json:"items"`
}

// Open lists the templates for kind.
func Open(cat *catalog.Catalog, kind model.Kind) Modal {
	return Modal{Kind: kind, Items: cat.Items(kind)}
}

// Action says what a selection resolves to.
type Action int

const (
	// InsertNode adds one annotated node for Item.
	InsertNode Action = iota
	// Reopen replaces the modal with Next.
	Reopen
	// NewTab opens a tab seeded from Item's organization graph.
	NewTab
	// ReplaceCanvas loads Canvas into the current tab.
	ReplaceCanvas
)

func (a Action) String() string {
	switch a {
	case InsertNode:
		return "insert"
	case Reopen:
		return "reopen"
	case NewTab:
		return "new-tab"
	case ReplaceCanvas:
		return "replace"
	}
	return "unknown"
}

type Outcome struct {
	Action Action
	Kind   model.Kind
	Item   model.TemplateItem
	Next   *Modal
	Canvas *catalog.OrgCanvas
}

// Select resolves a choice. newTab reports whether a new-tab callback is
// wired; organization templates open in a tab only then.
func Select(cat *catalog.Catalog, m Modal, item model.TemplateItem, newTab bool) Outcome {
	switch {
	case m.Kind == model.KindInstrument && item.Type == catalog.CryptoModalType:
		next := Modal{Kind: model.KindCrypto, Items: cat.Crypto()}
		for i := range next.Items {
			next.Items[i].Code = ""
		}
		return Outcome{Action: Reopen, Kind: m.Kind, Item: item, Next: &next}
	case m.Kind == model.KindOrganization && item.Category != "" && newTab:
		return Outcome{Action: NewTab, Kind: m.Kind, Item: item}
	case m.Kind == model.KindOrganization && item.Category != "":
		oc := catalog.OrganizationCanvas(item)
		return Outcome{Action: ReplaceCanvas, Kind: m.Kind, Item: item, Canvas: &oc}
	}
	return Outcome{Action: InsertNode, Kind: m.Kind, Item: item}
}
