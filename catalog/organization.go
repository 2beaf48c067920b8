package catalog

import (
	"strings"

	"github.com/b0ase/cashboard/model"
)

// OrgCanvas is a prefabricated organization graph.
type OrgCanvas struct {
	ID          string
	Name        string
	Description string
	Nodes       []model.Node
	Edges       []model.Edge
}

// Canvas converts the template into a titled canvas.
func (o OrgCanvas) Canvas() model.Canvas {
	return model.Canvas{ID: model.ID(o.ID), Title: o.Name, Nodes: o.Nodes, Edges: o.Edges}
}

type orgNode struct {
	suffix string
	label  string
	x, y   float64
	kind   model.Kind
}

type orgLayout struct {
	description string
	nodes       []orgNode
	edges       [][2]string
}

var genericLayout = orgLayout{
	description: "Generic organization structure",
	nodes: []orgNode{
		{"leadership", "Leadership", 300, 150, model.KindRole},
		{"operations", "Operations", 500, 150, model.KindRole},
		{"assets", "Assets", 300, 250, model.KindInstrument},
		{"agreements", "Agreements", 500, 250, model.KindContract},
	},
	edges: [][2]string{{"org", "leadership"}, {"org", "operations"}, {"leadership", "assets"}, {"operations", "agreements"}},
}

// Categories missing here use genericLayout.
var orgLayouts = map[string]orgLayout{
	"Technology": {
		description: "Technology corporation structure",
		nodes: []orgNode{
			{"ceo", "CEO", 200, 150, model.KindRole},
			{"cto", "CTO", 400, 150, model.KindRole},
			{"cfo", "CFO", 600, 150, model.KindRole},
			{"eng", "Engineering", 150, 250, model.KindRole},
			{"product", "Product", 300, 250, model.KindRole},
			{"sales", "Sales", 450, 250, model.KindRole},
			{"marketing", "Marketing", 600, 250, model.KindRole},
			{"equity", "Common Stock", 200, 350, model.KindInstrument},
			{"options", "Employee Options", 400, 350, model.KindInstrument},
			{"revenue", "Revenue Stream", 600, 350, model.KindInstrument},
			{"employment", "Employment Contracts", 300, 450, model.KindContract},
			{"customer", "Customer Agreements", 500, 450, model.KindContract},
		},
		edges: [][2]string{
			{"org", "ceo"}, {"org", "cto"}, {"org", "cfo"},
			{"ceo", "eng"}, {"cto", "product"}, {"cfo", "revenue"},
			{"org", "equity"}, {"org", "options"},
		},
	},
	"Manufacturing": {
		description: "Manufacturing corporation structure",
		nodes: []orgNode{
			{"ceo", "CEO", 400, 150, model.KindRole},
			{"ops", "Operations Director", 200, 250, model.KindRole},
			{"quality", "Quality Control", 400, 250, model.KindRole},
			{"supply", "Supply Chain", 600, 250, model.KindRole},
			{"production", "Production Line", 200, 350, model.KindInstrument},
			{"inventory", "Inventory", 400, 350, model.KindInstrument},
			{"safety", "Safety Protocols", 600, 350, model.KindContract},
		},
		edges: [][2]string{
			{"org", "ceo"}, {"ceo", "ops"}, {"ceo", "quality"}, {"ceo", "supply"},
			{"ops", "production"}, {"quality", "inventory"},
		},
	},
	"Financial Services": {
		description: "Financial services structure",
		nodes: []orgNode{
			{"ceo", "CEO", 400, 150, model.KindRole},
			{"risk", "Risk Management", 200, 250, model.KindRole},
			{"compliance", "Compliance", 400, 250, model.KindRole},
			{"trading", "Trading Desk", 600, 250, model.KindRole},
			{"capital", "Capital Reserves", 200, 350, model.KindInstrument},
			{"derivatives", "Derivatives", 400, 350, model.KindInstrument},
			{"regulatory", "Regulatory Compliance", 600, 350, model.KindContract},
		},
		edges: [][2]string{
			{"org", "ceo"}, {"ceo", "risk"}, {"ceo", "compliance"}, {"ceo", "trading"},
			{"risk", "capital"}, {"trading", "derivatives"},
		},
	},
	"Healthcare": {
		description: "Healthcare organization structure",
		nodes: []orgNode{
			{"medical", "Medical Director", 400, 150, model.KindRole},
			{"nursing", "Nursing Staff", 200, 250, model.KindRole},
			{"admin", "Administration", 600, 250, model.KindRole},
			{"equipment", "Medical Equipment", 300, 350, model.KindInstrument},
			{"insurance", "Insurance Contracts", 500, 350, model.KindContract},
		},
		edges: [][2]string{{"org", "medical"}, {"medical", "nursing"}, {"medical", "admin"}, {"admin", "equipment"}},
	},
	"Creative Services": {
		description: "Creative services structure",
		nodes: []orgNode{
			{"creative", "Creative Director", 400, 150, model.KindRole},
			{"designers", "Designers", 200, 250, model.KindRole},
			{"account", "Account Management", 600, 250, model.KindRole},
			{"portfolio", "Portfolio Assets", 300, 350, model.KindInstrument},
			{"client", "Client Contracts", 500, 350, model.KindContract},
		},
		edges: [][2]string{{"org", "creative"}, {"creative", "designers"}, {"creative", "account"}, {"account", "client"}},
	},
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// OrganizationCanvas expands an organization template into its full graph.
// The layout is chosen by the template's category.
func OrganizationCanvas(item model.TemplateItem) OrgCanvas {
	base := item.ID
	if base == "" {
		base = slug(item.Name)
	}
	layout, ok := orgLayouts[item.Category]
	if !ok {
		layout = genericLayout
	}
	desc := item.Description
	if desc == "" {
		desc = layout.description
	}

	id := func(suffix string) model.ID { return model.ID(base + "-" + suffix) }
	tmpl := item
	out := OrgCanvas{
		ID:          base,
		Name:        item.Name,
		Description: desc,
		Nodes:       make([]model.Node, 0, len(layout.nodes)+1),
		Edges:       make([]model.Edge, 0, len(layout.edges)),
	}
	out.Nodes = append(out.Nodes, model.Node{
		ID:       id("org"),
		Position: model.Position{X: 400, Y: 50},
		Kind:     model.KindOrganization,
		Label:    item.Name,
		Template: &tmpl,
	})
	for _, n := range layout.nodes {
		out.Nodes = append(out.Nodes, model.Node{
			ID:       id(n.suffix),
			Position: model.Position{X: n.x, Y: n.y},
			Kind:     n.kind,
			Label:    n.label,
		})
	}
	for _, e := range layout.edges {
		out.Edges = append(out.Edges, model.Edge{
			ID:     model.ID(base + "-" + e[0] + "-" + e[1]),
			Source: id(e[0]),
			Target: id(e[1]),
		})
	}
	return out
}
