// Package cashboard reads and writes the workflow export document.
package cashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/store"
)

const (
	ExportType    = "workflow_export"
	ExportVersion = "1.0.0"
	nodeType      = "colored"
)

var ErrNoWorkflow = errors.New("document has no workflow.nodes")

type Document struct {
	Metadata Metadata `json:"metadata"`
	Workflow Workflow `json:"workflow"`
}

type Metadata struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Version     string     `json:"version"`
	ExportedAt  string     `json:"exportedAt"`
	Type        string     `json:"type"`
	CanvasInfo  CanvasInfo `json:"canvasInfo"`
}

type CanvasInfo struct {
	TotalNodes int `json:"totalNodes"`
	TotalEdges int `json:"totalEdges"`
}

type Workflow struct {
	Nodes    []Node          `json:"nodes"`
	Edges    []Edge          `json:"edges"`
	Viewport *model.Viewport `json:"viewport,omitempty"`
	Settings Settings        `json:"settings"`
}

type Node struct {
	ID       model.ID        `json:"id"`
	Position *model.Position `json:"position,omitempty"`
	Data     *store.NodeData `json:"data,omitempty"`
	Type     string          `json:"type,omitempty"`
}

// Edge.Animated is written only for animated edges. Documents without it
// animate payment edges.
type Edge struct {
	ID       model.ID `json:"id"`
	Source   model.ID `json:"source"`
	Target   model.ID `json:"target"`
	Type     string   `json:"type,omitempty"`
	Animated *bool    `json:"animated,omitempty"`
}

type Settings struct {
	ConnectionStyle Style `json:"connectionStyle"`
}

// Export builds the document for c. An empty name becomes "workflow".
func Export(c model.Canvas, view model.View, style Style, now time.Time) Document {
	name := c.Title
	if name == "" {
		name = "workflow"
	}
	doc := Document{
		Metadata: Metadata{
			Name:        name,
			Description: name + " workflow exported from Cashboard",
			Version:     ExportVersion,
			ExportedAt:  now.UTC().Format(time.RFC3339Nano),
			Type:        ExportType,
			CanvasInfo:  CanvasInfo{TotalNodes: len(c.Nodes), TotalEdges: len(c.Edges)},
		},
		Workflow: Workflow{
			Nodes:    make([]Node, 0, len(c.Nodes)),
			Edges:    make([]Edge, 0, len(c.Edges)),
			Viewport: view.Viewport,
			Settings: Settings{ConnectionStyle: style},
		},
	}
	for _, n := range c.Nodes {
		pos := n.Position
		data := store.DataOf(n)
		doc.Workflow.Nodes = append(doc.Workflow.Nodes, Node{ID: n.ID, Position: &pos, Data: &data, Type: nodeType})
	}
	for _, e := range c.Edges {
		out := Edge{ID: e.ID, Source: e.Source, Target: e.Target, Type: e.Type}
		if e.Animated {
			animated := true
			out.Animated = &animated
		}
		doc.Workflow.Edges = append(doc.Workflow.Edges, out)
	}
	return doc
}

// Marshal renders doc indented, as it is downloaded.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// FileName maps every non-alphanumeric character of name to '_'.
func FileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + "_workflow.json"
}

// Parse decodes an export document. It fails on malformed JSON and on
// documents without workflow.nodes.
func Parse(b []byte) (Document, error) {
	var probe struct {
		Workflow *struct {
			Nodes json.RawMessage `json:"nodes"`
		} `json:"workflow"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return Document{}, fmt.Errorf("parse workflow export: %w", err)
	}
	if probe.Workflow == nil || len(probe.Workflow.Nodes) == 0 || string(probe.Workflow.Nodes) == "null" {
		return Document{}, ErrNoWorkflow
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, fmt.Errorf("parse workflow export: %w", err)
	}
	return doc, nil
}

// Appender is the part of a canvas controller Import needs.
type Appender interface {
	Append(ctx context.Context, nodes []model.Node, edges []model.Edge)
}

// Import appends the document's nodes and edges to dst and returns the
// document's viewport for the caller to apply.
func Import(ctx context.Context, dst Appender, doc Document) *model.Viewport {
	nodes := make([]model.Node, 0, len(doc.Workflow.Nodes))
	for _, n := range doc.Workflow.Nodes {
		var pos model.Position
		if n.Position != nil {
			pos = *n.Position
		}
		data := store.NodeData{Label: "Imported Node", Kind: model.KindWorkflow}
		if n.Data != nil {
			data = *n.Data
			if !data.Kind.Valid() {
				data.Kind = model.KindTask
			}
		}
		nodes = append(nodes, data.Node(n.ID, pos))
	}
	edges := make([]model.Edge, 0, len(doc.Workflow.Edges))
	for _, e := range doc.Workflow.Edges {
		typ := e.Type
		if typ == "" {
			typ = "default"
		}
		animated := typ == "payment"
		if e.Animated != nil {
			animated = *e.Animated
		}
		edges = append(edges, model.Edge{ID: e.ID, Source: e.Source, Target: e.Target, Type: typ, Animated: animated})
	}
	dst.Append(ctx, nodes, edges)
	return doc.Workflow.Viewport
}
