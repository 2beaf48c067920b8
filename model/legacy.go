package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyWorkflow is the {nodes, connections} shape used to seed tabs.
type LegacyWorkflow struct {
	Nodes       []LegacyNode       `json:"nodes"`
	Connections []LegacyConnection `json:"connections"`
}

type LegacyNode struct {
	ID             FlexID         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	X              float64        `json:"x"`
	Y              float64        `json:"y"`
	HandcashHandle string         `json:"handcashHandle,omitempty"`
	Description    string         `json:"description,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type LegacyConnection struct {
	ID   FlexID `json:"id,omitempty"`
	From FlexID `json:"from"`
	To   FlexID `json:"to"`
	Type string `json:"type,omitempty"`
}

// FlexID accepts numeric or string ids in JSON.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// Canvas converts the legacy shape into a Canvas.
func (w LegacyWorkflow) Canvas(id ID, title string) Canvas {
	c := Canvas{ID: id, Title: title, Nodes: make([]Node, 0, len(w.Nodes)), Edges: make([]Edge, 0, len(w.Connections))}
	for _, ln := range w.Nodes {
		label := ln.Name
		if label == "" {
			label = ln.Type
		}
		kind := Kind(ln.Type)
		if !kind.Valid() {
			kind = KindTask
		}
		handle := ln.HandcashHandle
		if handle == "" {
			handle = strings.Join(strings.Fields(label), "_") + "_Handle"
		}
		n := Node{
			ID:             ID(ln.ID),
			Position:       Position{X: ln.X, Y: ln.Y},
			Kind:           kind,
			Label:          label,
			Description:    ln.Description,
			HandcashHandle: handle,
		}
		if v, ok := ln.Metadata["childWorkflowId"].(string); ok {
			n.ChildWorkflowID = v
		}
		c.Nodes = append(c.Nodes, n)
	}
	for _, lc := range w.Connections {
		eid := ID(lc.ID)
		if eid == "" {
			eid = ID(string(lc.From) + "-" + string(lc.To))
		}
		c.Edges = append(c.Edges, Edge{
			ID:       eid,
			Source:   ID(lc.From),
			Target:   ID(lc.To),
			Type:     lc.Type,
			Animated: lc.Type == "payment",
		})
	}
	return c
}
