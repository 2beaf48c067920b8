// Package n8n imports n8n workflow exports as canvases.
package n8n

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/b0ase/cashboard/model"
)

// N8nWorkflow represents the n8n workflow format
type N8nWorkflow struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Active      bool                      `json:"active"`
	Nodes       []N8nNode                 `json:"nodes"`
	Connections map[string]N8nConnections `json:"connections"`
	Settings    map[string]interface{}    `json:"settings"`
}

// N8nNode represents an n8n node
type N8nNode struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	TypeVersion float64                `json:"typeVersion"`
	Position    []float64              `json:"position"`
	Parameters  map[string]interface{} `json:"parameters"`
	Credentials map[string]interface{} `json:"credentials"`
}

// N8nConnections holds the outputs of one node, keyed by node name.
type N8nConnections struct {
	Main [][]N8nConnection `json:"main"`
}

// N8nConnection represents a single connection
type N8nConnection struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Parse decodes an n8n workflow export.
func Parse(b []byte) (N8nWorkflow, error) {
	var wf N8nWorkflow
	if err := json.Unmarshal(b, &wf); err != nil {
		return N8nWorkflow{}, fmt.Errorf("parse n8n workflow: %w", err)
	}
	if len(wf.Nodes) == 0 {
		return N8nWorkflow{}, fmt.Errorf("parse n8n workflow: no nodes")
	}
	return wf, nil
}

// KindFor maps an n8n node type such as "n8n-nodes-base.httpRequest" to
// the closest canvas kind.
func KindFor(n8nType string) model.Kind {
	t := strings.ToLower(n8nType)
	if i := strings.LastIndex(t, "."); i >= 0 {
		t = t[i+1:]
	}
	switch {
	case strings.Contains(t, "webhook"):
		return model.KindWebhook
	case strings.HasPrefix(t, "http"):
		return model.KindAPI
	case strings.Contains(t, "email") || strings.Contains(t, "gmail"):
		return model.KindEmail
	case t == "if" || t == "switch":
		return model.KindDecision
	case t == "merge":
		return model.KindSplitter
	case strings.Contains(t, "trigger") || t == "cron" || t == "start":
		return model.KindTrigger
	}
	return model.KindWorkflow
}

// ToCanvas converts an n8n workflow into a canvas. n8n connections refer to
// nodes by name; edges refer to node ids.
func ToCanvas(wf N8nWorkflow) model.Canvas {
	c := model.Canvas{
		ID:    model.ID(wf.ID),
		Title: wf.Name,
		Nodes: make([]model.Node, 0, len(wf.Nodes)),
	}
	byName := make(map[string]model.ID, len(wf.Nodes))
	for i, n := range wf.Nodes {
		id := model.ID(n.ID)
		if id == "" {
			id = model.ID(fmt.Sprintf("n8n-%d", i+1))
		}
		byName[n.Name] = id

		var pos model.Position
		if len(n.Position) >= 2 {
			pos = model.Position{X: n.Position[0], Y: n.Position[1]}
		}
		params := make(map[string]any, len(n.Parameters)+3)
		for k, v := range n.Parameters {
			params[k] = v
		}
		params["_n8n_type"] = n.Type
		params["_n8n_typeVersion"] = n.TypeVersion
		if len(n.Credentials) > 0 {
			params["_credentials"] = n.Credentials
		}
		label := n.Name
		if label == "" {
			label = n.Type
		}
		c.Nodes = append(c.Nodes, model.Node{
			ID:       id,
			Position: pos,
			Kind:     KindFor(n.Type),
			Label:    label,
			Params:   params,
		})
	}

	sources := make([]string, 0, len(wf.Connections))
	for name := range wf.Connections {
		sources = append(sources, name)
	}
	sort.Strings(sources)

	seen := map[model.ID]int{}
	for _, from := range sources {
		src, ok := byName[from]
		if !ok {
			continue
		}
		for _, group := range wf.Connections[from].Main {
			for _, conn := range group {
				dst, ok := byName[conn.Node]
				if !ok {
					continue
				}
				id := model.ID(string(src) + "-" + string(dst))
				if k := seen[id]; k > 0 {
					seen[id]++
					id = model.ID(fmt.Sprintf("%s-%d", id, k))
				} else {
					seen[id] = 1
				}
				c.Edges = append(c.Edges, model.Edge{ID: id, Source: src, Target: dst, Type: "default"})
			}
		}
	}
	return c
}

// Metadata extracts the n8n fields ToCanvas stashed in a node's params.
func Metadata(node model.Node) (n8nType string, typeVersion float64, credentials map[string]interface{}) {
	if node.Params != nil {
		n8nType, _ = node.Params["_n8n_type"].(string)
		typeVersion, _ = node.Params["_n8n_typeVersion"].(float64)
		credentials, _ = node.Params["_credentials"].(map[string]interface{})
	}
	return n8nType, typeVersion, credentials
}
