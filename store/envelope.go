package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/b0ase/cashboard/model"
)

// CurrentVersion is the envelope version Save writes.
//
//	0: unversioned browser saves
//	1: versioned, edges without "animated", node data may carry "status"
//	2: explicit "animated" on edges
const CurrentVersion = 2

var ErrUnsupportedVersion = errors.New("unsupported envelope version")

// Envelope is the persisted form of one canvas.
type Envelope struct {
	Version          int             `json:"version"`
	Timestamp        string          `json:"timestamp"`
	CanvasName       string          `json:"canvasName"`
	Nodes            []EnvelopeNode  `json:"nodes"`
	Edges            []EnvelopeEdge  `json:"edges"`
	Viewport         *model.Viewport `json:"viewport,omitempty"`
	CanvasScale      int             `json:"canvasScale,omitempty"`
	WorkflowSettings *model.Settings `json:"workflowSettings,omitempty"`
}

type EnvelopeNode struct {
	ID   model.ID `json:"id"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Data NodeData `json:"data"`
}

// NodeData is everything about a node except its id and position.
type NodeData struct {
	Label             string              `json:"label"`
	Kind              model.Kind          `json:"kind"`
	Subtitle          string              `json:"subtitle,omitempty"`
	Description       string              `json:"description,omitempty"`
	Template          *model.TemplateItem `json:"template,omitempty"`
	HandcashHandle    string              `json:"handcashHandle,omitempty"`
	TokenAddress      string              `json:"tokenAddress,omitempty"`
	WalletType        model.WalletType    `json:"walletType,omitempty"`
	MultisigThreshold int                 `json:"multisigThreshold,omitempty"`
	MultisigSigners   []string            `json:"multisigSigners,omitempty"`
	ChildWorkflowID   string              `json:"childWorkflowId,omitempty"`
	SchemaType        string              `json:"schemaType,omitempty"`
	SchemaVersion     string              `json:"schemaVersion,omitempty"`
	ContractCode      string              `json:"contractCode,omitempty"`
	IsComposable      bool                `json:"isComposable,omitempty"`
	Params            map[string]any      `json:"params,omitempty"`
}

type EnvelopeEdge struct {
	ID       model.ID `json:"id"`
	Source   model.ID `json:"source"`
	Target   model.ID `json:"target"`
	Type     string   `json:"type,omitempty"`
	Animated bool     `json:"animated,omitempty"`
}

// NewEnvelope builds a current-version envelope for c.
func NewEnvelope(name, timestamp string, c model.Canvas, view model.View) Envelope {
	env := Envelope{
		Version:          CurrentVersion,
		Timestamp:        timestamp,
		CanvasName:       name,
		Nodes:            make([]EnvelopeNode, 0, len(c.Nodes)),
		Edges:            make([]EnvelopeEdge, 0, len(c.Edges)),
		Viewport:         view.Viewport,
		CanvasScale:      view.CanvasScale,
		WorkflowSettings: view.Settings,
	}
	for _, n := range c.Nodes {
		env.Nodes = append(env.Nodes, EnvelopeNode{ID: n.ID, X: n.Position.X, Y: n.Position.Y, Data: DataOf(n)})
	}
	for _, e := range c.Edges {
		env.Edges = append(env.Edges, EnvelopeEdge(e))
	}
	return env
}

// Canvas rebuilds the canvas an envelope describes.
func (e Envelope) Canvas(id model.ID, title string) model.Canvas {
	c := model.Canvas{ID: id, Title: title, Nodes: make([]model.Node, 0, len(e.Nodes)), Edges: make([]model.Edge, 0, len(e.Edges))}
	for _, n := range e.Nodes {
		c.Nodes = append(c.Nodes, n.node())
	}
	for _, ed := range e.Edges {
		c.Edges = append(c.Edges, model.Edge(ed))
	}
	return c
}

// View returns the presentation state carried by the envelope.
func (e Envelope) View() model.View {
	return model.View{Viewport: e.Viewport, CanvasScale: e.CanvasScale, Settings: e.WorkflowSettings}
}

func (e Envelope) hasView() bool {
	return e.Viewport != nil || e.CanvasScale != 0 || e.WorkflowSettings != nil
}

// DataOf splits the id and position off n.
func DataOf(n model.Node) NodeData {
	n = n.Clone()
	return NodeData{
		Label: n.Label, Kind: n.Kind, Subtitle: n.Subtitle, Description: n.Description,
		Template: n.Template, HandcashHandle: n.HandcashHandle, TokenAddress: n.TokenAddress,
		WalletType: n.WalletType, MultisigThreshold: n.MultisigThreshold, MultisigSigners: n.MultisigSigners,
		ChildWorkflowID: n.ChildWorkflowID, SchemaType: n.SchemaType, SchemaVersion: n.SchemaVersion,
		ContractCode: n.ContractCode, IsComposable: n.IsComposable, Params: n.Params,
	}
}

func (en EnvelopeNode) node() model.Node {
	return en.Data.Node(en.ID, model.Position{X: en.X, Y: en.Y})
}

// Node joins d with an id and position.
func (d NodeData) Node(id model.ID, pos model.Position) model.Node {
	return model.Node{
		ID: id, Position: pos,
		Label: d.Label, Kind: d.Kind, Subtitle: d.Subtitle, Description: d.Description,
		Template: d.Template, HandcashHandle: d.HandcashHandle, TokenAddress: d.TokenAddress,
		WalletType: d.WalletType, MultisigThreshold: d.MultisigThreshold, MultisigSigners: d.MultisigSigners,
		ChildWorkflowID: d.ChildWorkflowID, SchemaType: d.SchemaType, SchemaVersion: d.SchemaVersion,
		ContractCode: d.ContractCode, IsComposable: d.IsComposable, Params: d.Params,
	}.Clone()
}

// legacy shapes (v0, v1)
type legacyEnvelope struct {
	Timestamp        string          `json:"timestamp"`
	CanvasName       string          `json:"canvasName"`
	Nodes            []legacyNode    `json:"nodes"`
	Edges            []legacyEdge    `json:"edges"`
	Viewport         *model.Viewport `json:"viewport"`
	CanvasScale      int             `json:"canvasScale"`
	WorkflowSettings *model.Settings `json:"workflowSettings"`
}

type legacyNode struct {
	ID   model.FlexID   `json:"id"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Data map[string]any `json:"data"`
}

type legacyEdge struct {
	ID     model.FlexID `json:"id"`
	Source model.FlexID `json:"source"`
	Target model.FlexID `json:"target"`
	Type   string       `json:"type"`
}

// Migrate decodes a stored payload of any known version and upgrades it to
// CurrentVersion. The result depends only on raw.
func Migrate(raw []byte) (Envelope, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	switch {
	case head.Version == CurrentVersion:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return Envelope{}, fmt.Errorf("decode envelope: %w", err)
		}
		return env, nil
	case head.Version < 0 || head.Version > CurrentVersion:
		return Envelope{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, head.Version)
	}

	var old legacyEnvelope
	if err := json.Unmarshal(raw, &old); err != nil {
		return Envelope{}, fmt.Errorf("decode v%d envelope: %w", head.Version, err)
	}
	env := Envelope{
		Version:          CurrentVersion,
		Timestamp:        old.Timestamp,
		CanvasName:       old.CanvasName,
		Nodes:            make([]EnvelopeNode, 0, len(old.Nodes)),
		Edges:            make([]EnvelopeEdge, 0, len(old.Edges)),
		Viewport:         old.Viewport,
		CanvasScale:      old.CanvasScale,
		WorkflowSettings: old.WorkflowSettings,
	}
	for _, n := range old.Nodes {
		d, err := migrateData(n.Data)
		if err != nil {
			return Envelope{}, fmt.Errorf("migrate node %s: %w", n.ID, err)
		}
		env.Nodes = append(env.Nodes, EnvelopeNode{ID: model.ID(n.ID), X: n.X, Y: n.Y, Data: d})
	}
	for _, e := range old.Edges {
		typ := e.Type
		if typ == "" {
			typ = "default"
		}
		env.Edges = append(env.Edges, EnvelopeEdge{
			ID:       model.ID(e.ID),
			Source:   model.ID(e.Source),
			Target:   model.ID(e.Target),
			Type:     typ,
			Animated: typ == "payment",
		})
	}
	return env, nil
}

func migrateData(raw map[string]any) (NodeData, error) {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[k] = v
	}
	delete(m, "status")

	kind, _ := m["kind"].(string)
	k, err := model.ParseKind(kind)
	if err != nil {
		k = model.KindTask
	}
	m["kind"] = string(k)
	if l, _ := m["label"].(string); l == "" {
		m["label"] = string(k)
	}
	// contractParams predates the generic params bag.
	if cp, ok := m["contractParams"].(map[string]any); ok {
		params, _ := m["params"].(map[string]any)
		if params == nil {
			params = map[string]any{}
		}
		params["contractParams"] = cp
		m["params"] = params
	}

	b, err := json.Marshal(m)
	if err != nil {
		return NodeData{}, err
	}
	var d NodeData
	if err := json.Unmarshal(b, &d); err != nil {
		return NodeData{}, err
	}
	return d, nil
}
