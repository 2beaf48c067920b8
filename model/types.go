package model

type ID string

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// WalletType selects the wallet sub-fields a wallets node shows.
type WalletType string

const (
	WalletSingle        WalletType = "single"
	WalletMultisig      WalletType = "multisig"
	WalletScript        WalletType = "script"
	WalletSmartContract WalletType = "smart_contract"
)

// Valid reports whether w is one of the known wallet types.
func (w WalletType) Valid() bool {
	switch w {
	case WalletSingle, WalletMultisig, WalletScript, WalletSmartContract:
		return true
	}
	return false
}

// TemplateItem is a static catalog entry. Read-only at runtime.
type TemplateItem struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Country     string `json:"country,omitempty" yaml:"country,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	Size        string `json:"size,omitempty" yaml:"size,omitempty"`
}

type Node struct {
	ID                ID             `json:"id"`
	Position          Position       `json:"position"`
	Kind              Kind           `json:"kind"`
	Label             string         `json:"label"`
	Subtitle          string         `json:"subtitle,omitempty"`
	Description       string         `json:"description,omitempty"`
	Template          *TemplateItem  `json:"template,omitempty"`
	HandcashHandle    string         `json:"handcashHandle,omitempty"`
	TokenAddress      string         `json:"tokenAddress,omitempty"`
	WalletType        WalletType     `json:"walletType,omitempty"`
	MultisigThreshold int            `json:"multisigThreshold,omitempty"`
	MultisigSigners   []string       `json:"multisigSigners,omitempty"`
	ChildWorkflowID   string         `json:"childWorkflowId,omitempty"`
	SchemaType        string         `json:"schemaType,omitempty"`
	SchemaVersion     string         `json:"schemaVersion,omitempty"`
	ContractCode      string         `json:"contractCode,omitempty"`
	IsComposable      bool           `json:"isComposable,omitempty"`
	Params            map[string]any `json:"params,omitempty"`
}

// Clone returns a deep copy of n, so callers can mutate freely.
func (n Node) Clone() Node {
	out := n
	if n.Template != nil {
		t := *n.Template
		out.Template = &t
	}
	if n.MultisigSigners != nil {
		out.MultisigSigners = append([]string(nil), n.MultisigSigners...)
	}
	if n.Params != nil {
		out.Params = make(map[string]any, len(n.Params))
		for k, v := range n.Params {
			out.Params[k] = v
		}
	}
	return out
}

type Edge struct {
	ID       ID     `json:"id"`
	Source   ID     `json:"source"`
	Target   ID     `json:"target"`
	Type     string `json:"type,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

// Canvas is the unit of persistence and of navigation.
type Canvas struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of c.
func (c Canvas) Clone() Canvas {
	out := Canvas{ID: c.ID, Title: c.Title}
	if c.Nodes != nil {
		out.Nodes = make([]Node, len(c.Nodes))
		for i, n := range c.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if c.Edges != nil {
		out.Edges = append([]Edge(nil), c.Edges...)
	}
	return out
}

// Node returns the node with the given id.
func (c Canvas) Node(id ID) (Node, bool) {
	for _, n := range c.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Settings mirrors the workflow settings block saved next to a canvas.
type Settings struct {
	CurrentTool    string `json:"currentTool"`
	GridSnap       bool   `json:"gridSnap"`
	ShowGrid       bool   `json:"showGrid"`
	AutoMode       bool   `json:"autoMode"`
	WorkflowStatus string `json:"workflowStatus"`
}

func DefaultSettings() Settings {
	return Settings{CurrentTool: "select", GridSnap: true, ShowGrid: true, WorkflowStatus: "stopped"}
}

// View is the per-canvas presentation state persisted alongside nodes and edges.
type View struct {
	Viewport    *Viewport `json:"viewport,omitempty"`
	CanvasScale int       `json:"canvasScale,omitempty"`
	Settings    *Settings `json:"workflowSettings,omitempty"`
}
