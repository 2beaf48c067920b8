package catalog

import (
	"sync"

	"github.com/b0ase/cashboard/model"
)

// Factory builds the nested canvas shown when a node is drilled into.
type Factory func(parent model.Node) model.Canvas

var (
	mu       sync.RWMutex
	registry = map[model.Kind]Factory{}
)

// Register installs a sub-canvas factory for a kind, replacing any previous one.
func Register(kind model.Kind, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[kind] = f
}

func lookup(kind model.Kind) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}

type subNode struct {
	suffix string
	label  string
	kind   model.Kind
}

type subGraph struct {
	nodes []subNode
	edges [][2]string
}

// Sub-nodes are laid out on a fixed grid in table order.
var subGrid = []model.Position{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 200, Y: 250}, {X: 400, Y: 250}}

var subGraphs = map[model.Kind]subGraph{
	model.KindInstrument: {
		nodes: []subNode{
			{"issuer", "Issuer", model.KindOrganization},
			{"terms", "Terms", model.KindContract},
			{"payments", "Payments", model.KindWorkflow},
			{"rating", "Rating", model.KindAssessment},
		},
		edges: [][2]string{{"issuer", "terms"}, {"terms", "payments"}, {"issuer", "rating"}},
	},
	model.KindWallets: {
		nodes: []subNode{
			{"keys", "Keys", model.KindSecurity},
			{"transactions", "Transactions", model.KindWorkflow},
			{"backup", "Backup", model.KindSecurity},
			{"monitoring", "Monitoring", model.KindIntegration},
		},
		edges: [][2]string{{"keys", "transactions"}, {"keys", "backup"}, {"transactions", "monitoring"}},
	},
	model.KindOrganization: {
		nodes: []subNode{
			{"governance", "Governance", model.KindWorkflow},
			{"departments", "Departments", model.KindOrganization},
			{"compliance", "Compliance", model.KindContract},
			{"reporting", "Reporting", model.KindIntegration},
		},
		edges: [][2]string{{"governance", "departments"}, {"governance", "compliance"}, {"compliance", "reporting"}},
	},
	model.KindRole: {
		nodes: []subNode{
			{"responsibilities", "Responsibilities", model.KindWorkflow},
			{"permissions", "Permissions", model.KindSecurity},
			{"reporting", "Reporting Lines", model.KindOrganization},
			{"kpis", "KPIs & Metrics", model.KindAssessment},
		},
		edges: [][2]string{{"responsibilities", "permissions"}, {"responsibilities", "reporting"}, {"reporting", "kpis"}},
	},
	model.KindContract: {
		nodes: []subNode{
			{"code", "Contract Code", model.KindIntegration},
			{"functions", "Functions", model.KindWorkflow},
			{"events", "Events & Logs", model.KindMonitoring},
			{"security", "Security Audit", model.KindAssessment},
		},
		edges: [][2]string{{"code", "functions"}, {"functions", "events"}, {"code", "security"}},
	},
	model.KindWorkflow: {
		nodes: []subNode{
			{"trigger", "Trigger Event", model.KindIntegration},
			{"process", "Process Steps", model.KindWorkflow},
			{"approval", "Approval Gate", model.KindRole},
			{"completion", "Completion", model.KindIntegration},
		},
		edges: [][2]string{{"trigger", "process"}, {"process", "approval"}, {"approval", "completion"}},
	},
	model.KindScryptMultisig: {
		nodes: []subNode{
			{"signers", "Signer Group", model.KindMember},
			{"logic", "m-of-n Logic", model.KindDecision},
			{"execution", "Unlock Script", model.KindWorkflow},
		},
		edges: [][2]string{{"signers", "logic"}, {"logic", "execution"}},
	},
	model.KindScryptToken: {
		nodes: []subNode{
			{"mint", "Minting logic", model.KindWorkflow},
			{"transfer", "Transfer rules", model.KindContract},
			{"burn", "Burn mechanism", model.KindWorkflow},
		},
		edges: [][2]string{{"mint", "transfer"}, {"transfer", "burn"}},
	},
	model.KindScryptEscrow: {
		nodes: []subNode{
			{"depositor", "Depositor", model.KindMember},
			{"arbiter", "Arbiter Rule", model.KindDecision},
			{"release", "Release Logic", model.KindWorkflow},
		},
		edges: [][2]string{{"depositor", "arbiter"}, {"arbiter", "release"}},
	},
	model.KindScryptVoting: {
		nodes: []subNode{
			{"voters", "Voter List", model.KindMember},
			{"tally", "Tally Logic", model.KindDecision},
			{"result", "Result Action", model.KindWorkflow},
		},
		edges: [][2]string{{"voters", "tally"}, {"tally", "result"}},
	},
	model.KindSchemaPost: {
		nodes: []subNode{
			{"content", "Content Data", model.KindDatabase},
			{"metadata", "B Protocol Meta", model.KindIntegration},
			{"sig", "Map Signature", model.KindSecurity},
		},
		edges: [][2]string{{"content", "metadata"}, {"metadata", "sig"}},
	},
	model.KindSchemaProfile: {
		nodes: []subNode{
			{"identity", "PKI Identity", model.KindSecurity},
			{"handle", "Paymail Link", model.KindIntegration},
			{"assets", "Linked Assets", model.KindWallets},
		},
		edges: [][2]string{{"identity", "handle"}, {"handle", "assets"}},
	},
	model.KindSchemaMedia: {
		nodes: []subNode{
			{"file", "B-File Data", model.KindDatabase},
			{"rights", "Usage Rights", model.KindContract},
			{"royalties", "Royalty Logic", model.KindPayment},
		},
		edges: [][2]string{{"file", "rights"}, {"rights", "royalties"}},
	},
	model.KindAIAgent: {
		nodes: []subNode{
			{"prompt", "System Prompt", model.KindDatabase},
			{"tools", "MCP Tools", model.KindIntegration},
			{"out", "Output Parser", model.KindWorkflow},
		},
		edges: [][2]string{{"prompt", "tools"}, {"tools", "out"}},
	},
}

var defaultSubGraph = subGraph{nodes: []subNode{{"properties", "Properties", model.KindInfo}}}

func init() {
	for k, g := range subGraphs {
		Register(k, g.build)
	}
}

// build materializes the graph with ids prefixed by the parent's id.
func (g subGraph) build(parent model.Node) model.Canvas {
	prefix := string(parent.ID) + "-"
	c := model.Canvas{
		ID:    model.ID("node-canvas-" + string(parent.ID)),
		Title: parent.Label,
		Nodes: make([]model.Node, 0, len(g.nodes)),
		Edges: make([]model.Edge, 0, len(g.edges)),
	}
	for i, sn := range g.nodes {
		pos := model.Position{X: 200, Y: 150}
		if len(g.nodes) > 1 {
			pos = subGrid[i%len(subGrid)]
		}
		c.Nodes = append(c.Nodes, model.Node{
			ID:       model.ID(prefix + sn.suffix),
			Position: pos,
			Kind:     sn.kind,
			Label:    sn.label,
		})
	}
	for _, e := range g.edges {
		src, dst := model.ID(prefix+e[0]), model.ID(prefix+e[1])
		c.Edges = append(c.Edges, model.Edge{
			ID:       model.ID(string(src) + "-" + string(dst)),
			Source:   src,
			Target:   dst,
			Animated: true,
		})
	}
	return c
}

// SubCanvas returns the drill-in graph registered for the parent's kind.
// ok is false when no factory matches.
func SubCanvas(parent model.Node) (c model.Canvas, ok bool) {
	f, ok := lookup(parent.Kind)
	if !ok {
		return model.Canvas{}, false
	}
	return f(parent), true
}

// SubCanvasOrDefault falls back to a single Properties node.
func SubCanvasOrDefault(parent model.Node) model.Canvas {
	if c, ok := SubCanvas(parent); ok {
		return c
	}
	return defaultSubGraph.build(parent)
}

// DrillKinds lists the kinds that have a registered sub-canvas.
func DrillKinds() []model.Kind {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]model.Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
