package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0ase/cashboard/model"
)

func TestItemsPerKind(t *testing.T) {
	c := Builtin()

	wf := c.Items(model.KindWorkflow)
	require.Len(t, wf, 1)
	assert.Equal(t, "Blank Workflow", wf[0].Name)

	inst := c.Items(model.KindInstrument)
	var hasModal bool
	for _, it := range inst {
		if it.Type == CryptoModalType {
			hasModal = true
		}
	}
	assert.True(t, hasModal, "instrument list carries the crypto placeholder")

	people := c.Items(model.KindPeople)
	require.Len(t, people, 6)
	assert.Equal(t, "Alice Johnson", people[0].Name)
	assert.Equal(t, "people", people[0].Type)

	multisig := c.Items(model.KindScryptMultisig)
	require.NotEmpty(t, multisig)
	for _, it := range multisig {
		assert.Equal(t, string(model.KindScryptMultisig), it.Type)
	}

	assert.Nil(t, c.Items(model.KindTask))
}

func TestItemsAreCopies(t *testing.T) {
	c := Builtin()
	a := c.Items(model.KindRole)
	a[0].Name = "mutated"
	assert.NotEqual(t, "mutated", c.Items(model.KindRole)[0].Name)
}

func TestPeopleFromOrganizationMembers(t *testing.T) {
	c, err := Parse([]byte(`
organizations:
  - id: acme
    name: Acme
    members:
      - id: jo
        name: Jo Park
people:
  - id: fallback
    name: Fallback Person
`))
	require.NoError(t, err)
	people := c.People()
	require.Len(t, people, 1)
	assert.Equal(t, "Jo Park", people[0].Name)
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse([]byte("organizations: [unterminated"))
	require.Error(t, err)
}

func TestSubCanvasPrefixesIDs(t *testing.T) {
	parent := model.Node{ID: "n42", Kind: model.KindInstrument, Label: "Bond"}
	sc, ok := SubCanvas(parent)
	require.True(t, ok)
	require.Len(t, sc.Nodes, 4)
	require.Len(t, sc.Edges, 3)
	assert.Equal(t, model.ID("n42-issuer"), sc.Nodes[0].ID)
	assert.Equal(t, model.Position{X: 400, Y: 250}, sc.Nodes[3].Position)
	for _, e := range sc.Edges {
		assert.True(t, e.Animated)
		_, okS := sc.Node(e.Source)
		_, okT := sc.Node(e.Target)
		assert.True(t, okS && okT, "edge %s must reference sub-nodes", e.ID)
	}
}

func TestSubCanvasTableCoverage(t *testing.T) {
	for _, k := range []model.Kind{
		model.KindInstrument, model.KindWallets, model.KindOrganization, model.KindRole,
		model.KindContract, model.KindWorkflow, model.KindScryptMultisig, model.KindScryptToken,
		model.KindScryptEscrow, model.KindScryptVoting, model.KindSchemaPost, model.KindSchemaProfile,
		model.KindSchemaMedia, model.KindAIAgent,
	} {
		sc, ok := SubCanvas(model.Node{ID: "p", Kind: k})
		require.True(t, ok, k)
		assert.True(t, len(sc.Nodes) == 3 || len(sc.Nodes) == 4, k)
	}

	_, ok := SubCanvas(model.Node{ID: "p", Kind: model.KindTask})
	assert.False(t, ok)

	def := SubCanvasOrDefault(model.Node{ID: "p", Kind: model.KindTask})
	require.Len(t, def.Nodes, 1)
	assert.Equal(t, "Properties", def.Nodes[0].Label)
	assert.Equal(t, model.Position{X: 200, Y: 150}, def.Nodes[0].Position)
}

func TestRegisterOverridesFactory(t *testing.T) {
	orig, _ := lookup(model.KindMilestone)
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		if orig == nil {
			delete(registry, model.KindMilestone)
		} else {
			registry[model.KindMilestone] = orig
		}
	})

	Register(model.KindMilestone, func(p model.Node) model.Canvas {
		return model.Canvas{Title: "custom " + p.Label}
	})
	sc, ok := SubCanvas(model.Node{Kind: model.KindMilestone, Label: "M1"})
	require.True(t, ok)
	assert.Equal(t, "custom M1", sc.Title)
}

func TestOrganizationCanvasByCategory(t *testing.T) {
	cases := []struct {
		category string
		nodes    int
		edges    int
	}{
		{"Technology", 13, 8},
		{"Manufacturing", 8, 6},
		{"Financial Services", 8, 6},
		{"Healthcare", 6, 4},
		{"Creative Services", 6, 4},
		{"Agriculture", 5, 4},
		{"", 5, 4},
	}
	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			oc := OrganizationCanvas(model.TemplateItem{ID: "acme", Name: "Acme", Category: tc.category})
			assert.Len(t, oc.Nodes, tc.nodes)
			assert.Len(t, oc.Edges, tc.edges)
			assert.Equal(t, model.ID("acme-org"), oc.Nodes[0].ID)
			require.NotNil(t, oc.Nodes[0].Template)
			assert.Equal(t, "Acme", oc.Nodes[0].Template.Name)
		})
	}
}

func TestOrganizationCanvasSlugAndDescription(t *testing.T) {
	oc := OrganizationCanvas(model.TemplateItem{Name: "Big  Health Co", Category: "Healthcare"})
	assert.Equal(t, "big-health-co", oc.ID)
	assert.Equal(t, model.ID("big-health-co-medical"), oc.Nodes[1].ID)
	assert.Equal(t, "Healthcare organization structure", oc.Description)
	assert.Equal(t, model.ID("big-health-co-org-medical"), oc.Edges[0].ID)
}

func TestDefaultCanvas(t *testing.T) {
	c := DefaultCanvas()
	assert.Equal(t, model.ID(MainTabID), c.ID)
	assert.Len(t, c.Nodes, 24)
	assert.Len(t, c.Edges, 21)

	incident := 0
	for _, e := range c.Edges {
		if e.Source == "10" || e.Target == "10" {
			incident++
		}
		assert.True(t, e.Animated)
		assert.Equal(t, "payment", e.Type)
	}
	assert.Equal(t, 5, incident)

	pool, ok := c.Node("10")
	require.True(t, ok)
	assert.Equal(t, "AUDEX Revenue Pool", pool.Label)
	assert.Equal(t, model.KindSplitter, pool.Kind)
	assert.Equal(t, "AUDEX_Revenue", pool.HandcashHandle)

	// fresh copy per call
	c.Nodes[0].Label = "x"
	assert.Equal(t, "Music Track Streaming", DefaultCanvas().Nodes[0].Label)
}
