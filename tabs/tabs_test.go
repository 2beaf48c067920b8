package tabs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/model"
)

func fixedClock() func() time.Time {
	t := time.UnixMilli(1700000000000)
	return func() time.Time { return t }
}

func TestNewSeedsMain(t *testing.T) {
	m := New()
	require.Len(t, m.Tabs(), 1)
	assert.Equal(t, MainID, m.ActiveID())
	assert.Equal(t, catalog.MainTabTitle, m.Active().Title)
	assert.Len(t, m.Active().Seed.Nodes, 24)
}

func TestCreate(t *testing.T) {
	m := New(WithClock(fixedClock()))

	blank := m.Create(nil)
	assert.Equal(t, "tab-1700000000000", blank.ID)
	assert.Equal(t, "New Canvas", blank.Title)
	assert.Empty(t, blank.Seed.Nodes)
	assert.Equal(t, blank.ID, m.ActiveID())

	tmpl := m.Create(&model.TemplateItem{ID: "mfg", Name: "Steel Co", Category: "Manufacturing"})
	assert.Equal(t, "tab-1700000000001", tmpl.ID)
	assert.Equal(t, "Steel Co", tmpl.Title)
	assert.True(t, tmpl.IsTemplate)
	assert.Len(t, tmpl.Seed.Nodes, 8)
	assert.Len(t, tmpl.Seed.Edges, 6)
}

func TestCreateForNode(t *testing.T) {
	m := New(WithClock(fixedClock()))
	tab := m.CreateForNode(model.Node{ID: "n9", Kind: model.KindWallets, Label: "Vault"})
	assert.Equal(t, "node-n9-1700000000000", tab.ID)
	assert.Equal(t, "Vault Details", tab.Title)
	assert.Len(t, tab.Seed.Nodes, 4)
	require.NotNil(t, tab.Node)

	other := m.CreateForNode(model.Node{ID: "n10", Kind: model.KindEmail, Label: "Mail"})
	require.Len(t, other.Seed.Nodes, 1)
	assert.Equal(t, "Properties", other.Seed.Nodes[0].Label)
}

func TestCloseRules(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.Close(MainID), ErrProtectedTab)
	assert.ErrorIs(t, m.Close("ghost"), ErrTabNotFound)

	a := m.Create(nil)
	b := m.Create(nil)
	require.NoError(t, m.Switch(a.ID))
	require.NoError(t, m.Close(b.ID))
	assert.Equal(t, a.ID, m.ActiveID(), "closing an inactive tab keeps the active one")

	require.NoError(t, m.Close(a.ID))
	assert.Equal(t, MainID, m.ActiveID())
	assert.Len(t, m.Tabs(), 1)
}

func TestRename(t *testing.T) {
	m := New()
	a := m.Create(nil)

	assert.False(t, m.BeginRename(MainID), "only the active tab is editable")
	require.True(t, m.BeginRename(a.ID))
	_, draft, ok := m.Editing()
	require.True(t, ok)
	assert.Equal(t, "New Canvas", draft)

	require.NoError(t, m.SetDraft("  Payroll  "))
	old, title, changed := m.CommitRename()
	assert.True(t, changed)
	assert.Equal(t, "New Canvas", old)
	assert.Equal(t, "Payroll", title)
	assert.Equal(t, "Payroll", m.Active().Title)

	require.True(t, m.BeginRename(a.ID))
	require.NoError(t, m.SetDraft("   "))
	_, _, changed = m.CommitRename()
	assert.False(t, changed)
	assert.Equal(t, "Payroll", m.Active().Title)
	_, _, ok = m.Editing()
	assert.False(t, ok)

	require.True(t, m.BeginRename(a.ID))
	require.NoError(t, m.SetDraft("Discarded"))
	m.CancelRename()
	assert.Equal(t, "Payroll", m.Active().Title)
	assert.ErrorIs(t, m.SetDraft("x"), ErrNotEditing)
}

func TestOpenSeedsCopy(t *testing.T) {
	m := New(WithClock(fixedClock()))
	src := model.Canvas{ID: "wf-1", Title: "ignored", Nodes: []model.Node{{ID: "a"}}}
	tab := m.Open("Lead intake", src)
	assert.Equal(t, tab.ID, m.ActiveID())
	assert.Equal(t, "Lead intake", tab.Seed.Title)
	assert.Equal(t, model.ID(tab.ID), tab.Seed.ID)
	assert.NotNil(t, tab.Seed.Edges)

	src.Nodes[0].ID = "mutated"
	got, _ := m.Get(tab.ID)
	assert.Equal(t, model.ID("a"), got.Seed.Nodes[0].ID)
}
