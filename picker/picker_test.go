package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/model"
)

func find(t *testing.T, items []model.TemplateItem, id string) model.TemplateItem {
	t.Helper()
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("item %s not offered", id)
	return model.TemplateItem{}
}

func TestCryptoPlaceholderReopens(t *testing.T) {
	cat := catalog.Builtin()
	m := Open(cat, model.KindInstrument)
	out := Select(cat, m, find(t, m.Items, "crypto-assets"), true)

	assert.Equal(t, Reopen, out.Action)
	require.NotNil(t, out.Next)
	assert.Equal(t, model.KindCrypto, out.Next.Kind)
	assert.Len(t, out.Next.Items, len(cat.Crypto()))

	// a pick inside the nested list inserts a crypto node
	nested := Select(cat, *out.Next, out.Next.Items[0], true)
	assert.Equal(t, InsertNode, nested.Action)
	assert.Equal(t, model.KindCrypto, nested.Kind)
}

func TestOrganizationSelection(t *testing.T) {
	cat := catalog.Builtin()
	m := Open(cat, model.KindOrganization)
	tech := find(t, m.Items, "techcorp")

	withTab := Select(cat, m, tech, true)
	assert.Equal(t, NewTab, withTab.Action)
	assert.Nil(t, withTab.Canvas)

	noTab := Select(cat, m, tech, false)
	assert.Equal(t, ReplaceCanvas, noTab.Action)
	require.NotNil(t, noTab.Canvas)
	assert.Len(t, noTab.Canvas.Nodes, 13)

	uncategorized := Select(cat, m, model.TemplateItem{ID: "x", Name: "X"}, false)
	assert.Equal(t, InsertNode, uncategorized.Action)
}

func TestDefaultInsert(t *testing.T) {
	cat := catalog.Builtin()
	m := Open(cat, model.KindRole)
	out := Select(cat, m, m.Items[0], true)
	assert.Equal(t, InsertNode, out.Action)
	assert.Equal(t, "insert", out.Action.String())
	assert.Equal(t, m.Items[0], out.Item)
}
