package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0ase/cashboard/model"
)

func TestPlaceholders(t *testing.T) {
	v := View(model.Node{ID: "a", Kind: model.KindTask, Label: "Do"})
	assert.Equal(t, HandlePlaceholder, v.Handle)
	assert.Equal(t, TokenPlaceholder, v.Token)
	assert.Equal(t, "check-square", v.Icon)
	assert.Nil(t, v.Wallet)
	assert.Equal(t, LayoutStandard, v.Layout)

	v = View(model.Node{ID: "b", Kind: model.KindTask, HandcashHandle: "$me", TokenAddress: "1Abc"})
	assert.Equal(t, "$me", v.Handle)
	assert.Equal(t, "1Abc", v.Token)
}

func TestWalletSection(t *testing.T) {
	v := View(model.Node{Kind: model.KindWallets})
	require.NotNil(t, v.Wallet)
	assert.Equal(t, model.WalletSingle, v.Wallet.Type)

	v = View(model.Node{Kind: model.KindWallets, WalletType: model.WalletMultisig})
	assert.Equal(t, 2, v.Wallet.Threshold)
	assert.Equal(t, 3, v.Wallet.Of)
	assert.Equal(t, SignersEmpty, v.Wallet.Signers)

	v = View(model.Node{Kind: model.KindWallets, WalletType: model.WalletMultisig, MultisigThreshold: 3,
		MultisigSigners: []string{"alice", "bob", "carol", "dave"}})
	assert.Equal(t, 3, v.Wallet.Threshold)
	assert.Equal(t, 4, v.Wallet.Of)
	assert.Equal(t, "alice, bob, carol, d...", v.Wallet.Signers)

	v = View(model.Node{Kind: model.KindWallets, WalletType: model.WalletSmartContract, IsComposable: true,
		ContractCode: "contract Demo extends SmartContract {}", SchemaType: "MAP", SchemaVersion: "1"})
	assert.Equal(t, "Composable", v.Wallet.SCrypt)
	assert.Equal(t, "contract Demo e...", v.Wallet.Code)
	assert.Equal(t, "MAP v1", v.Schema)
}

func TestAIAssistantLayout(t *testing.T) {
	assert.True(t, IsAIAssistant(model.Node{Kind: model.KindAIAgent}))
	assert.True(t, IsAIAssistant(model.Node{Kind: model.KindIntegration, Label: "Claude Helper"}))
	assert.True(t, IsAIAssistant(model.Node{Kind: model.KindIntegration, Label: "OpenAI"}))
	assert.True(t, IsAIAssistant(model.Node{Kind: model.KindTask, Template: &model.TemplateItem{Category: "AI & Machine Learning"}}))
	assert.False(t, IsAIAssistant(model.Node{Kind: model.KindTask, Label: "Payroll"}))
	assert.Equal(t, LayoutWide, View(model.Node{Kind: model.KindAIAgent}).Layout)
}
