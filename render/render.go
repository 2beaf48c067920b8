// Package render turns a node into the view descriptor a front-end draws.
package render

import (
	"strings"

	"github.com/b0ase/cashboard/model"
)

const (
	HandlePlaceholder = "Click_to_edit"
	TokenPlaceholder  = "1A1z...click_to_edit"
	SignersEmpty      = "Click to add"

	DefaultThreshold = 2
	DefaultSigners   = 3
)

type Layout string

const (
	LayoutStandard Layout = "standard"
	LayoutWide     Layout = "wide"
)

// Wallet is the wallet section shown on wallets nodes.
type Wallet struct {
	Type      model.WalletType `json:"type"`
	Threshold int              `json:"threshold,omitempty"`
	Of        int              `json:"of,omitempty"`
	Signers   string           `json:"signers,omitempty"`
	SCrypt    string           `json:"scrypt,omitempty"`
	Code      string           `json:"code,omitempty"`
}

type NodeView struct {
	ID       model.ID `json:"id"`
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Handle   string   `json:"handle"`
	Token    string   `json:"token"`
	Wallet   *Wallet  `json:"wallet,omitempty"`
	Schema   string   `json:"schema,omitempty"`
	Layout   Layout   `json:"layout"`
}

// View builds the descriptor for n.
func View(n model.Node) NodeView {
	caps := n.Kind.Caps()
	v := NodeView{
		ID:       n.ID,
		Icon:     caps.Icon,
		Color:    caps.Color,
		Title:    n.Label,
		Subtitle: n.Subtitle,
		Handle:   orDefault(n.HandcashHandle, HandlePlaceholder),
		Token:    orDefault(n.TokenAddress, TokenPlaceholder),
		Layout:   LayoutStandard,
	}
	if v.Icon == "" {
		v.Icon = "square"
	}
	if IsAIAssistant(n) {
		v.Layout = LayoutWide
	}
	if n.Kind == model.KindWallets {
		v.Wallet = wallet(n)
		if n.SchemaType != "" {
			v.Schema = n.SchemaType
			if n.SchemaVersion != "" {
				v.Schema += " v" + n.SchemaVersion
			}
		}
	}
	return v
}

func wallet(n model.Node) *Wallet {
	w := &Wallet{Type: n.WalletType}
	if w.Type == "" {
		w.Type = model.WalletSingle
	}
	switch w.Type {
	case model.WalletMultisig:
		w.Threshold = n.MultisigThreshold
		if w.Threshold == 0 {
			w.Threshold = DefaultThreshold
		}
		w.Of = len(n.MultisigSigners)
		if w.Of == 0 {
			w.Of = DefaultSigners
		}
		w.Signers = SignersEmpty
		if len(n.MultisigSigners) > 0 {
			w.Signers = truncate(strings.Join(n.MultisigSigners, ", "), 20) + "..."
		}
	case model.WalletSmartContract:
		w.SCrypt = "Standard"
		if n.IsComposable {
			w.SCrypt = "Composable"
		}
		if n.ContractCode != "" {
			w.Code = truncate(n.ContractCode, 15) + "..."
		}
	}
	return w
}

// IsAIAssistant reports whether n gets the wide assistant layout.
func IsAIAssistant(n model.Node) bool {
	if n.Kind == model.KindAIAgent {
		return true
	}
	if n.Template != nil && n.Template.Category == "AI & Machine Learning" {
		return true
	}
	l := strings.ToLower(n.Label)
	return strings.Contains(l, "openai") || strings.Contains(l, "anthropic") || strings.Contains(l, "claude")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
