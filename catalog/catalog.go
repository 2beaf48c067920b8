// Package catalog holds the static template data the canvas draws from:
// template items per business kind, drill-in sub-canvases, organization
// graphs and the default main canvas.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/b0ase/cashboard/model"
)

//go:embed templates.yaml
var builtinYAML []byte

// CryptoModalType marks the instrument placeholder that opens the crypto list.
const CryptoModalType = "crypto-modal"

type organization struct {
	model.TemplateItem `yaml:",inline"`
	Members            []model.TemplateItem `yaml:"members,omitempty"`
}

type document struct {
	Organizations []organization       `yaml:"organizations"`
	Roles         []model.TemplateItem `yaml:"roles"`
	Agents        []model.TemplateItem `yaml:"agents"`
	Instruments   []model.TemplateItem `yaml:"instruments"`
	Contracts     []model.TemplateItem `yaml:"contracts"`
	Integrations  []model.TemplateItem `yaml:"integrations"`
	Crypto        []model.TemplateItem `yaml:"crypto"`
	Wallets       []model.TemplateItem `yaml:"wallets"`
	Primitives    []model.TemplateItem `yaml:"primitives"`
	People        []model.TemplateItem `yaml:"people"`
}

// Catalog is read-only after construction; every accessor returns copies.
type Catalog struct {
	doc document
}

// Builtin parses the embedded catalog. It panics on a malformed embed,
// which can only happen at build time.
func Builtin() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded templates: %v", err))
	}
	return c
}

// Parse decodes a catalog document.
func Parse(b []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &Catalog{doc: doc}, nil
}

// LoadFile reads a catalog override from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func clone(in []model.TemplateItem) []model.TemplateItem {
	out := make([]model.TemplateItem, len(in))
	for i, it := range in {
		if it.ID == "" {
			it.ID = it.Name
		}
		out[i] = it
	}
	return out
}

func (c *Catalog) Organizations() []model.TemplateItem {
	out := make([]model.TemplateItem, 0, len(c.doc.Organizations))
	for _, o := range c.doc.Organizations {
		out = append(out, o.TemplateItem)
	}
	return clone(out)
}

func (c *Catalog) Crypto() []model.TemplateItem { return clone(c.doc.Crypto) }

// People lists organization members, or the built-in people when no
// organization declares any.
func (c *Catalog) People() []model.TemplateItem {
	var members []model.TemplateItem
	for _, o := range c.doc.Organizations {
		members = append(members, o.Members...)
	}
	if len(members) == 0 {
		members = c.doc.People
	}
	out := clone(members)
	for i := range out {
		out[i].Type = string(model.KindPeople)
		out[i].Category = "People"
	}
	return out
}

func (c *Catalog) agents() []model.TemplateItem {
	out := clone(c.doc.Agents)
	for i := range out {
		out[i].Type = string(model.KindAIAgent)
	}
	return out
}

func (c *Catalog) primitives(k model.Kind) []model.TemplateItem {
	var out []model.TemplateItem
	for _, it := range c.doc.Primitives {
		if it.Type == string(k) {
			out = append(out, it)
		}
	}
	return clone(out)
}

// Items returns the template items a kind offers in the template modal.
// Kinds without a template source return nil.
func (c *Catalog) Items(k model.Kind) []model.TemplateItem {
	switch k.Caps().Source {
	case model.SourceOrganizations:
		return c.Organizations()
	case model.SourceRoles:
		return clone(c.doc.Roles)
	case model.SourceAgents:
		return c.agents()
	case model.SourcePeople:
		return c.People()
	case model.SourceInstruments:
		return clone(c.doc.Instruments)
	case model.SourceContracts:
		return clone(c.doc.Contracts)
	case model.SourceIntegrations:
		return clone(c.doc.Integrations)
	case model.SourceCrypto:
		return c.Crypto()
	case model.SourceWallets:
		return clone(c.doc.Wallets)
	case model.SourceWorkflow:
		return []model.TemplateItem{{ID: "wf-blank", Name: "Blank Workflow"}}
	case model.SourcePrimitives:
		return c.primitives(k)
	}
	return nil
}

// Find looks up an item by id within a kind's list.
func (c *Catalog) Find(k model.Kind, id string) (model.TemplateItem, bool) {
	for _, it := range c.Items(k) {
		if it.ID == id {
			return it, true
		}
	}
	return model.TemplateItem{}, false
}
