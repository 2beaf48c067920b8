package model

import (
	"errors"
	"fmt"
	"sort"
)

// Kind is the semantic type of a node. The set is closed: every kind is
// declared here together with its capabilities.
type Kind string

var ErrUnknownKind = errors.New("unknown node kind")

const (
	// sCrypt smart-contract primitives
	KindScryptMultisig Kind = "scrypt-multisig"
	KindScryptEscrow   Kind = "scrypt-escrow"
	KindScryptToken    Kind = "scrypt-token"
	KindScryptAuction  Kind = "scrypt-auction"
	KindScryptOracle   Kind = "scrypt-oracle"
	KindScryptVoting   Kind = "scrypt-voting"
	KindScryptTimelock Kind = "scrypt-timelock"
	KindScryptNFT      Kind = "scrypt-nft"

	// Bitcoin Schema standards
	KindSchemaPost    Kind = "schema-post"
	KindSchemaProfile Kind = "schema-profile"
	KindSchemaLike    Kind = "schema-like"
	KindSchemaFollow  Kind = "schema-follow"
	KindSchemaMedia   Kind = "schema-media"

	// Business
	KindWorkflow     Kind = "workflow"
	KindOrganization Kind = "organization"
	KindRole         Kind = "role"
	KindAIAgent      Kind = "ai-agent"
	KindPeople       Kind = "people"
	KindInstrument   Kind = "instrument"
	KindWallets      Kind = "wallets"
	KindContract     Kind = "contract"
	KindIntegration  Kind = "integration"

	// Basic
	KindTask      Kind = "task"
	KindDecision  Kind = "decision"
	KindPayment   Kind = "payment"
	KindMilestone Kind = "milestone"
	KindTeam      Kind = "team"

	// Integration
	KindYouTube  Kind = "youtube"
	KindAPI      Kind = "api"
	KindDatabase Kind = "database"
	KindWebhook  Kind = "webhook"

	// Communication
	KindEmail        Kind = "email"
	KindSMS          Kind = "sms"
	KindNotification Kind = "notification"

	// Logic
	KindTrigger Kind = "trigger"

	// Kinds that only appear inside graphs, never on the palette.
	KindSplitter   Kind = "splitter"
	KindMember     Kind = "member"
	KindCrypto     Kind = "crypto"
	KindAssessment Kind = "assessment"
	KindSecurity   Kind = "security"
	KindMonitoring Kind = "monitoring"
	KindInfo       Kind = "info"
)

// TemplateSource names the catalog list a business kind draws templates from.
type TemplateSource string

const (
	SourceNone          TemplateSource = ""
	SourceOrganizations TemplateSource = "organizations"
	SourceRoles         TemplateSource = "roles"
	SourceAgents        TemplateSource = "agents"
	SourcePeople        TemplateSource = "people"
	SourceInstruments   TemplateSource = "instruments"
	SourceContracts     TemplateSource = "contracts"
	SourceIntegrations  TemplateSource = "integrations"
	SourceCrypto        TemplateSource = "crypto"
	SourceWallets       TemplateSource = "wallets"
	SourceWorkflow      TemplateSource = "workflow"
	SourcePrimitives    TemplateSource = "primitives"
)

// Capabilities is the per-kind lookup row used for rendering and template dispatch.
type Capabilities struct {
	Name     string // palette label; empty when the kind is not on the palette
	Category string // palette category
	Business bool   // picking it opens the template modal
	Source   TemplateSource
	Icon     string
	Color    string
}

var kinds = map[Kind]Capabilities{
	KindScryptMultisig: {Name: "MultiSig", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "shield", Color: "cyan-500"},
	KindScryptEscrow:   {Name: "Escrow", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "lock", Color: "blue-600"},
	KindScryptToken:    {Name: "Token", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "coins", Color: "green-600"},
	KindScryptAuction:  {Name: "Auction", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "gavel", Color: "purple-600"},
	KindScryptOracle:   {Name: "Oracle", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "eye", Color: "amber-600"},
	KindScryptVoting:   {Name: "Voting", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "vote", Color: "indigo-600"},
	KindScryptTimelock: {Name: "TimeLock", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "clock", Color: "orange-600"},
	KindScryptNFT:      {Name: "NFT", Category: "sCrypt", Business: true, Source: SourcePrimitives, Icon: "image", Color: "pink-600"},

	KindSchemaPost:    {Name: "Post", Category: "Bitcoin Schema", Business: true, Source: SourcePrimitives, Icon: "file-text", Color: "emerald-600"},
	KindSchemaProfile: {Name: "Profile", Category: "Bitcoin Schema", Business: true, Source: SourcePrimitives, Icon: "user", Color: "blue-600"},
	KindSchemaLike:    {Name: "Like", Category: "Bitcoin Schema", Business: true, Source: SourcePrimitives, Icon: "heart", Color: "red-600"},
	KindSchemaFollow:  {Name: "Follow", Category: "Bitcoin Schema", Business: true, Source: SourcePrimitives, Icon: "user-plus", Color: "green-600"},
	KindSchemaMedia:   {Name: "Media", Category: "Bitcoin Schema", Business: true, Source: SourcePrimitives, Icon: "camera", Color: "purple-600"},

	KindWorkflow:     {Name: "Workflows", Category: "Business", Business: true, Source: SourceWorkflow, Icon: "target", Color: "indigo-500"},
	KindOrganization: {Name: "Organizations", Category: "Business", Business: true, Source: SourceOrganizations, Icon: "building", Color: "orange-500"},
	KindRole:         {Name: "Roles", Category: "Business", Business: true, Source: SourceRoles, Icon: "crown", Color: "amber-500"},
	KindAIAgent:      {Name: "Agents", Category: "Business", Business: true, Source: SourceAgents, Icon: "bot", Color: "purple-500"},
	KindPeople:       {Name: "People", Category: "Business", Business: true, Source: SourcePeople, Icon: "user-check", Color: "purple-500"},
	KindInstrument:   {Name: "Instruments", Category: "Business", Business: true, Source: SourceInstruments, Icon: "banknote", Color: "emerald-500"},
	KindWallets:      {Name: "Wallets", Category: "Business", Business: true, Source: SourceWallets, Icon: "wallet", Color: "teal-500"},
	KindContract:     {Name: "Contract", Category: "Business", Business: true, Source: SourceContracts, Icon: "file-text", Color: "blue-500"},
	KindIntegration:  {Name: "Integrations", Category: "Business", Business: true, Source: SourceIntegrations, Icon: "plug", Color: "violet-500"},

	KindTask:      {Name: "Task", Category: "Basic", Icon: "check-square", Color: "emerald-500"},
	KindDecision:  {Name: "Decision", Category: "Basic", Icon: "alert-triangle", Color: "purple-500"},
	KindPayment:   {Name: "Payment", Category: "Basic", Icon: "dollar-sign", Color: "yellow-500"},
	KindMilestone: {Name: "Milestone", Category: "Basic", Icon: "flag", Color: "red-500"},
	KindTeam:      {Name: "Team", Category: "Basic", Icon: "users", Color: "green-500"},

	KindYouTube:  {Name: "YouTube", Category: "Integration", Icon: "play", Color: "red-600"},
	KindAPI:      {Name: "API Call", Category: "Integration", Icon: "code", Color: "purple-500"},
	KindDatabase: {Name: "Database", Category: "Integration", Icon: "database", Color: "blue-500"},
	KindWebhook:  {Name: "Webhook", Category: "Integration", Icon: "zap", Color: "violet-500"},

	KindEmail:        {Name: "Email", Category: "Communication", Icon: "mail", Color: "red-500"},
	KindSMS:          {Name: "SMS", Category: "Communication", Icon: "message-square", Color: "green-500"},
	KindNotification: {Name: "Notification", Category: "Communication", Icon: "bell", Color: "yellow-500"},

	KindTrigger: {Name: "Trigger", Category: "Logic", Icon: "zap", Color: "yellow-600"},

	KindSplitter:   {Icon: "split", Color: "amber-500"},
	KindMember:     {Icon: "user-check", Color: "cyan-500"},
	KindCrypto:     {Business: true, Source: SourceCrypto, Icon: "coins", Color: "green-600"},
	KindAssessment: {Icon: "target", Color: "white"},
	KindSecurity:   {Icon: "shield", Color: "white"},
	KindMonitoring: {Icon: "eye", Color: "white"},
	KindInfo:       {Icon: "target", Color: "white"},
}

// paletteOrder keeps the palette in the order users see it.
var paletteOrder = []Kind{
	KindScryptMultisig, KindScryptEscrow, KindScryptToken, KindScryptAuction,
	KindScryptOracle, KindScryptVoting, KindScryptTimelock, KindScryptNFT,
	KindSchemaPost, KindSchemaProfile, KindSchemaLike, KindSchemaFollow, KindSchemaMedia,
	KindWorkflow, KindOrganization, KindRole, KindAIAgent, KindPeople,
	KindInstrument, KindWallets, KindContract, KindIntegration,
	KindTask, KindDecision, KindPayment, KindMilestone, KindTeam,
	KindYouTube, KindAPI, KindDatabase, KindWebhook,
	KindEmail, KindSMS, KindNotification,
	KindTrigger,
}

// ParseKind validates s against the declared kinds.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Caps returns the capability row for k. Unknown kinds get a zero row.
func (k Kind) Caps() Capabilities { return kinds[k] }

func (k Kind) IsBusiness() bool { return kinds[k].Business }

// PaletteEntry is one clickable item in the node palette.
type PaletteEntry struct {
	Kind     Kind   `json:"type"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

// Palette lists the palette entries in display order.
func Palette() []PaletteEntry {
	out := make([]PaletteEntry, 0, len(paletteOrder))
	for _, k := range paletteOrder {
		c := kinds[k]
		out = append(out, PaletteEntry{Kind: k, Name: c.Name, Category: c.Category, Icon: c.Icon})
	}
	return out
}

// PaletteCategories returns categories in first-seen palette order.
func PaletteCategories() []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range paletteOrder {
		c := kinds[k].Category
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Kinds returns every declared kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
