package catalog

import "github.com/b0ase/cashboard/model"

const (
	MainTabID    = "main"
	MainTabTitle = "AUDEX Corporation - Asset & Monetary Flows"
)

func ln(id model.FlexID, name string, kind model.Kind, x, y float64, handle string) model.LegacyNode {
	return model.LegacyNode{ID: id, Name: name, Type: string(kind), X: x, Y: y, HandcashHandle: handle}
}

func pay(from, to model.FlexID) model.LegacyConnection {
	return model.LegacyConnection{From: from, To: to, Type: "payment"}
}

// audexWorkflow is the revenue pyramid the main tab starts with.
var audexWorkflow = model.LegacyWorkflow{
	Nodes: []model.LegacyNode{
		// revenue sources
		ln("1", "Music Track Streaming", model.KindYouTube, 100, 100, "AUDEX_Streaming"),
		ln("2", "YouTube Ad Revenue", model.KindYouTube, 300, 100, "AUDEX_YouTube"),
		ln("3", "Spotify Royalties", model.KindPayment, 500, 100, "AUDEX_Spotify"),
		ln("4", "Platform Subscriptions", model.KindPayment, 700, 100, "AUDEX_Subs"),
		ln("5", "NFT Music Sales", model.KindInstrument, 900, 100, "AUDEX_NFTs"),
		ln("6", "Sync Licensing", model.KindPayment, 1100, 100, "AUDEX_Sync"),

		ln("10", "AUDEX Revenue Pool", model.KindSplitter, 500, 250, "AUDEX_Revenue"),

		// corporate distribution
		ln("15", "AUDEX Treasury (51%)", model.KindOrganization, 300, 400, "AUDEX_Treasury"),
		ln("16", "Artist Royalty Pool (35%)", model.KindMember, 500, 400, "AUDEX_Artists"),
		ln("17", "Operations Reserve (10%)", model.KindWorkflow, 700, 400, "AUDEX_Ops"),
		ln("18", "Platform Development (4%)", model.KindTrigger, 900, 400, "AUDEX_Dev"),

		ln("20", "AUDEX Token Contract", model.KindContract, 500, 550, "AUDEX_Tokens"),
		ln("30", "Quarterly Dividend Calculator", model.KindDecision, 500, 700, "AUDEX_Dividends"),

		// shareholders
		ln("21", "Treasury Tokens (51%)", model.KindWallets, 200, 850, "AUDEX_Treasury_Tokens"),
		ln("22", "Public Shareholders (35%)", model.KindMember, 400, 850, "AUDEX_Public"),
		ln("23", "Artist Token Holders (10%)", model.KindMember, 600, 850, "AUDEX_Artist_Tokens"),
		ln("24", "Team & Advisors (4%)", model.KindRole, 800, 850, "AUDEX_Team"),

		// track assets
		ln("40", "Track NFT #001", model.KindInstrument, 1100, 250, "AUDEX_Track001"),
		ln("41", "Track Royalty Split", model.KindSplitter, 1100, 400, "AUDEX_TrackSplit"),
		ln("42", "Track Shareholders", model.KindMember, 1100, 550, "AUDEX_TrackHolders"),

		// platform assets
		ln("50", "AUDEX Platform IP", model.KindContract, 100, 550, "AUDEX_Platform"),
		ln("51", "User Database", model.KindWorkflow, 100, 700, "AUDEX_Users"),
		ln("52", "Music Catalog Rights", model.KindInstrument, 100, 850, "AUDEX_Catalog"),
		ln("53", "Licensing Agreements", model.KindContract, 100, 1000, "AUDEX_Licensing"),
	},
	Connections: []model.LegacyConnection{
		pay("1", "10"), pay("2", "10"), pay("3", "10"),
		pay("10", "15"), pay("10", "16"),
		pay("4", "17"), pay("5", "18"),
		pay("15", "20"), pay("16", "20"),
		pay("20", "30"),
		pay("30", "21"), pay("30", "22"), pay("30", "23"), pay("30", "24"),
		pay("1", "40"), pay("40", "41"), pay("41", "42"),
		pay("4", "50"), pay("50", "51"), pay("51", "52"),
		pay("6", "53"),
	},
}

// DefaultCanvas returns a fresh copy of the main tab's seed canvas.
func DefaultCanvas() model.Canvas {
	return audexWorkflow.Canvas(MainTabID, MainTabTitle)
}
