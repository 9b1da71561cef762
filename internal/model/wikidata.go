package model

// Well-known Wikidata properties
const (
	PropInstanceOf            = "P31"
	PropSubclassOf            = "P279"
	PropPartOf                = "P361"
	PropCountry               = "P17"
	PropLocatedIn             = "P131"
	PropImportedFrom          = "P143"
	PropReferenceURL          = "P854"
	PropRetrieved             = "P813"
	PropArchiveURL            = "P1065"
	PropArchiveDate           = "P2960"
	PropTitle                 = "P1476"
	PropPointInTime           = "P585"
	PropStartTime             = "P580"
	PropEndTime               = "P582"
	PropSourcingCircumstances = "P1480"
	PropTemperature           = "P2076"
	PropPressure              = "P2077"
)

// Well-known Wikidata items
const (
	ItemCirca              = "Q5727902"
	ItemDisambiguationPage = "Q4167410"
)

// ClassificationProperties are the claims used to rank candidate entities by specificity
var ClassificationProperties = []string{
	PropInstanceOf,
	PropSubclassOf,
	PropPartOf,
	PropCountry,
	PropLocatedIn,
}

// WikipediaItems maps a language edition site id to its Wikidata item, used for "imported from"
var WikipediaItems = map[string]string{
	"enwiki": "Q328",
	"ruwiki": "Q206855",
	"dewiki": "Q48183",
	"frwiki": "Q8447",
	"ukwiki": "Q199698",
	"eswiki": "Q8449",
	"itwiki": "Q11920",
	"plwiki": "Q1551807",
}

// SiteID returns the site id of a Wikipedia language edition ("en" -> "enwiki")
func SiteID(lang string) string {
	if lang == "" {
		lang = "en"
	}
	return lang + "wiki"
}
