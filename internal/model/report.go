package model

import "time"

// Report is the extraction result for one article
type Report struct {
	Subject   string    `json:"subject"`          // Article title
	Entity    string    `json:"entity,omitempty"` // Item id of the article, empty when unknown
	SourceURL string    `json:"source_url"`
	Language  string    `json:"language"`
	FetchedAt time.Time `json:"fetched_at"`
	FetchMeta FetchMeta `json:"fetch_meta"`

	Fields     []FieldReport     `json:"fields"`
	Unmapped   []string          `json:"unmapped,omitempty"` // Row labels no property is configured for
	Statements []StatementReport `json:"statements"`

	ReferenceChecks []ReferenceCheck `json:"reference_checks,omitempty"`
	Stability       *Stability       `json:"stability,omitempty"` // Nil when the history was not checked

	LLM *LLMSummary `json:"llm,omitempty"` // Optional review summary, never alters statements
}

// FetchMeta contains HTTP metadata from fetching the article
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// FieldStatus describes what happened to one infobox field
type FieldStatus string

const (
	FieldParsed          FieldStatus = "parsed"
	FieldUnparsed        FieldStatus = "unparsed"         // No pattern matched
	FieldUnknownProperty FieldStatus = "unknown_property" // No metadata for the property
	FieldAmbiguousUnit   FieldStatus = "ambiguous_unit"   // Zero or several units matched
	FieldUnresolved      FieldStatus = "unresolved"       // No entity found for the links
)

// FieldReport records the outcome of one field
type FieldReport struct {
	Property   string      `json:"property"`
	Text       string      `json:"text"`
	Status     FieldStatus `json:"status"`
	Statements int         `json:"statements"`
}

// ExportStatus is the comparison verdict against existing claims
type ExportStatus string

const (
	ExportNew      ExportStatus = "new"      // Nothing comparable exists yet
	ExportPresent  ExportStatus = "present"  // An equal value already exists
	ExportConflict ExportStatus = "conflict" // The property has different values
	ExportUnknown  ExportStatus = "unknown"  // Existing claims were not checked
)

// StatementReport pairs a statement with its export verdict
type StatementReport struct {
	Statement Statement    `json:"statement"`
	Status    ExportStatus `json:"status"`
}

// AuthorityTier represents the classification of a reference source
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0
	TierPrimary   AuthorityTier = 1 // Official statistics, statutes, academic papers
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// ReferenceCheck is the liveness check of one reference URL
type ReferenceCheck struct {
	URL          string        `json:"url"`
	IsAccessible bool          `json:"is_accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	LastModified *time.Time    `json:"last_modified,omitempty"`
	IsDead       bool          `json:"is_dead"`                // 404, 410 or unreachable
	RedirectURL  string        `json:"redirect_url,omitempty"` // If redirected
	HasArchive   bool          `json:"has_archive"`            // An archive URL accompanies it
	Authority    AuthorityTier `json:"authority"`
	Error        string        `json:"error,omitempty"`
}

// Severity rates how contested an article is
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Stability summarizes the recent edit history of the article
type Stability struct {
	RecentEdits   int        `json:"recent_edits"`
	Reverts       int        `json:"reverts"`
	UniqueEditors int        `json:"unique_editors"`
	EditsPerDay   float64    `json:"edits_per_day"`
	LastEdit      *time.Time `json:"last_edit,omitempty"`
	Severity      Severity   `json:"severity"`
}

// IsContested reports an ongoing edit war
func (s *Stability) IsContested() bool {
	return s != nil && (s.Severity == SeverityMedium || s.Severity == SeverityHigh)
}

// LLMSummary contains the optional review summary
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"` // Only reference URLs may be cited
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// StatementsOf returns the bare statements of a report
func (r *Report) StatementsOf() []Statement {
	out := make([]Statement, 0, len(r.Statements))
	for _, s := range r.Statements {
		out = append(out, s.Statement)
	}
	return out
}
