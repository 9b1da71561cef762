package model

// FieldContext is what the scraping layer hands to the core for one infobox field
type FieldContext struct {
	PropertyID string              `json:"property"`
	Label      string              `json:"label,omitempty"` // Row header text, may declare a unit
	RawText    string              `json:"text"`            // Plain text content of the field
	Qualifiers []QualifierFragment `json:"qualifiers,omitempty"`
	References []ReferenceFragment `json:"references,omitempty"`
	Links      []Link              `json:"links,omitempty"`
	Handles    []any               `json:"-"` // Opaque image/link handles, passed through unexamined
}

// QualifierFragment is a nested qualifier sub-field
type QualifierFragment struct {
	PropertyID string `json:"property"`
	Text       string `json:"text"`
	Links      []Link `json:"links,omitempty"`
}

// ReferenceFragment is a citation found next to the field value
type ReferenceFragment struct {
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	AccessDate  string `json:"access_date,omitempty"`
	ArchiveURL  string `json:"archive_url,omitempty"`
	ArchiveDate string `json:"archive_date,omitempty"`
}

// Link is an internal wiki link inside a field
type Link struct {
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
	After string `json:"after,omitempty"` // Text between this link and the next one
}

// Candidate is a textual item reference before resolution
type Candidate struct {
	Label             string `json:"label"`
	Language          string `json:"language"`
	Site              string `json:"site"`
	ImpliedQualifiers []Snak `json:"implied_qualifiers,omitempty"`
}
