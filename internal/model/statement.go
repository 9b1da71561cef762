package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Rank is the statement rank
type Rank string

const (
	RankNormal     Rank = "normal"
	RankPreferred  Rank = "preferred"
	RankDeprecated Rank = "deprecated"
)

// Reference is a provenance record made of snaks
type Reference struct {
	Snaks      map[string][]Snak `json:"snaks"`
	SnaksOrder []string          `json:"snaks-order"`
}

// Add appends a snak to the reference, keeping property order stable
func (r *Reference) Add(s Snak) {
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("reference snak: %v", err))
	}
	if r.Snaks == nil {
		r.Snaks = make(map[string][]Snak)
	}
	if _, exists := r.Snaks[s.Property]; !exists {
		r.SnaksOrder = append(r.SnaksOrder, s.Property)
	}
	r.Snaks[s.Property] = append(r.Snaks[s.Property], s)
}

// IsEmpty reports whether the reference has no snaks
func (r Reference) IsEmpty() bool {
	return len(r.Snaks) == 0
}

// Statement is a main snak plus qualifiers, references and rank
type Statement struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	MainSnak        Snak              `json:"mainsnak"`
	Qualifiers      map[string][]Snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
	References      []Reference       `json:"references,omitempty"`
	Rank            Rank              `json:"rank"`
}

// NewStatementID generates a globally unique statement id for the subject
// entity. Statements of a subject without an item get a bare UUID.
func NewStatementID(subject string) string {
	if subject == "" {
		return uuid.NewString()
	}
	return strings.ToUpper(subject) + "$" + uuid.NewString()
}

// NewStatement builds a statement around exactly one main snak.
// An invalid main snak is a programming error and panics.
func NewStatement(subject string, main Snak) Statement {
	if err := main.Validate(); err != nil {
		panic(fmt.Sprintf("main snak: %v", err))
	}
	return Statement{
		ID:       NewStatementID(subject),
		Type:     "statement",
		MainSnak: main,
		Rank:     RankNormal,
	}
}

// Property returns the property of the main snak
func (s Statement) Property() string {
	return s.MainSnak.Property
}

// AddQualifier appends a qualifier snak in encounter order
func (s *Statement) AddQualifier(q Snak) {
	if err := q.Validate(); err != nil {
		panic(fmt.Sprintf("qualifier snak: %v", err))
	}
	if s.Qualifiers == nil {
		s.Qualifiers = make(map[string][]Snak)
	}
	if _, exists := s.Qualifiers[q.Property]; !exists {
		s.QualifiersOrder = append(s.QualifiersOrder, q.Property)
	}
	s.Qualifiers[q.Property] = append(s.Qualifiers[q.Property], q)
}

// AddReference appends a non-empty reference
func (s *Statement) AddReference(r Reference) {
	if r.IsEmpty() {
		return
	}
	s.References = append(s.References, r)
}

// HasQualifier reports whether a qualifier for the property is present
func (s Statement) HasQualifier(property string) bool {
	return len(s.Qualifiers[property]) > 0
}
