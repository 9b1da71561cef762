package model

// PropertyMetadata describes how values of a property are parsed and validated
type PropertyMetadata struct {
	ID            string              `json:"id" yaml:"id"`
	Label         string              `json:"label,omitempty" yaml:"label,omitempty"`
	Datatype      Datatype            `json:"datatype" yaml:"datatype"`
	Constraints   PropertyConstraints `json:"constraints" yaml:"constraints"`
	UnitIDs       []string            `json:"units" yaml:"units"` // nil: not configured, empty: dimensionless
	FormatterURL  string              `json:"formatter_url,omitempty" yaml:"formatter_url,omitempty"`
	EndPropertyID string              `json:"end_property,omitempty" yaml:"end_property,omitempty"` // Companion property for "start–end" ranges
}

// PropertyConstraints holds the constraint values the builder enforces
type PropertyConstraints struct {
	Integer              bool     `json:"integer,omitempty" yaml:"integer,omitempty"`
	Unique               bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	RequiredQualifierIDs []string `json:"required_qualifiers,omitempty" yaml:"required_qualifiers,omitempty"`
	AllowedQualifierIDs  []string `json:"allowed_qualifiers,omitempty" yaml:"allowed_qualifiers,omitempty"`
}

// AllowsQualifier reports whether the qualifier property may be attached.
// An empty allow-list permits only required qualifiers.
func (p PropertyMetadata) AllowsQualifier(id string) bool {
	for _, q := range p.Constraints.AllowedQualifierIDs {
		if q == id {
			return true
		}
	}
	for _, q := range p.Constraints.RequiredQualifierIDs {
		if q == id {
			return true
		}
	}
	return false
}

// UnitMetadata lists the search patterns that recognise a unit in text
type UnitMetadata struct {
	ID     string   `json:"id" yaml:"id"`
	Label  string   `json:"label,omitempty" yaml:"label,omitempty"`
	Search []string `json:"search" yaml:"search"`
}
