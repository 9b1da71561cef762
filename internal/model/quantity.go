package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EntityPrefix is the concept URI prefix used for units and calendar models
const EntityPrefix = "http://www.wikidata.org/entity/"

// UnitRef is either the dimensionless sentinel "1" or a unit entity URI
type UnitRef string

// Dimensionless is the unit of quantities without a measurement unit
const Dimensionless UnitRef = "1"

// UnitFromID builds a unit reference from an item id such as "Q11573"
func UnitFromID(id string) UnitRef {
	if id == "" || id == string(Dimensionless) {
		return Dimensionless
	}
	return UnitRef(EntityPrefix + id)
}

// ItemID returns the item id of the unit, or "" for dimensionless quantities
func (u UnitRef) ItemID() string {
	if u == Dimensionless || u == "" {
		return ""
	}
	return strings.TrimPrefix(string(u), EntityPrefix)
}

// Quantity is a decimal amount with optional bounds and a unit.
// Amounts are base-10 strings and never pass through binary floats.
type Quantity struct {
	Amount     string  `json:"amount"`
	LowerBound string  `json:"lowerBound,omitempty"`
	UpperBound string  `json:"upperBound,omitempty"`
	Unit       UnitRef `json:"unit"`
}

// HasBounds reports whether the quantity carries an uncertainty interval
func (q Quantity) HasBounds() bool {
	return q.LowerBound != "" || q.UpperBound != ""
}

// WithUnit returns a copy of the quantity with the given unit
func (q Quantity) WithUnit(unit UnitRef) Quantity {
	q.Unit = unit
	return q
}

// NewQuantity builds a quantity and panics when the bounds invariant is
// violated: bounds come in pairs and enclose the amount.
func NewQuantity(amount, lower, upper string, unit UnitRef) Quantity {
	if unit == "" {
		unit = Dimensionless
	}
	q := Quantity{Amount: amount, LowerBound: lower, UpperBound: upper, Unit: unit}
	if err := q.Validate(); err != nil {
		panic(err)
	}
	return q
}

// Validate checks the amount and bounds invariant
func (q Quantity) Validate() error {
	amount, err := decimal.NewFromString(q.Amount)
	if err != nil {
		return fmt.Errorf("quantity amount %q: %w", q.Amount, err)
	}
	if (q.LowerBound == "") != (q.UpperBound == "") {
		return fmt.Errorf("quantity %q: bounds must be given together", q.Amount)
	}
	if q.LowerBound == "" {
		return nil
	}
	lower, err := decimal.NewFromString(q.LowerBound)
	if err != nil {
		return fmt.Errorf("quantity lower bound %q: %w", q.LowerBound, err)
	}
	upper, err := decimal.NewFromString(q.UpperBound)
	if err != nil {
		return fmt.Errorf("quantity upper bound %q: %w", q.UpperBound, err)
	}
	if lower.GreaterThan(amount) || amount.GreaterThan(upper) {
		return fmt.Errorf("quantity bounds out of order: %s <= %s <= %s", q.LowerBound, q.Amount, q.UpperBound)
	}
	return nil
}

// signed renders a decimal string with the explicit sign Wikibase expects
func signed(s string) string {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return s
	}
	return "+" + s
}
