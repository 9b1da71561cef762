package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SnakType distinguishes value assertions from explicit no-value/unknown-value markers
type SnakType string

const (
	SnakValue     SnakType = "value"
	SnakNoValue   SnakType = "novalue"
	SnakSomeValue SnakType = "somevalue"
)

// Datatype is the Wikibase property datatype
type Datatype string

const (
	DatatypeItem         Datatype = "wikibase-item"
	DatatypeQuantity     Datatype = "quantity"
	DatatypeTime         Datatype = "time"
	DatatypeString       Datatype = "string"
	DatatypeExternalID   Datatype = "external-id"
	DatatypeMonolingual  Datatype = "monolingualtext"
	DatatypeURL          Datatype = "url"
	DatatypeCommonsMedia Datatype = "commonsMedia"
)

// Data value type names on the wire
const (
	ValueTypeString      = "string"
	ValueTypeQuantity    = "quantity"
	ValueTypeTime        = "time"
	ValueTypeMonolingual = "monolingualtext"
	ValueTypeEntityID    = "wikibase-entityid"
)

// Snak is the atomic assertion of a property with a value or a marker
type Snak struct {
	SnakType  SnakType   `json:"snaktype"`
	Property  string     `json:"property"`
	Datatype  Datatype   `json:"datatype,omitempty"`
	DataValue *DataValue `json:"datavalue,omitempty"`
}

// Validate checks that only value snaks carry a value
func (s Snak) Validate() error {
	if s.Property == "" {
		return fmt.Errorf("snak without property")
	}
	switch s.SnakType {
	case SnakValue:
		if s.DataValue == nil {
			return fmt.Errorf("value snak %s without datavalue", s.Property)
		}
	case SnakNoValue, SnakSomeValue:
		if s.DataValue != nil {
			return fmt.Errorf("%s snak %s carries a datavalue", s.SnakType, s.Property)
		}
	default:
		return fmt.Errorf("snak %s: unknown snak type %q", s.Property, s.SnakType)
	}
	return nil
}

// EntityID is the value of an item-typed snak
type EntityID struct {
	EntityType string `json:"entity-type"`
	NumericID  int    `json:"numeric-id,omitempty"`
	ID         string `json:"id"`
}

// Monolingual is a text tagged with a language code
type Monolingual struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// DataValue is a typed snak value in Wikibase wire shape
type DataValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// ItemID returns the entity id of an item value
func (d *DataValue) ItemID() (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.Value.(EntityID)
	return v.ID, ok
}

// Quantity returns the quantity payload
func (d *DataValue) Quantity() (Quantity, bool) {
	if d == nil {
		return Quantity{}, false
	}
	v, ok := d.Value.(Quantity)
	return v, ok
}

// Time returns the time payload
func (d *DataValue) Time() (TimeValue, bool) {
	if d == nil {
		return TimeValue{}, false
	}
	v, ok := d.Value.(TimeValue)
	return v, ok
}

// Text returns the string or monolingual text payload
func (d *DataValue) Text() (string, bool) {
	if d == nil {
		return "", false
	}
	switch v := d.Value.(type) {
	case string:
		return v, true
	case Monolingual:
		return v.Text, true
	}
	return "", false
}

type quantityWire struct {
	Amount     string  `json:"amount"`
	UpperBound string  `json:"upperBound,omitempty"`
	LowerBound string  `json:"lowerBound,omitempty"`
	Unit       UnitRef `json:"unit"`
}

// MarshalJSON emits quantities with explicitly signed amounts
func (d DataValue) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	}
	if q, ok := d.Value.(Quantity); ok {
		return json.Marshal(wire{Type: d.Type, Value: quantityWire{
			Amount:     signed(q.Amount),
			UpperBound: signed(q.UpperBound),
			LowerBound: signed(q.LowerBound),
			Unit:       q.Unit,
		}})
	}
	return json.Marshal(wire{Type: d.Type, Value: d.Value})
}

// UnmarshalJSON decodes the value into the typed payload matching Type
func (d *DataValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Type = raw.Type

	switch raw.Type {
	case ValueTypeString:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		d.Value = s
	case ValueTypeMonolingual:
		var m Monolingual
		if err := json.Unmarshal(raw.Value, &m); err != nil {
			return fmt.Errorf("decode monolingual value: %w", err)
		}
		d.Value = m
	case ValueTypeEntityID:
		var e EntityID
		if err := json.Unmarshal(raw.Value, &e); err != nil {
			return fmt.Errorf("decode entity value: %w", err)
		}
		if e.ID == "" && e.NumericID > 0 {
			e.ID = "Q" + strconv.Itoa(e.NumericID)
		}
		d.Value = e
	case ValueTypeTime:
		var t TimeValue
		if err := json.Unmarshal(raw.Value, &t); err != nil {
			return fmt.Errorf("decode time value: %w", err)
		}
		d.Value = t
	case ValueTypeQuantity:
		var q quantityWire
		if err := json.Unmarshal(raw.Value, &q); err != nil {
			return fmt.Errorf("decode quantity value: %w", err)
		}
		d.Value = Quantity{
			Amount:     strings.TrimPrefix(q.Amount, "+"),
			LowerBound: strings.TrimPrefix(q.LowerBound, "+"),
			UpperBound: strings.TrimPrefix(q.UpperBound, "+"),
			Unit:       q.Unit,
		}
	default:
		var v any
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return err
		}
		d.Value = v
	}
	return nil
}

// QuantitySnak builds a quantity value snak
func QuantitySnak(property string, q Quantity) Snak {
	return Snak{
		SnakType:  SnakValue,
		Property:  property,
		Datatype:  DatatypeQuantity,
		DataValue: &DataValue{Type: ValueTypeQuantity, Value: q},
	}
}

// TimeSnak builds a time value snak
func TimeSnak(property string, t TimeValue) Snak {
	return Snak{
		SnakType:  SnakValue,
		Property:  property,
		Datatype:  DatatypeTime,
		DataValue: &DataValue{Type: ValueTypeTime, Value: t},
	}
}

// StringSnak builds a string-valued snak for string-like datatypes (string, external-id, url, commonsMedia)
func StringSnak(property string, datatype Datatype, value string) Snak {
	return Snak{
		SnakType:  SnakValue,
		Property:  property,
		Datatype:  datatype,
		DataValue: &DataValue{Type: ValueTypeString, Value: value},
	}
}

// MonolingualSnak builds a monolingual text snak
func MonolingualSnak(property, text, language string) Snak {
	return Snak{
		SnakType:  SnakValue,
		Property:  property,
		Datatype:  DatatypeMonolingual,
		DataValue: &DataValue{Type: ValueTypeMonolingual, Value: Monolingual{Text: text, Language: language}},
	}
}

// ItemSnak builds an item-valued snak
func ItemSnak(property, itemID string) Snak {
	numeric, _ := strconv.Atoi(strings.TrimPrefix(itemID, "Q"))
	return Snak{
		SnakType: SnakValue,
		Property: property,
		Datatype: DatatypeItem,
		DataValue: &DataValue{Type: ValueTypeEntityID, Value: EntityID{
			EntityType: "item",
			NumericID:  numeric,
			ID:         itemID,
		}},
	}
}

// NoValueSnak asserts that the property has no value
func NoValueSnak(property string, datatype Datatype) Snak {
	return Snak{SnakType: SnakNoValue, Property: property, Datatype: datatype}
}

// SomeValueSnak asserts that the property has an unknown value
func SomeValueSnak(property string, datatype Datatype) Snak {
	return Snak{SnakType: SnakSomeValue, Property: property, Datatype: datatype}
}

// String renders the snak value for reports: items as ids, quantities with
// bounds and unit item, times with their precision.
func (s Snak) String() string {
	switch s.SnakType {
	case SnakNoValue:
		return "no value"
	case SnakSomeValue:
		return "unknown value"
	}
	if s.DataValue == nil {
		return ""
	}
	switch v := s.DataValue.Value.(type) {
	case EntityID:
		return v.ID
	case Quantity:
		out := v.Amount
		if v.HasBounds() {
			out += " [" + v.LowerBound + ".." + v.UpperBound + "]"
		}
		if unit := v.Unit.ItemID(); unit != "" {
			out += " " + unit
		}
		return out
	case TimeValue:
		out := fmt.Sprintf("%s/%d", v.Time, v.Precision)
		if v.CalendarModel == CalendarJulian {
			out += " (Julian)"
		}
		return out
	case Monolingual:
		return v.Text + "@" + v.Language
	case string:
		return v
	}
	return fmt.Sprint(s.DataValue.Value)
}
