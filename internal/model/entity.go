package model

// Entity is a knowledge-base item with the parts the extractor reads:
// labels, sitelinks and claims grouped by property
type Entity struct {
	ID        string                 `json:"id"`
	Labels    map[string]string      `json:"labels,omitempty"`    // Language -> label
	SiteLinks map[string]string      `json:"sitelinks,omitempty"` // Site id -> article title
	Claims    map[string][]Statement `json:"claims,omitempty"`
}

// Label returns the label in the first available preferred language,
// falling back to the id
func (e Entity) Label(languages []string) string {
	for _, lang := range languages {
		if label, ok := e.Labels[lang]; ok && label != "" {
			return label
		}
	}
	return e.ID
}

// ItemValues returns the item ids asserted by the claims of a property
func (e Entity) ItemValues(property string) []string {
	var ids []string
	for _, st := range e.Claims[property] {
		if id, ok := st.MainSnak.DataValue.ItemID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// HasItemValue reports whether any claim of the property points to id
func (e Entity) HasItemValue(property, id string) bool {
	for _, v := range e.ItemValues(property) {
		if v == id {
			return true
		}
	}
	return false
}
