// Package metadata provides the read-only property and unit configuration:
// datatypes, constraints, unit search patterns and the infobox row labels
// each property is extracted from.
package metadata

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/infobox2wd/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// propertyEntry is a property with the infobox labels that map to it
type propertyEntry struct {
	model.PropertyMetadata `yaml:",inline"`
	Labels                 map[string][]string `yaml:"labels,omitempty"` // Language -> row header texts
}

type file struct {
	Properties []propertyEntry      `yaml:"properties"`
	Units      []model.UnitMetadata `yaml:"units"`
}

// Store holds property and unit metadata. It is immutable after loading and
// safe for concurrent use.
type Store struct {
	properties map[string]model.PropertyMetadata
	units      map[string]model.UnitMetadata
	labels     map[string]map[string]string // Language -> normalized label -> property id
}

// Load reads the embedded defaults and overlays the optional user file.
// Entries in the user file replace default entries with the same id.
func Load(path string) (*Store, error) {
	s := &Store{
		properties: make(map[string]model.PropertyMetadata),
		units:      make(map[string]model.UnitMetadata),
		labels:     make(map[string]map[string]string),
	}

	if err := s.merge(defaultsYAML, "defaults"); err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata file: %w", err)
		}
		if err := s.merge(data, path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustLoadDefaults returns the embedded defaults
func MustLoadDefaults() *Store {
	s, err := Load("")
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) merge(data []byte, source string) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse metadata %s: %w", source, err)
	}

	for _, p := range f.Properties {
		if p.ID == "" || p.Datatype == "" {
			return fmt.Errorf("metadata %s: property %q needs id and datatype", source, p.ID)
		}
		s.properties[p.ID] = p.PropertyMetadata
		for lang, labels := range p.Labels {
			if s.labels[lang] == nil {
				s.labels[lang] = make(map[string]string)
			}
			for _, label := range labels {
				s.labels[lang][normalizeLabel(label)] = p.ID
			}
		}
	}
	for _, u := range f.Units {
		if u.ID == "" {
			return fmt.Errorf("metadata %s: unit without id", source)
		}
		s.units[u.ID] = u
	}
	return nil
}

// Property returns the metadata of a property, or model.ErrUnknownProperty
func (s *Store) Property(id string) (model.PropertyMetadata, error) {
	p, ok := s.properties[id]
	if !ok {
		return model.PropertyMetadata{}, fmt.Errorf("%w: %s", model.ErrUnknownProperty, id)
	}
	return p, nil
}

// Units returns the metadata of the given units in order. Unknown ids are
// skipped; an empty result for a non-empty request means the configuration
// is missing.
func (s *Store) Units(ids []string) ([]model.UnitMetadata, error) {
	out := make([]model.UnitMetadata, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.units[id]; ok {
			out = append(out, u)
		}
	}
	if len(ids) > 0 && len(out) == 0 {
		return nil, fmt.Errorf("%w: units %s", model.ErrConfigurationMissing, strings.Join(ids, ", "))
	}
	return out, nil
}

// PropertyForLabel maps an infobox row header to a property id
func (s *Store) PropertyForLabel(lang, label string) (string, bool) {
	id, ok := s.labels[lang][normalizeLabel(label)]
	return id, ok
}

// Properties returns all property ids, sorted by numeric id
func (s *Store) Properties() []string {
	ids := make([]string, 0, len(s.properties))
	for id := range s.properties {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	return ids
}

// normalizeLabel lowercases a row header and drops footnote marks,
// parenthesized asides and trailing colons
func normalizeLabel(label string) string {
	label = strings.ToLower(label)
	if i := strings.IndexAny(label, "(["); i > 0 {
		label = label[:i]
	}
	label = strings.TrimRight(strings.TrimSpace(label), ":•·")
	return strings.Join(strings.Fields(label), " ")
}
