// Package resolve maps textual item references (article titles) to
// knowledge-base items and turns them into item statements.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
)

// MaxBatchSize is the largest number of titles sent in one lookup
const MaxBatchSize = 50

// Lookup is the knowledge-base collaborator. Implementations own retries,
// timeouts and caching.
type Lookup interface {
	// Redirects maps titles to their canonical titles; titles that are not
	// redirects may be omitted
	Redirects(ctx context.Context, site string, titles []string) (map[string]string, error)

	// EntitiesByTitles returns the items linked to the titles, with labels in
	// the requested languages and their classification claims
	EntitiesByTitles(ctx context.Context, site string, titles []string, languages []string) ([]model.Entity, error)
}

// Resolution is the outcome of resolving the candidates of one property
type Resolution struct {
	Statements []model.Statement
	Duplicates map[string]bool // Item ids already present among the existing statements
}

// Resolver resolves candidates through a Lookup. It keeps no state between
// calls.
type Resolver struct {
	lookup    Lookup
	batchSize int
	logger    *slog.Logger
}

// NewResolver creates a new resolver
func NewResolver(lookup Lookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		lookup:    lookup,
		batchSize: MaxBatchSize,
		logger:    logger,
	}
}

// WithBatchSize lowers the number of titles per lookup; values outside
// 1..MaxBatchSize are ignored
func (r *Resolver) WithBatchSize(n int) *Resolver {
	if n > 0 && n <= MaxBatchSize {
		r.batchSize = n
	}
	return r
}

// resolved is a looked-up entity with the candidates that named it
type resolved struct {
	entity     model.Entity
	candidates []int
}

// Resolve looks up the candidates of a property and returns item statements
// for the entities that survive disambiguation and subclass filtering.
// Lookup failures yield an empty resolution.
func (r *Resolver) Resolve(ctx context.Context, subject, property string, candidates []model.Candidate, languages []string, existing []model.Statement) Resolution {
	res := Resolution{Duplicates: make(map[string]bool)}
	if len(candidates) == 0 {
		return res
	}

	entities, err := r.lookupAll(ctx, candidates, languages)
	if err != nil {
		r.logger.Warn("entity lookup failed", "property", property, "error", err)
		return res
	}
	survivors := r.filter(entities, languages)

	present := make(map[string]bool)
	for _, st := range existing {
		if id, ok := st.MainSnak.DataValue.ItemID(); ok {
			present[id] = true
		}
	}

	for _, e := range survivors {
		st := model.NewStatement(subject, model.ItemSnak(property, e.entity.ID))
		if len(e.candidates) == 1 {
			for _, q := range candidates[e.candidates[0]].ImpliedQualifiers {
				st.AddQualifier(q)
			}
		}
		res.Statements = append(res.Statements, st)

		if present[e.entity.ID] {
			res.Duplicates[e.entity.ID] = true
		}
	}
	return res
}

// ResolveGroups resolves several independent candidate groups with one
// batched lookup and returns the surviving item ids of each group
func (r *Resolver) ResolveGroups(ctx context.Context, groups [][]model.Candidate, languages []string) [][]string {
	out := make([][]string, len(groups))

	var all []model.Candidate
	owner := make([]int, 0)
	for g, group := range groups {
		for _, c := range group {
			all = append(all, c)
			owner = append(owner, g)
		}
	}
	if len(all) == 0 {
		return out
	}

	entities, err := r.lookupAll(ctx, all, languages)
	if err != nil {
		r.logger.Warn("qualifier lookup failed", "error", err)
		return out
	}

	perGroup := make([][]resolved, len(groups))
	for _, e := range entities {
		seen := make(map[int]bool)
		for _, idx := range e.candidates {
			g := owner[idx]
			if seen[g] {
				continue
			}
			seen[g] = true
			perGroup[g] = append(perGroup[g], e)
		}
	}
	for g, group := range perGroup {
		for _, e := range r.filter(group, languages) {
			out[g] = append(out[g], e.entity.ID)
		}
	}
	return out
}

// lookupAll resolves redirects and fetches entities per site in batches,
// keeping the order in which the lookup returned them
func (r *Resolver) lookupAll(ctx context.Context, candidates []model.Candidate, languages []string) ([]resolved, error) {
	type key struct{ site, title string }

	var sites []string
	titlesBySite := make(map[string][]string)
	bySiteTitle := make(map[key][]int)
	for i, c := range candidates {
		title := NormalizeTitle(c.Label)
		if title == "" {
			continue
		}
		site := c.Site
		if site == "" {
			site = model.SiteID(c.Language)
		}
		k := key{site, title}
		if _, ok := bySiteTitle[k]; !ok {
			if _, known := titlesBySite[site]; !known {
				sites = append(sites, site)
			}
			titlesBySite[site] = append(titlesBySite[site], title)
		}
		bySiteTitle[k] = append(bySiteTitle[k], i)
	}

	var out []resolved
	index := make(map[string]int)
	for _, site := range sites {
		titles := titlesBySite[site]

		canonical := make(map[string]string)
		for _, batch := range batches(titles, r.batchSize) {
			redirects, err := r.lookup.Redirects(ctx, site, batch)
			if err != nil {
				return nil, err
			}
			for from, to := range redirects {
				canonical[from] = NormalizeTitle(to)
			}
		}

		// Candidates indexed by the title the entity's sitelink will carry
		byCanonical := make(map[string][]int)
		var lookupTitles []string
		for _, title := range titles {
			target := title
			if to, ok := canonical[title]; ok && to != "" {
				target = to
			}
			if _, ok := byCanonical[target]; !ok {
				lookupTitles = append(lookupTitles, target)
			}
			byCanonical[target] = append(byCanonical[target], bySiteTitle[key{site, title}]...)
		}

		for _, batch := range batches(lookupTitles, r.batchSize) {
			entities, err := r.lookup.EntitiesByTitles(ctx, site, batch, languages)
			if err != nil {
				return nil, err
			}
			for _, e := range entities {
				idxs := byCanonical[NormalizeTitle(e.SiteLinks[site])]
				if i, ok := index[e.ID]; ok {
					out[i].candidates = appendUnique(out[i].candidates, idxs...)
					continue
				}
				index[e.ID] = len(out)
				out = append(out, resolved{entity: e, candidates: appendUnique(nil, idxs...)})
			}
		}
	}
	return out, nil
}

// filter drops disambiguation pages and entities a more specific entity of
// the same batch points to through a classification property
func (r *Resolver) filter(entities []resolved, languages []string) []resolved {
	var kept []resolved
	for _, e := range entities {
		if e.entity.HasItemValue(model.PropInstanceOf, model.ItemDisambiguationPage) {
			continue
		}
		kept = append(kept, e)
	}

	suppressed := make(map[string]bool)
	for _, general := range kept {
		for _, specific := range kept {
			if general.entity.ID == specific.entity.ID {
				continue
			}
			if pointsTo(specific.entity, general.entity.ID) {
				suppressed[general.entity.ID] = true
				r.logger.Warn("suppressing less specific value",
					"suppressed", general.entity.Label(languages),
					"kept", specific.entity.Label(languages),
				)
				break
			}
		}
	}

	var out []resolved
	for _, e := range kept {
		if !suppressed[e.entity.ID] {
			out = append(out, e)
		}
	}
	return out
}

func pointsTo(e model.Entity, id string) bool {
	for _, p := range model.ClassificationProperties {
		if e.HasItemValue(p, id) {
			return true
		}
	}
	return false
}

// NormalizeTitle turns a link target into the title form used by sitelinks
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	if i := strings.IndexByte(title, '#'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if title == "" {
		return ""
	}
	r := []rune(title)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func batches(items []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatchSize
	}
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

func appendUnique(dst []int, values ...int) []int {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
