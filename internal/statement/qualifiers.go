package statement

import (
	"context"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
)

// pendingQualifier is an item qualifier waiting for the batched resolution
// pass
type pendingQualifier struct {
	result     int
	property   string
	unique     bool
	candidates []model.Candidate
}

// fragmentQualifiers attaches the directly encodable qualifier fragments of
// a field to all of its statements and returns the item qualifiers that
// still need resolution
func (b *Builder) fragmentQualifiers(resultIdx int, res *Result) []pendingQualifier {
	var pending []pendingQualifier

	for _, fragment := range res.Field.Qualifiers {
		meta, err := b.metadata.Property(fragment.PropertyID)
		if err != nil {
			b.logger.Debug("skipping qualifier", "property", fragment.PropertyID, "error", err)
			continue
		}

		if meta.Datatype == model.DatatypeItem {
			candidates := b.candidates(fragment.Links, fragment.Text, meta)
			if len(candidates) > 0 {
				pending = append(pending, pendingQualifier{
					result:     resultIdx,
					property:   meta.ID,
					unique:     meta.Constraints.Unique,
					candidates: candidates,
				})
			}
			continue
		}

		snak, ok := b.qualifierSnak(meta, fragment.Text)
		if !ok {
			b.logger.Debug("qualifier not recognized", "property", meta.ID, "text", fragment.Text)
			continue
		}
		for s := range res.Statements {
			res.Statements[s].AddQualifier(snak)
		}
	}
	return pending
}

// qualifierSnak encodes a non-item qualifier value
func (b *Builder) qualifierSnak(meta model.PropertyMetadata, text string) (model.Snak, bool) {
	text = strings.TrimSpace(text)

	switch meta.Datatype {
	case model.DatatypeTime:
		result, err := b.times.Parse(text, false)
		if err != nil {
			return model.Snak{}, false
		}
		return timeSnak(meta.ID, result), true
	case model.DatatypeQuantity:
		q, status := b.parseQuantity(text, meta, "")
		if status != model.FieldParsed {
			return model.Snak{}, false
		}
		return model.QuantitySnak(meta.ID, q), true
	default:
		return b.textSnak(meta, text)
	}
}

// attachItemQualifiers resolves every pending item qualifier with one
// batched lookup and attaches the results. A unique qualifier that resolves
// to zero or several items is dropped.
func (b *Builder) attachItemQualifiers(ctx context.Context, results []*Result, pending []pendingQualifier) {
	if len(pending) == 0 || b.resolver == nil {
		return
	}

	groups := make([][]model.Candidate, len(pending))
	for i, p := range pending {
		groups[i] = p.candidates
	}
	resolved := b.resolver.ResolveGroups(ctx, groups, b.languages)

	for i, p := range pending {
		ids := resolved[i]
		if len(ids) == 0 || (p.unique && len(ids) != 1) {
			b.logger.Debug("dropping item qualifier", "property", p.property, "items", len(ids))
			continue
		}
		res := results[p.result]
		for s := range res.Statements {
			for _, id := range ids {
				res.Statements[s].AddQualifier(model.ItemSnak(p.property, id))
			}
		}
	}
}
