// Package statement assembles parsed infobox values, qualifiers and
// references into Wikibase statements.
package statement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/patterns"
	"github.com/ppiankov/infobox2wd/internal/quantity"
	"github.com/ppiankov/infobox2wd/internal/reference"
	"github.com/ppiankov/infobox2wd/internal/resolve"
	"github.com/ppiankov/infobox2wd/internal/timeval"
	"github.com/ppiankov/infobox2wd/internal/units"
)

// Metadata is the read-only property and unit configuration
type Metadata interface {
	Property(id string) (model.PropertyMetadata, error)
	Units(ids []string) ([]model.UnitMetadata, error)
}

// Resolver turns item candidates into items
type Resolver interface {
	Resolve(ctx context.Context, subject, property string, candidates []model.Candidate, languages []string, existing []model.Statement) resolve.Resolution
	ResolveGroups(ctx context.Context, groups [][]model.Candidate, languages []string) [][]string
}

// Config holds builder dependencies
type Config struct {
	Language  string        // Article edition language
	Languages []string      // Label preference for resolution, defaults to Language
	Patterns  *patterns.Set // Locale patterns, loaded for Language when nil
	Metadata  Metadata
	Resolver  Resolver     // Optional, item values stay unresolved without it
	Circa     bool         // Attach "circa" qualifiers for approximate values
	Logger    *slog.Logger // Optional, uses slog.Default() if nil
}

// Builder creates statements from field contexts. It is safe for concurrent
// use; all state lives in the call.
type Builder struct {
	language   string
	languages  []string
	metadata   Metadata
	resolver   Resolver
	circa      bool
	quantities *quantity.Parser
	times      *timeval.Parser
	units      *units.Matcher
	references *reference.Builder
	logger     *slog.Logger
}

// Result is the outcome of one field
type Result struct {
	Field      model.FieldContext
	Status     model.FieldStatus
	Statements []model.Statement
	Duplicates map[string]bool // Item ids that already exist on the subject
}

// NewBuilder creates a new statement builder
func NewBuilder(cfg Config) (*Builder, error) {
	if cfg.Metadata == nil {
		return nil, fmt.Errorf("statement builder: %w: metadata", model.ErrConfigurationMissing)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = patterns.DefaultLanguage
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{cfg.Language}
	}
	if cfg.Patterns == nil {
		set, err := patterns.Load(cfg.Language)
		if err != nil {
			return nil, fmt.Errorf("statement builder: %w", err)
		}
		cfg.Patterns = set
	}

	times := timeval.NewParser(cfg.Patterns)
	return &Builder{
		language:   cfg.Language,
		languages:  cfg.Languages,
		metadata:   cfg.Metadata,
		resolver:   cfg.Resolver,
		circa:      cfg.Circa,
		quantities: quantity.NewParser(cfg.Patterns),
		times:      times,
		units:      units.NewMatcher(cfg.Logger),
		references: reference.NewBuilder(cfg.Language, times),
		logger:     cfg.Logger,
	}, nil
}

// Build creates the statements of a single field
func (b *Builder) Build(ctx context.Context, subject string, field model.FieldContext) (*Result, error) {
	results, err := b.BuildAll(ctx, subject, []model.FieldContext{field}, nil)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// BuildAll creates the statements of many fields. Item qualifiers of every
// field are collected first and resolved in one batched pass. existing holds
// the subject's current statements per property for duplicate detection.
func (b *Builder) BuildAll(ctx context.Context, subject string, fields []model.FieldContext, existing map[string][]model.Statement) ([]*Result, error) {
	results := make([]*Result, len(fields))
	var pending []pendingQualifier

	for i, field := range fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := &Result{Field: field, Duplicates: make(map[string]bool)}
		results[i] = res

		meta, err := b.metadata.Property(field.PropertyID)
		if errors.Is(err, model.ErrUnknownProperty) {
			res.Status = model.FieldUnknownProperty
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("metadata for %s: %w", field.PropertyID, err)
		}

		statements, status := b.mainStatements(ctx, subject, field, meta, existing[meta.ID], res)
		res.Status = status
		if len(statements) == 0 {
			b.logger.Debug("field produced no statement", "property", field.PropertyID, "status", status, "text", field.RawText)
			continue
		}

		refs := b.references.Build(field)
		for s := range statements {
			for _, ref := range refs {
				statements[s].AddReference(ref)
			}
		}
		res.Statements = statements

		pending = append(pending, b.fragmentQualifiers(i, res)...)
	}

	b.attachItemQualifiers(ctx, results, pending)
	return results, nil
}

// mainStatements parses the field value according to the property datatype
func (b *Builder) mainStatements(ctx context.Context, subject string, field model.FieldContext, meta model.PropertyMetadata, existing []model.Statement, res *Result) ([]model.Statement, model.FieldStatus) {
	switch meta.Datatype {
	case model.DatatypeQuantity:
		return b.quantityStatements(subject, field, meta)
	case model.DatatypeTime:
		return b.timeStatements(subject, field, meta)
	case model.DatatypeItem:
		return b.itemStatements(ctx, subject, field, meta, existing, res)
	default:
		snak, ok := b.textSnak(meta, field.RawText)
		if !ok {
			return nil, model.FieldUnparsed
		}
		return []model.Statement{model.NewStatement(subject, snak)}, model.FieldParsed
	}
}
