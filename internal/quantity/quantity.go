// Package quantity parses localized numeric text into Wikibase quantities:
// an exact decimal amount, optional uncertainty bounds and magnitude words
// such as "million" or "×10^3".
package quantity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/patterns"
	"github.com/shopspring/decimal"
)

var (
	dashReplacer = strings.NewReplacer(
		"\u2010", "-", "\u2011", "-",
		"‒", "-", "–", "-", "—", "-", "―", "-",
		"−", "-", "﹣", "-", "－", "-",
	)

	// Spaces used as digit group separators ("1 234 567")
	groupSpace = regexp.MustCompile(`(\d)[\s\x{00A0}\x{2009}\x{202F}]+(\d{3})(?:\D|$)`)

	// Commas used as digit group separators in locales that write "1,234.5"
	groupComma = regexp.MustCompile(`(\d),(\d{3})(?:\D|$)`)

	powerSuffix = regexp.MustCompile(`\s*[×xX·*]\s*10\s*(?:\^\s*\(?\s*([+-]?\d+)\s*\)?|([⁺⁻]?[⁰¹²³⁴⁵⁶⁷⁸⁹]+))`)

	nonNumeric = regexp.MustCompile(`[^0-9.+\-]`)

	superscripts = strings.NewReplacer(
		"⁰", "0", "¹", "1", "²", "2", "³", "3", "⁴", "4",
		"⁵", "5", "⁶", "6", "⁷", "7", "⁸", "8", "⁹", "9", "⁺", "+", "⁻", "-",
	)
)

// Parser turns numeric text into quantities using a locale pattern set.
// It holds no mutable state and is safe for concurrent use.
type Parser struct {
	patterns *patterns.Set
}

// NewParser creates a new quantity parser
func NewParser(set *patterns.Set) *Parser {
	return &Parser{patterns: set}
}

// Parse extracts a dimensionless quantity from text. With forceInteger and no
// magnitude, dots are read as thousands separators. Text without a usable
// number yields model.ErrParseFailure.
func (p *Parser) Parse(text string, forceInteger bool) (model.Quantity, error) {
	if p.patterns == nil {
		return model.Quantity{}, fmt.Errorf("%w: %w: no pattern set", model.ErrParseFailure, model.ErrConfigurationMissing)
	}

	normalized := p.normalize(text)
	normalized, magnitude := p.detectMagnitude(normalized)

	main, boundPart, hasBound := strings.Cut(normalized, "±")

	if forceInteger && magnitude == 0 {
		main = strings.ReplaceAll(main, ".", "")
	}

	if magnitude == 0 && !hasBound {
		if q, ok := parseRange(main); ok {
			return q, nil
		}
	}

	amount, err := parseNumber(clean(main))
	if err != nil {
		return model.Quantity{}, fmt.Errorf("%w: %q: %v", model.ErrParseFailure, text, err)
	}
	amount = amount.shift(magnitude)

	if !hasBound {
		return model.NewQuantity(amount.String(), "", "", model.Dimensionless), nil
	}

	bound, err := p.parseBound(boundPart, amount, magnitude)
	if err != nil {
		return model.Quantity{}, fmt.Errorf("%w: bound of %q: %v", model.ErrParseFailure, text, err)
	}

	fraction := max(amount.fraction, exactFraction(bound))
	lower := number{value: amount.value.Sub(bound), fraction: fraction}
	upper := number{value: amount.value.Add(bound), fraction: fraction}

	return model.NewQuantity(amount.String(), lower.String(), upper.String(), model.Dimensionless), nil
}

// parseBound parses the part after "±", either absolute or a percentage of amount
func (p *Parser) parseBound(boundPart string, amount number, magnitude int) (decimal.Decimal, error) {
	if strings.Contains(boundPart, "%") {
		pct, err := parseNumber(clean(strings.ReplaceAll(boundPart, "%", "")))
		if err != nil {
			return decimal.Decimal{}, err
		}
		return amount.value.Mul(pct.value).Shift(-2).Abs(), nil
	}

	n, err := parseNumber(clean(boundPart))
	if err != nil {
		return decimal.Decimal{}, err
	}
	return n.shift(magnitude).value.Abs(), nil
}

// Circa detects an approximation marker. It returns the text without the
// marker and the "sourcing circumstances: circa" qualifier, or the text
// unchanged and nil when there is no marker.
func (p *Parser) Circa(text string) (string, *model.Snak) {
	if p.patterns == nil || p.patterns.Circa == nil {
		return text, nil
	}
	if !p.patterns.Circa.MatchString(text) {
		return text, nil
	}
	stripped := strings.TrimSpace(p.patterns.Circa.ReplaceAllString(text, " "))
	snak := model.ItemSnak(model.PropSourcingCircumstances, model.ItemCirca)
	return stripped, &snak
}

// normalize unifies separators and minus signs
func (p *Parser) normalize(text string) string {
	text = dashReplacer.Replace(text)
	text = strings.ReplaceAll(text, "+/-", "±")

	for groupSpace.MatchString(text) {
		text = groupSpace.ReplaceAllStringFunc(text, func(m string) string {
			return groupSpace.ReplaceAllString(m, "$1$2") + trailingNonDigit(m)
		})
	}

	if p.patterns.CommaGroups {
		for groupComma.MatchString(text) {
			text = groupComma.ReplaceAllStringFunc(text, func(m string) string {
				return groupComma.ReplaceAllString(m, "$1$2") + trailingNonDigit(m)
			})
		}
	}
	text = strings.ReplaceAll(text, ",", ".")

	return strings.TrimSpace(text)
}

// trailingNonDigit returns the delimiter a group regex consumed after the
// digits, so that the replacement can put it back
func trailingNonDigit(m string) string {
	last := m[len(m)-1]
	if last >= '0' && last <= '9' {
		return ""
	}
	// The delimiter may be multi-byte; find where the trailing digits end
	i := len(m) - 1
	for i > 0 && (m[i] < '0' || m[i] > '9') {
		i--
	}
	return m[i+1:]
}

// detectMagnitude strips a magnitude word or power-of-ten suffix and returns
// the exponent it stands for
func (p *Parser) detectMagnitude(text string) (string, int) {
	for _, m := range p.patterns.Magnitudes {
		if m.Pattern.MatchString(text) {
			return strings.TrimSpace(m.Pattern.ReplaceAllString(text, " ")), m.Exponent
		}
	}

	match := powerSuffix.FindStringSubmatchIndex(text)
	if match == nil {
		return text, 0
	}

	var expText string
	if match[2] >= 0 {
		expText = text[match[2]:match[3]]
	} else {
		expText = superscripts.Replace(text[match[4]:match[5]])
	}
	exp, err := strconv.Atoi(expText)
	if err != nil {
		return text, 0
	}

	return strings.TrimSpace(text[:match[0]] + " " + text[match[1]:]), exp
}

// parseRange reads "lower-upper" as an explicit interval
func parseRange(main string) (model.Quantity, bool) {
	parts := strings.Split(main, "-")
	if len(parts) != 2 {
		return model.Quantity{}, false
	}

	lowerToken, upperToken := clean(parts[0]), clean(parts[1])
	if lowerToken == "" || upperToken == "" {
		return model.Quantity{}, false
	}
	lower, err := parseNumber(lowerToken)
	if err != nil {
		return model.Quantity{}, false
	}
	upper, err := parseNumber(upperToken)
	if err != nil {
		return model.Quantity{}, false
	}
	if lower.value.GreaterThan(upper.value) {
		return model.Quantity{}, false
	}

	amount := midpoint(lower, upper)
	return model.NewQuantity(amount.String(), lower.String(), upper.String(), model.Dimensionless), true
}

// clean strips everything that cannot be part of a number
func clean(s string) string {
	return nonNumeric.ReplaceAllString(s, "")
}
