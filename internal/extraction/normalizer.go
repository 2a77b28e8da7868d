// Package extraction turns the raw text returned by an extraction model
// into typed invoice records.
package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"invoicerecon/internal/domain"
	"invoicerecon/internal/invoice"
)

// Extraction is a successfully normalized payload.
type Extraction struct {
	Header    invoice.Header
	LineItems []invoice.LineItem
	// UnknownKeys lists payload keys that matched no canonical field, as
	// "section.key" paths in sorted order.
	UnknownKeys []string
}

// Normalizer parses model output. It holds no state and is safe for
// concurrent use.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

var languageTag = regexp.MustCompile(`(?i)^json\s`)

// StripFences removes markdown code fences and a leading "json" language
// tag that models wrap around their output.
func StripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```", "")
	s = strings.TrimSpace(s)
	if languageTag.MatchString(s) {
		s = strings.TrimSpace(s[len("json"):])
	}
	return s
}

// Normalize parses raw and projects it into a header and line items.
// Failures wrap domain.ErrParse (not JSON) or domain.ErrStructure (JSON
// without the required sections); no other error is returned.
func (n *Normalizer) Normalize(raw string) (*Extraction, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrParse)
	}

	doc, err := decode(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %s, not an object", domain.ErrStructure, jsonKind(doc))
	}

	p := &projector{unknown: map[string]struct{}{}}

	sections := make(map[string]any, 3)
	for _, key := range sortedKeys(obj) {
		name := resolve(sectionAliases, key)
		switch name {
		case sectionHeader, sectionLineItems, sectionTotals:
			if _, dup := sections[name]; dup {
				p.markUnknown(CanonicalKey(key))
				continue
			}
			sections[name] = obj[key]
		default:
			p.markUnknown(CanonicalKey(key))
		}
	}

	if err := validateStructure(sections); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStructure, err)
	}

	out := &Extraction{}
	header, _ := sections[sectionHeader].(map[string]any)
	totals, _ := sections[sectionTotals].(map[string]any)
	p.projectHeader(&out.Header, header, totals)

	rows, _ := sections[sectionLineItems].([]any)
	out.LineItems = make([]invoice.LineItem, 0, len(rows))
	for _, row := range rows {
		fields, _ := row.(map[string]any)
		out.LineItems = append(out.LineItems, p.projectLineItem(fields))
	}

	out.UnknownKeys = p.unknownKeys()
	return out, nil
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

type projector struct {
	unknown map[string]struct{}
}

func (p *projector) markUnknown(path string) {
	p.unknown[path] = struct{}{}
}

func (p *projector) unknownKeys() []string {
	if len(p.unknown) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.unknown))
	for k := range p.unknown {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// canonicalFields folds a section's keys onto canonical names. When two
// keys fold onto the same name the first non-blank one in sorted key
// order wins, so the outcome does not depend on map iteration.
func (p *projector) canonicalFields(section string, src map[string]any, aliases map[string]string, known map[string]struct{}) map[string]any {
	out := make(map[string]any, len(src))
	for _, key := range sortedKeys(src) {
		name := resolve(aliases, key)
		if _, ok := known[name]; !ok {
			p.markUnknown(section + "." + CanonicalKey(key))
			continue
		}
		if cur, seen := out[name]; seen && !isBlank(cur) {
			continue
		}
		out[name] = src[key]
	}
	return out
}

var (
	headerKnown   = headerFieldNames()
	lineItemKnown = lineItemFieldNames()
)

func headerFieldNames() map[string]struct{} {
	h := &invoice.Header{}
	return fieldNames(h.TextFields(), h.AmountFields())
}

func lineItemFieldNames() map[string]struct{} {
	li := &invoice.LineItem{}
	return fieldNames(li.TextFields(), li.AmountFields())
}

func fieldNames(text []invoice.TextField, amounts []invoice.AmountField) map[string]struct{} {
	out := make(map[string]struct{}, len(text)+len(amounts))
	for _, f := range text {
		out[f.Name] = struct{}{}
	}
	for _, f := range amounts {
		out[f.Name] = struct{}{}
	}
	return out
}

// projectHeader fills h from the header section, falling back to the
// totals section for any field the header leaves absent or blank.
func (p *projector) projectHeader(h *invoice.Header, header, totals map[string]any) {
	primary := p.canonicalFields(sectionHeader, header, headerAliases, headerKnown)
	fallback := p.canonicalFields(sectionTotals, totals, headerAliases, headerKnown)

	pick := func(name string) any {
		if v, ok := primary[name]; ok && !isBlank(v) {
			return v
		}
		if v, ok := fallback[name]; ok {
			return v
		}
		return primary[name]
	}

	for _, f := range h.TextFields() {
		*f.Value = toText(pick(f.Name))
	}
	for _, f := range h.AmountFields() {
		*f.Value = invoice.CoerceAmount(pick(f.Name))
	}
}

func (p *projector) projectLineItem(src map[string]any) invoice.LineItem {
	var li invoice.LineItem
	fields := p.canonicalFields(sectionLineItems, src, lineItemAliases, lineItemKnown)
	for _, f := range li.TextFields() {
		*f.Value = toText(fields[f.Name])
	}
	for _, f := range li.AmountFields() {
		*f.Value = invoice.CoerceAmount(fields[f.Name])
	}
	return li
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
