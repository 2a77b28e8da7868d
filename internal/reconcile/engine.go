// Package reconcile cross-checks line-item aggregates against invoice
// header totals and decides whether an extraction can be trusted.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoicerecon/internal/domain"
	"invoicerecon/internal/invoice"
)

// Mode selects which checks an Engine runs.
type Mode string

const (
	// ModeBasic compares the final-amount and taxable-value sums.
	ModeBasic Mode = "basic"
	// ModeStrict also compares CGST and SGST sums and nets the rounding
	// adjustment out of the invoice value.
	ModeStrict Mode = "strict"
)

// Default tolerances per mode.
var (
	DefaultBasicTolerance  = decimal.NewFromInt(1)
	DefaultStrictTolerance = decimal.New(1, -2)
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBasic, "":
		return ModeBasic, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown reconciliation mode %q (want basic or strict)", s)
	}
}

// DefaultTolerance returns the tolerance used when none is configured.
func DefaultTolerance(m Mode) decimal.Decimal {
	if m == ModeStrict {
		return DefaultStrictTolerance
	}
	return DefaultBasicTolerance
}

// Config configures an Engine. A zero Tolerance selects the mode default.
type Config struct {
	Mode      Mode
	Tolerance decimal.Decimal
}

// ParseConfig builds a Config from its textual form. An empty tolerance
// selects the mode default.
func ParseConfig(mode, tolerance string) (Config, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Mode: m}
	if t := strings.TrimSpace(tolerance); t != "" {
		cfg.Tolerance, err = decimal.NewFromString(t)
		if err != nil {
			return Config{}, fmt.Errorf("invalid tolerance %q: %w", tolerance, err)
		}
	}
	return cfg, nil
}

// CheckResult is the outcome of one aggregate comparison. Expected is the
// value recomputed from line items, Actual the value stated on the header.
type CheckResult struct {
	Key        string         `json:"key"`
	FieldPath  string         `json:"field_path"`
	Expected   invoice.Amount `json:"expected"`
	Actual     invoice.Amount `json:"actual"`
	Difference invoice.Amount `json:"difference"`
	Passed     bool           `json:"passed"`
	Message    string         `json:"message"`
}

// Verdict is what the engine decided about one document.
type Verdict struct {
	Passed bool
	Checks []CheckResult
	// CoercionFailures lists numeric fields that could not be read as
	// numbers, e.g. "header.invoice_value" or "line_items[2].final_amount".
	CoercionFailures []string
	// Records holds one export row per line item when Passed.
	Records []invoice.MergedRecord
	// Err wraps domain.ErrToleranceExceeded when !Passed.
	Err error
}

// sumCheck compares an aggregate over line items with a header value.
type sumCheck struct {
	key       string
	name      string
	fieldPath string
	aggregate func([]invoice.LineItem) invoice.Amount
	stated    func(*invoice.Header) invoice.Amount
}

func sumOf(field func(*invoice.LineItem) invoice.Amount) func([]invoice.LineItem) invoice.Amount {
	return func(items []invoice.LineItem) invoice.Amount {
		total := invoice.Amount{}
		for i := range items {
			total = total.Add(field(&items[i]))
		}
		return total
	}
}

var (
	finalAmountCheck = sumCheck{
		key: "sum.final_amount", name: "Sum: Final Amount",
		fieldPath: "header." + invoice.FieldInvoiceValue,
		aggregate: sumOf(func(li *invoice.LineItem) invoice.Amount { return li.FinalAmount }),
		stated:    func(h *invoice.Header) invoice.Amount { return h.InvoiceValue },
	}
	netFinalAmountCheck = sumCheck{
		key: "sum.final_amount", name: "Sum: Final Amount (net of rounding)",
		fieldPath: "header." + invoice.FieldInvoiceValue,
		aggregate: sumOf(func(li *invoice.LineItem) invoice.Amount { return li.FinalAmount }),
		stated:    func(h *invoice.Header) invoice.Amount { return h.InvoiceValue.Sub(h.RoundingAdjustment) },
	}
	taxableValueCheck = sumCheck{
		key: "sum.taxable_value", name: "Sum: Taxable Value",
		fieldPath: "header." + invoice.FieldTaxableValue,
		aggregate: sumOf(func(li *invoice.LineItem) invoice.Amount { return li.TaxableValue }),
		stated:    func(h *invoice.Header) invoice.Amount { return h.TaxableValue },
	}
	cgstCheck = sumCheck{
		key: "sum.cgst_amount", name: "Sum: CGST Amount",
		fieldPath: "header." + invoice.FieldCGSTAmount,
		aggregate: sumOf(func(li *invoice.LineItem) invoice.Amount { return li.CGSTAmount }),
		stated:    func(h *invoice.Header) invoice.Amount { return h.CGSTAmount },
	}
	sgstCheck = sumCheck{
		key: "sum.sgst_amount", name: "Sum: SGST Amount",
		fieldPath: "header." + invoice.FieldSGSTAmount,
		aggregate: sumOf(func(li *invoice.LineItem) invoice.Amount { return li.SGSTAmount }),
		stated:    func(h *invoice.Header) invoice.Amount { return h.SGSTAmount },
	}
)

func checksFor(m Mode) []sumCheck {
	if m == ModeStrict {
		return []sumCheck{netFinalAmountCheck, taxableValueCheck, cgstCheck, sgstCheck}
	}
	return []sumCheck{finalAmountCheck, taxableValueCheck}
}

// Engine runs the configured checks. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	mode      Mode
	tolerance decimal.Decimal
	checks    []sumCheck
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	tol := cfg.Tolerance
	if tol.IsNegative() {
		return nil, fmt.Errorf("tolerance must not be negative, got %s", tol)
	}
	if tol.IsZero() {
		tol = DefaultTolerance(mode)
	}
	return &Engine{mode: mode, tolerance: tol, checks: checksFor(mode)}, nil
}

// Mode returns the engine's mode.
func (e *Engine) Mode() Mode { return e.mode }

// Tolerance returns the absolute tolerance applied to every check.
func (e *Engine) Tolerance() decimal.Decimal { return e.tolerance }

// Reconcile checks items against h. It never fails: uncoercible fields and
// mismatches both end up in a rejecting Verdict.
func (e *Engine) Reconcile(h *invoice.Header, items []invoice.LineItem) *Verdict {
	if h == nil {
		h = &invoice.Header{}
	}

	v := &Verdict{
		Checks:           make([]CheckResult, 0, len(e.checks)),
		CoercionFailures: coercionFailures(h, items),
	}

	var failed []string
	for _, c := range e.checks {
		res := e.run(c, h, items)
		if !res.Passed {
			failed = append(failed, c.key)
		}
		v.Checks = append(v.Checks, res)
	}

	if len(failed) > 0 {
		v.Err = fmt.Errorf("%w: %s", domain.ErrToleranceExceeded, strings.Join(failed, ", "))
		return v
	}

	v.Passed = true
	v.Records = make([]invoice.MergedRecord, 0, len(items))
	for i := range items {
		v.Records = append(v.Records, invoice.Merge(h, &items[i]))
	}
	return v
}

func (e *Engine) run(c sumCheck, h *invoice.Header, items []invoice.LineItem) CheckResult {
	expected := c.aggregate(items)
	actual := c.stated(h)
	diff := expected.Sub(actual).Abs()
	passed := expected.Within(actual, e.tolerance)

	msg := fmt.Sprintf("%s: %s matches line items", c.name, c.fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s mismatch (expected %s, got %s, tolerance %s)",
			c.name, c.fieldPath, fmtAmount(expected), fmtAmount(actual), e.tolerance.StringFixed(2))
	}
	return CheckResult{
		Key: c.key, FieldPath: c.fieldPath,
		Expected: expected, Actual: actual, Difference: diff,
		Passed: passed, Message: msg,
	}
}

func fmtAmount(a invoice.Amount) string {
	if !a.Valid() {
		return "NaN"
	}
	return a.Fixed(2)
}

func coercionFailures(h *invoice.Header, items []invoice.LineItem) []string {
	var out []string
	for _, f := range h.AmountFields() {
		if !f.Value.Valid() {
			out = append(out, "header."+f.Name)
		}
	}
	for i := range items {
		for _, f := range items[i].AmountFields() {
			if !f.Value.Valid() {
				out = append(out, fmt.Sprintf("line_items[%d].%s", i, f.Name))
			}
		}
	}
	return out
}
