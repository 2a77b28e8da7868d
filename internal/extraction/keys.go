package extraction

import (
	"strings"
	"unicode"

	"invoicerecon/internal/invoice"
)

// Canonical section names.
const (
	sectionHeader    = "header"
	sectionLineItems = "line_items"
	sectionTotals    = "totals"
)

var sectionAliases = map[string]string{
	"invoice_details": sectionHeader,
	"invoice_detail":  sectionHeader,
	"invoice_header":  sectionHeader,
	"invoice":         sectionHeader,
	"header":          sectionHeader,

	"line_items": sectionLineItems,
	"line_item":  sectionLineItems,
	"lineitems":  sectionLineItems,
	"items":      sectionLineItems,

	"total_summary": sectionTotals,
	"totals":        sectionTotals,
	"summary":       sectionTotals,
}

// headerAliases maps observed header and totals keys onto canonical names.
var headerAliases = map[string]string{
	"invoice_no":           invoice.FieldInvoiceNumber,
	"inv_no":               invoice.FieldInvoiceNumber,
	"date":                 invoice.FieldInvoiceDate,
	"supplier_gstin":       invoice.FieldGSTINSupplier,
	"gstin_of_supplier":    invoice.FieldGSTINSupplier,
	"recipient_gstin":      invoice.FieldGSTINRecipient,
	"gstin_of_recipient":   invoice.FieldGSTINRecipient,
	"total_taxable_value":  invoice.FieldTaxableValue,
	"total_invoice_value":  invoice.FieldInvoiceValue,
	"grand_total":          invoice.FieldInvoiceValue,
	"total_tax_amount":     invoice.FieldTaxAmount,
	"total_cgst_amount":    invoice.FieldCGSTAmount,
	"total_sgst_amount":    invoice.FieldSGSTAmount,
	"total_igst_amount":    invoice.FieldIGSTAmount,
	"total_cgst":           invoice.FieldCGSTAmount,
	"total_sgst":           invoice.FieldSGSTAmount,
	"total_igst":           invoice.FieldIGSTAmount,
	"round_off":            invoice.FieldRoundingAdjustment,
	"rounding_off":         invoice.FieldRoundingAdjustment,
	"rounding":             invoice.FieldRoundingAdjustment,
	"rounding_adjustments": invoice.FieldRoundingAdjustment,
	"receiver":             invoice.FieldReceiverName,
	"billed_to":            invoice.FieldReceiverName,
	"state_of_supply":      invoice.FieldPlaceOfSupply,
	"state_of_origin":      invoice.FieldPlaceOfOrigin,
	"payment_due_date":     invoice.FieldDueDate,
}

var lineItemAliases = map[string]string{
	"name":                 invoice.FieldItemName,
	"description":          invoice.FieldItemName,
	"item":                 invoice.FieldItemName,
	"rate":                 invoice.FieldRate,
	"rate_after_discount":  invoice.FieldRate,
	"qty":                  invoice.FieldQuantity,
	"taxable_amount":       invoice.FieldTaxableValue,
	"total":                invoice.FieldFinalAmount,
	"amount":               invoice.FieldFinalAmount,
	"final_amount_payable": invoice.FieldFinalAmount,
}

// CanonicalKey folds a payload key to lower snake_case. Title Case,
// camelCase, kebab-case and snake_case spellings of the same name map to
// the same key: "Invoice Details", "invoiceDetails" and "invoice-details"
// all become "invoice_details".
func CanonicalKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	runes := []rune(strings.TrimSpace(key))
	pendingSep := false
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && i > 0 && b.Len() > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					pendingSep = true
				}
			}
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSep = true
		}
	}
	return b.String()
}

func resolve(aliases map[string]string, key string) string {
	canonical := CanonicalKey(key)
	if alias, ok := aliases[canonical]; ok {
		return alias
	}
	return canonical
}
