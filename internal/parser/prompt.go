package parser

import "strings"

// SystemInstruction frames the task for providers that take a separate
// system prompt.
const SystemInstruction = `You are tasked with extracting and organizing data from invoice documents. Infer values from context and provide every requested field in a structured format, even when the document labels it differently.`

// BuildInvoicePrompt returns the extraction prompt for an invoice with the
// given content type. The section and field names match what the
// extraction normalizer recognizes.
func BuildInvoicePrompt(contentType string) string {
	kind := "PDF"
	if strings.HasPrefix(contentType, "image/") {
		kind = "image"
	}
	return `Please extract the following information from the attached invoice ` + kind + ` and return the results in JSON format.

Invoice Details:
invoice_number: The invoice number (e.g. "Invoice No.", "Inv#").
invoice_date: The date of the invoice (e.g. "Date", "Invoice Date").
due_date: The payment due date (e.g. "Due Date").
place_of_supply: The place of supply (the recipient's state).
place_of_origin: The supplier's origin (the supplier's state).
receiver_name: The recipient's name (e.g. "Billed To").
gstin_supplier: The supplier's GSTIN.
gstin_recipient: The recipient's GSTIN, if available.
taxable_value: Amount before tax and after discount.
invoice_value: Amount after tax.
tax_amount: Total tax amount.

Line Items:
For each item, extract:
item_name: The name or description of the item.
rate_per_item_after_discount: The cost after discounts.
quantity: The number of units.
taxable_value: The taxable value of the item.
sgst_amount, cgst_amount, igst_amount: Applicable tax amounts, if available.
sgst_rate, cgst_rate, igst_rate: Applicable tax rates, if available.
tax_amount: The general tax amount when CGST, SGST and IGST amounts are not given.
tax_rate: The general tax rate when CGST, SGST and IGST rates are not given.
final_amount: The final amount payable for the item.

Total Summary:
total_taxable_value: The sum of taxable values.
total_cgst_amount, total_sgst_amount, total_igst_amount: When several rates of a tax appear (e.g. "CGST @ 6% = X" and "CGST @ 9% = Y"), report their sum (X + Y). Apply the same rule to SGST and IGST.
total_tax_amount: Only when CGST, SGST and IGST are not given, the sum of the general tax amounts.
total_invoice_value: Total invoice value after taxes.
rounding_adjustment: Any rounding adjustment.

Return a single JSON object with the keys "Invoice Details" (object), "Line Items" (array of objects) and "Total Summary" (object). Use an empty string for text that is not present and 0 for numbers that are not present.`
}
