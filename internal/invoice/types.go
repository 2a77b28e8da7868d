package invoice

// Canonical field names. Every key coming from an extraction payload is
// mapped onto one of these before it reaches typed records.
const (
	FieldInvoiceNumber      = "invoice_number"
	FieldInvoiceDate        = "invoice_date"
	FieldDueDate            = "due_date"
	FieldPlaceOfSupply      = "place_of_supply"
	FieldPlaceOfOrigin      = "place_of_origin"
	FieldReceiverName       = "receiver_name"
	FieldGSTINSupplier      = "gstin_supplier"
	FieldGSTINRecipient     = "gstin_recipient"
	FieldTaxableValue       = "taxable_value"
	FieldInvoiceValue       = "invoice_value"
	FieldTaxAmount          = "tax_amount"
	FieldCGSTAmount         = "cgst_amount"
	FieldSGSTAmount         = "sgst_amount"
	FieldIGSTAmount         = "igst_amount"
	FieldRoundingAdjustment = "rounding_adjustment"

	FieldItemName    = "item_name"
	FieldRate        = "rate_per_item_after_discount"
	FieldQuantity    = "quantity"
	FieldCGSTRate    = "cgst_rate"
	FieldSGSTRate    = "sgst_rate"
	FieldIGSTRate    = "igst_rate"
	FieldTaxRate     = "tax_rate"
	FieldFinalAmount = "final_amount"
)

// Header holds the invoice-level fields of one document.
type Header struct {
	InvoiceNumber  string `json:"invoice_number"`
	InvoiceDate    string `json:"invoice_date"`
	DueDate        string `json:"due_date"`
	PlaceOfSupply  string `json:"place_of_supply"`
	PlaceOfOrigin  string `json:"place_of_origin"`
	ReceiverName   string `json:"receiver_name"`
	GSTINSupplier  string `json:"gstin_supplier"`
	GSTINRecipient string `json:"gstin_recipient"`

	TaxableValue       Amount `json:"taxable_value"`
	InvoiceValue       Amount `json:"invoice_value"`
	TaxAmount          Amount `json:"tax_amount"`
	CGSTAmount         Amount `json:"cgst_amount"`
	SGSTAmount         Amount `json:"sgst_amount"`
	IGSTAmount         Amount `json:"igst_amount"`
	RoundingAdjustment Amount `json:"rounding_adjustment"`
}

// LineItem is one row of the invoice. Name, rate and quantity are kept as
// printed; they describe the item and take no part in reconciliation.
type LineItem struct {
	ItemName          string `json:"item_name"`
	RateAfterDiscount string `json:"rate_per_item_after_discount"`
	Quantity          string `json:"quantity"`

	TaxableValue Amount `json:"taxable_value"`
	CGSTAmount   Amount `json:"cgst_amount"`
	SGSTAmount   Amount `json:"sgst_amount"`
	IGSTAmount   Amount `json:"igst_amount"`
	CGSTRate     Amount `json:"cgst_rate"`
	SGSTRate     Amount `json:"sgst_rate"`
	IGSTRate     Amount `json:"igst_rate"`
	TaxAmount    Amount `json:"tax_amount"`
	TaxRate      Amount `json:"tax_rate"`
	FinalAmount  Amount `json:"final_amount"`
}

// TextField binds a canonical name to a string field of a record.
type TextField struct {
	Name  string
	Value *string
}

// AmountField binds a canonical name to a numeric field of a record.
type AmountField struct {
	Name  string
	Value *Amount
}

// TextFields lists the header's textual fields.
func (h *Header) TextFields() []TextField {
	return []TextField{
		{FieldInvoiceNumber, &h.InvoiceNumber},
		{FieldInvoiceDate, &h.InvoiceDate},
		{FieldDueDate, &h.DueDate},
		{FieldPlaceOfSupply, &h.PlaceOfSupply},
		{FieldPlaceOfOrigin, &h.PlaceOfOrigin},
		{FieldReceiverName, &h.ReceiverName},
		{FieldGSTINSupplier, &h.GSTINSupplier},
		{FieldGSTINRecipient, &h.GSTINRecipient},
	}
}

// AmountFields lists the header's numeric fields.
func (h *Header) AmountFields() []AmountField {
	return []AmountField{
		{FieldTaxableValue, &h.TaxableValue},
		{FieldInvoiceValue, &h.InvoiceValue},
		{FieldTaxAmount, &h.TaxAmount},
		{FieldCGSTAmount, &h.CGSTAmount},
		{FieldSGSTAmount, &h.SGSTAmount},
		{FieldIGSTAmount, &h.IGSTAmount},
		{FieldRoundingAdjustment, &h.RoundingAdjustment},
	}
}

// TextFields lists the line item's descriptive fields.
func (li *LineItem) TextFields() []TextField {
	return []TextField{
		{FieldItemName, &li.ItemName},
		{FieldRate, &li.RateAfterDiscount},
		{FieldQuantity, &li.Quantity},
	}
}

// AmountFields lists the line item's numeric fields in export order.
func (li *LineItem) AmountFields() []AmountField {
	return []AmountField{
		{FieldTaxableValue, &li.TaxableValue},
		{FieldSGSTAmount, &li.SGSTAmount},
		{FieldCGSTAmount, &li.CGSTAmount},
		{FieldIGSTAmount, &li.IGSTAmount},
		{FieldSGSTRate, &li.SGSTRate},
		{FieldCGSTRate, &li.CGSTRate},
		{FieldIGSTRate, &li.IGSTRate},
		{FieldTaxAmount, &li.TaxAmount},
		{FieldTaxRate, &li.TaxRate},
		{FieldFinalAmount, &li.FinalAmount},
	}
}

// MergedRecord is an export row: a line item's numeric fields annotated
// with identifying fields from its invoice header.
type MergedRecord struct {
	TaxableValue Amount `json:"taxable_value"`
	SGSTAmount   Amount `json:"sgst_amount"`
	CGSTAmount   Amount `json:"cgst_amount"`
	IGSTAmount   Amount `json:"igst_amount"`
	SGSTRate     Amount `json:"sgst_rate"`
	CGSTRate     Amount `json:"cgst_rate"`
	IGSTRate     Amount `json:"igst_rate"`
	TaxAmount    Amount `json:"tax_amount"`
	TaxRate      Amount `json:"tax_rate"`
	FinalAmount  Amount `json:"final_amount"`

	InvoiceNumber  string `json:"invoice_number"`
	InvoiceDate    string `json:"invoice_date"`
	PlaceOfSupply  string `json:"place_of_supply"`
	PlaceOfOrigin  string `json:"place_of_origin"`
	GSTINSupplier  string `json:"gstin_supplier"`
	GSTINRecipient string `json:"gstin_recipient"`
}

// Merge builds the export row for one line item.
func Merge(h *Header, li *LineItem) MergedRecord {
	return MergedRecord{
		TaxableValue:   li.TaxableValue,
		SGSTAmount:     li.SGSTAmount,
		CGSTAmount:     li.CGSTAmount,
		IGSTAmount:     li.IGSTAmount,
		SGSTRate:       li.SGSTRate,
		CGSTRate:       li.CGSTRate,
		IGSTRate:       li.IGSTRate,
		TaxAmount:      li.TaxAmount,
		TaxRate:        li.TaxRate,
		FinalAmount:    li.FinalAmount,
		InvoiceNumber:  h.InvoiceNumber,
		InvoiceDate:    h.InvoiceDate,
		PlaceOfSupply:  h.PlaceOfSupply,
		PlaceOfOrigin:  h.PlaceOfOrigin,
		GSTINSupplier:  h.GSTINSupplier,
		GSTINRecipient: h.GSTINRecipient,
	}
}
