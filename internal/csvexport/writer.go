// Package csvexport renders passed reconciliation records as CSV and XLSX.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"

	"invoicerecon/internal/invoice"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns is the export header row, one column per MergedRecord field.
var Columns = []string{
	invoice.FieldTaxableValue,
	invoice.FieldSGSTAmount,
	invoice.FieldCGSTAmount,
	invoice.FieldIGSTAmount,
	invoice.FieldSGSTRate,
	invoice.FieldCGSTRate,
	invoice.FieldIGSTRate,
	invoice.FieldTaxAmount,
	invoice.FieldTaxRate,
	invoice.FieldFinalAmount,
	invoice.FieldInvoiceNumber,
	invoice.FieldInvoiceDate,
	invoice.FieldPlaceOfSupply,
	invoice.FieldPlaceOfOrigin,
	invoice.FieldGSTINSupplier,
	invoice.FieldGSTINRecipient,
}

// Writer wraps csv.Writer for exporting merged records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteRecords converts merged records to CSV rows and writes them.
func (w *Writer) WriteRecords(records []invoice.MergedRecord) error {
	for i := range records {
		if err := w.csv.Write(recordToRow(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a complete document: optional BOM, header and records.
func WriteCSV(out io.Writer, records []invoice.MergedRecord, withBOM bool) error {
	if withBOM {
		if _, err := out.Write(BOM); err != nil {
			return fmt.Errorf("writing BOM: %w", err)
		}
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := w.WriteRecords(records); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

// recordToRow converts one record to a row in Columns order. Invalid
// amounts become empty cells.
func recordToRow(r *invoice.MergedRecord) []string {
	row := make([]string, 0, len(Columns))
	for _, a := range recordAmounts(r) {
		row = append(row, formatAmount(a))
	}
	return append(row, recordText(r)...)
}

// formatAmount writes at least two decimal places and never rounds away
// extracted precision.
func formatAmount(a invoice.Amount) string {
	if !a.Valid() {
		return ""
	}
	d := a.Decimal()
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}

func recordAmounts(r *invoice.MergedRecord) []invoice.Amount {
	return []invoice.Amount{
		r.TaxableValue,
		r.SGSTAmount,
		r.CGSTAmount,
		r.IGSTAmount,
		r.SGSTRate,
		r.CGSTRate,
		r.IGSTRate,
		r.TaxAmount,
		r.TaxRate,
		r.FinalAmount,
	}
}

func recordText(r *invoice.MergedRecord) []string {
	return []string{
		r.InvoiceNumber,
		r.InvoiceDate,
		r.PlaceOfSupply,
		r.PlaceOfOrigin,
		r.GSTINSupplier,
		r.GSTINRecipient,
	}
}
