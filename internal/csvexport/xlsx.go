package csvexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoicerecon/internal/invoice"
)

// SheetName is the worksheet holding passed records.
const SheetName = "Passed Invoices"

// WriteXLSX writes records as a single-sheet workbook with the same
// columns as the CSV export. Amounts are numeric cells; invalid amounts
// are left blank.
func WriteXLSX(out io.Writer, records []invoice.MergedRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("creating number style: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = excelize.Cell{StyleID: bold, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i := range records {
		cells := make([]interface{}, 0, len(Columns))
		for _, a := range recordAmounts(&records[i]) {
			cells = append(cells, numericCell(a, money))
		}
		for _, v := range recordText(&records[i]) {
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func numericCell(a invoice.Amount, style int) interface{} {
	if !a.Valid() {
		return nil
	}
	f, _ := a.Decimal().Float64()
	return excelize.Cell{StyleID: style, Value: f}
}
