package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/glasscut/internal/model"
)

// Worksheet names of the cut list workbook.
const (
	SheetSummary  = "Summary"
	SheetCuts     = "Cuts"
	SheetWaste    = "Waste"
	SheetExcluded = "Excluded"
)

// writeRows fills a worksheet starting at A1, one slice per row.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func summaryRows(plan model.Plan) [][]interface{} {
	rows := [][]interface{}{{"Metric", "Value"}}
	if plan.RunID != "" {
		rows = append(rows, []interface{}{"Run", plan.RunID})
	}
	for _, item := range summaryItems(plan) {
		rows = append(rows, []interface{}{item.label, item.value})
	}
	return rows
}

func cutRows(plan model.Plan) [][]interface{} {
	rows := [][]interface{}{{"Piece", "Kind", "Source", "Material", "Request", "Unit", "Width mm", "Height mm", "X mm", "Y mm", "Order", "Client"}}
	for _, p := range plan.Pieces {
		for _, c := range p.Cuts {
			rows = append(rows, []interface{}{
				p.Index, p.Kind.String(), p.SourceID, p.MaterialID,
				c.Cut.RequestID, c.Cut.Index, c.Width(), c.Height(), c.X, c.Y,
				c.Cut.OrderRef, c.Cut.ClientRef,
			})
		}
	}
	return rows
}

func wasteRows(plan model.Plan) [][]interface{} {
	rows := [][]interface{}{{"Piece", "Waste", "Position", "X mm", "Y mm", "Width mm", "Height mm", "Class", "Saved", "Keep Width mm", "Keep Height mm", "Location"}}
	for _, p := range plan.Pieces {
		for _, w := range p.Waste {
			keepW, keepH := w.RemnantSize()
			rows = append(rows, []interface{}{
				p.Index, w.ID, string(w.Position), w.X, w.Y, w.Width, w.Height,
				w.Class.String(), w.Saved, keepW, keepH, w.Location,
			})
		}
	}
	return rows
}

func excludedRows(plan model.Plan) [][]interface{} {
	rows := [][]interface{}{{"Material", "Request", "Unit", "Width mm", "Height mm", "Reason", "Order", "Client"}}
	for _, e := range plan.Excluded {
		rows = append(rows, []interface{}{
			e.Cut.MaterialID, e.Cut.RequestID, e.Cut.Index, e.Cut.Width, e.Cut.Height,
			string(e.Reason), e.Cut.OrderRef, e.Cut.ClientRef,
		})
	}
	for _, id := range plan.Malformed {
		rows = append(rows, []interface{}{"", id, 0, 0, 0, "malformed", "", ""})
	}
	return rows
}

func buildWorkbook(plan model.Plan) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetCuts, SheetWaste, SheetExcluded} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	for _, s := range []struct {
		name string
		rows [][]interface{}
	}{
		{SheetSummary, summaryRows(plan)},
		{SheetCuts, cutRows(plan)},
		{SheetWaste, wasteRows(plan)},
		{SheetExcluded, excludedRows(plan)},
	} {
		if err := writeRows(f, s.name, s.rows); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// WriteCutList writes the plan as an XLSX workbook with summary, cut,
// waste and excluded sheets.
func WriteCutList(w io.Writer, plan model.Plan) error {
	f, err := buildWorkbook(plan)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ExportCutList writes the workbook to a file.
func ExportCutList(path string, plan model.Plan) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCutList(out, plan); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
