package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/glasscut/internal/model"
)

var floatOpts = ImportOptions{DefaultMaterial: "float-4mm"}

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Material,Width,Height,Qty\nfloat-4mm,600,300,2\nfloat-4mm,400,800,1\n")
	got := DetectCSVDelimiter(data)
	if got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Material;Width;Height;Qty\nfloat-4mm;600;300;2\nfloat-4mm;400;800;1\n")
	got := DetectCSVDelimiter(data)
	if got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Material\tWidth\tHeight\tQty\nfloat-4mm\t600\t300\t2\n")
	got := DetectCSVDelimiter(data)
	if got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Material|Width|Height|Qty\nfloat-4mm|600|300|2\n")
	got := DetectCSVDelimiter(data)
	if got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"Material", "Width", "Height", "Quantity", "Order", "Client"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	want := ColumnMapping{Material: 0, Width: 1, Height: 2, Quantity: 3, Order: 4, Client: 5, Kind: -1, Label: -1, Location: -1}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_CaseInsensitiveAndAliases(t *testing.T) {
	row := []string{"GLASS TYPE", "W", "H", "Pcs", "PO", "Customer"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Material != 0 || mapping.Width != 1 || mapping.Height != 2 || mapping.Quantity != 3 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
	if mapping.Order != 4 || mapping.Client != 5 {
		t.Errorf("expected order at 4 and client at 5, got %+v", mapping)
	}
}

func TestDetectColumns_StockHeaders(t *testing.T) {
	row := []string{"Kind", "Material", "Width mm", "Height mm", "Qty", "Rack", "Name"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Kind != 0 || mapping.Location != 5 || mapping.Label != 6 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
	if mapping.Width != 2 || mapping.Height != 3 {
		t.Errorf("expected width at 2 and height at 3, got %+v", mapping)
	}
}

func TestDetectColumns_FirstMatchWins(t *testing.T) {
	row := []string{"Width", "W", "Height"}
	mapping, _ := DetectColumns(row)
	if mapping.Width != 0 {
		t.Errorf("expected first width column, got %d", mapping.Width)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	row := []string{"float-4mm", "600", "300", "2"}
	mapping, isHeader := DetectColumns(row)

	if isHeader {
		t.Error("expected no header detection for numeric data")
	}
	if mapping != requestPositional {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── parseMM Tests ─────────────────────────────────────────

func TestParseMM(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		rounded bool
		wantErr bool
	}{
		{"600", 600, false, false},
		{" 600 ", 600, false, false},
		{"600mm", 600, false, false},
		{"600 MM", 600, false, false},
		{"600.0", 600, false, false},
		{"600.4", 600, true, false},
		{"600.5", 601, true, false},
		{"abc", 0, false, true},
		{"", 0, false, true},
	}

	for _, tt := range tests {
		got, rounded, err := parseMM(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMM(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want || rounded != tt.rounded {
			t.Errorf("parseMM(%q) = %d, %v; want %d, %v", tt.input, got, rounded, tt.want, tt.rounded)
		}
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Material,Width,Height,Quantity,Order,Client\nfloat-4mm,600,300,2,SO-1,Acme\nlaminated-6mm,400,800,1,SO-2,\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(result.Requests))
	}

	r := result.Requests[0]
	if r.MaterialID != "float-4mm" {
		t.Errorf("expected material 'float-4mm', got '%s'", r.MaterialID)
	}
	if r.Width != 600 || r.Height != 300 || r.Quantity != 2 {
		t.Errorf("expected 600x300 x2, got %dx%d x%d", r.Width, r.Height, r.Quantity)
	}
	if r.OrderRef != "SO-1" || r.ClientRef != "Acme" {
		t.Errorf("expected refs SO-1/Acme, got %s/%s", r.OrderRef, r.ClientRef)
	}
	if r.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if r.Status != model.StatusPending {
		t.Errorf("expected pending status, got %s", r.Status)
	}
	if result.Requests[1].MaterialID != "laminated-6mm" {
		t.Errorf("expected material 'laminated-6mm', got '%s'", result.Requests[1].MaterialID)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "float-4mm,600,300,2\nfloat-4mm,400,800,1,SO-9\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d (errors: %v)", len(result.Requests), result.Errors)
	}
	if result.Requests[0].Width != 600 {
		t.Errorf("expected width 600, got %d", result.Requests[0].Width)
	}
	if result.Requests[1].OrderRef != "SO-9" {
		t.Errorf("expected order ref SO-9, got '%s'", result.Requests[1].OrderRef)
	}
}

func TestImportCSVFromReader_UnrecognizedHeaderSkipped(t *testing.T) {
	data := "Glas,Breite,Hoehe,Stueck\nfloat-4mm,600,300,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 1 {
		t.Fatalf("expected 1 request, got %d (errors: %v)", len(result.Requests), result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a header warning")
	}
}

func TestImportCSVFromReader_DefaultMaterial(t *testing.T) {
	data := "Width,Height,Qty\n600,300,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', floatOpts)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Requests) != 1 || result.Requests[0].MaterialID != "float-4mm" {
		t.Errorf("expected one float-4mm request, got %+v", result.Requests)
	}
}

func TestImportCSVFromReader_MissingMaterial(t *testing.T) {
	data := "Width,Height,Qty\n600,300,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Errors) == 0 {
		t.Fatal("expected error for missing material column")
	}
	if !strings.Contains(result.Errors[0], "Material") {
		t.Errorf("expected error to mention Material, got: %s", result.Errors[0])
	}
}

func TestImportCSVFromReader_BlankMaterialCell(t *testing.T) {
	data := "Material,Width,Height,Qty\n,600,300,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 0 {
		t.Errorf("expected no requests, got %d", len(result.Requests))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_ReorderedColumns(t *testing.T) {
	data := "Qty,Height,Width,Material\n2,300,600,float-4mm\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 1 {
		t.Fatalf("expected 1 request, got %d (errors: %v)", len(result.Requests), result.Errors)
	}
	r := result.Requests[0]
	if r.Width != 600 || r.Height != 300 || r.Quantity != 2 || r.MaterialID != "float-4mm" {
		t.Errorf("unexpected request %+v", r)
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',', floatOpts)

	if len(result.Errors) == 0 {
		t.Error("expected error for empty input")
	}
}

func TestImportCSVFromReader_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"width", "float-4mm,abc,300,2", "Invalid width"},
		{"height", "float-4mm,600,,2", "Missing height"},
		{"quantity", "float-4mm,600,300,two", "Invalid quantity"},
		{"negative", "float-4mm,-600,300,2", "must be positive"},
		{"zero quantity", "float-4mm,600,300,0", "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := "Material,Width,Height,Qty\n" + tt.row + "\n"
			result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

			if len(result.Requests) != 0 {
				t.Errorf("expected no requests, got %d", len(result.Requests))
			}
			if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, result.Errors)
			}
			if len(result.Errors) == 1 && !strings.HasPrefix(result.Errors[0], "Line 2") {
				t.Errorf("expected error to reference Line 2, got %s", result.Errors[0])
			}
		})
	}
}

func TestImportCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Material,Width,Height,Qty\nfloat-4mm,600,300,2\nfloat-4mm,abc,300,1\nfloat-4mm,400,800,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 2 {
		t.Errorf("expected 2 valid requests, got %d", len(result.Requests))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
}

func TestImportCSVFromReader_EmptyRows(t *testing.T) {
	data := "Material,Width,Height,Qty\nfloat-4mm,600,300,2\n,,,\n\nfloat-4mm,400,800,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 2 {
		t.Errorf("expected 2 requests (skipping empty rows), got %d (errors: %v)", len(result.Requests), result.Errors)
	}
}

func TestImportCSVFromReader_DecimalValuesRounded(t *testing.T) {
	data := "Material,Width,Height,Qty\nfloat-4mm,600.5,300.2,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 1 {
		t.Fatalf("expected 1 request, got %d (errors: %v)", len(result.Requests), result.Errors)
	}
	if result.Requests[0].Width != 601 || result.Requests[0].Height != 300 {
		t.Errorf("expected 601x300, got %dx%d", result.Requests[0].Width, result.Requests[0].Height)
	}
	rounding := 0
	for _, w := range result.Warnings {
		if strings.Contains(w, "rounded") {
			rounding++
		}
	}
	if rounding != 2 {
		t.Errorf("expected 2 rounding warnings, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_OnlyHeaders(t *testing.T) {
	data := "Material,Width,Height,Qty\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Requests) != 0 {
		t.Errorf("expected 0 requests from header-only file, got %d", len(result.Requests))
	}
}

func TestImportCSV_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cuts.csv")
	content := "Material;Width;Height;Qty\nfloat-4mm;600;300;2\nfloat-4mm;400;800;1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path, ImportOptions{})

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Requests) != 2 {
		t.Errorf("expected 2 requests, got %d", len(result.Requests))
	}
	foundDelimWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			foundDelimWarning = true
		}
	}
	if !foundDelimWarning {
		t.Errorf("expected semicolon delimiter warning, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/path/file.csv", floatOpts)

	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path, floatOpts)

	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Stock Import Tests ────────────────────────────────────

func TestImportStockCSVFromReader(t *testing.T) {
	data := "Kind,Material,Width,Height,Qty,Location,Label\n" +
		"sheet,float-4mm,3210,2250,10,,Jumbo\n" +
		"remnant,float-4mm,800,600,1,Rack A3,\n" +
		",float-4mm,1605,2250,4,,\n"
	result := ImportStockCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Stock.Sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(result.Stock.Sheets))
	}
	if len(result.Stock.Remnants) != 1 {
		t.Fatalf("expected 1 remnant, got %d", len(result.Stock.Remnants))
	}
	if result.Stock.Sheets[0].Label != "Jumbo" || result.Stock.Sheets[0].Quantity != 10 {
		t.Errorf("unexpected sheet %+v", result.Stock.Sheets[0])
	}
	if result.Stock.Sheets[1].Label != "1605x2250" {
		t.Errorf("expected generated label, got '%s'", result.Stock.Sheets[1].Label)
	}
	if result.Stock.Remnants[0].Location != "Rack A3" {
		t.Errorf("expected location 'Rack A3', got '%s'", result.Stock.Remnants[0].Location)
	}
}

func TestImportStockCSVFromReader_Positional(t *testing.T) {
	data := "float-4mm,3210,2250,5\nfloat-4mm,900,400,1,offcut,B2\n"
	result := ImportStockCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Stock.Sheets) != 1 || len(result.Stock.Remnants) != 1 {
		t.Fatalf("expected 1 sheet and 1 remnant, got %+v (errors: %v)", result.Stock, result.Errors)
	}
	if result.Stock.Remnants[0].Location != "B2" {
		t.Errorf("expected location B2, got '%s'", result.Stock.Remnants[0].Location)
	}
}

func TestImportStockCSVFromReader_UnknownKind(t *testing.T) {
	data := "Kind,Material,Width,Height,Qty\nmystery,float-4mm,1000,1000,1\n"
	result := ImportStockCSVFromReader(strings.NewReader(data), ',', ImportOptions{})

	if len(result.Stock.Sheets) != 1 {
		t.Errorf("expected unknown kind to default to a sheet, got %+v", result.Stock)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Unknown stock kind") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown kind warning, got %v", result.Warnings)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  model.StockKind
		ok    bool
	}{
		{"", model.KindSheet, true},
		{"Sheet", model.KindSheet, true},
		{"JUMBO", model.KindSheet, true},
		{"remnant", model.KindRemnant, true},
		{" Offcut ", model.KindRemnant, true},
		{"r", model.KindRemnant, true},
		{"pallet", model.KindSheet, false},
	}

	for _, tt := range tests {
		got, ok := parseKind(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseKind(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cuts.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Material", "Width", "Height", "Quantity", "Client"},
		{"float-4mm", 600, 300, 2, "Acme"},
		{"float-4mm", 400, 800, 1, "Globex"},
	})

	result := ImportExcel(path, ImportOptions{})

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(result.Requests))
	}
	if result.Requests[0].Width != 600 {
		t.Errorf("expected width 600, got %d", result.Requests[0].Width)
	}
	if result.Requests[1].ClientRef != "Globex" {
		t.Errorf("expected client 'Globex', got '%s'", result.Requests[1].ClientRef)
	}
}

func TestImportExcel_WithoutHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"float-4mm", 600, 300, 2},
		{"float-4mm", 400, 800, 1},
	})

	result := ImportExcel(path, ImportOptions{})

	if len(result.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d (errors: %v)", len(result.Requests), result.Errors)
	}
}

func TestImportExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Width", "Height", "Qty"},
		{"abc", 300, 2},
		{600, 300, 1},
	})

	result := ImportExcel(path, floatOpts)

	if len(result.Requests) != 1 {
		t.Errorf("expected 1 valid request, got %d", len(result.Requests))
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Row 2") {
		t.Errorf("expected 1 error on Row 2, got %v", result.Errors)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel("/nonexistent/path/file.xlsx", floatOpts)

	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportStockExcel(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Material", "Width", "Height", "Qty", "Kind", "Rack"},
		{"float-4mm", 3210, 2250, 3, "sheet", ""},
		{"float-4mm", 700, 500, 1, "remnant", "C1"},
	})

	result := ImportStockExcel(path, ImportOptions{})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Stock.Sheets) != 1 || len(result.Stock.Remnants) != 1 {
		t.Fatalf("expected 1 sheet and 1 remnant, got %+v", result.Stock)
	}
	if result.Stock.Remnants[0].Location != "C1" {
		t.Errorf("expected location C1, got '%s'", result.Stock.Remnants[0].Location)
	}
}
