// Package importer provides CSV and Excel import of cut requests and glass
// stock. It supports automatic delimiter detection, flexible column mapping,
// and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/glasscut/internal/model"
)

// ImportOptions control how rows are turned into records.
type ImportOptions struct {
	// DefaultMaterial is used for rows without a material column or value.
	DefaultMaterial string
}

// ImportResult holds the results of a cut request import.
type ImportResult struct {
	Requests []model.CutRequest
	Errors   []string
	Warnings []string
}

// StockResult holds the results of a stock import.
type StockResult struct {
	Stock    model.StockSnapshot
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
// -1 means the column is absent.
type ColumnMapping struct {
	Material int
	Width    int
	Height   int
	Quantity int
	Order    int
	Client   int
	Kind     int
	Label    int
	Location int
}

func emptyMapping() ColumnMapping {
	return ColumnMapping{-1, -1, -1, -1, -1, -1, -1, -1, -1}
}

// Positional layouts used when the first row carries no known header.
var (
	requestPositional = ColumnMapping{Material: 0, Width: 1, Height: 2, Quantity: 3, Order: 4, Client: 5, Kind: -1, Label: -1, Location: -1}
	stockPositional   = ColumnMapping{Material: 0, Width: 1, Height: 2, Quantity: 3, Kind: 4, Location: 5, Order: -1, Client: -1, Label: -1}
)

// headerAliases maps canonical column names to their accepted aliases (all
// lowercase). An alias belongs to exactly one role.
var headerAliases = map[string][]string{
	"material": {"material", "material id", "material_id", "glass", "glass type", "product"},
	"width":    {"width", "w", "width mm", "width_mm", "width (mm)", "x"},
	"height":   {"height", "h", "height mm", "height_mm", "height (mm)", "length", "len", "y"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
	"order":    {"order", "order ref", "order_ref", "order no", "order number", "po"},
	"client":   {"client", "customer", "client ref", "client_ref"},
	"kind":     {"kind", "stock", "stock type", "source"},
	"label":    {"label", "name", "description", "desc"},
	"location": {"location", "rack", "bin", "slot", "storage"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or the positional
// cut request layout (material, width, height, quantity, order, client) and
// false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := emptyMapping()
	slots := map[string]*int{
		"material": &mapping.Material,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"quantity": &mapping.Quantity,
		"order":    &mapping.Order,
		"client":   &mapping.Client,
		"kind":     &mapping.Kind,
		"label":    &mapping.Label,
		"location": &mapping.Location,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return requestPositional, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseMM parses a millimetre value. Fractional values are rounded to the
// nearest millimetre and reported through rounded.
func parseMM(s string) (mm int, rounded bool, err error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "mm"))
	if v, err := strconv.Atoi(s); err == nil {
		return v, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	r := math.Round(f)
	return int(r), r != f, nil
}

// dims holds the values every row type shares.
type dims struct {
	material string
	width    int
	height   int
	qty      int
}

// parseDims extracts material, width, height and quantity from a row.
// Returns the values, any error message, and any warnings.
func parseDims(row []string, mapping ColumnMapping, rowLabel string, opts ImportOptions) (dims, string, []string) {
	var d dims
	var warnings []string

	d.material = getCell(row, mapping.Material)
	if d.material == "" {
		d.material = opts.DefaultMaterial
	}
	if d.material == "" {
		return d, fmt.Sprintf("%s: Missing material value", rowLabel), nil
	}

	for _, f := range []struct {
		name string
		idx  int
		dst  *int
	}{
		{"width", mapping.Width, &d.width},
		{"height", mapping.Height, &d.height},
	} {
		raw := getCell(row, f.idx)
		if raw == "" {
			return d, fmt.Sprintf("%s: Missing %s value", rowLabel, f.name), nil
		}
		v, rounded, err := parseMM(raw)
		if err != nil {
			return d, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, f.name, raw), nil
		}
		if rounded {
			warnings = append(warnings, fmt.Sprintf("%s: %s '%s' rounded to %d mm", rowLabel, f.name, raw, v))
		}
		*f.dst = v
	}

	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		return d, fmt.Sprintf("%s: Missing quantity value", rowLabel), nil
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return d, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), nil
	}
	d.qty = qty

	if d.width <= 0 || d.height <= 0 || d.qty <= 0 {
		return d, fmt.Sprintf("%s: Width, height, and quantity must be positive", rowLabel), nil
	}
	return d, "", warnings
}

// parseRequestRow extracts a CutRequest from a row using the given column mapping.
func parseRequestRow(row []string, mapping ColumnMapping, rowLabel string, opts ImportOptions) (model.CutRequest, string, []string) {
	d, errMsg, warnings := parseDims(row, mapping, rowLabel, opts)
	if errMsg != "" {
		return model.CutRequest{}, errMsg, nil
	}
	req := model.NewCutRequest(d.material, d.width, d.height, d.qty)
	req.OrderRef = getCell(row, mapping.Order)
	req.ClientRef = getCell(row, mapping.Client)
	return req, "", warnings
}

// parseKind converts a stock kind string. It returns the kind and whether the
// string was recognized; empty means a full sheet.
func parseKind(s string) (model.StockKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sheet", "full", "jumbo", "s":
		return model.KindSheet, true
	case "remnant", "offcut", "leftover", "r":
		return model.KindRemnant, true
	default:
		return model.KindSheet, false
	}
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// readCSVFile loads and splits a CSV file, detecting its delimiter. A
// non-empty error message means nothing could be read.
func readCSVFile(path string) ([][]string, []string, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Sprintf("Cannot open file: %v", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, "File is empty"
	}

	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, errMsg := readCSV(bytes.NewReader(data), delimiter)
	return records, warnings, errMsg
}

func readCSV(r io.Reader, delimiter rune) ([][]string, string) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Sprintf("Cannot read CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, "File is empty"
	}
	return records, ""
}

// readExcelFile returns the rows of the first sheet of a workbook.
func readExcelFile(path string) ([][]string, string) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Sprintf("Cannot open Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "Excel file has no sheets"
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Sprintf("Cannot read Excel data: %v", err)
	}
	if len(rows) == 0 {
		return nil, "Sheet is empty"
	}
	return rows, ""
}

// ImportCSV imports cut requests from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string, opts ImportOptions) ImportResult {
	records, warnings, errMsg := readCSVFile(path)
	if errMsg != "" {
		return ImportResult{Errors: []string{errMsg}}
	}
	return importRequests(records, "Line", warnings, opts)
}

// ImportCSVFromReader imports cut requests from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune, opts ImportOptions) ImportResult {
	records, errMsg := readCSV(reader, delimiter)
	if errMsg != "" {
		return ImportResult{Errors: []string{errMsg}}
	}
	return importRequests(records, "Line", nil, opts)
}

// ImportExcel imports cut requests from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string, opts ImportOptions) ImportResult {
	rows, errMsg := readExcelFile(path)
	if errMsg != "" {
		return ImportResult{Errors: []string{errMsg}}
	}
	return importRequests(rows, "Row", nil, opts)
}

// ImportStockCSV imports sheets and remnants from a CSV file.
func ImportStockCSV(path string, opts ImportOptions) StockResult {
	records, warnings, errMsg := readCSVFile(path)
	if errMsg != "" {
		return StockResult{Errors: []string{errMsg}}
	}
	return importStock(records, "Line", warnings, opts)
}

// ImportStockCSVFromReader imports sheets and remnants from a CSV reader.
func ImportStockCSVFromReader(reader io.Reader, delimiter rune, opts ImportOptions) StockResult {
	records, errMsg := readCSV(reader, delimiter)
	if errMsg != "" {
		return StockResult{Errors: []string{errMsg}}
	}
	return importStock(records, "Line", nil, opts)
}

// ImportStockExcel imports sheets and remnants from the first sheet of a workbook.
func ImportStockExcel(path string, opts ImportOptions) StockResult {
	rows, errMsg := readExcelFile(path)
	if errMsg != "" {
		return StockResult{Errors: []string{errMsg}}
	}
	return importStock(rows, "Row", nil, opts)
}

// resolveLayout detects the header of rows and validates that the required
// columns are present. It returns the mapping, the first data row and any
// messages produced along the way.
func resolveLayout(rows [][]string, positional ColumnMapping, opts ImportOptions) (ColumnMapping, int, []string, string) {
	if len(rows) == 0 {
		return ColumnMapping{}, 0, nil, "No data rows found"
	}

	var warnings []string
	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		warnings = append(warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Material == -1 && opts.DefaultMaterial == "" {
			missing = append(missing, "Material")
		}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			return mapping, startRow, warnings, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", "))
		}
		return mapping, startRow, warnings, ""
	}

	mapping = positional
	// The width column of a data row is numeric; anything else is an
	// unrecognized header.
	if len(rows[0]) >= 3 {
		if _, _, err := parseMM(rows[0][mapping.Width]); err != nil {
			startRow = 1
			warnings = append(warnings, "Detected header row, skipping")
		}
	}
	return mapping, startRow, warnings, ""
}

// importRequests is the shared request import logic for CSV and Excel data.
func importRequests(rows [][]string, rowPrefix string, initialWarnings []string, opts ImportOptions) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	mapping, startRow, warnings, errMsg := resolveLayout(rows, requestPositional, opts)
	result.Warnings = append(result.Warnings, warnings...)
	if errMsg != "" {
		result.Errors = append(result.Errors, errMsg)
		return result
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		req, errMsg, warnings := parseRequestRow(row, mapping, rowLabel, opts)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Requests = append(result.Requests, req)
	}

	return result
}

// importStock is the shared stock import logic for CSV and Excel data.
func importStock(rows [][]string, rowPrefix string, initialWarnings []string, opts ImportOptions) StockResult {
	result := StockResult{Warnings: initialWarnings}

	mapping, startRow, warnings, errMsg := resolveLayout(rows, stockPositional, opts)
	result.Warnings = append(result.Warnings, warnings...)
	if errMsg != "" {
		result.Errors = append(result.Errors, errMsg)
		return result
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		d, errMsg, warnings := parseDims(row, mapping, rowLabel, opts)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)

		kindStr := getCell(row, mapping.Kind)
		kind, ok := parseKind(kindStr)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Unknown stock kind '%s', defaulting to sheet", rowLabel, kindStr))
		}

		switch kind {
		case model.KindRemnant:
			result.Stock.Remnants = append(result.Stock.Remnants,
				model.NewStockRemnant(d.material, d.width, d.height, d.qty, getCell(row, mapping.Location)))
		default:
			label := getCell(row, mapping.Label)
			if label == "" {
				label = fmt.Sprintf("%dx%d", d.width, d.height)
			}
			result.Stock.Sheets = append(result.Stock.Sheets,
				model.NewStockSheet(d.material, label, d.width, d.height, d.qty))
		}
	}

	return result
}
