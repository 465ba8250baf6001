// Package export renders cutting plans into shop-floor documents: PDF
// reports, QR labels, DXF layouts, XLSX cut lists and PNG previews.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/glasscut/internal/model"
)

// ErrEmptyPlan is returned when there is nothing to render.
var ErrEmptyPlan = errors.New("plan has no pieces")

// cutColor represents an RGB color for a placed cut.
type cutColor struct {
	R, G, B int
}

// cutColors is the palette cycled through per cut request.
var cutColors = []cutColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

var (
	glassColor    = cutColor{R: 214, G: 234, B: 240}
	scrapColor    = cutColor{R: 220, G: 220, B: 220}
	reusableColor = cutColor{R: 178, G: 223, B: 219}
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// requestColors assigns a palette entry to each request id in order of
// first appearance, so the same request has the same color on every page.
func requestColors(plan model.Plan) map[string]cutColor {
	colors := make(map[string]cutColor)
	for _, p := range plan.Pieces {
		for _, c := range p.Cuts {
			if _, ok := colors[c.Cut.RequestID]; !ok {
				colors[c.Cut.RequestID] = cutColors[len(colors)%len(cutColors)]
			}
		}
	}
	return colors
}

func buildPDF(plan model.Plan) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	colors := requestColors(plan)

	for _, piece := range plan.Pieces {
		pdf.AddPage()
		renderPiecePage(pdf, piece, colors)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, plan)
	return pdf
}

// WritePDF writes the plan report: one page per piece with its layout,
// followed by a summary page with totals and excluded cuts.
func WritePDF(w io.Writer, plan model.Plan) error {
	if len(plan.Pieces) == 0 {
		return ErrEmptyPlan
	}
	pdf := buildPDF(plan)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the plan report to a file.
func ExportPDF(path string, plan model.Plan) error {
	if len(plan.Pieces) == 0 {
		return ErrEmptyPlan
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(f, plan); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// pieceTitle is the page heading of a piece.
func pieceTitle(piece model.Piece) string {
	if piece.Kind == model.KindRemnant {
		title := fmt.Sprintf("Piece %d: remnant %s (%d x %d mm)", piece.Index, shortID(piece.SourceID), piece.Width, piece.Height)
		if piece.Location != "" {
			title += " @ " + piece.Location
		}
		return title
	}
	label := piece.Label
	if label == "" {
		label = shortID(piece.SourceID)
	}
	return fmt.Sprintf("Piece %d: sheet %s (%d x %d mm)", piece.Index, label, piece.Width, piece.Height)
}

// renderPiecePage draws a single piece on the current PDF page.
func renderPiecePage(pdf *fpdf.Fpdf, piece model.Piece, colors map[string]cutColor) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, pieceTitle(piece), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Material: %s | Cuts: %d | Used: %s mm² | Waste: %s mm² | Efficiency: %.1f%%",
		piece.MaterialID, len(piece.Cuts), humanize.Comma(int64(piece.UsedArea())),
		humanize.Comma(int64(piece.WasteArea())), piece.Efficiency())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight

	scale := math.Min(drawWidth/float64(piece.Width), drawHeight/float64(piece.Height))
	canvasW := float64(piece.Width) * scale
	canvasH := float64(piece.Height) * scale

	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	pdf.SetFillColor(glassColor.R, glassColor.G, glassColor.B)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for _, w := range piece.Waste {
		drawWaste(pdf, w, scale, offsetX, offsetY)
	}

	for _, c := range piece.Cuts {
		col := colors[c.Cut.RequestID]
		pw := float64(c.Width()) * scale
		ph := float64(c.Height()) * scale
		px := offsetX + float64(c.X)*scale
		py := offsetY + float64(c.Y)*scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		// Label only if the rectangle is large enough
		if pw > 15 && ph > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)

			label := c.Cut.Label()
			dims := fmt.Sprintf("%dx%d", c.Width(), c.Height())
			labelW := pdf.GetStringWidth(label)
			dimsW := pdf.GetStringWidth(dims)

			if labelW < pw-2 {
				pdf.SetXY(px+(pw-labelW)/2, py+ph/2-4)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
			if ph > 14 && dimsW < pw-2 {
				pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
				pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, piece, offsetX, offsetY, canvasW, canvasH)
	drawCutsLegend(pdf, piece, colors, offsetY+canvasH+5)
}

// drawWaste renders a waste region. Scrap is hatched; saved remnants get a
// tinted fill and a KEEP marker.
func drawWaste(pdf *fpdf.Fpdf, w model.WasteRegion, scale, offsetX, offsetY float64) {
	zx := offsetX + float64(w.X)*scale
	zy := offsetY + float64(w.Y)*scale
	zw := float64(w.Width) * scale
	zh := float64(w.Height) * scale

	col := scrapColor
	if w.Saved {
		col = reusableColor
	}
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetLineWidth(0.2)
	pdf.Rect(zx, zy, zw, zh, "FD")

	if !w.Saved {
		drawHatchPattern(pdf, zx, zy, zw, zh)
		return
	}
	if zw > 20 && zh > 8 {
		pdf.SetFont("Helvetica", "B", 6)
		pdf.SetTextColor(0, 105, 92)
		width, height := w.RemnantSize()
		text := fmt.Sprintf("KEEP %dx%d", width, height)
		textW := pdf.GetStringWidth(text)
		pdf.SetXY(zx+(zw-textW)/2, zy+zh/2-2)
		pdf.CellFormat(textW, 4, text, "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark scrap.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(170, 170, 170)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations adds width and height labels outside the piece rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, piece model.Piece, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%d mm", piece.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%d mm", piece.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawCutsLegend renders a compact legend of placed cuts below the layout.
func drawCutsLegend(pdf *fpdf.Fpdf, piece model.Piece, colors map[string]cutColor, startY float64) {
	if len(piece.Cuts) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Cuts placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for _, c := range piece.Cuts {
		col := colors[c.Cut.RequestID]
		label := fmt.Sprintf("%s (%dx%d)", c.Cut.Label(), c.Width(), c.Height())
		if c.Cut.OrderRef != "" {
			label += " " + c.Cut.OrderRef
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the final page with plan totals, the per-piece
// breakdown and the excluded cuts.
func renderSummaryPage(pdf *fpdf.Fpdf, plan model.Plan) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	for _, item := range summaryItems(plan) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Piece Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{15, 25, 55, 45, 20, 30, 40, 37}
	headers := []string{"Piece", "Kind", "Source", "Dimensions", "Cuts", "Efficiency", "Used Area", "Remnants Kept"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, piece := range plan.Pieces {
		if y > pageHeight-marginBottom-10 {
			pdf.AddPage()
			y = marginTop
		}
		source := piece.Label
		if source == "" {
			source = shortID(piece.SourceID)
		}
		rowData := []string{
			fmt.Sprintf("%d", piece.Index),
			piece.Kind.String(),
			source,
			fmt.Sprintf("%d x %d mm", piece.Width, piece.Height),
			fmt.Sprintf("%d", len(piece.Cuts)),
			fmt.Sprintf("%.1f%%", piece.Efficiency()),
			humanize.Comma(int64(piece.UsedArea())) + " mm²",
			fmt.Sprintf("%d", len(piece.SavedRemnants())),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(plan.Excluded) > 0 || len(plan.Malformed) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Cuts not in this plan", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)

		lines := make([]string, 0, len(plan.Excluded)+len(plan.Malformed))
		for _, e := range plan.Excluded {
			lines = append(lines, fmt.Sprintf("- %s %s: %d x %d mm (%s)",
				e.Cut.MaterialID, e.Cut.Label(), e.Cut.Width, e.Cut.Height, reasonText(e.Reason)))
		}
		for _, id := range plan.Malformed {
			lines = append(lines, fmt.Sprintf("- request %s: invalid size or quantity", shortID(id)))
		}
		for _, text := range lines {
			if y > pageHeight-marginBottom-5 {
				pdf.AddPage()
				y = marginTop
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(250, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	footer := "Generated by GlassCut"
	if plan.RunID != "" {
		footer += " - run " + plan.RunID
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, footer, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

type summaryItem struct {
	label string
	value string
}

// summaryItems are the headline figures shared by the PDF and XLSX reports.
func summaryItems(plan model.Plan) []summaryItem {
	return []summaryItem{
		{"Sheets Used", fmt.Sprintf("%d", plan.SheetsUsed())},
		{"Remnants Used", fmt.Sprintf("%d", plan.RemnantsUsed())},
		{"Cuts Placed", humanize.Comma(int64(plan.PlacedCount()))},
		{"Cuts Excluded", fmt.Sprintf("%d", len(plan.Excluded))},
		{"Overall Efficiency", fmt.Sprintf("%.1f%%", plan.TotalEfficiency())},
		{"Remnant Area Kept", humanize.Comma(int64(plan.ReusableArea())) + " mm²"},
	}
}

// reasonText is the reviewer-facing wording of an exclusion reason.
func reasonText(r model.ExclusionReason) string {
	switch r {
	case model.ReasonInfeasible:
		return "larger than any stock"
	case model.ReasonPackingStall:
		return "could not be packed, re-run with other stock"
	case model.ReasonStockExhausted:
		return "stock exhausted"
	default:
		return string(r)
	}
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

// shortID trims uuids for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
