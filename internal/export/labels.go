package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/glasscut/internal/model"
)

// LabelInfo holds the data encoded into each cut label's QR code.
type LabelInfo struct {
	RequestID  string `json:"request_id"`
	Index      int    `json:"index"`
	MaterialID string `json:"material_id"`
	Width      int    `json:"width_mm"`
	Height     int    `json:"height_mm"`
	OrderRef   string `json:"order_ref,omitempty"`
	ClientRef  string `json:"client_ref,omitempty"`
	PieceIndex int    `json:"piece"`
	SourceID   string `json:"source_id"`
	X          int    `json:"x_mm"`
	Y          int    `json:"y_mm"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos lists one label per placed cut, in plan order.
func CollectLabelInfos(plan model.Plan) []LabelInfo {
	var labels []LabelInfo
	for _, piece := range plan.Pieces {
		for _, c := range piece.Cuts {
			labels = append(labels, LabelInfo{
				RequestID:  c.Cut.RequestID,
				Index:      c.Cut.Index,
				MaterialID: c.Cut.MaterialID,
				Width:      c.Width(),
				Height:     c.Height(),
				OrderRef:   c.Cut.OrderRef,
				ClientRef:  c.Cut.ClientRef,
				PieceIndex: piece.Index,
				SourceID:   piece.SourceID,
				X:          c.X,
				Y:          c.Y,
			})
		}
	}
	return labels
}

// WriteLabels writes a PDF of QR-coded labels for all placed cuts. Each
// label carries the cut reference, its size and a QR code encoding the
// label metadata as JSON, laid out on Avery 5160 sheets (3 x 10 on US Letter).
func WriteLabels(w io.Writer, plan model.Plan) error {
	labels := CollectLabelInfos(plan)
	if len(labels) == 0 {
		return ErrEmptyPlan
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("render label for %s#%d: %w", label.RequestID, label.Index, err)
		}
	}

	return pdf.Output(w)
}

// ExportLabels writes the label PDF to a file.
func ExportLabels(path string, plan model.Plan) error {
	if len(plan.Pieces) == 0 {
		return ErrEmptyPlan
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLabels(f, plan); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, seq int, info LabelInfo) error {
	// Light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", seq)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	title := fmt.Sprintf("%s#%d", shortID(info.RequestID), info.Index)
	if info.OrderRef != "" {
		title = info.OrderRef + " " + title
	}
	if pdf.GetStringWidth(title) > textW {
		for len(title) > 0 && pdf.GetStringWidth(title+"...") > textW {
			title = title[:len(title)-1]
		}
		title += "..."
	}
	pdf.CellFormat(textW, 4.5, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%d x %d mm  %s", info.Width, info.Height, info.MaterialID)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pieceInfo := fmt.Sprintf("Piece %d @ (%d, %d)", info.PieceIndex, info.X, info.Y)
	pdf.CellFormat(textW, 3, pieceInfo, "", 1, "L", false, 0, "")

	if info.ClientRef != "" {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.CellFormat(textW, 3, info.ClientRef, "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}
