package export

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"

	"github.com/piwi3910/glasscut/internal/model"
)

// previewMMPerPixel is the resolution the layout is drawn at before it is
// fitted to the requested size.
const previewMMPerPixel = 4

func nrgba(c cutColor) color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}

// pasteRect draws a filled rectangle with a one pixel outline.
func pasteRect(dst *image.NRGBA, x, y, w, h int, fill, border color.NRGBA) *image.NRGBA {
	px, py := x/previewMMPerPixel, y/previewMMPerPixel
	pw, ph := max(1, w/previewMMPerPixel), max(1, h/previewMMPerPixel)
	dst = imaging.Paste(dst, imaging.New(pw, ph, border), image.Pt(px, py))
	if pw > 2 && ph > 2 {
		dst = imaging.Paste(dst, imaging.New(pw-2, ph-2, fill), image.Pt(px+1, py+1))
	}
	return dst
}

// PiecePreview renders the piece layout so that it fits a maxPx square.
// Cuts are colored per request, scrap is grey and saved remnants are teal.
func PiecePreview(piece model.Piece, maxPx int) *image.NRGBA {
	w := max(1, piece.Width/previewMMPerPixel)
	h := max(1, piece.Height/previewMMPerPixel)
	dst := imaging.New(w, h, nrgba(glassColor))

	border := color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	for _, wr := range piece.Waste {
		fill := nrgba(scrapColor)
		if wr.Saved {
			fill = nrgba(reusableColor)
		}
		dst = pasteRect(dst, wr.X, wr.Y, wr.Width, wr.Height, fill, color.NRGBA{R: 150, G: 150, B: 150, A: 255})
	}

	colors := requestColors(model.Plan{Pieces: []model.Piece{piece}})
	for _, c := range piece.Cuts {
		dst = pasteRect(dst, c.X, c.Y, c.Width(), c.Height(), nrgba(colors[c.Cut.RequestID]), border)
	}

	if maxPx > 0 {
		dst = imaging.Fit(dst, maxPx, maxPx, imaging.Lanczos)
	}
	return dst
}

// RenderPiecePNG writes a PNG preview of the piece.
func RenderPiecePNG(w io.Writer, piece model.Piece, maxPx int) error {
	if piece.Width <= 0 || piece.Height <= 0 {
		return fmt.Errorf("piece %d has no size", piece.Index)
	}
	if err := imaging.Encode(w, PiecePreview(piece, maxPx), imaging.PNG); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}
