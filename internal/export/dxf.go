package export

import (
	"fmt"
	"path/filepath"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/glasscut/internal/model"
)

// DXF layer names. Cutting tables import the CUTS layer as score lines and
// the others as reference geometry.
const (
	LayerOutline  = "OUTLINE"
	LayerCuts     = "CUTS"
	LayerScrap    = "SCRAP"
	LayerRemnants = "REMNANTS"
	LayerLabels   = "LABELS"
)

// dxfRect adds a closed rectangle. DXF y grows upwards, so the piece's top
// edge sits at y = height.
func dxfRect(d *drawing.Drawing, pieceHeight, x, y, w, h int) error {
	x0, x1 := float64(x), float64(x+w)
	y0, y1 := float64(pieceHeight-y), float64(pieceHeight-y-h)
	for _, seg := range [][4]float64{
		{x0, y0, x1, y0},
		{x1, y0, x1, y1},
		{x1, y1, x0, y1},
		{x0, y1, x0, y0},
	} {
		if _, err := d.Line(seg[0], seg[1], 0, seg[2], seg[3], 0); err != nil {
			return err
		}
	}
	return nil
}

// buildDXF draws one piece: its outline, every placed cut and the waste
// regions split by disposition.
func buildDXF(piece model.Piece) (*drawing.Drawing, error) {
	d := dxf.NewDrawing()

	layers := []struct {
		name string
		col  color.ColorNumber
	}{
		{LayerOutline, dxf.DefaultColor},
		{LayerCuts, color.Green},
		{LayerScrap, color.Red},
		{LayerRemnants, color.Cyan},
		{LayerLabels, color.Yellow},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.col, dxf.DefaultLineType, false); err != nil {
			return nil, fmt.Errorf("add layer %s: %w", l.name, err)
		}
	}

	steps := []struct {
		layer string
		draw  func() error
	}{
		{LayerOutline, func() error {
			return dxfRect(d, piece.Height, 0, 0, piece.Width, piece.Height)
		}},
		{LayerCuts, func() error {
			for _, c := range piece.Cuts {
				if err := dxfRect(d, piece.Height, c.X, c.Y, c.Width(), c.Height()); err != nil {
					return err
				}
			}
			return nil
		}},
		{LayerScrap, func() error {
			for _, w := range piece.Waste {
				if w.Saved {
					continue
				}
				if err := dxfRect(d, piece.Height, w.X, w.Y, w.Width, w.Height); err != nil {
					return err
				}
			}
			return nil
		}},
		{LayerRemnants, func() error {
			for _, w := range piece.SavedRemnants() {
				width, height := w.RemnantSize()
				if err := dxfRect(d, piece.Height, w.X, w.Y, width, height); err != nil {
					return err
				}
			}
			return nil
		}},
		{LayerLabels, func() error {
			for _, c := range piece.Cuts {
				textH := float64(min(c.Width(), c.Height())) / 10
				x := float64(c.X) + textH
				y := float64(piece.Height-c.Bottom()) + textH
				if _, err := d.Text(c.Cut.Label(), x, y, 0, textH); err != nil {
					return err
				}
			}
			return nil
		}},
	}
	for _, s := range steps {
		if err := d.ChangeLayer(s.layer); err != nil {
			return nil, fmt.Errorf("change layer %s: %w", s.layer, err)
		}
		if err := s.draw(); err != nil {
			return nil, fmt.Errorf("draw %s: %w", s.layer, err)
		}
	}
	return d, nil
}

// ExportDXF writes a single piece layout to a DXF file.
func ExportDXF(path string, piece model.Piece) error {
	d, err := buildDXF(piece)
	if err != nil {
		return err
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("save dxf %s: %w", path, err)
	}
	return nil
}

// ExportPlanDXF writes one DXF file per piece into dir and returns the paths
// in piece order.
func ExportPlanDXF(dir string, plan model.Plan) ([]string, error) {
	if len(plan.Pieces) == 0 {
		return nil, ErrEmptyPlan
	}
	paths := make([]string, 0, len(plan.Pieces))
	for _, piece := range plan.Pieces {
		path := filepath.Join(dir, fmt.Sprintf("piece-%02d.dxf", piece.Index))
		if err := ExportDXF(path, piece); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
