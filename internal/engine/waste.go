package engine

import (
	"cmp"
	"slices"

	"github.com/piwi3910/glasscut/internal/model"
)

// Shelf is a row of placed cuts sharing (approximately) the same top y.
type Shelf struct {
	Y      int
	Height int // tallest member
	Cuts   []model.PlacedCut
}

// Bottom returns the y coordinate of the shelf's lower edge.
func (s Shelf) Bottom() int {
	return s.Y + s.Height
}

// RightEdge returns the x coordinate of the rightmost cut edge.
func (s Shelf) RightEdge() int {
	edge := 0
	for _, c := range s.Cuts {
		edge = max(edge, c.Right())
	}
	return edge
}

// Shelves groups placed cuts into shelves: cuts whose y is within tolerance
// of a shelf's top belong to it. Shelves are ordered top to bottom and cuts
// within a shelf left to right.
func Shelves(cuts []model.PlacedCut, tolerance int) []Shelf {
	sorted := slices.Clone(cuts)
	slices.SortStableFunc(sorted, func(a, b model.PlacedCut) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})

	var shelves []Shelf
	for _, c := range sorted {
		n := len(shelves)
		if n > 0 && abs(c.Y-shelves[n-1].Y) <= tolerance {
			shelves[n-1].Cuts = append(shelves[n-1].Cuts, c)
			shelves[n-1].Height = max(shelves[n-1].Height, c.Height())
			continue
		}
		shelves = append(shelves, Shelf{Y: c.Y, Height: c.Height(), Cuts: []model.PlacedCut{c}})
	}
	for i := range shelves {
		slices.SortStableFunc(shelves[i].Cuts, func(a, b model.PlacedCut) int {
			return cmp.Compare(a.X, b.X)
		})
	}
	return shelves
}

// sequence hands out waste region ids, unique within one run.
type sequence struct {
	n int
}

func (s *sequence) next() int {
	s.n++
	return s.n
}

// CalculateWaste derives the leftover regions of a packed piece. Strips no
// larger than settings.MinWaste in a dimension are not registered. Only the
// bottom strip can default to a reusable remnant.
func CalculateWaste(piece model.Piece, settings model.PlanSettings) []model.WasteRegion {
	var ids sequence
	return calculateWaste(piece, settings, &ids)
}

func calculateWaste(piece model.Piece, settings model.PlanSettings, ids *sequence) []model.WasteRegion {
	shelves := Shelves(piece.Cuts, settings.ShelfTolerance)
	if len(shelves) == 0 {
		return nil
	}

	var regions []model.WasteRegion
	add := func(pos model.WastePosition, x, y, w, h int, saved bool) {
		r := model.WasteRegion{ID: ids.next(), Position: pos, X: x, Y: y, Width: w, Height: h}
		r.SetSaved(saved)
		regions = append(regions, r)
	}

	for _, s := range shelves {
		for _, c := range s.Cuts {
			if gap := s.Height - c.Height(); gap > settings.MinWaste {
				add(model.PositionTop, c.X, c.Bottom(), c.Width(), gap, false)
			}
		}
		edge := s.RightEdge()
		if gap := piece.Width - edge; gap > settings.MinWaste {
			add(model.PositionRight, edge, s.Y, gap, s.Height, false)
		}
	}

	bottom := shelves[len(shelves)-1].Bottom()
	if gap := piece.Height - bottom; gap > settings.MinWaste {
		add(model.PositionBottom, 0, bottom, piece.Width, gap, gap > settings.ReusableMinHeight)
	}
	return regions
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
