package engine

import "github.com/piwi3910/glasscut/internal/model"

// shelfPacker places rectangles row by row on a width x height target.
// It never backtracks: once a shelf is closed its free space is gone.
type shelfPacker struct {
	width, height int
	x, y          int
	shelfHeight   int
}

func newShelfPacker(width, height int) *shelfPacker {
	return &shelfPacker{width: width, height: height}
}

// insert tries to place a w x h rectangle and returns its top-left corner.
func (sp *shelfPacker) insert(w, h int) (bool, int, int) {
	if sp.x+w <= sp.width && sp.y+h <= sp.height {
		px, py := sp.x, sp.y
		sp.x += w
		sp.shelfHeight = max(sp.shelfHeight, h)
		return true, px, py
	}
	// A cut wider than the target can never use a new shelf, so it must not
	// open one either.
	if w > sp.width || sp.y+sp.shelfHeight+h > sp.height {
		return false, 0, 0
	}
	sp.y += sp.shelfHeight
	sp.x = 0
	sp.shelfHeight = h
	px, py := sp.x, sp.y
	sp.x += w
	return true, px, py
}

// packShelves places cuts, in the given order, on a width x height target.
// It returns the placed cuts and the cuts still pending, in original order.
func packShelves(width, height int, pending []model.CutInstance) ([]model.PlacedCut, []model.CutInstance) {
	sp := newShelfPacker(width, height)
	var placed []model.PlacedCut
	var rest []model.CutInstance
	for _, c := range pending {
		if ok, x, y := sp.insert(c.Width, c.Height); ok {
			placed = append(placed, model.PlacedCut{Cut: c, X: x, Y: y})
		} else {
			rest = append(rest, c)
		}
	}
	return placed, rest
}
