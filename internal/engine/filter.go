package engine

import (
	"cmp"
	"slices"

	"github.com/piwi3910/glasscut/internal/model"
)

// stockBounds is the largest width and the largest height found across the
// sheets and remnants of one material. The two maxima are independent, so a
// cut passing the bound is not guaranteed a placement.
type stockBounds struct {
	maxWidth  int
	maxHeight int
}

func boundsOf(stock model.StockSnapshot) stockBounds {
	var b stockBounds
	for _, s := range stock.Sheets {
		b.maxWidth = max(b.maxWidth, s.Width)
		b.maxHeight = max(b.maxHeight, s.Height)
	}
	for _, r := range stock.Remnants {
		b.maxWidth = max(b.maxWidth, r.Width)
		b.maxHeight = max(b.maxHeight, r.Height)
	}
	return b
}

// admits reports whether the cut is inside the bound in either orientation.
func (b stockBounds) admits(c model.CutInstance) bool {
	standard := c.Width <= b.maxWidth && c.Height <= b.maxHeight
	rotated := c.Height <= b.maxWidth && c.Width <= b.maxHeight
	return standard || rotated
}

// FilterFeasible splits cuts of one material into those that may fit the
// given stock and those that exceed it in both orientations. The stock must
// already be restricted to that material.
func FilterFeasible(cuts []model.CutInstance, stock model.StockSnapshot) (feasible, infeasible []model.CutInstance) {
	b := boundsOf(stock)
	for _, c := range cuts {
		if b.admits(c) {
			feasible = append(feasible, c)
		} else {
			infeasible = append(infeasible, c)
		}
	}
	return feasible, infeasible
}

// sortTallestFirst orders cuts by height descending, keeping expansion order
// for equal heights.
func sortTallestFirst(cuts []model.CutInstance) {
	slices.SortStableFunc(cuts, func(a, b model.CutInstance) int {
		if c := cmp.Compare(b.Height, a.Height); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
}
