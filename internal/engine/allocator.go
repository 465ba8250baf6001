package engine

import (
	"cmp"
	"slices"

	"github.com/piwi3910/glasscut/internal/model"
)

// allocation is the outcome of planning one material type.
type allocation struct {
	pieces   []model.Piece
	excluded []model.ExcludedCut
}

func (a *allocation) exclude(reason model.ExclusionReason, cuts ...model.CutInstance) {
	for _, c := range cuts {
		a.excluded = append(a.excluded, model.ExcludedCut{Cut: c, Reason: reason})
	}
}

// allocate places pending cuts (tallest first) of one material on its stock:
// remnants first, then sheets. stock is a private copy and is decremented
// as units are consumed.
func (o *Optimizer) allocate(pending []model.CutInstance, stock model.StockSnapshot, ids *sequence) allocation {
	var out allocation
	pending = o.remnantPass(pending, stock.Remnants, ids, &out)
	o.sheetPass(pending, stock.Sheets, ids, &out)
	return out
}

// orderRemnants sorts remnants by area following the configured policy.
// Equal areas keep snapshot order.
func orderRemnants(remnants []model.StockRemnant, order model.RemnantOrder) {
	slices.SortStableFunc(remnants, func(a, b model.StockRemnant) int {
		if order == model.RemnantsLargestFirst {
			return cmp.Compare(b.Area(), a.Area())
		}
		return cmp.Compare(a.Area(), b.Area())
	})
}

// orderSheets sorts sheet types by area descending. Equal areas keep
// snapshot order.
func orderSheets(sheets []model.StockSheet) {
	slices.SortStableFunc(sheets, func(a, b model.StockSheet) int {
		return cmp.Compare(b.Area(), a.Area())
	})
}

func (o *Optimizer) remnantPass(pending []model.CutInstance, remnants []model.StockRemnant, ids *sequence, out *allocation) []model.CutInstance {
	orderRemnants(remnants, o.Settings.RemnantOrder)

	for i := range remnants {
		r := &remnants[i]
		for r.Quantity > 0 && len(pending) > 0 {
			placed, rest := packShelves(r.Width, r.Height, pending)
			if len(placed) == 0 {
				// Every unit of this remnant is identical; move on.
				break
			}
			r.Quantity--
			piece := model.Piece{
				Kind:       model.KindRemnant,
				SourceID:   r.ID,
				MaterialID: r.MaterialID,
				Location:   r.Location,
				Width:      r.Width,
				Height:     r.Height,
				Cuts:       placed,
			}
			piece.Waste = calculateWaste(piece, o.Settings, ids)
			out.pieces = append(out.pieces, piece)
			pending = rest
		}
		if len(pending) == 0 {
			break
		}
	}
	return pending
}

// firstFittingSheet returns the index of the first sheet type with units
// left that holds a w x h cut in either orientation, or -1.
func firstFittingSheet(sheets []model.StockSheet, w, h int) int {
	for i, s := range sheets {
		if s.Quantity > 0 && s.Fits(w, h) {
			return i
		}
	}
	return -1
}

func (o *Optimizer) sheetPass(pending []model.CutInstance, sheets []model.StockSheet, ids *sequence, out *allocation) {
	orderSheets(sheets)

	// Each iteration either consumes a sheet unit or excludes at least one
	// cut, so the loop terminates.
	for len(pending) > 0 {
		tallest := pending[0]
		idx := firstFittingSheet(sheets, tallest.Width, tallest.Height)
		if idx < 0 {
			out.exclude(model.ReasonStockExhausted, pending...)
			return
		}

		s := &sheets[idx]
		placed, rest := packShelves(s.Width, s.Height, pending)
		if len(placed) == 0 {
			out.exclude(model.ReasonPackingStall, tallest)
			pending = pending[1:]
			continue
		}

		s.Quantity--
		piece := model.Piece{
			Kind:       model.KindSheet,
			SourceID:   s.ID,
			MaterialID: s.MaterialID,
			Label:      s.Label,
			Width:      s.Width,
			Height:     s.Height,
			Cuts:       placed,
		}
		piece.Waste = calculateWaste(piece, o.Settings, ids)
		out.pieces = append(out.pieces, piece)
		pending = rest
	}
}
