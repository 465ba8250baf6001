package gcode

import (
	"github.com/piwi3910/glasscut/internal/engine"
	"github.com/piwi3910/glasscut/internal/model"
)

// LineKind tells what a score line separates.
type LineKind string

const (
	LineShelf LineKind = "shelf" // full width, separates a shelf from the rest of the piece
	LineCut   LineKind = "cut"   // within a shelf, separates neighbouring cuts
	LineTrim  LineKind = "trim"  // removes the top waste above a short cut
)

// ScoreLine is a straight score in piece coordinates (origin top-left, y down).
type ScoreLine struct {
	Kind   LineKind
	X0, Y0 int
	X1, Y1 int
}

// Length returns the line length in mm.
func (l ScoreLine) Length() int {
	return abs(l.X1-l.X0) + abs(l.Y1-l.Y0)
}

// ScoreLines derives the guillotine sequence for a packed piece: shelf
// separations first, then the vertical cuts inside each shelf, then the trims
// of cuts shorter than their shelf. Lines on the piece edge are omitted.
func ScoreLines(piece model.Piece, tolerance int) []ScoreLine {
	shelves := engine.Shelves(piece.Cuts, tolerance)

	var lines []ScoreLine
	for _, s := range shelves {
		if s.Bottom() < piece.Height {
			lines = append(lines, ScoreLine{Kind: LineShelf, X0: 0, Y0: s.Bottom(), X1: piece.Width, Y1: s.Bottom()})
		}
	}
	for _, s := range shelves {
		for _, c := range s.Cuts {
			if c.Right() < piece.Width {
				lines = append(lines, ScoreLine{Kind: LineCut, X0: c.Right(), Y0: s.Y, X1: c.Right(), Y1: s.Bottom()})
			}
		}
	}
	for _, s := range shelves {
		for _, c := range s.Cuts {
			if c.Bottom() < s.Bottom() {
				lines = append(lines, ScoreLine{Kind: LineTrim, X0: c.X, Y0: c.Bottom(), X1: c.Right(), Y1: c.Bottom()})
			}
		}
	}
	return lines
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
