package model

import "fmt"

// WasteClass is the disposition of a waste region.
type WasteClass int

const (
	ClassScrap WasteClass = iota
	ClassReusable
)

func (c WasteClass) String() string {
	if c == ClassReusable {
		return "reusable_remnant"
	}
	return "scrap"
}

func (c WasteClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *WasteClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "scrap":
		*c = ClassScrap
	case "reusable_remnant":
		*c = ClassReusable
	default:
		return fmt.Errorf("unknown waste class %q", string(b))
	}
	return nil
}

// WastePosition records where on the shelf layout a region came from.
type WastePosition string

const (
	// PositionTop is the strip between a short cut and its shelf's height line.
	PositionTop    WastePosition = "top"
	PositionRight  WastePosition = "right"
	PositionBottom WastePosition = "bottom"
)

// WasteRegion is an unused rectangle on a Piece.
type WasteRegion struct {
	ID       int           `json:"id"` // unique within one plan
	Position WastePosition `json:"position"`
	X        int           `json:"x"`
	Y        int           `json:"y"`
	Width    int           `json:"width_mm"`
	Height   int           `json:"height_mm"`
	Class    WasteClass    `json:"class"`
	Saved    bool          `json:"saved"`

	// Reviewer-accepted remnant size; zero means the full region.
	AcceptedWidth  int    `json:"accepted_width_mm,omitempty"`
	AcceptedHeight int    `json:"accepted_height_mm,omitempty"`
	Location       string `json:"location,omitempty"`
}

// Area returns the region area in mm².
func (w WasteRegion) Area() int {
	return w.Width * w.Height
}

// SetSaved flips the saved flag and re-derives the class. Geometry is untouched.
func (w *WasteRegion) SetSaved(saved bool) {
	w.Saved = saved
	if saved {
		w.Class = ClassReusable
	} else {
		w.Class = ClassScrap
	}
}

// RemnantSize returns the dimensions the region goes back to inventory with.
func (w WasteRegion) RemnantSize() (int, int) {
	width, height := w.Width, w.Height
	if w.AcceptedWidth > 0 {
		width = w.AcceptedWidth
	}
	if w.AcceptedHeight > 0 {
		height = w.AcceptedHeight
	}
	return width, height
}
