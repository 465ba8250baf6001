package model

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// NewID returns a fresh identifier for persisted records.
func NewID() string {
	return uuid.NewString()
}

// StockKind tells whether a Piece was cut from a full sheet or a remnant.
type StockKind int

const (
	KindSheet StockKind = iota
	KindRemnant
)

func (k StockKind) String() string {
	switch k {
	case KindRemnant:
		return "remnant"
	default:
		return "sheet"
	}
}

// MarshalText encodes the kind as "sheet" or "remnant".
func (k StockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "sheet" or "remnant".
func (k *StockKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sheet":
		*k = KindSheet
	case "remnant":
		*k = KindRemnant
	default:
		return fmt.Errorf("unknown stock kind %q", string(b))
	}
	return nil
}

// RequestStatus is the lifecycle state of a CutRequest.
type RequestStatus string

const (
	StatusPending RequestStatus = "pending"
	StatusCut     RequestStatus = "cut"
)

// CutRequest is one customer-ordered line: a rectangle of a material, in mm.
type CutRequest struct {
	ID         string        `json:"id"`
	MaterialID string        `json:"material_id"`
	Width      int           `json:"width_mm"`
	Height     int           `json:"height_mm"`
	Quantity   int           `json:"quantity"`
	OrderRef   string        `json:"order_ref,omitempty"`
	ClientRef  string        `json:"client_ref,omitempty"`
	Status     RequestStatus `json:"status"`

	// QuantityCut counts units already committed. A request stays pending
	// until it reaches Quantity.
	QuantityCut int `json:"quantity_cut,omitempty"`
}

func NewCutRequest(material string, w, h, qty int) CutRequest {
	return CutRequest{
		ID:         NewID(),
		MaterialID: material,
		Width:      w,
		Height:     h,
		Quantity:   qty,
		Status:     StatusPending,
	}
}

// Valid reports whether the request can produce cut instances.
func (r CutRequest) Valid() bool {
	return r.Width > 0 && r.Height > 0 && r.Quantity > 0
}

// Remaining is the number of units still to be cut.
func (r CutRequest) Remaining() int {
	return max(0, r.Quantity-max(0, r.QuantityCut))
}

// CutInstance is a single unit of a CutRequest. It only lives for one
// optimization run.
type CutInstance struct {
	RequestID  string `json:"request_id"`
	MaterialID string `json:"material_id"`
	Index      int    `json:"index"` // 1..quantity
	Width      int    `json:"width_mm"`
	Height     int    `json:"height_mm"`
	OrderRef   string `json:"order_ref,omitempty"`
	ClientRef  string `json:"client_ref,omitempty"`
	Seq        int    `json:"seq"` // position in the expanded sequence
}

// Area returns the instance area in mm².
func (c CutInstance) Area() int {
	return c.Width * c.Height
}

// Label is a short human-readable reference such as "a1b2c3d4#2".
func (c CutInstance) Label() string {
	id := c.RequestID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s#%d", id, c.Index)
}

// StockSheet is a full sheet type with an available count.
type StockSheet struct {
	ID         string `json:"id"`
	MaterialID string `json:"material_id"`
	Label      string `json:"label"`
	Width      int    `json:"width_mm"`
	Height     int    `json:"height_mm"`
	Quantity   int    `json:"quantity"`
}

func NewStockSheet(material, label string, w, h, qty int) StockSheet {
	return StockSheet{
		ID:         NewID(),
		MaterialID: material,
		Label:      label,
		Width:      w,
		Height:     h,
		Quantity:   qty,
	}
}

// Area returns the sheet area in mm².
func (s StockSheet) Area() int {
	return s.Width * s.Height
}

// Fits reports whether a w x h rectangle fits the sheet in either orientation.
func (s StockSheet) Fits(w, h int) bool {
	return (w <= s.Width && h <= s.Height) || (h <= s.Width && w <= s.Height)
}

// StockRemnant is a leftover piece from a previous job.
type StockRemnant struct {
	ID         string `json:"id"`
	MaterialID string `json:"material_id"`
	Width      int    `json:"width_mm"`
	Height     int    `json:"height_mm"`
	Quantity   int    `json:"quantity"`
	Location   string `json:"location,omitempty"`
}

func NewStockRemnant(material string, w, h, qty int, location string) StockRemnant {
	return StockRemnant{
		ID:         NewID(),
		MaterialID: material,
		Width:      w,
		Height:     h,
		Quantity:   qty,
		Location:   location,
	}
}

// Area returns the remnant area in mm².
func (r StockRemnant) Area() int {
	return r.Width * r.Height
}

// StockSnapshot is the inventory as seen at the start of a run.
type StockSnapshot struct {
	Sheets   []StockSheet   `json:"sheets"`
	Remnants []StockRemnant `json:"remnants"`
}

// Clone returns a deep copy so callers can decrement counts freely.
func (s StockSnapshot) Clone() StockSnapshot {
	out := StockSnapshot{
		Sheets:   make([]StockSheet, len(s.Sheets)),
		Remnants: make([]StockRemnant, len(s.Remnants)),
	}
	copy(out.Sheets, s.Sheets)
	copy(out.Remnants, s.Remnants)
	return out
}

// ForMaterial returns a copy holding only the available stock of one
// material type. Entries with no units left are dropped.
func (s StockSnapshot) ForMaterial(material string) StockSnapshot {
	var out StockSnapshot
	for _, sh := range s.Sheets {
		if sh.MaterialID == material && sh.Quantity > 0 {
			out.Sheets = append(out.Sheets, sh)
		}
	}
	for _, r := range s.Remnants {
		if r.MaterialID == material && r.Quantity > 0 {
			out.Remnants = append(out.Remnants, r)
		}
	}
	return out
}

// PlacedCut is a CutInstance positioned on a Piece. (X, Y) is the top-left corner.
type PlacedCut struct {
	Cut CutInstance `json:"cut"`
	X   int         `json:"x"`
	Y   int         `json:"y"`
}

func (p PlacedCut) Width() int  { return p.Cut.Width }
func (p PlacedCut) Height() int { return p.Cut.Height }
func (p PlacedCut) Right() int  { return p.X + p.Cut.Width }
func (p PlacedCut) Bottom() int { return p.Y + p.Cut.Height }

// Overlaps reports whether two placed rectangles share any interior area.
func (p PlacedCut) Overlaps(o PlacedCut) bool {
	return p.X < o.Right() && o.X < p.Right() && p.Y < o.Bottom() && o.Y < p.Bottom()
}

// Piece is one stock unit after packing.
type Piece struct {
	Index      int           `json:"index"` // 1-based position in the plan
	Kind       StockKind     `json:"kind"`
	SourceID   string        `json:"source_id"`
	MaterialID string        `json:"material_id"`
	Label      string        `json:"label,omitempty"`
	Location   string        `json:"location,omitempty"`
	Width      int           `json:"width_mm"`
	Height     int           `json:"height_mm"`
	Cuts       []PlacedCut   `json:"cuts"`
	Waste      []WasteRegion `json:"waste"`
}

// TotalArea returns the stock unit area.
func (p Piece) TotalArea() int {
	return p.Width * p.Height
}

// UsedArea returns the area covered by placed cuts.
func (p Piece) UsedArea() int {
	var total int
	for _, c := range p.Cuts {
		total += c.Cut.Area()
	}
	return total
}

// WasteArea returns the area of registered waste regions.
func (p Piece) WasteArea() int {
	var total int
	for _, w := range p.Waste {
		total += w.Area()
	}
	return total
}

// Efficiency returns the usage percentage.
func (p Piece) Efficiency() float64 {
	ta := p.TotalArea()
	if ta == 0 {
		return 0
	}
	return float64(p.UsedArea()) / float64(ta) * 100.0
}

// RequestIDs returns the distinct CutRequest ids placed on the piece, in
// placement order.
func (p Piece) RequestIDs() []string {
	seen := make(map[string]bool, len(p.Cuts))
	var ids []string
	for _, c := range p.Cuts {
		if !seen[c.Cut.RequestID] {
			seen[c.Cut.RequestID] = true
			ids = append(ids, c.Cut.RequestID)
		}
	}
	return ids
}

// RequestUnits counts the placed instances per CutRequest, in placement
// order of each request's first cut.
func (p Piece) RequestUnits() []RequestUnits {
	pos := make(map[string]int, len(p.Cuts))
	var out []RequestUnits
	for _, c := range p.Cuts {
		i, ok := pos[c.Cut.RequestID]
		if !ok {
			i = len(out)
			pos[c.Cut.RequestID] = i
			out = append(out, RequestUnits{RequestID: c.Cut.RequestID})
		}
		out[i].Units++
	}
	return out
}

// SavedRemnants returns the waste regions that will go back to inventory.
func (p Piece) SavedRemnants() []WasteRegion {
	var out []WasteRegion
	for _, w := range p.Waste {
		if w.Saved && w.Class == ClassReusable {
			out = append(out, w)
		}
	}
	return out
}

// ExclusionReason says why a cut instance did not make it onto a piece.
type ExclusionReason string

const (
	ReasonInfeasible     ExclusionReason = "infeasible"      // larger than any stock of its type
	ReasonPackingStall   ExclusionReason = "packing_stall"   // coarse fit passed, packer placed nothing
	ReasonStockExhausted ExclusionReason = "stock_exhausted" // no remaining sheet fits
)

// ExcludedCut is a cut instance left out of the plan.
type ExcludedCut struct {
	Cut    CutInstance     `json:"cut"`
	Reason ExclusionReason `json:"reason"`
}

// Plan is the full output of one optimization run.
type Plan struct {
	RunID     string        `json:"run_id,omitempty"`
	Pieces    []Piece       `json:"pieces"`
	Excluded  []ExcludedCut `json:"excluded"`
	Malformed []string      `json:"malformed,omitempty"` // request ids dropped before expansion
}

// Clone returns a deep copy. Review edits on the original do not reach it.
func (p Plan) Clone() Plan {
	out := Plan{
		RunID:     p.RunID,
		Pieces:    make([]Piece, len(p.Pieces)),
		Excluded:  slices.Clone(p.Excluded),
		Malformed: slices.Clone(p.Malformed),
	}
	for i, pc := range p.Pieces {
		pc.Cuts = slices.Clone(pc.Cuts)
		pc.Waste = slices.Clone(pc.Waste)
		out.Pieces[i] = pc
	}
	return out
}

// PlacedCount returns the number of placed cut instances.
func (p Plan) PlacedCount() int {
	total := 0
	for _, pc := range p.Pieces {
		total += len(pc.Cuts)
	}
	return total
}

// SheetsUsed returns how many full sheets the plan consumes.
func (p Plan) SheetsUsed() int {
	n := 0
	for _, pc := range p.Pieces {
		if pc.Kind == KindSheet {
			n++
		}
	}
	return n
}

// RemnantsUsed returns how many remnants the plan consumes.
func (p Plan) RemnantsUsed() int {
	return len(p.Pieces) - p.SheetsUsed()
}

// TotalEfficiency returns overall material usage percentage.
func (p Plan) TotalEfficiency() float64 {
	var used, total int
	for _, pc := range p.Pieces {
		used += pc.UsedArea()
		total += pc.TotalArea()
	}
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100.0
}

// ReusableArea returns the area of waste regions marked to be saved.
func (p Plan) ReusableArea() int {
	total := 0
	for _, pc := range p.Pieces {
		for _, w := range pc.SavedRemnants() {
			total += w.Area()
		}
	}
	return total
}
