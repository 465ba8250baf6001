package model

import "errors"

// ErrCommitConflict means the stock unit a piece was planned on is no longer
// available. The plan is stale and should be re-run.
var ErrCommitConflict = errors.New("stock unit no longer available")

// RemnantDescriptor describes a new remnant to insert into inventory.
type RemnantDescriptor struct {
	Width    int    `json:"width_mm"`
	Height   int    `json:"height_mm"`
	Quantity int    `json:"quantity"`
	Location string `json:"location,omitempty"`
}

// RequestUnits is how many units of one CutRequest a piece fulfils.
type RequestUnits struct {
	RequestID string `json:"request_id"`
	Units     int    `json:"units"`
}

// CommitRequest is the per-piece inventory transaction handed to the store.
type CommitRequest struct {
	PieceIndex  int                 `json:"piece_index"`
	MaterialID  string              `json:"material_id"`
	SourceKind  StockKind           `json:"source_kind"`
	SourceID    string              `json:"source_id"`
	Requests    []RequestUnits      `json:"requests"`
	NewRemnants []RemnantDescriptor `json:"new_remnants,omitempty"`
}

// RequestIDs lists the requests the piece fulfils units of.
func (r CommitRequest) RequestIDs() []string {
	ids := make([]string, len(r.Requests))
	for i, u := range r.Requests {
		ids[i] = u.RequestID
	}
	return ids
}

// CommitReceipt is what the store reports back for an applied request.
type CommitReceipt struct {
	NewRemnantIDs []string `json:"new_remnant_ids,omitempty"`
}

// CommitRequest builds the inventory transaction for this piece.
// defaultLocation is used for saved remnants that carry no location.
func (p Piece) CommitRequest(defaultLocation string) CommitRequest {
	req := CommitRequest{
		PieceIndex: p.Index,
		MaterialID: p.MaterialID,
		SourceKind: p.Kind,
		SourceID:   p.SourceID,
		Requests:   p.RequestUnits(),
	}
	for _, w := range p.SavedRemnants() {
		width, height := w.RemnantSize()
		loc := w.Location
		if loc == "" {
			loc = defaultLocation
		}
		req.NewRemnants = append(req.NewRemnants, RemnantDescriptor{
			Width:    width,
			Height:   height,
			Quantity: 1,
			Location: loc,
		})
	}
	return req
}
