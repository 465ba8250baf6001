package model

import (
	"errors"
	"fmt"
)

var (
	ErrPieceNotFound      = errors.New("piece not found")
	ErrWasteNotFound      = errors.New("waste region not found")
	ErrInvalidRemnantSize = errors.New("invalid remnant size")
)

// Waste returns a pointer to the waste region with the given id on the
// piece at the given 1-based index, so review edits land in the plan.
func (p *Plan) Waste(pieceIndex, wasteID int) (*WasteRegion, error) {
	if pieceIndex < 1 || pieceIndex > len(p.Pieces) {
		return nil, fmt.Errorf("piece %d: %w", pieceIndex, ErrPieceNotFound)
	}
	piece := &p.Pieces[pieceIndex-1]
	for i := range piece.Waste {
		if piece.Waste[i].ID == wasteID {
			return &piece.Waste[i], nil
		}
	}
	return nil, fmt.Errorf("piece %d waste %d: %w", pieceIndex, wasteID, ErrWasteNotFound)
}

// SetWasteSaved marks a waste region as saved (reusable) or scrap.
func (p *Plan) SetWasteSaved(pieceIndex, wasteID int, saved bool) error {
	w, err := p.Waste(pieceIndex, wasteID)
	if err != nil {
		return err
	}
	w.SetSaved(saved)
	return nil
}

// ToggleWaste flips the saved flag of a waste region and returns the new value.
func (p *Plan) ToggleWaste(pieceIndex, wasteID int) (bool, error) {
	w, err := p.Waste(pieceIndex, wasteID)
	if err != nil {
		return false, err
	}
	w.SetSaved(!w.Saved)
	return w.Saved, nil
}

// ResizeWaste sets the remnant dimensions the reviewer accepts for a region.
// The size must be positive and fit inside the region.
func (p *Plan) ResizeWaste(pieceIndex, wasteID, width, height int) error {
	w, err := p.Waste(pieceIndex, wasteID)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 || width > w.Width || height > w.Height {
		return fmt.Errorf("%dx%d for %dx%d region: %w", width, height, w.Width, w.Height, ErrInvalidRemnantSize)
	}
	w.AcceptedWidth = width
	w.AcceptedHeight = height
	return nil
}

// SetWasteLocation sets the storage location recorded for a saved remnant.
func (p *Plan) SetWasteLocation(pieceIndex, wasteID int, location string) error {
	w, err := p.Waste(pieceIndex, wasteID)
	if err != nil {
		return err
	}
	w.Location = location
	return nil
}
