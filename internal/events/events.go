// Package events publishes inventory changes made by plan commits.
package events

import (
	"context"
	"time"

	"github.com/piwi3910/glasscut/internal/model"
)

// RKPieceCommitted is the routing key of PieceCommitted messages.
const RKPieceCommitted = "piece.committed"

// PieceCommitted is emitted once per piece whose inventory transaction applied.
type PieceCommitted struct {
	RunID         string          `json:"run_id,omitempty"`
	PieceIndex    int             `json:"piece_index"`
	MaterialID    string          `json:"material_id"`
	SourceKind    model.StockKind `json:"source_kind"`
	SourceID      string          `json:"source_id"`
	RequestIDs    []string        `json:"request_ids"`
	NewRemnantIDs []string        `json:"new_remnant_ids,omitempty"`
	CommittedAt   time.Time       `json:"committed_at"`
}

// Publisher delivers commit events to downstream consumers.
type Publisher interface {
	PublishPieceCommitted(ctx context.Context, evt PieceCommitted) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishPieceCommitted(context.Context, PieceCommitted) error { return nil }
