// Package commit applies an accepted plan to inventory, one piece at a time.
package commit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/piwi3910/glasscut/internal/events"
	"github.com/piwi3910/glasscut/internal/model"
)

// Store applies a per-piece inventory transaction atomically. It returns an
// error wrapping model.ErrCommitConflict when the source unit is gone.
type Store interface {
	ApplyPiece(ctx context.Context, req model.CommitRequest) (model.CommitReceipt, error)
}

// Outcome is what happened to one piece of a commit batch.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeConflict  Outcome = "conflict" // stock unit taken by someone else
	OutcomeSkipped   Outcome = "skipped"  // not attempted, batch aborted
)

// PieceResult is the commit outcome of a single piece.
type PieceResult struct {
	PieceIndex    int      `json:"piece_index"`
	SourceID      string   `json:"source_id"`
	Outcome       Outcome  `json:"outcome"`
	NewRemnantIDs []string `json:"new_remnant_ids,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Report lists per-piece outcomes in plan order.
type Report struct {
	RunID   string        `json:"run_id,omitempty"`
	Results []PieceResult `json:"results"`
}

func (r Report) count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

func (r Report) Committed() int { return r.count(OutcomeCommitted) }
func (r Report) Conflicts() int { return r.count(OutcomeConflict) }
func (r Report) Skipped() int   { return r.count(OutcomeSkipped) }

// Stale reports whether the plan no longer matches inventory and should be
// re-run before the remaining pieces are cut.
func (r Report) Stale() bool {
	return r.Conflicts() > 0
}

// Committer drives a plan through a Store and announces each applied piece.
type Committer struct {
	Store     Store
	Publisher events.Publisher
	Logger    zerolog.Logger

	// DefaultLocation labels saved remnants that have no location of their own.
	DefaultLocation string

	now func() time.Time
}

func New(store Store, publisher events.Publisher, logger zerolog.Logger) *Committer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Committer{Store: store, Publisher: publisher, Logger: logger, now: time.Now}
}

// Commit applies every piece of the plan in order. Pieces are independent:
// a conflict is recorded and the batch continues, and committed pieces are
// never rolled back. Any other store error, or cancellation of ctx, stops the
// batch; the remaining pieces are reported as skipped and the error returned
// together with the partial report.
func (c *Committer) Commit(ctx context.Context, plan model.Plan) (Report, error) {
	report := Report{RunID: plan.RunID, Results: make([]PieceResult, 0, len(plan.Pieces))}

	var abort error
	for _, piece := range plan.Pieces {
		res := PieceResult{PieceIndex: piece.Index, SourceID: piece.SourceID}
		if abort == nil {
			abort = ctx.Err()
		}
		if abort != nil {
			res.Outcome = OutcomeSkipped
			report.Results = append(report.Results, res)
			continue
		}

		req := piece.CommitRequest(c.DefaultLocation)
		receipt, err := c.Store.ApplyPiece(ctx, req)
		switch {
		case errors.Is(err, model.ErrCommitConflict):
			res.Outcome = OutcomeConflict
			res.Error = err.Error()
			c.Logger.Warn().Err(err).Int("piece", piece.Index).Str("source", piece.SourceID).Msg("commit conflict, plan is stale")
		case err != nil:
			res.Outcome = OutcomeSkipped
			res.Error = err.Error()
			abort = fmt.Errorf("commit piece %d: %w", piece.Index, err)
			c.Logger.Error().Err(err).Int("piece", piece.Index).Msg("commit aborted")
		default:
			res.Outcome = OutcomeCommitted
			res.NewRemnantIDs = receipt.NewRemnantIDs
			c.Logger.Info().
				Int("piece", piece.Index).
				Str("kind", piece.Kind.String()).
				Str("source", piece.SourceID).
				Int("requests", len(req.Requests)).
				Int("new_remnants", len(receipt.NewRemnantIDs)).
				Msg("piece committed")
			c.publish(ctx, plan.RunID, req, receipt)
		}
		report.Results = append(report.Results, res)
	}
	return report, abort
}

// publish announces an applied piece. Delivery failures are logged only; the
// inventory change has already happened.
func (c *Committer) publish(ctx context.Context, runID string, req model.CommitRequest, receipt model.CommitReceipt) {
	evt := events.PieceCommitted{
		RunID:         runID,
		PieceIndex:    req.PieceIndex,
		MaterialID:    req.MaterialID,
		SourceKind:    req.SourceKind,
		SourceID:      req.SourceID,
		RequestIDs:    req.RequestIDs(),
		NewRemnantIDs: receipt.NewRemnantIDs,
		CommittedAt:   c.clock()().UTC(),
	}
	if err := c.Publisher.PublishPieceCommitted(ctx, evt); err != nil {
		c.Logger.Warn().Err(err).Int("piece", req.PieceIndex).Msg("publish piece committed failed")
	}
}

func (c *Committer) clock() func() time.Time {
	if c.now == nil {
		return time.Now
	}
	return c.now
}
