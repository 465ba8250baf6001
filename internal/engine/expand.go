package engine

import "github.com/piwi3910/glasscut/internal/model"

// ExpandCuts turns each request into one instance per unit of quantity,
// preserving input order. Units already cut are skipped, so instance indices
// stay stable across re-runs. Requests with a non-positive quantity or dimension
// produce no instances; their ids are returned as malformed.
func ExpandCuts(requests []model.CutRequest) (instances []model.CutInstance, malformed []string) {
	seq := 0
	for _, r := range requests {
		if !r.Valid() {
			malformed = append(malformed, r.ID)
			continue
		}
		for i := r.Quantity - r.Remaining() + 1; i <= r.Quantity; i++ {
			instances = append(instances, model.CutInstance{
				RequestID:  r.ID,
				MaterialID: r.MaterialID,
				Index:      i,
				Width:      r.Width,
				Height:     r.Height,
				OrderRef:   r.OrderRef,
				ClientRef:  r.ClientRef,
				Seq:        seq,
			})
			seq++
		}
	}
	return instances, malformed
}
