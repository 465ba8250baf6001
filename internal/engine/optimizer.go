package engine

import (
	"slices"

	"github.com/maruel/natural"
	"github.com/rs/zerolog"

	"github.com/piwi3910/glasscut/internal/model"
)

// Optimizer plans cuts onto stock with a greedy shelf heuristic.
// It holds no state between runs and may be shared.
type Optimizer struct {
	Settings model.PlanSettings
	Logger   zerolog.Logger
}

func New(settings model.PlanSettings) *Optimizer {
	return &Optimizer{Settings: settings, Logger: zerolog.Nop()}
}

// WithLogger returns a copy of the optimizer that logs to l.
func (o *Optimizer) WithLogger(l zerolog.Logger) *Optimizer {
	cp := *o
	cp.Logger = l
	return &cp
}

// Optimize produces a cutting plan for the requests against a stock snapshot.
// Each material type is planned independently; the snapshot is never
// modified. Identical inputs yield identical plans.
func (o *Optimizer) Optimize(requests []model.CutRequest, stock model.StockSnapshot) model.Plan {
	instances, malformed := ExpandCuts(requests)

	plan := model.Plan{
		Pieces:    []model.Piece{},
		Excluded:  []model.ExcludedCut{},
		Malformed: malformed,
	}
	ids := &sequence{}

	for _, g := range groupByMaterial(instances) {
		groupStock := stock.ForMaterial(g.material)

		feasible, infeasible := FilterFeasible(g.cuts, groupStock)
		for _, c := range infeasible {
			plan.Excluded = append(plan.Excluded, model.ExcludedCut{Cut: c, Reason: model.ReasonInfeasible})
		}

		sortTallestFirst(feasible)
		alloc := o.allocate(feasible, groupStock, ids)

		for _, p := range alloc.pieces {
			p.Index = len(plan.Pieces) + 1
			plan.Pieces = append(plan.Pieces, p)
		}
		plan.Excluded = append(plan.Excluded, alloc.excluded...)

		o.Logger.Debug().
			Str("material", g.material).
			Int("instances", len(g.cuts)).
			Int("infeasible", len(infeasible)).
			Int("pieces", len(alloc.pieces)).
			Int("excluded", len(alloc.excluded)).
			Msg("material planned")
	}
	return plan
}

// materialGroup holds the cut instances of one material type.
type materialGroup struct {
	material string
	cuts     []model.CutInstance
}

// groupByMaterial splits instances by material, keeping expansion order
// inside each group. Groups are ordered by natural material name order.
func groupByMaterial(instances []model.CutInstance) []materialGroup {
	index := make(map[string]int)
	var groups []materialGroup
	for _, c := range instances {
		i, ok := index[c.MaterialID]
		if !ok {
			i = len(groups)
			index[c.MaterialID] = i
			groups = append(groups, materialGroup{material: c.MaterialID})
		}
		groups[i].cuts = append(groups[i].cuts, c)
	}
	slices.SortStableFunc(groups, func(a, b materialGroup) int {
		switch {
		case natural.Less(a.material, b.material):
			return -1
		case natural.Less(b.material, a.material):
			return 1
		default:
			return 0
		}
	})
	return groups
}
