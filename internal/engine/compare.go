package engine

import (
	"fmt"

	"github.com/piwi3910/glasscut/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.PlanSettings
}

// ComparisonResult holds the plan and summary figures for one scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Plan          model.Plan
	SheetsUsed    int
	RemnantsUsed  int
	PlacedCuts    int
	WastePercent  float64
	ReusableArea  int
	ExcludedCount int
}

// CompareScenarios runs the optimizer once per scenario against the same
// requests and stock, in scenario order.
func CompareScenarios(scenarios []ComparisonScenario, requests []model.CutRequest, stock model.StockSnapshot) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		plan := New(scenario.Settings).Optimize(requests, stock)

		wastePercent := 0.0
		if len(plan.Pieces) > 0 {
			wastePercent = 100.0 - plan.TotalEfficiency()
		}

		results = append(results, ComparisonResult{
			Scenario:      scenario,
			Plan:          plan,
			SheetsUsed:    plan.SheetsUsed(),
			RemnantsUsed:  plan.RemnantsUsed(),
			PlacedCuts:    plan.PlacedCount(),
			WastePercent:  wastePercent,
			ReusableArea:  plan.ReusableArea(),
			ExcludedCount: len(plan.Excluded),
		})
	}

	return results
}

// BuildDefaultScenarios derives what-if alternatives from the base settings:
// the opposite remnant order and a stricter reusable-remnant threshold.
func BuildDefaultScenarios(base model.PlanSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Settings: base},
	}

	flipped := base
	if base.RemnantOrder == model.RemnantsLargestFirst {
		flipped.RemnantOrder = model.RemnantsSmallestFirst
		scenarios = append(scenarios, ComparisonScenario{Name: "Smallest Remnants First", Settings: flipped})
	} else {
		flipped.RemnantOrder = model.RemnantsLargestFirst
		scenarios = append(scenarios, ComparisonScenario{Name: "Largest Remnants First", Settings: flipped})
	}

	strict := base
	strict.ReusableMinHeight = base.ReusableMinHeight * 2
	if strict.ReusableMinHeight > 0 {
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Keep Remnants > %dmm", strict.ReusableMinHeight),
			Settings: strict,
		})
	}

	return scenarios
}
