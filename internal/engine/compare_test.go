package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/glasscut/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	scenarios := BuildDefaultScenarios(model.DefaultPlanSettings())

	require.Len(t, scenarios, 3)
	assert.Equal(t, "Current Settings", scenarios[0].Name)
	assert.Equal(t, "Largest Remnants First", scenarios[1].Name)
	assert.Equal(t, model.RemnantsLargestFirst, scenarios[1].Settings.RemnantOrder)
	assert.Equal(t, "Keep Remnants > 100mm", scenarios[2].Name)
	assert.Equal(t, 100, scenarios[2].Settings.ReusableMinHeight)
}

func TestBuildDefaultScenarios_FlipsDescending(t *testing.T) {
	base := model.DefaultPlanSettings()
	base.RemnantOrder = model.RemnantsLargestFirst

	scenarios := BuildDefaultScenarios(base)
	require.GreaterOrEqual(t, len(scenarios), 2)
	assert.Equal(t, model.RemnantsSmallestFirst, scenarios[1].Settings.RemnantOrder)
}

func TestCompareScenarios(t *testing.T) {
	requests := []model.CutRequest{request("r1", 400, 400, 1)}
	stock := model.StockSnapshot{
		Sheets: []model.StockSheet{sheet("s1", 2000, 2000, 1)},
		Remnants: []model.StockRemnant{
			remnant("large", 1000, 1000, 1),
			remnant("small", 500, 500, 1),
		},
	}

	results := CompareScenarios(BuildDefaultScenarios(model.DefaultPlanSettings()), requests, stock)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Equal(t, 1, r.PlacedCuts)
		assert.Equal(t, 1, r.RemnantsUsed)
		assert.Equal(t, 0, r.SheetsUsed)
		assert.Zero(t, r.ExcludedCount)
	}
	assert.Equal(t, "small", results[0].Plan.Pieces[0].SourceID)
	assert.Equal(t, "large", results[1].Plan.Pieces[0].SourceID)
	// 500x500 remnant leaves a 500x100 bottom strip: reusable at 50, not at 100.
	assert.Equal(t, 500*100, results[0].ReusableArea)
	assert.Zero(t, results[2].ReusableArea)
	assert.Greater(t, results[1].WastePercent, results[0].WastePercent)
}

func TestCompareScenarios_NoPieces(t *testing.T) {
	results := CompareScenarios(
		[]ComparisonScenario{{Name: "only", Settings: model.DefaultPlanSettings()}},
		[]model.CutRequest{request("r1", 400, 400, 1)},
		model.StockSnapshot{},
	)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].WastePercent)
	assert.Equal(t, 1, results[0].ExcludedCount)
}
