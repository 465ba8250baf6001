package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewPlan() Plan {
	return Plan{Pieces: []Piece{{
		Index: 1, Kind: KindSheet, SourceID: "s1", MaterialID: "float-4mm",
		Width: 2400, Height: 3210,
		Cuts: []PlacedCut{
			{Cut: CutInstance{RequestID: "r1", Index: 1, Width: 1000, Height: 500}},
			{Cut: CutInstance{RequestID: "r2", Index: 1, Width: 1000, Height: 500}, X: 1000},
		},
		Waste: []WasteRegion{
			{ID: 1, Position: PositionRight, X: 2000, Width: 400, Height: 500, Class: ClassScrap},
			{ID: 2, Position: PositionBottom, Y: 500, Width: 2400, Height: 2710, Class: ClassReusable, Saved: true},
		},
	}}}
}

func TestToggleWasteRederivesClass(t *testing.T) {
	plan := reviewPlan()

	saved, err := plan.ToggleWaste(1, 1)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, ClassReusable, plan.Pieces[0].Waste[0].Class)
	assert.Equal(t, 400, plan.Pieces[0].Waste[0].Width, "geometry is untouched")

	saved, err = plan.ToggleWaste(1, 1)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, ClassScrap, plan.Pieces[0].Waste[0].Class)
}

func TestSetWasteSaved(t *testing.T) {
	plan := reviewPlan()
	require.NoError(t, plan.SetWasteSaved(1, 2, false))
	assert.Empty(t, plan.Pieces[0].SavedRemnants())
}

func TestWasteLookupErrors(t *testing.T) {
	plan := reviewPlan()

	_, err := plan.Waste(2, 1)
	assert.ErrorIs(t, err, ErrPieceNotFound)

	_, err = plan.Waste(0, 1)
	assert.ErrorIs(t, err, ErrPieceNotFound)

	_, err = plan.Waste(1, 99)
	assert.ErrorIs(t, err, ErrWasteNotFound)
}

func TestResizeWaste(t *testing.T) {
	plan := reviewPlan()

	require.NoError(t, plan.ResizeWaste(1, 2, 2400, 2000))
	w, h := plan.Pieces[0].Waste[1].RemnantSize()
	assert.Equal(t, 2400, w)
	assert.Equal(t, 2000, h)

	assert.ErrorIs(t, plan.ResizeWaste(1, 2, 2500, 100), ErrInvalidRemnantSize)
	assert.ErrorIs(t, plan.ResizeWaste(1, 2, 0, 100), ErrInvalidRemnantSize)
}

func TestPieceCommitRequest(t *testing.T) {
	plan := reviewPlan()
	require.NoError(t, plan.SetWasteLocation(1, 2, "rack B"))
	require.NoError(t, plan.ResizeWaste(1, 2, 2400, 2700))
	_, err := plan.ToggleWaste(1, 1)
	require.NoError(t, err)

	req := plan.Pieces[0].CommitRequest("default rack")

	assert.Equal(t, 1, req.PieceIndex)
	assert.Equal(t, KindSheet, req.SourceKind)
	assert.Equal(t, "s1", req.SourceID)
	assert.Equal(t, []string{"r1", "r2"}, req.RequestIDs())
	require.Len(t, req.NewRemnants, 2)
	assert.Equal(t, RemnantDescriptor{Width: 400, Height: 500, Quantity: 1, Location: "default rack"}, req.NewRemnants[0])
	assert.Equal(t, RemnantDescriptor{Width: 2400, Height: 2700, Quantity: 1, Location: "rack B"}, req.NewRemnants[1])
}
