package model

// RemnantOrder is the order in which remnants are offered to the packer.
type RemnantOrder string

const (
	RemnantsSmallestFirst RemnantOrder = "ascending"  // use small leftovers first
	RemnantsLargestFirst  RemnantOrder = "descending" // use large leftovers first
)

// PlanSettings holds the optimizer thresholds, all in mm.
type PlanSettings struct {
	MinWaste          int          `json:"min_waste_mm"`           // slivers at or under this are not registered
	ShelfTolerance    int          `json:"shelf_tolerance_mm"`     // cuts whose y differ by up to this share a shelf
	ReusableMinHeight int          `json:"reusable_min_height_mm"` // bottom waste taller than this is saved by default
	RemnantOrder      RemnantOrder `json:"remnant_order"`
}

func DefaultPlanSettings() PlanSettings {
	return PlanSettings{
		MinWaste:          5,
		ShelfTolerance:    1,
		ReusableMinHeight: 50,
		RemnantOrder:      RemnantsSmallestFirst,
	}
}
