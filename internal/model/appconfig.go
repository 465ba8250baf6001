package model

// AppConfig holds application-wide settings: engine defaults plus the
// addresses of the collaborators the CLI and server talk to.
type AppConfig struct {
	// Engine defaults
	MinWasteMM          int          `json:"min_waste_mm"`
	ShelfToleranceMM    int          `json:"shelf_tolerance_mm"`
	ReusableMinHeightMM int          `json:"reusable_min_height_mm"`
	RemnantOrder        RemnantOrder `json:"remnant_order"`

	// Inventory and commit
	DatabasePath    string `json:"database_path"`
	DefaultLocation string `json:"default_location"` // storage label for new remnants
	RabbitURL       string `json:"rabbit_url"`       // empty disables events
	EventsExchange  string `json:"events_exchange"`

	// HTTP server
	ListenAddr    string `json:"listen_addr"`
	PlanCacheSize int    `json:"plan_cache_size"`

	// Cutting table output
	GCodeProfile string `json:"gcode_profile"`
}

// DefaultAppConfig returns an AppConfig whose engine values match
// DefaultPlanSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultPlanSettings()
	return AppConfig{
		MinWasteMM:          defaults.MinWaste,
		ShelfToleranceMM:    defaults.ShelfTolerance,
		ReusableMinHeightMM: defaults.ReusableMinHeight,
		RemnantOrder:        defaults.RemnantOrder,
		DatabasePath:        "glasscut.db",
		DefaultLocation:     "remnant rack",
		EventsExchange:      "glasscut_events",
		ListenAddr:          ":8080",
		PlanCacheSize:       64,
		GCodeProfile:        "Generic",
	}
}

// PlanSettings returns the engine settings described by the config.
// Unset values fall back to the defaults.
func (c AppConfig) PlanSettings() PlanSettings {
	s := DefaultPlanSettings()
	if c.MinWasteMM > 0 {
		s.MinWaste = c.MinWasteMM
	}
	if c.ShelfToleranceMM > 0 {
		s.ShelfTolerance = c.ShelfToleranceMM
	}
	if c.ReusableMinHeightMM > 0 {
		s.ReusableMinHeight = c.ReusableMinHeightMM
	}
	if c.RemnantOrder == RemnantsLargestFirst {
		s.RemnantOrder = RemnantsLargestFirst
	}
	return s
}
