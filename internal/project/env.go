package project

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/piwi3910/glasscut/internal/model"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabasePath      = "GLASSCUT_DB_PATH"
	EnvListenAddr        = "GLASSCUT_LISTEN_ADDR"
	EnvRabbitURL         = "GLASSCUT_RABBIT_URL"
	EnvEventsExchange    = "GLASSCUT_EVENTS_EXCHANGE"
	EnvDefaultLocation   = "GLASSCUT_DEFAULT_LOCATION"
	EnvGCodeProfile      = "GLASSCUT_GCODE_PROFILE"
	EnvRemnantOrder      = "GLASSCUT_REMNANT_ORDER"
	EnvMinWaste          = "GLASSCUT_MIN_WASTE_MM"
	EnvShelfTolerance    = "GLASSCUT_SHELF_TOLERANCE_MM"
	EnvReusableMinHeight = "GLASSCUT_REUSABLE_MIN_HEIGHT_MM"
	EnvPlanCacheSize     = "GLASSCUT_PLAN_CACHE_SIZE"
)

// LoadEnv reads .env style files into the process environment. Variables
// already set win over file values. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overlays GLASSCUT_* environment variables onto cfg. All invalid
// values are reported together; valid ones are still applied.
func ApplyEnv(cfg *model.AppConfig) error {
	for key, dst := range map[string]*string{
		EnvDatabasePath:    &cfg.DatabasePath,
		EnvListenAddr:      &cfg.ListenAddr,
		EnvRabbitURL:       &cfg.RabbitURL,
		EnvEventsExchange:  &cfg.EventsExchange,
		EnvDefaultLocation: &cfg.DefaultLocation,
		EnvGCodeProfile:    &cfg.GCodeProfile,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	var errs []error
	for key, dst := range map[string]*int{
		EnvMinWaste:          &cfg.MinWasteMM,
		EnvShelfTolerance:    &cfg.ShelfToleranceMM,
		EnvReusableMinHeight: &cfg.ReusableMinHeightMM,
		EnvPlanCacheSize:     &cfg.PlanCacheSize,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid value %q", key, v))
			continue
		}
		*dst = n
	}

	if v := os.Getenv(EnvRemnantOrder); v != "" {
		switch order := model.RemnantOrder(v); order {
		case model.RemnantsSmallestFirst, model.RemnantsLargestFirst:
			cfg.RemnantOrder = order
		default:
			errs = append(errs, fmt.Errorf("%s: expected %s or %s, got %q", EnvRemnantOrder, model.RemnantsSmallestFirst, model.RemnantsLargestFirst, v))
		}
	}
	return errors.Join(errs...)
}
