// Package server exposes planning, review and commit over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/piwi3910/glasscut/internal/commit"
	"github.com/piwi3910/glasscut/internal/gcode"
	"github.com/piwi3910/glasscut/internal/model"
)

// Inventory supplies the pending requests and stock a plan is built from.
type Inventory interface {
	PendingRequests(ctx context.Context, materials ...string) ([]model.CutRequest, error)
	Snapshot(ctx context.Context, materials ...string) (model.StockSnapshot, error)
}

// Committer applies an accepted plan.
type Committer interface {
	Commit(ctx context.Context, plan model.Plan) (commit.Report, error)
}

// Capability names an operation that an Authorizer can gate.
type Capability string

const (
	CapRun    Capability = "plan:run"
	CapReview Capability = "plan:review"
	CapCommit Capability = "plan:commit"
)

// Authorizer decides whether the caller may use a capability. A returned
// *fiber.Error keeps its status code; other errors become 403.
type Authorizer func(c fiber.Ctx, capability Capability) error

// Config configures a Server. Zero values select defaults.
type Config struct {
	Settings  model.PlanSettings
	GCode     gcode.Settings
	Profiles  []gcode.Profile // custom cutting table profiles
	CacheSize int
	Authorize Authorizer
	Logger    zerolog.Logger
	AccessLog bool
}

// Server holds the plans awaiting review and the HTTP app serving them.
type Server struct {
	app       *fiber.App
	inventory Inventory
	committer Committer
	settings  model.PlanSettings
	generator *gcode.Generator
	authorize Authorizer
	log       zerolog.Logger

	// mu guards the contents of cached plans; the cache itself is safe for
	// concurrent use.
	mu    sync.RWMutex
	plans *lru.Cache[string, *model.Plan]
	newID func() string
}

// New builds a server. inventory and committer may be nil, which disables
// inventory-backed runs and commits respectively.
func New(inventory Inventory, committer Committer, cfg Config) (*Server, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = model.DefaultAppConfig().PlanCacheSize
	}
	plans, err := lru.New[string, *model.Plan](size)
	if err != nil {
		return nil, fmt.Errorf("plan cache: %w", err)
	}

	settings := cfg.Settings
	if settings == (model.PlanSettings{}) {
		settings = model.DefaultPlanSettings()
	}
	gs := cfg.GCode
	if gs == (gcode.Settings{}) {
		gs = gcode.DefaultSettings()
	}

	s := &Server{
		inventory: inventory,
		committer: committer,
		settings:  settings,
		generator: gcode.New(gs, cfg.Profiles...),
		authorize: cfg.Authorize,
		log:       cfg.Logger,
		plans:     plans,
		newID:     model.NewID,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "GlassCut",
		ErrorHandler: s.handleError,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	s.app.Use(recover.New())
	if cfg.AccessLog {
		s.app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	plans := s.app.Group("/plans")
	plans.Post("/", s.require(CapRun), s.createPlan)
	plans.Post("/compare", s.require(CapRun), s.comparePlans)
	plans.Get("/:id", s.getPlan)
	plans.Patch("/:id/pieces/:piece/waste/:waste", s.require(CapReview), s.reviewWaste)
	plans.Post("/:id/commit", s.require(CapCommit), s.commitPlan)

	plans.Get("/:id/report.pdf", s.reportPDF)
	plans.Get("/:id/labels.pdf", s.labelsPDF)
	plans.Get("/:id/cutlist.xlsx", s.cutListXLSX)
	plans.Get("/:id/pieces/:piece/preview.png", s.piecePreview)
	plans.Get("/:id/pieces/:piece/program.nc", s.pieceProgram)
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// require runs the authorizer, when configured, before the handler.
func (s *Server) require(capability Capability) fiber.Handler {
	return func(c fiber.Ctx) error {
		if s.authorize == nil {
			return c.Next()
		}
		if err := s.authorize(c, capability); err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		return c.Next()
	}
}

// handleError renders every error as {"error": "..."}.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, model.ErrPieceNotFound), errors.Is(err, model.ErrWasteNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, model.ErrInvalidRemnantSize):
		code = fiber.StatusBadRequest
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
