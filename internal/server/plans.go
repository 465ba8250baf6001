package server

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/piwi3910/glasscut/internal/engine"
	"github.com/piwi3910/glasscut/internal/model"
)

type planRequest struct {
	Materials    []string             `json:"materials"`
	Requests     []model.CutRequest   `json:"requests"`
	Stock        *model.StockSnapshot `json:"stock"`
	RemnantOrder model.RemnantOrder   `json:"remnant_order"`
}

type planSummary struct {
	Pieces       int     `json:"pieces"`
	SheetsUsed   int     `json:"sheets_used"`
	RemnantsUsed int     `json:"remnants_used"`
	Placed       int     `json:"placed"`
	Excluded     int     `json:"excluded"`
	Malformed    int     `json:"malformed"`
	Efficiency   float64 `json:"efficiency"`
	ReusableArea int     `json:"reusable_area_mm2"`
}

type planResponse struct {
	RunID   string      `json:"run_id"`
	Summary planSummary `json:"summary"`
	Plan    *model.Plan `json:"plan"`
}

type scenarioResponse struct {
	Name         string             `json:"name"`
	Settings     model.PlanSettings `json:"settings"`
	Summary      planSummary        `json:"summary"`
	WastePercent float64            `json:"waste_percent"`
}

type wastePatch struct {
	Saved    *bool   `json:"saved"`
	Width    *int    `json:"width_mm"`
	Height   *int    `json:"height_mm"`
	Location *string `json:"location"`
}

func summarize(p *model.Plan) planSummary {
	return planSummary{
		Pieces:       len(p.Pieces),
		SheetsUsed:   p.SheetsUsed(),
		RemnantsUsed: p.RemnantsUsed(),
		Placed:       p.PlacedCount(),
		Excluded:     len(p.Excluded),
		Malformed:    len(p.Malformed),
		Efficiency:   p.TotalEfficiency(),
		ReusableArea: p.ReusableArea(),
	}
}

// planInput resolves the job of a plan request: inline requests and stock
// when given, otherwise the pending requests and stock of the inventory.
func (s *Server) planInput(c fiber.Ctx) (planRequest, []model.CutRequest, model.StockSnapshot, error) {
	var req planRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return req, nil, model.StockSnapshot{}, fiber.NewError(fiber.StatusBadRequest, "invalid json")
		}
	}
	switch req.RemnantOrder {
	case "", model.RemnantsSmallestFirst, model.RemnantsLargestFirst:
	default:
		return req, nil, model.StockSnapshot{}, fiber.NewError(fiber.StatusBadRequest, "remnant_order must be ascending or descending")
	}

	if len(req.Requests) > 0 || req.Stock != nil {
		var stock model.StockSnapshot
		if req.Stock != nil {
			stock = *req.Stock
		}
		return req, req.Requests, stock, nil
	}
	if s.inventory == nil {
		return req, nil, model.StockSnapshot{}, fiber.NewError(fiber.StatusBadRequest, "no inventory configured, send requests and stock")
	}

	ctx := c.Context()
	requests, err := s.inventory.PendingRequests(ctx, req.Materials...)
	if err != nil {
		return req, nil, model.StockSnapshot{}, err
	}
	stock, err := s.inventory.Snapshot(ctx, req.Materials...)
	if err != nil {
		return req, nil, model.StockSnapshot{}, err
	}
	return req, requests, stock, nil
}

func (s *Server) settingsFor(req planRequest) model.PlanSettings {
	settings := s.settings
	if req.RemnantOrder != "" {
		settings.RemnantOrder = req.RemnantOrder
	}
	return settings
}

func (s *Server) createPlan(c fiber.Ctx) error {
	req, requests, stock, err := s.planInput(c)
	if err != nil {
		return err
	}

	plan := engine.New(s.settingsFor(req)).WithLogger(s.log).Optimize(requests, stock)
	plan.RunID = s.newID()
	s.plans.Add(plan.RunID, &plan)

	s.log.Info().
		Str("run", plan.RunID).
		Int("pieces", len(plan.Pieces)).
		Int("excluded", len(plan.Excluded)).
		Msg("plan created")

	return c.Status(fiber.StatusCreated).JSON(planResponse{RunID: plan.RunID, Summary: summarize(&plan), Plan: &plan})
}

func (s *Server) comparePlans(c fiber.Ctx) error {
	req, requests, stock, err := s.planInput(c)
	if err != nil {
		return err
	}

	results := engine.CompareScenarios(engine.BuildDefaultScenarios(s.settingsFor(req)), requests, stock)
	out := make([]scenarioResponse, 0, len(results))
	for _, r := range results {
		out = append(out, scenarioResponse{
			Name:         r.Scenario.Name,
			Settings:     r.Scenario.Settings,
			Summary:      summarize(&r.Plan),
			WastePercent: r.WastePercent,
		})
	}
	return c.JSON(out)
}

// lookup returns the cached plan for the :id route parameter.
func (s *Server) lookup(c fiber.Ctx) (*model.Plan, error) {
	plan, ok := s.plans.Get(c.Params("id"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "plan not found")
	}
	return plan, nil
}

func intParam(c fiber.Ctx, name string) (int, error) {
	v, err := strconv.Atoi(c.Params(name))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a number")
	}
	return v, nil
}

func (s *Server) getPlan(c fiber.Ctx) error {
	plan, err := s.lookup(c)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(planResponse{RunID: plan.RunID, Summary: summarize(plan), Plan: plan})
}

func (s *Server) reviewWaste(c fiber.Ctx) error {
	plan, err := s.lookup(c)
	if err != nil {
		return err
	}
	pieceIndex, err := intParam(c, "piece")
	if err != nil {
		return err
	}
	wasteID, err := intParam(c, "waste")
	if err != nil {
		return err
	}
	var patch wastePatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Saved != nil {
		if err := plan.SetWasteSaved(pieceIndex, wasteID, *patch.Saved); err != nil {
			return err
		}
	}
	if patch.Width != nil || patch.Height != nil {
		w, err := plan.Waste(pieceIndex, wasteID)
		if err != nil {
			return err
		}
		width, height := w.RemnantSize()
		if patch.Width != nil {
			width = *patch.Width
		}
		if patch.Height != nil {
			height = *patch.Height
		}
		if err := plan.ResizeWaste(pieceIndex, wasteID, width, height); err != nil {
			return err
		}
	}
	if patch.Location != nil {
		if err := plan.SetWasteLocation(pieceIndex, wasteID, *patch.Location); err != nil {
			return err
		}
	}

	w, err := plan.Waste(pieceIndex, wasteID)
	if err != nil {
		return err
	}
	return c.JSON(w)
}

// commitPlan applies the plan and drops it from the cache: a plan is
// committed at most once, whatever the outcome.
func (s *Server) commitPlan(c fiber.Ctx) error {
	if s.committer == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "commit is not configured")
	}
	plan, err := s.lookup(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.plans.Remove(plan.RunID) {
		s.mu.Unlock()
		return fiber.NewError(fiber.StatusNotFound, "plan not found")
	}
	accepted := plan.Clone()
	s.mu.Unlock()

	report, err := s.committer.Commit(c.Context(), accepted)
	if err != nil {
		s.log.Error().Err(err).Str("run", accepted.RunID).Int("committed", report.Committed()).Msg("commit aborted")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error(), "report": report})
	}
	if report.Stale() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "inventory changed, re-run optimization for the remaining cuts",
			"report": report,
		})
	}
	return c.JSON(fiber.Map{"report": report})
}
