package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/glasscut/internal/commit"
	"github.com/piwi3910/glasscut/internal/engine"
	"github.com/piwi3910/glasscut/internal/events"
	"github.com/piwi3910/glasscut/internal/export"
	"github.com/piwi3910/glasscut/internal/gcode"
	"github.com/piwi3910/glasscut/internal/importer"
	"github.com/piwi3910/glasscut/internal/model"
	"github.com/piwi3910/glasscut/internal/project"
	"github.com/piwi3910/glasscut/internal/server"
	"github.com/piwi3910/glasscut/internal/store"
)

const shutdownGrace = 10 * time.Second

// publisher connects to RabbitMQ when configured.
func publisher(cfg model.AppConfig) (events.Publisher, func(), error) {
	if cfg.RabbitURL == "" {
		return events.Nop{}, func() {}, nil
	}
	r, err := events.NewRabbit(cfg.RabbitURL, cfg.EventsExchange)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rabbit: %w", err)
	}
	log.Info().Str("exchange", cfg.EventsExchange).Msg("publishing commit events")
	return r, r.Close, nil
}

func newCommitter(cfg model.AppConfig, st *store.Store, pub events.Publisher) *commit.Committer {
	c := commit.New(st, pub, log.Logger.With().Str("component", "commit").Logger())
	c.DefaultLocation = cfg.DefaultLocation
	return c
}

func gcodeSettings(cfg model.AppConfig) gcode.Settings {
	s := gcode.DefaultSettings()
	s.Profile = cfg.GCodeProfile
	s.ShelfTolerance = cfg.PlanSettings().ShelfTolerance
	return s
}

func runServe(cfg model.AppConfig, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.ListenAddr, "listen address")
	accessLog := fs.Bool("access-log", true, "log every request")
	_ = fs.Parse(args)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	pub, closePub, err := publisher(cfg)
	if err != nil {
		return err
	}
	defer closePub()

	profiles, err := project.LoadCustomProfiles(project.DefaultProfilesPath())
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	srv, err := server.New(st, newCommitter(cfg, st, pub), server.Config{
		Settings:  cfg.PlanSettings(),
		GCode:     gcodeSettings(cfg),
		Profiles:  profiles,
		CacheSize: cfg.PlanCacheSize,
		Logger:    log.Logger.With().Str("component", "server").Logger(),
		AccessLog: *accessLog,
	})
	if err != nil {
		return err
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Warn().Msg("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	return srv.Listen(*addr)
}

func runImport(cfg model.AppConfig, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	kind := fs.String("kind", "requests", "what the file holds: requests or stock")
	material := fs.String("material", "", "material for rows without one")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("import: no files given")
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	opts := importer.ImportOptions{DefaultMaterial: *material}
	for _, path := range fs.Args() {
		excel := isExcel(path)
		var errs, warnings []string
		var added int

		switch *kind {
		case "requests":
			res := importer.ImportCSV(path, opts)
			if excel {
				res = importer.ImportExcel(path, opts)
			}
			errs, warnings = res.Errors, res.Warnings
			for _, r := range res.Requests {
				if _, err := st.AddCutRequest(ctx, r); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				added++
			}
		case "stock":
			res := importer.ImportStockCSV(path, opts)
			if excel {
				res = importer.ImportStockExcel(path, opts)
			}
			errs, warnings = res.Errors, res.Warnings
			for _, sh := range res.Stock.Sheets {
				if _, err := st.AddSheet(ctx, sh); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				added++
			}
			for _, r := range res.Stock.Remnants {
				if _, err := st.AddRemnant(ctx, r); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				added++
			}
		default:
			return fmt.Errorf("import: unknown kind %q", *kind)
		}

		for _, w := range warnings {
			log.Warn().Str("file", path).Msg(w)
		}
		for _, e := range errs {
			log.Error().Str("file", path).Msg(e)
		}
		log.Info().Str("file", path).Str("kind", *kind).Int("added", added).Int("errors", len(errs)).Msg("imported")
	}
	return nil
}

func isExcel(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

type planFlags struct {
	materials string
	input     string
	saveInput string
	order     string
	pdf       string
	labels    string
	xlsx      string
	dxfDir    string
	gcodeDir  string
	pngDir    string
	pngSize   int
	compare   bool
	commit    bool
}

func runPlan(cfg model.AppConfig, args []string) error {
	var pf planFlags
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	fs.StringVar(&pf.materials, "materials", "", "comma separated materials, default all")
	fs.StringVar(&pf.input, "input", "", "plan from a JSON snapshot instead of the database")
	fs.StringVar(&pf.saveInput, "save-input", "", "write the requests and stock used to a JSON snapshot")
	fs.StringVar(&pf.order, "remnant-order", "", "ascending or descending, overrides config")
	fs.StringVar(&pf.pdf, "pdf", "", "write the plan report PDF")
	fs.StringVar(&pf.labels, "labels", "", "write cut labels PDF")
	fs.StringVar(&pf.xlsx, "xlsx", "", "write the cut list workbook")
	fs.StringVar(&pf.dxfDir, "dxf", "", "write one DXF per piece into this directory")
	fs.StringVar(&pf.gcodeDir, "gcode", "", "write one scoring program per piece into this directory")
	fs.StringVar(&pf.pngDir, "png", "", "write one PNG preview per piece into this directory")
	fs.IntVar(&pf.pngSize, "png-size", 800, "preview size in pixels")
	fs.BoolVar(&pf.compare, "compare", false, "compare remnant policies before planning")
	fs.BoolVar(&pf.commit, "commit", false, "commit the plan to inventory")
	_ = fs.Parse(args)

	if pf.input != "" && pf.commit {
		return errors.New("plan: -commit needs database input, not -input")
	}

	settings := cfg.PlanSettings()
	switch model.RemnantOrder(pf.order) {
	case "":
	case model.RemnantsSmallestFirst, model.RemnantsLargestFirst:
		settings.RemnantOrder = model.RemnantOrder(pf.order)
	default:
		return fmt.Errorf("plan: unknown remnant order %q", pf.order)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var st *store.Store
	if pf.input == "" || pf.commit {
		var err error
		if st, err = store.Open(cfg.DatabasePath); err != nil {
			return err
		}
		defer st.Close()
	}

	input, err := loadInput(ctx, st, pf)
	if err != nil {
		return err
	}
	if pf.saveInput != "" {
		if err := project.SaveSnapshot(pf.saveInput, input); err != nil {
			return err
		}
	}

	if pf.compare {
		results := engine.CompareScenarios(engine.BuildDefaultScenarios(settings), input.Requests, input.Stock)
		printComparison(results)
	}

	plan := engine.New(settings).WithLogger(log.Logger).Optimize(input.Requests, input.Stock)
	plan.RunID = model.NewID()
	printPlan(plan)

	if err := writeOutputs(cfg, plan, pf); err != nil {
		return err
	}

	if !pf.commit {
		return nil
	}
	pub, closePub, err := publisher(cfg)
	if err != nil {
		return err
	}
	defer closePub()

	report, err := newCommitter(cfg, st, pub).Commit(ctx, plan)
	log.Info().
		Int("committed", report.Committed()).
		Int("conflicts", report.Conflicts()).
		Int("skipped", report.Skipped()).
		Msg("commit finished")
	if err != nil {
		return err
	}
	if report.Stale() {
		return errors.New("inventory changed during commit, re-run the plan for the remaining cuts")
	}
	return nil
}

func loadInput(ctx context.Context, st *store.Store, pf planFlags) (project.PlanInput, error) {
	if pf.input != "" {
		return project.LoadSnapshot(pf.input)
	}
	var materials []string
	if pf.materials != "" {
		materials = strings.Split(pf.materials, ",")
	}
	requests, err := st.PendingRequests(ctx, materials...)
	if err != nil {
		return project.PlanInput{}, err
	}
	stock, err := st.Snapshot(ctx, materials...)
	if err != nil {
		return project.PlanInput{}, err
	}
	return project.PlanInput{Requests: requests, Stock: stock}, nil
}

func writeOutputs(cfg model.AppConfig, plan model.Plan, pf planFlags) error {
	if len(plan.Pieces) == 0 {
		if pf.pdf != "" || pf.labels != "" || pf.dxfDir != "" || pf.gcodeDir != "" || pf.pngDir != "" {
			log.Warn().Msg("nothing placed, skipping layout outputs")
		}
		if pf.xlsx != "" {
			return export.ExportCutList(pf.xlsx, plan)
		}
		return nil
	}

	if pf.pdf != "" {
		if err := export.ExportPDF(pf.pdf, plan); err != nil {
			return err
		}
		log.Info().Str("file", pf.pdf).Msg("report written")
	}
	if pf.labels != "" {
		if err := export.ExportLabels(pf.labels, plan); err != nil {
			return err
		}
		log.Info().Str("file", pf.labels).Msg("labels written")
	}
	if pf.xlsx != "" {
		if err := export.ExportCutList(pf.xlsx, plan); err != nil {
			return err
		}
		log.Info().Str("file", pf.xlsx).Msg("cut list written")
	}
	if pf.dxfDir != "" {
		if err := os.MkdirAll(pf.dxfDir, 0755); err != nil {
			return err
		}
		paths, err := export.ExportPlanDXF(pf.dxfDir, plan)
		if err != nil {
			return err
		}
		log.Info().Str("dir", pf.dxfDir).Int("files", len(paths)).Msg("dxf written")
	}
	if pf.gcodeDir != "" {
		if err := os.MkdirAll(pf.gcodeDir, 0755); err != nil {
			return err
		}
		profiles, err := project.LoadCustomProfiles(project.DefaultProfilesPath())
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}
		paths, err := gcode.New(gcodeSettings(cfg), profiles...).ExportPlan(pf.gcodeDir, plan)
		if err != nil {
			return err
		}
		log.Info().Str("dir", pf.gcodeDir).Int("files", len(paths)).Msg("scoring programs written")
	}
	if pf.pngDir != "" {
		if err := writePreviews(pf.pngDir, plan, pf.pngSize); err != nil {
			return err
		}
	}
	return nil
}

func writePreviews(dir string, plan model.Plan, size int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, p := range plan.Pieces {
		path := filepath.Join(dir, fmt.Sprintf("piece-%02d.png", p.Index))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.RenderPiecePNG(f, p, size); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	log.Info().Str("dir", dir).Int("files", len(plan.Pieces)).Msg("previews written")
	return nil
}

func printPlan(plan model.Plan) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PIECE\tSOURCE\tSIZE\tCUTS\tEFFICIENCY\tKEEP\n")
	for _, p := range plan.Pieces {
		source := p.Kind.String() + " " + p.SourceID
		if p.Label != "" {
			source = p.Kind.String() + " " + p.Label
		}
		fmt.Fprintf(tw, "%d\t%s\t%dx%d\t%d\t%.1f%%\t%d\n",
			p.Index, source, p.Width, p.Height, len(p.Cuts), p.Efficiency(), len(p.SavedRemnants()))
	}
	tw.Flush()

	fmt.Printf("\n%d sheets, %d remnants, %s cuts placed, %.1f%% efficiency, %s mm² kept\n",
		plan.SheetsUsed(), plan.RemnantsUsed(), humanize.Comma(int64(plan.PlacedCount())),
		plan.TotalEfficiency(), humanize.Comma(int64(plan.ReusableArea())))
	for _, e := range plan.Excluded {
		fmt.Printf("excluded %s (%dx%d, %s): %s\n", e.Cut.Label(), e.Cut.Width, e.Cut.Height, e.Cut.MaterialID, e.Reason)
	}
	for _, id := range plan.Malformed {
		fmt.Printf("malformed request %s\n", id)
	}
}

func printComparison(results []engine.ComparisonResult) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "SCENARIO\tSHEETS\tREMNANTS\tPLACED\tWASTE\tKEPT mm²\tEXCLUDED\n")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f%%\t%s\t%d\n",
			r.Scenario.Name, r.SheetsUsed, r.RemnantsUsed, r.PlacedCuts,
			r.WastePercent, humanize.Comma(int64(r.ReusableArea)), r.ExcludedCount)
	}
	tw.Flush()
	fmt.Println()
}
