// GlassCut - glass cutting-stock optimizer
//
// Plans the cutting of customer glass requests from full sheets and stored
// remnants, lets a reviewer decide which leftovers to keep, and commits the
// accepted plan to inventory.
//
// Usage:
//
//	glasscut [-config file] [-env file] [-v] <command> [flags]
//
// Commands:
//
//	serve    run the HTTP API
//	import   load cut requests or stock from CSV/XLSX into the database
//	plan     optimize pending requests and write reports
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/glasscut/internal/model"
	"github.com/piwi3910/glasscut/internal/project"
)

type command struct {
	name  string
	usage string
	run   func(cfg model.AppConfig, args []string) error
}

var commands = []command{
	{"serve", "run the HTTP API", runServe},
	{"import", "load cut requests or stock from CSV/XLSX", runImport},
	{"plan", "optimize pending requests and write reports", runPlan},
}

func main() {
	// Logger
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	fs := flag.NewFlagSet("glasscut", flag.ExitOnError)
	configPath := fs.String("config", project.DefaultConfigPath(), "config file")
	envFile := fs.String("env", ".env", "optional .env file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: glasscut [flags] <command> [command flags]\n\ncommands:\n")
		for _, c := range commands {
			fmt.Fprintf(fs.Output(), "  %-8s %s\n", c.name, c.usage)
		}
		fmt.Fprintf(fs.Output(), "\nflags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, *envFile)
	must(err)

	name, args := fs.Arg(0), fs.Args()[1:]
	for _, c := range commands {
		if c.name == name {
			must(c.run(cfg, args))
			return
		}
	}
	fs.Usage()
	os.Exit(2)
}

// loadConfig layers the config file, the .env file and the environment.
func loadConfig(path, envFile string) (model.AppConfig, error) {
	if err := project.LoadEnv(envFile); err != nil {
		return model.AppConfig{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := project.LoadAppConfig(path)
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := project.ApplyEnv(&cfg); err != nil {
		return model.AppConfig{}, err
	}
	log.Debug().
		Str("config", path).
		Str("db", cfg.DatabasePath).
		Bool("events", cfg.RabbitURL != "").
		Msg("configuration loaded")
	return cfg, nil
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
