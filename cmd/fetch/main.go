package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends"
	"trendwatch/internal/features/trends/migrations"
	"trendwatch/internal/features/trends/services"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup happens before exit
func run(args []string) int {
	flags := flag.NewFlagSet("fetch", flag.ContinueOnError)
	countries := flags.String("countries", "", "comma-separated country names to fetch (default: all configured)")
	noLedger := flags.Bool("no-ledger", false, "do not record runs in the database")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// Load .env file if it exists
	godotenv.Load()

	config, err := core.LoadConfig()
	if err != nil {
		core.NewLogger().Error("Failed to load configuration", "error", err)
		return 1
	}

	logger := core.NewLoggerWithWriter(os.Stdout, core.ParseLevel(config.Log.Level)).ForFeature("trends")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *core.Database
	if !*noLedger {
		db, err = core.OpenSQLite(config.Database.Path, logger)
		if err != nil {
			logger.Error("Failed to open database", "path", config.Database.Path, "error", err)
			return 1
		}
		defer db.Close()

		if err := migrations.NewManager(db, logger).Migrate(ctx); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			return 1
		}
	}

	svc, err := trends.NewServices(logger, db, trends.NewConfig(config))
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		return 1
	}

	records, err := svc.Pipeline.Run(ctx, splitNames(*countries)...)
	if err != nil {
		if errors.Is(err, services.ErrNoCountries) {
			logger.Error("No valid country selected", "countries", *countries)
		} else {
			logger.Error("Fetch run failed", "error", err)
		}
		return 1
	}

	logger.Info("Done", "new_records", len(records))
	return 0
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
