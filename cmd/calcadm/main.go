package main

import (
	"context"
	"log"
	"os"
	"slices"

	"github.com/jengacalc/jengacalc/internal/admin"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repomanager"
	"github.com/jengacalc/jengacalc/internal/server/services"
	"github.com/jengacalc/jengacalc/internal/timex"
)

var valueFlags = []string{"-c", "-config", "-a", "-u", "-b", "-d", "-m", "-r", "-s", "-l", "-f"}

func main() {
	ctx := context.Background()

	flags, args := admin.SplitArgs(os.Args[1:], valueFlags)
	assumeYes := slices.Contains(flags, "-y")

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, "warn", cfg.LogFormat)

	rm, err := repomanager.New(ctx, cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		log.Fatalf("migrations error: %v", err)
	}

	now := timex.Clock(timex.SystemClock)
	app := admin.NewApp(
		services.NewAccessService(rm, cfg, now, logger),
		services.NewActivatorService(rm, cfg, now, logger),
		os.Stdin, os.Stdout, assumeYes,
	)

	code := app.Run(ctx, args)
	_ = rm.Close(ctx)
	os.Exit(code)
}
