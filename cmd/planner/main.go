package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
)

var CLI struct {
	Offline  bool   `help:"Skip rate and weather sources; use bundled tables only."`
	Verbose  bool   `short:"v" help:"Log cache and upstream activity to stderr."`
	RatesURL string `help:"Reference rate source." default:"https://api.frankfurter.app" env:"RATES_URL"`

	Generate GenerateCmd `cmd:"" help:"Generate a plan from a trip snapshot file."`
	Convert  ConvertCmd  `cmd:"" help:"Convert an amount at a date's reference rate."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("planner"),
		kong.Description("Offline trip itinerary generation"),
		kong.UsageOnError(),
	)

	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	appCtx := newContext(CLI.Offline, CLI.RatesURL, os.Stdout, logger)
	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
