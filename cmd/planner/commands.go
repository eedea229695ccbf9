package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/api/rates"
	"github.com/FACorreiaa/go-trip-planner/internal/api/weather"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var errOffline = errors.New("offline")

// Context is shared by every command.
type Context struct {
	Repo    *itinerary.MemoryRepository
	Service itinerary.Service
	Out     io.Writer
}

func newContext(offline bool, ratesURL string, out io.Writer, logger *slog.Logger) *Context {
	var (
		rateFetcher    rates.Fetcher   = rates.NewFrankfurterClient(ratesURL, 0)
		weatherFetcher weather.Fetcher = weather.NewOpenMeteoClient("", "", 0)
	)
	if offline {
		rateFetcher = rates.FetcherFunc(func(context.Context, time.Time, string, string) (decimal.Decimal, error) {
			return decimal.Zero, errOffline
		})
		weatherFetcher = offlineWeather{}
	}

	repo := itinerary.NewMemoryRepository()
	svc := itinerary.NewServiceImpl(
		repo,
		rates.NewCache(rateFetcher, nil, rates.Config{}, logger),
		weather.NewOverlay(weatherFetcher, nil, weather.Config{}, logger),
		itinerary.Config{},
		logger,
	)
	return &Context{Repo: repo, Service: svc, Out: out}
}

// offlineWeather fails every lookup so the overlay answers from climatology.
type offlineWeather struct{}

func (offlineWeather) Forecast(context.Context, time.Time, types.Coordinates) (weather.Daily, error) {
	return weather.Daily{}, errOffline
}

func (offlineWeather) Seasonal(context.Context, time.Time, types.Coordinates) (weather.Daily, error) {
	return weather.Daily{}, errOffline
}

// snapshot is the input file of the generate command.
type snapshot struct {
	Trip        types.TripConfig   `json:"trip"`
	Suggestions []types.Suggestion `json:"suggestions"`
}

type GenerateCmd struct {
	Input    string `arg:"" help:"Trip snapshot JSON file ({trip, suggestions})." type:"existingfile"`
	Currency string `help:"Also print the budget in this currency."`
}

type generateOutput struct {
	Plan   *types.Plan   `json:"plan"`
	Budget *types.Budget `json:"budget,omitempty"`
}

func (c *GenerateCmd) Run(ctx *Context) error {
	raw, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", c.Input, err)
	}
	if snap.Trip.ID == uuid.Nil {
		snap.Trip.ID = uuid.New()
	}
	for i := range snap.Suggestions {
		snap.Suggestions[i].TripID = snap.Trip.ID
	}
	ctx.Repo.PutTrip(snap.Trip, snap.Suggestions)

	bg := context.Background()
	plan, err := ctx.Service.GeneratePlan(bg, snap.Trip.ID)
	if err != nil {
		return err
	}
	out := generateOutput{Plan: plan}
	if c.Currency != "" {
		if out.Budget, err = ctx.Service.GetBudget(bg, snap.Trip.ID, c.Currency); err != nil {
			return err
		}
	}
	return writeJSON(ctx.Out, out)
}

type ConvertCmd struct {
	Amount string `arg:"" help:"Amount to convert."`
	From   string `arg:"" help:"Source currency."`
	To     string `arg:"" help:"Target currency."`
	Date   string `help:"Rate date (YYYY-MM-DD). Defaults to today."`
}

func (c *ConvertCmd) Run(ctx *Context) error {
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", c.Amount, err)
	}
	onDate := time.Now().UTC()
	if c.Date != "" {
		if onDate, err = time.Parse("2006-01-02", c.Date); err != nil {
			return fmt.Errorf("date %q: %w", c.Date, err)
		}
	}
	conv, err := ctx.Service.Convert(context.Background(), amount, c.From, c.To, onDate)
	if err != nil {
		return err
	}
	return writeJSON(ctx.Out, conv)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
