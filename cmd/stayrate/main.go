// stayrate CLI - dynamic pricing for perishable stay inventory.
//
// Usage:
//   stayrate score --history history.csv --date 2026-07-18 [options]
//   stayrate score --fallback --competitor-price 100 --date 2026-07-18
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"stayrate/internal/engine"
	"stayrate/internal/history"
	"stayrate/pkg/api"
)

var (
	version = "dev"
	commit  = "none"
)

// Exit codes for CI/CD integration
const (
	ExitSuccess    = 0
	ExitInputError = 10
	ExitScoreError = 11
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:    "stayrate",
		Usage:   "Revenue-maximizing price recommendations for campsite pitches and rooms",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Commands: []*cli.Command{
			scoreCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(ExitScoreError)
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Recommend a price for one stay date or a date range",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "unit", Value: "unit-1", Usage: "Inventory unit identifier"},
			&cli.StringFlag{Name: "date", Required: true, Usage: "Stay date (YYYY-MM-DD)"},
			&cli.IntFlag{Name: "days", Value: 1, Usage: "Number of consecutive dates to score"},
			&cli.StringFlag{Name: "history", Usage: "Path to enriched history CSV"},
			&cli.BoolFlag{Name: "fallback", Usage: "Skip the statistical path even when history suffices"},
			&cli.Float64Flag{Name: "current-price", Usage: "Baseline price for the revenue comparison"},
			&cli.Float64Flag{Name: "competitor-price", Usage: "Competitor reference price"},
			&cli.IntFlag{Name: "capacity", Usage: "Total sellable capacity"},
			&cli.IntFlag{Name: "booked", Usage: "Currently booked capacity"},
			&cli.StringFlag{Name: "mode", Value: "balanced", Usage: "Strategy mode: conservative, balanced, aggressive"},
			&cli.StringFlag{Name: "risk", Value: "balanced", Usage: "Risk posture: conservative, balanced, aggressive"},
			&cli.Float64Flag{Name: "min-price", Value: api.DefaultMinPrice, Usage: "Lowest allowed price"},
			&cli.Float64Flag{Name: "max-price", Value: api.DefaultMaxPrice, Usage: "Highest allowed price"},
			&cli.IntFlag{Name: "bias", Value: api.DefaultFillVsRateBias, Usage: "Fill-vs-rate bias, 0-100"},
			&cli.BoolFlag{Name: "refundable", Usage: "Price a refundable product"},
			&cli.StringFlag{Name: "output", Value: "text", Usage: "Output format: text, json"},
		},
		Action: runScore,
	}
}

func runScore(c *cli.Context) error {
	var obs []api.HistoricalObservation
	if path := c.String("history"); path != "" {
		var err error
		obs, err = history.LoadCSV(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to load history")
			os.Exit(ExitInputError)
		}
		log.Info().Int("rows", len(obs)).Msg("History loaded")
	}

	bias := c.Int("bias")
	req := api.ScoreRequest{
		UnitID:       c.String("unit"),
		StayDate:     c.String("date"),
		CurrentPrice: c.Float64("current-price"),
		Capacity:     c.Int("capacity"),
		Booked:       c.Int("booked"),
		History:      obs,
		FallbackOnly: c.Bool("fallback"),
		Toggles: api.StrategyConfig{
			Mode:           api.StrategyMode(c.String("mode")),
			RiskMode:       api.StrategyMode(c.String("risk")),
			MinPrice:       c.Float64("min-price"),
			MaxPrice:       c.Float64("max-price"),
			FillVsRateBias: &bias,
			Product:        api.Product{Refundable: c.Bool("refundable")},
		},
	}
	if c.IsSet("competitor-price") {
		p := c.Float64("competitor-price")
		req.CompetitorPrice = &p
	}

	eng := engine.New()

	var recs []api.PricingRecommendation
	if days := c.Int("days"); days > 1 {
		batch, err := eng.ScoreBatch(api.BatchScoreRequest{
			ScoreRequest: req,
			StartDate:    req.StayDate,
			Days:         days,
		})
		if err != nil {
			log.Error().Err(err).Msg("Scoring failed")
			os.Exit(ExitInputError)
		}
		recs = batch
	} else {
		rec, err := eng.Score(req)
		if err != nil {
			log.Error().Err(err).Msg("Scoring failed")
			os.Exit(ExitInputError)
		}
		recs = []api.PricingRecommendation{*rec}
	}

	if c.String("output") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	outputText(recs)
	return nil
}

func outputText(recs []api.PricingRecommendation) {
	fmt.Println("\nstayrate price recommendations")
	fmt.Println("==============================")
	for _, rec := range recs {
		fmt.Printf("\n%s  (%s path, confidence: %s)\n", rec.Date, rec.Path, rec.Confidence)
		fmt.Printf("  Recommended price:   %.2f\n", rec.RecommendedPrice)
		fmt.Printf("  Predicted occupancy: %.0f%%\n", rec.PredictedOccupancy*100)
		if rec.CurrentPrice > 0 {
			fmt.Printf("  Revenue impact:      %+.1f%% vs current price %.2f\n", rec.RevenueImpactPercent, rec.CurrentPrice)
		}
		for _, factor := range rec.Explanation {
			fmt.Printf("    - %s\n", factor)
		}
	}
	fmt.Println()
}
