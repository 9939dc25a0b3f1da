// Command sweep runs a sizing sweep against a site from the command line and
// writes the ranked results as JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/sitemix/sitemix/pkg/cost"
	"github.com/sitemix/sitemix/pkg/log"
	"github.com/sitemix/sitemix/pkg/optimizer"
	"github.com/sitemix/sitemix/pkg/siteload"
	"github.com/sitemix/sitemix/pkg/types"
)

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func main() {
	site := siteload.Configured()
	model := cost.Configured()
	opt := optimizer.Configured(model)

	batteries := lflag.String("battery-kwh", "", "Comma-separated battery capacities to sweep (kWh)")
	panels := lflag.String("panels", "", "Comma-separated panel counts to sweep")
	tariff := lflag.Int("tariff-option", 0, "Import tariff option to simulate")

	lflag.Configure()

	var level slog.Level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx := context.Background()

	batteryKWH, err := parseFloats(*batteries)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid battery-kwh", "error", err)
		os.Exit(1)
	}
	panelCounts, err := parseFloats(*panels)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid panels", "error", err)
		os.Exit(1)
	}

	scenarios := optimizer.Grid(types.Scenario{TariffOption: *tariff}, batteryKWH, panelCounts)
	log.Ctx(ctx).InfoContext(ctx, "sweeping scenarios", slog.Int("count", len(scenarios)))

	results, err := opt.Sweep(ctx, site, scenarios)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "sweep failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, res := range results {
		if res.Err != nil {
			log.Ctx(ctx).WarnContext(ctx, "scenario failed", "error", res.Err)
			continue
		}
		if err := enc.Encode(res); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to write result", "error", err)
			os.Exit(1)
		}
	}
}
