// Command agrictl runs the advisory core from the command line and prints JSON.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/agrisense/advisor/advisory"
	"github.com/agrisense/advisor/crops"
	"github.com/agrisense/advisor/internal/httpapi"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/location"
	"github.com/agrisense/advisor/market"
	"github.com/agrisense/advisor/rules"
	"github.com/agrisense/advisor/weather"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "agrictl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "agrictl",
		Usage: "crop, weather and market advice for Nepali farms",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "trace, debug, info, warn or error"},
			&cli.Int64Flag{Name: "seed", Usage: "random seed for synthetic data (default: current time)"},
		},
		Before: func(c *cli.Context) error {
			level, err := logger.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			logger.Setup(logger.Options{Dev: true, Level: level, ServiceName: "agrictl", Output: os.Stderr})
			return nil
		},
		Writer: out,
		Commands: []*cli.Command{
			classifyCommand(),
			recommendCommand(),
			alertsCommand(),
			trendCommand(),
			zoneCommand(),
			yieldCommand(),
			tokenCommand(),
		},
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rng(c *cli.Context) *rand.Rand {
	seed := c.Int64("seed")
	if !c.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// locate resolves --lat/--lon (and optional --alt) or --district
func locate(c *cli.Context) (location.Location, error) {
	if c.IsSet("lat") && c.IsSet("lon") {
		var alt *float64
		if c.IsSet("alt") {
			v := c.Float64("alt")
			alt = &v
		}
		return location.Classify(c.Float64("lat"), c.Float64("lon"), alt), nil
	}
	if d := c.String("district"); d != "" {
		return location.FromDistrict(d)
	}
	return location.Location{}, errors.New("either --lat and --lon, or --district, is required")
}

func locationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "lat", Usage: "latitude in degrees"},
		&cli.Float64Flag{Name: "lon", Usage: "longitude in degrees"},
		&cli.Float64Flag{Name: "alt", Usage: "altitude in metres, if known"},
		&cli.StringFlag{Name: "district", Usage: "district name, e.g. Kaski"},
	}
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "resolve the nearest district and climate zone",
		Flags: locationFlags(),
		Action: func(c *cli.Context) error {
			loc, err := locate(c)
			if err != nil {
				return err
			}
			return printJSON(c, loc)
		},
	}
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "recommend up to three crops for field conditions",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "temp", Usage: "temperature in °C", Required: true},
			&cli.Float64Flag{Name: "rain", Usage: "rainfall in mm", Required: true},
			&cli.StringFlag{Name: "soil", Usage: "Clay, Sandy or Loam", Required: true},
			&cli.StringFlag{Name: "moisture", Usage: "Low, Medium or High", Required: true},
			&cli.Float64Flag{Name: "elevation", Usage: "elevation in metres"},
		},
		Action: func(c *cli.Context) error {
			store := rules.NewInMemoryRuleStore()
			if _, err := rules.SeedDefaults(store); err != nil {
				return err
			}
			engine, err := rules.NewEngine(store)
			if err != nil {
				return err
			}

			picks, err := engine.Recommend(rules.Conditions{
				TempC:      c.Float64("temp"),
				RainMm:     c.Float64("rain"),
				Soil:       rules.Soil(c.String("soil")),
				Moisture:   rules.Moisture(c.String("moisture")),
				ElevationM: c.Float64("elevation"),
			}.Normalize())
			if err != nil {
				return err
			}
			return printJSON(c, map[string]any{"crops": picks})
		},
	}
}

func alertsCommand() *cli.Command {
	return &cli.Command{
		Name:  "alerts",
		Usage: "weather alerts for a location, from Open-Meteo or a synthetic series",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "live", Usage: "fetch the forecast from Open-Meteo"},
			&cli.StringFlag{Name: "base-url", Value: weather.DefaultBaseURL, Usage: "forecast API endpoint"},
			&cli.IntFlag{Name: "days", Value: 10, Usage: "length of the synthetic series"},
			&cli.IntFlag{Name: "cap", Value: weather.DisplayCap, Usage: "maximum alerts shown; 0 shows all"},
		}, locationFlags()...),
		Action: func(c *cli.Context) error {
			loc, err := locate(c)
			if err != nil {
				return err
			}

			var f weather.Forecast
			if days := c.Int("days"); !c.Bool("live") && days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}
			if c.Bool("live") {
				client := weather.NewClient(c.String("base-url"), weather.DefaultTimeout,
					weather.WithLogger(slog.Default()),
					weather.WithDegradedHook(logger.WarnDegradedFetch),
				)
				f = client.Forecast(c.Context, loc.Latitude, loc.Longitude)
			} else {
				f = weather.Forecast{
					Latitude:  loc.Latitude,
					Longitude: loc.Longitude,
					Days:      weather.Synthetic(loc.ClimateZone, c.Int("days"), rng(c)),
				}
			}

			alerts := weather.BuildAlerts(f.Days)
			if limit := c.Int("cap"); limit > 0 {
				alerts = weather.DisplayAlerts(f.Days, limit)
			}
			return printJSON(c, map[string]any{
				"location": loc,
				"forecast": f,
				"alerts":   alerts,
				"insights": weather.Insights(f.Days),
			})
		},
	}
}

func trendCommand() *cli.Command {
	return &cli.Command{
		Name:      "trend",
		Usage:     "analyse a price series; a random walk is used when no prices are given",
		ArgsUsage: "[price...]",
		Action: func(c *cli.Context) error {
			prices := make([]float64, 0, c.NArg())
			for _, arg := range c.Args().Slice() {
				p, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", arg, err)
				}
				prices = append(prices, p)
			}
			if len(prices) == 0 {
				prices = market.RandomWalk(rng(c), market.DefaultWalkLength)
			}
			return printJSON(c, map[string]any{
				"prices":   prices,
				"analysis": market.AnalyzeTrend(prices),
			})
		},
	}
}

func zoneCommand() *cli.Command {
	return &cli.Command{
		Name:      "zone",
		Usage:     "crop suggestions and schemes for a climate zone",
		ArgsUsage: "<terai|midhill|highhill>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "lang", Value: "en", Usage: "en or ne"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one zone is required")
			}
			zone, err := location.ParseZone(c.Args().First())
			if err != nil {
				return err
			}
			lang, err := advisory.ParseLanguage(c.String("lang"))
			if err != nil {
				return err
			}
			return printJSON(c, map[string]any{
				"zone":        zone,
				"suggestions": crops.ZoneSuggestions(zone),
				"schemes":     advisory.Schemes(zone, lang),
			})
		},
	}
}

func yieldCommand() *cli.Command {
	return &cli.Command{
		Name:  "yield",
		Usage: "estimate production in tonnes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "crop", Required: true},
			&cli.Float64Flag{Name: "land", Usage: "land in hectares", Required: true},
			&cli.Float64Flag{Name: "per-hectare", Usage: "override the reference yield (t/ha)"},
		},
		Action: func(c *cli.Context) error {
			est, err := advisory.EstimateYield(c.String("crop"), c.Float64("land"), c.Float64("per-hectare"))
			if err != nil {
				return err
			}
			return printJSON(c, est)
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an admin bearer token for the rules API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", EnvVars: []string{"ADMIN_JWT_SECRET"}, Required: true},
			&cli.StringFlag{Name: "subject", Value: "admin"},
			&cli.DurationFlag{Name: "ttl", Value: time.Hour},
		},
		Action: func(c *cli.Context) error {
			token, err := httpapi.IssueAdminToken(c.String("secret"), c.String("subject"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}
