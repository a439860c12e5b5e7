// cmd/analytics/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/app"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/config"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/optimizer"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/service"
	"github.com/andresuchdata/supplychain-ai/backend-go/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// query runs one analytics call and returns its JSON-ready result.
type query func(c *cli.Context, svc *service.AnalyticsService) (any, error)

func main() {
	cliApp := &cli.App{
		Name:  "analytics",
		Usage: "Run analytics queries against the database and print JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Database connection string",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "solver",
				Usage:   "Reorder solver: closed_form or simplex",
				EnvVars: []string{"ANALYTICS_SOLVER"},
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent JSON output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "summary",
				Usage: "Total units and revenue per SKU",
				Action: run(func(c *cli.Context, svc *service.AnalyticsService) (any, error) {
					return svc.Summary(c.Context)
				}),
			},
			{
				Name:  "low-stock",
				Usage: "SKUs whose latest on-hand is below the threshold",
				Action: run(func(c *cli.Context, svc *service.AnalyticsService) (any, error) {
					return svc.LowStock(c.Context)
				}),
			},
			{
				Name:  "forecast",
				Usage: "Trailing-window average daily demand per SKU",
				Action: run(func(c *cli.Context, svc *service.AnalyticsService) (any, error) {
					return svc.DemandForecast(c.Context)
				}),
			},
			{
				Name:  "optimize",
				Usage: "Suggested reorder quantities",
				Action: run(func(c *cli.Context, svc *service.AnalyticsService) (any, error) {
					return svc.OptimizeInventory(c.Context)
				}),
			},
			{
				Name:  "latest-plan",
				Usage: "Last archived reorder plan",
				Action: run(func(c *cli.Context, svc *service.AnalyticsService) (any, error) {
					return svc.LatestPlan(c.Context)
				}),
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("analytics failed")
	}
}

func run(q query) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := config.Load()
		logger.Setup(cfg.Env, cfg.Server.LogLevel)

		if url := c.String("db-url"); url != "" {
			cfg.Database.URL = url
		}
		if solver := c.String("solver"); solver != "" {
			if _, err := optimizer.NewSolver(solver); err != nil {
				return err
			}
			cfg.Analytics.Solver = solver
		}

		a, err := app.New(c.Context, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := q(c, a.Analytics)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, result, c.Bool("pretty"))
	}
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
