package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/app"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/config"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/drive"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/andresuchdata/supplychain-ai/backend-go/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const appKey = "app"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (sqlite:///path.db or postgres://...)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func newWorkersFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of files ingested concurrently",
		Value: 2,
	}
}

func initApp(c *cli.Context) error {
	cfg := config.Load()
	logger.Setup(cfg.Env, cfg.Server.LogLevel)

	if url := c.String("db-url"); url != "" {
		cfg.Database.URL = url
	}

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	c.App.Metadata[appKey] = a
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.App.Metadata[appKey].(*app.App); ok && a != nil {
		return a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) (*app.App, error) {
	a, ok := c.App.Metadata[appKey].(*app.App)
	if !ok || a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}

func main() {
	cliApp := &cli.App{
		Name:     "seed",
		Usage:    "Load catalogue, sales and inventory data into the database",
		Flags:    []cli.Flag{newDBURLFlag()},
		Metadata: map[string]interface{}{},
		Before:   initApp,
		After:    closeApp,
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Create the schema if it does not exist",
				Action: func(c *cli.Context) error {
					// app.New already migrated; this command exists for deploy scripts.
					if _, err := appFrom(c); err != nil {
						return err
					}
					log.Info().Msg("schema is up to date")
					return nil
				},
			},
			{
				Name:      "products",
				Usage:     "Upsert products from a sku,name,category,unit_cost CSV",
				ArgsUsage: "<file.csv>",
				Action:    seedProducts,
			},
			{
				Name:      "sales",
				Usage:     "Ingest sales files (CSV or XLSX); directories are walked",
				ArgsUsage: "<path>...",
				Flags:     []cli.Flag{newWorkersFlag()},
				Action: func(c *cli.Context) error {
					return seedFacts(c, domain.UploadSales)
				},
			},
			{
				Name:      "inventory",
				Usage:     "Ingest inventory snapshot files (CSV or XLSX); directories are walked",
				ArgsUsage: "<path>...",
				Flags:     []cli.Flag{newWorkersFlag()},
				Action: func(c *cli.Context) error {
					return seedFacts(c, domain.UploadInventory)
				},
			},
			{
				Name:  "drive",
				Usage: "Ingest every sales* and inventory* file in a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "folder-id",
						Usage:   "Drive folder id",
						EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
					},
					&cli.IntFlag{
						Name:    "concurrency",
						Usage:   "Files downloaded and ingested concurrently",
						EnvVars: []string{"GOOGLE_DRIVE_CONCURRENCY"},
						Value:   4,
					},
				},
				Action: seedFromDrive,
			},
			{
				Name:  "replay",
				Usage: "Re-ingest raw uploads archived in object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "prefix",
						Usage:    "Object key prefix, e.g. uploads/sales/2024-01-10",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "download-dir",
						Usage: "Local directory for downloaded objects (default: $APP_UPLOAD_DIR/replay)",
					},
					newWorkersFlag(),
				},
				Action: replayArchive,
			},
			{
				Name:  "reset",
				Usage: "Delete all sales and inventory rows (products are kept)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the reset"},
				},
				Action: resetFacts,
			},
			{
				Name:  "batches",
				Usage: "List recent ingestion batches",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of batches to show"},
				},
				Action: listBatches,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func seedProducts(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("products CSV path is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	count, err := a.Products.ImportCSV(c.Context, f)
	if err != nil {
		return err
	}
	fmt.Printf("upserted %d products from %s\n", count, path)
	return nil
}

func seedFacts(c *cli.Context, kind domain.UploadKind) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file or directory is required")
	}

	paths, err := collectFiles(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV or XLSX files found")
	}

	sources := make([]ingest.Source, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, localSource(kind, path))
	}

	results, err := a.Ingest.IngestAll(c.Context, sources, c.Int("workers"))
	if err != nil {
		return err
	}
	printResults(paths, results)
	return nil
}

func seedFromDrive(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	folderID := c.String("folder-id")
	if folderID == "" {
		return fmt.Errorf("--folder-id is required")
	}

	driveService, err := drive.NewService(c.Context, a.Config.Drive.CredentialsJSON)
	if err != nil {
		return err
	}

	results, err := drive.NewIngestService(driveService, a.Ingest, c.Int("concurrency")).IngestFolder(c.Context, folderID)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%-9s batch=%s inserted=%d skipped=%d\n", r.Kind, r.BatchID, r.RowsInserted, r.RowsSkipped)
	}
	return nil
}

func resetFacts(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	if !c.Bool("yes") {
		return fmt.Errorf("refusing to reset without --yes")
	}

	log.Info().Msg("Resetting fact tables...")
	if err := a.IngestRepo.ResetFacts(c.Context); err != nil {
		return err
	}
	if err := a.Plans.Clear(c.Context); err != nil {
		log.Warn().Err(err).Msg("failed to clear archived reorder plan")
	}
	log.Info().Msg("Fact tables reset successfully")
	return nil
}

func listBatches(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	batches, err := a.Ingest.RecentBatches(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, b := range batches {
		line := fmt.Sprintf("%s %-9s %-9s %-30s inserted=%d skipped=%d",
			b.StartedAt.Format(time.RFC3339), b.Kind, b.Status, b.FileName, b.RowsInserted, b.RowsSkipped)
		if b.ErrorMessage != "" {
			line += " error=" + strconv.Quote(b.ErrorMessage)
		}
		fmt.Println(line)
	}
	return nil
}

func localSource(kind domain.UploadKind, path string) ingest.Source {
	return ingest.Source{
		Name: filepath.Base(path),
		Kind: kind,
		Load: func(ctx context.Context) ([]byte, error) {
			return os.ReadFile(path)
		},
	}
}

// collectFiles expands directories into their CSV and XLSX files, sorted by path.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, err := ingest.DetectFormat(path); err == nil {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func printResults(names []string, results []*domain.UploadResult) {
	for i, r := range results {
		fmt.Printf("%s: batch=%s inserted=%d skipped=%d\n", strings.TrimSpace(names[i]), r.BatchID, r.RowsInserted, r.RowsSkipped)
	}
}
