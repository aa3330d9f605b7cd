package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"rampfit/adapters/excel"
	"rampfit/adapters/postgres"
	"rampfit/app"
	"rampfit/domain/core"
	"rampfit/domain/ramp"
	"rampfit/internal"
	"rampfit/internal/config"
	"rampfit/internal/jump"
	"rampfit/ports"
)

// exposureFile is the on-disk exposure format consumed by the CLI.
type exposureFile struct {
	ExposureID  string      `json:"exposure_id"`
	ReadPattern [][]int     `json:"read_pattern"`
	ReadTime    float64     `json:"read_time"`
	Resultants  [][]float64 `json:"resultants"`
	ReadNoise   []float64   `json:"read_noise"`
	DQ          [][]bool    `json:"dq,omitempty"`
	Columns     int         `json:"columns,omitempty"`
}

// summaryColumns resolves the jump-test column count for the summary: the
// file's explicit value, or one test per difference column (one fewer than
// the resultants).
func summaryColumns(fileColumns int, pattern *ramp.ReadPattern) int {
	if fileColumns > 0 {
		return fileColumns
	}
	return pattern.Len() - 1
}

func main() {
	var (
		inputPath  = flag.String("input", "", "path to exposure JSON file (required)")
		reportPath = flag.String("report", "", "write an Excel report to this path")
		persist    = flag.Bool("persist", false, "persist the summary via DATABASE_URL")
		asJSON     = flag.Bool("json", false, "print the full fit as JSON instead of a summary")
	)
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logger := internal.NewDefaultLogger()

	raw, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatal("Failed to read exposure file: ", err)
	}
	var file exposureFile
	if err := json.Unmarshal(raw, &file); err != nil {
		log.Fatal("Failed to parse exposure file: ", err)
	}

	pattern, err := ramp.NewReadPattern(file.ReadPattern, file.ReadTime)
	if err != nil {
		log.Fatal("Invalid read pattern: ", err)
	}

	exposure := &app.Exposure{
		ID:         core.ExposureID(file.ExposureID),
		Pattern:    pattern,
		Resultants: file.Resultants,
		ReadNoise:  file.ReadNoise,
		DQ:         file.DQ,
	}
	if exposure.ID == "" {
		exposure.ID = core.ExposureID(core.NewID())
	}

	threshold := jump.Threshold{
		Intercept: cfg.Fit.ThresholdIntercept,
		Constant:  cfg.Fit.ThresholdConstant,
	}
	pipeline := app.NewPipeline(threshold, cfg.Fit.UseJump, cfg.Fit.Workers, logger)

	imageFit, err := pipeline.FitImage(context.Background(), exposure)
	if err != nil {
		log.Fatal("Fit failed: ", err)
	}

	columns := summaryColumns(file.Columns, pattern)
	summary, err := pipeline.Summarize(imageFit, columns)
	if err != nil {
		log.Fatal("Summary failed: ", err)
	}

	if *asJSON {
		out, err := json.MarshalIndent(struct {
			Fit     *app.ImageFit `json:"fit"`
			Summary interface{}   `json:"summary"`
		}{imageFit, summary}, "", "  ")
		if err != nil {
			log.Fatal("Failed to encode fit: ", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Printf("exposure %s: %d pixels fit in %dms\n",
			imageFit.ExposureID.String(), summary.Pixels, imageFit.RuntimeMs)
		fmt.Printf("  slope mean=%.4f median=%.4f stddev=%.4f\n",
			summary.MeanSlope, summary.MedianSlope, summary.StdDevSlope)
		fmt.Printf("  slope p05=%.4f p95=%.4f\n", summary.P05Slope, summary.P95Slope)
		fmt.Printf("  jumps: %d pixels flagged, %d resultants excluded (expected false: %.2f)\n",
			summary.JumpPixels, summary.JumpCount, summary.ExpectedFalseJumps)
	}

	if *reportPath != "" {
		if err := excel.NewReportWriter(*reportPath).Write(imageFit, summary); err != nil {
			log.Fatal("Report export failed: ", err)
		}
		logger.Info("wrote report to %s", *reportPath)
	}

	if *persist {
		if cfg.Database.URL == "" {
			log.Fatal("Persistence requested but DATABASE_URL is not set")
		}
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatal("Database connection failed: ", err)
		}
		defer db.Close()
		ctx := context.Background()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatal("Schema migration failed: ", err)
		}
		record := &ports.FitSummaryRecord{
			ID:         core.FitRunID(core.NewID()),
			ExposureID: imageFit.ExposureID,
			Pixels:     summary.Pixels,
			Summary:    summary,
			CreatedAt:  time.Now().UTC(),
		}
		if err := postgres.NewFitRepository(db).SaveSummary(ctx, record); err != nil {
			log.Fatal("Failed to save summary: ", err)
		}
		fmt.Printf("saved summary %s\n", record.ID.String())
	}
}
