package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"rampfit/app"
	"rampfit/domain/core"
	"rampfit/internal/report"
)

// ReportWriter exports a fitted exposure to an Excel workbook with a
// Summary sheet and a per-pixel Pixels sheet.
type ReportWriter struct {
	path string
}

// NewReportWriter creates a report writer targeting the given file path.
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// Write renders the workbook and saves it.
func (w *ReportWriter) Write(imageFit *app.ImageFit, summary *report.Summary) error {
	if imageFit == nil || summary == nil {
		return core.NewValidationError("report", "image fit and summary are required")
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	f.SetSheetName("Sheet1", summarySheet)

	summaryRows := [][]interface{}{
		{"Exposure", imageFit.ExposureID.String()},
		{"Pixels", summary.Pixels},
		{"Finite pixels", summary.FinitePixels},
		{"Pixels with jumps", summary.JumpPixels},
		{"Flagged resultants", summary.JumpCount},
		{"Mean slope", summary.MeanSlope},
		{"Median slope", summary.MedianSlope},
		{"Slope stddev", summary.StdDevSlope},
		{"Slope 5th percentile", summary.P05Slope},
		{"Slope 95th percentile", summary.P95Slope},
		{"Expected false jumps", summary.ExpectedFalseJumps},
		{"Runtime ms", imageFit.RuntimeMs},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	const pixelSheet = "Pixels"
	if _, err := f.NewSheet(pixelSheet); err != nil {
		return fmt.Errorf("failed to create pixel sheet: %w", err)
	}

	header := []interface{}{"Pixel", "Slope", "Read variance", "Poisson variance", "Jumps"}
	if err := f.SetSheetRow(pixelSheet, "A1", &header); err != nil {
		return err
	}
	for i := range imageFit.Slopes {
		row := []interface{}{
			i,
			imageFit.Slopes[i],
			imageFit.ReadVars[i],
			imageFit.PoissonVars[i],
			len(imageFit.Jumps[i]),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(pixelSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write pixel row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save report workbook: %w", err)
	}
	return nil
}
