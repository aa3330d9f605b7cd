package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rampfit/app"
	"rampfit/domain/core"
	"rampfit/internal/report"
)

func TestReportWriter_Write(t *testing.T) {
	imageFit := &app.ImageFit{
		ExposureID:  core.ExposureID("exp-1"),
		Slopes:      []float64{10, 11, 12},
		ReadVars:    []float64{1, 1, 1},
		PoissonVars: []float64{2, 2, 2},
		Jumps:       [][]int{nil, {2, 3}, nil},
	}
	summary := &report.Summary{
		Pixels:       3,
		FinitePixels: 3,
		JumpPixels:   1,
		JumpCount:    2,
		MeanSlope:    11,
		MedianSlope:  11,
	}

	path := filepath.Join(t.TempDir(), "fit.xlsx")
	writer := NewReportWriter(path)
	require.NoError(t, writer.Write(imageFit, summary))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got)

	got, err = f.GetCellValue("Pixels", "B2")
	require.NoError(t, err)
	assert.Equal(t, "10", got)

	got, err = f.GetCellValue("Pixels", "E3")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestReportWriter_Validation(t *testing.T) {
	writer := NewReportWriter(filepath.Join(t.TempDir(), "fit.xlsx"))
	assert.Error(t, writer.Write(nil, nil))
}
