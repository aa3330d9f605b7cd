package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rampfit/app"
	"rampfit/domain/core"
	"rampfit/domain/ramp"
	"rampfit/internal/jump"
	"rampfit/internal/report"
	"rampfit/ports"
)

// FitRequest describes one exposure to fit. ReadPattern lists, per
// resultant, the 1-based indices of the reads averaged into it; ReadTime is
// the interval between consecutive reads.
type FitRequest struct {
	ExposureID  string      `json:"exposure_id,omitempty"`
	ReadPattern [][]int     `json:"read_pattern"`
	ReadTime    float64     `json:"read_time"`
	Resultants  [][]float64 `json:"resultants"`
	ReadNoise   []float64   `json:"read_noise"`
	DQ          [][]bool    `json:"dq,omitempty"`

	UseJump            *bool    `json:"use_jump,omitempty"`
	ThresholdIntercept *float64 `json:"threshold_intercept,omitempty"`
	ThresholdConstant  *float64 `json:"threshold_constant,omitempty"`

	Persist bool `json:"persist,omitempty"`
}

// FitResponse carries the fitted image and its summary.
type FitResponse struct {
	Fit     *app.ImageFit   `json:"fit"`
	Summary *report.Summary `json:"summary"`
	RunID   string          `json:"run_id,omitempty"`
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	pattern, err := ramp.NewReadPattern(req.ReadPattern, req.ReadTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	threshold := jump.DefaultThreshold()
	if req.ThresholdIntercept != nil {
		threshold.Intercept = *req.ThresholdIntercept
	}
	if req.ThresholdConstant != nil {
		threshold.Constant = *req.ThresholdConstant
	}
	useJump := true
	if req.UseJump != nil {
		useJump = *req.UseJump
	}

	exposureID := core.ExposureID(req.ExposureID)
	if exposureID == "" {
		exposureID = core.ExposureID(core.NewID())
	}
	exposure := &app.Exposure{
		ID:         exposureID,
		Pattern:    pattern,
		Resultants: req.Resultants,
		ReadNoise:  req.ReadNoise,
		DQ:         req.DQ,
	}

	pipeline := app.NewPipeline(threshold, useJump, s.workers, s.logger)
	imageFit, err := pipeline.FitImage(r.Context(), exposure)
	if err != nil {
		if core.IsValidationError(err) || errors.Is(err, core.ErrInsufficientData) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("fit failed for exposure %s: %v", exposureID.String(), err)
		respondError(w, http.StatusInternalServerError, "fit failed")
		return
	}

	summary, err := pipeline.Summarize(imageFit, pattern.Len()-1)
	if err != nil {
		s.logger.Error("summarize failed for exposure %s: %v", exposureID.String(), err)
		respondError(w, http.StatusInternalServerError, "summarize failed")
		return
	}

	resp := FitResponse{Fit: imageFit, Summary: summary}

	if req.Persist && s.repo != nil {
		record := &ports.FitSummaryRecord{
			ExposureID: exposureID,
			Pixels:     exposure.Pixels(),
			Summary:    summary,
		}
		if err := s.repo.SaveSummary(r.Context(), record); err != nil {
			s.logger.Error("failed to persist fit summary for %s: %v", exposureID.String(), err)
			respondError(w, http.StatusInternalServerError, "failed to persist fit summary")
			return
		}
		resp.RunID = record.ID.String()
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		respondError(w, http.StatusNotImplemented, "persistence not configured")
		return
	}
	records, err := s.repo.ListRecent(r.Context(), 20)
	if err != nil {
		s.logger.Error("failed to list fit summaries: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list fit summaries")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		respondError(w, http.StatusNotImplemented, "persistence not configured")
		return
	}
	id, err := core.ParseFitRunID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := s.repo.GetSummary(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("failed to load fit summary %s: %v", id.String(), err)
		respondError(w, http.StatusInternalServerError, "failed to load fit summary")
		return
	}
	respondJSON(w, http.StatusOK, record)
}
