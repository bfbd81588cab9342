package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/models"
)

// fundSummary is the list view of a configured fund.
type fundSummary struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	WeightMode  models.WeightMode `json:"weight_mode"`
	TotalWeight float64           `json:"total_weight"`
	Holdings    int               `json:"holdings"`
	Fixed       int               `json:"fixed"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// manualPriceRequest accepts the price as a JSON number or as a locale
// string such as "2.769,7345".
type manualPriceRequest struct {
	Price json.RawMessage `json:"price"`
	Date  string          `json:"date"`
}

func (req manualPriceRequest) value() (float64, bool) {
	raw := strings.TrimSpace(string(req.Price))
	if raw == "" || raw == "null" {
		return 0, false
	}
	var text string
	if err := json.Unmarshal(req.Price, &text); err == nil {
		v := common.ParseLocaleNumber(text)
		return v, common.IsAvailable(v)
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

func (s *Server) handleFundList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	funds := s.app.FundService.ListFunds()
	out := make([]fundSummary, len(funds))
	for i, f := range funds {
		out[i] = fundSummary{
			Code:        f.Code,
			Name:        f.Name,
			WeightMode:  f.WeightMode,
			TotalWeight: f.TotalWeight,
			Holdings:    len(f.Holdings),
			Fixed:       len(f.Fixed),
			Warnings:    f.Warnings,
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"funds": out})
}

func (s *Server) handleFundGet(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	fund, err := s.app.FundService.GetFund(code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, fund)
}

// handleFundEstimate runs a fresh cycle. With ?cached=true a stored snapshot
// younger than the freshness window is served instead.
func (s *Server) handleFundEstimate(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	var (
		snap *models.PortfolioSnapshot
		err  error
	)
	if cached, _ := strconv.ParseBool(r.URL.Query().Get("cached")); cached {
		snap, err = s.app.FundService.CachedEstimate(ctx, code)
	} else {
		snap, err = s.app.FundService.Estimate(ctx, code)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// handleFundSnapshot returns the last stored snapshot without running a cycle.
func (s *Server) handleFundSnapshot(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snap, err := s.app.FundService.LatestSnapshot(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleManualPrice(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		o, err := s.app.FundService.GetManualPrice(ctx, code)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, o)

	case http.MethodPut:
		var req manualPriceRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		value, ok := req.value()
		if !ok {
			WriteErrorWithCode(w, http.StatusBadRequest, "price must be a number", "invalid_price")
			return
		}
		o, err := s.app.FundService.SetManualPrice(ctx, code, value, req.Date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, o)

	case http.MethodDelete:
		if err := s.app.FundService.ClearManualPrice(ctx, code); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrFundNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "fund_not_found")
	case errors.Is(err, models.ErrOverrideNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "manual_price_not_found")
	case errors.Is(err, models.ErrSnapshotNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "estimate_not_found")
	case errors.Is(err, models.ErrInvalidPrice):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_price")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		WriteErrorWithCode(w, http.StatusGatewayTimeout, err.Error(), "timeout")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
