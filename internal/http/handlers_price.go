package http

import (
	"net/http"

	"tiffin/internal/core"
	"tiffin/internal/services"
)

func (s *Server) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	setting, err := s.priceSvc.Get(r.Context(), p.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, setting)
}

type updatePricesRequest struct {
	Breakfast *core.Money `json:"breakfast"`
	Lunch     *core.Money `json:"lunch"`
	Dinner    *core.Money `json:"dinner"`
	Custom    *core.Money `json:"custom"`
}

// handleUpdatePrices merges the provided prices. Absent fields stay as they
// are; an explicit zero is stored as zero.
func (s *Server) handleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	var req updatePricesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	setting, err := s.priceSvc.Update(r.Context(), p.UserID, services.PriceUpdate{
		Breakfast: req.Breakfast,
		Lunch:     req.Lunch,
		Dinner:    req.Dinner,
		Custom:    req.Custom,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboards(p.UserID)
	respondJSON(w, http.StatusOK, setting)
}
