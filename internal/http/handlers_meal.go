package http

import (
	"net/http"
	"strconv"

	"tiffin/internal/core"
	"tiffin/internal/services"
)

type createMealRequest struct {
	Date     string `json:"date"`
	MealType string `json:"mealType"`
	Count    int    `json:"count"`
	Note     string `json:"note"`
}

func (s *Server) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	var req createMealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	meal, err := s.mealSvc.CreateOrUpdate(r.Context(), p.UserID, services.CreateMealInput{
		Date:     req.Date,
		MealType: req.MealType,
		Count:    req.Count,
		Note:     req.Note,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboards(p.UserID)
	respondJSON(w, http.StatusCreated, meal)
}

func (s *Server) handleListMeals(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	q := r.URL.Query()
	meals, err := s.mealSvc.List(r.Context(), p.UserID, services.ListMealsInput{
		Date:      q.Get("date"),
		MealType:  q.Get("mealType"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Ascending: q.Get("order") == "asc",
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if meals == nil {
		meals = []core.MealRecord{}
	}
	respondJSON(w, http.StatusOK, meals)
}

type bulkCreateRequest struct {
	Dates        []string `json:"dates"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	DaysOfWeek   []int    `json:"daysOfWeek"`
	SkipWeekends bool     `json:"skipWeekends"`
	MealType     string   `json:"mealType"`
	Count        int      `json:"count"`
	Note         string   `json:"note"`
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	var req bulkCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.mealSvc.CreateBulk(r.Context(), p.UserID, services.BulkSpec{
		Dates:        req.Dates,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		DaysOfWeek:   req.DaysOfWeek,
		SkipWeekends: req.SkipWeekends,
		MealType:     req.MealType,
		Count:        req.Count,
		Note:         req.Note,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboards(p.UserID)
	respondJSON(w, http.StatusCreated, res)
}

type bulkEditRequest struct {
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	MealType  string  `json:"mealType"`
	Count     *int    `json:"count"`
	Note      *string `json:"note"`
}

type bulkEditResponse struct {
	Updated int64 `json:"updated"`
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	var req bulkEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := s.mealSvc.BulkUpdate(r.Context(), p.UserID, services.BulkEditInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		MealType:  req.MealType,
		Count:     req.Count,
		Note:      req.Note,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboards(p.UserID)
	respondJSON(w, http.StatusOK, bulkEditResponse{Updated: n})
}

func (s *Server) handleBulkCancel(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	q := r.URL.Query()
	n, err := s.mealSvc.BulkCancel(r.Context(), p.UserID, q.Get("startDate"), q.Get("endDate"), q.Get("mealType"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboards(p.UserID)
	respondJSON(w, http.StatusOK, map[string]int64{"cancelled": n})
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

type updateMealRequest struct {
	Count *int    `json:"count"`
	Note  *string `json:"note"`
}

func (s *Server) handleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid meal id")
		return
	}

	var req updateMealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	meal, err := s.mealSvc.Update(r.Context(), p, id, req.Count, req.Note)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboards(meal.UserID)
	respondJSON(w, http.StatusOK, meal)
}

func (s *Server) handleCancelMeal(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid meal id")
		return
	}

	meal, err := s.mealSvc.Cancel(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboards(meal.UserID)
	respondJSON(w, http.StatusOK, meal)
}
