package http

import (
	"fmt"
	"net/http"

	"tiffin/internal/core"
)

// cachedDashboard serves a dashboard read through the LRU. The cache key
// embeds the user's version counter, so any meal or price write since the
// last read produces a fresh key and a recomputation.
func (s *Server) cachedDashboard(w http.ResponseWriter, r *http.Request, userID int64, suffix string, compute func() (any, error)) {
	key := s.dashVersions.Key(userID, suffix)
	if cached, ok := s.dashCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	result, err := compute()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.dashCache.Set(key, result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	q := r.URL.Query()
	start, end := q.Get("startDate"), q.Get("endDate")
	s.cachedDashboard(w, r, p.UserID, fmt.Sprintf("overview:%s:%s", start, end), func() (any, error) {
		return s.dashSvc.Overview(r.Context(), p.UserID, start, end)
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	q := r.URL.Query()
	month, week := q.Get("month"), q.Get("week")
	s.cachedDashboard(w, r, p.UserID, fmt.Sprintf("calendar:%s:%s", month, week), func() (any, error) {
		cal, err := s.dashSvc.Calendar(r.Context(), p.UserID, month, week)
		if err != nil {
			return nil, err
		}
		if cal == nil {
			cal = map[string][]core.CalendarEntry{}
		}
		return cal, nil
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	month := r.URL.Query().Get("month")
	s.cachedDashboard(w, r, p.UserID, "monthly:"+month, func() (any, error) {
		return s.dashSvc.Monthly(r.Context(), p.UserID, month)
	})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	week := r.URL.Query().Get("week")
	s.cachedDashboard(w, r, p.UserID, "weekly:"+week, func() (any, error) {
		return s.dashSvc.Weekly(r.Context(), p.UserID, week)
	})
}
