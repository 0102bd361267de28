package http

import "net/http"

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userSvc.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminUserSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	summary, err := s.adminSvc.UserSummary(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := s.adminSvc.ListUserStats(r.Context(), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
