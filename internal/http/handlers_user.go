package http

import "net/http"

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	user, err := s.userSvc.Profile(r.Context(), p.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Mobile *string `json:"mobile"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "missing principal")
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.userSvc.UpdateProfile(r.Context(), p.UserID, req.Name, req.Mobile)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
