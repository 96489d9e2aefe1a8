package api

import (
	"net/http"
)

// refreshAccepted is the body of a 202 from POST /refresh.
type refreshAccepted struct {
	Status string `json:"status"`
}

// handleStatus returns the current display status, including the loading
// and error states.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{Data: s.status.Status()})
}

// handleRefresh starts a cycle and returns 202, or 409 if one is running.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.refresher.Trigger(); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusAccepted, APIResponse{Data: refreshAccepted{Status: "accepted"}})
}
