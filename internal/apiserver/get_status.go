package apiserver

import (
	"net/http"
	"time"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type sharedStatus struct {
	Status    models.Backend `json:"status"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type statusResponse struct {
	Routing          models.Backend `json:"routing"`
	UsesSinceRecheck int            `json:"uses_since_recheck"`
	Shared           *sharedStatus  `json:"shared"`
	SharedError      string         `json:"shared_error,omitempty"`
}

// GetStatus does not probe, it shows what this process and the shared store
// currently believe.
func (srv *Server) GetStatus(w http.ResponseWriter, r *http.Request) error {
	routing, uses := srv.routing.Snapshot()
	resp := statusResponse{
		Routing:          routing,
		UsesSinceRecheck: uses,
	}
	entry, found, err := srv.monitor.Status(r.Context())
	switch {
	case err != nil:
		resp.SharedError = err.Error()
	case found:
		resp.Shared = &sharedStatus{Status: entry.Status, ExpiresAt: entry.ExpiresAt}
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}
