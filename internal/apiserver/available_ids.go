package apiserver

import (
	"net/http"

	"github.com/ZephyrianDawnstrider/hrms/internal/repository"
)

type availableIDsResponse struct {
	UsedIDs        []string `json:"used_ids"`
	Suggestions    []string `json:"suggestions"`
	TotalEmployees int      `json:"total_employees"`
}

func (srv *Server) AvailableEmployeeIDs(w http.ResponseWriter, r *http.Request) error {
	used, err := srv.employees.UsedEmployeeIDs(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, availableIDsResponse{
		UsedIDs:        used,
		Suggestions:    repository.SuggestEmployeeIDs(used),
		TotalEmployees: len(used),
	})
	return nil
}
