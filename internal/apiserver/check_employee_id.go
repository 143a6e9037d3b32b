package apiserver

import (
	"net/http"
	"strings"
)

type checkEmployeeIDResponse struct {
	EmployeeID string `json:"employee_id"`
	Exists     bool   `json:"exists"`
	Available  bool   `json:"available"`
}

func (srv *Server) CheckEmployeeID(w http.ResponseWriter, r *http.Request) error {
	employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))
	if employeeID == "" {
		return badRequest("employee_id is required")
	}
	exists, err := srv.employees.EmployeeIDExists(r.Context(), employeeID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, checkEmployeeIDResponse{
		EmployeeID: employeeID,
		Exists:     exists,
		Available:  !exists,
	})
	return nil
}
