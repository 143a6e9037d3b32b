package apiserver

import (
	"fmt"
	"net/http"
)

type deleteEmployeeResponse struct {
	Deleted string `json:"deleted_employee_id"`
	Message string `json:"message"`
}

func (srv *Server) DeleteEmployee(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	deleted, err := srv.employees.Delete(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, deleteEmployeeResponse{
		Deleted: deleted.EmployeeID,
		Message: fmt.Sprintf("employee %s has been deleted, id %s is now available for reassignment", deleted.EmployeeID, deleted.EmployeeID),
	})
	return nil
}
