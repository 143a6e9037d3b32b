package apiserver

import (
	"net/http"
)

func (srv *Server) CreateEmployee(w http.ResponseWriter, r *http.Request) error {
	req := employeeRequest{}
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	employee, err := req.toModel()
	if err != nil {
		return err
	}
	created, err := srv.employees.Create(r.Context(), employee)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}
