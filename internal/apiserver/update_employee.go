package apiserver

import (
	"net/http"
)

func (srv *Server) UpdateEmployee(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	req := employeeRequest{}
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	employee, err := req.toModel()
	if err != nil {
		return err
	}
	employee.ID = id
	err = srv.employees.Update(r.Context(), employee)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, employee)
	return nil
}
