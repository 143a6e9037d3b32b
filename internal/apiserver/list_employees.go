package apiserver

import (
	"net/http"

	"github.com/ZephyrianDawnstrider/hrms/internal/repository"
)

func (srv *Server) ListEmployees(w http.ResponseWriter, r *http.Request) error {
	employees, err := srv.employees.List(r.Context(), repository.EmployeeFilter{
		Department: r.URL.Query().Get("department"),
		Query:      r.URL.Query().Get("q"),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, employees)
	return nil
}

func (srv *Server) GetEmployee(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	employee, err := srv.employees.Get(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, employee)
	return nil
}
