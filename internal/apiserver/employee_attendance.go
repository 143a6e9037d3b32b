package apiserver

import (
	"net/http"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type employeeAttendanceResponse struct {
	Employee models.Employee    `json:"employee"`
	Records  []attendanceRecord `json:"records"`
}

type attendanceRecord struct {
	Date   string                  `json:"date"`
	Status models.AttendanceStatus `json:"status"`
}

func (srv *Server) EmployeeAttendance(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	employee, err := srv.employees.Get(r.Context(), id)
	if err != nil {
		return err
	}
	records, err := srv.attendance.ListForEmployee(r.Context(), id)
	if err != nil {
		return err
	}
	resp := employeeAttendanceResponse{
		Employee: employee,
		Records:  make([]attendanceRecord, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, attendanceRecord{
			Date:   rec.Date.Format(models.DateLayout),
			Status: rec.Status,
		})
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}
