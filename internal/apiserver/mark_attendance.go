package apiserver

import (
	"net/http"
	"time"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

// An empty status clears the day.
type markAttendanceRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

type markBulkAttendanceRequest struct {
	EmployeeIDs []int64 `json:"employee_ids"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
}

type markAttendanceResponse struct {
	Success bool `json:"success"`
	Marked  int  `json:"marked"`
}

func parseMark(date string, status string) (time.Time, models.AttendanceStatus, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, "", badRequest("invalid date %q, want %s", date, models.DateLayout)
	}
	st := models.AttendanceStatus(status)
	if st != "" && !st.Valid() {
		return time.Time{}, "", badRequest("invalid status %q", status)
	}
	return day, st, nil
}

func (srv *Server) MarkAttendance(w http.ResponseWriter, r *http.Request) error {
	req := markAttendanceRequest{}
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.EmployeeID <= 0 {
		return badRequest("employee_id is required")
	}
	day, status, err := parseMark(req.Date, req.Status)
	if err != nil {
		return err
	}
	err = srv.attendance.Mark(r.Context(), req.EmployeeID, day, status)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, markAttendanceResponse{Success: true, Marked: 1})
	return nil
}

func (srv *Server) MarkBulkAttendance(w http.ResponseWriter, r *http.Request) error {
	req := markBulkAttendanceRequest{}
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if len(req.EmployeeIDs) == 0 {
		return badRequest("employee_ids is required")
	}
	day, status, err := parseMark(req.Date, req.Status)
	if err != nil {
		return err
	}
	marked, err := srv.attendance.MarkBulk(r.Context(), req.EmployeeIDs, day, status)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, markAttendanceResponse{Success: true, Marked: marked})
	return nil
}
