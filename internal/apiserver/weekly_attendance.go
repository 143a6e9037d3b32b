package apiserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
	"github.com/ZephyrianDawnstrider/hrms/internal/repository"
)

type weeklyAttendanceResponse struct {
	Week        []string                     `json:"week"`
	WeekOffset  int                          `json:"week_offset"`
	Employees   []models.Employee            `json:"employees"`
	Attendance  map[int64]map[string]*string `json:"attendance"`
	Departments []string                     `json:"departments"`
}

// weekStart returns the monday of the week containing day, moved by offset weeks.
func weekStart(day time.Time, offset int) time.Time {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	shift := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -shift+7*offset)
}

func (srv *Server) WeeklyAttendance(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	base := time.Now().UTC()
	if raw := query.Get("date"); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return badRequest("invalid date %q, want %s", raw, models.DateLayout)
		}
		base = parsed
	}
	offset := 0
	if raw := query.Get("week_offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest("invalid week_offset %q", raw)
		}
		offset = parsed
	}

	start := weekStart(base, offset)
	end := start.AddDate(0, 0, 6)

	employees, err := srv.employees.List(r.Context(), repository.EmployeeFilter{
		Department: query.Get("department"),
		Query:      query.Get("q"),
	})
	if err != nil {
		return err
	}
	departments, err := srv.employees.Departments(r.Context())
	if err != nil {
		return err
	}

	resp := weeklyAttendanceResponse{
		Week:        make([]string, 0, 7),
		WeekOffset:  offset,
		Employees:   employees,
		Attendance:  make(map[int64]map[string]*string, len(employees)),
		Departments: departments,
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		resp.Week = append(resp.Week, d.Format(models.DateLayout))
	}
	if len(employees) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return nil
	}

	ids := make([]int64, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
		days := make(map[string]*string, 7)
		for _, day := range resp.Week {
			days[day] = nil
		}
		resp.Attendance[e.ID] = days
	}
	records, err := srv.attendance.ListRange(r.Context(), ids, start, end)
	if err != nil {
		return err
	}
	for _, rec := range records {
		days, ok := resp.Attendance[rec.EmployeeID]
		if !ok {
			continue
		}
		status := string(rec.Status)
		days[rec.Date.Format(models.DateLayout)] = &status
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}
