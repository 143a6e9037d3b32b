package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/ZephyrianDawnstrider/hrms/internal/dberror"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
	"github.com/ZephyrianDawnstrider/hrms/internal/repository"
)

type EmployeeRepository interface {
	List(ctx context.Context, filter repository.EmployeeFilter) ([]models.Employee, error)
	Get(ctx context.Context, id int64) (models.Employee, error)
	Create(ctx context.Context, e models.Employee) (models.Employee, error)
	Update(ctx context.Context, e models.Employee) error
	Delete(ctx context.Context, id int64) (models.Employee, error)
	EmployeeIDExists(ctx context.Context, employeeID string) (bool, error)
	UsedEmployeeIDs(ctx context.Context) ([]string, error)
	Departments(ctx context.Context) ([]string, error)
}

type AttendanceRepository interface {
	ListForEmployee(ctx context.Context, employeeID int64) ([]models.Attendance, error)
	ListRange(ctx context.Context, employeeIDs []int64, from, to time.Time) ([]models.Attendance, error)
	Mark(ctx context.Context, employeeID int64, date time.Time, status models.AttendanceStatus) error
	MarkBulk(ctx context.Context, employeeIDs []int64, date time.Time, status models.AttendanceStatus) (int, error)
}

type HealthMonitor interface {
	Middleware(next http.Handler) http.Handler
	ObserveError(err error) error
	Status(ctx context.Context) (models.HealthStatusEntry, bool, error)
}

type RoutingState interface {
	Snapshot() (models.Backend, int)
}

func NewServer(
	employees EmployeeRepository,
	attendance AttendanceRepository,
	monitor HealthMonitor,
	routing RoutingState,
) *Server {
	return &Server{
		employees:  employees,
		attendance: attendance,
		monitor:    monitor,
		routing:    routing,
	}
}

type Server struct {
	employees  EmployeeRepository
	attendance AttendanceRepository
	monitor    HealthMonitor
	routing    RoutingState
}

func (srv *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)

	r.Get("/status", srv.handle(srv.GetStatus))

	r.Group(func(r chi.Router) {
		r.Use(srv.monitor.Middleware)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", srv.handle(srv.ListEmployees))
			r.Post("/", srv.handle(srv.CreateEmployee))
			r.Get("/check-id", srv.handle(srv.CheckEmployeeID))
			r.Get("/available-ids", srv.handle(srv.AvailableEmployeeIDs))
			r.Get("/{id}", srv.handle(srv.GetEmployee))
			r.Put("/{id}", srv.handle(srv.UpdateEmployee))
			r.Delete("/{id}", srv.handle(srv.DeleteEmployee))
		})
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/employee/{id}", srv.handle(srv.EmployeeAttendance))
			r.Get("/weekly", srv.handle(srv.WeeklyAttendance))
			r.Post("/mark", srv.handle(srv.MarkAttendance))
			r.Post("/mark-bulk", srv.handle(srv.MarkBulkAttendance))
		})
	})
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle reports data errors to the health monitor before answering.
func (srv *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		err = srv.monitor.ObserveError(err)
		writeErr(w, err)
	}
}

type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string {
	return e.detail
}

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, args...)}
}

func writeErr(w http.ResponseWriter, err error) {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		writeError(w, apiErr.status, apiErr.detail)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrEmployeeIDTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		if _, ok := dberror.AsBusinessQueryError(err); !ok {
			log.Error().Err(err).Msg("request failed")
		}
		writeError(w, http.StatusInternalServerError, "database operation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
