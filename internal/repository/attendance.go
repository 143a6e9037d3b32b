package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/ZephyrianDawnstrider/hrms/internal/database"
	"github.com/ZephyrianDawnstrider/hrms/internal/dberror"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

const (
	attendanceTable = "attendance"

	upsertAttendanceSuffix = "ON CONFLICT (employee_id, date) DO UPDATE SET status = excluded.status"
)

type Attendance struct {
	router *Router
}

func NewAttendance(router *Router) *Attendance {
	return &Attendance{router: router}
}

func (r *Attendance) ListForEmployee(ctx context.Context, employeeID int64) ([]models.Attendance, error) {
	conn := r.router.Conn(ctx)
	q := conn.Dialect.Builder().
		Select("employee_id", "date", "status").
		From(attendanceTable).
		Where(squirrel.Eq{"employee_id": employeeID}).
		OrderBy("date DESC")
	return r.query(ctx, conn, q, "list attendance")
}

// ListRange returns records with from <= date <= to for the given employees,
// all employees when ids is empty.
func (r *Attendance) ListRange(ctx context.Context, employeeIDs []int64, from, to time.Time) ([]models.Attendance, error) {
	conn := r.router.Conn(ctx)
	q := conn.Dialect.Builder().
		Select("employee_id", "date", "status").
		From(attendanceTable).
		Where(squirrel.GtOrEq{"date": from.Format(models.DateLayout)}).
		Where(squirrel.LtOrEq{"date": to.Format(models.DateLayout)}).
		OrderBy("employee_id", "date")
	if len(employeeIDs) > 0 {
		q = q.Where(squirrel.Eq{"employee_id": employeeIDs})
	}
	return r.query(ctx, conn, q, "list attendance range")
}

func (r *Attendance) query(ctx context.Context, conn database.Handle, q squirrel.SelectBuilder, op string) ([]models.Attendance, error) {
	rows, err := q.RunWith(conn.DB).QueryContext(ctx)
	if err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, op, err)
	}
	defer rows.Close()

	res := make([]models.Attendance, 0)
	for rows.Next() {
		a := models.Attendance{}
		var status string
		if err := rows.Scan(&a.EmployeeID, &a.Date, &status); err != nil {
			return nil, dberror.NewBusinessQueryError(conn.Identity, op, err)
		}
		a.Status = models.AttendanceStatus(status)
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, op, err)
	}
	return res, nil
}

// Mark sets the status of one employee for one day. An empty status removes
// the record.
func (r *Attendance) Mark(ctx context.Context, employeeID int64, date time.Time, status models.AttendanceStatus) error {
	conn := r.router.Conn(ctx)
	exists, err := employeeExists(ctx, conn, employeeID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return mark(ctx, conn, employeeID, date, status)
}

// MarkBulk applies the same status to many employees on one backend,
// unknown employees are skipped. Returns how many were marked.
func (r *Attendance) MarkBulk(ctx context.Context, employeeIDs []int64, date time.Time, status models.AttendanceStatus) (int, error) {
	conn := r.router.Conn(ctx)
	marked := 0
	for _, id := range employeeIDs {
		exists, err := employeeExists(ctx, conn, id)
		if err != nil {
			return marked, err
		}
		if !exists {
			continue
		}
		err = mark(ctx, conn, id, date, status)
		if err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func mark(ctx context.Context, conn database.Handle, employeeID int64, date time.Time, status models.AttendanceStatus) error {
	day := date.Format(models.DateLayout)
	if status == "" {
		_, err := conn.Dialect.Builder().
			Delete(attendanceTable).
			Where(squirrel.Eq{"employee_id": employeeID, "date": day}).
			RunWith(conn.DB).
			ExecContext(ctx)
		if err != nil {
			return dberror.NewBusinessQueryError(conn.Identity, "clear attendance", err)
		}
		return nil
	}
	_, err := conn.Dialect.Builder().
		Insert(attendanceTable).
		Columns("employee_id", "date", "status").
		Values(employeeID, day, string(status)).
		Suffix(upsertAttendanceSuffix).
		RunWith(conn.DB).
		ExecContext(ctx)
	if err != nil {
		return dberror.NewBusinessQueryError(conn.Identity, "mark attendance", err)
	}
	return nil
}

func employeeExists(ctx context.Context, conn database.Handle, id int64) (bool, error) {
	var count int
	err := conn.Dialect.Builder().
		Select("COUNT(*)").
		From(employeesTable).
		Where(squirrel.Eq{"id": id}).
		RunWith(conn.DB).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return false, dberror.NewBusinessQueryError(conn.Identity, "check employee", err)
	}
	return count > 0, nil
}
