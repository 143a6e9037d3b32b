package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/ZephyrianDawnstrider/hrms/internal/dberror"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

const (
	employeesTable = "employees"

	suggestedIDsCount = 5
)

var employeeColumns = []string{"id", "employee_id", "full_name", "email", "department"}

type EmployeeFilter struct {
	Department string
	// Query matches employee id or name, case insensitive
	Query string
}

type Employees struct {
	router *Router
}

func NewEmployees(router *Router) *Employees {
	return &Employees{router: router}
}

func scanEmployee(row squirrel.RowScanner) (models.Employee, error) {
	e := models.Employee{}
	err := row.Scan(&e.ID, &e.EmployeeID, &e.FullName, &e.Email, &e.Department)
	return e, err
}

func (r *Employees) List(ctx context.Context, filter EmployeeFilter) ([]models.Employee, error) {
	conn := r.router.Conn(ctx)
	q := conn.Dialect.Builder().Select(employeeColumns...).From(employeesTable)
	if filter.Department != "" {
		q = q.Where(squirrel.Eq{"department": filter.Department})
	}
	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where(squirrel.Or{
			squirrel.Like{"LOWER(employee_id)": pattern},
			squirrel.Like{"LOWER(full_name)": pattern},
		})
	}
	rows, err := q.OrderBy("full_name", "id").RunWith(conn.DB).QueryContext(ctx)
	if err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, "list employees", err)
	}
	defer rows.Close()

	res := make([]models.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, dberror.NewBusinessQueryError(conn.Identity, "scan employee", err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, "list employees", err)
	}
	return res, nil
}

func (r *Employees) Get(ctx context.Context, id int64) (models.Employee, error) {
	conn := r.router.Conn(ctx)
	row := conn.Dialect.Builder().
		Select(employeeColumns...).
		From(employeesTable).
		Where(squirrel.Eq{"id": id}).
		RunWith(conn.DB).
		QueryRowContext(ctx)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, dberror.NewBusinessQueryError(conn.Identity, "get employee", err)
	}
	return e, nil
}

func (r *Employees) Create(ctx context.Context, e models.Employee) (models.Employee, error) {
	conn := r.router.Conn(ctx)
	err := conn.Dialect.Builder().
		Insert(employeesTable).
		Columns("employee_id", "full_name", "email", "department").
		Values(e.EmployeeID, e.FullName, e.Email, e.Department).
		Suffix("RETURNING id").
		RunWith(conn.DB).
		QueryRowContext(ctx).
		Scan(&e.ID)
	if err != nil {
		if dberror.IsUniqueViolation(err) {
			return models.Employee{}, ErrEmployeeIDTaken
		}
		return models.Employee{}, dberror.NewBusinessQueryError(conn.Identity, "create employee", err)
	}
	return e, nil
}

func (r *Employees) Update(ctx context.Context, e models.Employee) error {
	conn := r.router.Conn(ctx)
	res, err := conn.Dialect.Builder().
		Update(employeesTable).
		SetMap(map[string]any{
			"employee_id": e.EmployeeID,
			"full_name":   e.FullName,
			"email":       e.Email,
			"department":  e.Department,
		}).
		Where(squirrel.Eq{"id": e.ID}).
		RunWith(conn.DB).
		ExecContext(ctx)
	if err != nil {
		if dberror.IsUniqueViolation(err) {
			return ErrEmployeeIDTaken
		}
		return dberror.NewBusinessQueryError(conn.Identity, "update employee", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dberror.NewBusinessQueryError(conn.Identity, "update employee", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete returns the removed employee, its employee id becomes free again.
func (r *Employees) Delete(ctx context.Context, id int64) (models.Employee, error) {
	conn := r.router.Conn(ctx)
	tx, err := conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Employee{}, dberror.NewBusinessQueryError(conn.Identity, "delete employee", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	e, err := scanEmployee(conn.Dialect.Builder().
		Select(employeeColumns...).
		From(employeesTable).
		Where(squirrel.Eq{"id": id}).
		RunWith(tx).
		QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, dberror.NewBusinessQueryError(conn.Identity, "delete employee", err)
	}
	// sqlite only cascades with foreign keys enabled, do it by hand
	_, err = conn.Dialect.Builder().
		Delete(attendanceTable).
		Where(squirrel.Eq{"employee_id": id}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return models.Employee{}, dberror.NewBusinessQueryError(conn.Identity, "delete employee attendance", err)
	}
	_, err = conn.Dialect.Builder().
		Delete(employeesTable).
		Where(squirrel.Eq{"id": id}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return models.Employee{}, dberror.NewBusinessQueryError(conn.Identity, "delete employee", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Employee{}, dberror.NewBusinessQueryError(conn.Identity, "delete employee", err)
	}
	return e, nil
}

func (r *Employees) EmployeeIDExists(ctx context.Context, employeeID string) (bool, error) {
	conn := r.router.Conn(ctx)
	var count int
	err := conn.Dialect.Builder().
		Select("COUNT(*)").
		From(employeesTable).
		Where(squirrel.Eq{"employee_id": employeeID}).
		RunWith(conn.DB).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return false, dberror.NewBusinessQueryError(conn.Identity, "check employee id", err)
	}
	return count > 0, nil
}

func (r *Employees) UsedEmployeeIDs(ctx context.Context) ([]string, error) {
	conn := r.router.Conn(ctx)
	rows, err := conn.Dialect.Builder().
		Select("employee_id").
		From(employeesTable).
		OrderBy("employee_id").
		RunWith(conn.DB).
		QueryContext(ctx)
	if err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, "list employee ids", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dberror.NewBusinessQueryError(conn.Identity, "scan employee id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, "list employee ids", err)
	}
	return ids, nil
}

func (r *Employees) Departments(ctx context.Context) ([]string, error) {
	conn := r.router.Conn(ctx)
	rows, err := conn.Dialect.Builder().
		Select("department").
		Distinct().
		From(employeesTable).
		OrderBy("department").
		RunWith(conn.DB).
		QueryContext(ctx)
	if err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, "list departments", err)
	}
	defer rows.Close()

	deps := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, dberror.NewBusinessQueryError(conn.Identity, "scan department", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.NewBusinessQueryError(conn.Identity, "list departments", err)
	}
	return deps, nil
}

// SuggestEmployeeIDs proposes the next free numeric ids after the highest
// numeric one in use. Non numeric ids are ignored.
func SuggestEmployeeIDs(used []string) []string {
	numeric := make([]int, 0, len(used))
	for _, id := range used {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		numeric = append(numeric, n)
	}
	if len(numeric) == 0 {
		return []string{}
	}
	sort.Ints(numeric)
	maxID := numeric[len(numeric)-1]
	res := make([]string, 0, suggestedIDsCount)
	for i := 1; i <= suggestedIDsCount; i++ {
		res = append(res, strconv.Itoa(maxID+i))
	}
	return res
}
