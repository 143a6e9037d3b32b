package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZephyrianDawnstrider/hrms/internal/database"
	"github.com/ZephyrianDawnstrider/hrms/internal/dberror"
	"github.com/ZephyrianDawnstrider/hrms/internal/migrator"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type stubResolver struct {
	backend atomic.Value
	calls   atomic.Int32
}

func newStubResolver(b models.Backend) *stubResolver {
	r := &stubResolver{}
	r.backend.Store(b)
	return r
}

func (r *stubResolver) Resolve(context.Context) models.Backend {
	r.calls.Add(1)
	return r.backend.Load().(models.Backend)
}

func migratedSqlite(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared&_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	m, err := migrator.New(database.SQLite)
	require.NoError(t, err)
	_, err = m.Up(context.Background(), db)
	require.NoError(t, err)
	return db
}

type fixture struct {
	resolver   *stubResolver
	primaryDB  *sql.DB
	backupDB   *sql.DB
	employees  *Employees
	attendance *Attendance
}

// both sides are sqlite here, only routing is under test
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		resolver:  newStubResolver(models.Primary),
		primaryDB: migratedSqlite(t, t.Name()+"_primary"),
		backupDB:  migratedSqlite(t, t.Name()+"_backup"),
	}
	router := NewRouter(f.resolver, database.Backends{
		Primary: database.Handle{Identity: models.Primary, DB: f.primaryDB, Dialect: database.SQLite},
		Backup:  database.Handle{Identity: models.Backup, DB: f.backupDB, Dialect: database.SQLite},
	})
	f.employees = NewEmployees(router)
	f.attendance = NewAttendance(router)
	return f
}

func countEmployees(t *testing.T, db *sql.DB) int {
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM employees").Scan(&n))
	return n
}

func TestEmployeesCRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ann, err := f.employees.Create(ctx, models.Employee{EmployeeID: "1001", FullName: "Ann Lee", Email: "ann@example.com", Department: "HR"})
	require.NoError(t, err)
	assert.NotZero(t, ann.ID)

	got, err := f.employees.Get(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann, got)

	ann.Department = "Finance"
	require.NoError(t, f.employees.Update(ctx, ann))
	got, err = f.employees.Get(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Finance", got.Department)

	_, err = f.employees.Create(ctx, models.Employee{EmployeeID: "1001", FullName: "Bob", Email: "bob@example.com"})
	assert.ErrorIs(t, err, ErrEmployeeIDTaken)

	deleted, err := f.employees.Delete(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "1001", deleted.EmployeeID)

	_, err = f.employees.Get(ctx, ann.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.employees.Delete(ctx, ann.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.employees.Update(ctx, ann), ErrNotFound)

	// freed id can be reused
	_, err = f.employees.Create(ctx, models.Employee{EmployeeID: "1001", FullName: "Cid", Email: "cid@example.com"})
	require.NoError(t, err)
}

func TestEmployeesListFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, e := range []models.Employee{
		{EmployeeID: "7", FullName: "Zed Alpha", Email: "z@example.com", Department: "IT"},
		{EmployeeID: "12", FullName: "Amy Beta", Email: "a@example.com", Department: "HR"},
		{EmployeeID: "X-1", FullName: "Max Gamma", Email: "m@example.com", Department: "IT"},
	} {
		_, err := f.employees.Create(ctx, e)
		require.NoError(t, err)
	}

	all, err := f.employees.List(ctx, EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Amy Beta", all[0].FullName)

	it, err := f.employees.List(ctx, EmployeeFilter{Department: "IT"})
	require.NoError(t, err)
	assert.Len(t, it, 2)

	byName, err := f.employees.List(ctx, EmployeeFilter{Query: "GAMMA"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "X-1", byName[0].EmployeeID)

	exists, err := f.employees.EmployeeIDExists(ctx, "12")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.employees.EmployeeIDExists(ctx, "13")
	require.NoError(t, err)
	assert.False(t, exists)

	used, err := f.employees.UsedEmployeeIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "7", "X-1"}, used)
	assert.Equal(t, []string{"13", "14", "15", "16", "17"}, SuggestEmployeeIDs(used))

	deps, err := f.employees.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HR", "IT"}, deps)
}

func TestSuggestEmployeeIDs(t *testing.T) {
	assert.Empty(t, SuggestEmployeeIDs(nil))
	assert.Empty(t, SuggestEmployeeIDs([]string{"A-1", "B-2"}))
	assert.Equal(t, []string{"100", "101", "102", "103", "104"}, SuggestEmployeeIDs([]string{"99", "5", "A"}))
}

func TestRouterFollowsResolverPerOperation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.employees.Create(ctx, models.Employee{EmployeeID: "1", FullName: "On Primary", Email: "p@example.com"})
	require.NoError(t, err)

	f.resolver.backend.Store(models.Backup)
	_, err = f.employees.Create(ctx, models.Employee{EmployeeID: "2", FullName: "On Backup", Email: "b@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, countEmployees(t, f.primaryDB))
	assert.Equal(t, 1, countEmployees(t, f.backupDB))
	assert.Equal(t, int32(2), f.resolver.calls.Load())
}

func TestAttendanceMark(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ann, err := f.employees.Create(ctx, models.Employee{EmployeeID: "1", FullName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.attendance.Mark(ctx, ann.ID, day, models.Present))
	require.NoError(t, f.attendance.Mark(ctx, ann.ID, day.AddDate(0, 0, 1), models.Leave))
	// upsert
	require.NoError(t, f.attendance.Mark(ctx, ann.ID, day, models.Absent))

	recs, err := f.attendance.ListForEmployee(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.Leave, recs[0].Status)
	assert.Equal(t, models.Absent, recs[1].Status)
	assert.Equal(t, day, recs[1].Date.UTC())

	require.NoError(t, f.attendance.Mark(ctx, ann.ID, day, ""))
	recs, err = f.attendance.ListForEmployee(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	assert.ErrorIs(t, f.attendance.Mark(ctx, ann.ID+100, day, models.Present), ErrNotFound)

	// deleting the employee drops the records too
	_, err = f.employees.Delete(ctx, ann.ID)
	require.NoError(t, err)
	var left int
	require.NoError(t, f.primaryDB.QueryRow("SELECT COUNT(*) FROM attendance").Scan(&left))
	assert.Zero(t, left)
}

func TestAttendanceBulkAndRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.employees.Create(ctx, models.Employee{EmployeeID: "1", FullName: "A", Email: "a@example.com"})
	require.NoError(t, err)
	b, err := f.employees.Create(ctx, models.Employee{EmployeeID: "2", FullName: "B", Email: "b@example.com"})
	require.NoError(t, err)

	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	marked, err := f.attendance.MarkBulk(ctx, []int64{a.ID, b.ID, 999}, monday, models.Present)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	require.NoError(t, f.attendance.Mark(ctx, a.ID, monday.AddDate(0, 0, 7), models.Absent))

	week, err := f.attendance.ListRange(ctx, nil, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Len(t, week, 2)

	onlyA, err := f.attendance.ListRange(ctx, []int64{a.ID}, monday, monday.AddDate(0, 0, 13))
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	marked, err = f.attendance.MarkBulk(ctx, []int64{a.ID, b.ID}, monday, "")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	week, err = f.attendance.ListRange(ctx, nil, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, week)
}

func TestPostgresQueriesAndBusinessErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	router := NewRouter(newStubResolver(models.Primary), database.Backends{
		Primary: database.Handle{Identity: models.Primary, DB: db, Dialect: database.Postgres},
	})
	employees := NewEmployees(router)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees WHERE employee_id = \$1`).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	exists, err := employees.EmployeeIDExists(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(`INSERT INTO employees \(employee_id,full_name,email,department\) VALUES \(\$1,\$2,\$3,\$4\) RETURNING id`).
		WillReturnError(errors.New("server closed the connection unexpectedly"))
	_, err = employees.Create(context.Background(), models.Employee{EmployeeID: "43", FullName: "N", Email: "n@example.com"})
	bqErr, ok := dberror.AsBusinessQueryError(err)
	require.True(t, ok)
	assert.Equal(t, models.Primary, bqErr.Backend)
	assert.Equal(t, "create employee", bqErr.Op)

	require.NoError(t, mock.ExpectationsWereMet())
}
