package models

import "time"

type Employee struct {
	ID         int64  `json:"id"`
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type AttendanceStatus string

const (
	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"
	Leave   AttendanceStatus = "Leave"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case Present, Absent, Leave:
		return true
	}
	return false
}

type Attendance struct {
	EmployeeID int64            `json:"employee_id"`
	Date       time.Time        `json:"date"`
	Status     AttendanceStatus `json:"status"`
}

const DateLayout = "2006-01-02"
