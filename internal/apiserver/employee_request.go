package apiserver

import (
	"net/mail"
	"strings"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

const (
	maxEmployeeIDLen = 20
	maxFullNameLen   = 100
	maxDepartmentLen = 50
)

type employeeRequest struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

func (req employeeRequest) toModel() (models.Employee, error) {
	e := models.Employee{
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		FullName:   strings.TrimSpace(req.FullName),
		Email:      strings.TrimSpace(req.Email),
		Department: strings.TrimSpace(req.Department),
	}
	if e.EmployeeID == "" || len(e.EmployeeID) > maxEmployeeIDLen {
		return models.Employee{}, badRequest("employee_id must be 1..%d characters", maxEmployeeIDLen)
	}
	if e.FullName == "" || len(e.FullName) > maxFullNameLen {
		return models.Employee{}, badRequest("full_name must be 1..%d characters", maxFullNameLen)
	}
	if _, err := mail.ParseAddress(e.Email); err != nil {
		return models.Employee{}, badRequest("invalid email %q", e.Email)
	}
	if len(e.Department) > maxDepartmentLen {
		return models.Employee{}, badRequest("department is longer than %d characters", maxDepartmentLen)
	}
	return e, nil
}
