/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP surface. These decouple the engine's domain
  model from the wire contract.

VALIDATION:
  Shape checks (field presence, basic types) run here via validator struct
  tags. Business validation - enums, ranges, capacity, overlap - is the
  engine's job and is never duplicated in the API layer.

SEE ALSO:
  - handlers.go: uses these types
  - allocation/errors.go: the rejection detail carried into ErrorResponse
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/allocation"
	"github.com/warp/staffing-engine/directory"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AdmitRequest is the body for allocation create and update. Percent is a
// pointer so that an absent field is distinguishable from zero.
type AdmitRequest struct {
	EmployeeID        string   `json:"employee_id" validate:"required"`
	ClientID          string   `json:"client_id" validate:"required"`
	ProjectID         string   `json:"project_id" validate:"required"`
	Status            string   `json:"status" validate:"required"`
	Percent           *float64 `json:"percent" validate:"required"`
	BillingType       string   `json:"billing_type" validate:"required"`
	Billed            string   `json:"billed" validate:"required"`
	BillingRate       *float64 `json:"billing_rate,omitempty"`
	TimesheetApprover string   `json:"timesheet_approver,omitempty"`
	StartDate         string   `json:"start_date" validate:"required"`
	EndDate           *string  `json:"end_date,omitempty"`
	ModifiedBy        string   `json:"modified_by,omitempty"`
}

// toAllocation converts the wire shape to the domain record. Date strings
// must be ISO (2006-01-02).
func (r AdmitRequest) toAllocation(id allocation.AllocationID) (allocation.Allocation, error) {
	start, err := allocation.ParseDate(r.StartDate)
	if err != nil {
		return allocation.Allocation{}, err
	}

	a := allocation.Allocation{
		ID:                id,
		EmployeeID:        allocation.EmployeeID(r.EmployeeID),
		ClientID:          allocation.ClientID(r.ClientID),
		ProjectID:         allocation.ProjectID(r.ProjectID),
		Status:            allocation.Status(r.Status),
		BillingType:       allocation.BillingType(r.BillingType),
		Billed:            allocation.BilledFlag(r.Billed),
		TimesheetApprover: r.TimesheetApprover,
		StartDate:         start,
		ModifiedBy:        r.ModifiedBy,
	}

	if r.Percent != nil {
		a.Percent = decimal.NewFromFloat(*r.Percent)
	}
	if r.BillingRate != nil {
		rate := decimal.NewFromFloat(*r.BillingRate)
		a.BillingRate = &rate
	}
	if r.EndDate != nil && *r.EndDate != "" {
		end, err := allocation.ParseDate(*r.EndDate)
		if err != nil {
			return allocation.Allocation{}, err
		}
		a.EndDate = &end
	}
	return a, nil
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AllocationDTO represents an allocation in API responses.
type AllocationDTO struct {
	ID                string   `json:"id"`
	EmployeeID        string   `json:"employee_id"`
	ClientID          string   `json:"client_id"`
	ProjectID         string   `json:"project_id"`
	Status            string   `json:"status"`
	Percent           float64  `json:"percent"`
	BillingType       string   `json:"billing_type"`
	Billed            string   `json:"billed"`
	BillingRate       *float64 `json:"billing_rate,omitempty"`
	TimesheetApprover string   `json:"timesheet_approver,omitempty"`
	StartDate         string   `json:"start_date"`
	EndDate           *string  `json:"end_date,omitempty"`
	ModifiedBy        string   `json:"modified_by,omitempty"`
	ModifiedAt        string   `json:"modified_at,omitempty"`
}

// AdmitResponse is returned after a successful admission.
type AdmitResponse struct {
	ID string `json:"id"`
}

// CapacityDTO reports an employee's load over a window.
type CapacityDTO struct {
	EmployeeID string  `json:"employee_id"`
	Committed  float64 `json:"committed_percent"`
	Staged     float64 `json:"staged_percent"`
	Remaining  float64 `json:"remaining_percent"`
	From       string  `json:"from,omitempty"`
	To         string  `json:"to,omitempty"`
}

// ConflictsDTO reports blocking allocations for an employee+project.
type ConflictsDTO struct {
	EmployeeID string          `json:"employee_id"`
	ProjectID  string          `json:"project_id"`
	Conflicts  []AllocationDTO `json:"conflicts"`
}

// EmployeeDTO represents a directory employee.
type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Email    string `json:"email,omitempty"`
	Studio   string `json:"studio,omitempty"`
	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ClientDTO represents a directory client.
type ClientDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Partner string `json:"partner,omitempty"`
}

// ProjectDTO represents a directory project.
type ProjectDTO struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
	Manager  string `json:"manager,omitempty"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAllocationDTO(a allocation.Allocation) AllocationDTO {
	percent, _ := a.Percent.Float64()
	dto := AllocationDTO{
		ID:                string(a.ID),
		EmployeeID:        string(a.EmployeeID),
		ClientID:          string(a.ClientID),
		ProjectID:         string(a.ProjectID),
		Status:            string(a.Status),
		Percent:           percent,
		BillingType:       string(a.BillingType),
		Billed:            string(a.Billed),
		TimesheetApprover: a.TimesheetApprover,
		StartDate:         a.StartDate.String(),
		ModifiedBy:        a.ModifiedBy,
	}
	if a.BillingRate != nil {
		rate, _ := a.BillingRate.Float64()
		dto.BillingRate = &rate
	}
	if a.EndDate != nil {
		end := a.EndDate.String()
		dto.EndDate = &end
	}
	if !a.ModifiedAt.IsZero() {
		dto.ModifiedAt = a.ModifiedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toAllocationDTOs(as []allocation.Allocation) []AllocationDTO {
	dtos := make([]AllocationDTO, len(as))
	for i, a := range as {
		dtos[i] = toAllocationDTO(a)
	}
	return dtos
}

func toEmployeeDTO(e directory.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:       string(e.ID),
		Name:     e.Name,
		Role:     e.Role,
		Email:    e.Email,
		Studio:   e.Studio,
		Location: e.Location,
		Status:   e.Status,
	}
}

func toClientDTO(c directory.Client) ClientDTO {
	return ClientDTO{ID: string(c.ID), Name: c.Name, Country: c.Country, Partner: c.Partner}
}

func toProjectDTO(p directory.Project) ProjectDTO {
	return ProjectDTO{
		ID:       string(p.ID),
		ClientID: string(p.ClientID),
		Name:     p.Name,
		Status:   p.Status,
		Category: p.Category,
		Manager:  p.Manager,
	}
}
