/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements allocation.Repository and directory.Directory over one SQLite
  database. The same patterns apply to PostgreSQL or MySQL - only minor
  dialect differences.

KEY TABLES:
  allocations: one row per employee-project allocation (the engine's data)
  employees, clients, projects: directory reference data

NUMERIC COLUMNS:
  percent and billing_rate are stored as TEXT and parsed through
  decimal.Decimal, so capacity sums stay exact at the 100 boundary.

CONCURRENCY:
  Opened in WAL mode: readers don't block, single writer at a time.
  Admission-level serialization is the engine's job (per-employee lock);
  the store only guarantees statement atomicity.

USAGE:
  store, err := sqlite.New("./data/staffing.db")
  if err != nil { ... }
  defer store.Close()
  engine := allocation.NewEngine(store, rules, logger)

SEE ALSO:
  - allocation/repository.go: interface contract
  - allocation/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/allocation"
	"github.com/warp/staffing-engine/directory"
)

const timeLayout = time.RFC3339

// Store implements allocation.Repository and directory.Directory.
type Store struct {
	db *sql.DB

	// now is injectable for tests asserting ModifiedAt stamping.
	now func() time.Time
}

// New opens (and if needed creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT,
		email TEXT,
		studio TEXT,
		location TEXT,
		status TEXT
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT,
		partner TEXT
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT,
		category TEXT,
		manager TEXT,
		FOREIGN KEY (client_id) REFERENCES clients(id)
	);

	CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		status TEXT NOT NULL,
		percent TEXT NOT NULL,
		billing_type TEXT NOT NULL,
		billed TEXT NOT NULL,
		billing_rate TEXT,
		timesheet_approver TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT,
		modified_by TEXT,
		modified_at TEXT NOT NULL
	);

	-- Capacity sums load by employee (hot path)
	CREATE INDEX IF NOT EXISTS idx_allocations_employee
		ON allocations(employee_id);

	-- Overlap checks narrow to employee+project
	CREATE INDEX IF NOT EXISTS idx_allocations_employee_project
		ON allocations(employee_id, project_id);

	CREATE INDEX IF NOT EXISTS idx_allocations_project
		ON allocations(project_id);
	CREATE INDEX IF NOT EXISTS idx_allocations_client
		ON allocations(client_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ALLOCATION REPOSITORY
// =============================================================================

const allocationColumns = `id, employee_id, client_id, project_id, status, percent,
	billing_type, billed, billing_rate, timesheet_approver,
	start_date, end_date, modified_by, modified_at`

func (s *Store) Get(ctx context.Context, id allocation.AllocationID) (allocation.Allocation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, string(id))
	a, err := scanAllocation(row)
	if err == sql.ErrNoRows {
		return allocation.Allocation{}, allocation.ErrAllocationNotFound
	}
	return a, err
}

func (s *Store) FindByEmployee(ctx context.Context, employeeID allocation.EmployeeID) ([]allocation.Allocation, error) {
	return s.queryAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE employee_id = ?`, string(employeeID))
}

func (s *Store) FindByEmployeeAndProject(ctx context.Context, employeeID allocation.EmployeeID, projectID allocation.ProjectID) ([]allocation.Allocation, error) {
	return s.queryAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE employee_id = ? AND project_id = ?`,
		string(employeeID), string(projectID))
}

func (s *Store) FindByProject(ctx context.Context, projectID allocation.ProjectID) ([]allocation.Allocation, error) {
	return s.queryAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE project_id = ?`, string(projectID))
}

func (s *Store) FindByClient(ctx context.Context, clientID allocation.ClientID) ([]allocation.Allocation, error) {
	return s.queryAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE client_id = ?`, string(clientID))
}

func (s *Store) Insert(ctx context.Context, a allocation.Allocation) (allocation.AllocationID, error) {
	a.ID = allocation.AllocationID(uuid.NewString())
	a.ModifiedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allocations (`+allocationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.ID), string(a.EmployeeID), string(a.ClientID), string(a.ProjectID),
		string(a.Status), a.Percent.String(), string(a.BillingType), string(a.Billed),
		nullDecimal(a.BillingRate), nullString(a.TimesheetApprover),
		a.StartDate.String(), nullDate(a.EndDate),
		nullString(a.ModifiedBy), a.ModifiedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("inserting allocation: %w", err)
	}
	return a.ID, nil
}

func (s *Store) Update(ctx context.Context, a allocation.Allocation) error {
	a.ModifiedAt = s.now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE allocations SET
			employee_id = ?, client_id = ?, project_id = ?, status = ?, percent = ?,
			billing_type = ?, billed = ?, billing_rate = ?, timesheet_approver = ?,
			start_date = ?, end_date = ?, modified_by = ?, modified_at = ?
		WHERE id = ?`,
		string(a.EmployeeID), string(a.ClientID), string(a.ProjectID),
		string(a.Status), a.Percent.String(), string(a.BillingType), string(a.Billed),
		nullDecimal(a.BillingRate), nullString(a.TimesheetApprover),
		a.StartDate.String(), nullDate(a.EndDate),
		nullString(a.ModifiedBy), a.ModifiedAt.UTC().Format(timeLayout),
		string(a.ID),
	)
	if err != nil {
		return fmt.Errorf("updating allocation %s: %w", a.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return allocation.ErrAllocationNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id allocation.AllocationID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("deleting allocation %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return allocation.ErrAllocationNotFound
	}
	return nil
}

func (s *Store) queryAllocations(ctx context.Context, query string, args ...any) ([]allocation.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []allocation.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAllocation(sc scanner) (allocation.Allocation, error) {
	var (
		a                                 allocation.Allocation
		id, employeeID, clientID, projID  string
		status, percent, billType, billed string
		rate, approver, endDate, modBy    sql.NullString
		startDate, modifiedAt             string
	)

	err := sc.Scan(&id, &employeeID, &clientID, &projID, &status, &percent,
		&billType, &billed, &rate, &approver, &startDate, &endDate, &modBy, &modifiedAt)
	if err != nil {
		return allocation.Allocation{}, err
	}

	a.ID = allocation.AllocationID(id)
	a.EmployeeID = allocation.EmployeeID(employeeID)
	a.ClientID = allocation.ClientID(clientID)
	a.ProjectID = allocation.ProjectID(projID)
	a.Status = allocation.Status(status)
	a.BillingType = allocation.BillingType(billType)
	a.Billed = allocation.BilledFlag(billed)
	a.TimesheetApprover = approver.String
	a.ModifiedBy = modBy.String

	a.Percent, err = decimal.NewFromString(percent)
	if err != nil {
		return allocation.Allocation{}, fmt.Errorf("allocation %s: bad percent %q: %w", id, percent, err)
	}
	if rate.Valid {
		d, err := decimal.NewFromString(rate.String)
		if err != nil {
			return allocation.Allocation{}, fmt.Errorf("allocation %s: bad billing rate %q: %w", id, rate.String, err)
		}
		a.BillingRate = &d
	}

	a.StartDate, err = allocation.ParseDate(startDate)
	if err != nil {
		return allocation.Allocation{}, fmt.Errorf("allocation %s: bad start date %q: %w", id, startDate, err)
	}
	if endDate.Valid {
		d, err := allocation.ParseDate(endDate.String)
		if err != nil {
			return allocation.Allocation{}, fmt.Errorf("allocation %s: bad end date %q: %w", id, endDate.String, err)
		}
		a.EndDate = &d
	}

	a.ModifiedAt, err = time.Parse(timeLayout, modifiedAt)
	if err != nil {
		return allocation.Allocation{}, fmt.Errorf("allocation %s: bad modified_at %q: %w", id, modifiedAt, err)
	}
	return a, nil
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) ListEmployees(ctx context.Context) ([]directory.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, role, email, studio, location, status FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []directory.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id allocation.EmployeeID) (directory.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, role, email, studio, location, status FROM employees WHERE id = ?`, string(id))
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return directory.Employee{}, directory.ErrNotFound
	}
	return e, err
}

func (s *Store) PutEmployee(ctx context.Context, e directory.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, role, email, studio, location, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, role = excluded.role, email = excluded.email,
			studio = excluded.studio, location = excluded.location, status = excluded.status`,
		string(e.ID), e.Name, e.Role, e.Email, e.Studio, e.Location, e.Status)
	return err
}

func (s *Store) ListClients(ctx context.Context) ([]directory.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, country, partner FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []directory.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) GetClient(ctx context.Context, id allocation.ClientID) (directory.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, country, partner FROM clients WHERE id = ?`, string(id))
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return directory.Client{}, directory.ErrNotFound
	}
	return c, err
}

func (s *Store) PutClient(ctx context.Context, c directory.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, country, partner)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, country = excluded.country, partner = excluded.partner`,
		string(c.ID), c.Name, c.Country, c.Partner)
	return err
}

func (s *Store) ListProjects(ctx context.Context) ([]directory.Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, client_id, name, status, category, manager FROM projects ORDER BY name`)
}

func (s *Store) GetProject(ctx context.Context, id allocation.ProjectID) (directory.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, name, status, category, manager FROM projects WHERE id = ?`, string(id))
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return directory.Project{}, directory.ErrNotFound
	}
	return p, err
}

func (s *Store) ProjectsByClient(ctx context.Context, clientID allocation.ClientID) ([]directory.Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, client_id, name, status, category, manager FROM projects WHERE client_id = ? ORDER BY name`,
		string(clientID))
}

func (s *Store) PutProject(ctx context.Context, p directory.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, client_id, name, status, category, manager)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id, name = excluded.name, status = excluded.status,
			category = excluded.category, manager = excluded.manager`,
		string(p.ID), string(p.ClientID), p.Name, p.Status, p.Category, p.Manager)
	return err
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]directory.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []directory.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanEmployee(sc scanner) (directory.Employee, error) {
	var (
		e                                     directory.Employee
		id                                    string
		role, email, studio, location, status sql.NullString
	)
	if err := sc.Scan(&id, &e.Name, &role, &email, &studio, &location, &status); err != nil {
		return directory.Employee{}, err
	}
	e.ID = allocation.EmployeeID(id)
	e.Role = role.String
	e.Email = email.String
	e.Studio = studio.String
	e.Location = location.String
	e.Status = status.String
	return e, nil
}

func scanClient(sc scanner) (directory.Client, error) {
	var (
		c                directory.Client
		id               string
		country, partner sql.NullString
	)
	if err := sc.Scan(&id, &c.Name, &country, &partner); err != nil {
		return directory.Client{}, err
	}
	c.ID = allocation.ClientID(id)
	c.Country = country.String
	c.Partner = partner.String
	return c, nil
}

func scanProject(sc scanner) (directory.Project, error) {
	var (
		p                         directory.Project
		id, clientID              string
		status, category, manager sql.NullString
	)
	if err := sc.Scan(&id, &clientID, &p.Name, &status, &category, &manager); err != nil {
		return directory.Project{}, err
	}
	p.ID = allocation.ProjectID(id)
	p.ClientID = allocation.ClientID(clientID)
	p.Status = status.String
	p.Category = category.String
	p.Manager = manager.String
	return p, nil
}

// =============================================================================
// NULL HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(d *allocation.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
