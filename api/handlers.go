/*
handlers.go - HTTP handler implementations

PURPOSE:
  Thin adapters between HTTP and the admission engine. Every allocation
  mutation - create, update, delete - flows through the engine; the API
  layer never touches the repository for writes. Directory and listing
  endpoints are read-only passthroughs.

ERROR MAPPING:
  Engine rejections arrive as typed errors and map onto statuses:
    field/enum/range rejections  -> 400
    capacity, overlap, closed    -> 409
    not found                    -> 404
    store unavailable            -> 503 (retryable)
  The response body carries the rejection code and structured detail so
  clients can render a precise message without another round trip.

SEE ALSO:
  - server.go: routing and middleware
  - dto.go: wire types
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/warp/staffing-engine/allocation"
	"github.com/warp/staffing-engine/directory"
)

// Handler bundles the dependencies of the HTTP surface.
type Handler struct {
	engine   *allocation.Engine
	repo     allocation.Repository
	dir      directory.Directory
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a handler over the engine, repository, and directory.
func NewHandler(engine *allocation.Engine, repo allocation.Repository, dir directory.Directory, log zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		repo:     repo,
		dir:      dir,
		validate: validator.New(),
		log:      log,
	}
}

// =============================================================================
// ALLOCATION ADMISSION
// =============================================================================

// CreateAllocation handles POST /api/allocations.
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	h.admit(w, r, "", allocation.ModeCreate)
}

// UpdateAllocation handles PUT /api/allocations/{id}.
func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	id := allocation.AllocationID(chi.URLParam(r, "id"))
	h.admit(w, r, id, allocation.ModeUpdate)
}

func (h *Handler) admit(w http.ResponseWriter, r *http.Request, id allocation.AllocationID, mode allocation.AdmitMode) {
	var req AdmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body", Code: "bad_request"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "request body failed validation", Code: "bad_request", Details: err.Error(),
		})
		return
	}

	candidate, err := req.toAllocation(id)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "dates must be ISO format (2006-01-02)", Code: "invalid_date",
		})
		return
	}

	admittedID, err := h.engine.Admit(r.Context(), candidate, mode)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	status := http.StatusCreated
	if mode == allocation.ModeUpdate {
		status = http.StatusOK
	}
	h.respondJSON(w, status, AdmitResponse{ID: string(admittedID)})
}

// GetAllocation handles GET /api/allocations/{id}.
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id := allocation.AllocationID(chi.URLParam(r, "id"))
	a, err := h.engine.Get(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toAllocationDTO(a))
}

// DeleteAllocation handles DELETE /api/allocations/{id}.
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id := allocation.AllocationID(chi.URLParam(r, "id"))
	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CAPACITY AND CONFLICT INSPECTION
// =============================================================================

// GetCapacity handles GET /api/employees/{id}/capacity?from=&to=.
// Without a window it reports as of today.
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	employeeID := allocation.EmployeeID(chi.URLParam(r, "id"))
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	totals, err := h.engine.RemainingCapacity(r.Context(), employeeID, window)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	committed, _ := totals.Committed.Float64()
	staged, _ := totals.Staged.Float64()
	remaining, _ := totals.Remaining().Float64()
	dto := CapacityDTO{
		EmployeeID: string(employeeID),
		Committed:  committed,
		Staged:     staged,
		Remaining:  remaining,
	}
	if !window.Start.IsZero() {
		dto.From = window.Start.String()
		if window.End != nil {
			dto.To = window.End.String()
		}
	}
	h.respondJSON(w, http.StatusOK, dto)
}

// GetConflicts handles GET /api/employees/{id}/conflicts?project=&from=&to=.
func (h *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	employeeID := allocation.EmployeeID(chi.URLParam(r, "id"))
	projectID := allocation.ProjectID(r.URL.Query().Get("project"))
	if projectID == "" {
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "query parameter 'project' is required", Code: "bad_request",
		})
		return
	}
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	conflicts, err := h.engine.ActiveConflicts(r.Context(), employeeID, projectID, window)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, ConflictsDTO{
		EmployeeID: string(employeeID),
		ProjectID:  string(projectID),
		Conflicts:  toAllocationDTOs(conflicts),
	})
}

// parseWindow reads optional from/to query params. Returns ok=false after
// writing an error response.
func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (allocation.DateRange, bool) {
	var window allocation.DateRange

	if from := r.URL.Query().Get("from"); from != "" {
		start, err := allocation.ParseDate(from)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, ErrorResponse{Error: "bad 'from' date", Code: "invalid_date"})
			return window, false
		}
		window.Start = start
	}
	if to := r.URL.Query().Get("to"); to != "" {
		end, err := allocation.ParseDate(to)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, ErrorResponse{Error: "bad 'to' date", Code: "invalid_date"})
			return window, false
		}
		window.End = &end
	}
	if window.End != nil && window.Start.IsZero() {
		h.respondError(w, http.StatusBadRequest, ErrorResponse{Error: "'to' requires 'from'", Code: "bad_request"})
		return window, false
	}
	if !window.Valid() {
		h.respondError(w, http.StatusBadRequest, ErrorResponse{Error: "'to' precedes 'from'", Code: "bad_request"})
		return window, false
	}
	return window, true
}

// =============================================================================
// ALLOCATION LISTINGS
// =============================================================================

// ListEmployeeAllocations handles GET /api/employees/{id}/allocations.
func (h *Handler) ListEmployeeAllocations(w http.ResponseWriter, r *http.Request) {
	employeeID := allocation.EmployeeID(chi.URLParam(r, "id"))
	rows, err := h.repo.FindByEmployee(r.Context(), employeeID)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toAllocationDTOs(rows))
}

// ListProjectAllocations handles GET /api/projects/{id}/allocations.
func (h *Handler) ListProjectAllocations(w http.ResponseWriter, r *http.Request) {
	projectID := allocation.ProjectID(chi.URLParam(r, "id"))
	rows, err := h.repo.FindByProject(r.Context(), projectID)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toAllocationDTOs(rows))
}

// ListClientAllocations handles GET /api/clients/{id}/allocations.
func (h *Handler) ListClientAllocations(w http.ResponseWriter, r *http.Request) {
	clientID := allocation.ClientID(chi.URLParam(r, "id"))
	rows, err := h.repo.FindByClient(r.Context(), clientID)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toAllocationDTOs(rows))
}

// =============================================================================
// DIRECTORY PASSTHROUGHS
// =============================================================================

// ListEmployees handles GET /api/employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.dir.ListEmployees(r.Context())
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	h.respondJSON(w, http.StatusOK, dtos)
}

// GetEmployee handles GET /api/employees/{id}.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.dir.GetEmployee(r.Context(), allocation.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondDirectoryError(w, err, "employee")
		return
	}
	h.respondJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// ListClients handles GET /api/clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.dir.ListClients(r.Context())
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	h.respondJSON(w, http.StatusOK, dtos)
}

// GetClient handles GET /api/clients/{id}.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.dir.GetClient(r.Context(), allocation.ClientID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondDirectoryError(w, err, "client")
		return
	}
	h.respondJSON(w, http.StatusOK, toClientDTO(c))
}

// ListClientProjects handles GET /api/clients/{id}/projects.
func (h *Handler) ListClientProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.dir.ProjectsByClient(r.Context(), allocation.ClientID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	h.respondJSON(w, http.StatusOK, dtos)
}

// ListProjects handles GET /api/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.dir.ListProjects(r.Context())
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	h.respondJSON(w, http.StatusOK, dtos)
}

// GetProject handles GET /api/projects/{id}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.dir.GetProject(r.Context(), allocation.ProjectID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondDirectoryError(w, err, "project")
		return
	}
	h.respondJSON(w, http.StatusOK, toProjectDTO(p))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, body ErrorResponse) {
	h.respondJSON(w, status, body)
}

// respondEngineError maps engine errors onto HTTP statuses and codes.
func (h *Handler) respondEngineError(w http.ResponseWriter, err error) {
	var (
		missingErr  *allocation.MissingFieldError
		enumErr     *allocation.InvalidEnumError
		percentErr  *allocation.PercentRangeError
		orderErr    *allocation.DateOrderError
		startErr    *allocation.StartDateError
		capacityErr *allocation.CapacityExceededError
		overlapErr  *allocation.OverlapError
		notFoundErr *allocation.NotFoundError
		closedErr   *allocation.ClosedError
	)

	switch {
	case errors.As(err, &missingErr):
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(), Code: "missing_required_field",
			Details: map[string]string{"field": missingErr.Field},
		})
	case errors.As(err, &enumErr):
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(), Code: "invalid_enum_value",
			Details: map[string]string{"field": enumErr.Field, "value": enumErr.Value},
		})
	case errors.As(err, &percentErr):
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(), Code: "out_of_range_percent",
			Details: map[string]string{"value": percentErr.Value.String()},
		})
	case errors.As(err, &orderErr):
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(), Code: "invalid_date_order",
		})
	case errors.As(err, &startErr):
		h.respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(), Code: "start_date_too_early",
			Details: map[string]string{"minimum": startErr.Min.String()},
		})
	case errors.As(err, &capacityErr):
		h.respondError(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(), Code: "capacity_exceeded",
			Details: map[string]string{"attempted_total": capacityErr.AttemptedTotal.String()},
		})
	case errors.As(err, &overlapErr):
		ids := make([]string, len(overlapErr.Conflicts))
		for i, c := range overlapErr.Conflicts {
			ids[i] = string(c.ID)
		}
		h.respondError(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(), Code: "overlapping_allocation",
			Details: map[string]any{"conflicting_ids": ids},
		})
	case errors.As(err, &notFoundErr):
		h.respondError(w, http.StatusNotFound, ErrorResponse{
			Error: err.Error(), Code: "not_found",
			Details: map[string]string{"id": string(notFoundErr.ID)},
		})
	case errors.As(err, &closedErr):
		h.respondError(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(), Code: "allocation_closed",
		})
	case allocation.IsRetryable(err):
		h.respondError(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "store temporarily unavailable, retry later", Code: "store_unavailable",
		})
	default:
		h.log.Error().Err(err).Msg("unhandled error")
		h.respondError(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal error", Code: "internal",
		})
	}
}

func (h *Handler) respondDirectoryError(w http.ResponseWriter, err error, kind string) {
	if errors.Is(err, directory.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, ErrorResponse{
			Error: kind + " not found", Code: "not_found",
		})
		return
	}
	h.respondEngineError(w, err)
}
