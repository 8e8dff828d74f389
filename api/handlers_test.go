package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/allocation"
	"github.com/warp/staffing-engine/allocation/store"
	"github.com/warp/staffing-engine/directory"
)

// =============================================================================
// TEST FIXTURE
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := store.NewMemory()
	dir := directory.NewMemory()
	dir.AddEmployee(directory.Employee{ID: "emp-1", Name: "Jordan", Role: "Engineer"})
	dir.AddClient(directory.Client{ID: "c1", Name: "Acme"})
	dir.AddProject(directory.Project{ID: "p1", ClientID: "c1", Name: "Rollout"})
	dir.AddProject(directory.Project{ID: "p2", ClientID: "c1", Name: "Audit"})

	engine := allocation.NewEngine(repo, allocation.DefaultRules(), zerolog.Nop())
	handler := NewHandler(engine, repo, dir, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(handler, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func admitBody() map[string]any {
	return map[string]any{
		"employee_id":  "emp-1",
		"client_id":    "c1",
		"project_id":   "p1",
		"status":       "Allocated",
		"percent":      50,
		"billing_type": "Time & Materials",
		"billed":       "Yes",
		"billing_rate": 120,
		"start_date":   "2024-03-01",
		"end_date":     "2024-06-30",
		"modified_by":  "tester",
	}
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func createAllocation(t *testing.T, srv *httptest.Server, body map[string]any) string {
	t.Helper()
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", out)
	id, _ := out["id"].(string)
	require.NotEmpty(t, id)
	return id
}

// =============================================================================
// ADMISSION ENDPOINTS
// =============================================================================

func TestAPI_CreateAndGetAllocation(t *testing.T) {
	srv := newTestServer(t)

	id := createAllocation(t, srv, admitBody())

	resp, out := doJSON(t, http.MethodGet, srv.URL+"/api/allocations/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, out["id"])
	assert.Equal(t, "emp-1", out["employee_id"])
	assert.Equal(t, "Allocated", out["status"])
	assert.Equal(t, float64(50), out["percent"])
	assert.Equal(t, "2024-03-01", out["start_date"])
	assert.Equal(t, "2024-06-30", out["end_date"])
}

func TestAPI_CreateRejectsMissingField(t *testing.T) {
	srv := newTestServer(t)

	body := admitBody()
	delete(body, "status")

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", out["code"])
}

func TestAPI_CreateRejectsEngineMissingField(t *testing.T) {
	// billing_rate presence depends on billed, which only the engine knows.
	srv := newTestServer(t)

	body := admitBody()
	delete(body, "billing_rate")

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing_required_field", out["code"])

	details, _ := out["details"].(map[string]any)
	require.NotNil(t, details)
	assert.Equal(t, "billingRate", details["field"])
}

func TestAPI_CreateRejectsBadEnum(t *testing.T) {
	srv := newTestServer(t)

	body := admitBody()
	body["status"] = "Paused"

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_enum_value", out["code"])
}

func TestAPI_CreateRejectsBadDate(t *testing.T) {
	srv := newTestServer(t)

	body := admitBody()
	body["start_date"] = "03/01/2024"

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_date", out["code"])
}

func TestAPI_CapacityConflictMapsTo409(t *testing.T) {
	srv := newTestServer(t)

	first := admitBody()
	first["percent"] = 60
	createAllocation(t, srv, first)

	second := admitBody()
	second["project_id"] = "p2"
	second["percent"] = 50

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", second)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "capacity_exceeded", out["code"])

	details, _ := out["details"].(map[string]any)
	require.NotNil(t, details)
	assert.Equal(t, "110", details["attempted_total"])
}

func TestAPI_OverlapConflictMapsTo409(t *testing.T) {
	srv := newTestServer(t)

	existingID := createAllocation(t, srv, admitBody())

	second := admitBody()
	second["percent"] = 10

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", second)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "overlapping_allocation", out["code"])

	details, _ := out["details"].(map[string]any)
	require.NotNil(t, details)
	ids, _ := details["conflicting_ids"].([]any)
	require.Len(t, ids, 1)
	assert.Equal(t, existingID, ids[0])
}

func TestAPI_UpdateAllocation(t *testing.T) {
	srv := newTestServer(t)

	id := createAllocation(t, srv, admitBody())

	update := admitBody()
	update["percent"] = 75
	resp, out := doJSON(t, http.MethodPut, srv.URL+"/api/allocations/"+id, update)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %v", out)
	assert.Equal(t, id, out["id"])

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/api/allocations/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(75), out["percent"])
}

func TestAPI_UpdateUnknownAllocation(t *testing.T) {
	srv := newTestServer(t)

	resp, out := doJSON(t, http.MethodPut, srv.URL+"/api/allocations/ghost", admitBody())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", out["code"])
}

func TestAPI_ClosedAllocationMapsTo409(t *testing.T) {
	srv := newTestServer(t)

	id := createAllocation(t, srv, admitBody())

	closing := admitBody()
	closing["status"] = "Closed"
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/allocations/"+id, closing)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reopening := admitBody()
	resp, out := doJSON(t, http.MethodPut, srv.URL+"/api/allocations/"+id, reopening)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "allocation_closed", out["code"])
}

func TestAPI_DeleteAllocation(t *testing.T) {
	srv := newTestServer(t)

	id := createAllocation(t, srv, admitBody())

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/allocations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, out := doJSON(t, http.MethodGet, srv.URL+"/api/allocations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", out["code"])
}

// =============================================================================
// CAPACITY AND CONFLICT INSPECTION
// =============================================================================

func TestAPI_GetCapacity(t *testing.T) {
	srv := newTestServer(t)

	first := admitBody()
	first["percent"] = 60
	createAllocation(t, srv, first)

	staged := admitBody()
	staged["project_id"] = "p2"
	staged["status"] = "Staged"
	staged["percent"] = 15
	createAllocation(t, srv, staged)

	url := srv.URL + "/api/employees/emp-1/capacity?from=2024-04-01&to=2024-04-30"
	resp, out := doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "emp-1", out["employee_id"])
	assert.Equal(t, float64(60), out["committed_percent"])
	assert.Equal(t, float64(15), out["staged_percent"])
	assert.Equal(t, float64(25), out["remaining_percent"])
	assert.Equal(t, "2024-04-01", out["from"])
	assert.Equal(t, "2024-04-30", out["to"])
}

func TestAPI_GetCapacityRejectsBadWindow(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"to without from", "?to=2024-04-30"},
		{"inverted window", "?from=2024-05-01&to=2024-04-01"},
		{"garbage date", "?from=yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/capacity"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAPI_GetConflicts(t *testing.T) {
	srv := newTestServer(t)

	existingID := createAllocation(t, srv, admitBody())

	url := srv.URL + "/api/employees/emp-1/conflicts?project=p1&from=2024-04-01&to=2024-04-30"
	resp, out := doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conflicts, _ := out["conflicts"].([]any)
	require.Len(t, conflicts, 1)
	first, _ := conflicts[0].(map[string]any)
	assert.Equal(t, existingID, first["id"])

	// Missing project parameter is a client error.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/conflicts", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// LISTINGS AND DIRECTORY
// =============================================================================

func TestAPI_ListEmployeeAllocations(t *testing.T) {
	srv := newTestServer(t)

	createAllocation(t, srv, admitBody())
	second := admitBody()
	second["project_id"] = "p2"
	second["percent"] = 30
	createAllocation(t, srv, second)

	resp, err := http.Get(srv.URL + "/api/employees/emp-1/allocations")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 2)
}

func TestAPI_Directory(t *testing.T) {
	srv := newTestServer(t)

	resp, out := doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Jordan", out["name"])

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/api/clients/c1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Acme", out["name"])

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/api/projects/p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "c1", out["client_id"])

	for _, path := range []string{"/api/employees/ghost", "/api/clients/ghost", "/api/projects/ghost"} {
		resp, out := doJSON(t, http.MethodGet, srv.URL+path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "not_found", out["code"], path)
	}

	resp, err := http.Get(srv.URL + "/api/clients/c1/projects")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var projects []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
	assert.Len(t, projects, 2)
}

func TestAPI_InvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/allocations", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ScenarioWalkthrough(t *testing.T) {
	// One employee's staffing over a quarter: fill to exactly 100, get
	// refused past it, free capacity by closing, then restaff.
	srv := newTestServer(t)

	first := admitBody()
	first["percent"] = 60
	firstID := createAllocation(t, srv, first)

	second := admitBody()
	second["project_id"] = "p2"
	second["percent"] = 40
	createAllocation(t, srv, second)

	over := admitBody()
	over["project_id"] = "p3"
	over["percent"] = 1
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/allocations", over)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "capacity_exceeded", out["code"])

	closing := admitBody()
	closing["status"] = "Closed"
	closing["percent"] = 60
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/allocations/"+firstID, closing)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/allocations", over)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", out)

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/capacity?from=2024-03-01&to=2024-06-30", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(41), out["committed_percent"])
}
