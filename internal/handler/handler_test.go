package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository/contract"
	"github.com/maxviazov/config-grid-service/internal/repository/memory"
	"github.com/maxviazov/config-grid-service/internal/resource"
	"github.com/maxviazov/config-grid-service/internal/service"
	"github.com/maxviazov/config-grid-service/pkg/response"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testServer struct {
	engine  *gin.Engine
	store   *memory.Store
	metrics *Metrics
	logs    *bytes.Buffer
}

func newTestServer(t *testing.T, mutate func(*Dependencies)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore(contract.HostSchema(), contract.HostRows())
	reg, err := resource.NewRegistry(resource.Descriptor{
		Schema:       contract.HostSchema(),
		DefaultSort:  model.Sort{Column: "name", Direction: model.SortAsc},
		DefaultLimit: 10,
		Page: resource.Page{
			Title:    "Hosts",
			Template: "list.tmpl",
			CSS:      []string{"dataTables.css"},
			JS:       []string{"jquery.dataTables.min.js"},
		},
		Accessor:  store,
		Snapshots: store,
	})
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	deps := Dependencies{
		Store:         store,
		Grid:          service.NewListQueryEngine(reg, 50),
		Logger:        zerolog.New(logs),
		Metrics:       NewMetrics(),
		ExportMaxRows: 100,
	}
	if mutate != nil {
		mutate(&deps)
	}
	r := gin.New()
	require.NoError(t, Register(r, deps))
	return &testServer{engine: r, store: store, metrics: deps.Metrics, logs: logs}
}

func (s *testServer) do(method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.engine.ServeHTTP(w, req)
	return w
}

func TestDatatable_FirstPage(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, ConfigurationPrefix+"/host/datatable?draw=2&start=0&length=10&order[0][column]=1&order[0][dir]=asc&columns[0][data]=id&columns[1][data]=name")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payload struct {
		Draw            int              `json:"draw"`
		RecordsTotal    int              `json:"recordsTotal"`
		RecordsFiltered int              `json:"recordsFiltered"`
		Data            []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Draw)
	assert.Equal(t, 25, payload.RecordsTotal)
	assert.Equal(t, 25, payload.RecordsFiltered)
	require.Len(t, payload.Data, 10)
	assert.Equal(t, "host01", payload.Data[0]["name"])
	assert.Equal(t, "host10", payload.Data[9]["name"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestDatatable_SearchNarrowsFilteredCount(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, ConfigurationPrefix+"/host/datatable?search[value]=host2")
	require.Equal(t, http.StatusOK, w.Code)

	var payload model.GridPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 25, payload.RecordsTotal)
	assert.Equal(t, 6, payload.RecordsFiltered, "host20..host25")
}

func TestDatatable_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode int
		wantErr  string
	}{
		{"limit above max", "/host/datatable?length=500", http.StatusBadRequest, "invalid_parameter"},
		{"bad sort", "/host/datatable?sort=password", http.StatusBadRequest, "invalid_parameter"},
		{"unknown resource", "/widget/datatable", http.StatusNotFound, "unknown_resource"},
	}
	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodGet, ConfigurationPrefix+tt.target)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			var payload response.ErrorPayload
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, tt.wantErr, payload.Error)
		})
	}
}

func TestDatatable_BackendUnavailable(t *testing.T) {
	s := newTestServer(t, nil)
	s.store.FailWith(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	w := s.do(http.MethodGet, ConfigurationPrefix+"/host/datatable")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5", "backend cause must not reach the client")
	assert.Contains(t, s.logs.String(), "connection refused", "but it must reach the request log")
}

func TestListPage(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, ConfigurationPrefix+"/host")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Contains(t, body, "<title>Hosts</title>")
	assert.Contains(t, body, "/static/css/dataTables.css")
	assert.Contains(t, body, "/static/js/jquery.dataTables.min.js")
	assert.Contains(t, body, ConfigurationPrefix+"/host/datatable")
	assert.Contains(t, body, `data-data="check_interval"`)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, ConfigurationPrefix+"/widget").Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, ConfigurationPrefix+"/host/export?poller=edge&sort=id")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "host.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("host")
	require.NoError(t, err)
	require.Len(t, rows, 10, "header plus nine edge hosts")
	assert.Equal(t, []string{"id", "name", "alias", "address", "poller", "activated", "check_interval"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "edge", rows[1][4])
}

func TestExport_RespectsMaxRows(t *testing.T) {
	s := newTestServer(t, func(d *Dependencies) { d.ExportMaxRows = 3 })
	w := s.do(http.MethodGet, ConfigurationPrefix+"/host/export")
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("host")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestCreateAndUpdateAreNotImplemented(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotImplemented, s.do(http.MethodPost, ConfigurationPrefix+"/host/create").Code)
	assert.Equal(t, http.StatusNotImplemented, s.do(http.MethodPut, ConfigurationPrefix+"/host/update").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, ConfigurationPrefix+"/widget/create").Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready").Code)

	s.store.FailWith(errors.New("down"))
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/ready").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodGet, ConfigurationPrefix+"/host/datatable")
	s.do(http.MethodGet, ConfigurationPrefix+"/widget/datatable")

	w := s.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `configgrid_grid_queries_total{outcome="ok",resource="host"} 1`)
	assert.Contains(t, body, `configgrid_grid_queries_total{outcome="unknown_resource",resource="unknown"} 1`)
	assert.Contains(t, body, `route="/configuration/:resource/datatable"`)
	assert.NotContains(t, body, "widget")
}

func TestDocs(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/openapi.yaml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "openapi:"))
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/docs").Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(d *Dependencies) {
		d.RateLimitPerMinute = 1
		d.RateLimitBurst = 2
	})
	target := ConfigurationPrefix + "/host/datatable"
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, target).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, target).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, target).Code)
	// probes are outside the limited group
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live").Code)
}

func TestRequestID_ReusesValidIncoming(t *testing.T) {
	s := newTestServer(t, nil)
	const id = "3f0c1d0e-8a4b-4c6e-9d2f-1a2b3c4d5e6f"
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
	assert.Contains(t, s.logs.String(), id)
}

func TestValidateRoutes(t *testing.T) {
	h := func(*gin.Context) {}
	tests := []struct {
		name    string
		routes  []Route
		wantErr bool
	}{
		{name: "grid table", routes: GridRoutes(&GridHandler{})},
		{name: "duplicate", wantErr: true, routes: []Route{
			{Method: http.MethodGet, Path: "/a", Name: "a", Handlers: []gin.HandlerFunc{h}},
			{Method: http.MethodGet, Path: "/a", Name: "b", Handlers: []gin.HandlerFunc{h}},
		}},
		{name: "same path other method", routes: []Route{
			{Method: http.MethodGet, Path: "/a", Name: "a", Handlers: []gin.HandlerFunc{h}},
			{Method: http.MethodPost, Path: "/a", Name: "b", Handlers: []gin.HandlerFunc{h}},
		}},
		{name: "no handlers", wantErr: true, routes: []Route{{Method: http.MethodGet, Path: "/a", Name: "a"}}},
		{name: "relative path", wantErr: true, routes: []Route{{Method: http.MethodGet, Path: "a", Name: "a", Handlers: []gin.HandlerFunc{h}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRoutes(tt.routes)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegister_RequiresGridService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	assert.Error(t, Register(gin.New(), Dependencies{}))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("nope") }

func TestReadiness_UsesInjectedPinger(t *testing.T) {
	s := newTestServer(t, func(d *Dependencies) { d.Store = failingPinger{} })
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/ready").Code)
}
