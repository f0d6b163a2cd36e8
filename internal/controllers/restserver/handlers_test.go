package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/host/memory"
	"github.com/chrissnell/weatherlink-ns/internal/nodes"
	"github.com/chrissnell/weatherlink-ns/internal/types"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"github.com/chrissnell/weatherlink-ns/pkg/responseformat"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
	"go.uber.org/zap"
)

var nop = zap.NewNop().Sugar()

type staticFetcher weatherlink.Observation

func (f staticFetcher) Fetch(ctx context.Context) (weatherlink.Observation, error) {
	return weatherlink.Observation(f), nil
}

type fakeHistory struct {
	node, driver string
	since        time.Time
	err          error
}

func (f *fakeHistory) History(ctx context.Context, node, driver string, since time.Time) ([]types.DriverReading, error) {
	f.node, f.driver, f.since = node, driver, since
	if f.err != nil {
		return nil, f.err
	}
	return []types.DriverReading{
		{Time: since.Add(time.Minute), Node: node, Driver: driver, Value: 64.1, UOM: units.UOMFahrenheit},
		{Time: since.Add(2 * time.Minute), Node: node, Driver: driver, Value: 64.3, UOM: units.UOMFahrenheit},
	}, nil
}

type fakeStorage map[string]string

func (f fakeStorage) Health(ctx context.Context) map[string]string { return f }

func newTestServer(t *testing.T, opts Options) (*Controller, *memory.Host) {
	t.Helper()

	h := memory.New()
	obs := staticFetcher{"temp_f": "65.3", "relative_humidity": "54"}
	ctl := nodes.NewController(h, nop, nodes.ControllerOptions{
		Params: nodes.NewParams(nodes.DefaultParamSpecs, map[string]string{
			nodes.ParamUser: "u", nodes.ParamPassword: "p", nodes.ParamAPIToken: "t",
		}),
		NewFetcher: func(map[string]string) (nodes.Fetcher, error) { return obs, nil },
	})
	if err := ctl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c, err := NewController(context.Background(), &sync.WaitGroup{}, config.RESTServerData{Port: 8080}, ctl, opts, nop)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return c, h
}

func serve(c *Controller, method, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c.Server.Handler.ServeHTTP(rec, httptest.NewRequest(method, url, nil))
	return rec
}

func TestGetHealth(t *testing.T) {
	c, _ := newTestServer(t, Options{Storage: fakeStorage{"timescaledb": "healthy"}})

	rec := serve(c, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || !resp.Configured || resp.LastPoll == nil || resp.Storage["timescaledb"] != "healthy" {
		t.Errorf("health = %+v", resp)
	}

	c.storage = fakeStorage{"timescaledb": "connection refused"}
	rec = serve(c, http.MethodGet, "/healthz")
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "degraded" {
		t.Errorf("status with failing storage = %q, want degraded", resp.Status)
	}
}

func TestGetNodes(t *testing.T) {
	c, _ := newTestServer(t, Options{})

	rec := serve(c, http.MethodGet, "/api/nodes")
	var resp []NodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp) != 4 {
		t.Fatalf("got %d nodes, want 4", len(resp))
	}
	want := []string{"wl", "day", "month", "year"}
	for i, n := range resp {
		if n.Address != want[i] || n.Primary != "wl" {
			t.Errorf("node %d = %s (primary %s), want %s", i, n.Address, n.Primary, want[i])
		}
	}
	if len(resp[1].Drivers) != 17 {
		t.Errorf("day node has %d drivers, want 17", len(resp[1].Drivers))
	}
}

func TestGetNodeAndDriver(t *testing.T) {
	c, _ := newTestServer(t, Options{})

	tests := []struct {
		url    string
		status int
	}{
		{"/api/nodes/wl", http.StatusOK},
		{"/api/nodes/attic", http.StatusNotFound},
		{"/api/nodes/wl/drivers/CLITEMP", http.StatusOK},
		{"/api/nodes/wl/drivers/GV99", http.StatusNotFound},
		{"/api/nodes/attic/drivers/CLITEMP", http.StatusNotFound},
		{"/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := serve(c, http.MethodGet, tt.url); rec.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.url, rec.Code, tt.status)
		}
	}

	rec := serve(c, http.MethodGet, "/api/nodes/wl/drivers/CLITEMP")
	var d DriverResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Driver != "CLITEMP" || d.Value != 65.3 || d.UOM != units.UOMFahrenheit {
		t.Errorf("driver = %+v", d)
	}

	rec = serve(c, http.MethodGet, "/api/nodes/wl?format=msgpack")
	var n NodeResponse
	if err := responseformat.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatalf("msgpack decode error = %v", err)
	}
	if n.Address != "wl" || n.Units != "us" {
		t.Errorf("msgpack node = %+v", n)
	}
}

func TestGetDriverHistory(t *testing.T) {
	c, _ := newTestServer(t, Options{})
	if rec := serve(c, http.MethodGet, "/api/nodes/wl/drivers/CLITEMP/history"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("history without storage = %d, want 503", rec.Code)
	}

	hist := &fakeHistory{}
	c.history = hist

	rec := serve(c, http.MethodGet, "/api/nodes/wl/drivers/CLITEMP/history?hours=6")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Readings) != 2 || hist.node != "wl" || hist.driver != "CLITEMP" {
		t.Errorf("history = %+v, query %s/%s", resp, hist.node, hist.driver)
	}
	if age := time.Since(hist.since); age < 6*time.Hour-time.Minute || age > 6*time.Hour+time.Minute {
		t.Errorf("history since %v ago, want 6h", age)
	}

	for _, url := range []string{
		"/api/nodes/wl/drivers/CLITEMP/history?hours=0",
		"/api/nodes/wl/drivers/CLITEMP/history?hours=lots",
		"/api/nodes/wl/drivers/CLITEMP/history?hours=100000",
	} {
		if rec := serve(c, http.MethodGet, url); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", url, rec.Code)
		}
	}

	hist.err = errors.New("db down")
	if rec := serve(c, http.MethodGet, "/api/nodes/wl/drivers/CLITEMP/history"); rec.Code != http.StatusInternalServerError {
		t.Errorf("history with db error = %d, want 500", rec.Code)
	}
}

func TestPostQuery(t *testing.T) {
	c, h := newTestServer(t, Options{})
	before := h.Updates()

	rec := serve(c, http.MethodPost, "/api/query")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/query = %d", rec.Code)
	}
	if got := h.Updates() - before; got != 11+17+16+16 {
		t.Errorf("query sent %d updates", got)
	}

	if rec := serve(c, http.MethodGet, "/api/query"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/query = %d, want 405", rec.Code)
	}
}
