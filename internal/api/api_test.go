package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/observability"
	"github.com/matzehuels/fleetmap/pkg/placement"
	"github.com/matzehuels/fleetmap/pkg/store"
)

func openGridText(n int) string {
	return string(grid.Marshal(grid.New(n, n)))
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(nil, store.NewMemoryStore(), nil, nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func createBody(t *testing.T, extra map[string]any) *bytes.Reader {
	t.Helper()
	body := map[string]any{
		"grid":              openGridText(20),
		"robot_radius_m":    0,
		"edge_margin_cells": 0,
		"order":             []string{"CHARGING"},
		"categories": map[string]any{
			"CHARGING": map[string]int{
				"max_clusters":          3,
				"max_nodes_per_cluster": 1,
				"inter_cluster_spacing": 10,
				"cluster_spacing":       1,
			},
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(data)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	got := decode[map[string]string](t, resp)
	if resp.StatusCode != http.StatusOK || got["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, got)
	}
}

func TestCreateAndFetchRun(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", createBody(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	created := decode[runResponse](t, resp)
	if created.ID == "" {
		t.Fatal("missing id")
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/runs/"+created.ID {
		t.Errorf("Location = %q", loc)
	}
	if created.Result.Stats.POICount != 3 {
		t.Errorf("POI count = %d, want 3", created.Result.Stats.POICount)
	}

	resp, err = http.Get(ts.URL + "/v1/runs/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	fetched := decode[runResponse](t, resp)
	if resp.StatusCode != http.StatusOK || fetched.ID != created.ID {
		t.Fatalf("GET = %d %s", resp.StatusCode, fetched.ID)
	}
	if fetched.Result.Stats.POICount != created.Result.Stats.POICount {
		t.Errorf("fetched POI count = %d", fetched.Result.Stats.POICount)
	}

	resp, err = http.Get(ts.URL + "/v1/runs")
	if err != nil {
		t.Fatal(err)
	}
	list := decode[map[string][]store.Summary](t, resp)
	if len(list["runs"]) != 1 || list["runs"][0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	resp, err = http.Get(ts.URL + "/v1/runs/" + created.ID + "/poi")
	if err != nil {
		t.Fatal(err)
	}
	doc := decode[map[string]any](t, resp)
	if doc["version"] != "3.0" {
		t.Errorf("POI document version = %v", doc["version"])
	}
	if entries, _ := doc["poi"].([]any); len(entries) != 3 {
		t.Errorf("POI entries = %d, want 3", len(entries))
	}
}

func TestCreateRunPartialCategoryOverride(t *testing.T) {
	_, ts := newTestServer(t)

	body := createBody(t, map[string]any{
		"grid":  openGridText(60),
		"order": []string{"PICKUP"},
		"categories": map[string]any{
			"PICKUP": map[string]int{"max_clusters": 2},
		},
	})
	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	created := decode[runResponse](t, resp)

	want := placement.DefaultParams()[placement.Pickup]
	want.MaxClusters = 2
	if got := created.Options.Categories[placement.Pickup]; got != want {
		t.Errorf("PICKUP params = %+v, want %+v", got, want)
	}
	if got := created.Options.Categories[placement.Charging]; got != placement.DefaultParams()[placement.Charging] {
		t.Errorf("CHARGING params = %+v, want defaults", got)
	}
	if want.Requested() != 8 {
		t.Fatalf("requested = %d, want 8", want.Requested())
	}
}

func TestCreateRunFromLayout(t *testing.T) {
	_, ts := newTestServer(t)

	layout := json.RawMessage(`{"floorSize": [4, 4], "objects": [
		{"modelIndex": 1, "center": [2, 0, 2], "dimensions": [1, 1, 1]}
	]}`)
	body := createBody(t, map[string]any{"layout": layout})
	// A request carries either a layout or a grid.
	var m map[string]any
	_ = json.NewDecoder(body).Decode(&m)
	delete(m, "grid")
	data, _ := json.Marshal(m)

	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	created := decode[runResponse](t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if created.Result.Raster.Width != 40 || created.Result.Raster.Obstacles == 0 {
		t.Errorf("raster = %+v", created.Result.Raster)
	}
	if created.Result.LayoutHash == "" {
		t.Error("layout hash missing")
	}
}

func TestCreateRunErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed json", `{"grid":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"colour": "red"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no input", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad grid", `{"grid": "3 3\n...\n"}`, http.StatusBadRequest, errors.ErrCodeInvalidGrid},
		{"bad category", `{"grid": "1 1\n.\n", "order": ["PARKING"]}`, http.StatusBadRequest, errors.ErrCodeInvalidCategory},
		{"bad category key", `{"grid": "1 1\n.\n", "categories": {"PARKING": {"max_clusters": 1}}}`, http.StatusBadRequest, errors.ErrCodeInvalidCategory},
		{"negative radius", `{"grid": "1 1\n.\n", "robot_radius_m": -1}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"bad layout", `{"layout": {"floorSize": [-1, 2]}}`, http.StatusBadRequest, errors.ErrCodeInvalidLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/runs", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			got := decode[errorResponse](t, resp)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, got.Error)
			}
			if got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
		})
	}
}

func TestFailedRunIsNotArchived(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", strings.NewReader(`{"grid": "1 1\n.\n", "budget": -1}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	runs, _ := s.Store.List(context.Background(), 0)
	if len(runs) != 0 {
		t.Errorf("failed run was archived: %+v", runs)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	s, ts := newTestServer(t)
	s.MaxBodyBytes = 64

	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", createBody(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestGetMissingRun(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/v1/runs/nope", "/v1/runs/nope/poi", "/v1/runs/nope/grid"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		got := decode[errorResponse](t, resp)
		if resp.StatusCode != http.StatusNotFound || got.Code != errors.ErrCodeRunNotFound {
			t.Errorf("%s = %d %s, want 404 RUN_NOT_FOUND", path, resp.StatusCode, got.Code)
		}
	}
}

func TestRunGridFormats(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", createBody(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	created := decode[runResponse](t, resp)
	base := ts.URL + "/v1/runs/" + created.ID + "/grid"

	resp, err = http.Get(base + "?layer=accessible")
	if err != nil {
		t.Fatal(err)
	}
	g, err := grid.Read(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read grid: %v", err)
	}
	if g.Width() != 20 || g.Count() != 400 {
		t.Errorf("grid = %dx%d (%d open)", g.Width(), g.Height(), g.Count())
	}

	resp, err = http.Get(base + "?layer=obstacles&format=png")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}

	resp, err = http.Get(base + "?format=svg")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("svg status = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(base + "?layer=elevation")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown layer status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteRun(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", createBody(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	created := decode[runResponse](t, resp)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/v1/runs/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/v1/runs/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", resp.StatusCode)
	}
}

func TestListLimitValidation(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/runs?limit=abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m, err := observability.NewPrometheus(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	observability.SetHTTPHooks(m)
	defer observability.Reset()

	s := New(nil, nil, nil, nil)
	s.Metrics = m.Handler()
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(buf.String(), `fleetmap_http_requests_total{code="200",method="GET",route="/healthz"} 1`) {
		t.Errorf("metrics missing healthz counter:\n%s", buf.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeRunNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidLayout, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeUnavailable, "x"), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHTTPServerTimeouts(t *testing.T) {
	srv := New(nil, nil, nil, nil).HTTPServer(":0")
	if srv.ReadHeaderTimeout != 5*time.Second || srv.Handler == nil {
		t.Errorf("unexpected server config: %+v", srv)
	}
}
