package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"gridpm/internal/config"
	"gridpm/internal/dashboard"
	"gridpm/internal/domain"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	profile, err := config.Builtin(config.ProfileDetailed)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	handler, err := New(Config{
		Profile:  profile,
		BasePath: "/v0",
		Now:      func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestHealth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(data), `"ok"`) {
		t.Fatalf("health %d: %s", res.StatusCode, string(data))
	}
}

func TestAssetsDefaultBatch(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/assets", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("assets %d: %s", res.StatusCode, string(data))
	}
	var out AssetListResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Generated != 20 || out.Returned != 20 || len(out.Assets) != 20 {
		t.Fatalf("expected the profile batch size, got %d/%d", out.Generated, out.Returned)
	}
	if out.Profile != config.ProfileDetailed || out.Seed != nil {
		t.Fatalf("unexpected header %+v", out)
	}
	for i := 1; i < len(out.Assets); i++ {
		if out.Assets[i-1].FailureProbability < out.Assets[i].FailureProbability {
			t.Fatalf("assets not sorted at %d", i)
		}
	}
}

func TestAssetsFiltersAndSeed(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	url := srv.URL + "/v0/assets?count=200&seed=11&risk=High&type=Circuit&limit=3"
	res, data := doJSON(t, srv.Client(), http.MethodGet, url, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("assets %d: %s", res.StatusCode, string(data))
	}
	var first AssetListResponse
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Generated != 200 || first.Returned > 3 {
		t.Fatalf("unexpected sizes %d/%d", first.Generated, first.Returned)
	}
	for _, a := range first.Assets {
		if a.RiskLevel != domain.RiskHigh || a.AssetType != domain.AssetCircuitBreaker {
			t.Fatalf("filter leaked %+v", a)
		}
	}
	_, again := doJSON(t, srv.Client(), http.MethodGet, url, nil)
	if string(again) != string(data) {
		t.Fatalf("seeded responses differ")
	}
}

func TestAssetsRejectsBadQuery(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	for _, q := range []string{"risk=Severe", "count=-1", "count=10001"} {
		res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/assets?"+q, nil)
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d %s", q, res.StatusCode, string(data))
		}
		var envelope apiError
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Body.Code != "bad_request" {
			t.Fatalf("%s: unexpected envelope %s", q, string(data))
		}
	}
}

func TestSummaryCountsMatchBatch(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/assets/summary?count=40&seed=5", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("summary %d: %s", res.StatusCode, string(data))
	}
	var out SummaryResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sum := 0
	for _, lvl := range domain.RiskLevels {
		sum += out.Summary.Counts[lvl]
	}
	if out.Summary.Total != 40 || sum != 40 {
		t.Fatalf("counts %v do not add up to 40", out.Summary.Counts)
	}
}

func TestTrendsDaysBounds(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/trends", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("trends %d: %s", res.StatusCode, string(data))
	}
	var out TrendResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Days != 30 || len(out.Points) != 30 || out.Points[29].Date != "2024-05-31" {
		t.Fatalf("unexpected trend %d points, last %+v", len(out.Points), out.Points[len(out.Points)-1])
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/trends?days=0", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for days=0, got %d %s", res.StatusCode, string(data))
	}
}

func TestStatusImpactAndCrews(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/status?seed=3", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var status domain.SystemStatus
	_ = json.Unmarshal(data, &status)
	if status.AssetsMonitored != 9247 || status.Pods.Desired != 15 {
		t.Fatalf("unexpected status %+v", status)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/pipeline?seed=3", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("pipeline %d: %s", res.StatusCode, string(data))
	}
	var perf domain.PipelinePerformance
	_ = json.Unmarshal(data, &perf)
	if perf.LatencyMS < 180 || perf.LatencyMS > 220 || perf.Uptime < 0.997 || perf.Uptime > 0.999 {
		t.Fatalf("unexpected pipeline %+v", perf)
	}
	_, again := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/pipeline?seed=3", nil)
	if string(again) != string(data) {
		t.Fatalf("seeded pipeline differs: %s vs %s", data, again)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/impact", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("impact %d: %s", res.StatusCode, string(data))
	}
	var impact domain.BusinessImpact
	_ = json.Unmarshal(data, &impact)
	if len(impact.Headline) != 4 || len(impact.CostBreakdown) != 5 {
		t.Fatalf("unexpected impact %+v", impact)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/crews", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("crews %d: %s", res.StatusCode, string(data))
	}
	var crews CrewsResponse
	_ = json.Unmarshal(data, &crews)
	if len(crews.Crews) != 5 || crews.Crews[0].ID != "Alpha-01" {
		t.Fatalf("unexpected crews %+v", crews)
	}
}

func TestEnsembleAndROI(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/ensemble/estimate", map[string]any{
		"xgboost": 0.5, "tensorflow": 0.5, "random_forest": 0.5,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("ensemble %d: %s", res.StatusCode, string(data))
	}
	var est domain.EnsembleEstimate
	_ = json.Unmarshal(data, &est)
	if est.Balanced || est.Warning == "" {
		t.Fatalf("expected an unbalanced warning, got %+v", est)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/ensemble/estimate", map[string]any{
		"xgboost": 1.5, "tensorflow": 0, "random_forest": 0,
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for weight 1.5, got %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/roi", map[string]any{
		"implementation_cost_k": 825, "monthly_savings_k": 190, "months": 24,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("roi %d: %s", res.StatusCode, string(data))
	}
	var proj domain.ROIProjection
	_ = json.Unmarshal(data, &proj)
	if proj.BreakEvenMonth != 5 || proj.FinalROIPct != "453" || len(proj.Points) != 24 {
		t.Fatalf("unexpected projection %+v", proj)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/roi", map[string]any{
		"implementation_cost_k": 0, "monthly_savings_k": 190, "months": 24,
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero cost, got %d %s", res.StatusCode, string(data))
	}
}

func TestOpenAPIAndDocs(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/openapi.json", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi %d", res.StatusCode)
	}
	for _, want := range []string{`"/v0/assets"`, `"/v0/roi"`, `"default"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("openapi missing %s", want)
		}
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/docs", nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(data), "/v0/openapi.json") {
		t.Fatalf("docs %d", res.StatusCode)
	}
}

func TestHandleErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("days: %w", dashboard.ErrInvalidInput), http.StatusBadRequest, "bad_request"},
		{fmt.Errorf("profile: %w", config.ErrInvalidConfig), http.StatusBadRequest, "bad_request"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		se := handleError(tc.err)
		apiErr, ok := se.(*apiError)
		if !ok {
			t.Fatalf("%v: unexpected error type %T", tc.err, se)
		}
		if apiErr.GetStatus() != tc.status || apiErr.Body.Code != tc.code {
			t.Fatalf("%v: got %d %s, want %d %s", tc.err, apiErr.GetStatus(), apiErr.Body.Code, tc.status, tc.code)
		}
	}
	if handleError(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
}
