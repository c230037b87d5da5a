package gridpmsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal gridpm HTTP API client.
type Client struct {
	BaseURL    string
	BasePath   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Asset mirrors one generated record.
type Asset struct {
	AssetID            string  `json:"asset_id"`
	AssetType          string  `json:"asset_type"`
	Location           string  `json:"location"`
	Manufacturer       string  `json:"manufacturer,omitempty"`
	InstallDate        string  `json:"install_date,omitempty"`
	LastMaintenance    string  `json:"last_maintenance,omitempty"`
	FailureProbability float64 `json:"failure_probability"`
	RiskLevel          string  `json:"risk_level"`
	ExpectedCost       int     `json:"expected_cost"`
	VoltageLevel       string  `json:"voltage_level,omitempty"`
	CustomerImpact     int     `json:"customer_impact,omitempty"`
	ConfidenceScore    float64 `json:"confidence_score,omitempty"`
	CrewPriority       int     `json:"crew_priority,omitempty"`
}

// AssetList is one generated and filtered batch.
type AssetList struct {
	BatchID     string  `json:"batch_id"`
	Profile     string  `json:"profile"`
	GeneratedAt string  `json:"generated_at"`
	Seed        *uint64 `json:"seed,omitempty"`
	Generated   int     `json:"generated"`
	Returned    int     `json:"returned"`
	Assets      []Asset `json:"assets"`
}

// AssetQuery selects and filters a batch. Zero values mean "server default".
type AssetQuery struct {
	Count    int
	Seed     uint64
	Risk     string
	Type     string
	Location string
	Limit    int
}

func (q AssetQuery) values() url.Values {
	v := url.Values{}
	if q.Count > 0 {
		v.Set("count", strconv.Itoa(q.Count))
	}
	if q.Seed > 0 {
		v.Set("seed", strconv.FormatUint(q.Seed, 10))
	}
	if q.Risk != "" {
		v.Set("risk", q.Risk)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Summary aggregates a batch. Money and probability values are decimal strings.
type Summary struct {
	BatchID string `json:"batch_id"`
	Profile string `json:"profile"`
	Summary struct {
		Total             int            `json:"total"`
		Counts            map[string]int `json:"counts"`
		TotalExpectedCost string         `json:"total_expected_cost"`
		HighRiskCost      string         `json:"high_risk_cost"`
		Exposure          string         `json:"exposure"`
		MeanProbability   string         `json:"mean_probability"`
	} `json:"summary"`
}

type EnsembleWeights struct {
	XGBoost      float64 `json:"xgboost"`
	TensorFlow   float64 `json:"tensorflow"`
	RandomForest float64 `json:"random_forest"`
}

type EnsembleEstimate struct {
	Weights   EnsembleWeights `json:"weights"`
	WeightSum float64         `json:"weight_sum"`
	Balanced  bool            `json:"balanced"`
	Warning   string          `json:"warning,omitempty"`
	Accuracy  float64         `json:"accuracy"`
	Recall    float64         `json:"recall"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Health returns the server's health payload.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var resp map[string]string
	err := c.do(ctx, http.MethodGet, c.apiPath("health"), nil, &resp)
	return resp, err
}

// Assets generates a batch server-side and returns the filtered records.
func (c *Client) Assets(ctx context.Context, q AssetQuery) (AssetList, error) {
	endpoint := c.apiPath("assets")
	if v := q.values(); len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	var resp AssetList
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Summary generates a batch of count records and returns its aggregates.
func (c *Client) Summary(ctx context.Context, count int, seed uint64) (Summary, error) {
	endpoint := c.apiPath("assets/summary")
	if v := (AssetQuery{Count: count, Seed: seed}).values(); len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	var resp Summary
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// EstimateEnsemble blends the model benchmark scores by w.
func (c *Client) EstimateEnsemble(ctx context.Context, w EnsembleWeights) (EnsembleEstimate, error) {
	var resp EnsembleEstimate
	err := c.do(ctx, http.MethodPost, c.apiPath("ensemble/estimate"), w, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	base := strings.Trim(c.BasePath, "/")
	if base == "" {
		return strings.TrimLeft(p, "/")
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
