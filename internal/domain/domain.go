package domain

// RiskLevel buckets a failure probability.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"

	// RiskAll is a filter sentinel, never assigned to a record.
	RiskAll RiskLevel = "All"
)

// RiskLevels lists the assignable levels from most to least severe.
var RiskLevels = []RiskLevel{RiskHigh, RiskMedium, RiskLow}

// ParseRiskLevel accepts the three levels and the All sentinel.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskHigh, RiskMedium, RiskLow, RiskAll:
		return RiskLevel(s), true
	}
	return "", false
}

const (
	AssetTransformer    = "Transformer"
	AssetCircuitBreaker = "Circuit Breaker"
	AssetPowerLine      = "Power Line"
	AssetSubstation     = "Substation"
	AssetGenerator      = "Generator"
	AssetSwitchGear     = "Switch Gear"
)

// DateLayout formats install and maintenance dates.
const DateLayout = "2006-01-02"

type Thresholds struct {
	High   float64 `json:"high" yaml:"high"`
	Medium float64 `json:"medium" yaml:"medium"`
}

type AssetRecord struct {
	AssetID            string    `json:"asset_id"`
	AssetType          string    `json:"asset_type"`
	Location           string    `json:"location"`
	Manufacturer       string    `json:"manufacturer,omitempty"`
	InstallDate        string    `json:"install_date,omitempty" format:"date"`
	LastMaintenance    string    `json:"last_maintenance,omitempty" format:"date"`
	FailureProbability float64   `json:"failure_probability"`
	RiskLevel          RiskLevel `json:"risk_level" enum:"High,Medium,Low"`
	ExpectedCost       int       `json:"expected_cost"`
	VoltageLevel       string    `json:"voltage_level,omitempty"`
	CustomerImpact     int       `json:"customer_impact,omitempty"`
	ConfidenceScore    float64   `json:"confidence_score,omitempty"`
	CrewPriority       int       `json:"crew_priority,omitempty"`
}

// Batch is the result of one generator invocation, as handed to presentation.
type Batch struct {
	ID          string        `json:"id"`
	Profile     string        `json:"profile"`
	GeneratedAt string        `json:"generated_at" format:"date-time"`
	Seed        *uint64       `json:"seed,omitempty"`
	Thresholds  Thresholds    `json:"thresholds"`
	Assets      []AssetRecord `json:"assets"`
}

type BatchInfo struct {
	ID          string `json:"id"`
	Profile     string `json:"profile"`
	GeneratedAt string `json:"generated_at" format:"date-time"`
	ExportedAt  string `json:"exported_at" format:"date-time"`
	AssetCount  int    `json:"asset_count"`
	HighCount   int    `json:"high_count"`
}

type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	BatchID string `json:"batch_id,omitempty"`
	ActorID string `json:"actor_id"`
	Payload string `json:"payload_json"`
}

type TrendPoint struct {
	Date          string  `json:"date" format:"date"`
	HighRiskCount int     `json:"high_risk_count"`
	ModelAccuracy float64 `json:"model_accuracy"`
}

type PodStatus struct {
	Running int `json:"running"`
	Desired int `json:"desired"`
}

type SystemStatus struct {
	RefreshedAt      string    `json:"refreshed_at" format:"date-time"`
	EnsembleAccuracy float64   `json:"ensemble_accuracy"`
	AccuracyDelta    float64   `json:"accuracy_delta"`
	RecallRate       float64   `json:"recall_rate"`
	AssetsMonitored  int       `json:"assets_monitored"`
	Pods             PodStatus `json:"pods"`
	CPUPercent       int       `json:"cpu_percent"`
	MemoryPercent    int       `json:"memory_percent"`
	RetrainDAG       string    `json:"retrain_dag" enum:"success,running,queued"`
	HighRiskAssets   int       `json:"high_risk_assets"`
	CrewsAvailable   int       `json:"crews_available"`
	SavingsThousands int       `json:"savings_thousands"`
}

// PipelinePerformance is the end-to-end prediction pipeline card row.
type PipelinePerformance struct {
	LatencyMS        int     `json:"latency_ms"`
	ThroughputPerMin int     `json:"throughput_per_min"`
	ModelAccuracy    float64 `json:"model_accuracy"`
	Uptime           float64 `json:"uptime"`
}

type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Delta string `json:"delta"`
}

type CostCategory struct {
	Category      string  `json:"category"`
	AnnualSavings int     `json:"annual_savings"`
	Percentage    float64 `json:"percentage"`
}

type AssetTypeImpact struct {
	AssetType               string `json:"asset_type"`
	FailureRateReductionPct int    `json:"failure_rate_reduction_pct"`
	AvgCostPerFailure       int    `json:"avg_cost_per_failure"`
	AnnualFailuresPrevented int    `json:"annual_failures_prevented"`
}

type BusinessImpact struct {
	Headline      []Metric          `json:"headline"`
	CostBreakdown []CostCategory    `json:"cost_breakdown"`
	AssetImpact   []AssetTypeImpact `json:"asset_impact"`
}

type Crew struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Assignment     string `json:"assignment"`
	NextPriority   string `json:"next_priority"`
	ETA            string `json:"eta"`
	Efficiency     int    `json:"efficiency"`
	Specialization string `json:"specialization"`
}

type EnsembleWeights struct {
	XGBoost      float64 `json:"xgboost" minimum:"0" maximum:"1"`
	TensorFlow   float64 `json:"tensorflow" minimum:"0" maximum:"1"`
	RandomForest float64 `json:"random_forest" minimum:"0" maximum:"1"`
}

type EnsembleEstimate struct {
	Weights   EnsembleWeights `json:"weights"`
	WeightSum float64         `json:"weight_sum"`
	Balanced  bool            `json:"balanced"`
	Warning   string          `json:"warning,omitempty"`
	Accuracy  float64         `json:"accuracy"`
	Recall    float64         `json:"recall"`
}

type ROIInput struct {
	ImplementationCostK int `json:"implementation_cost_k"`
	MonthlySavingsK     int `json:"monthly_savings_k"`
	Months              int `json:"months"`
}

type ROIPoint struct {
	Month             int `json:"month"`
	CumulativeSavings int `json:"cumulative_savings_k"`
	NetBenefit        int `json:"net_benefit_k"`
}

type ROIProjection struct {
	Input          ROIInput   `json:"input"`
	Points         []ROIPoint `json:"points"`
	BreakEvenMonth int        `json:"break_even_month"`
	FinalROIPct    string     `json:"final_roi_pct"`
}
