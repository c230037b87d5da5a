package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"gridpm/internal/domain"
)

// ErrInvalidConfig marks a profile that cannot drive the generator.
var ErrInvalidConfig = errors.New("invalid config")

const (
	ProfileDetailed = "detailed"
	ProfileClassic  = "classic"
	FileName        = "gridpm.yml"

	// MaxBatchSize caps how many records one request or command may generate.
	MaxBatchSize = 10000
)

// FloatRange is a closed interval.
type FloatRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// IntRange is a closed interval of integers.
type IntRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Profile models gridpm.yml. Optional ranges and enumerations left unset
// switch the matching record fields off.
type Profile struct {
	Name               string            `yaml:"name" json:"name"`
	BatchSize          int               `yaml:"batch_size" json:"batch_size"`
	Probability        FloatRange        `yaml:"probability" json:"probability"`
	Thresholds         domain.Thresholds `yaml:"thresholds" json:"thresholds"`
	ExpectedCost       IntRange          `yaml:"expected_cost" json:"expected_cost"`
	AssetID            IntRange          `yaml:"asset_id" json:"asset_id"`
	AssetTypes         []string          `yaml:"asset_types" json:"asset_types"`
	Locations          []string          `yaml:"locations" json:"locations"`
	Manufacturers      []string          `yaml:"manufacturers,omitempty" json:"manufacturers,omitempty"`
	VoltageLevels      []string          `yaml:"voltage_levels,omitempty" json:"voltage_levels,omitempty"`
	InstallAgeDays     *IntRange         `yaml:"install_age_days,omitempty" json:"install_age_days,omitempty"`
	MaintenanceAgeDays *IntRange         `yaml:"maintenance_age_days,omitempty" json:"maintenance_age_days,omitempty"`
	CustomerImpact     *IntRange         `yaml:"customer_impact,omitempty" json:"customer_impact,omitempty"`
	Confidence         *FloatRange       `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	CrewPriority       *IntRange         `yaml:"crew_priority,omitempty" json:"crew_priority,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate ensures the profile meets required structure.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return invalid("name is required")
	}
	if p.BatchSize < 0 || p.BatchSize > MaxBatchSize {
		return invalid("batch_size must be between 0 and %d", MaxBatchSize)
	}
	floats := map[string]float64{
		"probability.min":   p.Probability.Min,
		"probability.max":   p.Probability.Max,
		"thresholds.high":   p.Thresholds.High,
		"thresholds.medium": p.Thresholds.Medium,
	}
	if p.Confidence != nil {
		floats["confidence.min"] = p.Confidence.Min
		floats["confidence.max"] = p.Confidence.Max
	}
	fnames := make([]string, 0, len(floats))
	for name := range floats {
		fnames = append(fnames, name)
	}
	sort.Strings(fnames)
	for _, name := range fnames {
		if v := floats[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("%s must be a finite number", name)
		}
	}
	if p.Probability.Min < 0 || p.Probability.Max > 1 {
		return invalid("probability bounds must lie within [0,1]")
	}
	if p.Probability.Min > p.Probability.Max {
		return invalid("probability.min (%.2f) exceeds probability.max (%.2f)", p.Probability.Min, p.Probability.Max)
	}
	if p.Thresholds.High <= p.Thresholds.Medium {
		return invalid("thresholds.high (%.2f) must exceed thresholds.medium (%.2f)", p.Thresholds.High, p.Thresholds.Medium)
	}
	if p.Thresholds.Medium < 0 || p.Thresholds.High > 1 {
		return invalid("thresholds must lie within [0,1]")
	}
	ranges := map[string]*IntRange{
		"expected_cost":        &p.ExpectedCost,
		"asset_id":             &p.AssetID,
		"install_age_days":     p.InstallAgeDays,
		"maintenance_age_days": p.MaintenanceAgeDays,
		"customer_impact":      p.CustomerImpact,
		"crew_priority":        p.CrewPriority,
	}
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := ranges[name]
		if r == nil {
			continue
		}
		if r.Min > r.Max {
			return invalid("%s.min (%d) exceeds %s.max (%d)", name, r.Min, name, r.Max)
		}
	}
	if p.AssetID.Min < 0 || p.AssetID.Max > 9999 {
		return invalid("asset_id must stay within four digits")
	}
	if p.Confidence != nil && (p.Confidence.Min < 0 || p.Confidence.Max > 1) {
		return invalid("confidence must lie within [0,1]")
	}
	if p.Confidence != nil && p.Confidence.Min > p.Confidence.Max {
		return invalid("confidence.min (%.2f) exceeds confidence.max (%.2f)", p.Confidence.Min, p.Confidence.Max)
	}
	if len(p.AssetTypes) == 0 {
		return invalid("asset_types is required")
	}
	if len(p.Locations) == 0 {
		return invalid("locations is required")
	}
	for field, values := range map[string][]string{
		"asset_types":    p.AssetTypes,
		"locations":      p.Locations,
		"manufacturers":  p.Manufacturers,
		"voltage_levels": p.VoltageLevels,
	} {
		for _, v := range values {
			if v == "" {
				return invalid("%s contains an empty entry", field)
			}
		}
	}
	return nil
}

// Builtin returns a copy of the named built-in profile.
func Builtin(name string) (*Profile, error) {
	tmpl, ok := builtinTemplates[name]
	if !ok {
		return nil, invalid("unknown profile %q (known: %s, %s)", name, ProfileDetailed, ProfileClassic)
	}
	return FromYAML([]byte(tmpl))
}

// GenerateDefault returns the YAML for a built-in profile.
func GenerateDefault(name string) (string, error) {
	tmpl, ok := builtinTemplates[name]
	if !ok {
		return "", invalid("unknown profile %q", name)
	}
	return tmpl, nil
}

// Path returns the profile file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// LoadOptional returns nil,nil if the workspace has no profile file.
func LoadOptional(workspace string) (*Profile, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates a profile from raw YAML bytes.
func FromYAML(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidConfig, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// FromFile reads a YAML profile from the given path.
func FromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// ToYAML renders the profile back into gridpm.yml form.
func (p *Profile) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var builtinTemplates = map[string]string{
	ProfileDetailed: detailedTemplate,
	ProfileClassic:  classicTemplate,
}

const detailedTemplate = `name: detailed
batch_size: 20

probability:
  min: 0.05
  max: 0.95

thresholds:
  high: 0.80
  medium: 0.40

expected_cost:
  min: 15000
  max: 250000

asset_id:
  min: 1000
  max: 9999

asset_types:
  - Transformer
  - Circuit Breaker
  - Power Line
  - Substation
  - Generator
  - Switch Gear

locations:
  - North Grid Sector A
  - South Grid Sector B
  - East Distribution Hub
  - West Transmission
  - Central Control

manufacturers: [ABB, Siemens, GE, Schneider, Mitsubishi]

voltage_levels: [4kV, 12kV, 23kV, 115kV, 138kV]

install_age_days:
  min: 730
  max: 9125

maintenance_age_days:
  min: 30
  max: 730

customer_impact:
  min: 50
  max: 5000

confidence:
  min: 0.75
  max: 0.99

crew_priority:
  min: 1
  max: 10
`

const classicTemplate = `name: classic
batch_size: 50

probability:
  min: 0.01
  max: 0.95

thresholds:
  high: 0.85
  medium: 0.50

expected_cost:
  min: 5000
  max: 150000

asset_id:
  min: 1000
  max: 9999

asset_types:
  - Transformer
  - Circuit Breaker
  - Power Line
  - Substation
  - Generator
  - Switch Gear

locations:
  - North Grid
  - South Grid
  - East Grid
  - West Grid
  - Central Hub

voltage_levels: [4kV, 12kV, 23kV, 115kV, 138kV]
`
