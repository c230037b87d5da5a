package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfiles(t *testing.T) {
	d, err := Builtin(ProfileDetailed)
	require.NoError(t, err)
	assert.Equal(t, 20, d.BatchSize)
	assert.Equal(t, 0.80, d.Thresholds.High)
	assert.Equal(t, 0.40, d.Thresholds.Medium)
	assert.Equal(t, FloatRange{Min: 0.05, Max: 0.95}, d.Probability)
	require.NotNil(t, d.Confidence)
	assert.NotEmpty(t, d.Manufacturers)

	c, err := Builtin(ProfileClassic)
	require.NoError(t, err)
	assert.Equal(t, 50, c.BatchSize)
	assert.Equal(t, 0.85, c.Thresholds.High)
	assert.Equal(t, 0.50, c.Thresholds.Medium)
	assert.Equal(t, IntRange{Min: 5000, Max: 150000}, c.ExpectedCost)
	assert.Nil(t, c.InstallAgeDays)
	assert.Empty(t, c.Manufacturers)

	again, err := Builtin(ProfileDetailed)
	require.NoError(t, err)
	assert.Equal(t, d, again)
	again.AssetTypes[0] = "changed"
	assert.NotEqual(t, "changed", d.AssetTypes[0])

	_, err = Builtin("nope")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(p *Profile){
		"no name":            func(p *Profile) { p.Name = "" },
		"negative batch":     func(p *Profile) { p.BatchSize = -1 },
		"oversized batch":    func(p *Profile) { p.BatchSize = MaxBatchSize + 1 },
		"probability > 1":    func(p *Profile) { p.Probability.Max = 1.2 },
		"probability order":  func(p *Profile) { p.Probability = FloatRange{Min: 0.9, Max: 0.1} },
		"thresholds order":   func(p *Profile) { p.Thresholds.Medium = p.Thresholds.High },
		"cost order":         func(p *Profile) { p.ExpectedCost = IntRange{Min: 10, Max: 1} },
		"five digit id":      func(p *Profile) { p.AssetID.Max = 10000 },
		"confidence order":   func(p *Profile) { p.Confidence = &FloatRange{Min: 0.9, Max: 0.1} },
		"no types":           func(p *Profile) { p.AssetTypes = nil },
		"no locations":       func(p *Profile) { p.Locations = []string{} },
		"empty manufacturer": func(p *Profile) { p.Manufacturers = []string{"ABB", ""} },
		"install order":      func(p *Profile) { p.InstallAgeDays = &IntRange{Min: 5, Max: 1} },
		"nan probability":    func(p *Profile) { p.Probability.Max = math.NaN() },
		"nan low bound":      func(p *Profile) { p.Probability.Min = math.NaN() },
		"nan high threshold": func(p *Profile) { p.Thresholds.High = math.NaN() },
		"inf medium":         func(p *Profile) { p.Thresholds.Medium = math.Inf(-1) },
		"nan confidence":     func(p *Profile) { p.Confidence = &FloatRange{Min: 0.75, Max: math.NaN()} },
		"confidence > 1":     func(p *Profile) { p.Confidence = &FloatRange{Min: 0.75, Max: 1.5} },
	}
	for name, mutate := range cases {
		p, err := Builtin(ProfileDetailed)
		require.NoError(t, err)
		mutate(p)
		assert.ErrorIs(t, p.Validate(), ErrInvalidConfig, name)
	}
}

func TestYAMLRoundTripAndFiles(t *testing.T) {
	c, err := Builtin(ProfileClassic)
	require.NoError(t, err)
	out, err := c.ToYAML()
	require.NoError(t, err)
	back, err := FromYAML(out)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	dir := t.TempDir()
	p, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, os.WriteFile(Path(dir), out, 0o644))
	p, err = LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, ProfileClassic, p.Name)

	_, err = FromFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	_, err = FromYAML([]byte("name: [unterminated"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromYAMLRejectsNonFiniteValues(t *testing.T) {
	tmpl, err := GenerateDefault(ProfileDetailed)
	require.NoError(t, err)
	for _, repl := range [][2]string{
		{"max: 0.95", "max: .nan"},
		{"high: 0.80", "high: .nan"},
		{"medium: 0.40", "medium: -.inf"},
	} {
		require.Contains(t, tmpl, repl[0])
		_, err := FromYAML([]byte(strings.Replace(tmpl, repl[0], repl[1], 1)))
		assert.ErrorIs(t, err, ErrInvalidConfig, repl[1])
		assert.Contains(t, err.Error(), "finite", repl[1])
	}
}
