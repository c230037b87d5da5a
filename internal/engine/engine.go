package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gridpm/internal/config"
	"gridpm/internal/domain"
	"gridpm/internal/entropy"
)

// Engine draws synthetic asset batches from a validated profile. It holds
// no state between calls beyond the random source it was given.
type Engine struct {
	Profile *config.Profile
	Source  entropy.Source
	Seed    *uint64
	Now     func() time.Time
}

// New validates the profile and returns an engine bound to src.
func New(p *config.Profile, src entropy.Source) (Engine, error) {
	if p == nil {
		return Engine{}, fmt.Errorf("%w: profile not loaded", config.ErrInvalidConfig)
	}
	if err := p.Validate(); err != nil {
		return Engine{}, err
	}
	if src == nil {
		src = entropy.Ambient()
	}
	return Engine{Profile: p, Source: src, Now: time.Now}, nil
}

// NewSeeded returns an engine whose output is reproducible for seed.
// A nil seed draws from ambient entropy.
func NewSeeded(p *config.Profile, seed *uint64) (Engine, error) {
	e, err := New(p, entropy.For(seed))
	if err != nil {
		return Engine{}, err
	}
	e.Seed = seed
	return e, nil
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Classify maps a failure probability onto a risk level.
func Classify(p float64, t domain.Thresholds) domain.RiskLevel {
	switch {
	case p > t.High:
		return domain.RiskHigh
	case p > t.Medium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// GenerateAssets returns count records sorted by failure probability,
// highest first. count <= 0 yields an empty slice.
func (e Engine) GenerateAssets(count int) []domain.AssetRecord {
	if count <= 0 {
		return []domain.AssetRecord{}
	}
	today := e.now()
	assets := make([]domain.AssetRecord, 0, count)
	for i := 0; i < count; i++ {
		assets = append(assets, e.draw(today))
	}
	slices.SortFunc(assets, func(a, b domain.AssetRecord) int {
		return cmp.Compare(b.FailureProbability, a.FailureProbability)
	})
	return assets
}

func (e Engine) draw(today time.Time) domain.AssetRecord {
	p := e.Profile
	src := e.Source

	prob := entropy.Uniform(src, p.Probability.Min, p.Probability.Max)
	rec := domain.AssetRecord{
		FailureProbability: prob,
		RiskLevel:          Classify(prob, p.Thresholds),
	}
	if p.InstallAgeDays != nil {
		days := entropy.IntBetween(src, p.InstallAgeDays.Min, p.InstallAgeDays.Max)
		rec.InstallDate = today.AddDate(0, 0, -days).Format(domain.DateLayout)
	}
	if p.MaintenanceAgeDays != nil {
		days := entropy.IntBetween(src, p.MaintenanceAgeDays.Min, p.MaintenanceAgeDays.Max)
		rec.LastMaintenance = today.AddDate(0, 0, -days).Format(domain.DateLayout)
	}
	rec.AssetID = fmt.Sprintf("AST-%04d", entropy.IntBetween(src, p.AssetID.Min, p.AssetID.Max))
	rec.AssetType = entropy.Choice(src, p.AssetTypes)
	rec.Location = entropy.Choice(src, p.Locations)
	if len(p.Manufacturers) > 0 {
		rec.Manufacturer = entropy.Choice(src, p.Manufacturers)
	}
	rec.ExpectedCost = entropy.IntBetween(src, p.ExpectedCost.Min, p.ExpectedCost.Max)
	if p.CrewPriority != nil {
		rec.CrewPriority = entropy.IntBetween(src, p.CrewPriority.Min, p.CrewPriority.Max)
	}
	if len(p.VoltageLevels) > 0 {
		rec.VoltageLevel = entropy.Choice(src, p.VoltageLevels)
	}
	if p.CustomerImpact != nil {
		rec.CustomerImpact = entropy.IntBetween(src, p.CustomerImpact.Min, p.CustomerImpact.Max)
	}
	if p.Confidence != nil {
		rec.ConfidenceScore = entropy.Uniform(src, p.Confidence.Min, p.Confidence.Max)
	}
	return rec
}

// Batch wraps one GenerateAssets call with the metadata presentation needs.
// Seeded engines get a deterministic batch ID.
func (e Engine) Batch(count int) domain.Batch {
	now := e.now().UTC()
	var id string
	if e.Seed != nil {
		key := e.Profile.Name + "|" + strconv.FormatUint(*e.Seed, 10) + "|" + strconv.Itoa(count)
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
	} else {
		id = uuid.New().String()
	}
	return domain.Batch{
		ID:          id,
		Profile:     e.Profile.Name,
		GeneratedAt: now.Format(time.RFC3339),
		Seed:        e.Seed,
		Thresholds:  e.Profile.Thresholds,
		Assets:      e.GenerateAssets(count),
	}
}
