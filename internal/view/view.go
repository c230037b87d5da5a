// Package view derives the filtered and aggregated shapes the dashboard
// shows from a generated batch. Every function preserves input order and
// never mutates its argument.
package view

import (
	"strings"

	"gridpm/internal/domain"
)

// FilterByRiskLevel keeps records whose level equals level. RiskAll keeps everything.
func FilterByRiskLevel(assets []domain.AssetRecord, level domain.RiskLevel) []domain.AssetRecord {
	if level == domain.RiskAll || level == "" {
		return clone(assets)
	}
	return filter(assets, func(a domain.AssetRecord) bool { return a.RiskLevel == level })
}

// FilterByTypeSubstring keeps records whose asset type contains token.
// Matching is a case-sensitive substring test, so "Circuit" selects
// "Circuit Breaker"; "" and "All" keep everything.
func FilterByTypeSubstring(assets []domain.AssetRecord, token string) []domain.AssetRecord {
	if noFilter(token) {
		return clone(assets)
	}
	return filter(assets, func(a domain.AssetRecord) bool { return strings.Contains(a.AssetType, token) })
}

// FilterByLocationSubstring matches locations the same loose way as
// FilterByTypeSubstring, so "North Grid" selects "North Grid Sector A".
func FilterByLocationSubstring(assets []domain.AssetRecord, token string) []domain.AssetRecord {
	if noFilter(token) {
		return clone(assets)
	}
	return filter(assets, func(a domain.AssetRecord) bool { return strings.Contains(a.Location, token) })
}

// CountByRiskLevel reports every level, including those with zero records.
func CountByRiskLevel(assets []domain.AssetRecord) map[domain.RiskLevel]int {
	counts := make(map[domain.RiskLevel]int, len(domain.RiskLevels))
	for _, l := range domain.RiskLevels {
		counts[l] = 0
	}
	for _, a := range assets {
		counts[a.RiskLevel]++
	}
	return counts
}

// Top returns the first n records. n <= 0 or n >= len returns all of them.
func Top(assets []domain.AssetRecord, n int) []domain.AssetRecord {
	if n <= 0 || n >= len(assets) {
		return clone(assets)
	}
	return clone(assets[:n])
}

// Query bundles the dashboard's filter controls.
type Query struct {
	Risk     domain.RiskLevel
	Type     string
	Location string
	Limit    int
}

// Apply runs the risk, type and location filters in turn, then truncates to Limit.
func (q Query) Apply(assets []domain.AssetRecord) []domain.AssetRecord {
	out := FilterByRiskLevel(assets, q.Risk)
	out = FilterByTypeSubstring(out, q.Type)
	out = FilterByLocationSubstring(out, q.Location)
	return Top(out, q.Limit)
}

func noFilter(token string) bool {
	return token == "" || token == string(domain.RiskAll)
}

func filter(assets []domain.AssetRecord, keep func(domain.AssetRecord) bool) []domain.AssetRecord {
	out := make([]domain.AssetRecord, 0, len(assets))
	for _, a := range assets {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func clone(assets []domain.AssetRecord) []domain.AssetRecord {
	out := make([]domain.AssetRecord, len(assets))
	copy(out, assets)
	return out
}
