package server

import (
	"gridpm/internal/domain"
	"gridpm/internal/view"
)

// Query parameters

type batchQuery struct {
	Count int    `query:"count" minimum:"0" maximum:"10000" doc:"Records to generate; 0 uses the profile batch size"`
	Seed  uint64 `query:"seed" doc:"Reproducible seed; 0 draws from ambient entropy"`
}

type assetQuery struct {
	Count    int    `query:"count" minimum:"0" maximum:"10000" doc:"Records to generate; 0 uses the profile batch size"`
	Seed     uint64 `query:"seed" doc:"Reproducible seed; 0 draws from ambient entropy"`
	Risk     string `query:"risk" enum:"All,High,Medium,Low" default:"All"`
	Type     string `query:"type" doc:"Case-sensitive substring of the asset type"`
	Location string `query:"location" doc:"Case-sensitive substring of the location"`
	Limit    int    `query:"limit" minimum:"0" doc:"Keep only the first N matches; 0 keeps all"`
}

type seedQuery struct {
	Seed uint64 `query:"seed" doc:"Reproducible seed; 0 draws from ambient entropy"`
}

type trendQuery struct {
	Seed uint64 `query:"seed" doc:"Reproducible seed; 0 draws from ambient entropy"`
	Days int    `query:"days" minimum:"1" maximum:"365" default:"30"`
}

// Response payloads

type AssetListResponse struct {
	BatchID     string               `json:"batch_id"`
	Profile     string               `json:"profile"`
	GeneratedAt string               `json:"generated_at" format:"date-time"`
	Seed        *uint64              `json:"seed,omitempty"`
	Thresholds  domain.Thresholds    `json:"thresholds"`
	Generated   int                  `json:"generated"`
	Returned    int                  `json:"returned"`
	Assets      []domain.AssetRecord `json:"assets"`
}

type SummaryResponse struct {
	BatchID string       `json:"batch_id"`
	Profile string       `json:"profile"`
	Summary view.Summary `json:"summary"`
}

type TrendResponse struct {
	Days   int                 `json:"days"`
	Points []domain.TrendPoint `json:"points"`
}

type CrewsResponse struct {
	Crews []domain.Crew `json:"crews"`
}

func toAssetList(b domain.Batch, filtered []domain.AssetRecord) AssetListResponse {
	return AssetListResponse{
		BatchID:     b.ID,
		Profile:     b.Profile,
		GeneratedAt: b.GeneratedAt,
		Seed:        b.Seed,
		Thresholds:  b.Thresholds,
		Generated:   len(b.Assets),
		Returned:    len(filtered),
		Assets:      filtered,
	}
}
