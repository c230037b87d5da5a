package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gridpm/internal/domain"
	"gridpm/internal/events"
	"gridpm/internal/repo"
)

// Exporter copies generated batches into the workspace database. It is an
// output sink only: nothing in the generator reads back from it.
type Exporter struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time
}

func NewExporter(db *sql.DB) Exporter {
	return Exporter{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{Now: time.Now},
		Now:    time.Now,
	}
}

// Export stores b and appends a batch.exported event in the same transaction.
func (x Exporter) Export(ctx context.Context, b domain.Batch, actorID string) (domain.BatchInfo, error) {
	if actorID == "" {
		actorID = "local"
	}
	now := time.Now
	if x.Now != nil {
		now = x.Now
	}
	exportedAt := now().UTC().Format(time.RFC3339)
	tx, err := x.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.BatchInfo{}, err
	}
	defer tx.Rollback()
	if err := x.Repo.InsertBatchTx(ctx, tx, b, exportedAt); err != nil {
		return domain.BatchInfo{}, err
	}
	high := 0
	for _, a := range b.Assets {
		if a.RiskLevel == domain.RiskHigh {
			high++
		}
	}
	payload := events.EventPayload{
		"profile":     b.Profile,
		"asset_count": len(b.Assets),
		"high_count":  high,
	}
	if b.Seed != nil {
		payload["seed"] = *b.Seed
	}
	if err := x.Events.Append(ctx, tx, events.TypeBatchExported, b.ID, actorID, payload); err != nil {
		return domain.BatchInfo{}, fmt.Errorf("append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.BatchInfo{}, err
	}
	return x.Repo.GetBatchInfo(ctx, b.ID)
}
