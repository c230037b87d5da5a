package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gridpm/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// InsertBatchTx stores the batch header and every record, keeping the
// generator's order in the position column.
func (r Repo) InsertBatchTx(ctx context.Context, tx *sql.Tx, b domain.Batch, exportedAt string) error {
	var seed any
	if b.Seed != nil {
		seed = strconv.FormatUint(*b.Seed, 10)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO batches(id,profile,generated_at,exported_at,seed,threshold_high,threshold_medium) VALUES (?,?,?,?,?,?,?)`,
		b.ID, b.Profile, b.GeneratedAt, exportedAt, seed, b.Thresholds.High, b.Thresholds.Medium); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assets(batch_id,position,asset_id,asset_type,location,manufacturer,install_date,last_maintenance,failure_probability,risk_level,expected_cost,voltage_level,customer_impact,confidence_score,crew_priority) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, a := range b.Assets {
		if _, err := stmt.ExecContext(ctx, b.ID, i, a.AssetID, a.AssetType, a.Location,
			nullable(a.Manufacturer), nullable(a.InstallDate), nullable(a.LastMaintenance),
			a.FailureProbability, string(a.RiskLevel), a.ExpectedCost, nullable(a.VoltageLevel),
			nullableInt(a.CustomerImpact), nullableFloat(a.ConfidenceScore), nullableInt(a.CrewPriority)); err != nil {
			return fmt.Errorf("insert asset %d: %w", i, err)
		}
	}
	return nil
}

const batchInfoColumns = `b.id,b.profile,b.generated_at,b.exported_at,
	(SELECT COUNT(*) FROM assets a WHERE a.batch_id=b.id),
	(SELECT COUNT(*) FROM assets a WHERE a.batch_id=b.id AND a.risk_level='High')`

func scanBatchInfo(scan func(...any) error) (domain.BatchInfo, error) {
	var info domain.BatchInfo
	err := scan(&info.ID, &info.Profile, &info.GeneratedAt, &info.ExportedAt, &info.AssetCount, &info.HighCount)
	return info, err
}

// ListBatches returns exported batches, newest export first.
func (r Repo) ListBatches(ctx context.Context, limit int) ([]domain.BatchInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+batchInfoColumns+` FROM batches b ORDER BY b.exported_at DESC, b.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.BatchInfo
	for rows.Next() {
		info, err := scanBatchInfo(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, info)
	}
	return res, rows.Err()
}

// GetBatchInfo returns the stored header and counts for one batch.
func (r Repo) GetBatchInfo(ctx context.Context, id string) (domain.BatchInfo, error) {
	info, err := scanBatchInfo(r.DB.QueryRowContext(ctx, `SELECT `+batchInfoColumns+` FROM batches b WHERE b.id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return info, ErrNotFound
	}
	return info, err
}

// GetBatch loads a batch with its records in their stored order.
func (r Repo) GetBatch(ctx context.Context, id string) (domain.Batch, error) {
	var (
		b    domain.Batch
		seed sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `SELECT id,profile,generated_at,seed,threshold_high,threshold_medium FROM batches WHERE id=?`, id).
		Scan(&b.ID, &b.Profile, &b.GeneratedAt, &seed, &b.Thresholds.High, &b.Thresholds.Medium)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	if seed.Valid {
		v, err := strconv.ParseUint(seed.String, 10, 64)
		if err != nil {
			return b, fmt.Errorf("batch %s seed: %w", id, err)
		}
		b.Seed = &v
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT asset_id,asset_type,location,COALESCE(manufacturer,''),COALESCE(install_date,''),COALESCE(last_maintenance,''),
		failure_probability,risk_level,expected_cost,COALESCE(voltage_level,''),COALESCE(customer_impact,0),COALESCE(confidence_score,0),COALESCE(crew_priority,0)
		FROM assets WHERE batch_id=? ORDER BY position`, id)
	if err != nil {
		return b, err
	}
	defer rows.Close()
	b.Assets = []domain.AssetRecord{}
	for rows.Next() {
		var (
			a    domain.AssetRecord
			risk string
		)
		if err := rows.Scan(&a.AssetID, &a.AssetType, &a.Location, &a.Manufacturer, &a.InstallDate, &a.LastMaintenance,
			&a.FailureProbability, &risk, &a.ExpectedCost, &a.VoltageLevel, &a.CustomerImpact, &a.ConfidenceScore, &a.CrewPriority); err != nil {
			return b, err
		}
		a.RiskLevel = domain.RiskLevel(risk)
		b.Assets = append(b.Assets, a)
	}
	return b, rows.Err()
}

// LatestEvents returns events newest first, optionally narrowed by batch and type.
func (r Repo) LatestEvents(ctx context.Context, limit int, batchID, evtType string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if batchID != "" {
		clauses = append(clauses, "batch_id=?")
		args = append(args, batchID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(batch_id,''),actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.BatchID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}
