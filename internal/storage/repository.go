// Package storage persists parsed datasets as snapshots so an uploaded
// workbook survives a restart. It is infrastructure around the in-memory
// session model, not a write path for dashboard users.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNoSnapshot means the database holds no snapshot yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot stores the dataset and returns the new snapshot id. All
// rows land in one transaction; a half-written snapshot never becomes
// visible.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, ds core.Dataset) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (source, loaded_at) VALUES (?, ?)`,
		ds.Source, ds.LoadedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	for _, rec := range ds.Revenue {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO revenue_records (snapshot_id, year, month, category, amount_cents, budget_cents)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, rec.Period.Year, int(rec.Period.Month), rec.Category, rec.Amount.Cents, rec.Budget.Cents); err != nil {
			return 0, fmt.Errorf("insert revenue record: %w", err)
		}
	}
	for _, rec := range ds.Expenses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expense_records (snapshot_id, year, month, category, amount_cents, budget_cents)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, rec.Period.Year, int(rec.Period.Month), rec.Category, rec.Amount.Cents, rec.Budget.Cents); err != nil {
			return 0, fmt.Errorf("insert expense record: %w", err)
		}
	}
	for _, rec := range ds.Membership {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO membership_records (snapshot_id, year, month, member_count, new_members, churned_members)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, rec.Period.Year, int(rec.Period.Month), rec.MemberCount, rec.NewMembers, rec.ChurnedMembers); err != nil {
			return 0, fmt.Errorf("insert membership record: %w", err)
		}
	}
	for _, g := range ds.Goals {
		hasCurrent := 0
		if g.HasCurrent {
			hasCurrent = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO goals (snapshot_id, metric, target, current, has_current, unit)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, g.Metric, g.Target, g.Current, hasCurrent, string(g.Unit)); err != nil {
			return 0, fmt.Errorf("insert goal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved",
		"snapshot_id", id,
		"source", ds.Source,
		"revenue_rows", len(ds.Revenue),
		"expense_rows", len(ds.Expenses))
	return id, nil
}

// LoadSnapshot reads one snapshot back into a dataset.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, id int64) (core.Dataset, error) {
	var ds core.Dataset
	var loadedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT source, loaded_at FROM snapshots WHERE id = ?`, id).
		Scan(&ds.Source, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Dataset{}, ErrNoSnapshot
	}
	if err != nil {
		return core.Dataset{}, fmt.Errorf("select snapshot: %w", err)
	}
	ds.LoadedAt = loadedAt

	rows, err := r.db.QueryContext(ctx,
		`SELECT year, month, category, amount_cents, budget_cents
		 FROM revenue_records WHERE snapshot_id = ? ORDER BY id`, id)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("select revenue records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var year, month int
		var rec core.RevenueRecord
		if err := rows.Scan(&year, &month, &rec.Category, &rec.Amount.Cents, &rec.Budget.Cents); err != nil {
			return core.Dataset{}, fmt.Errorf("scan revenue record: %w", err)
		}
		rec.Period = core.NewPeriod(year, month)
		ds.Revenue = append(ds.Revenue, rec)
	}
	if err := rows.Err(); err != nil {
		return core.Dataset{}, fmt.Errorf("iterate revenue records: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT year, month, category, amount_cents, budget_cents
		 FROM expense_records WHERE snapshot_id = ? ORDER BY id`, id)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("select expense records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var year, month int
		var rec core.ExpenseRecord
		if err := rows.Scan(&year, &month, &rec.Category, &rec.Amount.Cents, &rec.Budget.Cents); err != nil {
			return core.Dataset{}, fmt.Errorf("scan expense record: %w", err)
		}
		rec.Period = core.NewPeriod(year, month)
		ds.Expenses = append(ds.Expenses, rec)
	}
	if err := rows.Err(); err != nil {
		return core.Dataset{}, fmt.Errorf("iterate expense records: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT year, month, member_count, new_members, churned_members
		 FROM membership_records WHERE snapshot_id = ? ORDER BY id`, id)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("select membership records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var year, month int
		var rec core.MembershipRecord
		if err := rows.Scan(&year, &month, &rec.MemberCount, &rec.NewMembers, &rec.ChurnedMembers); err != nil {
			return core.Dataset{}, fmt.Errorf("scan membership record: %w", err)
		}
		rec.Period = core.NewPeriod(year, month)
		ds.Membership = append(ds.Membership, rec)
	}
	if err := rows.Err(); err != nil {
		return core.Dataset{}, fmt.Errorf("iterate membership records: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT metric, target, current, has_current, unit
		 FROM goals WHERE snapshot_id = ? ORDER BY id`, id)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("select goals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var g core.Goal
		var hasCurrent int
		var unit string
		if err := rows.Scan(&g.Metric, &g.Target, &g.Current, &hasCurrent, &unit); err != nil {
			return core.Dataset{}, fmt.Errorf("scan goal: %w", err)
		}
		g.HasCurrent = hasCurrent != 0
		g.Unit = core.GoalUnit(unit)
		ds.Goals = append(ds.Goals, g)
	}
	if err := rows.Err(); err != nil {
		return core.Dataset{}, fmt.Errorf("iterate goals: %w", err)
	}

	return ds, nil
}

// LoadLatestSnapshot restores the newest snapshot, if any.
func (r *SnapshotRepository) LoadLatestSnapshot(ctx context.Context) (core.Dataset, int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Dataset{}, 0, ErrNoSnapshot
	}
	if err != nil {
		return core.Dataset{}, 0, fmt.Errorf("select latest snapshot: %w", err)
	}
	ds, err := r.LoadSnapshot(ctx, id)
	if err != nil {
		return core.Dataset{}, 0, err
	}
	return ds, id, nil
}

// PruneSnapshots deletes all but the newest keep snapshots. Child rows
// are removed explicitly; sqlite only honors ON DELETE CASCADE when the
// foreign_keys pragma is on.
func (r *SnapshotRepository) PruneSnapshots(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const stale = `snapshot_id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`
	for _, table := range []string{"revenue_records", "expense_records", "membership_records", "goals"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+stale, keep); err != nil {
			return fmt.Errorf("prune %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit prune: %w", err)
	}
	return nil
}
