package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flos/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

// Store hands out one transaction per ingestion cycle
type Store interface {
	Begin(ctx context.Context) (StatusReportTx, error)
}

// StatusReportTx defines the status report operations available inside a cycle
type StatusReportTx interface {
	FindByKey(ctx context.Context, key models.NaturalKey) (*models.StatusReport, error)
	Insert(ctx context.Context, report *models.StatusReport) error
	Update(ctx context.Context, report *models.StatusReport) error
	Commit() error
	Rollback() error
}

// Tx implements StatusReportTx for one ingestion cycle. The underlying
// connection is held until Commit or Rollback.
type Tx struct {
	tx    *sqlx.Tx
	sb    sq.StatementBuilderType
	clock clockwork.Clock
	done  bool
}

// Begin starts a transaction for one ingestion cycle
func (d *DB) Begin(ctx context.Context) (StatusReportTx, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx, sb: d.sb, clock: d.clock}, nil
}

// FindByKey returns the report stored under the natural key, or nil if none exists
func (t *Tx) FindByKey(ctx context.Context, key models.NaturalKey) (*models.StatusReport, error) {
	query, args, err := t.sb.Select(reportColumns...).
		From(tableName).
		Where(sq.Eq{
			"facility_id": key.FacilityID,
			"status_type": key.StatusType,
			"start_time":  key.StartTime.UTC(),
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup query: %w", err)
	}

	var report models.StatusReport
	if err := t.tx.GetContext(ctx, &report, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find status report: %w", err)
	}
	normalize(&report)
	return &report, nil
}

// Insert stores a new report and fills in its ReportID and LastUpdated
func (t *Tx) Insert(ctx context.Context, report *models.StatusReport) error {
	now := t.clock.Now().UTC()

	query, args, err := t.sb.Insert(tableName).
		Columns("facility_id", "status_type", "start_time", "end_time", "raw_notam_text", "last_updated").
		Values(
			report.FacilityID,
			report.StatusType,
			report.StartTime.UTC(),
			nullTime(report.EndTime),
			report.RawText,
			now,
		).
		Suffix("RETURNING report_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	var id int64
	if err := t.tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("failed to insert status report: %w", err)
	}

	report.ReportID = id
	report.LastUpdated = now
	return nil
}

// Update overwrites the mutable fields of an existing report. Key fields are never changed.
func (t *Tx) Update(ctx context.Context, report *models.StatusReport) error {
	now := t.clock.Now().UTC()

	query, args, err := t.sb.Update(tableName).
		Set("end_time", nullTime(report.EndTime)).
		Set("raw_notam_text", report.RawText).
		Set("last_updated", now).
		Where(sq.Eq{"report_id": report.ReportID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update status report %d: %w", report.ReportID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update status report %d: no such row", report.ReportID)
	}

	report.LastUpdated = now
	return nil
}

// Commit makes every change of the cycle visible at once
func (t *Tx) Commit() error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the cycle's changes. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

// Count returns the number of stored reports
func (d *DB) Count(ctx context.Context) (int, error) {
	query, args, err := d.sb.Select("COUNT(*)").From(tableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var n int
	if err := d.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count status reports: %w", err)
	}
	return n, nil
}

// ListReports returns every stored report ordered by ReportID
func (d *DB) ListReports(ctx context.Context) ([]*models.StatusReport, error) {
	query, args, err := d.sb.Select(reportColumns...).
		From(tableName).
		OrderBy("report_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	reports := []*models.StatusReport{}
	if err := d.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list status reports: %w", err)
	}
	for _, r := range reports {
		normalize(r)
	}
	return reports, nil
}

// normalize puts every timestamp in UTC. PostgreSQL returns fixed-offset zones.
func normalize(r *models.StatusReport) {
	r.StartTime = r.StartTime.UTC()
	r.LastUpdated = r.LastUpdated.UTC()
	if r.EndTime != nil {
		end := r.EndTime.UTC()
		r.EndTime = &end
	}
}
