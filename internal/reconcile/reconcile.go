// Package reconcile merges extracted candidates into the status report store
// using the natural key (facility, status type, start time).
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"flos/internal/database"
	"flos/internal/models"
)

// Result counts what one run did to the store
type Result struct {
	Added   int
	Updated int
}

// Engine performs the lookup-then-write upsert for a cycle
type Engine struct {
	store  database.Store
	logger *slog.Logger
}

func New(store database.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Run reconciles candidates in order inside a single transaction. A candidate
// whose natural key is already stored overwrites that row's end time and text;
// otherwise a new row is inserted. A later candidate with the same key as an
// earlier one in the same run updates it, so the last one wins.
//
// Any failure rolls back the whole run and returns a zero Result.
func (e *Engine) Run(ctx context.Context, candidates []models.Candidate) (Result, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to start reconcile run: %w", err)
	}
	defer tx.Rollback()

	var res Result
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("reconcile cancelled: %w", err)
		}

		existing, err := tx.FindByKey(ctx, c.Key())
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up %s %s: %w", c.FacilityID, c.StatusType, err)
		}

		if existing != nil {
			existing.EndTime = c.EndTime
			existing.RawText = c.RawText
			if err := tx.Update(ctx, existing); err != nil {
				return Result{}, fmt.Errorf("failed to update report %d: %w", existing.ReportID, err)
			}
			res.Updated++
			e.logger.Debug("Updated status report",
				"report_id", existing.ReportID,
				"facility", c.FacilityID,
				"status_type", c.StatusType,
				"source", c.Source,
			)
			continue
		}

		report := &models.StatusReport{
			FacilityID: c.FacilityID,
			StatusType: c.StatusType,
			StartTime:  c.StartTime.UTC(),
			EndTime:    c.EndTime,
			RawText:    c.RawText,
		}
		if err := tx.Insert(ctx, report); err != nil {
			return Result{}, fmt.Errorf("failed to insert %s %s: %w", c.FacilityID, c.StatusType, err)
		}
		res.Added++
		e.logger.Debug("Added status report",
			"report_id", report.ReportID,
			"facility", c.FacilityID,
			"status_type", c.StatusType,
			"source", c.Source,
		)
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("failed to commit reconcile run: %w", err)
	}
	return res, nil
}
