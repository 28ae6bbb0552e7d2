package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"flos/internal/config"
	"flos/internal/database"
	"flos/internal/observability"
	"flos/internal/reconcile"
	"flos/internal/scheduler"
	"flos/internal/server"
	"flos/internal/sources"
	"flos/internal/tasks"

	"github.com/jonboulle/clockwork"
)

// Daemon represents the main daemon structure
type Daemon struct {
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	database  *database.DB
	ingest    *tasks.IngestTask
	server    *server.Server // nil when the HTTP listener is disabled
}

// New creates a new daemon instance
func New(cfg *config.Config, metrics *observability.Metrics, clock clockwork.Clock) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize database
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN, clock)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	engine := reconcile.New(db, slog.Default())
	ingest := tasks.NewIngestTask(buildSources(cfg.Sources), engine, metrics, cfg.Interval, clock)

	sched := scheduler.New(ctx, clock)
	sched.AddTask(ingest)

	d := &Daemon{
		cancel:    cancel,
		scheduler: sched,
		database:  db,
		ingest:    ingest,
	}

	if cfg.HTTPAddr != "" {
		d.server = server.NewServer(cfg.HTTPAddr, slog.Default(), d.readinessChecks()...)
	}

	return d, nil
}

// buildSources returns the extractors in the order their records are reconciled
func buildSources(cfg config.SourcesConfig) []sources.Source {
	bulletins := cfg.Bulletins
	if len(bulletins) == 0 {
		bulletins = sources.DefaultBulletins
	}
	return []sources.Source{
		sources.NewClosureJSON(cfg.RunwayJSON),
		sources.NewOutageCSV(cfg.OutageCSV),
		sources.NewBulletins(bulletins),
	}
}

// readinessChecks requires a committed cycle and a reachable store
func (d *Daemon) readinessChecks() []server.Check {
	return []server.Check{
		{Name: "ingest", Check: d.ingest.CheckReadiness},
		{Name: "store", Check: d.database.Ping},
	}
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	if d.server != nil {
		go func() {
			if err := d.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server stopped", "error", err)
			}
		}()
	}

	d.scheduler.Start()

	slog.Info("Daemon started successfully")
	return nil
}

// RunOnce runs a single ingestion cycle without the scheduler, then logs a
// sample of what the store holds.
func (d *Daemon) RunOnce(ctx context.Context) (reconcile.Result, error) {
	res, err := d.ingest.RunOnce(ctx)
	if err != nil {
		return res, err
	}

	reports, err := d.database.ListReports(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list reports: %w", err)
	}
	if len(reports) > 0 {
		r := reports[0]
		slog.Info("Sample record",
			"report_id", r.ReportID,
			"facility_id", r.FacilityID,
			"status_type", r.StatusType,
			"start_time", r.StartTime,
			"end_time", r.EndTime,
			"raw_notam_text", r.RawText,
		)
	}
	slog.Info("Total records in store", "count", len(reports))
	return res, nil
}

// Stop gracefully stops the daemon. The context bounds the HTTP drain.
func (d *Daemon) Stop(ctx context.Context) error {
	slog.Info("Stopping daemon")
	d.cancel()
	d.scheduler.Stop()

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			slog.Error("Error shutting down HTTP server", "error", err)
		}
	}

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
	}

	slog.Info("Daemon stopped")
	return nil
}
