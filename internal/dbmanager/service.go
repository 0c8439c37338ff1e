// Package dbmanager wires the archive store, exporter, import pipeline and
// application database into one service used by the CLI.
package dbmanager

import (
	"context"
	"log/slog"

	"github.com/juju/clock"

	"github.com/thoreinstein/dbarchive/internal/archive"
	"github.com/thoreinstein/dbarchive/internal/config"
	"github.com/thoreinstein/dbarchive/internal/dbstore"
	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/export"
	"github.com/thoreinstein/dbarchive/internal/importer"
	"github.com/thoreinstein/dbarchive/internal/scheduler"
	"github.com/thoreinstein/dbarchive/pkg/zipstream"
)

// Service is the backup and restore entry point.
type Service struct {
	store     *archive.Store
	exporter  *export.Exporter
	pipeline  *importer.Pipeline
	scheduler scheduler.Scheduler
	db        *dbstore.DB
	logger    *slog.Logger
}

type settings struct {
	logger    *slog.Logger
	scheduler scheduler.Scheduler
	clock     clock.Clock
}

// Option configures Open.
type Option func(*settings)

// WithLogger sets the logger passed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithScheduler replaces the clock scheduler used for exports.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(s *settings) {
		s.scheduler = sched
	}
}

// WithClock sets the time source for export names and scheduling.
func WithClock(c clock.Clock) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// Open opens the application database described by cfg and builds the
// service around it.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	st := settings{
		logger: slog.Default(),
		clock:  clock.WallClock,
	}
	for _, opt := range opts {
		opt(&st)
	}
	if st.scheduler == nil {
		st.scheduler = scheduler.New(scheduler.WithClock(st.clock), scheduler.WithLogger(st.logger))
	}

	db, err := dbstore.Open(ctx, cfg.Database, st.logger)
	if err != nil {
		return nil, err
	}

	store := archive.NewStore(cfg.BackupDir, archive.WithLogger(st.logger))
	job := export.NewJob(db, st.logger)

	return &Service{
		store: store,
		exporter: export.NewExporter(store, job.Run,
			export.WithScheduler(st.scheduler),
			export.WithClock(st.clock),
			export.WithDelay(cfg.ExportDelay),
			export.WithLogger(st.logger),
		),
		pipeline: importer.NewPipeline(db,
			importer.WithBufferSize(cfg.BufferSize),
			importer.WithTempDir(cfg.TempDir),
			importer.WithLogger(st.logger),
		),
		scheduler: st.scheduler,
		db:        db,
		logger:    st.logger,
	}, nil
}

// DB returns the application database.
func (s *Service) DB() *dbstore.DB {
	return s.db
}

// Store returns the archive store.
func (s *Service) Store() *archive.Store {
	return s.store
}

// ExportDB schedules an export of appcode and returns the archive name.
func (s *Service) ExportDB(ctx context.Context, appcode string) (string, error) {
	return s.exporter.Export(ctx, appcode)
}

// Exports lists archive names, newest first.
func (s *Service) Exports() ([]string, error) {
	return s.store.List()
}

// DeleteExport deletes the archive called name.
func (s *Service) DeleteExport(name string) error {
	return s.store.Delete(name)
}

// ImportDB restores appcode from stream.
func (s *Service) ImportDB(ctx context.Context, appcode string, stream importer.EntryStream) error {
	return s.pipeline.Import(ctx, appcode, stream)
}

// ImportFile restores appcode from the zip archive at path.
func (s *Service) ImportFile(ctx context.Context, appcode, path string) error {
	stream, err := zipstream.OpenFile(path)
	if err != nil {
		if errors.Is(err, zipstream.ErrNotZip) {
			s.logger.Warn("import rejected", "path", path, "error", err)
			return errors.E(errors.KindFormat, importer.MsgNotAnExport)
		}
		return errors.NewUserError(err, "Check the archive path")
	}
	return s.ImportDB(ctx, appcode, stream)
}

// Close waits for scheduled exports, runs deferred deletions and closes the
// database.
func (s *Service) Close(ctx context.Context) error {
	var errs []error

	if w, ok := s.scheduler.(interface{ Wait(context.Context) error }); ok {
		if err := w.Wait(ctx); err != nil {
			errs = append(errs, errors.Wrap(err, "waiting for exports"))
		}
	}
	errs = append(errs, s.store.FlushDeferred()...)
	if err := s.db.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "closing database"))
	}

	return errors.Join(errs...)
}
