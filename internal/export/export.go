package export

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/thoreinstein/dbarchive/internal/archive"
	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/scheduler"
)

// TimeFormat is the timestamp prefix of archive names.
const TimeFormat = "20060102-150405"

// DefaultDelay is the time between Export returning and the job starting.
const DefaultDelay = time.Second

// ErrMissingAppcode is returned when Export is called without an appcode.
var ErrMissingAppcode = errors.New("appcode is required")

// JobFunc writes the archive for appcode to path.
type JobFunc func(ctx context.Context, path, appcode string) error

// Exporter schedules export jobs.
type Exporter struct {
	store     *archive.Store
	job       JobFunc
	scheduler scheduler.Scheduler
	clock     clock.Clock
	delay     time.Duration
	logger    *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithScheduler sets the scheduler used to run jobs.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(e *Exporter) {
		e.scheduler = s
	}
}

// WithClock sets the time source for archive names.
func WithClock(c clock.Clock) Option {
	return func(e *Exporter) {
		e.clock = c
	}
}

// WithDelay sets the delay before the job runs. Negative values are ignored.
func WithDelay(d time.Duration) Option {
	return func(e *Exporter) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = l
	}
}

// NewExporter creates an Exporter that writes archives into store using job.
func NewExporter(store *archive.Store, job JobFunc, opts ...Option) *Exporter {
	e := &Exporter{
		store:  store,
		job:    job,
		clock:  clock.WallClock,
		delay:  DefaultDelay,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scheduler == nil {
		e.scheduler = scheduler.New(scheduler.WithClock(e.clock), scheduler.WithLogger(e.logger))
	}
	return e
}

// Export schedules an export of appcode and returns the archive file name.
// The archive may not exist yet when Export returns. Job failures are
// logged, never returned.
func (e *Exporter) Export(ctx context.Context, appcode string) (string, error) {
	if appcode == "" {
		return "", errors.NewUserError(ErrMissingAppcode, "Pass the application code to export")
	}
	if err := e.store.EnsureDir(); err != nil {
		return "", err
	}

	name := FileName(e.clock.Now(), appcode)
	path := e.store.Path(name)
	logger := e.logger.With("appcode", appcode, "file", name)

	jobCtx := context.WithoutCancel(ctx)
	e.scheduler.Schedule(e.delay, func() {
		logger.Debug("export started")
		if err := e.job(jobCtx, path, appcode); err != nil {
			logger.Error("export failed", "error", err)
			return
		}
		logger.Info("export completed", "path", path)
	})

	logger.Debug("export scheduled", "delay", e.delay)
	return name, nil
}

// FileName returns the archive name for appcode created at t.
func FileName(t time.Time, appcode string) string {
	return t.Format(TimeFormat) + "-" + EscapeName(appcode) + archive.Ext
}

// EscapeName makes s safe to use as part of a file name by replacing path
// separators, reserved characters and control characters with '_'.
func EscapeName(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`\/:*?"<>|`, r) {
			return '_'
		}
		return r
	}, s)
}
