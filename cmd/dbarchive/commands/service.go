package commands

import (
	"context"
	"time"

	"github.com/thoreinstein/dbarchive/internal/dbmanager"
	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/logging"
)

// closeTimeout bounds how long the CLI waits for scheduled exports and
// deferred deletions before exiting.
const closeTimeout = 5 * time.Minute

// withService opens the service, runs fn and closes the service again.
// Closing drains scheduled exports, so the archive of a plain `export`
// exists by the time the process exits.
func withService(ctx context.Context, fn func(context.Context, *dbmanager.Service) error, opts ...dbmanager.Option) (err error) {
	logger := logging.FromContext(ctx)

	opts = append([]dbmanager.Option{dbmanager.WithLogger(logger)}, opts...)
	svc, err := dbmanager.Open(ctx, loadedConfig, opts...)
	if err != nil {
		return errors.NewSystemError(err, "Check the database path: dbarchive config get database")
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := svc.Close(closeCtx); cerr != nil {
			if err == nil {
				err = cerr
				return
			}
			logger.Warn("closing service", "error", cerr)
		}
	}()

	return fn(ctx, svc)
}
