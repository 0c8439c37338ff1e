package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/manifest"
	"github.com/thoreinstein/dbarchive/pkg/fileutil"
	"github.com/thoreinstein/dbarchive/pkg/zipstream"
)

// DefaultBufferSize is the transfer chunk size used when copying entries.
const DefaultBufferSize = 10 * 1024

// User-facing messages.
const (
	MsgNotAnExport     = "looks like the uploaded file is not a valid export"
	MsgMissingManifest = "looks like zip file does not contain a manifest file"
	MsgEmptyImport     = "the import file is empty"
	MsgManifestTooBig  = "the manifest file is too large"
	MsgImportFailed    = "there was an error handling your zip import file"
)

// EntryStream is a forward-only sequence of archive entries. Read reads the
// current entry. Next returns io.EOF when no entries remain.
type EntryStream interface {
	io.Reader
	io.Closer
	Next() (zipstream.Entry, error)
}

// Restorer loads a data file produced by an export into the database.
// It owns the file at dataPath once called.
type Restorer interface {
	Restore(ctx context.Context, appcode, dataPath string) error
}

// Pipeline imports archives.
type Pipeline struct {
	restorer   Restorer
	bufferSize int
	tempDir    string
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBufferSize sets the copy buffer size. Non-positive values are ignored.
func WithBufferSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithTempDir sets where temporary files are created. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) {
		p.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a Pipeline that hands data to restorer.
func NewPipeline(restorer Restorer, opts ...Option) *Pipeline {
	p := &Pipeline{
		restorer:   restorer,
		bufferSize: DefaultBufferSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Import validates the archive read from stream and restores its data for
// appcode. The stream is always closed.
//
// Format and version errors are returned as is. Any other failure is
// returned as a KindImport error wrapping the cause.
func (p *Pipeline) Import(ctx context.Context, appcode string, stream EntryStream) error {
	logger := p.logger.WithGroup("import").With("appcode", appcode)

	err := p.run(ctx, appcode, stream, logger)
	if err == nil {
		logger.Info("import completed")
		return nil
	}

	switch errors.KindOf(err) {
	case errors.KindFormat, errors.KindVersionIncompatible:
		logger.Warn("import rejected", "reason", err.Error())
		return err
	}

	logger.Error("import failed", "error", fmt.Sprintf("%+v", err))
	return errors.ImportFailure(MsgImportFailed, err)
}

func (p *Pipeline) run(ctx context.Context, appcode string, stream EntryStream, logger *slog.Logger) error {
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Debug("closing import stream", "error", err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	entry, ok, err := nextEntry(stream)
	if err != nil {
		return err
	}
	if ok && entry.IsDir {
		logger.Debug("skipping directory entry", "name", entry.Name)
		entry, ok, err = nextEntry(stream)
		if err != nil {
			return err
		}
	}
	if !ok {
		return errors.E(errors.KindFormat, MsgNotAnExport)
	}

	logger.Debug("reading data entry", "name", entry.Name)
	dataPath, err := p.copyToTemp(ctx, stream, "import-data-*")
	if err != nil {
		return err
	}
	handedOff := false
	defer func() {
		if !handedOff {
			removeTemp(logger, dataPath)
		}
	}()

	entry, ok, err = nextEntry(stream)
	if err != nil {
		return err
	}
	if !ok {
		return errors.E(errors.KindFormat, MsgMissingManifest)
	}

	logger.Debug("reading manifest entry", "name", entry.Name)
	text, err := p.readManifest(ctx, stream, logger)
	if err != nil {
		return err
	}

	version, err := manifest.CheckVersion(string(text))
	if err != nil {
		return err
	}
	logger.Debug("manifest version is valid", "version", version)

	if dataPath == "" {
		return errors.E(errors.KindFormat, MsgEmptyImport)
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	handedOff = true
	if err := p.restorer.Restore(ctx, appcode, dataPath); err != nil {
		return errors.Wrap(err, "restoring data")
	}
	return nil
}

// readManifest spools the current entry to a temp file, reads it back and
// removes the file before returning.
func (p *Pipeline) readManifest(ctx context.Context, stream EntryStream, logger *slog.Logger) ([]byte, error) {
	path, err := p.copyToTemp(ctx, io.LimitReader(stream, fileutil.MaxFileSize+1), "import-manifest-*")
	if err != nil {
		return nil, err
	}
	defer removeTemp(logger, path)

	text, err := fileutil.ReadFileWithLimit(path)
	if errors.Is(err, fileutil.ErrFileTooLarge) {
		return nil, errors.E(errors.KindFormat, MsgManifestTooBig)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}
	return text, nil
}

// copyToTemp copies r into a new temp file and returns its path. An empty
// entry still yields a file. On error no file is left behind.
func (p *Pipeline) copyToTemp(ctx context.Context, r io.Reader, pattern string) (path string, err error) {
	f, err := os.CreateTemp(p.tempDir, pattern)
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	path = f.Name()

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing temp file")
		}
		if err != nil {
			os.Remove(path)
			path = ""
		}
	}()

	buf := make([]byte, p.bufferSize)
	if _, err = io.CopyBuffer(onlyWriter{f}, ctxReader{ctx: ctx, r: r}, buf); err != nil {
		return path, errors.Wrap(err, "copying archive entry")
	}
	return path, nil
}

func nextEntry(stream EntryStream) (zipstream.Entry, bool, error) {
	e, err := stream.Next()
	if errors.Is(err, io.EOF) {
		return zipstream.Entry{}, false, nil
	}
	if err != nil {
		return zipstream.Entry{}, false, errors.Wrap(err, "reading archive entry")
	}
	return e, true, nil
}

func removeTemp(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("removing temp file", "path", path, "error", err)
	}
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// onlyWriter hides ReadFrom so io.CopyBuffer uses the supplied buffer.
type onlyWriter struct {
	w io.Writer
}

func (o onlyWriter) Write(p []byte) (int, error) {
	return o.w.Write(p)
}
