// Package zipstream exposes a zip archive as a forward-only stream of
// entries, in the order they appear in the archive.
//
// It adapts [archive/zip] to the read-next-entry style used by the import
// pipeline: call Next to advance, Read to consume the current entry, and
// Close once to release the archive.
package zipstream

import (
	"archive/zip"
	"io"
	"os"
	"strings"

	"github.com/thoreinstein/dbarchive/internal/errors"
)

// ErrNotZip indicates the input is not a readable zip archive.
var ErrNotZip = errors.New("not a zip archive")

// Entry describes one archive member.
type Entry struct {
	Name  string
	IsDir bool
	Size  uint64
}

// Reader iterates the entries of a zip archive.
type Reader struct {
	files  []*zip.File
	next   int
	cur    io.ReadCloser
	closer io.Closer
	closed bool
}

// NewReader reads the archive directory from r.
// Returns an error wrapping ErrNotZip when r does not hold a zip archive.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrapf(ErrNotZip, "%v", err)
	}
	return &Reader{files: zr.File}, nil
}

// OpenFile opens the zip archive at path. Close releases the file.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening archive")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat archive")
	}

	r, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next closes the current entry and advances to the next one.
// It returns io.EOF when no entries remain.
func (r *Reader) Next() (Entry, error) {
	if r.closed {
		return Entry{}, errors.New("zipstream: reader closed")
	}
	if err := r.closeEntry(); err != nil {
		return Entry{}, err
	}
	if r.next >= len(r.files) {
		return Entry{}, io.EOF
	}

	f := r.files[r.next]
	r.next++

	rc, err := f.Open()
	if err != nil {
		return Entry{}, errors.Wrapf(err, "opening entry %s", f.Name)
	}
	r.cur = rc

	return Entry{
		Name:  f.Name,
		IsDir: f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"),
		Size:  f.UncompressedSize64,
	}, nil
}

// Read reads from the current entry. Before the first Next, or after the
// last entry, it returns io.EOF.
func (r *Reader) Read(p []byte) (int, error) {
	if r.cur == nil {
		return 0, io.EOF
	}
	return r.cur.Read(p)
}

// Close releases the current entry and the underlying file, if any.
// It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.closeEntry()
	if r.closer != nil {
		err = errors.Join(err, r.closer.Close())
	}
	return err
}

func (r *Reader) closeEntry() error {
	if r.cur == nil {
		return nil
	}
	err := r.cur.Close()
	r.cur = nil
	return errors.Wrap(err, "closing entry")
}
