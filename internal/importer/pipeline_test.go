package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/logging"
	"github.com/thoreinstein/dbarchive/pkg/fileutil"
	"github.com/thoreinstein/dbarchive/pkg/zipstream"
)

type mockRestorer struct {
	mock.Mock
}

func (m *mockRestorer) Restore(ctx context.Context, appcode, dataPath string) error {
	args := m.Called(ctx, appcode, dataPath)
	return args.Error(0)
}

// closeCounter records how often the stream is closed.
type closeCounter struct {
	EntryStream
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return c.EntryStream.Close()
}

type zipEntry struct {
	name string
	body string
}

func zipStream(t *testing.T, entries ...zipEntry) *closeCounter {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, e.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	r, err := zipstream.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return &closeCounter{EntryStream: r}
}

func newTestPipeline(t *testing.T, r Restorer) (*Pipeline, string) {
	t.Helper()
	tmp := t.TempDir()
	return NewPipeline(r,
		WithTempDir(tmp),
		WithBufferSize(7),
		WithLogger(logging.ForTest(t)),
	), tmp
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files left behind")
}

const validData = `{"appcode":"demo","records":[{"collection":"users","id":"1","body":{"name":"ann"}}]}`

func TestImport_Success(t *testing.T) {
	restorer := &mockRestorer{}
	p, tmp := newTestPipeline(t, restorer)

	var restored []byte
	restorer.On("Restore", mock.Anything, "demo", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			data, err := os.ReadFile(args.String(2))
			require.NoError(t, err)
			restored = data
			require.NoError(t, os.Remove(args.String(2)))
		}).
		Return(nil).Once()

	stream := zipStream(t,
		zipEntry{name: "demo.json", body: validData},
		zipEntry{name: "manifest.txt", body: "version: 1.0.0\n"},
	)

	require.NoError(t, p.Import(context.Background(), "demo", stream))

	restorer.AssertExpectations(t)
	assert.Equal(t, validData, string(restored))
	assert.Equal(t, 1, stream.closes)
	assertEmptyDir(t, tmp)
}

func TestImport_SkipsDirectoryMarker(t *testing.T) {
	restorer := &mockRestorer{}
	p, _ := newTestPipeline(t, restorer)
	restorer.On("Restore", mock.Anything, "demo", mock.Anything).Return(nil).Once()

	stream := zipStream(t,
		zipEntry{name: "export/"},
		zipEntry{name: "export/demo.json", body: validData},
		zipEntry{name: "export/manifest.txt", body: "version: 0.6.0\n"},
	)

	require.NoError(t, p.Import(context.Background(), "demo", stream))
	restorer.AssertExpectations(t)
}

func TestImport_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		entries  []zipEntry
		wantKind errors.Kind
		wantMsg  string
	}{
		{
			name:     "no entries",
			wantKind: errors.KindFormat,
			wantMsg:  MsgNotAnExport,
		},
		{
			name:     "only directory marker",
			entries:  []zipEntry{{name: "export/"}},
			wantKind: errors.KindFormat,
			wantMsg:  MsgNotAnExport,
		},
		{
			name:     "no manifest",
			entries:  []zipEntry{{name: "demo.json", body: validData}},
			wantKind: errors.KindFormat,
			wantMsg:  MsgMissingManifest,
		},
		{
			name: "manifest without version",
			entries: []zipEntry{
				{name: "demo.json", body: validData},
				{name: "manifest.txt", body: "app: demo\n"},
			},
			wantKind: errors.KindFormat,
			wantMsg:  "the manifest file does not contain a version number",
		},
		{
			name: "old version",
			entries: []zipEntry{
				{name: "demo.json", body: validData},
				{name: "manifest.txt", body: "version: 0.5.9\n"},
			},
			wantKind: errors.KindVersionIncompatible,
			wantMsg:  "current version (1.0.0) is not compatible with import file version (0.5.9)",
		},
		{
			name: "oversized manifest",
			entries: []zipEntry{
				{name: "demo.json", body: validData},
				{name: "manifest.txt", body: "version: 1.0.0\n" + strings.Repeat("#", fileutil.MaxFileSize)},
			},
			wantKind: errors.KindFormat,
			wantMsg:  MsgManifestTooBig,
		},
		{
			name: "empty data and old version",
			entries: []zipEntry{
				{name: "demo.json"},
				{name: "manifest.txt", body: "version: 0.1.0\n"},
			},
			wantKind: errors.KindVersionIncompatible,
			wantMsg:  "current version (1.0.0) is not compatible with import file version (0.1.0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restorer := &mockRestorer{}
			p, tmp := newTestPipeline(t, restorer)
			stream := zipStream(t, tt.entries...)

			err := p.Import(context.Background(), "demo", stream)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errors.KindOf(err))
			assert.EqualError(t, err, tt.wantMsg)

			restorer.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, 1, stream.closes)
			assertEmptyDir(t, tmp)
		})
	}
}

func TestImport_EmptyDataEntry(t *testing.T) {
	restorer := &mockRestorer{}
	p, tmp := newTestPipeline(t, restorer)

	var size int64 = -1
	restorer.On("Restore", mock.Anything, "demo", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			info, err := os.Stat(args.String(2))
			require.NoError(t, err)
			size = info.Size()
			require.NoError(t, os.Remove(args.String(2)))
		}).
		Return(nil).Once()

	stream := zipStream(t,
		zipEntry{name: "demo.json"},
		zipEntry{name: "manifest.txt", body: "version: 1.0.0\n"},
	)

	require.NoError(t, p.Import(context.Background(), "demo", stream))

	restorer.AssertExpectations(t)
	assert.Zero(t, size)
	assert.Equal(t, 1, stream.closes)
	assertEmptyDir(t, tmp)
}

func TestImport_RestorerFailure(t *testing.T) {
	restorer := &mockRestorer{}
	p, _ := newTestPipeline(t, restorer)
	cause := errors.New("constraint violation")
	restorer.On("Restore", mock.Anything, "demo", mock.Anything).Return(cause).Once()

	stream := zipStream(t,
		zipEntry{name: "demo.json", body: validData},
		zipEntry{name: "manifest.txt", body: "version: 1.0.0\n"},
	)

	err := p.Import(context.Background(), "demo", stream)
	require.Error(t, err)
	assert.Equal(t, errors.KindImport, errors.KindOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, strings.HasPrefix(err.Error(), MsgImportFailed))
	assert.Equal(t, 1, stream.closes)
}

func TestImport_CancelledContext(t *testing.T) {
	restorer := &mockRestorer{}
	p, tmp := newTestPipeline(t, restorer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := zipStream(t,
		zipEntry{name: "demo.json", body: validData},
		zipEntry{name: "manifest.txt", body: "version: 1.0.0\n"},
	)

	err := p.Import(ctx, "demo", stream)
	require.Error(t, err)
	assert.Equal(t, errors.KindImport, errors.KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, stream.closes)
	restorer.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything, mock.Anything)
	assertEmptyDir(t, tmp)
}

// brokenStream fails while reading the data entry.
type brokenStream struct {
	calls  int
	closed bool
}

func (b *brokenStream) Next() (zipstream.Entry, error) {
	b.calls++
	return zipstream.Entry{Name: "demo.json"}, nil
}

func (b *brokenStream) Read([]byte) (int, error) {
	return 0, errors.New("zip: checksum error")
}

func (b *brokenStream) Close() error {
	b.closed = true
	return nil
}

func TestImport_ReadFailure(t *testing.T) {
	restorer := &mockRestorer{}
	p, tmp := newTestPipeline(t, restorer)
	stream := &brokenStream{}

	err := p.Import(context.Background(), "demo", stream)
	require.Error(t, err)
	assert.Equal(t, errors.KindImport, errors.KindOf(err))
	assert.Contains(t, err.Error(), "checksum error")
	assert.True(t, stream.closed)
	assertEmptyDir(t, tmp)
}

func TestImport_Reusable(t *testing.T) {
	restorer := &mockRestorer{}
	p, _ := newTestPipeline(t, restorer)
	restorer.On("Restore", mock.Anything, "demo", mock.Anything).Return(nil).Twice()

	bad := zipStream(t, zipEntry{name: "demo.json", body: validData})
	require.Error(t, p.Import(context.Background(), "demo", bad))

	for range 2 {
		good := zipStream(t,
			zipEntry{name: "demo.json", body: validData},
			zipEntry{name: "manifest.txt", body: "version: 1.0.0\n"},
		)
		require.NoError(t, p.Import(context.Background(), "demo", good))
	}
	restorer.AssertExpectations(t)
}

func TestWithBufferSize(t *testing.T) {
	p := NewPipeline(nil, WithBufferSize(0))
	assert.Equal(t, DefaultBufferSize, p.bufferSize)

	p = NewPipeline(nil, WithBufferSize(64))
	assert.Equal(t, 64, p.bufferSize)
}
