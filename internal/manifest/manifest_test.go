package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/dbarchive/internal/errors"
)

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		wantKind errors.Kind
	}{
		{"floor", "version: 0.6.0\n", "0.6.0", errors.KindUnknown},
		{"current", "version: 1.0.0", "1.0.0", errors.KindUnknown},
		{"no space", "version:0.7.1\n", "0.7.1", errors.KindUnknown},
		{"surrounded", "app: demo\nversion: 0.9.0\ncreated: today\n", "0.9.0", errors.KindUnknown},
		{"trailing blanks", "version: 0.8.0 \t\n", "0.8.0", errors.KindUnknown},
		{"crlf", "version: 0.8.0\r\n", "0.8.0", errors.KindUnknown},
		{"below floor", "version: 0.5.9\n", "", errors.KindVersionIncompatible},
		{"lexicographic", "version: 0.10.0\n", "", errors.KindVersionIncompatible},
		{"case folded", "version: 0.6.0-RC\n", "0.6.0-RC", errors.KindUnknown},
		{"empty", "", "", errors.KindFormat},
		{"missing", "app: demo\n", "", errors.KindFormat},
		{"no value", "version:\n", "", errors.KindFormat},
		{"indented", "  version: 1.0.0\n", "", errors.KindFormat},
		{"duplicate", "version: 1.0.0\nversion: 1.0.0\n", "", errors.KindFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckVersion(tt.text)
			if tt.wantKind == errors.KindUnknown {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errors.KindOf(err))
			assert.Empty(t, got)
		})
	}
}

func TestCheckVersion_Messages(t *testing.T) {
	_, err := CheckVersion("nothing here")
	assert.EqualError(t, err, "the manifest file does not contain a version number")

	_, err = CheckVersion("version: 0.5.9")
	assert.EqualError(t, err, "current version (1.0.0) is not compatible with import file version (0.5.9)")
}

func TestRender_RoundTrip(t *testing.T) {
	got, err := CheckVersion(string(Render(CurrentVersion)))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, got)
}
