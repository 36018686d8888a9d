package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetadataFromName(t *testing.T) {
	ls := &libraryService{}

	tests := []struct {
		name        string
		filePath    string
		wantTitle   string
		wantStation string
	}{
		{
			name:        "standard recording name",
			filePath:    "/audio/TBS-20260827210000.m4a",
			wantTitle:   "TBS-20260827210000",
			wantStation: "TBS",
		},
		{
			name:        "station id with hyphen",
			filePath:    "/audio/FM-FUJI-20260827210000.m4a",
			wantTitle:   "FM-FUJI-20260827210000",
			wantStation: "FM-FUJI",
		},
		{
			name:        "no separator",
			filePath:    "/audio/recording.m4a",
			wantTitle:   "recording",
			wantStation: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ls.extractMetadataFromName(tt.filePath)
			assert.Equal(t, tt.wantTitle, meta.Title)
			assert.Equal(t, tt.wantStation, meta.Station)
		})
	}
}

func TestScanRecordings(t *testing.T) {
	ls := NewLibraryService()
	dir := t.TempDir()

	// Two recordings plus noise that must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TBS-20260827210000.m4a"), []byte("audio"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "QRR-20260827220000.m4a"), []byte("audio"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "radisnap.db"), []byte("db"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0644))

	recordings, err := ls.ScanRecordings(dir)
	require.NoError(t, err)
	require.Len(t, recordings, 2)

	names := []string{recordings[0].Filename, recordings[1].Filename}
	assert.Contains(t, names, "TBS-20260827210000.m4a")
	assert.Contains(t, names, "QRR-20260827220000.m4a")

	for _, rec := range recordings {
		assert.Equal(t, "m4a", rec.Format)
		assert.Equal(t, int64(5), rec.Size)
		// Unparseable tags fall back to the file name.
		require.NotNil(t, rec.Metadata)
		assert.NotEmpty(t, rec.Metadata.Station)
	}
}

func TestScanRecordingsMissingDir(t *testing.T) {
	ls := NewLibraryService()

	// A missing directory yields an empty library, not a hard failure.
	recordings, err := ls.ScanRecordings(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, recordings)
}

func TestValidateFilePath(t *testing.T) {
	ls := NewLibraryService()

	assert.NoError(t, ls.ValidateFilePath("TBS-20260827210000.m4a"))
	assert.Error(t, ls.ValidateFilePath("../etc/passwd"))
	assert.Error(t, ls.ValidateFilePath("/absolute/path.m4a"))
	assert.Error(t, ls.ValidateFilePath("   "))
}

func TestGetContentType(t *testing.T) {
	ls := NewLibraryService()

	assert.Equal(t, "audio/mp4", ls.GetContentType("x.m4a"))
	assert.Equal(t, "audio/mpeg", ls.GetContentType("x.mp3"))
	assert.Equal(t, "application/octet-stream", ls.GetContentType("x.bin"))
}
