package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		line   string
		wantMs int64
		wantOk bool
	}{
		{line: "out_time_us=1500000", wantMs: 1500, wantOk: true},
		// out_time_ms carries microseconds too, despite its name.
		{line: "out_time_ms=1500000", wantMs: 1500, wantOk: true},
		{line: "  out_time_us=2000000  ", wantMs: 2000, wantOk: true},
		{line: "out_time_us=0", wantMs: 0, wantOk: true},
		{line: "out_time_us=-1", wantOk: false},
		{line: "out_time_us=N/A", wantOk: false},
		{line: "out_time=00:00:01.500000", wantOk: false},
		{line: "frame=42", wantOk: false},
		{line: "progress=continue", wantOk: false},
		{line: "garbage", wantOk: false},
	}

	for _, tt := range tests {
		ms, ok := parseProgressLine(tt.line)
		assert.Equal(t, tt.wantOk, ok, "line=%q", tt.line)
		if tt.wantOk {
			assert.Equal(t, tt.wantMs, ms, "line=%q", tt.line)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	f := NewFFmpegTranscoder("ffmpeg")

	args := f.buildArgs(TranscodeRequest{
		StreamURL:  "https://stream.example.com/playlist.m3u8",
		OutputPath: "/tmp/out.m4a",
		AuthToken:  "token-123",
		Artist:     "TBS Radio",
		Album:      "Night Owl",
	})

	assert.Contains(t, args, "-headers")
	assert.Contains(t, args, "X-RADIKO-AUTHTOKEN: token-123\r\n")
	assert.Contains(t, args, "https://stream.example.com/playlist.m3u8")
	assert.Contains(t, args, "artist=TBS Radio")
	assert.Contains(t, args, "album=Night Owl")
	assert.Contains(t, args, "-progress")

	// Stream copy, no re-encode.
	assert.Contains(t, args, "copy")

	// No cover file, no attached picture mapping.
	assert.NotContains(t, args, "-disposition:v")
	assert.NotContains(t, args, "-map")

	// Output path last.
	assert.Equal(t, "/tmp/out.m4a", args[len(args)-1])
}

func TestBuildArgsWithCover(t *testing.T) {
	f := NewFFmpegTranscoder("ffmpeg")

	cover := filepath.Join(t.TempDir(), "cover.jpg")
	require.NoError(t, os.WriteFile(cover, []byte("jpg"), 0644))

	args := f.buildArgs(TranscodeRequest{
		StreamURL:  "https://stream.example.com/playlist.m3u8",
		OutputPath: "/tmp/out.m4a",
		AuthToken:  "token-123",
		CoverPath:  cover,
	})

	assert.Contains(t, args, cover)
	assert.Contains(t, args, "-map")
	assert.Contains(t, args, "-disposition:v")
	assert.Contains(t, args, "attached_pic")
}

func TestBuildArgsSkipsMissingCover(t *testing.T) {
	f := NewFFmpegTranscoder("ffmpeg")

	args := f.buildArgs(TranscodeRequest{
		StreamURL:  "https://stream.example.com/playlist.m3u8",
		OutputPath: "/tmp/out.m4a",
		AuthToken:  "token-123",
		CoverPath:  "/nonexistent/cover.jpg",
	})

	assert.NotContains(t, args, "/nonexistent/cover.jpg")
	assert.NotContains(t, args, "-disposition:v")
}
