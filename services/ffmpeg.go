package services

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// FFmpegTranscoder drives an external ffmpeg binary to fetch a time-bounded
// stream and mux it into a local file. Progress is read from ffmpeg's
// machine-readable progress output on stdout.
type FFmpegTranscoder struct {
	binary string
}

// NewFFmpegTranscoder creates a transcoder invoking the given binary.
func NewFFmpegTranscoder(binary string) *FFmpegTranscoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTranscoder{binary: binary}
}

// CheckBinary reports whether the configured binary is on PATH.
func (f *FFmpegTranscoder) CheckBinary() error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", f.binary)
	}
	return nil
}

type ffmpegHandle struct {
	cmd  *exec.Cmd
	once sync.Once
}

// Cancel terminates the ffmpeg process. The completion callback still fires
// through the normal exit path.
func (h *ffmpegHandle) Cancel() {
	h.once.Do(func() {
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}

// Start launches ffmpeg for one request and begins pumping its progress.
func (f *FFmpegTranscoder) Start(req TranscodeRequest, onProgress func(elapsedMs int64), onComplete func(success bool)) (TranscodeHandle, error) {
	args := f.buildArgs(req)
	cmd := exec.Command(f.binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	handle := &ffmpegHandle{cmd: cmd}

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if ms, ok := parseProgressLine(scanner.Text()); ok && onProgress != nil {
				onProgress(ms)
			}
		}

		err := cmd.Wait()
		if err != nil {
			log.Printf("ffmpeg exited with error: %v", err)
		}
		if onComplete != nil {
			onComplete(err == nil)
		}
	}()

	return handle, nil
}

// buildArgs assembles the ffmpeg invocation: authenticated stream input,
// optional cover art as attached picture, stream copy, tagged output.
func (f *FFmpegTranscoder) buildArgs(req TranscodeRequest) []string {
	args := []string{
		"-hide_banner", "-nostats",
		"-headers", fmt.Sprintf("X-RADIKO-AUTHTOKEN: %s\r\n", req.AuthToken),
		"-i", req.StreamURL,
	}

	hasCover := req.CoverPath != "" && fileExists(req.CoverPath)
	if hasCover {
		args = append(args, "-i", req.CoverPath, "-map", "0", "-map", "1")
	}

	args = append(args, "-c", "copy")
	if req.Artist != "" {
		args = append(args, "-metadata", "artist="+req.Artist)
	}
	if req.Album != "" {
		args = append(args, "-metadata", "album="+req.Album)
	}
	if hasCover {
		args = append(args, "-disposition:v", "attached_pic")
	}

	args = append(args, "-progress", "pipe:1", "-y", req.OutputPath)
	return args
}

// parseProgressLine extracts the elapsed media time in milliseconds from
// one line of ffmpeg -progress output. The out_time_us value is in
// microseconds (as is out_time_ms, despite its name).
func parseProgressLine(line string) (int64, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}
	if key != "out_time_us" && key != "out_time_ms" {
		return 0, false
	}
	us, err := strconv.ParseInt(value, 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return us / 1000, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
