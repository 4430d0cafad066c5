package stream

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"server-jukebox/internal/music/audio"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// Opener starts decoding src and returns raw s16le PCM at 48kHz stereo.
// The stream must end when ctx is canceled.
type Opener func(ctx context.Context, src audio.Source) (io.ReadCloser, error)

// FFmpegOpener decodes with the ffmpeg binary at path.
func FFmpegOpener(path string) Opener {
	if path == "" {
		path = "ffmpeg"
	}
	return func(ctx context.Context, src audio.Source) (io.ReadCloser, error) {
		cmd := exec.CommandContext(ctx, path, ffmpegArgs(src)...)
		reader, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe error: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("command start error: %w", err)
		}
		return &process{ReadCloser: reader, cmd: cmd}, nil
	}
}

func ffmpegArgs(src audio.Source) []string {
	args := []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", src.StreamURL,
	}
	if src.Volume > 0 && src.Volume != 1 {
		args = append(args, "-af", "volume="+strconv.FormatFloat(src.Volume, 'f', -1, 64))
	}
	return append(args,
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "warning",
		"pipe:1",
	)
}

// process reaps ffmpeg once its output is closed. Close is safe to call
// more than once and from several goroutines.
type process struct {
	io.ReadCloser
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func (p *process) Close() error {
	p.once.Do(func() {
		p.err = p.ReadCloser.Close()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		_ = p.cmd.Wait()
	})
	return p.err
}
