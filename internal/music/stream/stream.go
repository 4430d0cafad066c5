// Package stream plays decoded tracks into a voice connection as opus frames.
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"layeh.com/gopus"

	"server-jukebox/internal/music/audio"
)

// ErrEmptyStream is returned by Play when a source ends before its first frame.
var ErrEmptyStream = errors.New("stream ended before producing audio")

// Encoder turns one PCM frame into an opus packet. *gopus.Encoder satisfies it.
type Encoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

type EncoderFactory func() (Encoder, error)

func OpusEncoder() (Encoder, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("encoder error: %w", err)
	}
	return enc, nil
}

// Factory builds players that share an opener and encoder constructor.
type Factory struct {
	open       Opener
	newEncoder EncoderFactory
}

func NewFactory(open Opener, newEncoder EncoderFactory) *Factory {
	if newEncoder == nil {
		newEncoder = OpusEncoder
	}
	return &Factory{open: open, newEncoder: newEncoder}
}

func (f *Factory) NewPlayer(b audio.Behavior) audio.Player {
	return &Player{
		behavior:   b,
		open:       f.open,
		newEncoder: f.newEncoder,
	}
}

// Player streams one source at a time. Starting a new source replaces the
// current one without an idle event. Only one run uses the encoder at a time.
type Player struct {
	behavior   audio.Behavior
	open       Opener
	newEncoder EncoderFactory

	mu        sync.Mutex
	encoder   Encoder
	writer    audio.FrameWriter
	status    audio.PlayerStatus
	listeners []func()
	gen       int
	cancel    context.CancelFunc
	done      chan struct{}
	resume    chan struct{}
}

func (p *Player) Attach(w audio.FrameWriter) {
	p.mu.Lock()
	p.writer = w
	stop := w == nil && p.behavior.StopOnNoSubscriber && p.status != audio.StatusIdle
	p.mu.Unlock()
	if stop {
		p.Stop(true)
	}
}

// Play starts src, replacing any running source. It returns once the first
// frame has been decoded, so a source that ends without audio is an error.
func (p *Player) Play(src audio.Source) error {
	p.mu.Lock()
	if p.writer == nil && p.behavior.StopOnNoSubscriber {
		p.mu.Unlock()
		return audio.ErrNotAttached
	}

	// The retired run sees a stale generation and exits without firing idle
	// listeners. It must be gone before the encoder is reused.
	p.gen++
	gen := p.gen
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.status = audio.StatusIdle
	if p.resume != nil {
		close(p.resume)
		p.resume = nil
	}
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	p.mu.Lock()
	if gen != p.gen {
		// A later Play owns the player now.
		p.mu.Unlock()
		return nil
	}
	if p.writer == nil && p.behavior.StopOnNoSubscriber {
		p.mu.Unlock()
		return audio.ErrNotAttached
	}
	if p.encoder == nil {
		enc, err := p.newEncoder()
		if err != nil {
			p.mu.Unlock()
			return err
		}
		p.encoder = enc
	}

	ctx, cancel := context.WithCancel(context.Background())
	r, err := p.open(ctx, src)
	if err != nil {
		cancel()
		p.mu.Unlock()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	started := make(chan error, 1)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.status = audio.StatusPlaying
	go p.run(ctx, gen, p.done, started, r, p.encoder)
	p.mu.Unlock()

	if err := <-started; err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	return nil
}

func (p *Player) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != audio.StatusPlaying {
		return false
	}
	p.status = audio.StatusPaused
	p.resume = make(chan struct{})
	return true
}

func (p *Player) Unpause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != audio.StatusPaused {
		return false
	}
	p.status = audio.StatusPlaying
	close(p.resume)
	p.resume = nil
	return true
}

// Stop ends the current source and waits for its goroutine to exit. A paused
// player is only stopped when force is set.
func (p *Player) Stop(force bool) bool {
	p.mu.Lock()
	if p.status == audio.StatusIdle || p.cancel == nil {
		p.mu.Unlock()
		return false
	}
	if p.status == audio.StatusPaused && !force {
		p.mu.Unlock()
		return false
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
	return true
}

func (p *Player) Status() audio.PlayerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Player) OnceIdle(fn func()) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

func (p *Player) RemoveAllListeners() {
	p.mu.Lock()
	p.listeners = nil
	p.mu.Unlock()
}

func (p *Player) run(ctx context.Context, gen int, done chan struct{}, started chan<- error, r io.ReadCloser, enc Encoder) {
	stop := context.AfterFunc(ctx, func() { _ = r.Close() })
	defer stop()

	n, err := p.pump(ctx, r, enc, started)
	_ = r.Close()
	ended := err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
	if n > 0 && !ended && ctx.Err() == nil {
		log.Warn().Err(err).Msg("Audio stream ended with error")
	}

	p.mu.Lock()
	var fire []func()
	w := p.writer
	current := gen == p.gen
	if current {
		p.status = audio.StatusIdle
		p.cancel = nil
		if p.resume != nil {
			close(p.resume)
			p.resume = nil
		}
		// A source that never produced audio is reported by Play instead.
		if n > 0 {
			fire, p.listeners = p.listeners, nil
		}
	}
	p.mu.Unlock()

	if current && w != nil {
		_ = w.Speaking(false)
	}
	if n == 0 {
		if ended {
			err = ErrEmptyStream
		}
		started <- err
	}
	close(done)
	for _, fn := range fire {
		fn()
	}
}

// pump encodes frames until the source ends and returns how many it encoded.
// started receives nil after the first one.
func (p *Player) pump(ctx context.Context, r io.Reader, enc Encoder, started chan<- error) (int, error) {
	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)
	speaking := false
	n := 0

	for {
		w, err := p.waitWhilePaused(ctx)
		if err != nil {
			return n, err
		}
		if w == nil && p.behavior.StopOnNoSubscriber {
			return n, audio.ErrNotAttached
		}

		if _, err := io.ReadFull(r, pcmBuf); err != nil {
			return n, fmt.Errorf("read error: %w", err)
		}
		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}
		frame, err := enc.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return n, fmt.Errorf("encode error: %w", err)
		}
		n++
		if n == 1 {
			started <- nil
		}

		if w == nil {
			continue
		}
		if !speaking {
			_ = w.Speaking(true)
			speaking = true
		}
		if err := w.WriteFrame(frame); err != nil {
			return n, fmt.Errorf("write error: %w", err)
		}
	}
}

// waitWhilePaused blocks while the player is paused and returns the writer
// to use for the next frame.
func (p *Player) waitWhilePaused(ctx context.Context) (audio.FrameWriter, error) {
	for {
		p.mu.Lock()
		resume, w := p.resume, p.writer
		p.mu.Unlock()
		if resume == nil {
			return w, ctx.Err()
		}
		select {
		case <-resume:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
