package player

import (
	"context"
	"errors"
	"sync"

	"server-jukebox/internal/music/audio"
	"server-jukebox/internal/music/session"
)

type fakeResolver struct {
	mu     sync.Mutex
	fail   map[string]error
	calls  []string
	before func(url string)
}

func (r *fakeResolver) Resolve(_ context.Context, url string) (audio.Resolved, error) {
	r.mu.Lock()
	r.calls = append(r.calls, url)
	err := r.fail[url]
	before := r.before
	r.mu.Unlock()
	if before != nil {
		before(url)
	}
	if err != nil {
		return audio.Resolved{}, err
	}
	return audio.Resolved{Title: "Title " + url, StreamURL: "https://cdn/" + url}, nil
}

func (r *fakeResolver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakePlayer struct {
	mu        sync.Mutex
	status    audio.PlayerStatus
	played    []audio.Source
	listeners []func()
	stops     int
	playErr   error
}

func (p *fakePlayer) Play(src audio.Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.played = append(p.played, src)
	p.status = audio.StatusPlaying
	return nil
}

func (p *fakePlayer) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != audio.StatusPlaying {
		return false
	}
	p.status = audio.StatusPaused
	return true
}

func (p *fakePlayer) Unpause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != audio.StatusPaused {
		return false
	}
	p.status = audio.StatusPlaying
	return true
}

func (p *fakePlayer) Stop(bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	was := p.status != audio.StatusIdle
	p.status = audio.StatusIdle
	return was
}

func (p *fakePlayer) Status() audio.PlayerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *fakePlayer) OnceIdle(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *fakePlayer) RemoveAllListeners() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = nil
}

// finish ends the current track the way a drained stream would.
func (p *fakePlayer) finish() {
	p.mu.Lock()
	fire := p.listeners
	p.listeners = nil
	p.status = audio.StatusIdle
	p.mu.Unlock()
	for _, fn := range fire {
		fn()
	}
}

func (p *fakePlayer) titles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.played))
	for i, s := range p.played {
		out[i] = s.Title
	}
	return out
}

type fakeFactory struct {
	player *fakePlayer
	made   int
}

func (f *fakeFactory) NewPlayer(audio.Behavior) audio.Player {
	f.made++
	return f.player
}

type fakeConn struct {
	mu           sync.Mutex
	destroyed    int
	subscribeErr error
	subscribed   int
}

func (c *fakeConn) Subscribe(audio.Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return c.subscribeErr
	}
	c.subscribed++
	return nil
}

func (c *fakeConn) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed++
	return nil
}

func (c *fakeConn) Status() audio.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed > 0 {
		return audio.ConnectionDestroyed
	}
	return audio.ConnectionReady
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, _, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, content)
	return nil
}

type fakePanel struct {
	mu        sync.Mutex
	refreshes int
	clears    int
}

func (p *fakePanel) Refresh(context.Context, *session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes++
}

func (p *fakePanel) Clear(context.Context, *session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears++
}

type fakeHistory struct {
	titles []string
	err    error
}

func (h *fakeHistory) AppendTrackToHistory(_, title, _ string) error {
	h.titles = append(h.titles, title)
	return h.err
}

var errResolve = errors.New("no audio-only stream found")
