package jukebox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"server-jukebox/internal/music/audio"
	"server-jukebox/internal/music/panel"
)

type fakeResolver struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (r *fakeResolver) Resolve(_ context.Context, url string) (audio.Resolved, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, url)
	if r.fail[url] {
		return audio.Resolved{}, audio.ErrNoAudioStream
	}
	return audio.Resolved{Title: "Title " + url[len(url)-1:], StreamURL: "https://cdn/" + url}, nil
}

type fakePlayer struct {
	mu        sync.Mutex
	status    audio.PlayerStatus
	listeners []func()
}

func (p *fakePlayer) Play(audio.Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
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
	p.status = audio.StatusIdle
	return true
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

type fakeFactory struct{ player *fakePlayer }

func (f *fakeFactory) NewPlayer(audio.Behavior) audio.Player { return f.player }

type fakeConn struct {
	mu        sync.Mutex
	destroyed int
}

func (c *fakeConn) Subscribe(audio.Player) error { return nil }

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

type fakeTransport struct {
	mu    sync.Mutex
	joins int
	err   error
	conn  *fakeConn
	extra []*fakeConn
}

func (t *fakeTransport) Join(context.Context, string, string) (audio.Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.joins++
	if t.err != nil {
		return nil, t.err
	}
	if t.joins == 1 {
		return t.conn, nil
	}
	c := &fakeConn{}
	t.extra = append(t.extra, c)
	return c, nil
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

type fakeMessenger struct {
	mu      sync.Mutex
	seq     int
	sends   int
	edits   int
	deletes []string
	last    panel.View
}

func (m *fakeMessenger) Send(_ context.Context, _ string, v panel.View) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.sends++
	m.last = v
	return fmt.Sprintf("msg-%d", m.seq), nil
}

func (m *fakeMessenger) Edit(_ context.Context, _, _ string, v panel.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits++
	m.last = v
	return nil
}

func (m *fakeMessenger) Delete(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, id)
	return nil
}

var errGateway = errors.New("voice gateway unavailable")
