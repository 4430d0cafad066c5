// Package player drives a session's audio: it resolves tracks, starts them on
// the session's audio player and advances the cursor when they finish.
package player

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"server-jukebox/internal/music/audio"
	"server-jukebox/internal/music/session"
)

// EndOfQueue passed to Play tears the session down.
const EndOfQueue = -1

const defaultMaxFailureStreak = 10

// Notifier posts plain text to a guild's text channel.
type Notifier interface {
	Notify(ctx context.Context, channelID, content string) error
}

// Panel is the part of the panel synchronizer the controller drives.
type Panel interface {
	Refresh(ctx context.Context, s *session.Session)
	Clear(ctx context.Context, s *session.Session)
}

// History records tracks that actually started.
type History interface {
	AppendTrackToHistory(guildID, title, url string) error
}

type Reason int

const (
	// ReasonFinished is a natural end of queue; users get a completion notice.
	ReasonFinished Reason = iota
	// ReasonCanceled is an explicit delete.
	ReasonCanceled
)

func (r Reason) String() string {
	if r == ReasonCanceled {
		return "canceled"
	}
	return "finished"
}

type Controller struct {
	ctx         context.Context
	registry    *session.Registry
	resolver    audio.Resolver
	players     audio.PlayerFactory
	notifier    Notifier
	panel       Panel
	history     History
	volume      float64
	maxFailures int
	intn        func(int) int
	dispatch    func(func())
}

type Option func(*Controller)

func WithPanel(p Panel) Option { return func(c *Controller) { c.panel = p } }

func WithHistory(h History) Option { return func(c *Controller) { c.history = h } }

func WithVolume(v float64) Option { return func(c *Controller) { c.volume = v } }

// WithMaxFailureStreak caps consecutive resolution failures before the
// session is forced to end.
func WithMaxFailureStreak(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxFailures = n
		}
	}
}

// WithRand replaces the shuffle source. intn must return a value in [0, n).
func WithRand(intn func(int) int) Option { return func(c *Controller) { c.intn = intn } }

// WithDispatch sets how track-ended callbacks are scheduled. The default runs
// each on its own goroutine so player goroutines never block on resolution.
func WithDispatch(d func(func())) Option { return func(c *Controller) { c.dispatch = d } }

// WithContext sets the context used for work started from player callbacks.
func WithContext(ctx context.Context) Option { return func(c *Controller) { c.ctx = ctx } }

func New(registry *session.Registry, resolver audio.Resolver, players audio.PlayerFactory, notifier Notifier, opts ...Option) *Controller {
	c := &Controller{
		ctx:         context.Background(),
		registry:    registry,
		resolver:    resolver,
		players:     players,
		notifier:    notifier,
		volume:      1,
		maxFailures: defaultMaxFailureStreak,
		intn:        rand.IntN,
		dispatch:    func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Play starts tracks[index] on s. An out of range index, or EndOfQueue, tears
// the session down. Tracks that fail to resolve are skipped the way a natural
// end would move the cursor, until the failure streak forces an end.
func (c *Controller) Play(ctx context.Context, s *session.Session, index int) {
	for {
		if s.Closed() {
			return
		}
		track, ok := s.Track(index)
		if !ok {
			c.Teardown(ctx, s, ReasonFinished)
			return
		}

		tok := s.Begin()
		logger := log.With().Str("guild", s.GuildID).Str("request", tok.String()).Int("index", index).Logger()

		p, err := c.ensurePlayer(s)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to prepare audio player")
		}

		var resolved audio.Resolved
		if err == nil {
			logger.Info().Str("url", track.URL).Int("queue_len", s.Len()).Msg("Resolving track")
			resolved, err = c.resolver.Resolve(ctx, track.URL)
		}
		if !s.IsCurrent(tok) {
			logger.Debug().Msg("Request superseded, dropping result")
			return
		}

		if err == nil {
			p.OnceIdle(func() {
				c.dispatch(func() { c.trackEnded(s, tok) })
			})
			err = p.Play(audio.Source{StreamURL: resolved.StreamURL, Title: resolved.Title, Volume: c.volume})
			if err != nil {
				p.RemoveAllListeners()
			}
		}

		if err != nil {
			logger.Warn().Err(err).Str("url", track.URL).Msg("Skipping track")
			next, ok := c.afterFailure(s, tok, index)
			if !ok {
				return
			}
			index = next
			continue
		}

		if !s.Started(tok, index, resolved.Title) {
			logger.Debug().Msg("Request superseded after start")
			return
		}
		np, _ := s.CurrentTrack()
		logger.Info().Str("title", np.Title).Msg("Now playing")
		c.announce(ctx, s, np)
		return
	}
}

// Advance moves s by a manual trigger. The cursor is left untouched when the
// target is out of range.
func (c *Controller) Advance(ctx context.Context, s *session.Session, trigger session.Trigger) error {
	next, err := s.Next(trigger, c.intn)
	if err != nil {
		return err
	}
	c.Play(ctx, s, next)
	return nil
}

// Teardown releases everything the session owns and removes it from the
// registry. Only the first call for a session has any effect.
func (c *Controller) Teardown(ctx context.Context, s *session.Session, reason Reason) {
	if !s.Close() {
		return
	}
	logger := log.With().Str("guild", s.GuildID).Str("reason", reason.String()).Logger()
	logger.Info().Msg("Tearing down session")

	if c.panel != nil {
		c.panel.Clear(ctx, s)
	}

	if p := s.Player(); p != nil {
		p.RemoveAllListeners()
		p.Stop(true)
	}

	if conn := s.Connection(); conn != nil && conn.Status() != audio.ConnectionDestroyed {
		if err := conn.Destroy(); err != nil {
			logger.Error().Err(err).Msg("Failed to leave voice channel")
		}
	}

	if reason == ReasonFinished {
		if err := c.notifier.Notify(ctx, s.TextChannelID, "✅ Playlist finished, leaving the voice channel."); err != nil {
			logger.Warn().Err(err).Msg("Failed to send completion notice")
		}
	}

	c.registry.Remove(s)
}

func (c *Controller) trackEnded(s *session.Session, tok uuid.UUID) {
	if !s.IsCurrent(tok) {
		return
	}
	next, err := s.Next(session.NaturalEnd, c.intn)
	if errors.Is(err, session.ErrEndOfQueue) {
		c.Teardown(c.ctx, s, ReasonFinished)
		return
	}
	c.Play(c.ctx, s, next)
}

// afterFailure picks the index to try after index failed. LoopOne advances
// like LoopAll so a broken repeat track does not spin.
func (c *Controller) afterFailure(s *session.Session, tok uuid.UUID, index int) (int, bool) {
	streak, ok := s.Failed(tok)
	if !ok {
		return 0, false
	}

	length := s.Len()
	if streak >= min(length, c.maxFailures) {
		log.Warn().Str("guild", s.GuildID).Int("streak", streak).Msg("Too many consecutive failures, ending playback")
		return EndOfQueue, true
	}

	mode := s.Mode()
	if mode == session.LoopOne {
		mode = session.LoopAll
	}
	next, err := session.NextIndex(index, length, mode, session.NaturalEnd, c.intn)
	if err != nil {
		return EndOfQueue, true
	}
	return next, true
}

// ensurePlayer returns the session's player with no listeners left from the
// previous track, creating and subscribing one if needed.
func (c *Controller) ensurePlayer(s *session.Session) (audio.Player, error) {
	if p := s.Player(); p != nil {
		p.RemoveAllListeners()
		return p, nil
	}

	p := c.players.NewPlayer(audio.Behavior{StopOnNoSubscriber: true})
	s.SetPlayer(p)
	if conn := s.Connection(); conn != nil {
		if err := conn.Subscribe(p); err != nil {
			s.SetPlayer(nil)
			return nil, fmt.Errorf("failed to subscribe player: %w", err)
		}
	}
	return p, nil
}

func (c *Controller) announce(ctx context.Context, s *session.Session, np session.NowPlaying) {
	if err := c.notifier.Notify(ctx, s.TextChannelID, fmt.Sprintf("▶️ Now playing: **%s**", np.Title)); err != nil {
		log.Warn().Err(err).Str("guild", s.GuildID).Msg("Failed to announce track")
	}
	if c.history != nil {
		if err := c.history.AppendTrackToHistory(s.GuildID, np.Title, np.URL); err != nil {
			log.Warn().Err(err).Str("guild", s.GuildID).Msg("Failed to record track history")
		}
	}
	if c.panel != nil {
		c.panel.Refresh(ctx, s)
	}
}
