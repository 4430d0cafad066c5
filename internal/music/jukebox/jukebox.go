// Package jukebox is the entry point for user requests against a guild's
// playback session. Handlers validate preconditions, mutate the session and
// delegate to the controller and panel synchronizer.
package jukebox

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"server-jukebox/internal/music/audio"
	"server-jukebox/internal/music/panel"
	"server-jukebox/internal/music/player"
	"server-jukebox/internal/music/session"
	"server-jukebox/internal/music/source_resolver"
)

var (
	ErrNoSession       = errors.New("no playlist in this server")
	ErrNotInVoice      = errors.New("join a voice channel first")
	ErrJoinFailed      = errors.New("could not join the voice channel")
	ErrNothingPlaying  = errors.New("nothing is playing")
	ErrSessionEnding   = errors.New("the playlist is shutting down")
	ErrNoDeleteRequest = errors.New("no delete was requested")
	ErrMalformedURL    = source_resolver.ErrMalformedURL
	ErrNotVideoURL     = source_resolver.ErrNotVideoURL
	ErrNoPrevious      = session.ErrNoPrevious
	ErrNoNext          = session.ErrNoNext
)

type PlayRequest struct {
	GuildID        string
	URL            string
	VoiceChannelID string
	TextChannelID  string
}

type PlayResult struct {
	// Created is true when the request opened a new session.
	Created     bool
	Track       session.Track
	QueueLength int
}

type PauseResult int

const (
	Paused PauseResult = iota + 1
	Resumed
)

// QueueEntry is one row of a queue listing.
type QueueEntry struct {
	Index   int
	Track   session.Track
	Current bool
}

type Jukebox struct {
	registry   *session.Registry
	controller *player.Controller
	panel      *panel.Synchronizer
	transport  audio.Transport
	dispatch   func(func())
}

type Option func(*Jukebox)

// WithDispatch sets how playback of a freshly created session is started.
// The default runs it on its own goroutine so the requester is answered
// before resolution finishes.
func WithDispatch(d func(func())) Option { return func(j *Jukebox) { j.dispatch = d } }

func New(registry *session.Registry, controller *player.Controller, sync *panel.Synchronizer, transport audio.Transport, opts ...Option) *Jukebox {
	j := &Jukebox{
		registry:   registry,
		controller: controller,
		panel:      sync,
		transport:  transport,
		dispatch:   func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// RequestPlay enqueues req.URL, opening a session and joining voice when the
// guild has none.
func (j *Jukebox) RequestPlay(ctx context.Context, req PlayRequest) (PlayResult, error) {
	url, err := source_resolver.NormalizeYouTubeURL(req.URL)
	if err != nil {
		return PlayResult{}, err
	}
	if req.VoiceChannelID == "" {
		return PlayResult{}, ErrNotInVoice
	}
	track := session.Track{URL: url}

	if s, ok := j.registry.Get(req.GuildID); ok {
		return j.enqueue(ctx, s, track)
	}

	s, created, err := j.registry.GetOrCreate(req.GuildID, func() (*session.Session, error) {
		log.Info().Str("guild", req.GuildID).Msg("Creating playback session")
		conn, err := j.transport.Join(ctx, req.GuildID, req.VoiceChannelID)
		if err != nil {
			log.Error().Err(err).Str("guild", req.GuildID).Msg("Failed to join voice channel")
			return nil, fmt.Errorf("%w: %w", ErrJoinFailed, err)
		}
		s := session.New(req.GuildID, req.TextChannelID, req.VoiceChannelID)
		s.SetConnection(conn)
		s.Append(track)
		return s, nil
	})
	if err != nil {
		return PlayResult{}, err
	}
	if !created {
		return j.enqueue(ctx, s, track)
	}

	j.dispatch(func() { j.controller.Play(context.WithoutCancel(ctx), s, 0) })
	return PlayResult{Created: true, Track: track, QueueLength: 1}, nil
}

// enqueue appends t to a live session. A session that is being torn down
// is still registered until teardown finishes; requests against it get
// ErrSessionEnding so the caller can retry.
func (j *Jukebox) enqueue(ctx context.Context, s *session.Session, t session.Track) (PlayResult, error) {
	n, ok := s.Append(t)
	if !ok {
		log.Info().Str("guild", s.GuildID).Str("url", t.URL).Msg("Session is shutting down, rejecting track")
		return PlayResult{}, ErrSessionEnding
	}
	log.Info().Str("guild", s.GuildID).Str("url", t.URL).Int("queue_len", n).Msg("Track added to queue")
	j.syncPanel(ctx, s, panel.ModeEdit)
	return PlayResult{Track: t, QueueLength: n}, nil
}

// RequestNavigate plays the previous or next track. Out of range requests
// return ErrNoPrevious or ErrNoNext and change nothing.
func (j *Jukebox) RequestNavigate(ctx context.Context, guildID string, trigger session.Trigger) error {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	if trigger != session.ManualPrev && trigger != session.ManualNext {
		return fmt.Errorf("unsupported navigation trigger: %s", trigger)
	}
	return j.controller.Advance(ctx, s, trigger)
}

// RequestModeSwitch cycles the playback mode and returns the new one.
func (j *Jukebox) RequestModeSwitch(ctx context.Context, guildID string) (session.Mode, error) {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return session.Sequential, ErrNoSession
	}
	mode := s.CycleMode()
	log.Info().Str("guild", guildID).Str("mode", mode.String()).Msg("Playback mode switched")
	j.syncPanel(ctx, s, panel.ModeEdit)
	return mode, nil
}

// RequestTogglePause pauses a playing track or resumes a paused one.
func (j *Jukebox) RequestTogglePause(ctx context.Context, guildID string) (PauseResult, error) {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return 0, ErrNoSession
	}
	p := s.Player()
	if p == nil {
		return 0, ErrNothingPlaying
	}

	var res PauseResult
	switch p.Status() {
	case audio.StatusPlaying:
		if !p.Pause() {
			return 0, ErrNothingPlaying
		}
		res = Paused
	case audio.StatusPaused:
		if !p.Unpause() {
			return 0, ErrNothingPlaying
		}
		res = Resumed
	default:
		return 0, ErrNothingPlaying
	}
	j.syncPanel(ctx, s, panel.ModeEdit)
	return res, nil
}

// RequestDelete starts the delete confirmation flow.
func (j *Jukebox) RequestDelete(guildID string) error {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	s.MarkDeletePending(true)
	return nil
}

// ConfirmDelete stops playback, leaves voice and drops the session. It
// requires a prior RequestDelete.
func (j *Jukebox) ConfirmDelete(ctx context.Context, guildID string) error {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	if !s.TakeDeletePending() {
		return ErrNoDeleteRequest
	}
	j.controller.Teardown(ctx, s, player.ReasonCanceled)
	return nil
}

func (j *Jukebox) CancelDelete(guildID string) error {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	s.MarkDeletePending(false)
	return nil
}

// Queue lists the guild's tracks, marking the cursor.
func (j *Jukebox) Queue(guildID string) ([]QueueEntry, error) {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return nil, ErrNoSession
	}
	snap := s.Snapshot()
	if len(snap.Tracks) == 0 {
		return nil, ErrNoSession
	}

	entries := make([]QueueEntry, len(snap.Tracks))
	for i, t := range snap.Tracks {
		entries[i] = QueueEntry{Index: i, Track: t, Current: i == snap.Cursor}
		if entries[i].Current && snap.Current != nil {
			entries[i].Track.Title = snap.Current.Title
		}
	}
	return entries, nil
}

func (j *Jukebox) NowPlaying(guildID string) (session.NowPlaying, error) {
	s, ok := j.registry.Get(guildID)
	if !ok {
		return session.NowPlaying{}, ErrNothingPlaying
	}
	np, ok := s.CurrentTrack()
	if !ok {
		return session.NowPlaying{}, ErrNothingPlaying
	}
	return np, nil
}

// RepostPanel re-creates the guild's panel so it sits below the latest
// message in channelID. It is a no-op unless channelID is the session's text
// channel.
func (j *Jukebox) RepostPanel(ctx context.Context, guildID, channelID string) {
	s, ok := j.registry.Get(guildID)
	if !ok || s.Len() == 0 || s.TextChannelID != channelID {
		return
	}
	j.syncPanel(ctx, s, panel.ModeCreate)
}

// Shutdown tears down every session, leaving all voice channels.
func (j *Jukebox) Shutdown(ctx context.Context) {
	for _, s := range j.registry.Sessions() {
		j.controller.Teardown(ctx, s, player.ReasonCanceled)
	}
}

func (j *Jukebox) syncPanel(ctx context.Context, s *session.Session, mode panel.Mode) {
	if _, err := j.panel.Sync(ctx, s, mode); err != nil {
		log.Warn().Err(err).Str("guild", s.GuildID).Msg("Failed to update panel")
	}
}
