// Package panel keeps a guild's interactive control message in step with its
// playback session.
package panel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"server-jukebox/internal/music/session"
)

// Mode selects how Sync reconciles the panel.
type Mode int

const (
	// ModeCreate posts a fresh panel, deleting the previous one.
	ModeCreate Mode = iota
	// ModeEdit edits the panel in place, creating it if none exists.
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Messenger is the external message resource behind a panel.
type Messenger interface {
	Send(ctx context.Context, channelID string, v View) (string, error)
	Edit(ctx context.Context, channelID, messageID string, v View) error
	Delete(ctx context.Context, channelID, messageID string) error
}

type Synchronizer struct {
	messenger Messenger
}

func New(m Messenger) *Synchronizer {
	return &Synchronizer{messenger: m}
}

// Sync reconciles the panel of s. If another Sync holds the session's panel
// slot the call is dropped and reports false; the next trigger re-syncs.
func (y *Synchronizer) Sync(ctx context.Context, s *session.Session, mode Mode) (bool, error) {
	if !s.TryAcquirePanel() {
		log.Debug().Str("guild", s.GuildID).Str("mode", mode.String()).Msg("Panel update in flight, dropping")
		return false, nil
	}
	defer s.ReleasePanel()

	if s.Closed() {
		return true, nil
	}

	snap := s.Snapshot()
	view := BuildView(snap)

	if mode == ModeEdit && snap.PanelRef != "" {
		if err := y.messenger.Edit(ctx, s.TextChannelID, snap.PanelRef, view); err != nil {
			return true, fmt.Errorf("failed to edit panel: %w", err)
		}
		return true, nil
	}

	if ref, ok := s.TakePanelRef(); ok {
		if err := y.messenger.Delete(ctx, s.TextChannelID, ref); err != nil {
			log.Warn().Err(err).Str("guild", s.GuildID).Msg("Failed to delete previous panel")
		}
	}

	ref, err := y.messenger.Send(ctx, s.TextChannelID, view)
	if err != nil {
		return true, fmt.Errorf("failed to send panel: %w", err)
	}

	// Teardown may have run while the message was in flight.
	if !s.SetPanelRefIfOpen(ref) {
		if err := y.messenger.Delete(ctx, s.TextChannelID, ref); err != nil {
			log.Warn().Err(err).Str("guild", s.GuildID).Msg("Failed to delete orphaned panel")
		}
	}
	return true, nil
}

// Refresh edits the panel in place and logs any failure.
func (y *Synchronizer) Refresh(ctx context.Context, s *session.Session) {
	if _, err := y.Sync(ctx, s, ModeEdit); err != nil {
		log.Warn().Err(err).Str("guild", s.GuildID).Msg("Panel refresh failed")
	}
}

// Clear deletes the panel message and forgets it. Errors are logged only,
// the message may already be gone.
func (y *Synchronizer) Clear(ctx context.Context, s *session.Session) {
	ref, ok := s.TakePanelRef()
	if !ok {
		return
	}
	if err := y.messenger.Delete(ctx, s.TextChannelID, ref); err != nil {
		log.Warn().Err(err).Str("guild", s.GuildID).Str("message", ref).Msg("Failed to delete panel")
	}
}
