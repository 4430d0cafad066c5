package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-jukebox/internal/music/jukebox"
	"server-jukebox/internal/music/panel"
	"server-jukebox/internal/music/session"
)

func (b *Bot) handleButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) error {
	guildID := i.GuildID
	// Logging may hit the REST API; answer the interaction first.
	defer b.logCommand(s, guildID, i.ChannelID, interactionUser(i), customID, "")

	switch customID {
	case panel.ButtonTogglePause:
		res, err := b.jukebox.RequestTogglePause(b.ctx, guildID)
		switch {
		case err != nil:
			return RespondEphemeral(s, i, errorReply(err))
		case res == jukebox.Paused:
			return RespondEphemeral(s, i, "⏸ Playback paused")
		default:
			return RespondEphemeral(s, i, "▶️ Playback resumed")
		}

	case panel.ButtonPrev, panel.ButtonNext:
		trigger := session.ManualNext
		if customID == panel.ButtonPrev {
			trigger = session.ManualPrev
		}
		if err := RespondDeferredUpdate(s, i); err != nil {
			return err
		}
		if err := b.jukebox.RequestNavigate(b.ctx, guildID, trigger); err != nil {
			return FollowupEphemeral(s, i, errorReply(err))
		}
		return nil

	case panel.ButtonSwitchMode:
		if err := RespondDeferredUpdate(s, i); err != nil {
			return err
		}
		mode, err := b.jukebox.RequestModeSwitch(b.ctx, guildID)
		if err != nil {
			return FollowupEphemeral(s, i, errorReply(err))
		}
		log.Debug().Str("guild", guildID).Str("mode", mode.String()).Msg("Mode switched from panel")
		return nil

	case panel.ButtonDelete:
		if err := b.jukebox.RequestDelete(guildID); err != nil {
			return RespondEphemeral(s, i, errorReply(err))
		}
		return RespondEphemeralWithComponents(s, i, "⚠ Are you sure you want to delete the current playlist?", actionRows(panel.ConfirmRow()))

	case panel.ButtonConfirm:
		if err := b.jukebox.ConfirmDelete(b.ctx, guildID); err != nil && !errors.Is(err, jukebox.ErrNoSession) {
			return RespondUpdate(s, i, errorReply(err))
		}
		return RespondUpdate(s, i, "✅ Playlist deleted, left the voice channel.")

	case panel.ButtonCancel:
		if err := b.jukebox.CancelDelete(guildID); err != nil && !errors.Is(err, jukebox.ErrNoSession) {
			return RespondUpdate(s, i, errorReply(err))
		}
		return RespondUpdate(s, i, "❌ Deletion canceled.")

	default:
		log.Warn().Str("button", customID).Msg("No matching component for customID")
		return nil
	}
}
