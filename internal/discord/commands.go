package discord

import (
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-jukebox/internal/music/jukebox"
)

const (
	commandPlay       = "play"
	commandQueue      = "queue"
	commandNowPlaying = "nowplaying"
	commandHistory    = "history"

	historyCommands = "commands"
)

func (b *Bot) runCommand(s *discordgo.Session, m *discordgo.Message, name, arg string) {
	var reply string
	switch name {
	case commandPlay:
		reply = b.play(s, m, arg)
	case commandQueue:
		reply = b.queue(m.GuildID)
	case commandNowPlaying:
		reply = b.nowPlaying(m.GuildID)
	case commandHistory:
		reply = b.history(m.GuildID, arg)
	default:
		return
	}
	b.logCommand(s, m.GuildID, m.ChannelID, m.Author, name, arg)

	if err := Reply(s, m, reply); err != nil {
		log.Error().Err(err).Str("guild", m.GuildID).Str("command", name).Msg("Failed to reply")
	}
}

func (b *Bot) play(s *discordgo.Session, m *discordgo.Message, url string) string {
	if url == "" {
		return "Please provide a YouTube URL!"
	}
	res, err := b.jukebox.RequestPlay(b.ctx, jukebox.PlayRequest{
		GuildID:        m.GuildID,
		URL:            url,
		VoiceChannelID: b.findUserVoiceChannel(s, m.GuildID, m.Author.ID),
		TextChannelID:  m.ChannelID,
	})
	if err != nil {
		log.Info().Err(err).Str("guild", m.GuildID).Str("url", url).Msg("Play request rejected")
		return errorReply(err)
	}
	return playReply(res)
}

func (b *Bot) queue(guildID string) string {
	entries, err := b.jukebox.Queue(guildID)
	if err != nil {
		return "The playlist is empty."
	}
	return formatQueue(entries)
}

func (b *Bot) nowPlaying(guildID string) string {
	np, err := b.jukebox.NowPlaying(guildID)
	if errors.Is(err, jukebox.ErrNothingPlaying) {
		return "Nothing is playing right now."
	}
	return "🎧 Now playing: **" + np.Title + "**\n" + np.URL
}

// history lists played tracks, or recent commands with "commands".
func (b *Bot) history(guildID, arg string) string {
	if strings.EqualFold(arg, historyCommands) {
		if b.storage == nil {
			return formatCommandHistory(nil)
		}
		records, err := b.storage.FetchCommandHistory(guildID)
		if err != nil {
			log.Error().Err(err).Str("guild", guildID).Msg("Failed to fetch command history")
			return errorReply(err)
		}
		return formatCommandHistory(records)
	}

	if b.storage == nil {
		return formatHistory(nil)
	}
	records, err := b.storage.FetchTrackHistory(guildID)
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to fetch track history")
		return errorReply(err)
	}
	return formatHistory(records)
}
