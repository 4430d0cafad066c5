// Package discord wires gateway events to the jukebox.
package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-jukebox/internal/music/jukebox"
	"server-jukebox/internal/storage"
)

// Bot is a Discord bot
type Bot struct {
	dg      *discordgo.Session
	jukebox *jukebox.Jukebox
	storage *storage.Storage
	prefix  string
	ctx     context.Context
}

func New(dg *discordgo.Session, jb *jukebox.Jukebox, store *storage.Storage, prefix string) *Bot {
	return &Bot{
		dg:      dg,
		jukebox: jb,
		storage: store,
		prefix:  prefix,
		ctx:     context.Background(),
	}
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Info().Msg("❎ Shutdown signal received. Cleaning up...")
	return nil
}

// configureIntents configures the Discord intents
func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("✅ Discord bot is running")
}

// onMessageCreate handles text commands and keeps the panel below the
// latest user message.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	if name, arg, ok := parseCommand(b.prefix, m.Content); ok {
		b.runCommand(s, m.Message, name, arg)
	}
	b.jukebox.RepostPanel(b.ctx, m.GuildID, m.ChannelID)
}

// onInteractionCreate routes panel button presses.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" {
		return
	}
	customID := i.MessageComponentData().CustomID
	log.Debug().Str("guild", i.GuildID).Str("button", customID).Msg("Processing component interaction")

	if err := b.handleButton(s, i, customID); err != nil {
		log.Error().Err(err).Str("guild", i.GuildID).Str("button", customID).Msg("Failed to answer interaction")
	}
}

// findUserVoiceChannel returns the voice channel userID sits in, or "".
func (b *Bot) findUserVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("Error retrieving guild")
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}

func (b *Bot) logCommand(s *discordgo.Session, guildID, channelID string, user *discordgo.User, command, param string) {
	if b.storage == nil || user == nil {
		return
	}
	if err := LogCommand(s, b.storage, guildID, channelID, user.ID, user.Username, command, param); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("Failed to log command")
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func parseCommand(prefix, content string) (name, arg string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", "", false
	}
	name = strings.ToLower(fields[0])
	if len(fields) > 1 {
		arg = fields[1]
	}
	return name, arg, true
}
