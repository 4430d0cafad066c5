package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-jukebox/internal/music/panel"
)

// Messenger posts panels and notices through the REST API.
type Messenger struct {
	dg *discordgo.Session
}

func NewMessenger(dg *discordgo.Session) *Messenger {
	return &Messenger{dg: dg}
}

func (m *Messenger) Send(ctx context.Context, channelID string, v panel.View) (string, error) {
	msg, err := m.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{panelEmbed(v)},
		Components: actionRows(v.Rows...),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return msg.ID, nil
}

func (m *Messenger) Edit(ctx context.Context, channelID, messageID string, v panel.View) error {
	embeds := []*discordgo.MessageEmbed{panelEmbed(v)}
	components := actionRows(v.Rows...)
	_, err := m.dg.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (m *Messenger) Delete(ctx context.Context, channelID, messageID string) error {
	return m.dg.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// Notify sends a plain text notice.
func (m *Messenger) Notify(ctx context.Context, channelID, content string) error {
	_, err := m.dg.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}
