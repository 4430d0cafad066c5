package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"server-jukebox/internal/music/jukebox"
	"server-jukebox/internal/music/panel"
	"server-jukebox/internal/storage"
)

// maxMessageLen keeps listings under Discord's 2000 character cap.
const maxMessageLen = 1900

func panelEmbed(v panel.View) *discordgo.MessageEmbed {
	status := "▶️ Playing"
	if v.Paused {
		status = "⏸ Paused"
	}
	return embed.NewEmbed().
		SetColor(EmbedColor).
		SetTitle(v.Title).
		SetDescription(fmt.Sprintf("**%s**", v.NowPlaying)).
		AddField("Status", status).
		AddField("Mode", v.ModeLabel).
		AddField("Track", fmt.Sprintf("%d / %d", v.Position, v.QueueLength)).
		InlineAllFields().
		SetFooter(v.Footer).
		MessageEmbed
}

func buttonStyle(s panel.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case panel.StylePrimary:
		return discordgo.PrimaryButton
	case panel.StyleSuccess:
		return discordgo.SuccessButton
	case panel.StyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.SecondaryButton
	}
}

func actionRows(rows ...[]panel.Button) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Style),
				CustomID: b.ID,
			})
		}
		out = append(out, discordgo.ActionsRow{Components: buttons})
	}
	return out
}

func formatQueue(entries []jukebox.QueueEntry) string {
	var sb strings.Builder
	sb.WriteString("🎶 **Playlist**\n")
	for n, e := range entries {
		var line string
		if e.Current {
			line = fmt.Sprintf("▶️ Now playing: %s\n", e.Track.DisplayTitle())
		} else {
			line = fmt.Sprintf("%d. %s\n", e.Index, e.Track.URL)
		}
		if sb.Len()+len(line) > maxMessageLen {
			fmt.Fprintf(&sb, "…and %d more", len(entries)-n)
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func formatHistory(records []storage.TrackHistoryRecord) string {
	if len(records) == 0 {
		return "No tracks have been played yet."
	}
	var sb strings.Builder
	sb.WriteString("📜 **Recently played**\n")
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		fmt.Fprintf(&sb, "%d. **%s** <%s>\n", len(records)-i, r.Title, r.URL)
	}
	return sb.String()
}

func formatCommandHistory(records []storage.CommandHistoryRecord) string {
	if len(records) == 0 {
		return "No commands have been used yet."
	}
	var sb strings.Builder
	sb.WriteString("📜 **Recent commands**\n")
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		line := fmt.Sprintf("`%s` %s by %s", r.Datetime.Format("2006-01-02 15:04"), r.Command, r.Username)
		if r.Param != "" {
			line += " <" + r.Param + ">"
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func playReply(res jukebox.PlayResult) string {
	if res.Created {
		return "🎵 Added to the playlist, starting playback!"
	}
	return fmt.Sprintf("✅ Added to the playlist! Queue length: %d", res.QueueLength)
}

// errorReply maps façade errors to what users see.
func errorReply(err error) string {
	switch {
	case errors.Is(err, jukebox.ErrMalformedURL):
		return "Please provide a correctly formatted URL!"
	case errors.Is(err, jukebox.ErrNotVideoURL):
		return "That doesn't look like a valid YouTube video URL."
	case errors.Is(err, jukebox.ErrNotInVoice):
		return "You need to join a voice channel first!"
	case errors.Is(err, jukebox.ErrJoinFailed):
		return "Could not join the voice channel!"
	case errors.Is(err, jukebox.ErrNoSession):
		return "There is no playlist."
	case errors.Is(err, jukebox.ErrNoPrevious):
		return "⚠️ There is no previous track."
	case errors.Is(err, jukebox.ErrNoNext):
		return "⚠️ There is no next track."
	case errors.Is(err, jukebox.ErrNothingPlaying):
		return "⚠️ Nothing is playing."
	case errors.Is(err, jukebox.ErrSessionEnding):
		return "⏳ The playlist is shutting down, try again in a moment."
	case errors.Is(err, jukebox.ErrNoDeleteRequest):
		return "⚠️ This confirmation has expired, press ❌ Delete Playlist again."
	default:
		return "Something went wrong."
	}
}
