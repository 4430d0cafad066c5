package panel

import (
	"fmt"

	"server-jukebox/internal/music/session"
)

// Button identifiers recognised by the gateway.
const (
	ButtonPrev        = "prev_song"
	ButtonNext        = "next_song"
	ButtonTogglePause = "toggle_pause"
	ButtonSwitchMode  = "switch_playmode"
	ButtonDelete      = "delete_playlist"
	ButtonConfirm     = "confirm_delete"
	ButtonCancel      = "cancel_delete"
)

type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota + 1
	StyleSecondary
	StyleSuccess
	StyleDanger
)

type Button struct {
	ID    string
	Label string
	Style ButtonStyle
}

// View is the platform neutral rendering of a control panel.
type View struct {
	Title       string
	NowPlaying  string
	ModeLabel   string
	Position    int
	QueueLength int
	Paused      bool
	Footer      string
	Rows        [][]Button
}

const unknownTitle = "Unknown track"

// BuildView renders snap into a panel view.
func BuildView(snap session.Snapshot) View {
	title := unknownTitle
	if snap.Current != nil && snap.Current.Title != "" {
		title = snap.Current.Title
	}

	pauseLabel := "⏯ Pause/Resume"
	if snap.Paused {
		pauseLabel = "▶️ Resume"
	}

	return View{
		Title:       "🎶 Playback Panel",
		NowPlaying:  title,
		ModeLabel:   snap.Mode.String(),
		Position:    snap.Cursor + 1,
		QueueLength: len(snap.Tracks),
		Paused:      snap.Paused,
		Footer:      "Use the buttons to control playback",
		Rows: [][]Button{
			{
				{ID: ButtonPrev, Label: "⏮ Previous", Style: StyleSecondary},
				{ID: ButtonTogglePause, Label: pauseLabel, Style: StylePrimary},
				{ID: ButtonNext, Label: "⏭ Next", Style: StyleSecondary},
				{ID: ButtonSwitchMode, Label: fmt.Sprintf("%s %s", snap.Mode.StringEmoji(), snap.Mode), Style: StyleSuccess},
			},
			{
				{ID: ButtonDelete, Label: "❌ Delete Playlist", Style: StyleDanger},
			},
		},
	}
}

// ConfirmRow is attached to the delete confirmation prompt.
func ConfirmRow() []Button {
	return []Button{
		{ID: ButtonConfirm, Label: "✅ Confirm", Style: StyleDanger},
		{ID: ButtonCancel, Label: "❌ Cancel", Style: StyleSecondary},
	}
}
