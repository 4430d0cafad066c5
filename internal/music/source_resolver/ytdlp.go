package source_resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"server-jukebox/internal/music/audio"
)

const audioOnlyFormat = "bestaudio[vcodec=none]"

// YTDLP resolves through the yt-dlp executable.
type YTDLP struct{}

func NewYTDLP() *YTDLP { return &YTDLP{} }

func (y *YTDLP) Resolve(ctx context.Context, rawURL string) (audio.Resolved, error) {
	res, err := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		Format(audioOnlyFormat).
		Print("%(title)s\t%(url)s").
		Run(ctx, "--no-playlist", "--skip-download", rawURL)
	if err != nil {
		if res != nil && strings.Contains(strings.ToLower(res.Stderr), "requested format is not available") {
			return audio.Resolved{}, fmt.Errorf("yt-dlp: %w", audio.ErrNoAudioStream)
		}
		return audio.Resolved{}, fmt.Errorf("yt-dlp: %w", err)
	}
	return parsePrinted(res.Stdout)
}

// parsePrinted reads the first "title\turl" line printed by yt-dlp.
func parsePrinted(out string) (audio.Resolved, error) {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		title, link, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if !ok || !strings.HasPrefix(link, "http") {
			continue
		}
		return audio.Resolved{Title: strings.TrimSpace(title), StreamURL: strings.TrimSpace(link)}, nil
	}
	return audio.Resolved{}, fmt.Errorf("yt-dlp: %w", audio.ErrNoAudioStream)
}
