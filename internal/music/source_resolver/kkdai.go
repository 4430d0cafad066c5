package source_resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/kkdai/youtube/v2"

	"server-jukebox/internal/music/audio"
)

// KKDai resolves with the pure Go YouTube client. It is the fallback when
// yt-dlp is missing or broken.
type KKDai struct {
	client *youtube.Client
}

func NewKKDai() *KKDai { return &KKDai{client: &youtube.Client{}} }

func (k *KKDai) Resolve(ctx context.Context, rawURL string) (audio.Resolved, error) {
	id, err := extractYouTubeID(rawURL)
	if err != nil {
		return audio.Resolved{}, err
	}
	video, err := k.client.GetVideoContext(ctx, id)
	if err != nil {
		return audio.Resolved{}, fmt.Errorf("kkdai: youtube client error: %w", err)
	}

	formats := audioOnly(video.Formats.WithAudioChannels())
	if len(formats) == 0 {
		return audio.Resolved{}, fmt.Errorf("kkdai: %w", audio.ErrNoAudioStream)
	}
	link, err := k.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return audio.Resolved{}, fmt.Errorf("kkdai: get stream URL error: %w", err)
	}
	return audio.Resolved{Title: video.Title, StreamURL: link}, nil
}

func audioOnly(in youtube.FormatList) youtube.FormatList {
	var out youtube.FormatList
	for _, f := range in {
		if strings.HasPrefix(f.MimeType, "audio/") {
			out = append(out, f)
		}
	}
	return out
}
