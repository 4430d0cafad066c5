package source_resolver

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrMalformedURL = errors.New("malformed URL")
	ErrNotVideoURL  = errors.New("not a YouTube video URL")
)

var videoID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// NormalizeYouTubeURL reduces a YouTube watch or youtu.be link to
// https://www.youtube.com/watch?v=<id>, dropping playlist and timestamp params.
func NormalizeYouTubeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformedURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, raw)
	}

	var id string
	switch strings.ToLower(u.Hostname()) {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrNotVideoURL, raw)
	}

	if !videoID.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrNotVideoURL, raw)
	}
	return "https://www.youtube.com/watch?v=" + id, nil
}

// extractYouTubeID returns the id of a normalized watch URL.
func extractYouTubeID(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, raw)
	}
	if strings.EqualFold(u.Hostname(), "youtu.be") {
		return strings.Trim(u.Path, "/"), nil
	}
	id := u.Query().Get("v")
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrNotVideoURL, raw)
	}
	return id, nil
}
