package session

// Track is a queued source URL. Title stays empty until the track is resolved.
type Track struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// NowPlaying caches the track that is currently on air.
type NowPlaying struct {
	Title string
	URL   string
}

// DisplayTitle falls back to the URL for tracks that never resolved.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.URL
}
