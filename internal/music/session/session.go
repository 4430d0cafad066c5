package session

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"server-jukebox/internal/music/audio"
)

// NoCursor marks a session that has not started its first track yet.
const NoCursor = -1

// Session is the playback state of one guild. All fields are guarded by mu;
// the identifiers are fixed at construction.
type Session struct {
	GuildID        string
	TextChannelID  string
	VoiceChannelID string

	mu            sync.Mutex
	tracks        []Track
	cursor        int
	mode          Mode
	conn          audio.Connection
	player        audio.Player
	panelRef      string
	current       *NowPlaying
	token         uuid.UUID
	failStreak    int
	deletePending bool
	closed        bool

	panelSlot *semaphore.Weighted
}

// Snapshot is a consistent, copied view of a session.
type Snapshot struct {
	GuildID  string
	Tracks   []Track
	Cursor   int
	Mode     Mode
	Current  *NowPlaying
	PanelRef string
	Paused   bool
}

func New(guildID, textChannelID, voiceChannelID string) *Session {
	return &Session{
		GuildID:        guildID,
		TextChannelID:  textChannelID,
		VoiceChannelID: voiceChannelID,
		cursor:         NoCursor,
		mode:           Sequential,
		panelSlot:      semaphore.NewWeighted(1),
	}
}

// Append enqueues t and returns the new queue length. A closed session
// accepts nothing and reports false.
func (s *Session) Append(t Track) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return len(s.tracks), false
	}
	s.tracks = append(s.tracks, t)
	return len(s.tracks), true
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// Track returns the track at index i.
func (s *Session) Track(i int) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.tracks) {
		return Track{}, false
	}
	return s.tracks[i], true
}

func (s *Session) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tracks)
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// CycleMode advances to the next mode and returns it.
func (s *Session) CycleMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = s.mode.Next()
	return s.mode
}

// CurrentTrack reports the track on air, if any.
func (s *Session) CurrentTrack() (NowPlaying, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return NowPlaying{}, false
	}
	return *s.current, true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		GuildID:  s.GuildID,
		Tracks:   slices.Clone(s.tracks),
		Cursor:   s.cursor,
		Mode:     s.mode,
		PanelRef: s.panelRef,
	}
	if s.current != nil {
		np := *s.current
		snap.Current = &np
	}
	if s.player != nil {
		snap.Paused = s.player.Status() == audio.StatusPaused
	}
	return snap
}

// Next asks the advancement engine where trigger leads from the current cursor.
func (s *Session) Next(trigger Trigger, intn func(int) int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NextIndex(s.cursor, len(s.tracks), s.mode, trigger, intn)
}

func (s *Session) Connection() audio.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) SetConnection(c audio.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = c
}

func (s *Session) Player() audio.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

func (s *Session) SetPlayer(p audio.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = p
}

// Begin mints a new request token. Anything holding an older token is stale.
func (s *Session) Begin() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = uuid.New()
	return s.token
}

// IsCurrent reports whether tok still identifies the active request.
func (s *Session) IsCurrent(tok uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.token == tok
}

// Started records a successful start for tok. It returns false, changing
// nothing, when tok has been superseded.
func (s *Session) Started(tok uuid.UUID, index int, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.token != tok || index < 0 || index >= len(s.tracks) {
		return false
	}
	if title != "" {
		s.tracks[index].Title = title
	}
	s.cursor = index
	s.current = &NowPlaying{Title: s.tracks[index].DisplayTitle(), URL: s.tracks[index].URL}
	s.failStreak = 0
	return true
}

// Failed bumps the consecutive failure streak for tok and returns it.
func (s *Session) Failed(tok uuid.UUID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.token != tok {
		return 0, false
	}
	s.failStreak++
	return s.failStreak, true
}

func (s *Session) PanelRef() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelRef, s.panelRef != ""
}

// SetPanelRefIfOpen records ref unless the session has been closed. The
// caller owns a rejected message and must delete it.
func (s *Session) SetPanelRefIfOpen(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.panelRef = ref
	return true
}

// TakePanelRef clears the panel reference and returns what it held.
func (s *Session) TakePanelRef() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := s.panelRef
	s.panelRef = ""
	return ref, ref != ""
}

// TryAcquirePanel takes the single panel slot without waiting.
func (s *Session) TryAcquirePanel() bool {
	return s.panelSlot.TryAcquire(1)
}

func (s *Session) ReleasePanel() {
	s.panelSlot.Release(1)
}

func (s *Session) MarkDeletePending(pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletePending = pending
}

// TakeDeletePending reports whether a delete was requested and clears the
// request.
func (s *Session) TakeDeletePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.deletePending
	s.deletePending = false
	return pending
}

// Close marks the session as torn down. Only the first call returns true.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.token = uuid.Nil
	s.current = nil
	return true
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
