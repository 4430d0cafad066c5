package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-jukebox/internal/music/session"
)

type fakeMessenger struct {
	mu       sync.Mutex
	seq      int
	sends    int
	edits    int
	deletes  []string
	inFlight int
	maxIn    int
	sendErr  error
	gate     chan struct{}
	entered  chan struct{}
	last     View
}

func (f *fakeMessenger) enter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxIn {
		f.maxIn = f.inFlight
	}
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
}

func (f *fakeMessenger) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeMessenger) Send(_ context.Context, _ string, v View) (string, error) {
	f.enter()
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.seq++
	f.sends++
	f.last = v
	return fmt.Sprintf("msg-%d", f.seq), nil
}

func (f *fakeMessenger) Edit(_ context.Context, _, _ string, v View) error {
	f.enter()
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	f.last = v
	return nil
}

func (f *fakeMessenger) Delete(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

func playingSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New("guild", "text", "voice")
	s.Append(session.Track{URL: "https://www.youtube.com/watch?v=a"})
	tok := s.Begin()
	require.True(t, s.Started(tok, 0, "Song A"))
	return s
}

func TestSync_CreateReplacesPrevious(t *testing.T) {
	m := &fakeMessenger{}
	y := New(m)
	s := playingSession(t)

	ok, err := y.Sync(context.Background(), s, ModeCreate)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = y.Sync(context.Background(), s, ModeCreate)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 2, m.sends)
	assert.Equal(t, []string{"msg-1"}, m.deletes)
	ref, _ := s.PanelRef()
	assert.Equal(t, "msg-2", ref)
	assert.Equal(t, "Song A", m.last.NowPlaying)
}

func TestSync_EditFallsBackToCreate(t *testing.T) {
	m := &fakeMessenger{}
	y := New(m)
	s := playingSession(t)

	_, err := y.Sync(context.Background(), s, ModeEdit)
	require.NoError(t, err)
	assert.Equal(t, 1, m.sends)
	assert.Equal(t, 0, m.edits)

	s.CycleMode()
	_, err = y.Sync(context.Background(), s, ModeEdit)
	require.NoError(t, err)
	assert.Equal(t, 1, m.sends)
	assert.Equal(t, 1, m.edits)
	assert.Equal(t, session.LoopAll.String(), m.last.ModeLabel)
}

func TestSync_OverlappingCallIsDropped(t *testing.T) {
	m := &fakeMessenger{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	y := New(m)
	s := playingSession(t)

	done := make(chan error, 1)
	go func() {
		_, err := y.Sync(context.Background(), s, ModeCreate)
		done <- err
	}()
	<-m.entered

	ok, err := y.Sync(context.Background(), s, ModeEdit)
	assert.NoError(t, err)
	assert.False(t, ok, "second sync must be dropped while the first is in flight")

	close(m.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, m.maxIn)
	assert.Equal(t, 1, m.sends)

	m.mu.Lock()
	m.gate, m.entered = nil, nil
	m.mu.Unlock()
	ok, err = y.Sync(context.Background(), s, ModeEdit)
	assert.NoError(t, err)
	assert.True(t, ok, "guard must reset after completion")
}

func TestSync_GuardResetsAfterFailure(t *testing.T) {
	m := &fakeMessenger{sendErr: errors.New("gateway down")}
	y := New(m)
	s := playingSession(t)

	_, err := y.Sync(context.Background(), s, ModeCreate)
	assert.Error(t, err)

	m.sendErr = nil
	ok, err := y.Sync(context.Background(), s, ModeCreate)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestSync_TeardownDuringSendDeletesOrphan(t *testing.T) {
	m := &fakeMessenger{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	y := New(m)
	s := playingSession(t)

	done := make(chan error, 1)
	go func() {
		_, err := y.Sync(context.Background(), s, ModeCreate)
		done <- err
	}()
	<-m.entered
	s.Close()
	y.Clear(context.Background(), s)
	close(m.gate)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"msg-1"}, m.deletes)
	_, ok := s.PanelRef()
	assert.False(t, ok)
}

func TestClear_DeletesOnce(t *testing.T) {
	m := &fakeMessenger{}
	y := New(m)
	s := playingSession(t)

	_, err := y.Sync(context.Background(), s, ModeCreate)
	require.NoError(t, err)
	y.Clear(context.Background(), s)
	y.Clear(context.Background(), s)

	assert.Equal(t, []string{"msg-1"}, m.deletes)
}

func TestBuildView(t *testing.T) {
	snap := session.Snapshot{
		Tracks: []session.Track{{URL: "a"}, {URL: "b"}},
		Cursor: 1,
		Mode:   session.Shuffle,
	}
	v := BuildView(snap)
	assert.Equal(t, unknownTitle, v.NowPlaying)
	assert.Equal(t, "Shuffle", v.ModeLabel)
	assert.Equal(t, 2, v.Position)
	assert.Equal(t, 2, v.QueueLength)

	var ids []string
	for _, row := range v.Rows {
		for _, b := range row {
			ids = append(ids, b.ID)
		}
	}
	assert.Equal(t, []string{ButtonPrev, ButtonTogglePause, ButtonNext, ButtonSwitchMode, ButtonDelete}, ids)
}
