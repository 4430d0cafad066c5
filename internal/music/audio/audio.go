// Package audio holds the contracts between the playback core and the
// collaborators that actually move sound: the media resolver, the voice
// transport and the audio player.
package audio

import (
	"context"
	"errors"
)

var (
	ErrNoAudioStream = errors.New("no audio-only stream available")
	ErrNotAttached   = errors.New("player is not attached to a voice connection")
)

// PlayerStatus mirrors the lifecycle of an audio player.
type PlayerStatus int

const (
	StatusIdle PlayerStatus = iota
	StatusPlaying
	StatusPaused
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

type ConnectionStatus int

const (
	ConnectionReady ConnectionStatus = iota
	ConnectionDestroyed
)

// Source is a resolved, streamable track handed to a Player.
type Source struct {
	StreamURL string
	Title     string
	Volume    float64
}

// Behavior configures a freshly created player.
type Behavior struct {
	// StopOnNoSubscriber ends playback when no connection is attached.
	StopOnNoSubscriber bool
}

type Player interface {
	Play(src Source) error
	Pause() bool
	Unpause() bool
	Stop(force bool) bool
	Status() PlayerStatus
	// OnceIdle registers fn to run the next time the player becomes idle.
	OnceIdle(fn func())
	RemoveAllListeners()
}

type PlayerFactory interface {
	NewPlayer(b Behavior) Player
}

// FrameWriter accepts encoded opus frames.
type FrameWriter interface {
	WriteFrame(frame []byte) error
	Speaking(on bool) error
}

// Attachable is implemented by players that can be bound to a FrameWriter.
type Attachable interface {
	Attach(w FrameWriter)
}

type Connection interface {
	Subscribe(p Player) error
	Destroy() error
	Status() ConnectionStatus
}

type Transport interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
}

// Resolved is the outcome of resolving a page URL to a direct audio stream.
type Resolved struct {
	Title     string
	StreamURL string
}

type Resolver interface {
	Resolve(ctx context.Context, url string) (Resolved, error)
}
