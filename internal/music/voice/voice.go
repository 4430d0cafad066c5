// Package voice joins discord voice channels and exposes them as audio
// connections.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-jukebox/internal/music/audio"
)

var ErrClosed = errors.New("voice connection closed")

const sendTimeout = time.Second

// Transport joins voice channels through a discordgo session.
type Transport struct {
	dg *discordgo.Session
}

func NewTransport(dg *discordgo.Session) *Transport {
	return &Transport{dg: dg}
}

func (t *Transport) Join(ctx context.Context, guildID, channelID string) (audio.Connection, error) {
	if channelID == "" {
		return nil, errors.New("voice channel ID is not set")
	}

	type result struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	ch := make(chan result, 1)
	go func() {
		vc, err := t.dg.ChannelVoiceJoin(guildID, channelID, false, true)
		ch <- result{vc, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("failed to join voice channel: %w", r.err)
		}
		log.Info().Str("guild", guildID).Str("channel", channelID).Msg("Joined voice channel")
		return NewConnection(r.vc.OpusSend, r.vc.Speaking, r.vc.Disconnect), nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.vc.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}
}

// Connection feeds opus frames to a voice connection.
type Connection struct {
	send       chan<- []byte
	speak      func(bool) error
	disconnect func() error

	mu        sync.Mutex
	player    audio.Player
	destroyed bool
	closed    chan struct{}
}

func NewConnection(send chan<- []byte, speak func(bool) error, disconnect func() error) *Connection {
	return &Connection{
		send:       send,
		speak:      speak,
		disconnect: disconnect,
		closed:     make(chan struct{}),
	}
}

// Subscribe routes p's frames into this connection. Only players that
// implement audio.Attachable can be subscribed.
func (c *Connection) Subscribe(p audio.Player) error {
	a, ok := p.(audio.Attachable)
	if !ok {
		return fmt.Errorf("player %T cannot be attached", p)
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.player
	c.player = p
	c.mu.Unlock()

	if prev != nil && prev != p {
		if pa, ok := prev.(audio.Attachable); ok {
			pa.Attach(nil)
		}
	}
	a.Attach(c)
	return nil
}

func (c *Connection) WriteFrame(frame []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-time.After(sendTimeout):
		return errors.New("voice send timed out")
	}
}

func (c *Connection) Speaking(on bool) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	return c.speak(on)
}

// Destroy detaches the player and leaves the channel. Later calls are no-ops.
func (c *Connection) Destroy() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	c.destroyed = true
	close(c.closed)
	p := c.player
	c.player = nil
	c.mu.Unlock()

	if a, ok := p.(audio.Attachable); ok {
		a.Attach(nil)
	}
	_ = c.speak(false)
	if err := c.disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

func (c *Connection) Status() audio.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return audio.ConnectionDestroyed
	}
	return audio.ConnectionReady
}
