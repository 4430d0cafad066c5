// Package source_resolver turns a track URL into a title and a direct audio
// stream URL.
package source_resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"server-jukebox/internal/music/audio"
)

// Chain tries each resolver in order and returns the first success.
type Chain []audio.Resolver

func (c Chain) Resolve(ctx context.Context, rawURL string) (audio.Resolved, error) {
	if len(c) == 0 {
		return audio.Resolved{}, errors.New("no resolvers configured")
	}
	var errs []error
	for _, r := range c {
		res, err := r.Resolve(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return audio.Resolved{}, ctx.Err()
		}
		log.Debug().Err(err).Str("url", rawURL).Msg("Resolver failed, trying next")
		errs = append(errs, err)
	}
	return audio.Resolved{}, errors.Join(errs...)
}

// Limited throttles resolutions with a process wide token bucket and bounds
// each one with a timeout.
type Limited struct {
	next    audio.Resolver
	limiter *rate.Limiter
	timeout time.Duration
}

// NewLimited allows perSecond resolutions per second. A non positive rate
// disables throttling, a non positive timeout disables the deadline.
func NewLimited(next audio.Resolver, perSecond float64, timeout time.Duration) *Limited {
	l := &Limited{next: next, timeout: timeout}
	if perSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return l
}

func (l *Limited) Resolve(ctx context.Context, rawURL string) (audio.Resolved, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return audio.Resolved{}, fmt.Errorf("resolver rate limit: %w", err)
		}
	}
	return l.next.Resolve(ctx, rawURL)
}
