package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-jukebox/internal/config"
	"server-jukebox/internal/discord"
	"server-jukebox/internal/logging"
	"server-jukebox/internal/music/jukebox"
	"server-jukebox/internal/music/panel"
	"server-jukebox/internal/music/player"
	"server-jukebox/internal/music/session"
	"server-jukebox/internal/music/source_resolver"
	"server-jukebox/internal/music/stream"
	"server-jukebox/internal/music/voice"
	"server-jukebox/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logFile, err := logging.Init(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Console: cfg.LogConsole})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logging")
	}
	defer logFile.Close()

	log.Info().Msg("Starting jukebox bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session")
	}

	registry := session.NewRegistry()
	messenger := discord.NewMessenger(dg)
	panels := panel.New(messenger)
	resolver := source_resolver.NewLimited(
		source_resolver.Chain{source_resolver.NewYTDLP(), source_resolver.NewKKDai()},
		cfg.ResolverRate,
		cfg.ResolverTimeout,
	)
	players := stream.NewFactory(stream.FFmpegOpener(cfg.FFmpegPath), stream.OpusEncoder)

	controller := player.New(registry, resolver, players, messenger,
		player.WithPanel(panels),
		player.WithHistory(store),
		player.WithVolume(cfg.PlayerVolume),
		player.WithMaxFailureStreak(cfg.MaxFailureStreak),
		player.WithContext(ctx),
	)
	jb := jukebox.New(registry, controller, panels, voice.NewTransport(dg))
	bot := discord.New(dg, jb, store, cfg.CommandPrefix)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Received signal, shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Discord bot error")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	jb.Shutdown(shutdownCtx)
	stop()
	cancel()
	<-errCh

	log.Info().Msg("Discord bot exited cleanly")
}
