package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/consiliumhq/signaling/internal/adapters/http"
	"github.com/consiliumhq/signaling/internal/adapters/identity"
	signalws "github.com/consiliumhq/signaling/internal/adapters/signal"
	"github.com/consiliumhq/signaling/internal/adapters/storage"
	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	meetings, err := storage.OpenMeetingStore(cfg.MeetingDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open meeting store")
	}
	defer meetings.Close()

	chat, err := storage.OpenChatStore(cfg.ChatPath, cfg.HistoryLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open chat store")
	}
	defer chat.Close()

	verifier := identity.NewVerifier(cfg.Secret, cfg.TokenIssuer)
	coord := app.NewCoordinator(meetings, chat, chat)
	limiter := signalws.NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinWindow)
	ctl := signalws.NewController(coord, verifier, limiter, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, coord, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
