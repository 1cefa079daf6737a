package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brockodle/twitchfollowergoal/internal/broadcast"
	"github.com/brockodle/twitchfollowergoal/internal/config"
	"github.com/brockodle/twitchfollowergoal/internal/goal"
	"github.com/brockodle/twitchfollowergoal/internal/logging"
	"github.com/brockodle/twitchfollowergoal/internal/metrics"
	"github.com/brockodle/twitchfollowergoal/internal/server"
	"github.com/brockodle/twitchfollowergoal/internal/streamlabs"
	"github.com/brockodle/twitchfollowergoal/internal/twitch"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupTwitch(cfg *config.Config) *twitch.Client {
	if !cfg.HasTwitchCredentials() {
		slog.Info("Twitch credentials not set, follower lookups will serve mock data")
		return nil
	}
	client, err := twitch.NewClient(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TwitchUsername)
	if err != nil {
		slog.Error("Failed to create Twitch client", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, hub *broadcast.Hub, cancel context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := goal.NewCounter(cfg.ManualFollowerCount)

	hub := broadcast.NewHub(func() (goal.Projection, error) {
		return goal.Project(counter.Current(), cfg.GoalTarget, "")
	})

	// Every counter change updates the gauges and fans out to widget clients
	counter.Subscribe(func(count int) {
		metrics.FollowerCount.Set(float64(count))
		if count >= cfg.GoalTarget {
			metrics.GoalAchieved.Set(1)
		} else {
			metrics.GoalAchieved.Set(0)
		}
		hub.Publish()
	})

	oauth := streamlabs.NewOAuthClient(cfg.StreamlabsClientID, cfg.StreamlabsClientSecret, cfg.RedirectURI)
	tokens := streamlabs.NewSocketTokenSource(cfg.StreamlabsSocketToken, oauth)
	socket := streamlabs.NewSocketClient(tokens, counter, clock, cfg.SocketReconnectDelay)

	var socketOnce sync.Once
	startSocket := func() {
		socketOnce.Do(func() {
			go func() {
				if err := socket.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("Socket client stopped", "error", err)
				}
			}()
		})
	}

	twitchClient := setupTwitch(cfg)

	var (
		srv    *server.Server
		srvErr error
	)
	// Pass nil explicitly to avoid typed-nil interface
	if twitchClient != nil {
		srv, srvErr = server.NewServer(cfg, counter, oauth, hub, twitchClient, startSocket)
	} else {
		srv, srvErr = server.NewServer(cfg, counter, oauth, hub, nil, startSocket)
	}
	if srvErr != nil {
		slog.Error("Failed to create server", "error", srvErr)
		os.Exit(1)
	}

	// A pre-provisioned socket token lets the push pipeline start without OAuth
	if cfg.StreamlabsSocketToken != "" {
		slog.Info("Socket token configured, starting push pipeline immediately")
		startSocket()
	}

	done := runGracefulShutdown(srv, hub, cancel)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
