package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arzormc/warden/internal/config"
	"github.com/arzormc/warden/internal/events"
	"github.com/arzormc/warden/internal/presence"
	"github.com/arzormc/warden/internal/server"
	"github.com/arzormc/warden/internal/store/postgres"
	auditsync "github.com/arzormc/warden/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the warden server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Load the punishment layout; fall back to the built-in default
		// when the file is absent.
		layout, err := config.LoadLayout(cfg.LayoutPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			layout = config.DefaultLayout()
			logger.Info("layout file not found, using defaults", "path", cfg.LayoutPath)
		} else {
			logger.Info("layout loaded", "path", cfg.LayoutPath, "categories", len(layout.CategoryIDs()))
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (WARDEN_NATS_URL not set)")
		}

		// Presence tracker with the offline reaper.
		tracker := presence.New()

		wardenServer := server.New(server.Options{
			Store:      store,
			Publisher:  publisher,
			Layout:     layout,
			LayoutPath: cfg.LayoutPath,
			Presence:   tracker,
		})

		tracker.StartReaper(&presence.ReaperConfig{
			OnOffline: wardenServer.HandleOffline,
		})

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: server.LoggingMiddleware(wardenServer.NewHTTPHandler(cfg.AuthToken)),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Feed chat lines from the bus into capture arbitration.
		var chatCancel func()
		if cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Error("failed to create chat subscriber", "err", err)
			} else {
				ch, cancel, err := sub.Subscribe(events.TopicChatIncoming)
				if err != nil {
					logger.Error("failed to subscribe to chat intake", "err", err)
					sub.Close()
				} else {
					chatCancel = func() {
						cancel()
						sub.Close()
					}
					go func() {
						for payload := range ch {
							var msg events.ChatIncoming
							if err := json.Unmarshal(payload, &msg); err != nil {
								logger.Warn("malformed chat payload", "err", err)
								continue
							}
							wardenServer.HandleChat(context.Background(), msg.Moderator, msg.Text)
						}
					}()
					logger.Info("chat subscriber started", "topic", events.TopicChatIncoming)
				}
			}
		}

		// Start the audit export scheduler when a destination is configured.
		var scheduler *auditsync.Scheduler
		if cfg.ExportInterval > 0 && cfg.ExportS3Bucket != "" {
			s3Dest, err := auditsync.NewS3Destination(
				context.Background(),
				cfg.ExportS3Bucket,
				cfg.ExportS3Key,
				cfg.ExportS3Region,
				cfg.ExportS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 export destination", "err", err)
			} else {
				scheduler = auditsync.NewScheduler(store, []auditsync.Destination{s3Dest}, cfg.ExportInterval, logger)
				scheduler.Start()
				logger.Info("audit export scheduler started",
					"interval", cfg.ExportInterval,
					"bucket", cfg.ExportS3Bucket,
					"key", cfg.ExportS3Key,
				)
			}
		}

		logger.Info("warden server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if chatCancel != nil {
			chatCancel()
			logger.Info("chat subscriber stopped")
		}

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("audit export scheduler stopped")
		}

		tracker.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		// Cancel live sessions so waiters and peers hear about it.
		wardenServer.Shutdown(shutdownCtx)

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
