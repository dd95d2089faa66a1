// Package main is the headless watcher: it polls alerts and follows the
// event stream, logging everything it sees.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safevision-console/internal/api"
	"safevision-console/internal/config"
	"safevision-console/internal/logging"
	"safevision-console/internal/poller"
	"safevision-console/internal/schema"
	"safevision-console/internal/store"
	"safevision-console/internal/stream"
)

var version = "dev"

type logSubscriber struct{}

func (logSubscriber) OnEvent(ev *schema.StreamEvent) {
	slog.Info("stream event",
		"event", ev.Event,
		"alert_id", ev.AlertID,
		"message", ev.Message)
}

func (logSubscriber) OnError(err error) {
	slog.Warn("stream ended with error", "error", err)
}

func (logSubscriber) OnFinished() {
	slog.Info("stream completed")
}

func main() {
	var (
		showVersion bool
		serverURL   string
		noStream    bool
		uploadPath  string
	)

	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.StringVar(&serverURL, "server", "", "SafeVision backend URL (overrides config)")
	flag.BoolVar(&noStream, "no-stream", false, "Poll only, skip the event stream")
	flag.StringVar(&uploadPath, "upload", "", "Upload a video file and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("safevision-watch %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if serverURL != "" {
		cfg.Client.BaseURL = serverURL
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	client, err := api.NewClient(cfg.Client)
	if err != nil {
		slog.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	if uploadPath != "" {
		os.Exit(runUpload(client, uploadPath, cfg.Upload.Timeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := client.Health(ctx); err != nil {
		slog.Warn("backend health check failed", "error", err)
	} else {
		slog.Info("backend healthy", "url", cfg.Client.BaseURL)
	}
	cancel()

	alerts := store.NewAlertStore()

	p := poller.New(client, cfg.Poller.Interval)
	p.Start(func(res poller.Result) {
		if res.Err != nil {
			alerts.SetError(res.Err)
			slog.Warn("poll failed", "error", res.Err)
			return
		}
		before := alerts.Len()
		alerts.Replace(res.Alerts)
		if len(res.Alerts) != before {
			slog.Info("alert list changed", "count", len(res.Alerts))
		}
	})
	defer p.Stop()

	var consumer *stream.Consumer
	if !noStream {
		consumer, err = stream.NewConsumer(cfg.StreamConsumerConfig(), logSubscriber{})
		if err != nil {
			slog.Error("failed to create stream consumer", "error", err)
			os.Exit(1)
		}
		if err := consumer.Connect(cfg.StreamURL()); err != nil {
			slog.Error("failed to connect stream", "error", err)
			os.Exit(1)
		}
		defer consumer.Disconnect()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())
}

func runUpload(client *api.Client, path string, timeout time.Duration) int {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open video", "path", path, "error", err)
		return 1
	}
	defer f.Close()

	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	msg, err := client.UploadVideo(ctx, path, f)
	if err != nil {
		slog.Error("upload failed", "path", path, "error", err)
		return 1
	}
	slog.Info("upload accepted", "path", path, "response", msg)
	return 0
}
