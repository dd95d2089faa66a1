// Package main provides the TUI entry point for the SafeVision console.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"safevision-console/internal/api"
	"safevision-console/internal/condition"
	"safevision-console/internal/config"
	"safevision-console/internal/logging"
	"safevision-console/internal/poller"
	"safevision-console/internal/rules"
	"safevision-console/internal/schema"
	"safevision-console/internal/store"
	"safevision-console/internal/stream"
	"safevision-console/internal/tui"
)

var version = "dev"

// logSubscriber records stream activity without touching the UI; the alert
// scene re-reads the store on its own tick.
type logSubscriber struct{}

func (logSubscriber) OnEvent(ev *schema.StreamEvent) {
	slog.Info("stream event", "event", ev.Event, "alert_id", ev.AlertID)
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
	)

	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&showVersion, "v", false, "Show version and exit (shorthand)")
	flag.StringVar(&serverURL, "server", "", "SafeVision backend URL (overrides config)")
	flag.StringVar(&serverURL, "s", "", "SafeVision backend URL (shorthand)")
	flag.Parse()

	if showVersion {
		fmt.Printf("safevision-console %s\n", version)
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

	// The TUI owns stdout, so logs go to a file when requested and are
	// discarded otherwise.
	logSink := os.Stderr
	if path := os.Getenv("SAFEVISION_LOG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			defer f.Close()
			logSink = f
		}
	}
	logging.Setup(logSink, cfg.Logging.Level, cfg.Logging.Format)

	client, err := api.NewClient(cfg.Client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	alerts := store.NewAlertStore()
	conditions := condition.NewSeededStore()
	submitter := rules.NewSubmitter(client)

	consumer, err := stream.NewConsumer(cfg.StreamConsumerConfig(), logSubscriber{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := poller.New(client, cfg.Poller.Interval)
	onResult := func(res poller.Result) {
		if res.Err != nil {
			alerts.SetError(res.Err)
			return
		}
		alerts.Replace(res.Alerts)
	}
	p.Start(onResult)
	defer p.Stop()
	defer consumer.Disconnect()

	deps := tui.Deps{
		Resolver:   client,
		Health:     client,
		Submitter:  submitter,
		Alerts:     alerts,
		Conditions: conditions,
		Poller:     p,
		Consumer:   consumer,
		StreamURL:  cfg.StreamURL(),
		TogglePoller: func() {
			if p.Running() {
				p.Stop()
			} else {
				p.Start(onResult)
			}
		},
	}

	if err := tui.Run(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
