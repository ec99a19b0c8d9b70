package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bosley/huddle/capture"
	"github.com/bosley/huddle/config"
	"github.com/bosley/huddle/meetbot"
	"github.com/bosley/huddle/monitor"
	"github.com/bosley/huddle/pipeline"
	"github.com/bosley/huddle/review"
	"github.com/bosley/huddle/transcribe"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "", "Path to config file")
	meetingURL := flag.String("url", "", "Meeting URL the bot should join")
	title := flag.String("title", "Meeting", "Meeting title")
	platform := flag.String("platform", "", "Meeting platform (zoom|meet|teams)")
	participants := flag.String("participants", "", "Comma-separated known participant names")
	framesDir := flag.String("frames", "", "Frames directory for local capture (overrides config)")
	monitorAddr := flag.String("monitor", "", "Monitor listen address (overrides config)")
	flag.Parse()

	if *meetingURL == "" {
		slog.Error("A meeting URL is required")
		flag.Usage()
		os.Exit(1)
	}

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	conf, err := config.Load(paths...)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if conf.Bot.URL == "" {
		slog.Error("Bot provider URL is not configured")
		os.Exit(1)
	}

	if *framesDir != "" {
		conf.Capture.FramesDir = *framesDir
	}
	if *monitorAddr != "" {
		conf.Monitor.Addr = *monitorAddr
	}

	adapter := &transcribe.Adapter{}
	if conf.Transcription.Whisper.Path != "" {
		adapter.Local = transcribe.NewLocalWhisper(conf.Transcription.Whisper.Path, conf.Transcription.Whisper.Model)
	}
	if conf.Transcription.RemoteURL != "" {
		adapter.Remote = transcribe.NewRemote(conf.Transcription.RemoteURL)
	}

	opts := pipeline.Options{
		Bots:         meetbot.NewClient(conf.Bot.URL, conf.Bot.APIKey),
		Transcriber:  adapter,
		Reviewer:     review.NewClient(conf.Review.AnalyzerURL),
		PollInterval: conf.Bot.PollInterval,
		PollCeiling:  conf.Bot.PollCeiling,
	}
	if conf.Review.StoreURL != "" {
		opts.Store = review.NewStoreClient(conf.Review.StoreURL)
	}
	if conf.Capture.FramesDir != "" {
		opts.Source = capture.NewDirSource(conf.Capture.FramesDir)
	}

	pipe := pipeline.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if conf.Monitor.Addr != "" {
		mon := monitor.New(conf.Monitor.Addr, pipe)
		go func() {
			if err := mon.Start(ctx); err != nil {
				slog.Error("Monitor failed", "error", err)
			}
		}()
	}

	cfg := pipeline.Config{
		MeetingTitle: *title,
		MeetingURL:   *meetingURL,
		Platform:     *platform,
		BotName:      conf.Bot.Name,
	}
	if *participants != "" {
		for _, name := range strings.Split(*participants, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.KnownParticipants = append(cfg.KnownParticipants, name)
			}
		}
	}

	if err := pipe.Start(ctx, cfg); err != nil {
		slog.Error("Failed to start session", "error", err)
		os.Exit(1)
	}

	slog.Info("Session running, send SIGINT to stop and generate the review")
	<-sigChan
	slog.Debug("Received shutdown signal")

	rev, err := pipe.Stop(context.Background())
	if err != nil {
		slog.Error("Session failed", "error", err)
		os.Exit(1)
	}
	if rev == nil {
		slog.Warn("Session ended without a review")
		return
	}

	fmt.Printf("Review %s: %s\n", rev.ID, rev.Title)
	fmt.Println(rev.Summary)
	for _, item := range rev.ActionItems {
		fmt.Printf("- %s", item.Description)
		if item.Owner != "" {
			fmt.Printf(" (%s)", item.Owner)
		}
		fmt.Println()
	}
}
