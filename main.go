package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"canvasearth-client/api"
	"canvasearth-client/core"
	"canvasearth-client/interaction"
	"canvasearth-client/overlay"
	"canvasearth-client/repository"
	"canvasearth-client/state"
	"canvasearth-client/transport"
	"canvasearth-client/viewport"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func waitForShutdown(channel *transport.Channel, tracker *viewport.Tracker) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	select {
	case <-exit:
	case <-channel.GivenUp():
		logrus.Error("lost the push connection for good, shutting down")
	}

	tracker.Close()
	channel.Disconnect()
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on the environment")
	}

	apiURL := flag.String("api", envOr("CANVAS_API_URL", "http://localhost:8080"), "Canvas backend base URL")
	wsURL := flag.String("ws", envOr("CANVAS_WS_URL", "ws://localhost:8080/ws"), "Canvas push channel URL")
	userID := flag.Int64("user", 1, "User id to attribute mutations to")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	surfaceWidth := flag.Float64("width", 1280, "Rendering surface width in pixels")
	surfaceHeight := flag.Float64("height", 800, "Rendering surface height in pixels")
	flag.Parse()

	if v := os.Getenv("CANVAS_USER_ID"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			*userID = parsed
		}
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	surface := core.Size{Width: *surfaceWidth, Height: *surfaceHeight}

	uiState := state.NewStore()
	client := api.NewClient(*apiURL)
	repo := repository.New(client, uiState)
	controller := interaction.New(uiState, repo, surface, *userID)
	registry := overlay.NewRegistry()
	editor := overlay.NewEditor(repo, repo, uiState)
	controller.SetTextEditingGuard(editor.Editing)

	// A deleted object takes its open players down with it.
	repo.OnDelete(func(id int64) {
		for _, entry := range registry.CloseForObject(id) {
			logrus.WithField("instance_id", entry.InstanceID).Info("closed player for deleted object")
		}
	})

	tracker := viewport.NewTracker(surface, viewport.DefaultDebounce, func(bounds core.ViewportBounds) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := repo.Query(ctx, bounds); err != nil {
			logrus.WithError(err).Warn("viewport refetch failed")
		}
	})
	uiState.OnTransformChange(tracker.TransformChanged)

	channel := transport.NewChannel(*wsURL, repo.ApplyRemote)

	// Play commands from the controller open overlay players.
	go func() {
		for cmd := range controller.Commands() {
			switch c := cmd.(type) {
			case interaction.PlayYouTubeCommand:
				registry.OpenYouTube(c.ObjectID, c.URL)
			case interaction.PlayVideoCommand:
				registry.OpenVideo(c.ObjectID, c.URL)
			case interaction.TextChangedCommand:
				logrus.WithField("object_id", c.ObjectID).Debug("text committed")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	objects, err := repo.Query(ctx, tracker.Bounds())
	cancel()
	if err != nil {
		logrus.WithError(err).Fatal("initial viewport query failed")
	}
	logrus.WithField("count", len(objects)).Info("canvas loaded")

	channel.Connect()
	logrus.WithFields(logrus.Fields{
		"api": *apiURL,
		"ws":  *wsURL,
	}).Info("client running")

	waitForShutdown(channel, tracker)
}
