package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"aipm/internal/app"
	"aipm/internal/client"
	"aipm/internal/config"
	"aipm/internal/logging"
	"aipm/internal/push"
	"aipm/internal/session"
	"aipm/internal/store"
	"aipm/internal/types"
)

func runNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	kindFlag := fs.String("kind", "", "entity to create: project, ticket, guideline")
	stream := fs.Bool("stream", false, "stream agent replies token by token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return err
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	logger, closeLog := openUILogger(settings)
	defer closeLog()

	api := client.New(settings.ServerBaseURL(), settings.ServerToken(), logger)

	var archive store.Archive
	if settings.ArchiveEnabled() {
		path, err := settings.ResolveArchivePath()
		if err != nil {
			return err
		}
		archive, err = store.NewBboltArchive(path)
		if err != nil {
			// The archive is best effort; a locked or corrupt db must not
			// block creating entities.
			logger.Warn("archive unavailable", logging.F("err", err))
			archive = nil
		} else {
			defer archive.Close()
		}
	}

	controller := session.NewController(api, session.Options{
		Kind: kind,
		Timeouts: session.Timeouts{
			Start:   settings.StartTimeout(),
			Send:    settings.SendTimeout(),
			Update:  settings.UpdateTimeout(),
			Confirm: settings.ConfirmTimeout(),
			Cancel:  settings.CancelTimeout(),
		},
		Archive: archive,
		Logger:  logger,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := push.NewHub()
	detach := controller.AttachHub(hub)
	defer detach()

	listener := push.NewListener(settings.ServerBaseURL(), settings.ServerToken(), hub, logger)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("push listener stopped", logging.F("err", err))
		}
	}()

	model := app.NewModel(controller, app.ModelOptions{
		Kind:          kind,
		MarkdownWidth: settings.MarkdownWidth(),
		Streaming:     *stream,
		Logger:        logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func parseKind(value string) (types.EntityKind, error) {
	if value == "" {
		return types.EntityKindAssistant, nil
	}
	kind, ok := types.ParseEntityKind(value)
	if !ok {
		return "", fmt.Errorf("unknown kind %q (want project, ticket, or guideline)", value)
	}
	return kind, nil
}

// openUILogger writes logs to a file under the data dir; stderr belongs to
// the TUI. Logging failures degrade to a no-op logger.
func openUILogger(settings config.Settings) (logging.Logger, func()) {
	level := logging.ParseLevel(settings.LogLevel())
	dataDir, err := config.EnsureDataDir()
	if err != nil {
		return logging.Nop(), func() {}
	}
	file, err := os.OpenFile(filepath.Join(dataDir, "ui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Nop(), func() {}
	}
	return logging.New(file, level), func() { _ = file.Close() }
}
