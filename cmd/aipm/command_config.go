package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"aipm/internal/config"
)

type configOutput struct {
	SettingsPath string            `json:"settings_path" toml:"settings_path"`
	Server       configServerOut   `json:"server" toml:"server"`
	Logging      configLoggingOut  `json:"logging" toml:"logging"`
	Timeouts     configTimeoutsOut `json:"timeouts" toml:"timeouts"`
	Archive      configArchiveOut  `json:"archive" toml:"archive"`
	UI           configUIOut       `json:"ui" toml:"ui"`
}

type configServerOut struct {
	BaseURL  string `json:"base_url" toml:"base_url"`
	HasToken bool   `json:"has_token" toml:"has_token"`
}

type configLoggingOut struct {
	Level string `json:"level" toml:"level"`
}

type configTimeoutsOut struct {
	Start   string `json:"start" toml:"start"`
	Send    string `json:"send" toml:"send"`
	Update  string `json:"update" toml:"update"`
	Confirm string `json:"confirm" toml:"confirm"`
	Cancel  string `json:"cancel" toml:"cancel"`
}

type configArchiveOut struct {
	Enabled bool   `json:"enabled" toml:"enabled"`
	Path    string `json:"path" toml:"path"`
}

type configUIOut struct {
	MarkdownWidth int `json:"markdown_width" toml:"markdown_width"`
}

// runConfig prints the effective configuration after defaults and
// normalization, so a mistyped settings file is easy to diagnose.
func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	format := fs.String("format", "toml", "output format: toml or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	settingsPath, err := config.SettingsPath()
	if err != nil {
		return err
	}
	archivePath, err := settings.ResolveArchivePath()
	if err != nil {
		return err
	}

	out := configOutput{
		SettingsPath: settingsPath,
		Server: configServerOut{
			BaseURL:  settings.ServerBaseURL(),
			HasToken: settings.ServerToken() != "",
		},
		Logging: configLoggingOut{Level: settings.LogLevel()},
		Timeouts: configTimeoutsOut{
			Start:   settings.StartTimeout().String(),
			Send:    settings.SendTimeout().String(),
			Update:  settings.UpdateTimeout().String(),
			Confirm: settings.ConfirmTimeout().String(),
			Cancel:  settings.CancelTimeout().String(),
		},
		Archive: configArchiveOut{
			Enabled: settings.ArchiveEnabled(),
			Path:    archivePath,
		},
		UI: configUIOut{MarkdownWidth: settings.MarkdownWidth()},
	}

	switch *format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	case "toml":
		return toml.NewEncoder(os.Stdout).Encode(out)
	default:
		return fmt.Errorf("unknown format %q (want toml or json)", *format)
	}
}
