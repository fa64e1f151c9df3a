package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultServerBaseURL = "http://127.0.0.1:8090"

type Settings struct {
	Server   ServerSettings  `toml:"server"`
	Logging  LoggingSettings `toml:"logging"`
	Timeouts TimeoutSettings `toml:"timeouts"`
	Archive  ArchiveSettings `toml:"archive"`
	UI       UISettings      `toml:"ui"`
}

type ServerSettings struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

type LoggingSettings struct {
	Level string `toml:"level"`
}

// TimeoutSettings bound each network action defensively; the upstream
// contracts define none, and a hung call must not leave the session stuck.
type TimeoutSettings struct {
	StartSeconds   int `toml:"start_seconds"`
	SendSeconds    int `toml:"send_seconds"`
	UpdateSeconds  int `toml:"update_seconds"`
	ConfirmSeconds int `toml:"confirm_seconds"`
	CancelSeconds  int `toml:"cancel_seconds"`
}

type ArchiveSettings struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

type UISettings struct {
	MarkdownWidth int `toml:"markdown_width"`
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			BaseURL: defaultServerBaseURL,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
		Timeouts: TimeoutSettings{
			StartSeconds:   15,
			SendSeconds:    120,
			UpdateSeconds:  15,
			ConfirmSeconds: 30,
			CancelSeconds:  5,
		},
	}
}

func LoadSettings() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return Settings{}, err
	}
	return loadSettingsFromPath(path)
}

func loadSettingsFromPath(path string) (Settings, error) {
	settings := DefaultSettings()
	if err := readTOML(path, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func (s Settings) ServerBaseURL() string {
	url := strings.TrimSpace(s.Server.BaseURL)
	if url == "" {
		return defaultServerBaseURL
	}
	return strings.TrimRight(url, "/")
}

func (s Settings) ServerToken() string {
	return strings.TrimSpace(s.Server.Token)
}

func (s Settings) LogLevel() string {
	level := strings.TrimSpace(s.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (s Settings) StartTimeout() time.Duration {
	return secondsOrDefault(s.Timeouts.StartSeconds, 15)
}

func (s Settings) SendTimeout() time.Duration {
	return secondsOrDefault(s.Timeouts.SendSeconds, 120)
}

func (s Settings) UpdateTimeout() time.Duration {
	return secondsOrDefault(s.Timeouts.UpdateSeconds, 15)
}

func (s Settings) ConfirmTimeout() time.Duration {
	return secondsOrDefault(s.Timeouts.ConfirmSeconds, 30)
}

func (s Settings) CancelTimeout() time.Duration {
	return secondsOrDefault(s.Timeouts.CancelSeconds, 5)
}

func (s Settings) ArchiveEnabled() bool {
	if s.Archive.Enabled == nil {
		return true
	}
	return *s.Archive.Enabled
}

func (s Settings) ResolveArchivePath() (string, error) {
	path := strings.TrimSpace(s.Archive.Path)
	if path != "" {
		return path, nil
	}
	return ArchivePath()
}

func (s Settings) MarkdownWidth() int {
	if s.UI.MarkdownWidth <= 0 {
		return 80
	}
	return s.UI.MarkdownWidth
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
