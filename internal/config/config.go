package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures berth's own settings: where the cache lives, how chatty
// the log is and how often the background refresh runs. The active server
// and selection are preferences, not config.
type Config struct {
	CacheDir    string
	LogPath     string
	LogLevel    string
	PollSeconds int
}

const (
	defaultConfigPath  = "~/.config/berth/config.toml"
	defaultCacheDir    = "~/.local/share/berth/cache"
	defaultLogPath     = "~/.local/share/berth/berth.log"
	defaultLogLevel    = "info"
	defaultPollSeconds = 10
)

// Load locates and parses the berth config, falling back to defaults when
// missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		CacheDir:    mustExpand(defaultCacheDir),
		LogPath:     mustExpand(defaultLogPath),
		LogLevel:    defaultLogLevel,
		PollSeconds: defaultPollSeconds,
	}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		CacheDir    string `toml:"cache_dir"`
		LogPath     string `toml:"log_path"`
		LogLevel    string `toml:"log_level"`
		PollSeconds int    `toml:"poll_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if dir := strings.TrimSpace(raw.CacheDir); dir != "" {
		cfg.CacheDir = mustExpand(dir)
	}
	if path := strings.TrimSpace(raw.LogPath); path != "" {
		cfg.LogPath = mustExpand(path)
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = level
	}
	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
