// Package prefs handles berth user preferences persistence.
// Preferences are stored in ~/.config/berth/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Prefs holds user preferences for berth. SelectedServer and
// SelectedEndpointID drive initial session setup and selection restoration.
type Prefs struct {
	SelectedServer     string `toml:"selected_server"`
	SelectedEndpointID string `toml:"selected_endpoint_id"`
	Theme              string `toml:"theme"`
}

const (
	defaultPrefsPath = "~/.config/berth/prefs.toml"
	defaultTheme     = "harbor"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if
// missing or unreadable. Preferences are never load-fatal.
func Load(path string) (Prefs, error) {
	defaults := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return defaults, nil
	}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return defaults, nil // Graceful degradation
	}

	prefs := defaults
	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return defaults, nil // Graceful degradation
	}
	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// File is a live preferences handle: setters update memory and write through
// to disk, best-effort. It satisfies the data layer's Preferences interface.
type File struct {
	mu    sync.Mutex
	path  string
	prefs Prefs
	log   *zap.Logger
}

// OpenFile loads preferences from path (default when empty) into a File.
func OpenFile(path string, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	loaded, _ := Load(path)
	return &File{path: path, prefs: loaded, log: logger}
}

// Values returns a copy of the current preferences.
func (f *File) Values() Prefs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs
}

// SelectedServer returns the preferred server URL, or empty.
func (f *File) SelectedServer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs.SelectedServer
}

// SetSelectedServer persists the preferred server URL.
func (f *File) SetSelectedServer(server string) {
	f.set(func(p *Prefs) { p.SelectedServer = server })
}

// SelectedEndpointID returns the preferred endpoint selection, or empty.
func (f *File) SelectedEndpointID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs.SelectedEndpointID
}

// SetSelectedEndpointID persists the preferred endpoint selection.
func (f *File) SetSelectedEndpointID(id string) {
	f.set(func(p *Prefs) { p.SelectedEndpointID = id })
}

// Theme returns the preferred theme name.
func (f *File) Theme() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs.Theme
}

// SetTheme persists the preferred theme name.
func (f *File) SetTheme(name string) {
	f.set(func(p *Prefs) { p.Theme = name })
}

func (f *File) set(mutate func(*Prefs)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := f.prefs
	mutate(&f.prefs)
	if f.prefs == before {
		return
	}
	if err := Save(f.path, f.prefs); err != nil {
		f.log.Warn("save prefs failed", zap.Error(err))
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
