// Package secrets stores API tokens keyed by server URL.
// Tokens live in ~/.config/berth/tokens.toml with 0600 permissions; the
// store treats the file as an opaque key-value secret store.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrNotFound is returned by Get when no token is stored for a server.
var ErrNotFound = errors.New("no token stored")

const defaultTokensPath = "~/.config/berth/tokens.toml"

// File is a file-backed token store. Safe for concurrent use.
type File struct {
	mu   sync.Mutex
	path string
}

// DefaultPath returns the default tokens file path.
func DefaultPath() string {
	return defaultTokensPath
}

// Open resolves the tokens file location. An empty path uses the default.
// The file itself is created lazily on the first Set.
func Open(path string) (*File, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve tokens path: %w", err)
	}
	return &File{path: resolved}, nil
}

// Get returns the token for a server, or ErrNotFound.
func (f *File) Get(server string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return "", err
	}
	token, ok := tokens[normalize(server)]
	if !ok || token == "" {
		return "", fmt.Errorf("%w for %s", ErrNotFound, server)
	}
	return token, nil
}

// Set stores the token for a server, replacing any previous one.
func (f *File) Set(server, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return err
	}
	tokens[normalize(server)] = token
	return f.write(tokens)
}

// Remove deletes a server's token. Removing an absent entry is not an error.
func (f *File) Remove(server string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return err
	}
	delete(tokens, normalize(server))
	return f.write(tokens)
}

// List returns the servers with a stored token, sorted.
func (f *File) List() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return nil, err
	}
	servers := make([]string, 0, len(tokens))
	for server := range tokens {
		servers = append(servers, server)
	}
	sort.Strings(servers)
	return servers, nil
}

func (f *File) read() (map[string]string, error) {
	bytes, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	var payload struct {
		Tokens map[string]string `toml:"tokens"`
	}
	if err := toml.Unmarshal(bytes, &payload); err != nil {
		return nil, fmt.Errorf("parse tokens: %w", err)
	}
	if payload.Tokens == nil {
		payload.Tokens = map[string]string{}
	}
	return payload.Tokens, nil
}

func (f *File) write(tokens map[string]string) error {
	payload := struct {
		Tokens map[string]string `toml:"tokens"`
	}{Tokens: tokens}

	bytes, err := toml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create tokens dir: %w", err)
	}
	if err := os.WriteFile(f.path, bytes, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	return nil
}

func normalize(server string) string {
	return strings.TrimRight(strings.TrimSpace(server), "/")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultTokensPath)
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
