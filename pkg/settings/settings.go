package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tokenEnv = "REPLICATE_API_TOKEN"

// Store persists user settings as a JSON object. Unknown keys survive a save.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return out, nil
}

// StoredToken returns the token saved on disk, ignoring the environment.
func (s *Store) StoredToken() (string, error) {
	m, err := s.load()
	if err != nil {
		return "", err
	}
	v, _ := m["api_token"].(string)
	return strings.TrimSpace(v), nil
}

// Token resolves the backend token: environment first, then the settings file.
func (s *Store) Token() string {
	if v := strings.TrimSpace(os.Getenv(tokenEnv)); v != "" {
		return v
	}
	v, err := s.StoredToken()
	if err != nil {
		return ""
	}
	return v
}

// SaveToken writes the token and exports it to the current process environment.
func (s *Store) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("settings: empty token")
	}
	m, err := s.load()
	if err != nil {
		m = map[string]any{}
	}
	m["api_token"] = token
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	return os.Setenv(tokenEnv, token)
}
