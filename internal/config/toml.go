// Package config provides configuration helpers and TOML parsing.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Profile  ProfileConfig  `toml:"profile"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps test settings. Unset fields fall back to flag defaults.
type PracticeConfig struct {
	Lang        *string `toml:"lang,omitempty"`
	Mode        *string `toml:"mode,omitempty"`
	Time        *int    `toml:"time,omitempty"`
	Words       *int    `toml:"words,omitempty"`
	Punctuation *bool   `toml:"punctuation,omitempty"`
	Numbers     *bool   `toml:"numbers,omitempty"`
	UILanguage  *string `toml:"ui-language,omitempty"`
	Theme       *string `toml:"theme,omitempty"`
	Font        *string `toml:"font,omitempty"`
}

// ProfileConfig identifies the typist on the leaderboard.
type ProfileConfig struct {
	Username *string `toml:"username,omitempty"`
	UserID   *string `toml:"user-id,omitempty"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level *string `toml:"level,omitempty"`
	Path  *string `toml:"path,omitempty"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg FileConfig) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveConfig writes cfg to path, creating the parent directory.
func SaveConfig(path string, cfg FileConfig) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// SetUserID records id under [profile] without rewriting the rest of the file,
// so comments and layout survive. A missing file is created.
func SetUserID(path, id string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return SaveConfig(path, FileConfig{Profile: ProfileConfig{UserID: &id}})
	}
	var cfg FileConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Profile.UserID != nil {
		return fmt.Errorf("config already has a user id")
	}

	line := fmt.Sprintf("user-id = %q", id)
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines)+3)
	inserted := false
	for _, l := range lines {
		out = append(out, l)
		if !inserted && strings.HasPrefix(strings.TrimSpace(l), "[profile]") {
			out = append(out, line)
			inserted = true
		}
	}
	text := strings.Join(out, "\n")
	if !inserted {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += "\n[profile]\n" + line + "\n"
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
