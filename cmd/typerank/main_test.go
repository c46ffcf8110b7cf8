package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/config"
	"github.com/verte-zerg/typerank/internal/model"
)

func TestPracticeSettingsFlagsOverrideConfig(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--time", "15"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	lang := "DE"
	mode := "time"
	timeLimit := 120
	punct := true
	settings := practiceSettings(cmd, config.PracticeConfig{
		Lang:        &lang,
		Mode:        &mode,
		Time:        &timeLimit,
		Punctuation: &punct,
	})
	if settings.TimeLimit != 15 {
		t.Fatalf("expected flag time 15, got %d", settings.TimeLimit)
	}
	if settings.Language != "de" {
		t.Fatalf("expected config language de, got %q", settings.Language)
	}
	if settings.Mode != model.ModeTime || !settings.Punctuation {
		t.Fatalf("unexpected settings: %+v", settings)
	}
	if settings.WordCount != defaultWords {
		t.Fatalf("expected default words, got %d", settings.WordCount)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should parse: %v", err)
	}
	if cfg.Practice.Lang != nil || cfg.Profile.Username != nil {
		t.Fatalf("template values should be commented out: %+v", cfg)
	}
}

func TestProfileGeneratesAndPersistsUserID(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	name := "ada"
	a := &app{logger: zap.NewNop()}
	a.cfg.Profile.Username = &name

	userID, username := a.profile()
	if userID == "" || username != "ada" {
		t.Fatalf("unexpected profile %q %q", userID, username)
	}
	again, _ := a.profile()
	if again != userID {
		t.Fatalf("user id changed: %q vs %q", again, userID)
	}
	saved, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if saved.Profile.UserID == nil || *saved.Profile.UserID != userID {
		t.Fatalf("user id was not saved: %+v", saved.Profile)
	}
	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "# typerank configuration") {
		t.Fatalf("template comments were dropped:\n%s", raw)
	}
}

func TestIdentityDoesNotCreateUserID(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	name := "ada"
	a := &app{logger: zap.NewNop()}
	a.cfg.Profile.Username = &name

	userID, username := a.identity()
	if userID != "" || username != "ada" {
		t.Fatalf("unexpected identity %q %q", userID, username)
	}
	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(raw) != defaultConfigTemplate() {
		t.Fatalf("identity must not rewrite the config")
	}
}
