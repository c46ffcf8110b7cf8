package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Practice.Lang != nil || cfg.Profile.Username != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigPractice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[practice]
lang = "de"
mode = "words"
words = 50
punctuation = true

[profile]
username = "ana"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	p := cfg.Practice
	if p.Lang == nil || *p.Lang != "de" {
		t.Fatalf("expected lang de, got %v", p.Lang)
	}
	if p.Mode == nil || *p.Mode != "words" {
		t.Fatalf("expected mode words, got %v", p.Mode)
	}
	if p.Words == nil || *p.Words != 50 {
		t.Fatalf("expected 50 words, got %v", p.Words)
	}
	if p.Punctuation == nil || !*p.Punctuation {
		t.Fatalf("expected punctuation on")
	}
	if p.Time != nil || p.Numbers != nil {
		t.Fatalf("expected unset fields to stay nil")
	}
	if cfg.Profile.Username == nil || *cfg.Profile.Username != "ana" {
		t.Fatalf("expected username ana, got %v", cfg.Profile.Username)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typerank", "config.toml")
	id := "0b6f1f9e-8a57-4d3c-9d57-1f2f4b1c3a00"
	secs := 30
	in := FileConfig{}
	in.Profile.UserID = &id
	in.Practice.Time = &secs
	if err := SaveConfig(path, in); err != nil {
		t.Fatalf("save config: %v", err)
	}
	out, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if out.Profile.UserID == nil || *out.Profile.UserID != id {
		t.Fatalf("expected user id to persist, got %v", out.Profile.UserID)
	}
	if out.Practice.Time == nil || *out.Practice.Time != 30 {
		t.Fatalf("expected time 30, got %v", out.Practice.Time)
	}
	if out.Practice.Lang != nil {
		t.Fatalf("expected unset lang to be omitted")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "typerank", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "typerank", "typerank.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/data", "typerank", "logs", "typerank.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}

func TestSetUserIDKeepsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `# typerank configuration
[practice]
# lang = "en"
time = 60

[profile]
# username = "typist"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := SetUserID(path, "user-1"); err != nil {
		t.Fatalf("set user id: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	for _, want := range []string{"# typerank configuration", `# lang = "en"`, `# username = "typist"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("comment %q was dropped:\n%s", want, raw)
		}
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Profile.UserID == nil || *cfg.Profile.UserID != "user-1" {
		t.Fatalf("expected user id, got %v", cfg.Profile.UserID)
	}
	if cfg.Practice.Time == nil || *cfg.Practice.Time != 60 {
		t.Fatalf("expected time 60 to survive, got %v", cfg.Practice.Time)
	}
	if err := SetUserID(path, "user-2"); err == nil {
		t.Fatalf("expected error when a user id is already set")
	}
}

func TestSetUserIDAddsProfileSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nlang = \"de\""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := SetUserID(path, "user-1"); err != nil {
		t.Fatalf("set user id: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Profile.UserID == nil || *cfg.Profile.UserID != "user-1" || cfg.Practice.Lang == nil {
		t.Fatalf("unexpected config %+v", cfg)
	}

	missing := filepath.Join(dir, "new", "config.toml")
	if err := SetUserID(missing, "user-3"); err != nil {
		t.Fatalf("set user id on missing file: %v", err)
	}
	cfg, err = LoadConfig(missing)
	if err != nil || cfg.Profile.UserID == nil || *cfg.Profile.UserID != "user-3" {
		t.Fatalf("unexpected config %+v, err %v", cfg, err)
	}
}
