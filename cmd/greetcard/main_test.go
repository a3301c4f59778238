package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/greetcard/internal/config"
	"github.com/verte-zerg/greetcard/internal/model"
	"github.com/verte-zerg/greetcard/internal/pages"
	"github.com/verte-zerg/greetcard/internal/prefs"
)

func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImageAndMusicCommandsPersist(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "image", "https://example.com/cake.png")
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if !strings.Contains(out, "Image set successfully") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := execute(t, "music", "/music/song.mp3"); err != nil {
		t.Fatalf("music: %v", err)
	}

	out, err = execute(t, "prefs")
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	for _, want := range []string{prefs.KeyImage, "https://example.com/cake.png", prefs.KeyMusic, "/music/song.mp3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("prefs output missing %q: %s", want, out)
		}
	}
}

func TestEmptyReferenceKeepsStoredValue(t *testing.T) {
	isolateXDG(t)
	if _, err := execute(t, "music", "/music/song.mp3"); err != nil {
		t.Fatalf("music: %v", err)
	}
	for _, args := range [][]string{{"music"}, {"music", ""}} {
		_, err := execute(t, args...)
		if !errors.Is(err, prefs.ErrEmptyValue) {
			t.Fatalf("expected input error for %v, got %v", args, err)
		}
	}
	out, err := execute(t, "prefs")
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	if !strings.Contains(out, "/music/song.mp3") {
		t.Fatalf("stored music lost: %s", out)
	}
}

func TestLoadPagesFallsBackToDefault(t *testing.T) {
	isolateXDG(t)
	got, err := loadPages("")
	if err != nil {
		t.Fatalf("load pages: %v", err)
	}
	if len(got) != len(pages.Default()) {
		t.Fatalf("expected default pages, got %d", len(got))
	}
	if _, err := loadPages(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for explicit missing page file")
	}
}

func TestLoadPagesUsesDefaultPath(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "config", "greetcard", "pages.txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("Only page\nbody\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := loadPages("")
	if err != nil {
		t.Fatalf("load pages: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Only page" {
		t.Fatalf("unexpected pages %+v", got)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.Config{Confetti: 50, TransitionDelay: 300 * time.Millisecond}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	noConfetti := valid
	noConfetti.Confetti = 0
	if err := validateConfig(noConfetti); err == nil {
		t.Fatalf("expected confetti error")
	}
	noDelay := valid
	noDelay.TransitionDelay = 0
	if err := validateConfig(noDelay); err == nil {
		t.Fatalf("expected delay error")
	}
}

func TestApplyDurationConfig(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var delay time.Duration
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "")

	value := "750ms"
	if err := applyDurationConfig(cmd, "delay", &delay, &value); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if delay != 750*time.Millisecond {
		t.Fatalf("expected config value, got %v", delay)
	}

	bad := "soon"
	if err := applyDurationConfig(cmd, "delay", &delay, &bad); err == nil {
		t.Fatalf("expected parse error")
	}

	if err := cmd.Flags().Set("delay", "2s"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := applyDurationConfig(cmd, "delay", &delay, &value); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if delay != 2*time.Second {
		t.Fatalf("flag should win over config, got %v", delay)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	isolateXDG(t)
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Card.Confetti != nil {
		t.Fatalf("template values should be commented out")
	}
	if _, err := execute(t, "prefs"); err != nil {
		t.Fatalf("prefs with template config: %v", err)
	}
}

func TestConfigCommandOpensBrokenConfig(t *testing.T) {
	isolateXDG(t)
	t.Setenv("EDITOR", "true")
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("[card]\nconfeti = 10\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := execute(t, "config"); err != nil {
		t.Fatalf("config should open a broken file: %v", err)
	}
	if _, err := execute(t, "prefs"); err == nil {
		t.Fatalf("expected other commands to reject the unknown key")
	}
}

func TestRunFlushesLogWhenCommandFails(t *testing.T) {
	isolateXDG(t)
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"image", "  "})
	if err := run(cmd); !errors.Is(err, prefs.ErrEmptyValue) {
		t.Fatalf("expected input error, got %v", err)
	}

	data, err := os.ReadFile(config.DefaultLogPath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "please provide a reference") {
		t.Fatalf("log missing input error: %s", data)
	}
}
