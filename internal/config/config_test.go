package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for env := range envKeys {
		t.Setenv(env, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, cfg.Render.UseTabs)
	assert.True(t, cfg.Render.UseTableView)
	assert.False(t, cfg.Render.TwoColumnLayout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
port: 9090
schema_dir: /etc/forms
log:
  level: debug
sessions:
  idle: 5m
render:
  two_column_layout: true
  use_tabs: "false"
`)
	clearEnv(t)
	t.Setenv("FORMS_LOG_FORMAT", "console")
	t.Setenv("FORMS_SESSION_MAX_AGE", "2h")
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Port = 7000
	want.SchemaDir = "/etc/forms"
	want.Log = LogConfig{Level: "debug", Format: "console"}
	want.Sessions.Idle = 5 * time.Minute
	want.Sessions.MaxAge = 2 * time.Hour
	want.Render.TwoColumnLayout = true
	want.Render.UseTabs = false
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "colour: blue\n"},
		{"bad duration", "sessions:\n  idle: soon\n"},
		{"port out of range", "port: 70000\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"not yaml", "port: [\n"},
	}
	clearEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
