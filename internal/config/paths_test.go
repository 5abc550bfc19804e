package config

import (
	"path/filepath"
	"testing"
)

func TestPathsUnderHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	t.Setenv(dataDirEnvVar, "")

	cases := map[string]func() (string, error){
		"config.toml":  ConfigPath,
		"token":        TokenPath,
		"session.json": SessionTokenPath,
		"peacock.db":   DBPath,
		"peacock.log":  LogPath,
	}
	for name, fn := range cases {
		got, err := fn()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if want := filepath.Join(home, ".peacock", name); got != want {
			t.Fatalf("unexpected path: got=%q want=%q", got, want)
		}
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(dataDirEnvVar, dir)
	got, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if got != dir {
		t.Fatalf("expected override %q, got %q", dir, got)
	}
}
