package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName    = ".peacock"
	dataDirEnvVar = "PEACOCK_DATA_DIR"
)

// DataDir returns the base data directory. PEACOCK_DATA_DIR overrides ~/.peacock.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(dataDirEnvVar)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}

// ConfigPath returns the path to the TOML settings file.
func ConfigPath() (string, error) {
	return dataPath("config.toml")
}

// TokenPath returns the path of the durable credential file used by the file backend.
func TokenPath() (string, error) {
	return dataPath("token")
}

// SessionTokenPath returns the path of the short-lived credential file used by the file backend.
func SessionTokenPath() (string, error) {
	return dataPath("session.json")
}

// DBPath returns the path to the bbolt database holding persisted credentials.
func DBPath() (string, error) {
	return dataPath("peacock.db")
}

// LogPath returns the path to the CLI and UI log file.
func LogPath() (string, error) {
	return dataPath("peacock.log")
}
