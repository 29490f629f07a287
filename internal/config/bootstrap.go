package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// EnsureUserConfig copies the shipped default config into the data dir
// the first time the engine runs, so users edit their own copy.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		// No default shipped alongside the binary: write an empty file
		// and let ApplyDefaults fill everything in.
		if werr := os.WriteFile(userPath, []byte("# jobscout config\n"), 0o644); werr != nil {
			return "", werr
		}
		return userPath, nil
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}
