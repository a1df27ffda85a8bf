package errors

import (
	"net/url"
	"os"
	"strings"
)

// ValidateDirectory checks that path names an existing directory.
// It returns an ErrCodeInvalidPath error otherwise.
func ValidateDirectory(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "directory cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(ErrCodeInvalidPath, "directory does not exist: %s", path)
		}
		return Wrap(ErrCodeInvalidPath, err, "cannot access %s", path)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "not a directory: %s", path)
	}
	return nil
}

// ValidateServerURL validates an analyzer base URL.
// Only absolute http and https URLs with a host are accepted.
func ValidateServerURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidConfig, "server URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid server URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidConfig, "server URL must use http or https: %q", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidConfig, "server URL has no host: %q", raw)
	}
	return nil
}
