package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SectionIDDownloads is the identifier for the downloads section
const SectionIDDownloads = "downloads"

// DownloadsSection configures where and how fast media is downloaded.
type DownloadsSection struct {
	DownloadPath string `json:"download_path"`
	// RateLimit is in bytes per second; 0 means unlimited.
	RateLimit int64 `json:"rate_limit"`
	mu        sync.RWMutex
}

// DefaultDownloadPath returns ~/Downloads/AniStream, or ./downloads when the
// home directory is unknown.
func DefaultDownloadPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(homeDir, "Downloads", "AniStream")
}

// NewDownloadsSection creates a downloads section with default settings.
func NewDownloadsSection() *DownloadsSection {
	return &DownloadsSection{DownloadPath: DefaultDownloadPath()}
}

// ID returns the section identifier.
func (s *DownloadsSection) ID() string {
	return SectionIDDownloads
}

// Title returns the section title.
func (s *DownloadsSection) Title() string {
	return "Downloads"
}

// Description returns the section description.
func (s *DownloadsSection) Description() string {
	return "Destination directory and bandwidth limit for episode downloads."
}

// Data returns the current configuration data.
func (s *DownloadsSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"download_path": s.DownloadPath,
		"rate_limit":    s.RateLimit,
	}
}

// SetData updates the configuration from the provided data. A leading "~/"
// in download_path is expanded.
func (s *DownloadsSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "download_path":
			path, err := stringValue(key, value)
			if err != nil {
				return err
			}
			s.DownloadPath = expandHome(path)
		case "rate_limit":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.RateLimit = n
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *DownloadsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(s.DownloadPath) == "" {
		return fmt.Errorf("download_path cannot be empty")
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %d", s.RateLimit)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *DownloadsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DownloadPath = DefaultDownloadPath()
	s.RateLimit = 0
}

// Settings returns (downloadPath, rateLimit).
func (s *DownloadsSection) Settings() (string, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DownloadPath, s.RateLimit
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
