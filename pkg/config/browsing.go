package config

import "sync"

const (
	// SectionIDBrowsing is the identifier for the browsing section
	SectionIDBrowsing = "browsing"

	defaultAdBlockEnabled    = true
	defaultAutoDetectEnabled = true
)

// BrowsingSection holds the default per-visit toggles.
type BrowsingSection struct {
	AdBlockEnabled    bool `json:"ad_block_enabled"`
	AutoDetectEnabled bool `json:"auto_detect_enabled"`
	mu                sync.RWMutex
}

// NewBrowsingSection creates a browsing section with default settings.
func NewBrowsingSection() *BrowsingSection {
	return &BrowsingSection{
		AdBlockEnabled:    defaultAdBlockEnabled,
		AutoDetectEnabled: defaultAutoDetectEnabled,
	}
}

// ID returns the section identifier.
func (s *BrowsingSection) ID() string {
	return SectionIDBrowsing
}

// Title returns the section title.
func (s *BrowsingSection) Title() string {
	return "Browsing"
}

// Description returns the section description.
func (s *BrowsingSection) Description() string {
	return "Default ad blocking and anime auto-detection behavior for new pages."
}

// Data returns the current configuration data.
func (s *BrowsingSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"ad_block_enabled":    s.AdBlockEnabled,
		"auto_detect_enabled": s.AutoDetectEnabled,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowsingSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "ad_block_enabled":
			s.AdBlockEnabled, err = boolValue(key, value)
		case "auto_detect_enabled":
			s.AutoDetectEnabled, err = boolValue(key, value)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowsingSection) Validate() error {
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowsingSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.AdBlockEnabled = defaultAdBlockEnabled
	s.AutoDetectEnabled = defaultAutoDetectEnabled
}

// Defaults returns (adBlock, autoDetect).
func (s *BrowsingSection) Defaults() (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AdBlockEnabled, s.AutoDetectEnabled
}
