package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDAutomation is the identifier for the browser automation section
	SectionIDAutomation = "automation"

	// DefaultUserAgent is presented by every automated page.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36"

	defaultHeadless          = false
	DefaultNavigationTimeout = 60 * time.Second
	DefaultChallengeTimeout  = 10 * time.Minute
	DefaultWindowWidth       = 1366
	DefaultWindowHeight      = 768
)

// AutomationSection configures the controlled browser.
type AutomationSection struct {
	UserAgent         string        `json:"user_agent"`
	BrowserChannel    string        `json:"browser_channel"`
	NavigationTimeout time.Duration `json:"navigation_timeout"`
	ChallengeTimeout  time.Duration `json:"challenge_timeout"`
	WindowWidth       int           `json:"window_width"`
	WindowHeight      int           `json:"window_height"`
	Headless          bool          `json:"headless"`
	mu                sync.RWMutex
}

// NewAutomationSection creates an automation section with default settings.
func NewAutomationSection() *AutomationSection {
	s := &AutomationSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *AutomationSection) ID() string {
	return SectionIDAutomation
}

// Title returns the section title.
func (s *AutomationSection) Title() string {
	return "Browser Automation"
}

// Description returns the section description.
func (s *AutomationSection) Description() string {
	return "Configure the automated browser: visibility, user agent, window size and how long navigations and challenge waits may take."
}

// Data returns the current configuration data.
func (s *AutomationSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"headless":           s.Headless,
		"user_agent":         s.UserAgent,
		"browser_channel":    s.BrowserChannel,
		"navigation_timeout": s.NavigationTimeout.String(),
		"challenge_timeout":  s.ChallengeTimeout.String(),
		"window_width":       s.WindowWidth,
		"window_height":      s.WindowHeight,
	}
}

// SetData updates the configuration from the provided data.
func (s *AutomationSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "headless":
			s.Headless, err = boolValue(key, value)
		case "user_agent":
			s.UserAgent, err = stringValue(key, value)
		case "browser_channel":
			s.BrowserChannel, err = stringValue(key, value)
		case "navigation_timeout":
			s.NavigationTimeout, err = durationValue(key, value)
		case "challenge_timeout":
			s.ChallengeTimeout, err = durationValue(key, value)
		case "window_width":
			var n int64
			n, err = intValue(key, value)
			s.WindowWidth = int(n)
		case "window_height":
			var n int64
			n, err = intValue(key, value)
			s.WindowHeight = int(n)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *AutomationSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}
	if s.NavigationTimeout < time.Second {
		return fmt.Errorf("navigation_timeout must be at least 1s, got %v", s.NavigationTimeout)
	}
	// Zero disables the challenge timeout.
	if s.ChallengeTimeout < 0 {
		return fmt.Errorf("challenge_timeout cannot be negative, got %v", s.ChallengeTimeout)
	}
	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", s.WindowWidth, s.WindowHeight)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *AutomationSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = defaultHeadless
	s.UserAgent = DefaultUserAgent
	s.BrowserChannel = ""
	s.NavigationTimeout = DefaultNavigationTimeout
	s.ChallengeTimeout = DefaultChallengeTimeout
	s.WindowWidth = DefaultWindowWidth
	s.WindowHeight = DefaultWindowHeight
}

// Snapshot returns a copy of the settings that is safe to read without locking.
func (s *AutomationSection) Snapshot() AutomationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return AutomationSettings{
		Headless:          s.Headless,
		UserAgent:         s.UserAgent,
		BrowserChannel:    s.BrowserChannel,
		NavigationTimeout: s.NavigationTimeout,
		ChallengeTimeout:  s.ChallengeTimeout,
		WindowWidth:       s.WindowWidth,
		WindowHeight:      s.WindowHeight,
	}
}

// SetHeadless toggles headless mode.
func (s *AutomationSection) SetHeadless(headless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = headless
}

// SetNavigationTimeout sets the per-navigation wait bound.
func (s *AutomationSection) SetNavigationTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NavigationTimeout = d
}

// AutomationSettings is an immutable copy of AutomationSection.
type AutomationSettings struct {
	UserAgent         string
	BrowserChannel    string
	NavigationTimeout time.Duration
	ChallengeTimeout  time.Duration
	WindowWidth       int
	WindowHeight      int
	Headless          bool
}
