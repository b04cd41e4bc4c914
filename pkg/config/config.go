package config

import (
	"sync"
)

var (
	// globalManager is the process-wide configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// NewDefaultManager creates a manager over store with the automation,
// browsing and downloads sections registered and loaded.
func NewDefaultManager(store Store) (*Manager, error) {
	manager := NewManager(store)

	for _, section := range []Section{
		NewAutomationSection(),
		NewBrowsingSection(),
		NewDownloadsSection(),
	} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Initialize creates the global configuration manager backed by the JSON
// file at configPath (DefaultPath when empty).
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager, err := NewDefaultManager(store)
	if err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

func globalSection[T Section](id string) T {
	var zero T
	if !IsInitialized() {
		return zero
	}
	section, ok := Global().GetSection(id)
	if !ok {
		return zero
	}
	typed, ok := section.(T)
	if !ok {
		return zero
	}
	return typed
}

// GetAutomation returns the automation section from global config.
// Returns nil if config is not initialized.
func GetAutomation() *AutomationSection {
	return globalSection[*AutomationSection](SectionIDAutomation)
}

// GetBrowsing returns the browsing section from global config.
// Returns nil if config is not initialized.
func GetBrowsing() *BrowsingSection {
	return globalSection[*BrowsingSection](SectionIDBrowsing)
}

// GetDownloads returns the downloads section from global config.
// Returns nil if config is not initialized.
func GetDownloads() *DownloadsSection {
	return globalSection[*DownloadsSection](SectionIDDownloads)
}

// AutomationOf returns m's automation section, or defaults if unregistered.
func AutomationOf(m *Manager) *AutomationSection {
	if m != nil {
		if s, ok := m.GetSection(SectionIDAutomation); ok {
			if typed, ok := s.(*AutomationSection); ok {
				return typed
			}
		}
	}
	return NewAutomationSection()
}

// BrowsingOf returns m's browsing section, or defaults if unregistered.
func BrowsingOf(m *Manager) *BrowsingSection {
	if m != nil {
		if s, ok := m.GetSection(SectionIDBrowsing); ok {
			if typed, ok := s.(*BrowsingSection); ok {
				return typed
			}
		}
	}
	return NewBrowsingSection()
}

// DownloadsOf returns m's downloads section, or defaults if unregistered.
func DownloadsOf(m *Manager) *DownloadsSection {
	if m != nil {
		if s, ok := m.GetSection(SectionIDDownloads); ok {
			if typed, ok := s.(*DownloadsSection); ok {
				return typed
			}
		}
	}
	return NewDownloadsSection()
}
