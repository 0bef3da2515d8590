// Package settings persists the keyword configuration in a TOML file and
// notifies listeners when it changes on disk.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/bnema/content-shield/internal/models"
)

// Store is a viper-backed settings store. Keyword insertion is duplicate-free
// (case-insensitive) and preserves insertion order for display.
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// New creates a store persisted at path. The file does not need to exist;
// a missing file means first-run defaults.
func New(path string) *Store {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("keywords", []string{})
	v.SetDefault("filter_mode", string(models.DefaultMode))
	return &Store{v: v, path: path}
}

// Path returns the location of the settings file
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted settings. A missing file yields defaults.
// Unrecognized mode values degrade to the default mode.
func (s *Store) Load() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (models.Settings, error) {
	if err := s.v.ReadInConfig(); err != nil && !isNotFound(err) {
		return models.DefaultSettings(), fmt.Errorf("reading settings: %w", err)
	}

	out := models.Settings{Keywords: s.v.GetStringSlice("keywords")}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	out.FilterMode, _ = models.ParseMode(s.v.GetString("filter_mode"))
	return out, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || os.IsNotExist(err)
}

// Save writes settings to disk
func (s *Store) Save(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(settings)
}

func (s *Store) saveLocked(settings models.Settings) error {
	mode, ok := models.ParseMode(string(settings.FilterMode))
	if !ok {
		return fmt.Errorf("invalid filter mode: %q", settings.FilterMode)
	}

	s.v.Set("keywords", settings.Keywords)
	s.v.Set("filter_mode", string(mode))

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return s.v.WriteConfigAs(s.path)
}

// AddKeyword appends a keyword unless an equal one (case-insensitive) is
// already present. Reports whether the set changed.
func (s *Store) AddKeyword(kw string) (bool, error) {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return false, errors.New("empty keyword")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	for _, existing := range settings.Keywords {
		if strings.EqualFold(existing, kw) {
			return false, nil
		}
	}

	settings.Keywords = append(settings.Keywords, kw)
	return true, s.saveLocked(settings)
}

// AddKeywords adds each keyword in order, skipping duplicates, with a single
// write. Returns how many were added.
func (s *Store) AddKeywords(kws []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadLocked()
	if err != nil {
		return 0, err
	}

	added := 0
	for _, kw := range kws {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		dup := false
		for _, existing := range settings.Keywords {
			if strings.EqualFold(existing, kw) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		settings.Keywords = append(settings.Keywords, kw)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	return added, s.saveLocked(settings)
}

// RemoveKeyword deletes a keyword (case-insensitive). Reports whether the
// set changed.
func (s *Store) RemoveKeyword(kw string) (bool, error) {
	kw = strings.TrimSpace(kw)

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadLocked()
	if err != nil {
		return false, err
	}

	kept := settings.Keywords[:0]
	removed := false
	for _, existing := range settings.Keywords {
		if strings.EqualFold(existing, kw) {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return false, nil
	}

	settings.Keywords = kept
	return true, s.saveLocked(settings)
}

// SetMode changes the filter mode. Invalid values are rejected.
func (s *Store) SetMode(mode string) error {
	m, ok := models.ParseMode(mode)
	if !ok {
		return fmt.Errorf("invalid filter mode %q (want blur, censor or remove)", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadLocked()
	if err != nil {
		return err
	}
	settings.FilterMode = m
	return s.saveLocked(settings)
}

// Watch invokes fn whenever the settings file changes on disk
func (s *Store) Watch(fn func()) {
	s.v.OnConfigChange(func(fsnotify.Event) { fn() })
	s.v.WatchConfig()
}
