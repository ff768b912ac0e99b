/*
Package preference persists the user's theme and rank choices.

PURPOSE:
  The calculator remembers two things between sessions: the colour theme
  and the last selected rank. Values are validated here; backends only
  store strings.

KEYS:
  theme   "dark" | "light" (default "light")
  rank    a rank name of the active rate table (default "")

A stored rank that no longer exists in the active table (for example after
switching to a fixed-rate table) reads back as "".

BACKENDS:
  - sqlite.Store: Durable storage for the server and CLI
  - Memory: In-process storage for tests and --no-db runs
*/
package preference

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/overtime-engine/allowance"
)

const (
	KeyTheme = "theme"
	KeyRank  = "rank"

	ThemeDark  = "dark"
	ThemeLight = "light"

	DefaultTheme = ThemeLight
)

var ErrUnknownPreference = errors.New("unknown preference")

// InvalidPreferenceError reports a value rejected for a known key.
type InvalidPreferenceError struct {
	Key    string
	Value  string
	Reason string
}

func (e *InvalidPreferenceError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Key, e.Value, e.Reason)
}

// Store is the persistence contract implemented by sqlite.Store and Memory.
type Store interface {
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
	ListPreferences(ctx context.Context) (map[string]string, error)
}

// Service validates preferences against the active rate table.
type Service struct {
	store Store
	table *allowance.RateTable
}

func NewService(store Store, table *allowance.RateTable) *Service {
	return &Service{store: store, table: table}
}

// Get returns the value for key, or its default when unset.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	value, ok, err := s.store.GetPreference(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	if !ok {
		return defaultFor(key), nil
	}
	if key == KeyRank && value != "" {
		if _, found := s.table.Rank(value); !found {
			return "", nil
		}
	}
	return value, nil
}

// Set validates and stores value for key.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	switch key {
	case KeyTheme:
		if value != ThemeDark && value != ThemeLight {
			return &InvalidPreferenceError{Key: key, Value: value, Reason: "must be dark or light"}
		}
	case KeyRank:
		if value != "" {
			rank, ok := s.table.Rank(value)
			if !ok {
				return &InvalidPreferenceError{Key: key, Value: value, Reason: "not a rank of " + s.table.ID}
			}
			value = rank.Name
		}
	}

	if err := s.store.SetPreference(ctx, key, value); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// All returns every known preference with defaults filled in.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, 2)
	for _, key := range []string{KeyTheme, KeyRank} {
		v, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// IsClientError returns true if err was caused by the caller's input.
func IsClientError(err error) bool {
	var invalid *InvalidPreferenceError
	return errors.Is(err, ErrUnknownPreference) || errors.As(err, &invalid)
}

func checkKey(key string) error {
	switch key {
	case KeyTheme, KeyRank:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownPreference, key)
}

func defaultFor(key string) string {
	if key == KeyTheme {
		return DefaultTheme
	}
	return ""
}
