package prefs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dialpad/internal/config"
	"dialpad/internal/debug"
)

const (
	// KeyLastUpdateCheck holds the Unix seconds of the last attempted update check.
	KeyLastUpdateCheck = "update.last-check"
	// KeyDebugLogs holds the debug popup's logging switch.
	KeyDebugLogs = config.KeyDebugLogs

	// DatabaseFileName is the default preferences database name inside ~/.dialpad.
	DatabaseFileName = "preferences.db"

	storeTimeout = 2 * time.Second
)

// Defaults are the values used when a preference has never been persisted.
type Defaults struct {
	CheckURL             string
	CheckIntervalSeconds int64
	CallRightAway        bool
	DebugPopupCode       string
	DebugLogs            bool
}

// DefaultsFromConfig reads fallback values from the layered configuration.
func DefaultsFromConfig() Defaults {
	return Defaults{
		CheckURL:             config.GetString(config.KeyUpdateCheckURL),
		CheckIntervalSeconds: config.GetInt64(config.KeyUpdateCheckInterval),
		CallRightAway:        config.GetBool(config.KeyCallRightAway),
		DebugPopupCode:       config.GetString(config.KeyDebugPopupCode),
		DebugLogs:            config.GetBool(config.KeyDebugLogs),
	}
}

// DefaultPath returns the preferences database location, honouring the
// preferences.path configuration key.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(config.GetString(config.KeyPreferencesPath)); p != "" {
		return p, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFileName), nil
}

// Preferences gives typed access to persisted values, falling back to Defaults.
// Read failures are logged and treated as "not set".
type Preferences struct {
	store    Store
	defaults Defaults
	log      debug.Logger
}

// New wraps store with typed accessors.
func New(store Store, defaults Defaults) *Preferences {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Preferences{
		store:    store,
		defaults: defaults,
		log:      debug.For("Preferences"),
	}
}

// Close closes the underlying store.
func (p *Preferences) Close() error {
	return p.store.Close()
}

// CheckUpdateURL returns the update descriptor URL, or "" when checks are disabled.
func (p *Preferences) CheckUpdateURL() string {
	if v, ok := p.lookup(config.KeyUpdateCheckURL); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(p.defaults.CheckURL)
}

// LastUpdateCheck returns the last check time in Unix seconds; 0 means never.
func (p *Preferences) LastUpdateCheck() int64 {
	return p.int64Value(KeyLastUpdateCheck, 0)
}

// SetLastUpdateCheck persists the last check time.
func (p *Preferences) SetLastUpdateCheck(ts int64) error {
	return p.put(KeyLastUpdateCheck, strconv.FormatInt(ts, 10))
}

// CheckUpdateInterval returns the minimum number of seconds between checks.
func (p *Preferences) CheckUpdateInterval() int64 {
	return p.int64Value(config.KeyUpdateCheckInterval, p.defaults.CheckIntervalSeconds)
}

// CallRightAway reports whether a URI passed to the dialer is called immediately.
func (p *Preferences) CallRightAway() bool {
	return p.boolValue(config.KeyCallRightAway, p.defaults.CallRightAway)
}

// DebugPopupCode returns the dialer entry that opens the debug popup.
func (p *Preferences) DebugPopupCode() string {
	if v, ok := p.lookup(config.KeyDebugPopupCode); ok && v != "" {
		return v
	}
	return p.defaults.DebugPopupCode
}

// DebugLogs reports whether debug logging is switched on.
func (p *Preferences) DebugLogs() bool {
	return p.boolValue(KeyDebugLogs, p.defaults.DebugLogs)
}

// SetDebugLogs persists the debug logging switch.
func (p *Preferences) SetDebugLogs(enabled bool) error {
	return p.put(KeyDebugLogs, strconv.FormatBool(enabled))
}

func (p *Preferences) lookup(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	v, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.log.Warnf("read %s failed: %v", key, err)
		}
		return "", false
	}
	return v, true
}

func (p *Preferences) put(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := p.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (p *Preferences) int64Value(key string, fallback int64) int64 {
	v, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		p.log.Warnf("ignoring malformed %s=%q", key, v)
		return fallback
	}
	return n
}

func (p *Preferences) boolValue(key string, fallback bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.log.Warnf("ignoring malformed %s=%q", key, v)
		return fallback
	}
	return b
}
