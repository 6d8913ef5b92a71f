package update

import (
	"strings"
	"time"

	"dialpad/internal/debug"
)

// Settings is the persisted state the throttle reads and writes.
type Settings interface {
	CheckUpdateURL() string
	LastUpdateCheck() int64
	CheckUpdateInterval() int64
	SetLastUpdateCheck(ts int64) error
}

// Requester starts an asynchronous update check. The result, if any, is
// delivered later through the engine's update mailbox.
type Requester interface {
	CheckForUpdate(version string)
}

// Decision is the outcome of Decide.
type Decision int

const (
	// SkipNoURL means update checks are not configured.
	SkipNoURL Decision = iota
	// SkipTooSoon means the interval since the last check has not elapsed.
	SkipTooSoon
	// CheckNow means a check should be requested.
	CheckNow
)

func (d Decision) String() string {
	switch d {
	case SkipNoURL:
		return "skip-no-url"
	case SkipTooSoon:
		return "skip-too-soon"
	case CheckNow:
		return "check"
	default:
		return "unknown"
	}
}

// Decide reports whether a check is due at now (Unix seconds).
// A zero last-check timestamp means no check was ever made. A URL of only
// whitespace counts as absent.
func Decide(url string, last, interval, now int64) Decision {
	if strings.TrimSpace(url) == "" {
		return SkipNoURL
	}
	if last == 0 || now-last >= interval {
		return CheckNow
	}
	return SkipTooSoon
}

// Throttle limits update checks to one per configured interval.
// It is driven from the UI loop and is not safe for concurrent use.
type Throttle struct {
	settings  Settings
	requester Requester
	version   string
	log       debug.Logger
}

// NewThrottle wires a throttle to its settings and the engine requester.
func NewThrottle(settings Settings, requester Requester, version string) *Throttle {
	return &Throttle{
		settings:  settings,
		requester: requester,
		version:   version,
		log:       debug.For("UpdateThrottle"),
	}
}

// MaybeCheck requests an update check if one is due and records now as the
// last check time. The timestamp is written whenever a check is requested,
// whatever the remote outcome turns out to be. It reports whether a check
// was requested.
func (t *Throttle) MaybeCheck(now time.Time) bool {
	ts := now.Unix()
	last := t.settings.LastUpdateCheck()
	interval := t.settings.CheckUpdateInterval()

	switch Decide(t.settings.CheckUpdateURL(), last, interval, ts) {
	case SkipNoURL:
		return false
	case CheckNow:
		t.log.Logf("requesting update check (last=%d interval=%d now=%d)", last, interval, ts)
		t.requester.CheckForUpdate(t.version)
		if err := t.settings.SetLastUpdateCheck(ts); err != nil {
			t.log.Warnf("failed to store last update check: %v", err)
		}
		return true
	default:
		t.log.Logf("update check not due (last=%d interval=%d now=%d)", last, interval, ts)
		return false
	}
}
