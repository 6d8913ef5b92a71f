package main

import (
	"context"
	"sync"

	"dialpad/internal/debug"
	"dialpad/internal/dialer"
	"dialpad/internal/engine"
	apperrors "dialpad/internal/errors"
	"dialpad/internal/nav"
	"dialpad/internal/prefs"
	"dialpad/internal/ui"
	"dialpad/internal/update"
)

type sessionOptions struct {
	Args  dialer.Args
	Debug bool

	// EngineOptions are appended after the defaults.
	EngineOptions []engine.Option
	// UI is applied to the screen config before it is built.
	UI func(*ui.Config)
}

// session owns everything that lives for one run of the dialer.
type session struct {
	prefs  *prefs.Preferences
	core   *engine.Core
	router *nav.Router
	app    *ui.App

	mu        sync.Mutex
	requested []nav.Destination
}

func newSession(ctx context.Context, opts sessionOptions) (_ *session, err error) {
	path, err := prefs.DefaultPath()
	if err != nil {
		return nil, apperrors.New(apperrors.CodePreferencesFailed, "locate preferences", err)
	}
	store, err := prefs.OpenSQLite(ctx, path)
	if err != nil {
		return nil, apperrors.New(apperrors.CodePreferencesFailed, "open preferences", err)
	}
	p := prefs.New(store, prefs.DefaultsFromConfig())
	s := &session{prefs: p, router: nav.NewRouter()}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if err := debug.Init(opts.Debug || p.DebugLogs()); err != nil {
		return nil, apperrors.New(apperrors.CodeConfigurationError, "start debug log", err)
	}
	debug.Logf("dialpad %s starting, preferences at %s", Version, store.Path())

	engineOpts := append([]engine.Option{engine.WithURLSource(p)}, opts.EngineOptions...)
	core, err := engine.New(engine.ConfigFromSettings(), engineOpts...)
	if err != nil {
		return nil, err
	}
	s.core = core

	// Contacts live outside the dialer; the request is reported on exit.
	s.router.Handle(nav.ContactNew, func(dest nav.Destination) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.requested = append(s.requested, dest)
		return nil
	})

	cfg := ui.Config{
		Dialer:      dialer.NewViewModel(core, p),
		Shared:      &dialer.SharedState{},
		Args:        opts.Args,
		Throttle:    update.NewThrottle(p, core, Version),
		Preferences: p,
		Navigator:   s.router,
		CallUpdates: core.CallUpdates(),
		Version:     Version,
	}
	if opts.UI != nil {
		opts.UI(&cfg)
	}
	app, err := ui.NewApp(cfg)
	if err != nil {
		return nil, err
	}
	s.app = app
	return s, nil
}

// Requested returns the destinations opened during the run.
func (s *session) Requested() []nav.Destination {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]nav.Destination, len(s.requested))
	copy(out, s.requested)
	return out
}

// Close shuts the engine down, then the preferences store and the debug log.
func (s *session) Close() {
	if s.core != nil {
		if err := s.core.Close(); err != nil {
			debug.Logf("engine close: %v", err)
		}
	}
	if s.prefs != nil {
		_ = s.prefs.Close()
	}
	debug.Close()
}
