// Package engine is the calling engine behind the dialer: it places, transfers
// and hangs up one SIP call at a time, checks for application updates and
// uploads debug logs. Results of background work are delivered through
// single-observer mailboxes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/prometheus/client_golang/prometheus"

	"dialpad/internal/config"
	"dialpad/internal/debug"
	apperrors "dialpad/internal/errors"
	"dialpad/internal/event"
	"dialpad/internal/update"
)

const byeTimeout = 5 * time.Second

// Config holds engine settings.
type Config struct {
	SIP               SIPConfig
	UpdateTimeout     time.Duration
	LogsUploadURL     string
	VideoAutoInitiate bool
}

// ConfigFromSettings reads engine settings from the layered configuration.
func ConfigFromSettings() Config {
	return Config{
		SIP: SIPConfig{
			Username:    config.GetString(config.KeySIPUsername),
			DisplayName: config.GetString(config.KeySIPDisplayName),
			Domain:      config.GetString(config.KeySIPDomain),
			Hostname:    config.GetString(config.KeySIPHostname),
			Transport:   config.GetString(config.KeySIPTransport),
		},
		UpdateTimeout:     config.GetDuration(config.KeyUpdateTimeout),
		LogsUploadURL:     config.GetString(config.KeyLogsUploadURL),
		VideoAutoInitiate: config.GetBool(config.KeyVideoAutoInitiate),
	}
}

// UpdateChecker fetches and compares an update descriptor.
type UpdateChecker interface {
	Check(ctx context.Context, url, currentVersion string) (*update.Info, error)
}

// URLSource supplies the update descriptor URL at check time.
type URLSource interface {
	CheckUpdateURL() string
}

// Option configures a Core.
type Option func(*Core)

// WithSignaler replaces the SIP signaler.
func WithSignaler(s Signaler) Option {
	return func(c *Core) {
		c.signaler = s
	}
}

// WithChecker replaces the update checker.
func WithChecker(ch UpdateChecker) Option {
	return func(c *Core) {
		c.checker = ch
	}
}

// WithHTTPClient sets the client used for log uploads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Core) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRegistry registers engine metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Core) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithURLSource sets where the update descriptor URL is read from.
func WithURLSource(src URLSource) Option {
	return func(c *Core) {
		c.urls = src
	}
}

// WithLogPath overrides how the debug log file is located for uploads.
func WithLogPath(fn func() (string, error)) Option {
	return func(c *Core) {
		if fn != nil {
			c.logPath = fn
		}
	}
}

// Core is the calling engine.
type Core struct {
	cfg        Config
	signaler   Signaler
	checker    UpdateChecker
	httpClient *http.Client
	registry   *prometheus.Registry
	metrics    *Metrics
	urls       URLSource
	logPath    func() (string, error)
	log        debug.Logger

	updateAvailable *event.Mailbox[update.Notice]
	uploadFinished  *event.Mailbox[string]
	callUpdates     *event.Mailbox[CallUpdate]

	mu         sync.Mutex
	machine    *fsm.FSM
	remote     string
	lastErr    error
	cancelCall context.CancelFunc
	// callGen identifies the newest call; results of older attempts are ignored.
	callGen uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New builds a Core. Without WithSignaler a SIPSignaler is created from cfg.SIP.
func New(cfg Config, opts ...Option) (*Core, error) {
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = update.DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Core{
		cfg:             cfg,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		logPath:         debug.GetLogPath,
		log:             debug.For("Engine"),
		updateAvailable: event.NewMailbox[update.Notice](1),
		uploadFinished:  event.NewMailbox[string](1),
		callUpdates:     event.NewMailbox[CallUpdate](8),
		ctx:             ctx,
		cancel:          cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	c.metrics = newMetrics(c.registry)
	if c.checker == nil {
		c.checker = update.NewChecker(
			update.WithTimeout(cfg.UpdateTimeout),
			update.WithUserAgent(userAgentName),
		)
	}
	if c.signaler == nil {
		s, err := NewSIPSignaler(cfg.SIP)
		if err != nil {
			cancel()
			return nil, apperrors.New(apperrors.CodeSignalingFailed, "failed to start SIP stack", err)
		}
		c.signaler = s
	}
	c.machine = newCallMachine(c.onStateChange)
	return c, nil
}

// UpdateAvailable delivers update notices to the active dialer screen.
func (c *Core) UpdateAvailable() *event.Mailbox[update.Notice] {
	return c.updateAvailable
}

// UploadFinished delivers the URL of an uploaded debug log.
func (c *Core) UploadFinished() *event.Mailbox[string] {
	return c.uploadFinished
}

// CallUpdates delivers call state changes.
func (c *Core) CallUpdates() *event.Mailbox[CallUpdate] {
	return c.callUpdates
}

// Registry exposes the engine metrics.
func (c *Core) Registry() *prometheus.Registry {
	return c.registry
}

// Metrics returns the engine counters.
func (c *Core) Metrics() *Metrics {
	return c.metrics
}

// VideoAutoInitiate reports the engine's video activation policy.
func (c *Core) VideoAutoInitiate() bool {
	return c.cfg.VideoAutoInitiate
}

// State returns the current call state.
func (c *Core) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CallState(c.machine.Current())
}

// Call dials address. It returns once the attempt has started; progress is
// reported through CallUpdates.
func (c *Core) Call(ctx context.Context, address string) error {
	target, err := NormalizeAddress(address, c.cfg.SIP.Domain)
	if err != nil {
		c.metrics.CallsFailed.Inc()
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.New(apperrors.CodeSignalingFailed, "engine is shut down", nil)
	}
	if !c.machine.Can(evDial) {
		state := c.machine.Current()
		c.mu.Unlock()
		return apperrors.New(apperrors.CodeCallInProgress, fmt.Sprintf("a call is already %s", state), nil)
	}
	c.remote = target
	c.lastErr = nil
	if err := c.machine.Event(ctx, evDial); err != nil {
		c.mu.Unlock()
		return apperrors.New(apperrors.CodeSignalingFailed, "failed to start call", err)
	}
	callCtx, cancel := context.WithCancel(c.ctx)
	c.cancelCall = cancel
	c.callGen++
	gen := c.callGen
	c.wg.Add(1)
	c.mu.Unlock()

	c.metrics.CallsStarted.Inc()
	c.log.With("target", target).Logf("call started")

	go func() {
		defer c.wg.Done()
		defer cancel()
		c.runCall(callCtx, gen, target)
	}()
	return nil
}

func (c *Core) runCall(ctx context.Context, gen uint64, target string) {
	err := c.signaler.Invite(ctx, target, func(p Progress) {
		switch p {
		case ProgressRinging:
			c.fireFor(gen, evRing, nil)
		case ProgressAnswered:
			c.fireFor(gen, evAnswer, nil)
		}
	})
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		// Hung up or shut down while dialing.
		c.fireFor(gen, evEnd, nil)
		return
	}
	c.metrics.CallsFailed.Inc()
	c.log.Warnf("call to %s failed: %v", target, err)
	c.fireFor(gen, evEnd, apperrors.New(apperrors.CodeSignalingFailed, "call failed: "+err.Error(), err))
}

// Transfer sends the active call to address.
func (c *Core) Transfer(ctx context.Context, address string) error {
	target, err := NormalizeAddress(address, c.cfg.SIP.Domain)
	if err != nil {
		return err
	}
	if state := c.State(); state != StateActive {
		return apperrors.New(apperrors.CodeNoActiveCall, fmt.Sprintf("cannot transfer while %s", state), nil)
	}

	if err := c.signaler.Refer(ctx, target); err != nil {
		return apperrors.New(apperrors.CodeSignalingFailed, "transfer failed", err)
	}
	c.metrics.Transfers.Inc()
	c.log.With("target", target).Logf("call transferred")

	byeCtx, cancel := context.WithTimeout(ctx, byeTimeout)
	defer cancel()
	if err := c.signaler.Bye(byeCtx); err != nil {
		c.log.Warnf("BYE after transfer failed: %v", err)
	}
	c.fire(evEnd, nil)
	return nil
}

// Hangup ends the current call, abandoning it if it was not answered yet.
func (c *Core) Hangup(ctx context.Context) error {
	c.mu.Lock()
	state := CallState(c.machine.Current())
	cancel := c.cancelCall
	c.mu.Unlock()

	switch state {
	case StateDialing, StateRinging:
		if cancel != nil {
			cancel()
		}
		c.fire(evEnd, nil)
		return nil
	case StateActive:
		err := c.signaler.Bye(ctx)
		c.fire(evEnd, nil)
		if err != nil {
			return apperrors.New(apperrors.CodeSignalingFailed, "hang up failed", err)
		}
		return nil
	default:
		return apperrors.New(apperrors.CodeNoActiveCall, "no call to hang up", nil)
	}
}

func (c *Core) fire(ev string, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fireLocked(ev, cause)
}

// fireFor applies ev only while gen is still the newest call, so a late
// result from an abandoned attempt cannot end the call that replaced it.
func (c *Core) fireFor(gen uint64, ev string, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.callGen {
		c.log.Logf("ignoring %s from superseded call", ev)
		return
	}
	c.fireLocked(ev, cause)
}

func (c *Core) fireLocked(ev string, cause error) {
	if !c.machine.Can(ev) {
		return
	}
	c.lastErr = cause
	_ = c.machine.Event(context.Background(), ev)
}

// onStateChange runs inside machine.Event with c.mu held.
func (c *Core) onStateChange(from, to CallState) {
	c.metrics.StateTransitions.WithLabelValues(string(from), string(to)).Inc()
	c.callUpdates.Post(CallUpdate{From: from, State: to, Remote: c.remote, Err: c.lastErr})
}

// Close stops background work, abandons any call and releases the signaler.
func (c *Core) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	state := CallState(c.machine.Current())
	c.mu.Unlock()

	if state == StateActive {
		ctx, cancel := context.WithTimeout(context.Background(), byeTimeout)
		_ = c.signaler.Bye(ctx)
		cancel()
	}
	c.cancel()
	c.wg.Wait()
	return c.signaler.Close()
}

// spawn runs fn in a tracked goroutine unless the engine is closed.
func (c *Core) spawn(fn func(ctx context.Context)) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
	return true
}

func (c *Core) updateURL() string {
	if c.urls != nil {
		return strings.TrimSpace(c.urls.CheckUpdateURL())
	}
	return strings.TrimSpace(config.GetString(config.KeyUpdateCheckURL))
}

// IsCancelled reports whether err came from an abandoned call attempt.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
