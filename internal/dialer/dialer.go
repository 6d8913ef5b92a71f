// Package dialer holds the dialer screen's state and the actions behind its
// keypad and buttons, independent of how the screen is drawn.
package dialer

import (
	"context"
	"strings"
	"unicode/utf8"

	"dialpad/internal/debug"
	"dialpad/internal/engine"
	"dialpad/internal/event"
	"dialpad/internal/nav"
	"dialpad/internal/update"
)

// Engine is the part of the calling engine the dialer drives.
type Engine interface {
	Call(ctx context.Context, address string) error
	Transfer(ctx context.Context, address string) error
	Hangup(ctx context.Context) error
	UploadLogs()
	VideoAutoInitiate() bool
	State() engine.CallState
	UpdateAvailable() *event.Mailbox[update.Notice]
	UploadFinished() *event.Mailbox[string]
}

// Preferences supplies the values the dialer reads on every keystroke.
type Preferences interface {
	DebugPopupCode() string
	CallRightAway() bool
}

// SharedState lives for the whole program and is visible to every screen.
type SharedState struct {
	// PendingCallTransfer is set when the in-call screen opened the dialer to
	// pick a transfer target.
	PendingCallTransfer bool
}

// Args are the optional inputs a screen passes when opening the dialer.
// A nil field means the argument was not supplied.
type Args struct {
	Transfer          *bool
	URI               *string
	SkipAutoCallStart bool
}

// ViewModel is the dialer's observable state.
type ViewModel struct {
	EnteredURI        string
	TransferVisible   bool
	AutoInitiateVideo bool

	engine     Engine
	prefs      Preferences
	lastCalled string
	log        debug.Logger
}

// NewViewModel binds a view-model to the engine and preferences.
func NewViewModel(e Engine, p Preferences) *ViewModel {
	return &ViewModel{
		engine: e,
		prefs:  p,
		log:    debug.For("Dialer"),
	}
}

// SetEnteredURI replaces the entry. When the new value is the debug popup
// code the entry is cleared and true is returned so the screen can open the
// debug popup.
func (vm *ViewModel) SetEnteredURI(v string) bool {
	vm.EnteredURI = v
	code := vm.prefs.DebugPopupCode()
	if code != "" && v == code {
		vm.log.Logf("debug popup code entered")
		vm.EnteredURI = ""
		return true
	}
	return false
}

// Append adds keypad input to the entry.
func (vm *ViewModel) Append(s string) bool {
	return vm.SetEnteredURI(vm.EnteredURI + s)
}

// EraseLastChar removes the last rune of the entry.
func (vm *ViewModel) EraseLastChar() {
	if vm.EnteredURI == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(vm.EnteredURI)
	vm.EnteredURI = vm.EnteredURI[:len(vm.EnteredURI)-size]
}

// EraseAll clears the entry.
func (vm *ViewModel) EraseAll() {
	vm.EnteredURI = ""
}

// StartCall calls the entered address. With an empty entry it recalls the
// last dialed address into the entry instead of calling.
func (vm *ViewModel) StartCall(ctx context.Context) error {
	address := strings.TrimSpace(vm.EnteredURI)
	if address == "" {
		vm.EnteredURI = vm.lastCalled
		return nil
	}
	if err := vm.engine.Call(ctx, address); err != nil {
		return err
	}
	vm.log.With("uri", address).Logf("call started from dialer")
	vm.lastCalled = address
	vm.EraseAll()
	return nil
}

// DirectCall calls address without touching the entry.
func (vm *ViewModel) DirectCall(ctx context.Context, address string) error {
	if err := vm.engine.Call(ctx, address); err != nil {
		return err
	}
	vm.lastCalled = strings.TrimSpace(address)
	return nil
}

// TransferTarget returns the address a transfer would go to. With an empty
// entry it recalls the last dialed address like StartCall and reports false.
func (vm *ViewModel) TransferTarget() (string, bool) {
	address := strings.TrimSpace(vm.EnteredURI)
	if address == "" {
		vm.EnteredURI = vm.lastCalled
		return "", false
	}
	return address, true
}

// Transfer hands the active call to address. It only talks to the engine,
// so it may run off the UI loop.
func (vm *ViewModel) Transfer(ctx context.Context, address string) error {
	if err := vm.engine.Transfer(ctx, address); err != nil {
		return err
	}
	vm.log.With("uri", address).Logf("call transferred from dialer")
	return nil
}

// Hangup ends the current call.
func (vm *ViewModel) Hangup(ctx context.Context) error {
	return vm.engine.Hangup(ctx)
}

// UploadLogs asks the engine to upload the debug log.
func (vm *ViewModel) UploadLogs() {
	vm.engine.UploadLogs()
}

// CallState reports the engine's call state.
func (vm *ViewModel) CallState() engine.CallState {
	return vm.engine.State()
}

// NewContactDestination is where the "new contact" button navigates.
func (vm *ViewModel) NewContactDestination() nav.Destination {
	return nav.NewContact(vm.EnteredURI)
}

// RefreshVideoPolicy mirrors the engine's video auto-initiate policy.
func (vm *ViewModel) RefreshVideoPolicy() {
	vm.AutoInitiateVideo = vm.engine.VideoAutoInitiate()
}

// UpdateAvailable is the engine's update notice mailbox.
func (vm *ViewModel) UpdateAvailable() *event.Mailbox[update.Notice] {
	return vm.engine.UpdateAvailable()
}

// UploadFinished is the engine's log upload mailbox.
func (vm *ViewModel) UploadFinished() *event.Mailbox[string] {
	return vm.engine.UploadFinished()
}

// ArgsResult tells the screen what applying Args did.
type ArgsResult struct {
	// Called is true when the URI argument was dialed immediately.
	Called bool
	// DebugPopup is true when the URI argument was the debug popup code.
	DebugPopup bool
}

// ApplyArgs processes the arguments the dialer was opened with, then mirrors
// the shared transfer flag into TransferVisible. The error, if any, comes
// from an immediate call.
func (vm *ViewModel) ApplyArgs(ctx context.Context, args Args, shared *SharedState) (ArgsResult, error) {
	var res ArgsResult
	if args.Transfer != nil {
		shared.PendingCallTransfer = *args.Transfer
		vm.log.Logf("pending call transfer: %t", shared.PendingCallTransfer)
	}

	var err error
	if args.URI != nil {
		address := *args.URI
		if vm.prefs.CallRightAway() && !args.SkipAutoCallStart {
			vm.log.With("uri", address).Logf("call right away is enabled, starting call")
			res.Called = true
			err = vm.DirectCall(ctx, address)
		} else {
			res.DebugPopup = vm.SetEnteredURI(address)
		}
	}

	vm.TransferVisible = shared.PendingCallTransfer
	return res, err
}

// ConsumeTransfer clears the pending transfer once a transfer was attempted.
func (vm *ViewModel) ConsumeTransfer(shared *SharedState) {
	shared.PendingCallTransfer = false
	vm.TransferVisible = false
}
