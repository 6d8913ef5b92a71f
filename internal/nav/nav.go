// Package nav models screen-to-screen navigation as structured destinations
// instead of URL strings.
package nav

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "dialpad/internal/errors"
)

// Target names a screen reachable from the dialer.
type Target string

const (
	// ContactNew opens the contact editor prefilled with a SIP address.
	ContactNew Target = "contact/new"
	// History shows the call log.
	History Target = "history"
	// ActiveCall shows the in-call screen.
	ActiveCall Target = "call/active"
)

// ParamURI is the parameter carrying a SIP address.
const ParamURI = "uri"

// Destination is a target plus its parameters.
type Destination struct {
	Target Target
	Params map[string]string
}

// NewContact builds the destination for creating a contact from uri.
func NewContact(uri string) Destination {
	return Destination{
		Target: ContactNew,
		Params: map[string]string{ParamURI: uri},
	}
}

// Param returns a parameter or "".
func (d Destination) Param(key string) string {
	if d.Params == nil {
		return ""
	}
	return d.Params[key]
}

// String renders the destination for logs, e.g. "contact/new?uri=sip:bob@example.com".
func (d Destination) String() string {
	if len(d.Params) == 0 {
		return string(d.Target)
	}
	keys := make([]string, 0, len(d.Params))
	for k := range d.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+d.Params[k])
	}
	return string(d.Target) + "?" + strings.Join(parts, "&")
}

// Handler opens a destination.
type Handler func(Destination) error

// Router dispatches destinations to registered handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[Target]Handler
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[Target]Handler)}
}

// Handle registers h for target, replacing any previous handler.
func (r *Router) Handle(target Target, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[target] = h
}

// Navigate opens dest. It fails with CodeNoRoute when nothing handles the target.
func (r *Router) Navigate(dest Destination) error {
	r.mu.RLock()
	h, ok := r.handlers[dest.Target]
	r.mu.RUnlock()
	if !ok || h == nil {
		return apperrors.New(apperrors.CodeNoRoute, fmt.Sprintf("no screen registered for %s", dest.Target), nil)
	}
	return h(dest)
}
