// Package event carries values from background work to the single screen
// that is currently observing them. Each value is handled at most once and
// nothing is replayed to observers that subscribe later.
package event

import "sync"

// Event wraps a value that may be consumed only once.
type Event[T any] struct {
	mu       sync.Mutex
	value    T
	consumed bool
}

// New wraps v in an unconsumed Event.
func New[T any](v T) *Event[T] {
	return &Event[T]{value: v}
}

// Consume runs fn with the wrapped value unless the event was already
// consumed. It reports whether fn ran.
func (e *Event[T]) Consume(fn func(T)) bool {
	e.mu.Lock()
	if e.consumed {
		e.mu.Unlock()
		return false
	}
	e.consumed = true
	v := e.value
	e.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	return true
}

// Consumed reports whether the event has already been handled.
func (e *Event[T]) Consumed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.consumed
}

const defaultBuffer = 4

// Mailbox delivers events to at most one live subscriber.
// Posting without a subscriber drops the event.
type Mailbox[T any] struct {
	mu     sync.Mutex
	ch     chan *Event[T]
	gen    uint64
	buffer int
}

// NewMailbox returns a Mailbox whose subscriptions buffer up to buffer
// pending events. A non-positive buffer uses a small default.
func NewMailbox[T any](buffer int) *Mailbox[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Mailbox[T]{buffer: buffer}
}

// Subscribe registers the caller as the only observer, replacing any previous
// one (whose channel is closed). The returned cancel func is idempotent and
// only detaches this subscription.
func (m *Mailbox[T]) Subscribe() (<-chan *Event[T], func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch != nil {
		close(m.ch)
	}
	m.gen++
	gen := m.gen
	ch := make(chan *Event[T], m.buffer)
	m.ch = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.gen == gen && m.ch != nil {
				close(m.ch)
				m.ch = nil
			}
		})
	}
	return ch, cancel
}

// Post hands v to the current subscriber without blocking. It returns false
// when the event was dropped because nobody is subscribed or the subscriber
// is not keeping up.
func (m *Mailbox[T]) Post(v T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch == nil {
		return false
	}
	select {
	case m.ch <- New(v):
		return true
	default:
		return false
	}
}
