// Package notify provides transient status messages.
package notify

import (
	"sync"
	"time"
)

// DefaultDelay is how long a message stays visible.
const DefaultDelay = 3 * time.Second

// Notifier holds at most one message and clears it after a delay.
// A new message replaces the current one and restarts the delay.
type Notifier struct {
	mu       sync.Mutex
	delay    time.Duration
	text     string
	gen      uint64
	timer    *time.Timer
	onChange func(text string)
}

// New creates a Notifier. A non-positive delay uses DefaultDelay.
func New(delay time.Duration) *Notifier {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Notifier{delay: delay}
}

// OnChange registers fn to run after every show or clear.
func (n *Notifier) OnChange(fn func(text string)) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

// Notify shows text until the delay elapses or another Notify replaces it.
func (n *Notifier) Notify(text string) {
	n.mu.Lock()
	n.text = text
	n.gen++
	gen := n.gen
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.delay, func() { n.expire(gen) })
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.text = ""
	n.timer = nil
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn("")
	}
}

// Current returns the visible message, or "" when none.
func (n *Notifier) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text
}

// Stop cancels the pending clear without changing the message.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
