package reply

import (
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned by Tracker.Begin while another reply is in flight.
var ErrBusy = errors.New("a reply is already pending")

// State describes the pending indicator.
type State struct {
	Pending        bool
	ConversationID string
	Since          time.Time
}

// Tracker allows one outstanding request at a time and tells subscribers
// when the pending indicator should be shown or hidden.
type Tracker struct {
	mu      sync.Mutex
	current *Pending
	subs    []func(State)
	now     func() time.Time
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Pending is a single in-flight request.
type Pending struct {
	t    *Tracker
	once sync.Once

	ConversationID string
	Since          time.Time
}

// Subscribe registers fn for show/hide transitions. fn runs on the
// goroutine that called Begin or Done.
func (t *Tracker) Subscribe(fn func(State)) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

// Begin marks a request as in flight for conversationID.
func (t *Tracker) Begin(conversationID string) (*Pending, error) {
	p, err := t.Reserve()
	if err != nil {
		return nil, err
	}
	p.Show(conversationID)
	return p, nil
}

// Reserve claims the single request slot without notifying subscribers.
// Call Show once the conversation is known, and Done in every case.
func (t *Tracker) Reserve() (*Pending, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		return nil, ErrBusy
	}
	p := &Pending{t: t, Since: t.now()}
	t.current = p
	return p, nil
}

// Show records the conversation the request belongs to and shows the
// pending indicator. It does nothing once p is done.
func (p *Pending) Show(conversationID string) {
	t := p.t
	t.mu.Lock()
	if t.current != p {
		t.mu.Unlock()
		return
	}
	p.ConversationID = conversationID
	subs := append([]func(State){}, t.subs...)
	t.mu.Unlock()

	notify(subs, State{Pending: true, ConversationID: conversationID, Since: p.Since})
}

// Busy reports whether a request is in flight.
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}

// State returns the current indicator state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return State{}
	}
	return State{Pending: true, ConversationID: t.current.ConversationID, Since: t.current.Since}
}

// Done hides the pending indicator. Calls after the first are no-ops.
func (p *Pending) Done() {
	p.once.Do(func() {
		t := p.t
		t.mu.Lock()
		if t.current == p {
			t.current = nil
		}
		subs := append([]func(State){}, t.subs...)
		t.mu.Unlock()

		notify(subs, State{})
	})
}

func notify(subs []func(State), s State) {
	for _, fn := range subs {
		fn(s)
	}
}
