// Package chat ties the session store, the reply client and a transcript
// view together. Both the web server and the terminal UI drive a Controller.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sonnes/parley/core"
	"github.com/sonnes/parley/reply"
	"github.com/sonnes/parley/session"
)

// ErrEmptyMessage is returned for blank input. Nothing is sent or recorded.
var ErrEmptyMessage = errors.New("message is empty")

// Sender delivers user text to the backend. It never fails: on error the
// returned text describes the problem and ok is false.
type Sender interface {
	Send(ctx context.Context, text string) (string, bool)
}

// View is a transcript display kept in step with the active conversation.
type View interface {
	AppendLine(role core.Role, text string)
	Reset()
	LoadTranscript(lines []core.Line)
	ShowPending()
	HidePending()
}

// Request is an accepted message whose reply has not arrived yet.
type Request struct {
	Ticket  session.Ticket
	pending *reply.Pending
}

// Outcome reports how a request finished.
type Outcome struct {
	ConversationID string
	Reply          string
	// OK is false when Reply is a failure notice.
	OK bool
	// Delivered is false when the conversation was deleted before the
	// reply arrived.
	Delivered bool
}

// Controller runs the send sequence: echo the user line, call the backend,
// append the reply, persist.
type Controller struct {
	// mu pairs each store mutation with the view update that mirrors it,
	// so the view always shows the active conversation as stored. Store
	// listeners run under mu and must not call back into the Controller.
	mu sync.Mutex

	store   *session.Store
	sender  Sender
	tracker *reply.Tracker
	view    View
	logger  *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithView attaches a transcript view.
func WithView(v View) Option {
	return func(c *Controller) { c.view = v }
}

// WithTracker shares a pending tracker, e.g. with a UI that subscribes to it.
func WithTracker(t *reply.Tracker) Option {
	return func(c *Controller) { c.tracker = t }
}

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a Controller over store and sender.
func New(store *session.Store, sender Sender, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		sender: sender,
		logger: log.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.tracker == nil {
		c.tracker = reply.NewTracker()
	}
	if c.view != nil {
		view := c.view
		c.tracker.Subscribe(func(s reply.State) {
			if s.Pending {
				view.ShowPending()
			} else {
				view.HidePending()
			}
		})
		c.syncView()
	}
	return c
}

// Submit sends text and waits for the reply.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	req, err := c.Begin(text)
	if err != nil {
		return Outcome{}, err
	}
	return c.Finish(ctx, req), nil
}

// Begin records the user line and marks a reply as pending. It fails with
// ErrEmptyMessage for blank text and reply.ErrBusy while another reply is
// in flight.
func (c *Controller) Begin(text string) (*Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.tracker.Reserve()
	if err != nil {
		return nil, err
	}

	ticket := c.store.BeginExchange(text)
	if c.view != nil {
		c.view.AppendLine(core.RoleUser, text)
	}
	p.Show(ticket.ConversationID)
	c.logger.Debug("message accepted", "conversation", ticket.ConversationID)
	return &Request{Ticket: ticket, pending: p}, nil
}

// Finish performs the round trip for req and appends the reply to the
// conversation the request was made in.
func (c *Controller) Finish(ctx context.Context, req *Request) Outcome {
	defer req.pending.Done()

	text, ok := c.sender.Send(ctx, req.Ticket.Prompt)

	c.mu.Lock()
	delivered := c.store.CompleteExchange(req.Ticket, core.RoleAssistant, text)
	if delivered && c.view != nil {
		if id, _ := c.store.Active(); id == req.Ticket.ConversationID {
			c.view.AppendLine(core.RoleAssistant, text)
		}
	}
	c.mu.Unlock()
	if !delivered {
		c.logger.Info("reply discarded", "conversation", req.Ticket.ConversationID)
	}

	return Outcome{
		ConversationID: req.Ticket.ConversationID,
		Reply:          text,
		OK:             ok,
		Delivered:      delivered,
	}
}

// NewSession starts a fresh, empty transcript.
func (c *Controller) NewSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.StartNewSession()
	if c.view != nil {
		c.view.Reset()
	}
}

// Select opens a saved conversation. Unknown ids are ignored.
func (c *Controller) Select(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.store.SelectConversation(id) {
		return false
	}
	c.syncView()
	return true
}

// Delete removes a conversation. Deleting the open one resets the view.
func (c *Controller) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	deleted, wasActive := c.store.DeleteConversation(id)
	if !deleted {
		return false
	}
	if wasActive && c.view != nil {
		c.view.Reset()
	}
	return true
}

// List returns saved conversations, most recently updated first.
func (c *Controller) List() []core.Conversation {
	return c.store.ListConversations()
}

// Summaries returns listing entries in List order.
func (c *Controller) Summaries() []core.Summary {
	return c.store.Summaries()
}

// Get returns one conversation.
func (c *Controller) Get(id string) (core.Conversation, bool) {
	return c.store.Get(id)
}

// Active returns the open conversation id (empty for a fresh session) and
// its lines.
func (c *Controller) Active() (string, []core.Line) {
	return c.store.Active()
}

// Busy reports whether a reply is pending.
func (c *Controller) Busy() bool {
	return c.tracker.Busy()
}

// Tracker exposes the pending tracker for subscriptions.
func (c *Controller) Tracker() *reply.Tracker {
	return c.tracker
}

func (c *Controller) syncView() {
	if c.view == nil {
		return
	}
	id, lines := c.store.Active()
	if id == "" {
		c.view.Reset()
		return
	}
	c.view.LoadTranscript(lines)
}
