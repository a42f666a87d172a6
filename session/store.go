// Package session holds the in-memory collection of conversations and the
// single active transcript the user is working in.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sonnes/parley/core"
)

// Ticket identifies the conversation an in-flight reply belongs to. It is
// captured when the user line is recorded and redeemed when the reply
// arrives, whatever conversation is active by then.
type Ticket struct {
	ConversationID string
	Prompt         string
	IssuedAt       time.Time
}

// Store is the session store. The zero value is not usable; call New.
//
// Every mutation is applied to the record immediately and announced to
// listeners, so there is never unsaved state to flush.
type Store struct {
	// emitMu serializes mutations together with their event delivery and is
	// always taken before mu. Listeners run holding only emitMu, so they can
	// read the store while other mutators wait.
	emitMu    sync.Mutex
	listeners []Listener

	mu       sync.Mutex
	records  map[string]*core.Conversation
	activeID string

	now    func() time.Time
	newID  func() string
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithListener registers a listener for conversation events. Listeners run
// synchronously, in event order, after the store lock is released. They may
// read from the store but must not mutate it.
func WithListener(l Listener) Option {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]*core.Conversation),
		now:     time.Now,
		newID:   newTimeOrderedID,
		logger:  log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// newTimeOrderedID returns a UUIDv7, which sorts by creation time.
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Restore loads previously persisted conversations. Records with an id that
// already exists are replaced. No events are emitted.
func (s *Store) Restore(convs []core.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range convs {
		if c.ID == "" || !c.HasContent() {
			continue
		}
		cp := c.Clone()
		if cp.Title == "" {
			cp.Title = core.DeriveTitle(cp.Lines)
		}
		s.records[cp.ID] = &cp
	}
	s.logger.Debug("restored conversations", "count", len(convs))
}

// StartNewSession resets the active view to the placeholder state and clears
// the active id. The previous conversation is already saved in the
// collection and receives a final flush event. Calling it on a fresh session
// does nothing.
func (s *Store) StartNewSession() {
	s.lock()
	var events []Event
	if rec, ok := s.records[s.activeID]; ok && rec.HasContent() {
		events = append(events, s.event(EventUpdated, rec))
	}
	s.activeID = ""
	s.dispatch(events)
}

// RecordExchange appends a user line then an assistant line to the active
// transcript and returns the conversation id. The first exchange of a fresh
// session creates the record and fixes its title.
func (s *Store) RecordExchange(userText, assistantText string) string {
	t := s.BeginExchange(userText)
	s.CompleteExchange(t, core.RoleAssistant, assistantText)
	return t.ConversationID
}

// BeginExchange echoes the user line into the active transcript and returns a
// ticket for the reply. Without an active conversation, a record is created
// lazily with its title derived from userText.
func (s *Store) BeginExchange(userText string) Ticket {
	s.lock()
	now := s.now()

	var events []Event
	rec, ok := s.records[s.activeID]
	if !ok {
		rec = &core.Conversation{
			ID:        s.newID(),
			CreatedAt: now,
		}
		s.records[rec.ID] = rec
		s.activeID = rec.ID
	}

	rec.Lines = append(rec.Lines, line(core.RoleUser, userText, now))
	rec.UpdatedAt = now
	if !ok {
		rec.Title = core.DeriveTitle(rec.Lines)
		events = append(events, s.event(EventCreated, rec))
		s.logger.Debug("conversation created", "id", rec.ID, "title", rec.Title)
	} else {
		events = append(events, s.event(EventUpdated, rec))
	}

	t := Ticket{ConversationID: rec.ID, Prompt: userText, IssuedAt: now}
	s.dispatch(events)
	return t
}

// CompleteExchange appends a reply line to the ticket's conversation, which
// need not be the active one. It returns false, dropping the reply, when the
// conversation was deleted while the reply was in flight.
func (s *Store) CompleteExchange(t Ticket, role core.Role, text string) bool {
	s.lock()
	rec, ok := s.records[t.ConversationID]
	if !ok {
		s.unlock()
		s.logger.Warn("reply dropped, conversation no longer exists", "id", t.ConversationID)
		return false
	}
	now := s.now()
	rec.Lines = append(rec.Lines, line(role, text, now))
	rec.UpdatedAt = now
	s.dispatch([]Event{s.event(EventUpdated, rec)})
	return true
}

// SelectConversation makes id the active conversation and loads its
// transcript into the active view. Unknown ids are ignored.
func (s *Store) SelectConversation(id string) bool {
	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		return false
	}
	s.activeID = id
	s.mu.Unlock()
	return true
}

// DeleteConversation removes the record and reports whether it existed.
// Deleting the active conversation resets the active view to the
// placeholder state; wasActive reports that case.
func (s *Store) DeleteConversation(id string) (deleted, wasActive bool) {
	s.lock()
	rec, ok := s.records[id]
	if !ok {
		s.unlock()
		return false, false
	}
	delete(s.records, id)
	wasActive = s.activeID == id
	if wasActive {
		s.activeID = ""
	}
	s.dispatch([]Event{s.event(EventDeleted, rec)})
	return true, wasActive
}

// ListConversations returns copies of every record, most recently updated
// first. Ties are broken by id, descending.
func (s *Store) ListConversations() []core.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Conversation, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return strings.Compare(out[i].ID, out[j].ID) > 0
	})
	return out
}

// Summaries returns listing metadata in ListConversations order.
func (s *Store) Summaries() []core.Summary {
	convs := s.ListConversations()
	out := make([]core.Summary, len(convs))
	for i, c := range convs {
		out[i] = core.NewSummary(c)
	}
	return out
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (core.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return core.Conversation{}, false
	}
	return rec.Clone(), true
}

// Active returns the active conversation id ("" when unset) and a copy of
// its transcript. A fresh session has no lines.
func (s *Store) Active() (string, []core.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[s.activeID]
	if !ok {
		return "", nil
	}
	return rec.ID, core.CloneLines(rec.Lines)
}

// Len returns the number of saved conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) event(kind EventKind, rec *core.Conversation) Event {
	return Event{Kind: kind, Conversation: rec.Clone(), At: s.now()}
}

func (s *Store) lock() {
	s.emitMu.Lock()
	s.mu.Lock()
}

func (s *Store) unlock() {
	s.mu.Unlock()
	s.emitMu.Unlock()
}

// dispatch hands events to listeners. It must be called after lock; it
// releases mu first, then emitMu once every listener has returned.
func (s *Store) dispatch(events []Event) {
	s.mu.Unlock()
	defer s.emitMu.Unlock()
	for _, e := range events {
		for _, l := range s.listeners {
			l(e)
		}
	}
}

func line(role core.Role, text string, at time.Time) core.Line {
	ts := at
	return core.Line{Role: role, Text: text, Timestamp: &ts}
}
