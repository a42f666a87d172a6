package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/sonnes/parley/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances one second per call so every mutation has a distinct
// timestamp.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("conv-%03d", n)
	}
}

func newTestStore(opts ...Option) *Store {
	clock := &fakeClock{t: time.Date(2026, 5, 13, 9, 0, 0, 0, time.UTC)}
	base := []Option{WithClock(clock.Now), WithIDs(sequentialIDs())}
	return New(append(base, opts...)...)
}

func texts(lines []core.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestRecordExchangeCreatesOneRecord(t *testing.T) {
	s := newTestStore()

	id := s.RecordExchange("draw a cat", "here is a cat")
	for i := range 5 {
		got := s.RecordExchange(fmt.Sprintf("follow-up %d", i), "ok")
		assert.Equal(t, id, got, "later exchanges update the same record")
	}

	convs := s.ListConversations()
	require.Len(t, convs, 1)
	assert.Equal(t, id, convs[0].ID)
	assert.Equal(t, "draw a cat", convs[0].Title)
	assert.Len(t, convs[0].Lines, 12)
}

func TestRecordExchangeAlternatesRoles(t *testing.T) {
	s := newTestStore()
	s.RecordExchange("hi", "hello")

	_, lines := s.Active()
	require.Len(t, lines, 2)
	assert.Equal(t, core.RoleUser, lines[0].Role)
	assert.Equal(t, core.RoleAssistant, lines[1].Role)
	assert.NotNil(t, lines[0].Timestamp)
}

func TestRecordExchangeUpdatesTimestamp(t *testing.T) {
	s := newTestStore()
	id := s.RecordExchange("hi", "hello")
	first, _ := s.Get(id)

	s.RecordExchange("again", "sure")
	second, _ := s.Get(id)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestFreshSessionIsEmpty(t *testing.T) {
	s := newTestStore()
	id, lines := s.Active()
	assert.Empty(t, id)
	assert.Empty(t, lines)
	assert.Empty(t, s.ListConversations(), "nothing is saved until a user line exists")
}

func TestStartNewSession(t *testing.T) {
	s := newTestStore()
	first := s.RecordExchange("hi", "hello")

	s.StartNewSession()
	id, lines := s.Active()
	assert.Empty(t, id)
	assert.Empty(t, lines)

	second := s.RecordExchange("another", "topic")
	assert.NotEqual(t, first, second)
	assert.Len(t, s.ListConversations(), 2)

	// Idempotent when already empty.
	s.StartNewSession()
	s.StartNewSession()
	assert.Len(t, s.ListConversations(), 2)
}

func TestSelectConversationRoundTrip(t *testing.T) {
	s := newTestStore()

	s.StartNewSession()
	original := s.RecordExchange("hi", "hello")
	s.StartNewSession()
	other := s.RecordExchange("other", "topic")

	require.True(t, s.SelectConversation(other))
	require.True(t, s.SelectConversation(original))

	id, lines := s.Active()
	assert.Equal(t, original, id)
	assert.Equal(t, []string{"hi", "hello"}, texts(lines))
	assert.Equal(t, core.RoleUser, lines[0].Role)
	assert.Equal(t, core.RoleAssistant, lines[1].Role)
}

func TestSelectConversationNeverDuplicates(t *testing.T) {
	s := newTestStore()
	a := s.RecordExchange("a", "1")
	s.StartNewSession()
	b := s.RecordExchange("b", "2")

	for range 3 {
		s.SelectConversation(a)
		s.SelectConversation(b)
	}
	s.RecordExchange("b again", "3")

	convs := s.ListConversations()
	require.Len(t, convs, 2)
	ids := []string{convs[0].ID, convs[1].ID}
	assert.ElementsMatch(t, []string{a, b}, ids)
}

func TestSelectUnknownIsNoop(t *testing.T) {
	s := newTestStore()
	id := s.RecordExchange("hi", "hello")

	assert.False(t, s.SelectConversation("missing"))
	active, lines := s.Active()
	assert.Equal(t, id, active)
	assert.Len(t, lines, 2)
}

func TestDeleteActiveConversation(t *testing.T) {
	s := newTestStore()
	id := s.RecordExchange("hi", "hello")

	deleted, wasActive := s.DeleteConversation(id)
	require.True(t, deleted)
	assert.True(t, wasActive)

	active, lines := s.Active()
	assert.Empty(t, active)
	assert.Empty(t, lines)
	for _, c := range s.ListConversations() {
		assert.NotEqual(t, id, c.ID)
	}
	assert.Zero(t, s.Len())
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	s := newTestStore()
	a := s.RecordExchange("a", "1")
	s.StartNewSession()
	b := s.RecordExchange("b", "2")

	deleted, wasActive := s.DeleteConversation(a)
	require.True(t, deleted)
	assert.False(t, wasActive)
	active, _ := s.Active()
	assert.Equal(t, b, active)

	deleted, _ = s.DeleteConversation(a)
	assert.False(t, deleted, "second delete is a no-op")
}

func TestListConversationsOrder(t *testing.T) {
	s := newTestStore()
	a := s.RecordExchange("a", "1")
	s.StartNewSession()
	b := s.RecordExchange("b", "2")
	s.StartNewSession()
	c := s.RecordExchange("c", "3")

	ids := func() []string {
		var out []string
		for _, conv := range s.ListConversations() {
			out = append(out, conv.ID)
		}
		return out
	}
	assert.Equal(t, []string{c, b, a}, ids(), "most recently updated first")

	s.SelectConversation(a)
	s.RecordExchange("a again", "4")
	assert.Equal(t, []string{a, c, b}, ids())
}

func TestListConversationsTieBreak(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return fixed }), WithIDs(sequentialIDs()))
	s.RecordExchange("a", "1")
	s.StartNewSession()
	s.RecordExchange("b", "2")

	convs := s.ListConversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "conv-002", convs[0].ID)
	assert.Equal(t, "conv-001", convs[1].ID)
}

func TestListConversationsReturnsCopies(t *testing.T) {
	s := newTestStore()
	id := s.RecordExchange("hi", "hello")

	convs := s.ListConversations()
	convs[0].Lines[0].Text = "tampered"
	convs[0].Title = "tampered"

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "hi", got.Lines[0].Text)
	assert.Equal(t, "hi", got.Title)
}

func TestTitleFixedAtFirstSave(t *testing.T) {
	s := newTestStore()
	id := s.RecordExchange("用户：公共雕塑的材料", "石材和金属")
	s.RecordExchange("something else entirely", "ok")

	got, _ := s.Get(id)
	assert.Equal(t, "公共雕塑的材料", got.Title)
}

func TestReplyLandsInOriginatingConversation(t *testing.T) {
	s := newTestStore()
	a := s.RecordExchange("a", "1")
	s.StartNewSession()
	b := s.RecordExchange("b", "2")

	s.SelectConversation(a)
	ticket := s.BeginExchange("question for a")
	s.SelectConversation(b)
	require.True(t, s.CompleteExchange(ticket, core.RoleAssistant, "answer for a"))

	convA, _ := s.Get(a)
	convB, _ := s.Get(b)
	assert.Equal(t, []string{"a", "1", "question for a", "answer for a"}, texts(convA.Lines))
	assert.Equal(t, []string{"b", "2"}, texts(convB.Lines))

	active, _ := s.Active()
	assert.Equal(t, b, active, "completing a reply does not change the active conversation")
}

func TestReplyAfterNewSessionStaysWithTicket(t *testing.T) {
	s := newTestStore()
	ticket := s.BeginExchange("first question")
	s.StartNewSession()

	require.True(t, s.CompleteExchange(ticket, core.RoleAssistant, "late answer"))

	id, lines := s.Active()
	assert.Empty(t, id)
	assert.Empty(t, lines)

	conv, ok := s.Get(ticket.ConversationID)
	require.True(t, ok)
	assert.Equal(t, []string{"first question", "late answer"}, texts(conv.Lines))
}

func TestReplyDroppedAfterDelete(t *testing.T) {
	s := newTestStore()
	ticket := s.BeginExchange("question")
	deleted, _ := s.DeleteConversation(ticket.ConversationID)
	require.True(t, deleted)

	assert.False(t, s.CompleteExchange(ticket, core.RoleAssistant, "answer"))
	assert.Zero(t, s.Len(), "a late reply must not resurrect the record")
}

func TestRestore(t *testing.T) {
	s := newTestStore()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s.Restore([]core.Conversation{
		{ID: "old", CreatedAt: now, UpdatedAt: now, Lines: []core.Line{{Role: core.RoleUser, Text: "saved"}}},
		{ID: "empty", CreatedAt: now, UpdatedAt: now},
	})

	require.Equal(t, 1, s.Len(), "empty records are not restored")
	got, ok := s.Get("old")
	require.True(t, ok)
	assert.Equal(t, "saved", got.Title)

	active, _ := s.Active()
	assert.Empty(t, active, "restoring does not activate anything")
}
