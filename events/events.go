// Package events publishes conversation lifecycle events to NATS.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"

	"github.com/sonnes/parley/session"
)

// SubjectPrefix is prepended to the event kind, e.g.
// "parley.conversation.created".
const SubjectPrefix = "parley.conversation"

// Subject returns the NATS subject for an event kind.
func Subject(kind session.EventKind) string {
	return SubjectPrefix + "." + string(kind)
}

// Message is the published payload. Line text is omitted.
type Message struct {
	Kind      session.EventKind `json:"kind"`
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	LineCount int               `json:"line_count"`
	UpdatedAt time.Time         `json:"updated_at"`
	At        time.Time         `json:"at"`
}

// NewMessage builds the payload for e.
func NewMessage(e session.Event) Message {
	return Message{
		Kind:      e.Kind,
		ID:        e.Conversation.ID,
		Title:     e.Conversation.Title,
		LineCount: len(e.Conversation.Lines),
		UpdatedAt: e.Conversation.UpdatedAt,
		At:        e.At,
	}
}

// Publisher sends store events to NATS.
type Publisher struct {
	conn   *nats.Conn
	logger *log.Logger
}

// Connect dials NATS with reconnect handling. token may be empty.
func Connect(url, token string, logger *log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.Default()
	}
	opts := []nats.Option{
		nats.Name("parley"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, logger: logger}, nil
}

// Publish sends one event.
func (p *Publisher) Publish(e session.Event) error {
	payload, err := json.Marshal(NewMessage(e))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(Subject(e.Kind), payload); err != nil {
		return fmt.Errorf("publish %s: %w", Subject(e.Kind), err)
	}
	return nil
}

// Listen is a session.Listener. Failures are logged.
func (p *Publisher) Listen(e session.Event) {
	if err := p.Publish(e); err != nil {
		p.logger.Warn("publish event", "id", e.Conversation.ID, "err", err)
	}
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
