// Package pgstore persists conversations in PostgreSQL.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sonnes/parley/core"
	"github.com/sonnes/parley/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS parley_conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	lines      JSONB NOT NULL DEFAULT '[]'::jsonb
)`

const writeTimeout = 5 * time.Second

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("conversation not found")

// Store reads and writes the conversations table.
type Store struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// New connects, pings and ensures the table exists.
func New(ctx context.Context, databaseURL string, logger *log.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Save inserts or replaces a conversation.
func (s *Store) Save(ctx context.Context, c core.Conversation) error {
	lines, err := encodeLines(c.Lines)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO parley_conversations (id, title, created_at, updated_at, lines)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, updated_at = EXCLUDED.updated_at, lines = EXCLUDED.lines`,
		c.ID, c.Title, c.CreatedAt, c.UpdatedAt, lines)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a conversation. Unknown ids are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM parley_conversations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}

// Get loads one conversation.
func (s *Store) Get(ctx context.Context, id string) (core.Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, created_at, updated_at, lines
		FROM parley_conversations WHERE id = $1`, id)
	c, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Conversation{}, ErrNotFound
	}
	return c, err
}

// List loads every conversation, most recently updated first.
func (s *Store) List(ctx context.Context) ([]core.Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, created_at, updated_at, lines
		FROM parley_conversations
		ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []core.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// Listen is a session.Listener. Failures are logged.
func (s *Store) Listen(e session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch e.Kind {
	case session.EventCreated, session.EventUpdated:
		err = s.Save(ctx, e.Conversation)
	case session.EventDeleted:
		err = s.Delete(ctx, e.Conversation.ID)
	}
	if err != nil {
		s.logger.Error("persist conversation", "event", e.Kind, "id", e.Conversation.ID, "err", err)
	}
}

func scanConversation(row pgx.Row) (core.Conversation, error) {
	var (
		c   core.Conversation
		raw []byte
	)
	if err := row.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &raw); err != nil {
		return core.Conversation{}, fmt.Errorf("scan conversation: %w", err)
	}
	lines, err := decodeLines(raw)
	if err != nil {
		return core.Conversation{}, fmt.Errorf("conversation %s: %w", c.ID, err)
	}
	c.Lines = lines
	return c, nil
}

func encodeLines(lines []core.Line) ([]byte, error) {
	if lines == nil {
		lines = []core.Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	return data, nil
}

func decodeLines(raw []byte) ([]core.Line, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var lines []core.Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	return lines, nil
}
