package archive

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sonnes/parley/core"
	"github.com/sonnes/parley/session"
)

// Sink mirrors session store events into an archive file. Every event
// rewrites the file.
type Sink struct {
	mu      sync.Mutex
	path    string
	archive *Archive
	logger  *log.Logger
}

// Open loads the archive at path, creating nothing until the first event.
func Open(path string, logger *log.Logger) (*Sink, error) {
	a, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sink{path: path, archive: a, logger: logger}, nil
}

// Conversations returns the archived conversations for session.Store.Restore.
func (s *Sink) Conversations() []core.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Conversation, len(s.archive.Conversations))
	for i, c := range s.archive.Conversations {
		out[i] = c.Clone()
	}
	return out
}

// Listen is a session.Listener. Write failures are logged.
func (s *Sink) Listen(e session.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case session.EventCreated, session.EventUpdated:
		s.archive.Upsert(e.Conversation)
	case session.EventDeleted:
		s.archive.Remove(e.Conversation.ID)
	}

	if err := s.archive.WriteFile(s.path); err != nil {
		s.logger.Error("write archive", "path", s.path, "err", err)
		return
	}
	s.logger.Debug("archive written", "path", s.path, "event", e.Kind, "id", e.Conversation.ID)
}
