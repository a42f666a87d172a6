// Package archive keeps conversations in a local JSON snapshot file so a
// restarted session can restore them.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sonnes/parley/core"
)

// Archive holds every saved conversation.
type Archive struct {
	Conversations []core.Conversation `json:"conversations"`
}

// ReadFile reads an archive from disk. Returns an empty Archive if the file
// does not exist.
func ReadFile(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Archive{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", path, err)
	}
	a.sort()
	return &a, nil
}

// Upsert adds or replaces a conversation matched by ID. Conversations stay
// sorted most recently updated first, ties by ID descending.
func (a *Archive) Upsert(c core.Conversation) {
	c = c.Clone()
	for i, e := range a.Conversations {
		if e.ID == c.ID {
			a.Conversations[i] = c
			a.sort()
			return
		}
	}
	a.Conversations = append(a.Conversations, c)
	a.sort()
}

// Remove deletes the conversation with the given id.
func (a *Archive) Remove(id string) bool {
	for i, e := range a.Conversations {
		if e.ID == id {
			a.Conversations = append(a.Conversations[:i], a.Conversations[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Archive) sort() {
	sort.Slice(a.Conversations, func(i, j int) bool {
		ci, cj := a.Conversations[i], a.Conversations[j]
		if !ci.UpdatedAt.Equal(cj.UpdatedAt) {
			return ci.UpdatedAt.After(cj.UpdatedAt)
		}
		return strings.Compare(ci.ID, cj.ID) > 0
	})
}

// WriteFile writes the archive to disk atomically using a temporary file and
// rename, which is safe against concurrent writers.
func (a *Archive) WriteFile(path string) error {
	if a.Conversations == nil {
		a.Conversations = []core.Conversation{}
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".archive-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}
