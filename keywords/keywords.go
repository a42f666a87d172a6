// Package keywords holds the clickable style tags offered beside the chat
// input and the quick-fill prompt templates.
package keywords

import (
	"strings"
	"sync"
)

// Keyword is a tag with a display label and an English key.
type Keyword struct {
	Label  string `json:"label"`
	Key    string `json:"key"`
	Active bool   `json:"active"`
}

// Slug is the URL-safe form of the key.
func (k Keyword) Slug() string {
	return strings.ReplaceAll(strings.ToLower(k.Key), " ", "-")
}

// Defaults is the fixed keyword list, in display order.
var Defaults = []Keyword{
	{Label: "暗黑", Key: "dark"},
	{Label: "会动的艺术", Key: "animating"},
	{Label: "机械", Key: "mechanical"},
	{Label: "废土风", Key: "dystopian"},
	{Label: "自然", Key: "nature"},
	{Label: "复古彩虹爆炸", Key: "rainbow explosion"},
	{Label: "极简性冷淡", Key: "minimal cold"},
	{Label: "魔幻", Key: "fantasy"},
	{Label: "写实", Key: "realism"},
	{Label: "光影", Key: "light and shadow"},
}

// Templates fill the input box when picked.
var Templates = []string{
	"Suggest a public art installation for a small city square.",
	"How could this sculpture respond to light and weather over a day?",
	"Compare materials for an outdoor mural that must last ten years.",
	"Describe a community workshop to co-design a park artwork.",
}

// Set tracks which keywords are toggled on. Safe for concurrent use.
type Set struct {
	mu    sync.Mutex
	items []Keyword
}

// New returns a Set of the given keywords, or Defaults when none are given,
// all inactive.
func New(items ...Keyword) *Set {
	if len(items) == 0 {
		items = Defaults
	}
	s := &Set{items: make([]Keyword, len(items))}
	for i, k := range items {
		k.Active = false
		s.items[i] = k
	}
	return s
}

// Toggle flips the keyword matching key (English key or slug) and reports
// its new state. ok is false for unknown keys.
func (s *Set) Toggle(key string) (active, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(key)
	if i < 0 {
		return false, false
	}
	s.items[i].Active = !s.items[i].Active
	return s.items[i].Active, true
}

// List returns a copy of every keyword in display order.
func (s *Set) List() []Keyword {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Keyword(nil), s.items...)
}

// Active returns the keys currently toggled on, in display order.
func (s *Set) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, k := range s.items {
		if k.Active {
			keys = append(keys, k.Key)
		}
	}
	return keys
}

// Len returns the number of keywords.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Set) index(key string) int {
	for i, k := range s.items {
		if k.Key == key || k.Slug() == key {
			return i
		}
	}
	return -1
}
