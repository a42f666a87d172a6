package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	s := New()
	assert.Equal(t, 10, s.Len())
	list := s.List()
	assert.Equal(t, "暗黑", list[0].Label)
	assert.Equal(t, "light and shadow", list[9].Key)
	assert.Empty(t, s.Active())
	assert.Len(t, Templates, 4)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"dark", "dark"},
		{"rainbow explosion", "rainbow-explosion"},
		{"light and shadow", "light-and-shadow"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Keyword{Key: tt.key}.Slug())
	}
}

func TestToggle(t *testing.T) {
	s := New()

	active, ok := s.Toggle("nature")
	assert.True(t, ok)
	assert.True(t, active)

	active, ok = s.Toggle("minimal-cold")
	assert.True(t, ok)
	assert.True(t, active)
	assert.Equal(t, []string{"nature", "minimal cold"}, s.Active())

	active, ok = s.Toggle("nature")
	assert.True(t, ok)
	assert.False(t, active)
	assert.Equal(t, []string{"minimal cold"}, s.Active())

	_, ok = s.Toggle("unknown")
	assert.False(t, ok)
}

func TestListIsCopy(t *testing.T) {
	s := New(Keyword{Label: "A", Key: "a", Active: true})
	assert.False(t, s.List()[0].Active)

	list := s.List()
	list[0].Active = true
	assert.Empty(t, s.Active())
}

func TestNewDoesNotShareDefaults(t *testing.T) {
	a := New()
	a.Toggle("dark")
	assert.Empty(t, New().Active())
	assert.False(t, Defaults[0].Active)
}
