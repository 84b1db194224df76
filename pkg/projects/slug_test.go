package projects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims edges", "  My Plugin  ", "My Plugin"},
		{"collapses runs", "My    Cool\tPlugin", "My Cool Plugin"},
		{"already compact", "My Plugin", "My Plugin"},
		{"only whitespace", "   \t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compact(tt.in))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "MyPlugin", "myplugin"},
		{"spaces become dashes", "My Cool Plugin", "my-cool-plugin"},
		{"underscores become dashes", "my_cool_plugin", "my-cool-plugin"},
		{"drops punctuation", "My Plugin! (v2)", "my-plugin-v2"},
		{"collapses dash runs", "a - _ b", "a-b"},
		{"no trailing dash", "plugin!!", "plugin"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"My Cool Plugin", "  weird__NAME 42 ", "already-a-slug", "Ünïcode Name"}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "Slugify must be idempotent for %q", in)
	}
}

func TestWhitespaceVariantsCollide(t *testing.T) {
	// "Foo" and "foo " normalize to the same slug, so the second create
	// must hit the uniqueness check.
	assert.Equal(t, Slugify("Foo"), Slugify("foo "))
	assert.Equal(t, "Foo", Compact("Foo "))
}
