package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t\n ", ""},
		{"plain", "  hello there  ", "hello there"},
		{"less-than kept", "if x<y then z", "if x<y then z"},
		{"angle word kept", "<hello>", "<hello>"},
		{"tag text kept", "use <b> for bold", "use <b> for bold"},
		{"entity not decoded", "I typed &lt;3 literally", "I typed &lt;3 literally"},
		{"script kept verbatim", `<script>alert(1)</script>hi`, `<script>alert(1)</script>hi`},
		{"keeps ampersand", "Tom & Jerry", "Tom & Jerry"},
		{"keeps newline", "line1\nline2", "line1\nline2"},
		{"drops control", "a\x00b\x07c", "abc"},
		{"nfc", "e\u0301", "\u00e9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(nil))

	blank := "   "
	assert.Nil(t, Optional(&blank))

	note := " <i>ask me</i> anything "
	got := Optional(&note)
	if assert.NotNil(t, got) {
		assert.Equal(t, "<i>ask me</i> anything", *got)
	}
}
