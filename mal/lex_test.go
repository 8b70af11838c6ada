package mal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCommentsPreservesStringContent(t *testing.T) {
	src := `#note: "not // a comment"
#other: "also not /* a comment */ either"
`
	got := stripComments(src)
	assert.Contains(t, got, `"not // a comment"`)
	assert.Contains(t, got, `"also not /* a comment */ either"`)
}

func TestStripCommentsRemovesLineComments(t *testing.T) {
	got := stripComments("#id: \"x\" // trailing\n#y: \"z\"\n")
	assert.NotContains(t, got, "trailing")
	assert.Contains(t, got, `#id: "x"`)
	assert.Contains(t, got, `#y: "z"`)
}

func TestStripCommentsRemovesBlockCommentsAcrossLines(t *testing.T) {
	src := "#id: \"x\"\n/* a block\n   comment */\n#y: \"z\"\n"
	got := stripComments(src)
	assert.NotContains(t, got, "a block")
	assert.Contains(t, got, `#id: "x"`)
	assert.Contains(t, got, `#y: "z"`)
}

func TestSplitLinesTrimsAndDropsBlank(t *testing.T) {
	lines := splitLines("  a  \n\n   \nb\n")
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestSplitLinesIgnoresUnterminatedBlockComment(t *testing.T) {
	got := stripComments("#id: \"x\"\n/* never closed\n#y: \"z\"\n")
	lines := splitLines(got)
	assert.Equal(t, []string{`#id: "x"`}, lines)
}
