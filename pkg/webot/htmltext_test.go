package webot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenHTMLParagraphs(t *testing.T) {
	text, err := FlattenHTML(`<div><p>First paragraph.</p><p>Second one.</p></div>`)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond one.", text)
}

func TestFlattenHTMLDropsNoise(t *testing.T) {
	text, err := FlattenHTML(`<div>
		<style>.x{color:red}</style>
		<script>alert(1)</script>
		<button>Copy</button>
		<p>Visible answer</p>
	</div>`)
	require.NoError(t, err)
	assert.Equal(t, "Visible answer", text)
}

func TestFlattenHTMLLists(t *testing.T) {
	text, err := FlattenHTML(`<ul><li>one</li><li>two</li></ul>`)
	require.NoError(t, err)
	assert.Contains(t, text, "- one")
	assert.Contains(t, text, "- two")
}

func TestFlattenHTMLInlineSpacing(t *testing.T) {
	text, err := FlattenHTML(`<p>Use <code>go test</code> to run <b>all</b> tests.</p>`)
	require.NoError(t, err)
	assert.Equal(t, "Use go test to run all tests.", text)
}

func TestFlattenHTMLLineBreaks(t *testing.T) {
	text, err := FlattenHTML(`line one<br>line two`)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestFlattenHTMLPlainText(t *testing.T) {
	text, err := FlattenHTML("just words, no markup")
	require.NoError(t, err)
	assert.Equal(t, "just words, no markup", text)
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML("<div>x</div>"))
	assert.True(t, looksLikeHTML("  <p>y</p>"))
	assert.False(t, looksLikeHTML("plain text"))
	assert.False(t, looksLikeHTML("a < b and c > d"))
}
