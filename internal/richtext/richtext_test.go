package richtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraph(text string) map[string]interface{} {
	content := []interface{}{}
	if text != "" {
		content = append(content, map[string]interface{}{"type": "text", "text": text})
	}
	return map[string]interface{}{"type": "paragraph", "content": content}
}

func docOf(blocks ...interface{}) Doc {
	return Doc{"type": "doc", "content": blocks}
}

func blockTexts(doc Doc) []string {
	var out []string
	for _, item := range Blocks(doc) {
		node := item.(map[string]interface{})
		out = append(out, strings.TrimSpace(nodeText(node)))
	}
	return out
}

func TestParseRejectsNonDoc(t *testing.T) {
	_, err := Parse([]byte(`{"type":"paragraph"}`))
	assert.ErrorIs(t, err, ErrNotADoc)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	raw := []byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`)
	doc, err := Parse(raw)
	require.NoError(t, err)

	out, err := Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestPlainText(t *testing.T) {
	doc := docOf(paragraph("first"), paragraph("second"))
	assert.Equal(t, "first\nsecond", PlainText(doc))
}

func TestToHTMLBasics(t *testing.T) {
	doc := docOf(
		map[string]interface{}{
			"type":    "heading",
			"attrs":   map[string]interface{}{"level": float64(2)},
			"content": []interface{}{map[string]interface{}{"type": "text", "text": "Title"}},
		},
		paragraph("body <script>"),
	)
	html := ToHTML(doc)
	assert.Contains(t, html, "<h2>Title</h2>")
	assert.Contains(t, html, "body &lt;script&gt;")
}

func TestToHTMLMarks(t *testing.T) {
	doc := docOf(map[string]interface{}{
		"type": "paragraph",
		"content": []interface{}{map[string]interface{}{
			"type": "text",
			"text": "link",
			"marks": []interface{}{
				map[string]interface{}{"type": "bold"},
				map[string]interface{}{"type": "link", "attrs": map[string]interface{}{"href": "https://example.com"}},
			},
		}},
	})
	html := ToHTML(doc)
	assert.Contains(t, html, `<strong><a href="https://example.com">link</a></strong>`)
}

func TestToHTMLTaskList(t *testing.T) {
	doc := docOf(map[string]interface{}{
		"type": "taskList",
		"content": []interface{}{
			map[string]interface{}{
				"type":    "taskItem",
				"attrs":   map[string]interface{}{"checked": true},
				"content": []interface{}{paragraph("done")},
			},
			map[string]interface{}{
				"type":    "taskItem",
				"attrs":   map[string]interface{}{"checked": false},
				"content": []interface{}{paragraph("open")},
			},
		},
	})
	html := ToHTML(doc)
	assert.Contains(t, html, "☑")
	assert.Contains(t, html, "☐")
}

func TestCanMoveUpAtTop(t *testing.T) {
	doc := docOf(paragraph("a"), paragraph("b"))
	assert.False(t, CanMove(doc, 0, Up))
	assert.True(t, CanMove(doc, 1, Up))
}

func TestCanMoveDownBlockedByTrailingEmpties(t *testing.T) {
	doc := docOf(paragraph("a"), paragraph(""), paragraph("  "))
	// Everything below index 0 is blank.
	assert.False(t, CanMove(doc, 0, Down))

	doc = docOf(paragraph("a"), paragraph(""), paragraph("b"))
	// A non-empty block further down permits the move.
	assert.True(t, CanMove(doc, 0, Down))
}

func TestCanMoveDownAtBottom(t *testing.T) {
	doc := docOf(paragraph("a"), paragraph("b"))
	assert.False(t, CanMove(doc, 1, Down))
}

func TestMoveBlockDown(t *testing.T) {
	doc := docOf(paragraph("a"), paragraph("b"), paragraph("c"))
	sel, err := MoveBlock(doc, 0, Down)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, AnchorText, sel.Anchor)
	assert.Equal(t, []string{"b", "a", "c"}, blockTexts(doc))
}

func TestMoveBlockUp(t *testing.T) {
	doc := docOf(paragraph("a"), paragraph("b"), paragraph("c"))
	sel, err := MoveBlock(doc, 2, Up)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, []string{"a", "c", "b"}, blockTexts(doc))
}

func TestMoveBlockRefused(t *testing.T) {
	doc := docOf(paragraph("a"), paragraph(""))
	_, err := MoveBlock(doc, 0, Down)
	assert.ErrorIs(t, err, ErrCannotMove)
	assert.Equal(t, []string{"a", ""}, blockTexts(doc))
}

func TestMoveAtomUsesNodeAnchor(t *testing.T) {
	doc := docOf(
		map[string]interface{}{"type": "horizontalRule"},
		paragraph("text"),
	)
	sel, err := MoveBlock(doc, 0, Down)
	require.NoError(t, err)
	assert.Equal(t, AnchorNode, sel.Anchor)
}
