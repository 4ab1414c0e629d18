// Package richtext works with ProseMirror-style rich text documents:
// decoding, HTML rendering, plain-text extraction, and structural
// block moves.
package richtext

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Doc is a decoded ProseMirror document tree.
type Doc = map[string]interface{}

var ErrNotADoc = errors.New("not a rich text document")

// Parse decodes a rich text document. The top-level node must be a
// "doc".
func Parse(data []byte) (Doc, error) {
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if t, _ := doc["type"].(string); t != "doc" {
		return nil, ErrNotADoc
	}
	return doc, nil
}

// Marshal encodes the tree back to JSON.
func Marshal(doc Doc) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Blocks returns the top-level block nodes of the document.
func Blocks(doc Doc) []interface{} {
	content, _ := doc["content"].([]interface{})
	return content
}

// PlainText flattens the document to its text content, one line per
// block, for search indexing and emptiness checks.
func PlainText(doc Doc) string {
	var lines []string
	for _, item := range Blocks(doc) {
		node, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if text := nodeText(node); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

func nodeText(node map[string]interface{}) string {
	if text, ok := node["text"].(string); ok {
		return text
	}
	content, _ := node["content"].([]interface{})
	var sb strings.Builder
	for _, item := range content {
		child, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		sb.WriteString(nodeText(child))
	}
	return sb.String()
}
