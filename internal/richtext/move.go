package richtext

import (
	"errors"
	"strings"
)

type Direction int

const (
	Up Direction = iota
	Down
)

// AnchorKind says how the selection should be restored after a move.
type AnchorKind string

const (
	// AnchorNode re-selects the whole block (atoms like horizontal rules).
	AnchorNode AnchorKind = "node"
	// AnchorText re-anchors a text cursor inside the moved block.
	AnchorText AnchorKind = "text"
)

// Selection is the hint returned after a successful move.
type Selection struct {
	Index  int
	Anchor AnchorKind
}

var ErrCannotMove = errors.New("block cannot move in that direction")

// CanMove reports whether the top-level block at index may move in the
// given direction. Moving up requires a block above. Moving down
// requires a block below that is not part of a trailing run of empty
// blocks: when everything below the block is blank, the move is
// refused so a block cannot wander into trailing empty paragraphs.
func CanMove(doc Doc, index int, dir Direction) bool {
	blocks := Blocks(doc)
	if index < 0 || index >= len(blocks) {
		return false
	}
	if dir == Up {
		return index > 0
	}
	if index >= len(blocks)-1 {
		return false
	}
	for _, item := range blocks[index+1:] {
		node, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if strings.TrimSpace(nodeText(node)) != "" {
			return true
		}
	}
	return false
}

// MoveBlock removes the top-level block at index and reinserts it at
// the adjacent position, mutating doc. It returns where the selection
// should land.
func MoveBlock(doc Doc, index int, dir Direction) (Selection, error) {
	if !CanMove(doc, index, dir) {
		return Selection{}, ErrCannotMove
	}

	blocks := Blocks(doc)
	target := index - 1
	if dir == Down {
		target = index + 1
	}

	moved := blocks[index]
	rest := append(blocks[:index:index], blocks[index+1:]...)
	next := make([]interface{}, 0, len(blocks))
	next = append(next, rest[:target]...)
	next = append(next, moved)
	next = append(next, rest[target:]...)
	doc["content"] = next

	anchor := AnchorText
	if node, ok := moved.(map[string]interface{}); ok {
		if isAtom(node) {
			anchor = AnchorNode
		}
	}
	return Selection{Index: target, Anchor: anchor}, nil
}

// isAtom reports blocks with no editable text position.
func isAtom(node map[string]interface{}) bool {
	switch t, _ := node["type"].(string); t {
	case "horizontalRule", "image":
		return true
	}
	return false
}
