// Package stemic models a Stemic graph document as exported by the Stemic
// editor (JSON). Only the parts needed to rebuild the graph are decoded;
// layout and view state are ignored.
package stemic

import (
	"bytes"
	"encoding/json"
	"strings"
)

// rootID is the identifier Stemic reserves for the document root entity and
// for "no group" on placements.
const rootID = 0

// Document is the in-memory tree of a Stemic file.
type Document struct {
	Title      string      `json:"title"`
	Categories []Category  `json:"categories"`
	Properties []Property  `json:"properties"`
	Entities   []Entity    `json:"entities"`
	Attributes []Attribute `json:"attributes"`
	Nodes      []Node      `json:"nodes"`
	Edges      []Edge      `json:"edges"`
}

// Category is a node type of the taxonomy.
type Category struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Property is an attribute slot declared by one category.
type Property struct {
	ID         int64  `json:"id"`
	Label      string `json:"label"`
	CategoryID int64  `json:"categoryId"`
}

// RichText is Stemic's block-based text value.
type RichText struct {
	Blocks []Block `json:"blocks"`
}

// Block is one paragraph of a RichText.
type Block struct {
	Text string `json:"text"`
}

// First returns the text of the first block.
func (t *RichText) First() (string, bool) {
	if t == nil || len(t.Blocks) == 0 {
		return "", false
	}
	return t.Blocks[0].Text, true
}

// Join returns all block texts separated by newlines.
func (t *RichText) Join() string {
	if t == nil {
		return ""
	}
	parts := make([]string, len(t.Blocks))
	for i, b := range t.Blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n")
}

// Entity is a conceptual node, independent of where it is drawn.
type Entity struct {
	ID         int64     `json:"id"`
	Label      *RichText `json:"label"`
	CategoryID *int64    `json:"categoryId,omitempty"`
	Note       *RichText `json:"note,omitempty"`
}

// IsRoot reports whether e is the document root, which is never exported.
func (e Entity) IsRoot() bool {
	return e.ID == rootID
}

// IsRootEntity reports whether id refers to the document root entity.
func IsRootEntity(id int64) bool {
	return id == rootID
}

// Attribute is the value of a property on one entity.
type Attribute struct {
	EntityID   int64           `json:"entityId"`
	PropertyID int64           `json:"propertyId"`
	Value      json.RawMessage `json:"value,omitempty"`
}

// Text returns the value in its textual form. Strings are unquoted; numbers
// and booleans keep their JSON literal. ok is false when the attribute has
// no value (missing key or null).
func (a Attribute) Text() (text string, ok bool) {
	raw := bytes.TrimSpace(a.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	return string(raw), true
}

// Node is a placement of an entity on the canvas.
type Node struct {
	ID             int64   `json:"id"`
	EntityID       int64   `json:"entityId"`
	GroupID        int64   `json:"groupId"`
	HighlightColor *string `json:"highlightColor,omitempty"`
}

// IsRoot reports whether n is the root placement.
func (n Node) IsRoot() bool {
	return n.ID == rootID
}

// Group returns the placement id of the group containing n.
func (n Node) Group() (int64, bool) {
	if n.GroupID == rootID {
		return 0, false
	}
	return n.GroupID, true
}

// Thickness values of an edge stroke.
const (
	ThicknessDashed = "dashed"
	ThicknessMedium = "medium"
	ThicknessLarge  = "large"
)

// Edge is a relationship between two placements.
type Edge struct {
	ID              int64     `json:"id"`
	Source          int64     `json:"source"`
	Target          int64     `json:"target"`
	Label           *string   `json:"label,omitempty"`
	Thickness       *string   `json:"thickness,omitempty"`
	Note            *RichText `json:"note,omitempty"`
	HighlightColor  *string   `json:"highlightColor,omitempty"`
	IsBidirectional bool      `json:"isBidirectional"`
}
