package stemic

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `{
  "title": "Ecosystem",
  "categories": [{"id": 1, "label": "Species"}],
  "properties": [{"id": 10, "label": "Size", "categoryId": 1}],
  "entities": [
    {"id": 0, "label": {"blocks": [{"text": "root"}]}},
    {"id": 1, "label": {"blocks": [{"text": "Wolf"}, {"text": "ignored"}]}, "categoryId": 1,
     "note": {"blocks": [{"text": "apex"}, {"text": "predator"}]}}
  ],
  "attributes": [
    {"entityId": 1, "propertyId": 10, "value": "large"},
    {"entityId": 1, "propertyId": 10}
  ],
  "nodes": [{"id": 5, "entityId": 1, "groupId": 0, "highlightColor": "#FF0000", "x": 10}],
  "edges": [{"id": 3, "source": 5, "target": 5, "thickness": "dashed", "isBidirectional": true}]
}`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Ecosystem" {
		t.Errorf("expected title Ecosystem, got %q", doc.Title)
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(doc.Entities))
	}
	if !doc.Entities[0].IsRoot() {
		t.Error("entity 0 should be the root")
	}

	wolf := doc.Entities[1]
	if label, ok := wolf.Label.First(); !ok || label != "Wolf" {
		t.Errorf("expected first label block Wolf, got %q (ok=%v)", label, ok)
	}
	if wolf.CategoryID == nil || *wolf.CategoryID != 1 {
		t.Errorf("expected category 1, got %v", wolf.CategoryID)
	}
	if got := wolf.Note.Join(); got != "apex\npredator" {
		t.Errorf("unexpected note %q", got)
	}

	if v, ok := doc.Attributes[0].Text(); !ok || v != "large" {
		t.Errorf("expected value large, got %q (ok=%v)", v, ok)
	}
	if _, ok := doc.Attributes[1].Text(); ok {
		t.Error("attribute without value should report no value")
	}

	node := doc.Nodes[0]
	if _, grouped := node.Group(); grouped {
		t.Error("groupId 0 should mean ungrouped")
	}
	if node.HighlightColor == nil || *node.HighlightColor != "#FF0000" {
		t.Errorf("unexpected highlight %v", node.HighlightColor)
	}

	edge := doc.Edges[0]
	if edge.Label != nil {
		t.Error("absent label should decode to nil")
	}
	if edge.Thickness == nil || *edge.Thickness != ThicknessDashed {
		t.Errorf("unexpected thickness %v", edge.Thickness)
	}
	if !edge.IsBidirectional {
		t.Error("expected bidirectional edge")
	}
}

func TestParse_TrailingWhitespace(t *testing.T) {
	doc, err := Parse(strings.NewReader("{\"title\": \"x\"}\n \t\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "x" {
		t.Errorf("expected title x, got %q", doc.Title)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not_json", "title: nope"},
		{"truncated", `{"title": "x", "entities": [`},
		{"missing_title", `{"entities": []}`},
		{"trailing_garbage", `{"title": "x"} garbage`},
		{"second_document", `{"title": "x"}{"title": "y"}`},
		{"trailing_bracket", "{\"title\": \"x\"}\n]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestAttributeText(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"string", `"hello"`, "hello", true},
		{"escaped", `"a \"b\""`, `a "b"`, true},
		{"number", `42.5`, "42.5", true},
		{"bool", `true`, "true", true},
		{"null", `null`, "", false},
		{"empty_string", `""`, "", true},
		{"absent", ``, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Attribute{Value: []byte(tt.raw)}
			got, ok := a.Text()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Text() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRichText_Nil(t *testing.T) {
	var rt *RichText
	if _, ok := rt.First(); ok {
		t.Error("nil rich text should have no first block")
	}
	if rt.Join() != "" {
		t.Error("nil rich text should join to empty string")
	}
	if _, ok := (&RichText{}).First(); ok {
		t.Error("empty rich text should have no first block")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(doc.Edges))
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
