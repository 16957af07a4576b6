package gephi

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/efebarandurmaz/stemgraph/internal/stemic"
)

func ptr[T any](v T) *T { return &v }

func text(blocks ...string) *stemic.RichText {
	rt := &stemic.RichText{}
	for _, b := range blocks {
		rt.Blocks = append(rt.Blocks, stemic.Block{Text: b})
	}
	return rt
}

// sizeDoc is the two-category document: root plus one entity per category,
// a shared "Size" property and one large labelled edge.
func sizeDoc() *stemic.Document {
	return &stemic.Document{
		Title: "Sizes",
		Categories: []stemic.Category{
			{ID: 1, Label: "CatA"},
			{ID: 2, Label: "CatB"},
		},
		Properties: []stemic.Property{
			{ID: 10, Label: "Size", CategoryID: 1},
			{ID: 20, Label: "Size", CategoryID: 2},
		},
		Entities: []stemic.Entity{
			{ID: 0, Label: text("root")},
			{ID: 1, Label: text("Alpha"), CategoryID: ptr(int64(1))},
			{ID: 2, Label: text("Beta"), CategoryID: ptr(int64(2))},
		},
		Attributes: []stemic.Attribute{
			{EntityID: 1, PropertyID: 10, Value: []byte(`"small"`)},
			{EntityID: 2, PropertyID: 20, Value: []byte(`12`)},
		},
		Nodes: []stemic.Node{
			{ID: 0, EntityID: 0},
			{ID: 100, EntityID: 1},
			{ID: 200, EntityID: 2},
		},
		Edges: []stemic.Edge{
			{ID: 1, Source: 100, Target: 200, Label: ptr("feeds"), Thickness: ptr("large")},
		},
	}
}

func mustConvert(t *testing.T, doc *stemic.Document, opts Options) *Graph {
	t.Helper()
	g, err := Convert(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return g
}

func nodeRow(t *testing.T, g *Graph, id int64) Row {
	t.Helper()
	for _, r := range g.Nodes.Rows() {
		if r[ColID] == id {
			return r
		}
	}
	t.Fatalf("no node row for entity %d", id)
	return nil
}

func TestConvert_SharedPropertyRoundTrip(t *testing.T) {
	g := mustConvert(t, sizeDoc(), Options{})

	cols := g.Nodes.Columns()
	found := false
	for _, c := range cols {
		if c == "Size (CatA, CatB)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected column %q in %v", "Size (CatA, CatB)", cols)
	}
	if g.Nodes.Len() != 2 {
		t.Fatalf("expected 2 node rows, got %d", g.Nodes.Len())
	}
	if g.Edges.Len() != 1 {
		t.Fatalf("expected 1 edge row, got %d", g.Edges.Len())
	}

	e := g.Edges.Rows()[0]
	if e[ColWeight] != int64(4) {
		t.Errorf("expected weight 4, got %v", e[ColWeight])
	}
	if e[ColHypothetic] != int64(0) {
		t.Errorf("expected hypothetic 0, got %v", e[ColHypothetic])
	}
	if e[ColType] != EdgeTypeDirected {
		t.Errorf("expected type directed, got %v", e[ColType])
	}
	if e[ColSource] != int64(1) || e[ColTarget] != int64(2) {
		t.Errorf("endpoints should be entity ids, got %v -> %v", e[ColSource], e[ColTarget])
	}
	if e[ColLabel] != "feeds" {
		t.Errorf("expected label feeds, got %v", e[ColLabel])
	}

	alpha := nodeRow(t, g, 1)
	if alpha.Text("Size (CatA, CatB)") != "small" {
		t.Errorf("unexpected Size for Alpha: %q", alpha.Text("Size (CatA, CatB)"))
	}
	if alpha[ColCategory] != "CatA" {
		t.Errorf("unexpected category %v", alpha[ColCategory])
	}
	beta := nodeRow(t, g, 2)
	if beta.Text("Size (CatA, CatB)") != "12" {
		t.Errorf("unexpected Size for Beta: %q", beta.Text("Size (CatA, CatB)"))
	}
}

func TestConvert_RootNeverExported(t *testing.T) {
	doc := sizeDoc()
	// entity 1 sits in a group drawn by the root placement's entity
	doc.Nodes = append(doc.Nodes, stemic.Node{ID: 300, EntityID: 0, GroupID: 0})
	doc.Nodes[1].GroupID = 300

	g := mustConvert(t, doc, Options{})

	for _, r := range g.Nodes.Rows() {
		if r[ColID] == int64(0) {
			t.Fatal("root entity must not have a node row")
		}
	}
	for _, r := range g.Edges.Rows() {
		if r[ColLabel] == DefaultGroupLabel {
			t.Fatalf("containment edge anchored on root must be skipped: %v", r)
		}
	}
}

func TestConvert_OptionalNodeFields(t *testing.T) {
	doc := &stemic.Document{
		Title:      "Fields",
		Categories: []stemic.Category{{ID: 1, Label: "Idea"}},
		Entities: []stemic.Entity{
			{ID: 1, Label: text("both"), CategoryID: ptr(int64(1)), Note: text("a", "b")},
			{ID: 2, Label: text("category only"), CategoryID: ptr(int64(1))},
			{ID: 3, Label: text("note only"), Note: text("c")},
			{ID: 4, Label: text("bare")},
		},
	}
	g := mustConvert(t, doc, Options{})

	tests := []struct {
		id           int64
		wantCategory bool
		wantNote     string
	}{
		{1, true, "a\nb"},
		{2, true, ""},
		{3, false, "c"},
		{4, false, ""},
	}
	for _, tt := range tests {
		r := nodeRow(t, g, tt.id)
		if _, ok := r.Get(ColCategory); ok != tt.wantCategory {
			t.Errorf("entity %d: category present=%v, want %v", tt.id, ok, tt.wantCategory)
		}
		note, ok := r.Get(ColNote)
		if (tt.wantNote != "") != ok || (ok && note != tt.wantNote) {
			t.Errorf("entity %d: note=%v (present=%v), want %q", tt.id, note, ok, tt.wantNote)
		}
		if _, ok := r.Get(ColHighlight); ok {
			t.Errorf("entity %d: highlight should be absent", tt.id)
		}
	}
}

func TestConvert_ValuelessAttributeSkipped(t *testing.T) {
	doc := sizeDoc()
	doc.Attributes = append(doc.Attributes, stemic.Attribute{EntityID: 1, PropertyID: 10})

	g := mustConvert(t, doc, Options{})
	if got := nodeRow(t, g, 1).Text("Size (CatA, CatB)"); got != "small" {
		t.Errorf("valueless attribute must not blank the cell, got %q", got)
	}
	if g.Stats.AttributesSkipped != 1 {
		t.Errorf("expected 1 skipped attribute, got %d", g.Stats.AttributesSkipped)
	}
}

func TestConvert_DuplicateAttributeLastWins(t *testing.T) {
	doc := sizeDoc()
	doc.Attributes = append(doc.Attributes, stemic.Attribute{EntityID: 1, PropertyID: 20, Value: []byte(`"huge"`)})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	g := mustConvert(t, doc, Options{Logger: logger})

	if got := nodeRow(t, g, 1).Text("Size (CatA, CatB)"); got != "huge" {
		t.Errorf("expected last write to win, got %q", got)
	}
	if g.Stats.AttributesOverwritten != 1 {
		t.Errorf("expected 1 overwrite, got %d", g.Stats.AttributesOverwritten)
	}
	if !strings.Contains(logs.String(), "overwrites") {
		t.Errorf("expected a warning about the overwrite, got %q", logs.String())
	}
}

func TestConvert_Bidirectional(t *testing.T) {
	doc := sizeDoc()
	doc.Edges = []stemic.Edge{
		{ID: 1, Source: 100, Target: 200, IsBidirectional: true, Note: text("x", "y")},
		{ID: 2, Source: 200, Target: 100},
	}
	g := mustConvert(t, doc, Options{})

	if g.Edges.Len() != 3 {
		t.Fatalf("expected 3 edge rows, got %d", g.Edges.Len())
	}
	fwd, back := g.Edges.Rows()[0], g.Edges.Rows()[1]
	if fwd[ColSource] != back[ColTarget] || fwd[ColTarget] != back[ColSource] {
		t.Errorf("reverse row should swap endpoints: %v / %v", fwd, back)
	}
	if fwd[ColID] == back[ColID] {
		t.Errorf("reverse row needs its own id, both are %v", fwd[ColID])
	}
	if back[ColNote] != "x\ny" {
		t.Errorf("reverse row should keep the note, got %v", back[ColNote])
	}
	if g.EdgeIDs[1] != (EdgeID{Origin: OriginReversed, Ref: 1}) {
		t.Errorf("unexpected edge id %+v", g.EdgeIDs[1])
	}
	if g.Stats.ReversedEdges != 1 || g.Stats.SourceEdges != 2 {
		t.Errorf("unexpected stats %+v", g.Stats)
	}
}

func TestConvert_WeightMapping(t *testing.T) {
	tests := []struct {
		thickness      *string
		wantWeight     int64
		wantHypothetic int64
	}{
		{ptr("dashed"), 1, 1},
		{ptr("medium"), 3, 0},
		{ptr("large"), 4, 0},
		{nil, 2, 0},
	}
	for _, tt := range tests {
		name := "absent"
		if tt.thickness != nil {
			name = *tt.thickness
		}
		t.Run(name, func(t *testing.T) {
			doc := sizeDoc()
			doc.Edges[0].Thickness = tt.thickness
			e := mustConvert(t, doc, Options{}).Edges.Rows()[0]
			if e[ColWeight] != tt.wantWeight {
				t.Errorf("weight = %v, want %d", e[ColWeight], tt.wantWeight)
			}
			if e[ColHypothetic] != tt.wantHypothetic {
				t.Errorf("hypothetic = %v, want %d", e[ColHypothetic], tt.wantHypothetic)
			}
		})
	}
}

func TestConvert_UnknownThickness(t *testing.T) {
	doc := sizeDoc()
	doc.Edges[0].Thickness = ptr("thin")
	if _, err := Convert(context.Background(), doc, Options{}); !errors.Is(err, ErrUnknownThickness) {
		t.Fatalf("expected ErrUnknownThickness, got %v", err)
	}
}

func TestConvert_Containment(t *testing.T) {
	doc := sizeDoc()
	doc.Entities = append(doc.Entities, stemic.Entity{ID: 3, Label: text("Group")})
	doc.Nodes = append(doc.Nodes, stemic.Node{ID: 300, EntityID: 3})
	doc.Nodes[1].GroupID = 300
	doc.Nodes[2].GroupID = 300

	g := mustConvert(t, doc, Options{GroupLabel: "part_of"})

	var containment []Row
	for i, r := range g.Edges.Rows() {
		if g.EdgeIDs[i].Origin == OriginContainment {
			containment = append(containment, r)
		}
	}
	if len(containment) != 2 {
		t.Fatalf("expected 2 containment rows, got %d", len(containment))
	}
	for _, r := range containment {
		if r[ColLabel] != "part_of" {
			t.Errorf("unexpected label %v", r[ColLabel])
		}
		if r[ColWeight] != int64(2) || r[ColHypothetic] != int64(0) {
			t.Errorf("unexpected weight/hypothetic %v/%v", r[ColWeight], r[ColHypothetic])
		}
		if r[ColTarget] != int64(3) {
			t.Errorf("containment should target the group entity, got %v", r[ColTarget])
		}
		if r[ColType] != EdgeTypeDirected {
			t.Errorf("unexpected type %v", r[ColType])
		}
	}
	if containment[0][ColSource] != int64(1) || containment[1][ColSource] != int64(2) {
		t.Errorf("unexpected sources %v, %v", containment[0][ColSource], containment[1][ColSource])
	}
}

func TestConvert_DefaultGroupLabel(t *testing.T) {
	doc := sizeDoc()
	doc.Nodes[1].GroupID = 200
	g := mustConvert(t, doc, Options{})
	last := g.Edges.Rows()[g.Edges.Len()-1]
	if last[ColLabel] != "included_in" {
		t.Errorf("expected default group label, got %v", last[ColLabel])
	}
}

func TestConvert_EdgeIDsDistinct(t *testing.T) {
	for _, scheme := range []IDScheme{IDSchemeTagged, IDSchemeBanded} {
		t.Run(string(scheme), func(t *testing.T) {
			doc := sizeDoc()
			doc.Edges = []stemic.Edge{
				{ID: 5, Source: 100, Target: 200, IsBidirectional: true},
				{ID: 10, Source: 200, Target: 100, IsBidirectional: true},
			}
			doc.Entities = append(doc.Entities, stemic.Entity{ID: 3, Label: text("Group")})
			doc.Nodes = append(doc.Nodes, stemic.Node{ID: 3, EntityID: 3})
			doc.Nodes[1].GroupID = 3

			g := mustConvert(t, doc, Options{IDScheme: scheme})
			seen := make(map[string]bool)
			for _, r := range g.Edges.Rows() {
				id := r.Text(ColID)
				if seen[id] {
					t.Fatalf("duplicate edge id %s", id)
				}
				seen[id] = true
			}
			if len(seen) != 5 {
				t.Errorf("expected 5 edge rows, got %d", len(seen))
			}
		})
	}
}

func TestConvert_BandedIDs(t *testing.T) {
	doc := sizeDoc()
	doc.Edges = []stemic.Edge{
		{ID: 4, Source: 100, Target: 200, IsBidirectional: true},
		{ID: 10, Source: 200, Target: 100},
	}
	doc.Nodes[1].GroupID = 200

	g := mustConvert(t, doc, Options{IDScheme: IDSchemeBanded})
	var ids []any
	for _, r := range g.Edges.Rows() {
		ids = append(ids, r[ColID])
	}
	want := []any{int64(4), int64(24), int64(10), int64(130)}
	if len(ids) != len(want) {
		t.Fatalf("expected %d rows, got %v", len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("row %d id = %v, want %v", i, ids[i], want[i])
		}
	}
}

func TestConvert_DuplicateSourceEdgeID(t *testing.T) {
	for _, scheme := range []IDScheme{IDSchemeTagged, IDSchemeBanded} {
		t.Run(string(scheme), func(t *testing.T) {
			doc := sizeDoc()
			doc.Edges = append(doc.Edges, stemic.Edge{ID: 1, Source: 200, Target: 100})
			_, err := Convert(context.Background(), doc, Options{IDScheme: scheme})
			if !errors.Is(err, ErrEdgeIDCollision) {
				t.Fatalf("expected ErrEdgeIDCollision, got %v", err)
			}
		})
	}
}

func TestConvert_ColorThemes(t *testing.T) {
	doc := sizeDoc()
	doc.Nodes[1].HighlightColor = ptr("#FF0000")
	doc.Nodes[2].HighlightColor = ptr("#00FF00")
	doc.Edges[0].HighlightColor = ptr("#FF0000")
	doc.Edges = append(doc.Edges, stemic.Edge{ID: 2, Source: 200, Target: 100, HighlightColor: ptr("#00FF00")})

	g := mustConvert(t, doc, Options{ColorThemes: map[string]string{"#FF0000": "urgent"}})

	if got := nodeRow(t, g, 1)[ColHighlight]; got != "urgent" {
		t.Errorf("mapped node highlight = %v, want urgent", got)
	}
	if got := nodeRow(t, g, 2)[ColHighlight]; got != "#00FF00" {
		t.Errorf("unmapped node highlight = %v, want #00FF00", got)
	}
	if got := g.Edges.Rows()[0][ColHighlight]; got != "urgent" {
		t.Errorf("mapped edge highlight = %v, want urgent", got)
	}
	if got := g.Edges.Rows()[1][ColHighlight]; got != "#00FF00" {
		t.Errorf("unmapped edge highlight = %v, want #00FF00", got)
	}
	if g.Stats.HighlightedNodes != 2 {
		t.Errorf("expected 2 highlighted nodes, got %d", g.Stats.HighlightedNodes)
	}

}

func TestConvert_ColorThemesExactMatch(t *testing.T) {
	tests := []struct {
		name   string
		color  string
		themes map[string]string
		want   string
	}{
		{"lowercase key", "#FF0000", map[string]string{"#ff0000": "urgent"}, "#FF0000"},
		{"uppercase key", "#ff0000", map[string]string{"#FF0000": "urgent"}, "#ff0000"},
		{"mixed case color", "#Ff0000", map[string]string{"#ff0000": "lower", "#FF0000": "upper"}, "#Ff0000"},
		{"exact among case variants", "#FF0000", map[string]string{"#ff0000": "lower", "#FF0000": "upper"}, "upper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sizeDoc()
			doc.Nodes[1].HighlightColor = ptr(tt.color)
			doc.Edges[0].HighlightColor = ptr(tt.color)
			for i := 0; i < 20; i++ {
				g := mustConvert(t, doc, Options{ColorThemes: tt.themes})
				if got := nodeRow(t, g, 1)[ColHighlight]; got != tt.want {
					t.Fatalf("node highlight = %v, want %v", got, tt.want)
				}
				if got := g.Edges.Rows()[0][ColHighlight]; got != tt.want {
					t.Fatalf("edge highlight = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestConvert_MalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*stemic.Document)
		want   error
	}{
		{"missing_label", func(d *stemic.Document) { d.Entities[1].Label = nil }, ErrMissingLabel},
		{"empty_label", func(d *stemic.Document) { d.Entities[1].Label = text() }, ErrMissingLabel},
		{"entity_category", func(d *stemic.Document) { d.Entities[1].CategoryID = ptr(int64(9)) }, ErrUnknownCategory},
		{"property_category", func(d *stemic.Document) { d.Properties[0].CategoryID = 9 }, ErrUnknownCategory},
		{"attribute_property", func(d *stemic.Document) { d.Attributes[0].PropertyID = 99 }, ErrUnknownProperty},
		{"attribute_entity", func(d *stemic.Document) { d.Attributes[0].EntityID = 99 }, ErrUnknownEntity},
		{"edge_source", func(d *stemic.Document) { d.Edges[0].Source = 999 }, ErrUnknownPlacement},
		{"edge_target", func(d *stemic.Document) { d.Edges[0].Target = 999 }, ErrUnknownPlacement},
		{"group_placement", func(d *stemic.Document) { d.Nodes[1].GroupID = 999 }, ErrUnknownPlacement},
		{"highlight_entity", func(d *stemic.Document) {
			d.Nodes = append(d.Nodes, stemic.Node{ID: 400, EntityID: 42, HighlightColor: ptr("#000")})
		}, ErrUnknownEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sizeDoc()
			tt.mutate(doc)
			g, err := Convert(context.Background(), doc, Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if g != nil {
				t.Error("no graph should be returned on error")
			}
		})
	}
}

func TestConvert_InvalidIDScheme(t *testing.T) {
	_, err := Convert(context.Background(), sizeDoc(), Options{IDScheme: "random"})
	if !errors.Is(err, ErrInvalidIDScheme) {
		t.Fatalf("expected ErrInvalidIDScheme, got %v", err)
	}
}

func TestConvert_RootHighlightDropped(t *testing.T) {
	doc := sizeDoc()
	doc.Nodes[0].HighlightColor = ptr("#FFFFFF")
	g := mustConvert(t, doc, Options{})
	if g.Stats.HighlightedNodes != 0 {
		t.Errorf("root highlight should be dropped, got %d highlighted", g.Stats.HighlightedNodes)
	}
}
