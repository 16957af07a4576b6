// Package gephi rewrites a Stemic document into the flat node and edge
// tables that Gephi's spreadsheet import expects.
package gephi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/efebarandurmaz/stemgraph/internal/observability"
	"github.com/efebarandurmaz/stemgraph/internal/stemic"
)

// DefaultGroupLabel labels the edges linking grouped entities to their group.
const DefaultGroupLabel = "included_in"

// IDScheme selects how output edge ids are rendered.
type IDScheme string

const (
	// IDSchemeTagged renders ids as "12", "12r" and "g7".
	IDSchemeTagged IDScheme = "tagged"
	// IDSchemeBanded renders numeric ids in bands above the largest source
	// edge id, as earlier exports did. Collisions are reported, not written.
	IDSchemeBanded IDScheme = "banded"
)

// ParseIDScheme validates an id scheme name. The empty string selects the
// tagged scheme.
func ParseIDScheme(s string) (IDScheme, error) {
	switch IDScheme(s) {
	case "", IDSchemeTagged:
		return IDSchemeTagged, nil
	case IDSchemeBanded:
		return IDSchemeBanded, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIDScheme, s)
	}
}

// Options tunes a conversion.
type Options struct {
	// GroupLabel labels containment edges (default "included_in").
	GroupLabel string
	// ColorThemes maps raw highlight colors onto theme names. Keys match
	// exactly; unmapped colors are written as is.
	ColorThemes map[string]string
	// IDScheme defaults to IDSchemeTagged.
	IDScheme IDScheme
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.GroupLabel == "" {
		o.GroupLabel = DefaultGroupLabel
	}
	if o.IDScheme == "" {
		o.IDScheme = IDSchemeTagged
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) theme(color string) string {
	if name, ok := o.ColorThemes[color]; ok {
		return name
	}
	return color
}

// Convert builds the node and edge tables of doc. It runs four passes in
// order: schema resolution, node rows, attribute values, then edges with
// node highlights and group containment. Nothing is returned on error.
func Convert(ctx context.Context, doc *stemic.Document, opts Options) (g *Graph, err error) {
	opts = opts.withDefaults()
	if _, err := ParseIDScheme(string(opts.IDScheme)); err != nil {
		return nil, err
	}

	ctx, span := observability.StartConvertSpan(ctx, doc.Title)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	g = &Graph{Title: doc.Title}

	_, resolveSpan := observability.StartPassSpan(ctx, observability.PassResolve)
	schema, err := Resolve(doc)
	if err != nil {
		observability.RecordError(resolveSpan, err)
		resolveSpan.End()
		return nil, err
	}
	observability.RecordPassResult(resolveSpan, len(schema.Columns))
	resolveSpan.End()

	g.Stats.Categories = len(doc.Categories)
	g.Stats.Properties = len(doc.Properties)
	g.Stats.PropertyColumns = len(schema.Columns)
	g.Stats.SharedColumns = schema.Shared

	_, nodeSpan := observability.StartPassSpan(ctx, observability.PassNodes)
	nodes, index, err := buildNodes(doc, schema)
	if err == nil {
		err = applyAttributes(doc, schema, nodes, index, &g.Stats, opts.Logger)
	}
	if err != nil {
		observability.RecordError(nodeSpan, err)
		nodeSpan.End()
		return nil, err
	}
	observability.RecordPassResult(nodeSpan, nodes.Len())
	nodeSpan.End()

	_, edgeSpan := observability.StartPassSpan(ctx, observability.PassEdges)
	b, err := newEdgeBuilder(doc, opts, &g.Stats)
	if err == nil {
		err = b.addEdges(doc.Edges)
	}
	if err == nil {
		err = applyHighlights(doc.Nodes, nodes, index, opts, &g.Stats)
	}
	if err == nil {
		err = b.addContainment(doc.Nodes, opts.Logger)
	}
	if err != nil {
		observability.RecordError(edgeSpan, err)
		edgeSpan.End()
		return nil, err
	}
	observability.RecordPassResult(edgeSpan, b.table.Len())
	edgeSpan.End()

	g.Nodes = nodes
	g.Edges = b.table
	g.EdgeIDs = b.ids
	g.Stats.NodeRows = nodes.Len()
	g.Stats.EdgeRows = b.table.Len()

	opts.Logger.Debug("Converted document",
		"title", doc.Title,
		"nodes", g.Stats.NodeRows,
		"edges", g.Stats.EdgeRows,
		"containment", g.Stats.ContainmentEdges,
	)
	return g, nil
}
