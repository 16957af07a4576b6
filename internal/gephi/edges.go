package gephi

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/efebarandurmaz/stemgraph/internal/stemic"
)

// defaultWeight applies to edges without a thickness and to containment
// edges.
const defaultWeight int64 = 2

var thicknessWeights = map[string]int64{
	stemic.ThicknessDashed: 1,
	stemic.ThicknessMedium: 3,
	stemic.ThicknessLarge:  4,
}

// edgeWeight maps a stroke thickness onto a Gephi weight and the
// hypothetic flag.
func edgeWeight(thickness *string) (weight, hypothetic int64, err error) {
	if thickness == nil {
		return defaultWeight, 0, nil
	}
	weight, ok := thicknessWeights[*thickness]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownThickness, *thickness)
	}
	if *thickness == stemic.ThicknessDashed {
		hypothetic = 1
	}
	return weight, hypothetic, nil
}

type edgeBuilder struct {
	opts       Options
	placements map[int64]int64
	maxEdgeID  int64
	table      *Table
	ids        []EdgeID
	seen       map[string]EdgeID
	stats      *Stats
}

func newEdgeBuilder(doc *stemic.Document, opts Options, stats *Stats) (*edgeBuilder, error) {
	table, err := NewTable(EdgeColumns)
	if err != nil {
		return nil, err
	}
	b := &edgeBuilder{
		opts:       opts,
		placements: make(map[int64]int64, len(doc.Nodes)),
		table:      table,
		seen:       make(map[string]EdgeID),
		stats:      stats,
	}
	for _, n := range doc.Nodes {
		b.placements[n.ID] = n.EntityID
	}
	for _, e := range doc.Edges {
		if e.ID > b.maxEdgeID {
			b.maxEdgeID = e.ID
		}
	}
	return b, nil
}

// entityOf translates a placement id into the entity it shows.
func (b *edgeBuilder) entityOf(placement int64) (int64, error) {
	entity, ok := b.placements[placement]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPlacement, placement)
	}
	return entity, nil
}

// renderID turns an EdgeID into the value of the id column.
func (b *edgeBuilder) renderID(id EdgeID) any {
	if b.opts.IDScheme != IDSchemeBanded {
		return id.String()
	}
	switch id.Origin {
	case OriginReversed:
		return b.maxEdgeID*2 + id.Ref
	case OriginContainment:
		return b.maxEdgeID*3 + id.Ref
	default:
		return id.Ref
	}
}

func (b *edgeBuilder) add(id EdgeID, row Row) error {
	rendered := b.renderID(id)
	key := FormatValue(rendered)
	if prev, dup := b.seen[key]; dup {
		return fmt.Errorf("%w: %s edge %d and %s edge %d both render as %s",
			ErrEdgeIDCollision, prev.Origin, prev.Ref, id.Origin, id.Ref, key)
	}
	b.seen[key] = id

	row[ColID] = rendered
	if _, err := b.table.Append(row); err != nil {
		return err
	}
	b.ids = append(b.ids, id)
	return nil
}

// addEdges emits the document's edges, doubling bidirectional ones.
func (b *edgeBuilder) addEdges(edges []stemic.Edge) error {
	for _, e := range edges {
		source, err := b.entityOf(e.Source)
		if err != nil {
			return fmt.Errorf("edge %d source: %w", e.ID, err)
		}
		target, err := b.entityOf(e.Target)
		if err != nil {
			return fmt.Errorf("edge %d target: %w", e.ID, err)
		}
		weight, hypothetic, err := edgeWeight(e.Thickness)
		if err != nil {
			return fmt.Errorf("edge %d: %w", e.ID, err)
		}

		row := Row{
			ColSource:     source,
			ColTarget:     target,
			ColType:       EdgeTypeDirected,
			ColWeight:     weight,
			ColHypothetic: hypothetic,
		}
		if e.Label != nil {
			row[ColLabel] = *e.Label
		}
		if e.Note != nil {
			row[ColNote] = e.Note.Join()
		}
		if e.HighlightColor != nil {
			row[ColHighlight] = b.opts.theme(*e.HighlightColor)
		}

		var back Row
		if e.IsBidirectional {
			back = maps.Clone(row)
			back[ColSource], back[ColTarget] = target, source
		}

		if err := b.add(EdgeID{Origin: OriginEdge, Ref: e.ID}, row); err != nil {
			return err
		}
		b.stats.SourceEdges++
		if hypothetic == 1 {
			b.stats.HypotheticEdges++
		}
		if back != nil {
			if err := b.add(EdgeID{Origin: OriginReversed, Ref: e.ID}, back); err != nil {
				return err
			}
			b.stats.ReversedEdges++
			if hypothetic == 1 {
				b.stats.HypotheticEdges++
			}
		}
	}
	return nil
}

// addContainment links every grouped placement to its group.
func (b *edgeBuilder) addContainment(placements []stemic.Node, logger *slog.Logger) error {
	for _, n := range placements {
		if n.IsRoot() {
			continue
		}
		group, ok := n.Group()
		if !ok {
			continue
		}
		target, err := b.entityOf(group)
		if err != nil {
			return fmt.Errorf("placement %d group: %w", n.ID, err)
		}
		if stemic.IsRootEntity(n.EntityID) || stemic.IsRootEntity(target) {
			logger.Debug("Skipping containment edge anchored on the root entity",
				"placement", n.ID, "group", group)
			continue
		}

		row := Row{
			ColSource:     n.EntityID,
			ColTarget:     target,
			ColType:       EdgeTypeDirected,
			ColLabel:      b.opts.GroupLabel,
			ColWeight:     defaultWeight,
			ColHypothetic: int64(0),
		}
		if err := b.add(EdgeID{Origin: OriginContainment, Ref: n.ID}, row); err != nil {
			return err
		}
		b.stats.ContainmentEdges++
	}
	return nil
}

// applyHighlights copies placement highlight colors onto node rows. The
// root entity has no row, so its highlight is dropped.
func applyHighlights(placements []stemic.Node, nodes *Table, index nodeIndex, opts Options, stats *Stats) error {
	for _, n := range placements {
		if n.HighlightColor == nil || stemic.IsRootEntity(n.EntityID) {
			continue
		}
		pos, ok := index[n.EntityID]
		if !ok {
			return fmt.Errorf("%w: placement %d shows entity %d", ErrUnknownEntity, n.ID, n.EntityID)
		}
		if _, err := nodes.Set(pos, ColHighlight, opts.theme(*n.HighlightColor)); err != nil {
			return err
		}
		stats.HighlightedNodes++
	}
	return nil
}
