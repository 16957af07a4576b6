package gephi

import (
	"fmt"
	"log/slog"

	"github.com/efebarandurmaz/stemgraph/internal/stemic"
)

// nodeIndex maps an entity id to its row in the node table.
type nodeIndex map[int64]int

// buildNodes emits one row per non-root entity.
func buildNodes(doc *stemic.Document, schema *Schema) (*Table, nodeIndex, error) {
	table, err := NewTable(schema.NodeColumns())
	if err != nil {
		return nil, nil, err
	}
	index := make(nodeIndex, len(doc.Entities))

	for _, e := range doc.Entities {
		if e.IsRoot() {
			continue
		}
		label, ok := e.Label.First()
		if !ok {
			return nil, nil, fmt.Errorf("%w: entity %d", ErrMissingLabel, e.ID)
		}

		row := Row{ColID: e.ID, ColLabel: label}
		if e.CategoryID != nil {
			cat, ok := schema.CategoryLabels[*e.CategoryID]
			if !ok {
				return nil, nil, fmt.Errorf("%w: entity %d references category %d",
					ErrUnknownCategory, e.ID, *e.CategoryID)
			}
			row[ColCategory] = cat
		}
		if e.Note != nil {
			row[ColNote] = e.Note.Join()
		}

		pos, err := table.Append(row)
		if err != nil {
			return nil, nil, err
		}
		index[e.ID] = pos
	}
	return table, index, nil
}

// applyAttributes writes attribute values into the node rows. Attributes
// without a value are skipped; when two attributes land in the same cell the
// later one wins.
func applyAttributes(doc *stemic.Document, schema *Schema, nodes *Table, index nodeIndex, stats *Stats, logger *slog.Logger) error {
	for _, a := range doc.Attributes {
		value, ok := a.Text()
		if !ok {
			stats.AttributesSkipped++
			continue
		}
		col, ok := schema.PropertyColumns[a.PropertyID]
		if !ok {
			return fmt.Errorf("%w: attribute on entity %d references property %d",
				ErrUnknownProperty, a.EntityID, a.PropertyID)
		}
		pos, ok := index[a.EntityID]
		if !ok {
			return fmt.Errorf("%w: attribute references entity %d", ErrUnknownEntity, a.EntityID)
		}

		replaced, err := nodes.Set(pos, col, value)
		if err != nil {
			return err
		}
		if replaced {
			stats.AttributesOverwritten++
			logger.Warn("Attribute overwrites an earlier value",
				"entity", a.EntityID, "property", a.PropertyID, "column", col)
		}
		stats.AttributesApplied++
	}
	return nil
}
