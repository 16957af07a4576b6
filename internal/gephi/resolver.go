package gephi

import (
	"fmt"
	"strings"

	"github.com/efebarandurmaz/stemgraph/internal/stemic"
)

// Schema maps category and property ids onto output labels and columns.
type Schema struct {
	// CategoryLabels maps a category id to its label.
	CategoryLabels map[int64]string
	// PropertyColumns maps a property id to its node table column.
	PropertyColumns map[int64]string
	// Columns lists the distinct property columns in declaration order.
	Columns []string
	// Shared counts columns declared by more than one category.
	Shared int
}

// NodeColumns returns the full node table header.
func (s *Schema) NodeColumns() []string {
	cols := make([]string, 0, len(NodeFixedColumns)+len(s.Columns))
	cols = append(cols, NodeFixedColumns...)
	return append(cols, s.Columns...)
}

// Resolve builds the category and property lookups of doc.
//
// Properties are grouped by label. A label declared by a single category
// keeps its bare name; a label declared by several categories becomes
// "label (A, B, ...)" listing those categories in declaration order, and
// every property with that label maps to that one column. A bare name that
// equals a fixed node column or another label's column is suffixed with its
// category as well. Any remaining clash fails with ErrDuplicateColumn.
func Resolve(doc *stemic.Document) (*Schema, error) {
	s := &Schema{
		CategoryLabels:  make(map[int64]string, len(doc.Categories)),
		PropertyColumns: make(map[int64]string, len(doc.Properties)),
	}
	for _, c := range doc.Categories {
		s.CategoryLabels[c.ID] = c.Label
	}

	var labels []string
	owners := make(map[string][]int64)
	for _, p := range doc.Properties {
		if _, ok := s.CategoryLabels[p.CategoryID]; !ok {
			return nil, fmt.Errorf("%w: property %d (%q) references category %d",
				ErrUnknownCategory, p.ID, p.Label, p.CategoryID)
		}
		if _, seen := owners[p.Label]; !seen {
			labels = append(labels, p.Label)
		}
		if !containsID(owners[p.Label], p.CategoryID) {
			owners[p.Label] = append(owners[p.Label], p.CategoryID)
		}
	}

	columnOf := make(map[string]string, len(labels))
	wanted := make(map[string]int, len(labels))
	for _, label := range labels {
		col := label
		if len(owners[label]) > 1 || isFixedNodeColumn(label) {
			col = s.qualify(label, owners[label])
		}
		columnOf[label] = col
		wanted[col]++
	}
	for _, label := range labels {
		if col := columnOf[label]; col == label && wanted[col] > 1 {
			columnOf[label] = s.qualify(label, owners[label])
		}
	}

	used := make(map[string]bool, len(NodeFixedColumns)+len(labels))
	for _, c := range NodeFixedColumns {
		used[c] = true
	}
	for _, label := range labels {
		col := columnOf[label]
		if used[col] {
			return nil, fmt.Errorf("%w: %q from property label %q", ErrDuplicateColumn, col, label)
		}
		used[col] = true
		if len(owners[label]) > 1 {
			s.Shared++
		}
		s.Columns = append(s.Columns, col)
	}
	for _, p := range doc.Properties {
		s.PropertyColumns[p.ID] = columnOf[p.Label]
	}
	return s, nil
}

// qualify renders "label (A, B, ...)" from the owning category labels.
func (s *Schema) qualify(label string, ids []int64) string {
	cats := make([]string, len(ids))
	for i, id := range ids {
		cats[i] = s.CategoryLabels[id]
	}
	return fmt.Sprintf("%s (%s)", label, strings.Join(cats, ", "))
}

func containsID(list []int64, id int64) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func isFixedNodeColumn(name string) bool {
	for _, c := range NodeFixedColumns {
		if c == name {
			return true
		}
	}
	return false
}
