package gephi

import (
	"fmt"
	"strconv"
)

// Fixed column names shared by the node and edge tables.
const (
	ColID         = "id"
	ColLabel      = "label"
	ColCategory   = "category"
	ColNote       = "note"
	ColHighlight  = "highlight"
	ColSource     = "source"
	ColTarget     = "target"
	ColType       = "type"
	ColWeight     = "weight"
	ColHypothetic = "hypothetic"
)

// EdgeTypeDirected is the only edge type emitted; bidirectional edges become
// two directed rows.
const EdgeTypeDirected = "directed"

// EdgeColumns is the fixed header of the edge table.
var EdgeColumns = []string{
	ColID, ColSource, ColTarget, ColType, ColLabel, ColWeight, ColNote, ColHighlight, ColHypothetic,
}

// NodeFixedColumns precede the resolved property columns in the node table.
var NodeFixedColumns = []string{ColID, ColLabel, ColCategory, ColNote, ColHighlight}

// Row is a sparse record: a missing key means the column is absent for this
// row, which is distinct from an empty string. Values are string or int64.
type Row map[string]any

// Get returns the value of col and whether it is present.
func (r Row) Get(col string) (any, bool) {
	v, ok := r[col]
	return v, ok
}

// Text returns the value of col as text, or "" when absent.
func (r Row) Text(col string) string {
	v, ok := r[col]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// FormatValue renders a row value as it appears in a text table.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

// Table is an ordered set of rows over a closed, ordered column set.
type Table struct {
	columns  []string
	declared map[string]bool
	rows     []Row
}

// NewTable creates an empty table with the given header. Column names must
// be unique.
func NewTable(columns []string) (*Table, error) {
	t := &Table{
		columns:  append([]string(nil), columns...),
		declared: make(map[string]bool, len(columns)),
	}
	for _, c := range columns {
		if t.declared[c] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		t.declared[c] = true
	}
	return t, nil
}

// Columns returns the header in order.
func (t *Table) Columns() []string { return t.columns }

// Rows returns the rows in insertion order.
func (t *Table) Rows() []Row { return t.rows }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Append adds a row and returns its position.
func (t *Table) Append(r Row) (int, error) {
	for col := range r {
		if !t.declared[col] {
			return 0, fmt.Errorf("%w: %q", ErrUndeclaredColumn, col)
		}
	}
	t.rows = append(t.rows, r)
	return len(t.rows) - 1, nil
}

// Set writes value into row i. It reports whether a previous value was
// replaced.
func (t *Table) Set(i int, col string, value any) (replaced bool, err error) {
	if !t.declared[col] {
		return false, fmt.Errorf("%w: %q", ErrUndeclaredColumn, col)
	}
	_, replaced = t.rows[i][col]
	t.rows[i][col] = value
	return replaced, nil
}

// Record returns row i in header order with "" for absent columns.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.columns))
	for j, col := range t.columns {
		rec[j] = t.rows[i].Text(col)
	}
	return rec
}

// EdgeOrigin says how an output edge came to exist.
type EdgeOrigin int

const (
	// OriginEdge is an edge of the source document, in its own direction.
	OriginEdge EdgeOrigin = iota
	// OriginReversed is the back direction of a bidirectional edge.
	OriginReversed
	// OriginContainment links a grouped placement to its group.
	OriginContainment
)

func (o EdgeOrigin) String() string {
	switch o {
	case OriginEdge:
		return "edge"
	case OriginReversed:
		return "reversed"
	case OriginContainment:
		return "containment"
	default:
		return "unknown"
	}
}

// EdgeID identifies an output edge. Ref is the source edge id for
// OriginEdge and OriginReversed, and the placement id for OriginContainment,
// so two distinct EdgeIDs never denote the same edge.
type EdgeID struct {
	Origin EdgeOrigin
	Ref    int64
}

// String renders the tagged form: "12", "12r" or "g7".
func (id EdgeID) String() string {
	switch id.Origin {
	case OriginReversed:
		return strconv.FormatInt(id.Ref, 10) + "r"
	case OriginContainment:
		return "g" + strconv.FormatInt(id.Ref, 10)
	default:
		return strconv.FormatInt(id.Ref, 10)
	}
}

// Graph is the result of a conversion.
type Graph struct {
	Title string `json:"title"`
	Nodes *Table `json:"-"`
	Edges *Table `json:"-"`
	// EdgeIDs is aligned with Edges.Rows().
	EdgeIDs []EdgeID `json:"-"`
	Stats   Stats    `json:"stats"`
}

// Stats holds counts gathered during conversion.
type Stats struct {
	Categories            int `json:"categories"`
	Properties            int `json:"properties"`
	PropertyColumns       int `json:"property_columns"`
	SharedColumns         int `json:"shared_columns"`
	NodeRows              int `json:"node_rows"`
	AttributesApplied     int `json:"attributes_applied"`
	AttributesSkipped     int `json:"attributes_skipped"`
	AttributesOverwritten int `json:"attributes_overwritten"`
	HighlightedNodes      int `json:"highlighted_nodes"`
	EdgeRows              int `json:"edge_rows"`
	SourceEdges           int `json:"source_edges"`
	ReversedEdges         int `json:"reversed_edges"`
	ContainmentEdges      int `json:"containment_edges"`
	HypotheticEdges       int `json:"hypothetic_edges"`
}
