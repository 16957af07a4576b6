package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
)

// CSVWriter writes "<title>_edges.csv" and "<title>_nodes.csv", the two
// tables of Gephi's spreadsheet import.
type CSVWriter struct{}

func (CSVWriter) Format() string { return "csv" }

func (CSVWriter) Write(_ context.Context, dir string, g *gephi.Graph) (files []string, err error) {
	st, err := newStaging(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			st.abort()
		}
	}()

	base := baseName(g.Title)
	tables := []struct {
		name  string
		table *gephi.Table
	}{
		{base + "_edges.csv", g.Edges},
		{base + "_nodes.csv", g.Nodes},
	}
	for _, t := range tables {
		f, err := st.create(t.name)
		if err != nil {
			return nil, err
		}
		werr := WriteCSV(f, t.table)
		cerr := f.Close()
		if werr != nil {
			return nil, fmt.Errorf("write %s: %w", t.name, werr)
		}
		if cerr != nil {
			return nil, fmt.Errorf("close %s: %w", t.name, cerr)
		}
	}
	return st.commit()
}

// WriteCSV writes the header and every row of t. Absent columns are left
// blank; fields containing separators, quotes or newlines are quoted.
func WriteCSV(w io.Writer, t *gephi.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		if err := cw.Write(t.Record(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
