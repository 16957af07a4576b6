package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
)

// JSONWriter writes "<title>.json" holding both tables and the conversion
// statistics. Absent columns are omitted from each row object.
type JSONWriter struct{}

func (JSONWriter) Format() string { return "json" }

type jsonGraph struct {
	Title       string      `json:"title"`
	NodeColumns []string    `json:"node_columns"`
	EdgeColumns []string    `json:"edge_columns"`
	Nodes       []gephi.Row `json:"nodes"`
	Edges       []gephi.Row `json:"edges"`
	Stats       gephi.Stats `json:"stats"`
}

// ExportJSON serializes the graph to JSON.
func ExportJSON(g *gephi.Graph) ([]byte, error) {
	return json.MarshalIndent(jsonGraph{
		Title:       g.Title,
		NodeColumns: g.Nodes.Columns(),
		EdgeColumns: g.Edges.Columns(),
		Nodes:       nonNil(g.Nodes.Rows()),
		Edges:       nonNil(g.Edges.Rows()),
		Stats:       g.Stats,
	}, "", "  ")
}

func nonNil(rows []gephi.Row) []gephi.Row {
	if rows == nil {
		return []gephi.Row{}
	}
	return rows
}

func (JSONWriter) Write(_ context.Context, dir string, g *gephi.Graph) (files []string, err error) {
	data, err := ExportJSON(g)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	st, err := newStaging(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			st.abort()
		}
	}()

	name := baseName(g.Title) + ".json"
	f, err := st.create(name)
	if err != nil {
		return nil, err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil {
		return nil, fmt.Errorf("write %s: %w", name, werr)
	}
	if cerr != nil {
		return nil, fmt.Errorf("close %s: %w", name, cerr)
	}
	return st.commit()
}
