package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
)

// DOTWriter writes "<title>.dot", a Graphviz rendering that Gephi can also
// open. Nodes are clustered by category.
type DOTWriter struct{}

func (DOTWriter) Format() string { return "dot" }

func (DOTWriter) Write(_ context.Context, dir string, g *gephi.Graph) (files []string, err error) {
	st, err := newStaging(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			st.abort()
		}
	}()

	name := baseName(g.Title) + ".dot"
	f, err := st.create(name)
	if err != nil {
		return nil, err
	}
	_, werr := io.WriteString(f, ExportDOT(g))
	cerr := f.Close()
	if werr != nil {
		return nil, fmt.Errorf("write %s: %w", name, werr)
	}
	if cerr != nil {
		return nil, fmt.Errorf("close %s: %w", name, cerr)
	}
	return st.commit()
}

// ExportDOT generates a Graphviz DOT representation of the graph.
func ExportDOT(g *gephi.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quoteDOT(g.Title))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\" shape=box style=rounded];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	// Group nodes by category using clusters
	byCategory := make(map[string][]gephi.Row)
	var loose []gephi.Row
	for _, n := range g.Nodes.Rows() {
		if cat, ok := n.Get(gephi.ColCategory); ok {
			byCategory[gephi.FormatValue(cat)] = append(byCategory[gephi.FormatValue(cat)], n)
		} else {
			loose = append(loose, n)
		}
	}
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	for i, cat := range cats {
		fmt.Fprintf(&b, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&b, "    label=%s;\n", quoteDOT(cat))
		b.WriteString("    style=dashed;\n")
		b.WriteString("    color=\"#58a6ff\";\n")
		for _, n := range byCategory[cat] {
			b.WriteString("    " + dotNode(n) + "\n")
		}
		b.WriteString("  }\n\n")
	}
	for _, n := range loose {
		b.WriteString("  " + dotNode(n) + "\n")
	}
	if len(loose) > 0 {
		b.WriteString("\n")
	}

	for _, e := range g.Edges.Rows() {
		attrs := []string{
			"id=" + quoteDOT(e.Text(gephi.ColID)),
			"penwidth=" + e.Text(gephi.ColWeight),
		}
		if e.Text(gephi.ColHypothetic) == "1" {
			attrs = append(attrs, "style=dashed")
		}
		if label, ok := e.Get(gephi.ColLabel); ok {
			attrs = append(attrs, "label="+quoteDOT(gephi.FormatValue(label)))
		}
		if color := dotColor(e); color != "" {
			attrs = append(attrs, "color="+quoteDOT(color))
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n",
			quoteDOT(e.Text(gephi.ColSource)), quoteDOT(e.Text(gephi.ColTarget)), strings.Join(attrs, " "))
	}

	b.WriteString("}\n")
	return b.String()
}

func dotNode(n gephi.Row) string {
	attrs := []string{"label=" + quoteDOT(n.Text(gephi.ColLabel))}
	if color := dotColor(n); color != "" {
		attrs = append(attrs, "style=\"rounded,filled\"", "fillcolor="+quoteDOT(color))
	}
	return fmt.Sprintf("%s [%s];", quoteDOT(n.Text(gephi.ColID)), strings.Join(attrs, " "))
}

// dotColor returns the highlight only when it is a raw hex color; theme
// names are not Graphviz colors.
func dotColor(r gephi.Row) string {
	h := r.Text(gephi.ColHighlight)
	if strings.HasPrefix(h, "#") {
		return h
	}
	return ""
}

func quoteDOT(s string) string {
	return "\"" + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s) + "\""
}
