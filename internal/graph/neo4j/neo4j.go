package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
	"github.com/efebarandurmaz/stemgraph/internal/graph"
	"github.com/efebarandurmaz/stemgraph/internal/observability"
)

// Relationship types written for output edges.
const (
	RelRelates    = "RELATES"
	RelIncludedIn = "INCLUDED_IN"
)

const storeNodes = `UNWIND $rows AS row
MERGE (n:Entity {graph: $graph, id: row.id})
SET n += row.props`

// Relationship types cannot be parameters, so there is one query per type.
const storeEdges = `UNWIND $rows AS row
MATCH (a:Entity {graph: $graph, id: row.source})
MATCH (b:Entity {graph: $graph, id: row.target})
MERGE (a)-[r:%s {id: row.id}]->(b)
SET r += row.props`

const summarize = `MATCH (n:Entity {graph: $graph})
OPTIONAL MATCH (n)-[r]->(:Entity {graph: $graph})
RETURN count(DISTINCT n) AS nodes,
       count(CASE WHEN type(r) = $relates THEN 1 END) AS relations,
       count(CASE WHEN type(r) = $included THEN 1 END) AS containment`

// Neo4jRepository implements graph.Repository using Neo4j.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

func (r *Neo4jRepository) StoreGraph(ctx context.Context, g *gephi.Graph) (err error) {
	ctx, span := observability.StartStoreSpan(ctx, "neo4j", g.Nodes.Len(), g.Edges.Len())
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	nodes := NodeParams(g)
	relates, included := EdgeParams(g)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, storeNodes, map[string]any{"graph": g.Title, "rows": nodes}); err != nil {
			return nil, fmt.Errorf("nodes: %w", err)
		}
		batches := []struct {
			rel  string
			rows []map[string]any
		}{
			{RelRelates, relates},
			{RelIncludedIn, included},
		}
		for _, b := range batches {
			if len(b.rows) == 0 {
				continue
			}
			if _, err := tx.Run(ctx, fmt.Sprintf(storeEdges, b.rel),
				map[string]any{"graph": g.Title, "rows": b.rows}); err != nil {
				return nil, fmt.Errorf("%s edges: %w", b.rel, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store graph %q: %w", g.Title, err)
	}
	return nil
}

func (r *Neo4jRepository) Summarize(ctx context.Context, title string) (graph.Summary, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, summarize, map[string]any{
			"graph":    title,
			"relates":  RelRelates,
			"included": RelIncludedIn,
		})
		if err != nil {
			return nil, err
		}
		rec, err := records.Single(ctx)
		if err != nil {
			return nil, err
		}
		var s graph.Summary
		if v, ok := rec.Get("nodes"); ok {
			s.Nodes = int(v.(int64))
		}
		if v, ok := rec.Get("relations"); ok {
			s.Relations = int(v.(int64))
		}
		if v, ok := rec.Get("containment"); ok {
			s.Containment = int(v.(int64))
		}
		return s, nil
	})
	if err != nil {
		return graph.Summary{}, fmt.Errorf("summarize graph %q: %w", title, err)
	}
	return result.(graph.Summary), nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// NodeParams turns the node rows into query parameters: the entity id
// plus every other present column as a property.
func NodeParams(g *gephi.Graph) []map[string]any {
	rows := make([]map[string]any, 0, g.Nodes.Len())
	for _, n := range g.Nodes.Rows() {
		props := make(map[string]any, len(n))
		for col, v := range n {
			if col != gephi.ColID {
				props[col] = v
			}
		}
		rows = append(rows, map[string]any{"id": n[gephi.ColID], "props": props})
	}
	return rows
}

// EdgeParams splits the edge rows into RELATES and INCLUDED_IN parameters.
// Edge ids are stored in their tagged text form under either id scheme.
func EdgeParams(g *gephi.Graph) (relates, included []map[string]any) {
	for i, e := range g.Edges.Rows() {
		props := make(map[string]any, len(e))
		for col, v := range e {
			switch col {
			case gephi.ColID, gephi.ColSource, gephi.ColTarget, gephi.ColType:
			default:
				props[col] = v
			}
		}
		id := g.EdgeIDs[i]
		row := map[string]any{
			"id":     id.String(),
			"source": e[gephi.ColSource],
			"target": e[gephi.ColTarget],
			"props":  props,
		}
		if id.Origin == gephi.OriginContainment {
			included = append(included, row)
		} else {
			relates = append(relates, row)
		}
	}
	return relates, included
}

var _ graph.Repository = (*Neo4jRepository)(nil)
