// Package graph defines storage of converted graphs in a graph database.
package graph

import (
	"context"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
)

// Summary counts what a store holds for one graph title.
type Summary struct {
	Nodes       int `json:"nodes"`
	Relations   int `json:"relations"`
	Containment int `json:"containment"`
}

// Repository provides graph storage for converted documents.
type Repository interface {
	// StoreGraph persists the node and edge rows of g, keyed by its title.
	// Storing the same graph twice leaves the store unchanged.
	StoreGraph(ctx context.Context, g *gephi.Graph) error
	// Summarize counts the stored nodes and edges of the graph titled title.
	Summarize(ctx context.Context, title string) (Summary, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
