package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/stemgraph/internal/config"
	"github.com/efebarandurmaz/stemgraph/internal/export"
	"github.com/efebarandurmaz/stemgraph/internal/gephi"
	"github.com/efebarandurmaz/stemgraph/internal/graph/neo4j"
	"github.com/efebarandurmaz/stemgraph/internal/logging"
	"github.com/efebarandurmaz/stemgraph/internal/metrics"
	"github.com/efebarandurmaz/stemgraph/internal/observability"
	"github.com/efebarandurmaz/stemgraph/internal/stemic"
)

const defaultDestinationName = config.DefaultDestination

// convertFlags are command-line overrides of the convert config section.
type convertFlags struct {
	output     string
	groupLabel string
	themes     map[string]string
	formats    []string
	idScheme   string
}

func (f convertFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Convert.Destination = f.output
	}
	if flags.Changed("group-label") {
		cfg.Convert.GroupLabel = f.groupLabel
	}
	if flags.Changed("format") {
		cfg.Convert.Formats = f.formats
	}
	if flags.Changed("id-scheme") {
		cfg.Convert.IDScheme = f.idScheme
	}
	if flags.Changed("theme") {
		if cfg.Convert.ColorThemes == nil {
			cfg.Convert.ColorThemes = make(map[string]string, len(f.themes))
		}
		for color, name := range f.themes {
			cfg.Convert.ColorThemes[color] = name
		}
	}
}

type pushFlags struct {
	uri      string
	username string
	password string
}

func (f pushFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("uri") {
		cfg.Graph.URI = f.uri
	}
	if flags.Changed("username") {
		cfg.Graph.Username = f.username
	}
	if flags.Changed("password") {
		cfg.Graph.Password = f.password
	}
}

// environment is the state shared by every command.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer *observability.TracerProvider
}

func setup(ctx context.Context, configPath string) (*environment, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		logger.Warn("Invalid log level, using info", "error", err)
	}
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	tracer, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: observability.DefaultTracingConfig().ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	return &environment{cfg: cfg, logger: logger, tracer: tracer}, nil
}

func (e *environment) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.tracer.Shutdown(ctx); err != nil {
		e.logger.Warn("Tracer shutdown failed", "error", err)
	}
}

func (e *environment) options() (gephi.Options, error) {
	scheme, err := gephi.ParseIDScheme(e.cfg.Convert.IDScheme)
	if err != nil {
		return gephi.Options{}, err
	}
	return gephi.Options{
		GroupLabel:  e.cfg.Convert.GroupLabel,
		ColorThemes: e.cfg.Convert.ColorThemes,
		IDScheme:    scheme,
		Logger:      e.logger,
	}, nil
}

// destination resolves the output directory. It is never created here;
// the writers reject a missing directory.
func (e *environment) destination() (string, error) {
	if dir := e.cfg.Convert.Destination; dir != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	return filepath.Join(wd, defaultDestinationName), nil
}

// load parses and converts the input, recording both stages on m.
func (e *environment) load(ctx context.Context, inputPath string, m *metrics.ConversionMetrics) (*gephi.Graph, error) {
	opts, err := e.options()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := stemic.Load(inputPath)
	if err != nil {
		return nil, err
	}
	m.AddStage("parse", time.Since(start))

	start = time.Now()
	g, err := gephi.Convert(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", inputPath, err)
	}
	m.AddStage("convert", time.Since(start))
	m.CollectGraph(g)
	return g, nil
}

func runConvert(ctx context.Context, e *environment, inputPath string, jsonReport bool, out io.Writer) error {
	m := metrics.New(inputPath)

	g, err := e.load(ctx, inputPath, m)
	if err != nil {
		return err
	}

	dir, err := e.destination()
	if err != nil {
		return err
	}
	formats := e.cfg.Convert.Formats
	if len(formats) == 0 {
		formats = []string{"csv"}
	}

	start := time.Now()
	files, err := export.DefaultRegistry().Export(ctx, dir, g, formats)
	m.AddStage("write", time.Since(start))
	m.CollectFiles(files)
	if err != nil {
		m.Finish([]string{err.Error()})
		if rerr := report(m, jsonReport, out); rerr != nil {
			e.logger.Warn("Report failed", "error", rerr)
		}
		return err
	}
	e.logger.Info("Conversion complete",
		"title", g.Title, "nodes", g.Nodes.Len(), "edges", g.Edges.Len(), "files", len(files))

	m.Finish(nil)
	return report(m, jsonReport, out)
}

func report(m *metrics.ConversionMetrics, jsonReport bool, out io.Writer) error {
	if !jsonReport {
		m.PrintSummary(out)
		return nil
	}
	data, err := m.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

type inspection struct {
	Title       string      `json:"title"`
	NodeColumns []string    `json:"node_columns"`
	EdgeColumns []string    `json:"edge_columns"`
	Stats       gephi.Stats `json:"stats"`
}

func runInspect(ctx context.Context, e *environment, inputPath string, jsonReport bool, out io.Writer) error {
	m := metrics.New(inputPath)
	g, err := e.load(ctx, inputPath, m)
	if err != nil {
		return err
	}
	m.Finish(nil)

	if jsonReport {
		data, err := json.MarshalIndent(inspection{
			Title:       g.Title,
			NodeColumns: g.Nodes.Columns(),
			EdgeColumns: g.Edges.Columns(),
			Stats:       g.Stats,
		}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "Node columns: %s\n", strings.Join(g.Nodes.Columns(), ", "))
	fmt.Fprintf(out, "Edge columns: %s\n", strings.Join(g.Edges.Columns(), ", "))
	m.PrintSummary(out)
	return nil
}

func runPush(ctx context.Context, e *environment, inputPath string, out io.Writer) error {
	if e.cfg.Graph.URI == "" {
		return errors.New("no Neo4j URI: set graph.uri, STEMGRAPH_GRAPH_URI or --uri")
	}

	m := metrics.New(inputPath)
	g, err := e.load(ctx, inputPath, m)
	if err != nil {
		return err
	}

	repo, err := neo4j.NewNeo4j(ctx, e.cfg.Graph.URI, e.cfg.Graph.Username, e.cfg.Graph.Password)
	if err != nil {
		return err
	}
	defer repo.Close(ctx)

	if err := repo.StoreGraph(ctx, g); err != nil {
		return err
	}
	summary, err := repo.Summarize(ctx, g.Title)
	if err != nil {
		return err
	}
	e.logger.Info("Graph stored", "title", g.Title, "uri", e.cfg.Graph.URI)
	fmt.Fprintf(out, "Stored %q: %d nodes, %d relations, %d containment edges\n",
		g.Title, summary.Nodes, summary.Relations, summary.Containment)
	return nil
}
