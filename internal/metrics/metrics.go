// Package metrics collects and reports statistics for a conversion run.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
)

// Report colors, shared with the dark terminal theme.
const (
	ColorBlue   = "#58a6ff"
	ColorGreen  = "#3fb950"
	ColorRed    = "#f85149"
	ColorGray   = "#8b949e"
	ColorBright = "#f0f6fc"
)

// ConversionMetrics collects statistics for one run of the converter.
type ConversionMetrics struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Input      string         `json:"input"`
	Title      string         `json:"title"`
	Stats      gephi.Stats    `json:"stats"`
	Stages     []StageMetrics `json:"stages"`
	Files      []FileMetrics  `json:"files,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
}

type FileMetrics struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// New starts tracking a run reading input.
func New(input string) *ConversionMetrics {
	return &ConversionMetrics{StartedAt: time.Now(), Input: input}
}

// AddStage records how long one stage of the run took.
func (m *ConversionMetrics) AddStage(name string, d time.Duration) {
	m.Stages = append(m.Stages, StageMetrics{Name: name, Duration: d})
}

// CollectGraph copies the title and counts of a converted graph.
func (m *ConversionMetrics) CollectGraph(g *gephi.Graph) {
	m.Title = g.Title
	m.Stats = g.Stats
}

// CollectFiles records the written files and their sizes. Files that can
// no longer be stat'ed are recorded with size zero.
func (m *ConversionMetrics) CollectFiles(paths []string) {
	for _, p := range paths {
		fm := FileMetrics{Path: p}
		if info, err := os.Stat(p); err == nil {
			fm.Bytes = info.Size()
		}
		m.Files = append(m.Files, fm)
	}
}

// Finish marks the run as complete.
func (m *ConversionMetrics) Finish(errs []string) {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.Errors = errs
}

// PrintSummary writes a human-readable report. Colors are used only when w
// is a terminal.
func (m *ConversionMetrics) PrintSummary(w io.Writer) {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorBright))
	section := r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorBlue))
	label := r.NewStyle().Foreground(lipgloss.Color(ColorGray)).Width(22)
	ok := r.NewStyle().Foreground(lipgloss.Color(ColorGreen))
	bad := r.NewStyle().Foreground(lipgloss.Color(ColorRed))
	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBlue)).
		Padding(0, 1)

	var b strings.Builder
	line := func(name string, value any) {
		b.WriteString(label.Render(name) + fmt.Sprint(value) + "\n")
	}

	b.WriteString(title.Render("STEMGRAPH CONVERSION REPORT") + "\n\n")
	line("Title:", m.Title)
	line("Input:", m.Input)
	line("Duration:", m.Duration.Round(time.Millisecond))

	b.WriteString("\n" + section.Render("NODES") + "\n")
	line("Categories:", m.Stats.Categories)
	line("Property columns:", fmt.Sprintf("%d (%d shared)", m.Stats.PropertyColumns, m.Stats.SharedColumns))
	line("Node rows:", m.Stats.NodeRows)
	line("Attributes applied:", m.Stats.AttributesApplied)
	line("Attributes skipped:", m.Stats.AttributesSkipped)
	line("Attributes replaced:", m.Stats.AttributesOverwritten)
	line("Highlighted nodes:", m.Stats.HighlightedNodes)

	b.WriteString("\n" + section.Render("EDGES") + "\n")
	line("Edge rows:", m.Stats.EdgeRows)
	line("Source edges:", m.Stats.SourceEdges)
	line("Reversed edges:", m.Stats.ReversedEdges)
	line("Containment edges:", m.Stats.ContainmentEdges)
	line("Hypothetic edges:", m.Stats.HypotheticEdges)

	if len(m.Stages) > 0 {
		b.WriteString("\n" + section.Render("STAGES") + "\n")
		for _, s := range m.Stages {
			line(s.Name, s.Duration.Round(time.Microsecond))
		}
	}

	if len(m.Files) > 0 {
		b.WriteString("\n" + section.Render("FILES") + "\n")
		for _, f := range m.Files {
			b.WriteString(ok.Render("✓ ") + f.Path + " (" + formatBytes(f.Bytes) + ")\n")
		}
	}

	if len(m.Errors) > 0 {
		b.WriteString("\n" + section.Render("ERRORS") + "\n")
		for _, e := range m.Errors {
			b.WriteString(bad.Render("• ") + e + "\n")
		}
	}

	fmt.Fprintln(w, box.Render(strings.TrimRight(b.String(), "\n")))
}

// JSON returns the metrics as formatted JSON.
func (m *ConversionMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
