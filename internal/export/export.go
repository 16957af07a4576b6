// Package export writes converted graphs to files Gephi can open.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
	"github.com/efebarandurmaz/stemgraph/internal/observability"
)

// ErrDestinationMissing is returned when the output directory does not exist.
var ErrDestinationMissing = errors.New("export: destination directory does not exist")

// Writer serializes a graph into one output format.
type Writer interface {
	// Format is the name used to select the writer, e.g. "csv".
	Format() string
	// Write creates the format's files in dir and returns their paths.
	Write(ctx context.Context, dir string, g *gephi.Graph) ([]string, error)
}

// Registry stores the available writers by format name.
type Registry struct {
	mu      sync.RWMutex
	writers map[string]Writer
}

// NewRegistry creates an empty writer registry.
func NewRegistry() *Registry {
	return &Registry{writers: make(map[string]Writer)}
}

// DefaultRegistry returns a registry holding every built-in writer.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CSVWriter{})
	r.Register(XLSXWriter{})
	r.Register(DOTWriter{})
	r.Register(JSONWriter{})
	return r
}

func (r *Registry) Register(w Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writers[w.Format()] = w
}

func (r *Registry) Writer(format string) (Writer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.writers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("no writer for format %q", format)
	}
	return w, nil
}

// Formats lists the registered format names in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.writers))
	for name := range r.writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export writes g in each of formats into dir. The directory must exist.
func (r *Registry) Export(ctx context.Context, dir string, g *gephi.Graph, formats []string) ([]string, error) {
	if err := CheckDestination(dir); err != nil {
		return nil, err
	}

	writers := make([]Writer, 0, len(formats))
	for _, f := range formats {
		w, err := r.Writer(f)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	var written []string
	for _, w := range writers {
		files, err := writeTraced(ctx, w, dir, g)
		if err != nil {
			return written, fmt.Errorf("write %s: %w", w.Format(), err)
		}
		written = append(written, files...)
	}
	return written, nil
}

func writeTraced(ctx context.Context, w Writer, dir string, g *gephi.Graph) ([]string, error) {
	ctx, span := observability.StartExportSpan(ctx, w.Format(), dir)
	defer span.End()

	files, err := w.Write(ctx, dir, g)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordExportResult(span, files)
	return files, nil
}

// CheckDestination verifies that dir exists and is a directory.
func CheckDestination(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDestinationMissing, dir)
	}
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDestinationMissing, dir)
	}
	return nil
}

// baseName turns a document title into a file name prefix.
func baseName(title string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(title)
}

// staging writes files under temporary names and renames them into place
// only once every file of the set has been written.
type staging struct {
	dir    string
	temps  []string
	finals []string
}

func newStaging(dir string) (*staging, error) {
	if err := CheckDestination(dir); err != nil {
		return nil, err
	}
	return &staging{dir: dir}, nil
}

// create opens a temporary file that will become name on commit.
func (s *staging) create(name string) (*os.File, error) {
	f, err := os.CreateTemp(s.dir, ".stemgraph-*")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	s.temps = append(s.temps, f.Name())
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return nil, fmt.Errorf("chmod %s: %w", name, err)
	}
	s.finals = append(s.finals, filepath.Join(s.dir, name))
	return f, nil
}

// commit renames every staged file into place. Existing targets are moved
// aside first and restored if any rename fails, so a failed commit leaves
// the previous set of files untouched.
func (s *staging) commit() ([]string, error) {
	for _, final := range s.finals {
		info, err := os.Lstat(final)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("stat %s: %w", final, err)
		}
		if !info.Mode().IsRegular() {
			s.abort()
			return nil, fmt.Errorf("replace %s: not a regular file", final)
		}
	}

	backups := make(map[string]string, len(s.finals))
	var placed []string
	rollback := func() {
		for _, final := range placed {
			_ = os.Remove(final)
		}
		for final, bak := range backups {
			_ = os.Rename(bak, final)
		}
		s.abort()
	}

	for i, final := range s.finals {
		bak := filepath.Join(s.dir, ".stemgraph-bak-"+strings.TrimPrefix(filepath.Base(s.temps[i]), ".stemgraph-"))
		err := os.Rename(final, bak)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			rollback()
			return nil, fmt.Errorf("back up %s: %w", final, err)
		}
		backups[final] = bak
	}
	for i, tmp := range s.temps {
		if err := os.Rename(tmp, s.finals[i]); err != nil {
			rollback()
			return nil, fmt.Errorf("rename %s: %w", s.finals[i], err)
		}
		placed = append(placed, s.finals[i])
	}
	for _, bak := range backups {
		_ = os.Remove(bak)
	}
	return s.finals, nil
}

func (s *staging) abort() {
	for _, tmp := range s.temps {
		_ = os.Remove(tmp)
	}
}
