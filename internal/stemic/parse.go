package stemic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformedDocument is returned when the input is not a Stemic document.
var ErrMalformedDocument = errors.New("stemic: malformed document")

// Parse decodes a Stemic document from r. Anything but whitespace after
// the document is rejected.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformedDocument)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrMalformedDocument)
	}
	return &doc, nil
}

// Load reads and parses the Stemic file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stemic file: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
