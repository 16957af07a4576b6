package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/efebarandurmaz/stemgraph/internal/gephi"
)

// Sheet names of the XLSX workbook.
const (
	NodesSheet = "nodes"
	EdgesSheet = "edges"
)

// XLSXWriter writes "<title>.xlsx" with a nodes and an edges sheet, for
// Gephi's Excel import. Numeric columns keep their numeric cell type.
type XLSXWriter struct{}

func (XLSXWriter) Format() string { return "xlsx" }

func (XLSXWriter) Write(_ context.Context, dir string, g *gephi.Graph) (files []string, err error) {
	st, err := newStaging(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			st.abort()
		}
	}()

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), NodesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := wb.NewSheet(EdgesSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := fillSheet(wb, NodesSheet, g.Nodes); err != nil {
		return nil, err
	}
	if err := fillSheet(wb, EdgesSheet, g.Edges); err != nil {
		return nil, err
	}

	name := baseName(g.Title) + ".xlsx"
	f, err := st.create(name)
	if err != nil {
		return nil, err
	}
	_, werr := wb.WriteTo(f)
	cerr := f.Close()
	if werr != nil {
		return nil, fmt.Errorf("write %s: %w", name, werr)
	}
	if cerr != nil {
		return nil, fmt.Errorf("close %s: %w", name, cerr)
	}
	return st.commit()
}

func fillSheet(wb *excelize.File, sheet string, t *gephi.Table) error {
	header := make([]any, len(t.Columns()))
	for i, c := range t.Columns() {
		header[i] = c
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}

	for i, row := range t.Rows() {
		values := make([]any, len(t.Columns()))
		for j, col := range t.Columns() {
			if v, ok := row.Get(col); ok {
				values[j] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
