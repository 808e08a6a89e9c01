// Package loader reads tabular measurement files into loop datasets. It is a
// collaborator of the analysis core: it only supplies named numeric columns,
// never interprets them.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"magfit/domain/loop"
)

// Load reads a dataset from path, dispatching on the file extension.
// CSV (and TSV/TXT with sniffed delimiters) and XLSX are supported.
func Load(path string) (*loop.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadExcel(path)
	case ".csv", ".tsv", ".txt", ".dat":
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// buildDataset converts header + string rows into a dataset with coerced
// numeric columns. Short rows are padded so columns stay aligned.
func buildDataset(label string, header []string, rows [][]string) (*loop.Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("no header row in %s", label)
	}

	raw := make([][]string, len(header))
	for i := range raw {
		raw[i] = make([]string, 0, len(rows))
	}
	for _, row := range rows {
		for i := range header {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	fields := make([]string, len(header))
	columns := make(map[string][]float64, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		fields[i] = name
		columns[name] = loop.CoerceStrings(raw[i])
	}
	return loop.NewDataset(label, fields, columns), nil
}
