package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"magfit/domain/loop"
)

// LoadCSV reads a delimited text file. The delimiter is sniffed from the
// first non-empty line (comma, semicolon or tab).
func LoadCSV(path string) (*loop.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	delim, err := sniffDelimiter(br)
	if err != nil {
		return nil, fmt.Errorf("sniff %s: %w", path, err)
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file: %s", path)
	}

	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return buildDataset(label, records[0], records[1:])
}

// WriteCSV writes a dataset back out as comma-separated values, one column
// per field in order. NaN cells become empty fields.
func WriteCSV(ds *loop.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ds.Fields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rows := 0
	for _, name := range ds.Fields {
		if n := len(ds.Columns[name]); n > rows {
			rows = n
		}
	}
	record := make([]string, len(ds.Fields))
	for i := 0; i < rows; i++ {
		for j, name := range ds.Fields {
			record[j] = ""
			col := ds.Columns[name]
			if i < len(col) && !math.IsNaN(col[i]) {
				record[j] = strconv.FormatFloat(col[i], 'g', -1, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

// sniffDelimiter picks the candidate delimiter occurring most often in the
// first non-empty line without consuming the reader.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	const peekSize = 4096
	buf, err := br.Peek(peekSize)
	if err != nil && len(buf) == 0 {
		return 0, err
	}

	line := string(buf)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best, bestCount := ',', 0
	for _, cand := range []rune{',', ';', '\t'} {
		if c := strings.Count(line, string(cand)); c > bestCount {
			best, bestCount = cand, c
		}
	}
	return best, nil
}
