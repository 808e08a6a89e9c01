package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"magfit/domain/loop"
)

// LoadExcel reads the first sheet of an XLSX workbook; the first row is the
// header.
func LoadExcel(path string) (*loop.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet in %s", path)
	}

	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return buildDataset(label, rows[0], rows[1:])
}
