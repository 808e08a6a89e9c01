package loop

import (
	"magfit/domain/core"
)

// Dataset is a loaded measurement: a label plus named numeric columns in
// measurement order. Unparseable cells are stored as NaN so that row
// alignment across columns is preserved. Datasets are treated as immutable;
// corrections clone rather than mutate.
type Dataset struct {
	Label   string               `json:"label"`
	Fields  []string             `json:"fields"` // column order
	Columns map[string][]float64 `json:"columns"`
	XName   string               `json:"x_name,omitempty"` // default field column
	YName   string               `json:"y_name,omitempty"` // default moment column
	Units   map[string]string    `json:"units,omitempty"`
	Meta    map[string]any       `json:"meta,omitempty"`
}

// NewDataset builds a dataset from ordered columns. Column lengths are not
// required to match; SelectXY aligns pairwise.
func NewDataset(label string, fields []string, columns map[string][]float64) *Dataset {
	return &Dataset{
		Label:   label,
		Fields:  fields,
		Columns: columns,
		Units:   map[string]string{},
		Meta:    map[string]any{},
	}
}

// Column returns the named column.
func (d *Dataset) Column(name string) ([]float64, error) {
	col, ok := d.Columns[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	return col, nil
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Columns[name]
	return ok
}

// SelectXY returns the cleaned, index-aligned (H, M) pair for the requested
// columns: a row is dropped from both sides when either value is missing or
// non-finite, preserving measurement order of the survivors.
func (d *Dataset) SelectXY(x, y string) (XY, error) {
	h, err := d.Column(x)
	if err != nil {
		return XY{}, err
	}
	m, err := d.Column(y)
	if err != nil {
		return XY{}, err
	}
	return CleanPair(h, m), nil
}

// Clone returns a copy, optionally relabeled. Column slices are copied so
// the clone can be extended without touching the source.
func (d *Dataset) Clone(label string) *Dataset {
	if label == "" {
		label = d.Label
	}
	columns := make(map[string][]float64, len(d.Columns))
	for name, col := range d.Columns {
		cp := make([]float64, len(col))
		copy(cp, col)
		columns[name] = cp
	}
	units := make(map[string]string, len(d.Units))
	for k, v := range d.Units {
		units[k] = v
	}
	meta := make(map[string]any, len(d.Meta))
	for k, v := range d.Meta {
		meta[k] = v
	}
	return &Dataset{
		Label:   label,
		Fields:  append([]string(nil), d.Fields...),
		Columns: columns,
		XName:   d.XName,
		YName:   d.YName,
		Units:   units,
		Meta:    meta,
	}
}

// WithColumn returns a clone carrying an additional column.
func (d *Dataset) WithColumn(name string, values []float64) *Dataset {
	clone := d.Clone("")
	if !clone.HasColumn(name) {
		clone.Fields = append(clone.Fields, name)
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	clone.Columns[name] = cp
	return clone
}
