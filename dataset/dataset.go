// Package dataset defines the dataset provider contract consumed by the index
// and an in-memory Table implementation.
//
// Loading and parsing files is left to callers; a Table is assembled from
// already integer-coded columns:
//
//	tbl, err := dataset.NewBuilder(label).
//	    Column(color, []int{0, 1, 2, 0}).
//	    Column(size, []int{1, 1, 0, 2}).
//	    Labels([]int{1, 0, 1, 1}).
//	    Build()
package dataset

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/rulesynth/model"
)

var (
	// ErrColumnLength is returned when columns have different row counts.
	ErrColumnLength = errors.New("column length mismatch")

	// ErrDuplicateFeature is returned when a feature name is registered twice.
	ErrDuplicateFeature = errors.New("duplicate feature")

	// ErrMissingLabel is returned when no label column is provided.
	ErrMissingLabel = errors.New("missing label column")

	// ErrRowOutOfRange is returned when a row id is not below NumRows.
	ErrRowOutOfRange = errors.New("row out of range")
)

// ValueError reports a cell whose value is outside the feature domain.
type ValueError struct {
	Feature string
	Row     model.RowID
	Value   int
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("feature %q row %d: value %d not in domain", e.Feature, e.Row, e.Value)
}

// Dataset is a categorical tabular dataset with a designated label column.
type Dataset interface {
	// NumRows returns the number of instances.
	NumRows() int
	// Features returns the (non-label) features in column order.
	Features() []*model.Feature
	// Label returns the label feature.
	Label() *model.Feature
	// Column returns the integer-coded values of the named column (feature or
	// label). model.Missing marks absent values. The slice must not be modified.
	Column(name string) ([]int, bool)
}

// Row returns the feature values of one row in Features() order.
func Row(ds Dataset, row model.RowID) []int {
	feats := ds.Features()
	out := make([]int, len(feats))
	for i, f := range feats {
		col, _ := ds.Column(f.Name())
		out[i] = col[row]
	}
	return out
}

// Table is an immutable in-memory Dataset.
type Table struct {
	features []*model.Feature
	label    *model.Feature
	columns  map[string][]int
	rows     int
}

var _ Dataset = (*Table)(nil)

// NumRows implements Dataset.
func (t *Table) NumRows() int { return t.rows }

// Features implements Dataset.
func (t *Table) Features() []*model.Feature { return slices.Clone(t.features) }

// Label implements Dataset.
func (t *Table) Label() *model.Feature { return t.label }

// Column implements Dataset.
func (t *Table) Column(name string) ([]int, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// WithLabels returns a copy of t whose label column is replaced.
func (t *Table) WithLabels(labels []int) (*Table, error) {
	if len(labels) != t.rows {
		return nil, fmt.Errorf("%w: label has %d rows, want %d", ErrColumnLength, len(labels), t.rows)
	}
	if err := checkDomain(t.label, labels); err != nil {
		return nil, err
	}
	cols := make(map[string][]int, len(t.columns))
	for k, v := range t.columns {
		cols[k] = v
	}
	cols[t.label.Name()] = slices.Clone(labels)
	return &Table{features: t.features, label: t.label, columns: cols, rows: t.rows}, nil
}

// Subset returns a new table holding the given rows, renumbered densely in
// the given order. It is used to derive train/test splits.
func (t *Table) Subset(rows []model.RowID) *Table {
	cols := make(map[string][]int, len(t.columns))
	for name, col := range t.columns {
		sub := make([]int, len(rows))
		for i, r := range rows {
			sub[i] = col[r]
		}
		cols[name] = sub
	}
	return &Table{features: t.features, label: t.label, columns: cols, rows: len(rows)}
}

// Builder assembles a Table.
type Builder struct {
	label    *model.Feature
	labels   []int
	features []*model.Feature
	columns  map[string][]int
	err      error
}

// NewBuilder starts a table with the given label feature.
func NewBuilder(label *model.Feature) *Builder {
	b := &Builder{label: label, columns: make(map[string][]int)}
	if label == nil {
		b.err = ErrMissingLabel
	} else if err := model.RequireCategorical(label); err != nil {
		b.err = err
	}
	return b
}

// Column adds a feature column.
func (b *Builder) Column(f *model.Feature, values []int) *Builder {
	if b.err != nil {
		return b
	}
	if err := model.RequireCategorical(f); err != nil {
		b.err = err
		return b
	}
	if _, dup := b.columns[f.Name()]; dup || (b.label != nil && f.Name() == b.label.Name()) {
		b.err = fmt.Errorf("%w: %q", ErrDuplicateFeature, f.Name())
		return b
	}
	b.features = append(b.features, f)
	b.columns[f.Name()] = slices.Clone(values)
	return b
}

// Labels sets the label column.
func (b *Builder) Labels(values []int) *Builder {
	b.labels = slices.Clone(values)
	return b
}

// Build validates column lengths and domains and returns the table.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.labels == nil {
		return nil, ErrMissingLabel
	}
	rows := len(b.labels)
	for _, f := range b.features {
		col := b.columns[f.Name()]
		if len(col) != rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrColumnLength, f.Name(), len(col), rows)
		}
		if err := checkDomain(f, col); err != nil {
			return nil, err
		}
	}
	if err := checkDomain(b.label, b.labels); err != nil {
		return nil, err
	}
	cols := make(map[string][]int, len(b.columns)+1)
	for k, v := range b.columns {
		cols[k] = v
	}
	cols[b.label.Name()] = b.labels
	return &Table{
		features: slices.Clone(b.features),
		label:    b.label,
		columns:  cols,
		rows:     rows,
	}, nil
}

func checkDomain(f *model.Feature, col []int) error {
	for i, v := range col {
		if v == model.Missing {
			continue
		}
		if !f.Contains(v) {
			return &ValueError{Feature: f.Name(), Row: model.RowID(i), Value: v}
		}
	}
	return nil
}
