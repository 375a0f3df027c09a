package index

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/model"
)

// Index answers row-set queries over categorical feature values.
type Index interface {
	// Query returns the rows where fv.Feature = fv.Value.
	Query(fv model.FeatureValue) *bitmap.Bitmap
	// Intersects reports whether any row with fv.Feature = fv.Value is in rows.
	Intersects(fv model.FeatureValue, rows *bitmap.Bitmap) bool
	// QueryValues returns the rows where feature ∈ values.
	QueryValues(f *model.Feature, values []int) *bitmap.Bitmap
	// QueryConditions returns the rows satisfying every condition of c.
	QueryConditions(c model.Conditions) *bitmap.Bitmap
	// All returns the full row universe [0, NumRows).
	All() *bitmap.Bitmap
	// NumRows returns the size of the row universe.
	NumRows() int
}

// Categorical is a roaring-bitmap inverted index over a categorical dataset.
type Categorical struct {
	rows     int
	inverted map[string]map[int]*bitmap.Bitmap
	features []*model.Feature
	label    *model.Feature
}

var _ Index = (*Categorical)(nil)

// Build indexes every feature column and the label column of ds in one pass
// per column.
func Build(ds dataset.Dataset) (*Categorical, error) {
	idx := &Categorical{
		rows:     ds.NumRows(),
		inverted: make(map[string]map[int]*bitmap.Bitmap),
		features: ds.Features(),
		label:    ds.Label(),
	}

	columns := make([]*model.Feature, 0, len(idx.features)+1)
	columns = append(columns, idx.features...)
	columns = append(columns, idx.label)
	for _, f := range columns {
		if err := model.RequireCategorical(f); err != nil {
			return nil, err
		}
		col, ok := ds.Column(f.Name())
		if !ok {
			return nil, fmt.Errorf("index: column %q not found", f.Name())
		}
		if len(col) != idx.rows {
			return nil, fmt.Errorf("index: column %q has %d rows, want %d", f.Name(), len(col), idx.rows)
		}
		idx.addColumn(f.Name(), col)
	}

	return idx, nil
}

// addColumn adds one column to the inverted index.
func (idx *Categorical) addColumn(name string, col []int) {
	valueMap, ok := idx.inverted[name]
	if !ok {
		valueMap = make(map[int]*bitmap.Bitmap)
		idx.inverted[name] = valueMap
	}
	for row, v := range col {
		if v == model.Missing {
			continue
		}
		b, ok := valueMap[v]
		if !ok {
			b = bitmap.New()
			valueMap[v] = b
		}
		b.Add(model.RowID(row))
	}
	for _, b := range valueMap {
		b.RunOptimize()
	}
}

// getBitmap returns the shared posting list for (name, value) or nil.
func (idx *Categorical) getBitmap(name string, value int) *bitmap.Bitmap {
	valueMap, ok := idx.inverted[name]
	if !ok {
		return nil
	}
	return valueMap[value]
}

// Query implements Index.
func (idx *Categorical) Query(fv model.FeatureValue) *bitmap.Bitmap {
	b := idx.getBitmap(fv.Feature.Name(), fv.Value)
	if b == nil {
		return bitmap.New()
	}
	return b.Clone()
}

// Intersects implements Index. It reads the posting list in place.
func (idx *Categorical) Intersects(fv model.FeatureValue, rows *bitmap.Bitmap) bool {
	b := idx.getBitmap(fv.Feature.Name(), fv.Value)
	return b != nil && rows != nil && b.Intersects(rows)
}

// QueryValues implements Index.
func (idx *Categorical) QueryValues(f *model.Feature, values []int) *bitmap.Bitmap {
	return idx.union(f.Name(), values)
}

func (idx *Categorical) union(name string, values []int) *bitmap.Bitmap {
	parts := make([]*bitmap.Bitmap, 0, len(values))
	for _, v := range values {
		if b := idx.getBitmap(name, v); b != nil {
			parts = append(parts, b)
		}
	}
	return bitmap.FastOr(parts...)
}

// QueryConditions implements Index.
func (idx *Categorical) QueryConditions(c model.Conditions) *bitmap.Bitmap {
	if c.IsEmpty() {
		return bitmap.New()
	}

	var result *bitmap.Bitmap
	for _, e := range c.Entries() {
		current := idx.union(e.Feature.Name(), e.Values)
		if result == nil {
			result = current
		} else {
			result.And(current)
		}
		if result.IsEmpty() {
			return result
		}
	}
	return result
}

// All implements Index.
func (idx *Categorical) All() *bitmap.Bitmap {
	return bitmap.Range(idx.rows)
}

// NumRows implements Index.
func (idx *Categorical) NumRows() int {
	return idx.rows
}

// Features returns the indexed (non-label) features.
func (idx *Categorical) Features() []*model.Feature {
	return slices.Clone(idx.features)
}

// Label returns the indexed label feature.
func (idx *Categorical) Label() *model.Feature {
	return idx.label
}

// ObservedValues returns the sorted values of the named feature that occur in
// at least one row.
func (idx *Categorical) ObservedValues(name string) []int {
	valueMap := idx.inverted[name]
	out := make([]int, 0, len(valueMap))
	for v := range valueMap {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Stats describes the shape and memory use of an index.
type Stats struct {
	Rows          int
	Columns       int
	PostingLists  int
	SizeInBytes   uint64
	ValuesPerName map[string]int
}

// Stats returns index statistics.
func (idx *Categorical) Stats() Stats {
	s := Stats{
		Rows:          idx.rows,
		Columns:       len(idx.inverted),
		ValuesPerName: make(map[string]int, len(idx.inverted)),
	}
	for name, valueMap := range idx.inverted {
		s.ValuesPerName[name] = len(valueMap)
		s.PostingLists += len(valueMap)
		for _, b := range valueMap {
			s.SizeInBytes += b.GetSizeInBytes()
		}
	}
	return s
}
