// Package coverage derives confusion-matrix style row sets for a condition
// map and a target label on top of an index.
//
// For conditions C and label ℓ:
//
//	covered               = rows(C)
//	correctlyCovered      = covered ∩ rows(label = ℓ)
//	incorrectlyCovered    = covered \ correctlyCovered
//	complement            = all \ covered
//	correctlyNotCovered   = complement \ rows(label = ℓ)
//	incorrectlyNotCovered = complement ∩ rows(label = ℓ)
//
// The decomposition is exact: correctly/incorrectly covered partition covered,
// correctly/incorrectly not covered partition the complement.
package coverage

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/index"
	"github.com/hupe1980/rulesynth/model"
)

// ErrPartition is returned when a Result does not partition the row universe.
var ErrPartition = errors.New("coverage bitmaps do not partition the row universe")

// Result holds the derived bitmaps. Bitmaps must be treated as read-only.
type Result struct {
	Covered               *bitmap.Bitmap
	CorrectlyCovered      *bitmap.Bitmap
	IncorrectlyCovered    *bitmap.Bitmap
	CorrectlyNotCovered   *bitmap.Bitmap
	IncorrectlyNotCovered *bitmap.Bitmap
}

// Counts returns the cardinalities of r.
func (r Result) Counts() Counts {
	return Counts{
		Covered:               r.Covered.Cardinality(),
		CorrectlyCovered:      r.CorrectlyCovered.Cardinality(),
		IncorrectlyCovered:    r.IncorrectlyCovered.Cardinality(),
		CorrectlyNotCovered:   r.CorrectlyNotCovered.Cardinality(),
		IncorrectlyNotCovered: r.IncorrectlyNotCovered.Cardinality(),
	}
}

// Validate checks the partition invariants over a universe of n rows.
func (r Result) Validate(n int) error {
	parts := []*bitmap.Bitmap{r.Covered, r.CorrectlyCovered, r.IncorrectlyCovered, r.CorrectlyNotCovered, r.IncorrectlyNotCovered}
	for _, p := range parts {
		if p == nil {
			return fmt.Errorf("%w: missing bitmap", ErrPartition)
		}
	}
	if r.CorrectlyCovered.Intersects(r.IncorrectlyCovered) ||
		!bitmap.Or(r.CorrectlyCovered, r.IncorrectlyCovered).Equals(r.Covered) {
		return fmt.Errorf("%w: covered", ErrPartition)
	}
	complement := bitmap.AndNot(bitmap.Range(n), r.Covered)
	if r.CorrectlyNotCovered.Intersects(r.IncorrectlyNotCovered) ||
		!bitmap.Or(r.CorrectlyNotCovered, r.IncorrectlyNotCovered).Equals(complement) {
		return fmt.Errorf("%w: complement", ErrPartition)
	}
	return nil
}

// Counts holds the cardinalities of the derived bitmaps.
type Counts struct {
	Covered               int
	CorrectlyCovered      int
	IncorrectlyCovered    int
	CorrectlyNotCovered   int
	IncorrectlyNotCovered int
}

// NotCovered returns the size of the complement.
func (c Counts) NotCovered() int {
	return c.CorrectlyNotCovered + c.IncorrectlyNotCovered
}

// Total returns the size of the row universe.
func (c Counts) Total() int {
	return c.Covered + c.NotCovered()
}

// Calculator computes coverage on top of one index.
// It is stateless and safe for concurrent use.
type Calculator struct {
	idx index.Index
}

// NewCalculator creates a calculator over idx.
func NewCalculator(idx index.Index) *Calculator {
	return &Calculator{idx: idx}
}

// Index returns the wrapped index.
func (c *Calculator) Index() index.Index {
	return c.idx
}

// NumRows returns the size of the row universe.
func (c *Calculator) NumRows() int {
	return c.idx.NumRows()
}

// LabelRows returns the rows whose label equals l.
func (c *Calculator) LabelRows(l model.Label) *bitmap.Bitmap {
	return c.idx.Query(model.FeatureValue(l))
}

// Covered returns rows(conds).
func (c *Calculator) Covered(conds model.Conditions) *bitmap.Bitmap {
	return c.idx.QueryConditions(conds)
}

// Compute derives all five bitmaps.
func (c *Calculator) Compute(conds model.Conditions, l model.Label) Result {
	return c.FromCovered(c.Covered(conds), l)
}

// FromCovered derives the remaining four bitmaps from a known cover.
func (c *Calculator) FromCovered(covered *bitmap.Bitmap, l model.Label) Result {
	positives := c.LabelRows(l)
	complement := bitmap.AndNot(c.idx.All(), covered)

	correctlyCovered := bitmap.And(covered, positives)
	return Result{
		Covered:               covered,
		CorrectlyCovered:      correctlyCovered,
		IncorrectlyCovered:    bitmap.AndNot(covered, correctlyCovered),
		CorrectlyNotCovered:   bitmap.AndNot(complement, positives),
		IncorrectlyNotCovered: bitmap.And(complement, positives),
	}
}

// Count computes the five cardinalities without materializing the derived
// bitmaps; only the cover itself is built.
func (c *Calculator) Count(conds model.Conditions, l model.Label) Counts {
	covered := c.Covered(conds)
	positives := c.LabelRows(l)

	n := c.idx.NumRows()
	coveredCard := covered.Cardinality()
	correct := covered.AndCardinality(positives)
	positiveCard := positives.Cardinality()

	return Counts{
		Covered:               coveredCard,
		CorrectlyCovered:      correct,
		IncorrectlyCovered:    coveredCard - correct,
		CorrectlyNotCovered:   (n - coveredCard) - (positiveCard - correct),
		IncorrectlyNotCovered: positiveCard - correct,
	}
}
