package rule

import (
	"fmt"

	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/coverage"
	"github.com/hupe1980/rulesynth/model"
)

// Explanation is an immutable rule with cached coverage.
type Explanation struct {
	conds  model.Conditions
	label  model.Label
	cov    coverage.Result
	counts coverage.Counts
}

func newExplanation(conds model.Conditions, label model.Label, cov coverage.Result) *Explanation {
	return &Explanation{
		conds:  conds,
		label:  label,
		cov:    cov,
		counts: cov.Counts(),
	}
}

// Restore rebuilds an explanation from previously computed coverage, e.g. a
// persisted one. The bitmaps must partition a universe of numRows rows.
func Restore(conds model.Conditions, label model.Label, cov coverage.Result, numRows int) (*Explanation, error) {
	if err := validateInputs(conds, label); err != nil {
		return nil, err
	}
	if err := cov.Validate(numRows); err != nil {
		return nil, err
	}
	return newExplanation(conds, label, cov), nil
}

// Conditions returns the antecedent.
func (e *Explanation) Conditions() model.Conditions { return e.conds }

// Label returns the predicted label.
func (e *Explanation) Label() model.Label { return e.label }

// Coverage returns the cached bitmaps. They must not be modified.
func (e *Explanation) Coverage() coverage.Result { return e.cov }

// Counts returns the cached cardinalities.
func (e *Explanation) Counts() coverage.Counts { return e.counts }

// Covered returns the rows satisfying the conditions. Read-only.
func (e *Explanation) Covered() *bitmap.Bitmap { return e.cov.Covered }

// CorrectlyCovered returns covered rows with the predicted label. Read-only.
func (e *Explanation) CorrectlyCovered() *bitmap.Bitmap { return e.cov.CorrectlyCovered }

// IncorrectlyCovered returns covered rows with another label. Read-only.
func (e *Explanation) IncorrectlyCovered() *bitmap.Bitmap { return e.cov.IncorrectlyCovered }

// CorrectlyNotCovered returns uncovered rows with another label. Read-only.
func (e *Explanation) CorrectlyNotCovered() *bitmap.Bitmap { return e.cov.CorrectlyNotCovered }

// IncorrectlyNotCovered returns uncovered rows with the predicted label. Read-only.
func (e *Explanation) IncorrectlyNotCovered() *bitmap.Bitmap { return e.cov.IncorrectlyNotCovered }

// NumberCovered returns |covered|.
func (e *Explanation) NumberCovered() int { return e.counts.Covered }

// NumberCorrectlyCovered returns |correctly covered|.
func (e *Explanation) NumberCorrectlyCovered() int { return e.counts.CorrectlyCovered }

// NumberIncorrectlyCovered returns |incorrectly covered|.
func (e *Explanation) NumberIncorrectlyCovered() int { return e.counts.IncorrectlyCovered }

// NumberCorrectlyNotCovered returns |correctly not covered|.
func (e *Explanation) NumberCorrectlyNotCovered() int { return e.counts.CorrectlyNotCovered }

// NumberIncorrectlyNotCovered returns |incorrectly not covered|.
func (e *Explanation) NumberIncorrectlyNotCovered() int { return e.counts.IncorrectlyNotCovered }

// Precision returns correctly covered / covered, 0 when nothing is covered.
func (e *Explanation) Precision() float64 {
	return ratio(e.counts.CorrectlyCovered, e.counts.Covered)
}

// Recall returns the share of label rows that are covered.
func (e *Explanation) Recall() float64 {
	return ratio(e.counts.CorrectlyCovered, e.counts.CorrectlyCovered+e.counts.IncorrectlyNotCovered)
}

// Accuracy returns the share of rows classified correctly when the rule is
// read as a binary classifier.
func (e *Explanation) Accuracy() float64 {
	return ratio(e.counts.CorrectlyCovered+e.counts.CorrectlyNotCovered, e.counts.Total())
}

// FeatureValues returns the (feature, value) pairs of the conditions.
func (e *Explanation) FeatureValues() []model.FeatureValue {
	return e.conds.FeatureValues()
}

// Key identifies the explanation by conditions and label.
func (e *Explanation) Key() string {
	return fmt.Sprintf("%s=>%s=%d", e.conds.Key(), e.label.Feature.Name(), e.label.Value)
}

// Equal reports whether both explanations have the same conditions and label.
func (e *Explanation) Equal(other *Explanation) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.label.Equal(other.label) && e.conds.Equal(other.conds)
}

// String renders the rule, e.g. "IF color = red THEN y = yes".
func (e *Explanation) String() string {
	return fmt.Sprintf("IF %s THEN %s", e.conds, e.label)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
