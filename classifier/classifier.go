// Package classifier adapts a black-box classifier and a local explainer to
// the rule synthesis core.
//
// Relabel replaces a dataset's label column with the classifier's
// predictions, so that coverage measures agreement with the model rather
// than with the ground truth. A Collector asks a local explainer for one
// condition map per instance and groups the resulting explanations into
// candidate pools per predicted label.
package classifier

import (
	"context"
	"fmt"

	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/resource"
)

// Classifier predicts the integer-coded label of one row. Rows hold feature
// values in dataset.Features() order.
type Classifier interface {
	Predict(ctx context.Context, row []int) (int, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, row []int) (int, error)

// Predict implements Classifier.
func (f Func) Predict(ctx context.Context, row []int) (int, error) { return f(ctx, row) }

// Predictions calls clf on every row of ds. Calls are fanned out over rc and
// throttled by its call rate. A nil rc predicts sequentially without limits.
func Predictions(ctx context.Context, ds dataset.Dataset, clf Classifier, rc *resource.Controller) ([]int, error) {
	out := make([]int, ds.NumRows())
	err := rc.ForEach(ctx, ds.NumRows(), func(ctx context.Context, i int) error {
		if err := rc.Wait(ctx); err != nil {
			return err
		}
		p, err := clf.Predict(ctx, dataset.Row(ds, model.RowID(i)))
		if err != nil {
			return fmt.Errorf("predict row %d: %w", i, err)
		}
		out[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Relabel returns a copy of tbl whose label column holds clf's predictions.
// Predictions outside the label domain are rejected with *dataset.ValueError.
func Relabel(ctx context.Context, tbl *dataset.Table, clf Classifier, rc *resource.Controller) (*dataset.Table, error) {
	preds, err := Predictions(ctx, tbl, clf, rc)
	if err != nil {
		return nil, err
	}
	return tbl.WithLabels(preds)
}
