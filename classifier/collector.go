package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/resource"
	"github.com/hupe1980/rulesynth/rule"
)

// Explainer produces a local explanation (condition map) for one row.
type Explainer interface {
	Explain(ctx context.Context, row []int) (model.Conditions, error)
}

// ExplainerFunc adapts a plain function to Explainer.
type ExplainerFunc func(ctx context.Context, row []int) (model.Conditions, error)

// Explain implements Explainer.
func (f ExplainerFunc) Explain(ctx context.Context, row []int) (model.Conditions, error) {
	return f(ctx, row)
}

// Collector builds candidate rule pools from local explanations.
type Collector struct {
	factory   rule.Factory
	explainer Explainer
	rc        *resource.Controller
	logger    *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithResourceController fans explainer calls out over rc.
func WithResourceController(rc *resource.Controller) CollectorOption {
	return func(c *Collector) {
		c.rc = rc
	}
}

// WithLogger sets the logger receiving explainer failures.
func WithLogger(l *slog.Logger) CollectorOption {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCollector creates a Collector.
func NewCollector(factory rule.Factory, explainer Explainer, opts ...CollectorOption) *Collector {
	c := &Collector{
		factory:   factory,
		explainer: explainer,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect explains the given rows of ds and groups the explanations by the
// row's label value, which is usually the classifier's prediction (see
// Relabel). Duplicate explanations are kept once, in row order. If the
// explainer fails for a row, the failure is logged and a degenerate
// explanation with empty conditions is used instead. A nil rows slice means
// all rows. Rows at or above ds.NumRows() are rejected with
// dataset.ErrRowOutOfRange before the explainer is called.
func (c *Collector) Collect(ctx context.Context, ds dataset.Dataset, rows []model.RowID) (map[int]*rule.Set, error) {
	if rows == nil {
		rows = make([]model.RowID, ds.NumRows())
		for i := range rows {
			rows[i] = model.RowID(i)
		}
	}
	labels, ok := ds.Column(ds.Label().Name())
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrMissingLabel, ds.Label().Name())
	}
	n := min(ds.NumRows(), len(labels))
	for _, row := range rows {
		if int(row) >= n {
			return nil, fmt.Errorf("%w: row %d, dataset has %d rows", dataset.ErrRowOutOfRange, row, ds.NumRows())
		}
	}

	explained := make([]*rule.Explanation, len(rows))
	err := c.rc.ForEach(ctx, len(rows), func(ctx context.Context, i int) error {
		row := rows[i]
		label := model.Label{Feature: ds.Label(), Value: labels[row]}

		if err := c.rc.Wait(ctx); err != nil {
			return err
		}
		conds, err := c.explainer.Explain(ctx, dataset.Row(ds, row))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.WarnContext(ctx, "local explainer failed, using empty explanation",
				"row", row,
				"label", label.String(),
				"error", err,
			)
			conds = model.Conditions{}
		}

		e, err := c.factory.New(conds, label)
		if err != nil {
			return err
		}
		explained[i] = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	byLabel := make(map[int][]*rule.Explanation)
	seen := make(map[string]struct{}, len(explained))
	for _, e := range explained {
		if _, dup := seen[e.Key()]; dup {
			continue
		}
		seen[e.Key()] = struct{}{}
		byLabel[e.Label().Value] = append(byLabel[e.Label().Value], e)
	}

	out := make(map[int]*rule.Set, len(byLabel))
	for v, members := range byLabel {
		set, err := rule.NewLabeledSet(model.Label{Feature: ds.Label(), Value: v}, members...)
		if err != nil {
			return nil, err
		}
		out[v] = set
	}
	c.logger.DebugContext(ctx, "candidate rules collected",
		"rows", len(rows),
		"labels", len(out),
		"unique", len(seen),
	)
	return out, nil
}
