package rulesynth

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/rulesynth/classifier"
	"github.com/hupe1980/rulesynth/coverage"
	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/index"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/objective"
	"github.com/hupe1980/rulesynth/optimize"
	"github.com/hupe1980/rulesynth/optimize/genetic"
	"github.com/hupe1980/rulesynth/optimize/trajectory"
	"github.com/hupe1980/rulesynth/persistence"
	"github.com/hupe1980/rulesynth/representation"
	"github.com/hupe1980/rulesynth/rule"
)

const (
	kindRule = "rule"
	kindSet  = "set"
)

// Synthesizer builds rules and rule sets over one dataset.
//
// It owns the categorical index and the coverage calculator and is safe for
// concurrent use once created.
type Synthesizer struct {
	ds      dataset.Dataset
	idx     *index.Categorical
	calc    *coverage.Calculator
	factory rule.Factory
	repo    *persistence.Repository
	opts    options
}

// Result is the outcome of an optimization or refinement.
type Result[T any] struct {
	// Entity is the best rule or rule set found.
	Entity T
	Score  float64
	// StartScore is the score of the starting point of a refinement.
	StartScore float64
	// Generations is the number of GA generations run.
	Generations int
	// Steps is the number of improving k-flip moves.
	Steps int
	// Reason tells why a GA run ended.
	Reason string
	// Evaluations counts objective evaluations that missed the fitness cache.
	Evaluations int64
}

// RuleResult is the outcome of a single-rule optimization.
type RuleResult = Result[*rule.Explanation]

// SetResult is the outcome of a rule-set optimization.
type SetResult = Result[*rule.Set]

// New indexes ds and creates a Synthesizer.
func New(ds dataset.Dataset, optFns ...Option) (*Synthesizer, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidArgument)
	}
	o := applyOptions(optFns)
	if err := o.validate(); err != nil {
		return nil, translateError(err)
	}

	ctx := context.Background()
	start := time.Now()
	idx, err := index.Build(ds)
	elapsed := time.Since(start)
	o.metricsCollector.RecordIndexBuild(ds.NumRows(), elapsed, err)
	if err != nil {
		o.logger.LogIndexBuild(ctx, index.Stats{}, elapsed, err)
		return nil, translateError(err)
	}
	o.logger.LogIndexBuild(ctx, idx.Stats(), elapsed, nil)

	calc := coverage.NewCalculator(idx)
	s := &Synthesizer{
		ds:   ds,
		idx:  idx,
		calc: calc,
		opts: o,
	}
	if o.minimalCovers {
		s.factory = rule.NewMinimalCoversFactory(calc)
	} else {
		s.factory = rule.NewStandardFactory(calc)
	}
	if o.store != nil {
		s.repo = persistence.NewRepository(o.store,
			persistence.WithCompression(o.compression),
			persistence.WithLogger(o.logger.Logger),
		)
	}
	return s, nil
}

// NewFromClassifier relabels tbl with the predictions of clf and creates a
// Synthesizer over the relabelled table. Classifier calls are spread over
// the configured resource controller.
func NewFromClassifier(ctx context.Context, tbl *dataset.Table, clf classifier.Classifier, optFns ...Option) (*Synthesizer, error) {
	o := applyOptions(optFns)
	relabelled, err := classifier.Relabel(ctx, tbl, clf, o.rc)
	if err != nil {
		return nil, translateError(err)
	}
	return New(relabelled, optFns...)
}

func (o options) validate() error {
	cfg := o.genetic
	cfg.EliteRefiner = nil
	if err := cfg.Validate(); err != nil {
		return err
	}
	if o.kflipK < 1 {
		return fmt.Errorf("%w: got %d", trajectory.ErrInvalidNeighborhood, o.kflipK)
	}
	if o.eliteK < 0 {
		return fmt.Errorf("%w: elite refinement got %d", trajectory.ErrInvalidNeighborhood, o.eliteK)
	}
	if _, err := objective.NewRuleObjective(0, o.ruleWeights); err != nil {
		return err
	}
	if _, err := objective.NewSetObjective(nil, 0, o.setWeights); err != nil {
		return err
	}
	return nil
}

// Dataset returns the indexed dataset.
func (s *Synthesizer) Dataset() dataset.Dataset { return s.ds }

// Index returns the categorical index.
func (s *Synthesizer) Index() *index.Categorical { return s.idx }

// Calculator returns the coverage calculator.
func (s *Synthesizer) Calculator() *coverage.Calculator { return s.calc }

// Factory returns the rule factory in use.
func (s *Synthesizer) Factory() rule.Factory { return s.factory }

// Label returns the label (dataset label feature, value).
func (s *Synthesizer) Label(value int) (model.Label, error) {
	l, err := model.NewLabel(s.ds.Label(), value)
	return l, translateError(err)
}

// Explain builds a rule with its coverage.
func (s *Synthesizer) Explain(conds model.Conditions, label model.Label) (*rule.Explanation, error) {
	e, err := s.factory.New(conds, label)
	return e, translateError(err)
}

// Foundation returns every (feature, value) pair observed in the dataset as
// the candidate pool of a single-rule optimization for label.
func (s *Synthesizer) Foundation(label model.Label) representation.Foundation {
	var values []model.FeatureValue
	for _, f := range s.idx.Features() {
		for _, v := range s.idx.ObservedValues(f.Name()) {
			values = append(values, model.FeatureValue{Feature: f, Value: v})
		}
	}
	return foundation{label: label, values: values}
}

type foundation struct {
	label  model.Label
	values []model.FeatureValue
}

func (f foundation) Label() model.Label                  { return f.label }
func (f foundation) FeatureValues() []model.FeatureValue { return f.values }

// RuleTerms scores e with the configured rule objective over a pool of
// poolSize candidate feature values.
func (s *Synthesizer) RuleTerms(e *rule.Explanation, poolSize int) (objective.RuleTerms, float64, error) {
	obj, err := objective.NewRuleObjective(poolSize, s.opts.ruleWeights)
	if err != nil {
		return objective.RuleTerms{}, 0, translateError(err)
	}
	return obj.Terms(e), obj.Apply(e), nil
}

// SetTerms scores set with the configured rule-set objective over a pool of
// poolSize candidate rules.
func (s *Synthesizer) SetTerms(set *rule.Set, poolSize int) (objective.SetTerms, float64, error) {
	obj, err := objective.NewSetObjective(s.calc, poolSize, s.opts.setWeights)
	if err != nil {
		return objective.SetTerms{}, 0, translateError(err)
	}
	return obj.Terms(set), obj.Apply(set), nil
}

// Collect asks explainer for a local explanation of each row and returns
// the candidate pools keyed by label value. A nil rows slice means all rows.
func (s *Synthesizer) Collect(ctx context.Context, explainer classifier.Explainer, rows []model.RowID) (map[int]*rule.Set, error) {
	c := classifier.NewCollector(s.factory, explainer,
		classifier.WithResourceController(s.opts.rc),
		classifier.WithLogger(s.opts.logger.Logger),
	)
	pools, err := c.Collect(ctx, s.ds, rows)
	n := len(rows)
	if rows == nil {
		n = s.ds.NumRows()
	}
	s.opts.logger.LogCollect(ctx, n, len(pools), err)
	return pools, translateError(err)
}

// OptimizeRule runs the genetic algorithm over subsets of the foundation's
// feature values. A non-nil seed starts the population around that rule.
func (s *Synthesizer) OptimizeRule(ctx context.Context, f representation.Foundation, seed *rule.Explanation) (*RuleResult, error) {
	ev, err := s.ruleEvaluator(f)
	if err != nil {
		return nil, err
	}
	var init representation.Initializer = representation.AscendingOnes{}
	if seed != nil {
		init, err = seededInitializer(s, ev, seed)
		if err != nil {
			return nil, err
		}
	}
	return optimizeWith(ctx, s, kindRule, ev, init)
}

// OptimizeSet runs the genetic algorithm over subsets of candidates.
// A non-nil seed starts the population around that set.
func (s *Synthesizer) OptimizeSet(ctx context.Context, candidates, seed *rule.Set) (*SetResult, error) {
	ev, err := s.setEvaluator(candidates)
	if err != nil {
		return nil, err
	}
	var init representation.Initializer = representation.AscendingOnes{}
	if seed != nil {
		init, err = seededInitializer(s, ev, seed)
		if err != nil {
			return nil, err
		}
	}
	return optimizeWith(ctx, s, kindSet, ev, init)
}

// RefineRule climbs from start with the configured k-flip search.
func (s *Synthesizer) RefineRule(ctx context.Context, f representation.Foundation, start *rule.Explanation) (*RuleResult, error) {
	ev, err := s.ruleEvaluator(f)
	if err != nil {
		return nil, err
	}
	return refineWith(ctx, s, kindRule, ev, start)
}

// RefineSet climbs from start, a subset of candidates, with the configured
// k-flip search. A nil start begins at the empty set.
func (s *Synthesizer) RefineSet(ctx context.Context, candidates, start *rule.Set) (*SetResult, error) {
	ev, err := s.setEvaluator(candidates)
	if err != nil {
		return nil, err
	}
	if start == nil {
		start = rule.EmptySet(candidates.Label())
	}
	return refineWith(ctx, s, kindSet, ev, start)
}

// Save stores set under name and makes it the current version.
func (s *Synthesizer) Save(ctx context.Context, name string, set *rule.Set) (string, error) {
	if s.repo == nil {
		return "", ErrNoRepository
	}
	start := time.Now()
	key, err := s.repo.Save(ctx, name, set)
	s.opts.metricsCollector.RecordStore("save", time.Since(start), err)
	s.opts.logger.LogSave(ctx, name, key, err)
	return key, translateError(err)
}

// Load returns the current version of the named rule set. Stored coverage
// is restored as saved; it is not recomputed against this dataset.
func (s *Synthesizer) Load(ctx context.Context, name string) (*rule.Set, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	start := time.Now()
	set, err := s.repo.Load(ctx, name)
	s.opts.metricsCollector.RecordStore("load", time.Since(start), err)
	members := 0
	if set != nil {
		members = set.Len()
	}
	s.opts.logger.LogLoad(ctx, name, members, err)
	return set, translateError(err)
}

func (s *Synthesizer) evaluatorOptions() []optimize.EvaluatorOption {
	return []optimize.EvaluatorOption{
		optimize.WithCacheSize(s.opts.cacheSize),
		optimize.WithResourceController(s.opts.rc),
	}
}

func (s *Synthesizer) ruleEvaluator(f representation.Foundation) (*optimize.Evaluator[*rule.Explanation], error) {
	if f == nil {
		return nil, ErrEmptyCandidates
	}
	tr := representation.NewRuleTranslator()
	if err := tr.Initialize(f, s.factory); err != nil {
		return nil, translateError(err)
	}
	if tr.Length() == 0 {
		return nil, ErrEmptyCandidates
	}
	obj, err := objective.NewRuleObjective(tr.Length(), s.opts.ruleWeights)
	if err != nil {
		return nil, translateError(err)
	}
	return optimize.NewEvaluator[*rule.Explanation](tr, obj, s.evaluatorOptions()...), nil
}

func (s *Synthesizer) setEvaluator(candidates *rule.Set) (*optimize.Evaluator[*rule.Set], error) {
	if candidates == nil || candidates.IsEmpty() {
		return nil, ErrEmptyCandidates
	}
	tr := representation.NewSetTranslator()
	if err := tr.Initialize(candidates); err != nil {
		return nil, translateError(err)
	}
	obj, err := objective.NewSetObjective(s.calc, tr.Length(), s.opts.setWeights)
	if err != nil {
		return nil, translateError(err)
	}
	return optimize.NewEvaluator[*rule.Set](tr, obj, s.evaluatorOptions()...), nil
}

func seededInitializer[T any](s *Synthesizer, ev *optimize.Evaluator[T], seed T) (representation.Initializer, error) {
	g, err := ev.Encode(seed)
	if err != nil {
		return nil, translateError(err)
	}
	return representation.NewForwardExisting(g, s.opts.genetic.Seed), nil
}

func optimizeWith[T any](ctx context.Context, s *Synthesizer, kind string, ev *optimize.Evaluator[T], init representation.Initializer) (*Result[T], error) {
	cfg := s.opts.genetic
	cfg.EliteRefiner = nil
	if s.opts.eliteK > 0 {
		cfg.EliteRefiner = &trajectory.KFlip{K: s.opts.eliteK, Logger: s.opts.logger.With("kind", kind)}
	}
	hook := cfg.OnGeneration
	cfg.OnGeneration = func(st genetic.Stats) {
		s.opts.logger.LogGeneration(ctx, st)
		s.opts.metricsCollector.RecordGeneration(kind, st.Best, st.Mean)
		if hook != nil {
			hook(st)
		}
	}

	engine, err := genetic.New(cfg, init, genetic.WithLogger(s.opts.logger.With("kind", kind)))
	if err != nil {
		return nil, translateError(err)
	}

	start := time.Now()
	sol, runErr := genetic.Solve(ctx, engine, ev)
	elapsed := time.Since(start)

	generations := 0
	if sol != nil {
		generations = sol.Generations
	}
	s.opts.metricsCollector.RecordOptimize(kind, generations, ev.Evaluations(), elapsed, runErr)
	if sol == nil {
		s.opts.logger.LogOptimize(ctx, kind, 0, generations, "", ev.Evaluations(), runErr)
		return nil, translateError(runErr)
	}

	res := &Result[T]{
		Entity:      sol.Entity,
		Score:       sol.Score,
		Generations: sol.Generations,
		Reason:      sol.Reason.String(),
		Evaluations: ev.Evaluations(),
	}
	s.opts.logger.LogOptimize(ctx, kind, res.Score, res.Generations, res.Reason, res.Evaluations, runErr)
	return res, translateError(runErr)
}

func refineWith[T any](ctx context.Context, s *Synthesizer, kind string, ev *optimize.Evaluator[T], start T) (*Result[T], error) {
	g, err := ev.Encode(start)
	if err != nil {
		return nil, translateError(err)
	}

	kf := &trajectory.KFlip{
		K:        s.opts.kflipK,
		MaxSteps: s.opts.kflipMaxSteps,
		Logger:   s.opts.logger.With("kind", kind),
	}
	t0 := time.Now()
	res, searchErr := kf.Search(ctx, ev, g)
	s.opts.metricsCollector.RecordRefine(kind, res.Steps, time.Since(t0), searchErr)
	s.opts.logger.LogRefine(ctx, kind, res.StartScore, res.Score, res.Steps, searchErr)
	if res.Best.Len() != g.Len() {
		return nil, translateError(searchErr)
	}

	entity, err := ev.Translate(res.Best)
	if err != nil {
		return nil, translateError(err)
	}
	return &Result[T]{
		Entity:      entity,
		Score:       res.Score,
		StartScore:  res.StartScore,
		Steps:       res.Steps,
		Evaluations: ev.Evaluations(),
	}, translateError(searchErr)
}
