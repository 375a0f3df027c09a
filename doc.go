// Package rulesynth synthesizes compact, human-readable rule sets that
// approximate a black-box classifier over a categorical tabular dataset.
//
// A Synthesizer indexes the dataset once into per-value roaring bitmaps and
// derives rule coverage by bitmap algebra. Rules and rule sets are searched
// with a genetic algorithm over bit-vector genotypes and refined with a
// k-bit-flip hill climber.
//
// # Quick Start
//
//	ctx := context.Background()
//	s, _ := rulesynth.New(tbl)
//
//	// Relabel with a model, then collect candidate rules from a local explainer.
//	s, _ = rulesynth.NewFromClassifier(ctx, tbl, clf)
//	pools, _ := s.Collect(ctx, explainer, nil)
//
//	// Select a compact subset of the candidates for label value 1.
//	res, _ := s.OptimizeSet(ctx, pools[1], nil)
//	fmt.Println(res.Entity)
//
// Single rules are optimized over the observed feature values:
//
//	label, _ := s.Label(1)
//	r, _ := s.OptimizeRule(ctx, s.Foundation(label), nil)
//	r, _ = s.RefineRule(ctx, s.Foundation(label), r.Entity)
//
// # Persistence
//
// Rule sets are stored with their coverage in a checksummed binary container
// in any blobstore.Store (local files, S3, MinIO, S3 with DynamoDB commits):
//
//	s, _ := rulesynth.New(tbl, rulesynth.WithStore(blobstore.NewLocalStore("./rules")))
//	key, _ := s.Save(ctx, "churn", res.Entity)
//	set, _ := s.Load(ctx, "churn")
//
// # Concurrency
//
// Fitness evaluation, classifier calls and explainer calls fan out over an
// explicitly passed resource.Controller (see WithResourceController and
// Builder.Workers). Without one, everything runs sequentially.
package rulesynth
