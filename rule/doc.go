// Package rule defines the rule entities and the factories that build them.
//
// An Explanation is one rule "IF conditions THEN label" together with its
// cached coverage bitmaps. A Set is a collection of explanations predicting
// the same label.
//
// Explanations are created through a Factory, which computes coverage via a
// coverage.Calculator:
//
//	f := rule.NewStandardFactory(calc)
//	e, err := f.New(conds, label)
//
// MinimalCoversFactory additionally removes condition values that never reach
// the final cover, keeping rules readable without changing their metrics.
package rule
