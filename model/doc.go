// Package model defines core types used throughout rulesynth.
//
// # Identity Types
//
//   - RowID: Dense, 0-based dataset row identifier (uint32)
//
// # Schema Types
//
//   - Feature: Categorical feature with an ordered, integer-coded domain
//   - FeatureValue: A (feature, value) pair used in conditions and labels
//   - Label: The target (labelFeature, labelValue) of a rule
//
// # Condition Maps
//
// Conditions is the canonical antecedent of a rule: a mapping from feature to
// a set of allowed values. Values of one feature are OR-ed, features are AND-ed:
//
//	conds := model.NewConditions(map[*model.Feature][]int{
//	    color: {0, 2},  // color ∈ {red, blue}
//	    size:  {1},     // AND size = medium
//	})
package model
