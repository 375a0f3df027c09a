// Package optimize holds the pieces shared by the genetic and trajectory
// optimizers.
//
// Both optimizers work on genotypes and scores only. An Evaluator binds a
// translator and an objective function, memoizes scores by genotype and fans
// out batch evaluation over a resource.Controller.
package optimize
