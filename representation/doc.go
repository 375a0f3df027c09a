// Package representation maps between fixed-length bit vectors and domain
// entities.
//
// A Genotype is the search representation used by the optimizers. An
// Initializer seeds a population of genotypes, and a Translator turns a
// genotype into a rule (one bit per candidate feature value) or a rule set
// (one bit per candidate rule). Translators fix their position ordering once
// in Initialize and are pure afterwards, so they may be shared by concurrent
// evaluators.
package representation
