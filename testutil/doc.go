// Package testutil provides deterministic datasets and brute-force oracles
// shared by the package tests.
package testutil
