// Package index provides the categorical inverted index.
//
// # Architecture
//
// Categorical maps every observed (feature, value) pair to the bitmap of rows
// holding that value:
//
//	Inverted: map[feature]map[value]*Bitmap
//
// # Queries
//
// Condition maps are compiled into bitmap operations:
//
//	feature = v          → single bitmap lookup
//	feature ∈ {v1..vn}   → union of bitmaps (OR)
//	several features     → intersection of the per-feature unions (AND)
//
// Unknown features or values and empty value sets resolve to an empty bitmap,
// never to an error, so indexes built from different dataset splits can be
// queried with each other's conditions. An empty condition map also resolves
// to an empty bitmap.
//
// # Thread Safety
//
// The index is built once and is read-only afterwards. Every query returns a
// freshly allocated bitmap, so callers can never mutate index entries and the
// index can be shared freely across goroutines.
package index
