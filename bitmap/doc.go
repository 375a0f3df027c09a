// Package bitmap provides the compressed row-id sets used by the index,
// the coverage calculator and the rule entities.
//
// Bitmap wraps a 32-bit Roaring Bitmap. Roaring keeps sparse value sets small
// and makes AND/OR/ANDNOT and cardinality proportional to the compressed size
// rather than to the row count.
//
// # Ownership
//
// Set operations come in two flavours:
//
//	b.And(other)          // in-place, mutates b
//	c := bitmap.And(a, b) // pure, returns a new bitmap
//
// Bitmaps handed out by read-only structures (index entries, cached rule
// coverage) must be treated as immutable; use the pure functions or Clone.
package bitmap
