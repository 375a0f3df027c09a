package bitmap

import (
	"io"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/rulesynth/model"
)

// Bitmap is a set of row ids backed by a Roaring Bitmap.
type Bitmap struct {
	rb *roaring.Bitmap
}

// New creates a new empty bitmap.
func New() *Bitmap {
	return &Bitmap{
		rb: roaring.New(),
	}
}

// Of creates a bitmap holding the given row ids.
func Of(ids ...model.RowID) *Bitmap {
	b := New()
	for _, id := range ids {
		b.rb.Add(uint32(id))
	}
	return b
}

// Range creates a bitmap holding all row ids in [0, n).
func Range(n int) *Bitmap {
	b := New()
	if n > 0 {
		b.rb.AddRange(0, uint64(n))
	}
	return b
}

// Add adds a row id.
func (b *Bitmap) Add(id model.RowID) {
	b.rb.Add(uint32(id))
}

// Remove removes a row id.
func (b *Bitmap) Remove(id model.RowID) {
	b.rb.Remove(uint32(id))
}

// Contains checks if a row id is in the bitmap.
func (b *Bitmap) Contains(id model.RowID) bool {
	return b.rb.Contains(uint32(id))
}

// IsEmpty returns true if the bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of row ids in the bitmap.
func (b *Bitmap) Cardinality() int {
	return int(b.rb.GetCardinality())
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{
		rb: b.rb.Clone(),
	}
}

// Equals reports whether both bitmaps hold the same row ids.
func (b *Bitmap) Equals(other *Bitmap) bool {
	return b.rb.Equals(other.rb)
}

// Iterator returns an iterator over the row ids in ascending order.
func (b *Bitmap) Iterator() iter.Seq[model.RowID] {
	return func(yield func(model.RowID) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(model.RowID(it.Next())) {
				return
			}
		}
	}
}

// ToArray returns the row ids in ascending order.
func (b *Bitmap) ToArray() []model.RowID {
	raw := b.rb.ToArray()
	out := make([]model.RowID, len(raw))
	for i, v := range raw {
		out[i] = model.RowID(v)
	}
	return out
}

// And intersects b with other in place.
func (b *Bitmap) And(other *Bitmap) {
	b.rb.And(other.rb)
}

// Or unites b with other in place.
func (b *Bitmap) Or(other *Bitmap) {
	b.rb.Or(other.rb)
}

// AndNot removes the row ids of other from b in place.
func (b *Bitmap) AndNot(other *Bitmap) {
	b.rb.AndNot(other.rb)
}

// AndCardinality returns |b ∩ other| without materializing the intersection.
func (b *Bitmap) AndCardinality(other *Bitmap) int {
	return int(b.rb.AndCardinality(other.rb))
}

// OrCardinality returns |b ∪ other| without materializing the union.
func (b *Bitmap) OrCardinality(other *Bitmap) int {
	return int(b.rb.OrCardinality(other.rb))
}

// Intersects reports whether b and other share a row id.
func (b *Bitmap) Intersects(other *Bitmap) bool {
	return b.rb.Intersects(other.rb)
}

// Clear removes all row ids.
func (b *Bitmap) Clear() {
	b.rb.Clear()
}

// RunOptimize converts containers to run-length encoding where smaller.
func (b *Bitmap) RunOptimize() {
	b.rb.RunOptimize()
}

// GetSizeInBytes returns the in-memory size of the bitmap.
func (b *Bitmap) GetSizeInBytes() uint64 {
	return b.rb.GetSizeInBytes()
}

// WriteTo writes the portable Roaring serialization to w.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	return b.rb.WriteTo(w)
}

// ReadFrom replaces b with a bitmap read from r.
func (b *Bitmap) ReadFrom(r io.Reader) (int64, error) {
	return b.rb.ReadFrom(r)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	return b.rb.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (b *Bitmap) UnmarshalBinary(data []byte) error {
	if b.rb == nil {
		b.rb = roaring.New()
	}
	return b.rb.UnmarshalBinary(data)
}

func (b *Bitmap) String() string {
	return b.rb.String()
}
