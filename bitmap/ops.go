package bitmap

import "github.com/RoaringBitmap/roaring/v2"

// And returns a new bitmap holding a ∩ b.
func And(a, b *Bitmap) *Bitmap {
	return &Bitmap{rb: roaring.And(a.rb, b.rb)}
}

// Or returns a new bitmap holding a ∪ b.
func Or(a, b *Bitmap) *Bitmap {
	return &Bitmap{rb: roaring.Or(a.rb, b.rb)}
}

// AndNot returns a new bitmap holding a \ b.
func AndNot(a, b *Bitmap) *Bitmap {
	return &Bitmap{rb: roaring.AndNot(a.rb, b.rb)}
}

// FastOr returns the union of all bitmaps. It returns an empty bitmap for no input.
func FastOr(bs ...*Bitmap) *Bitmap {
	switch len(bs) {
	case 0:
		return New()
	case 1:
		return bs[0].Clone()
	}
	rbs := make([]*roaring.Bitmap, len(bs))
	for i, b := range bs {
		rbs[i] = b.rb
	}
	return &Bitmap{rb: roaring.FastOr(rbs...)}
}

// FastAnd returns the intersection of all bitmaps. It returns an empty bitmap for no input.
func FastAnd(bs ...*Bitmap) *Bitmap {
	switch len(bs) {
	case 0:
		return New()
	case 1:
		return bs[0].Clone()
	}
	rbs := make([]*roaring.Bitmap, len(bs))
	for i, b := range bs {
		rbs[i] = b.rb
	}
	return &Bitmap{rb: roaring.FastAnd(rbs...)}
}

// SumCardinality returns Σ|b_i| over all bitmaps.
func SumCardinality(bs ...*Bitmap) int {
	n := 0
	for _, b := range bs {
		n += b.Cardinality()
	}
	return n
}
