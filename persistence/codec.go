package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/coverage"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/rule"
)

// maxPayloadSize bounds decoded payloads to guard against corrupt headers.
const maxPayloadSize = 1 << 30

// EncodeOptions configures Encode.
type EncodeOptions struct {
	Compression CompressionType
}

// Encode writes set as a container to w and returns the payload checksum.
func Encode(w io.Writer, set *rule.Set, opts EncodeOptions) (uint32, error) {
	if set == nil {
		return 0, fmt.Errorf("%w: nil rule set", ErrCorrupt)
	}
	raw, err := encodePayload(set)
	if err != nil {
		return 0, err
	}
	if len(raw) > maxPayloadSize {
		return 0, fmt.Errorf("payload of %d bytes exceeds limit", len(raw))
	}

	stored, ct, err := compress(raw, opts.Compression)
	if err != nil {
		return 0, err
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: uint8(ct),
		Members:     uint32(set.Len()),
		RawSize:     uint32(len(raw)),
		StoredSize:  uint32(len(stored)),
		Checksum:    CalculateChecksum(stored),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return 0, err
	}
	if _, err := w.Write(stored); err != nil {
		return 0, err
	}
	return header.Checksum, nil
}

// Marshal is Encode into a byte slice.
func Marshal(set *rule.Set, opts EncodeOptions) ([]byte, uint32, error) {
	var buf bytes.Buffer
	sum, err := Encode(&buf, set, opts)
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), sum, nil
}

// Decode reads a container from r and rebuilds the rule set.
func Decode(r io.Reader) (*rule.Set, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	if header.StoredSize > maxPayloadSize || header.RawSize > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload size out of range", ErrCorrupt)
	}

	cr := NewChecksumReader(r)
	stored := make([]byte, header.StoredSize)
	if _, err := io.ReadFull(cr, stored); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if err := cr.Verify(header.Checksum); err != nil {
		return nil, err
	}

	raw, err := decompress(stored, CompressionType(header.Compression), header.RawSize)
	if err != nil {
		return nil, err
	}

	set, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	if uint32(set.Len()) != header.Members {
		return nil, fmt.Errorf("%w: %d members, header says %d", ErrCorrupt, set.Len(), header.Members)
	}
	return set, nil
}

// Unmarshal is Decode from a byte slice.
func Unmarshal(data []byte) (*rule.Set, error) {
	return Decode(bytes.NewReader(data))
}

// Payload layout (all integers uvarint unless noted):
//
//	numRows
//	features: count, then per feature: name, domain size, values (varint), display strings
//	label: feature index, value (varint)
//	members: count, then per member:
//	  conditions: count, then per condition: feature index, value count, values (varint)
//	  5 bitmaps: length-prefixed roaring portable serialization

func encodePayload(set *rule.Set) ([]byte, error) {
	label := set.Label()
	if label.Feature == nil {
		return nil, fmt.Errorf("%w: set has no label", ErrCorrupt)
	}

	// Collect the schema in first-seen order, label feature first.
	features := []*model.Feature{label.Feature}
	index := map[string]int{label.Feature.Name(): 0}
	for _, m := range set.Members() {
		for _, c := range m.Conditions().Entries() {
			if _, ok := index[c.Feature.Name()]; !ok {
				index[c.Feature.Name()] = len(features)
				features = append(features, c.Feature)
			}
		}
	}

	e := &encoder{}

	numRows := 0
	for i, m := range set.Members() {
		n := m.Counts().Total()
		if i == 0 {
			numRows = n
		} else if n != numRows {
			return nil, fmt.Errorf("%w: member %d has %d rows, member 0 has %d", ErrRowCountMismatch, i, n, numRows)
		}
	}
	e.uvarint(uint64(numRows))

	e.uvarint(uint64(len(features)))
	for _, f := range features {
		if err := model.RequireCategorical(f); err != nil {
			return nil, err
		}
		e.string(f.Name())
		domain := f.Domain()
		e.uvarint(uint64(len(domain)))
		for _, v := range domain {
			e.varint(int64(v))
		}
		for _, v := range domain {
			e.string(f.Display(v))
		}
	}

	e.uvarint(0)
	e.varint(int64(label.Value))

	e.uvarint(uint64(set.Len()))
	for _, m := range set.Members() {
		entries := m.Conditions().Entries()
		e.uvarint(uint64(len(entries)))
		for _, c := range entries {
			e.uvarint(uint64(index[c.Feature.Name()]))
			e.uvarint(uint64(len(c.Values)))
			for _, v := range c.Values {
				e.varint(int64(v))
			}
		}
		cov := m.Coverage()
		for _, b := range []*bitmap.Bitmap{cov.Covered, cov.CorrectlyCovered, cov.IncorrectlyCovered, cov.CorrectlyNotCovered, cov.IncorrectlyNotCovered} {
			data, err := b.MarshalBinary()
			if err != nil {
				return nil, err
			}
			e.bytes(data)
		}
	}
	return e.buf, nil
}

func decodePayload(raw []byte) (*rule.Set, error) {
	d := &decoder{buf: raw}

	numRows := int(d.uvarint())

	nf := d.count()
	features := make([]*model.Feature, 0, nf)
	for range nf {
		name := d.string()
		n := d.count()
		domain := make([]int, n)
		for i := range domain {
			domain[i] = int(d.varint())
		}
		display := make(map[int]string, n)
		for _, v := range domain {
			display[v] = d.string()
		}
		if d.err != nil {
			return nil, d.err
		}
		f, err := model.NewCategoricalDomain(name, domain, display)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		features = append(features, f)
	}

	lf := d.feature(features)
	lv := int(d.varint())
	if d.err != nil {
		return nil, d.err
	}
	label, err := model.NewLabel(lf, lv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	nm := d.count()
	members := make([]*rule.Explanation, 0, nm)
	for range nm {
		nc := d.count()
		m := make(map[*model.Feature][]int, nc)
		for range nc {
			f := d.feature(features)
			nv := d.count()
			vals := make([]int, nv)
			for i := range vals {
				vals[i] = int(d.varint())
			}
			if f != nil {
				m[f] = vals
			}
		}

		parts := make([]*bitmap.Bitmap, 5)
		for i := range parts {
			b := bitmap.New()
			if data := d.bytes(); d.err == nil {
				if err := b.UnmarshalBinary(data); err != nil {
					return nil, fmt.Errorf("%w: bitmap: %v", ErrCorrupt, err)
				}
			}
			parts[i] = b
		}
		if d.err != nil {
			return nil, d.err
		}

		cov := coverage.Result{
			Covered:               parts[0],
			CorrectlyCovered:      parts[1],
			IncorrectlyCovered:    parts[2],
			CorrectlyNotCovered:   parts[3],
			IncorrectlyNotCovered: parts[4],
		}
		expl, err := rule.Restore(model.NewConditions(m), label, cov, numRows)
		if err != nil {
			return nil, fmt.Errorf("%w: member %d: %v", ErrCorrupt, len(members), err)
		}
		members = append(members, expl)
	}
	if d.off != len(d.buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(d.buf)-d.off)
	}

	if len(members) == 0 {
		return rule.EmptySet(label), nil
	}
	return rule.NewLabeledSet(label, members...)
}

type encoder struct {
	buf []byte
}

func (e *encoder) uvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }

func (e *encoder) varint(v int64) { e.buf = binary.AppendVarint(e.buf, v) }

func (e *encoder) bytes(b []byte) {
	e.uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) string(s string) { e.bytes([]byte(s)) }

// decoder records the first error and returns zero values afterwards.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) fail(what string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: truncated %s at offset %d", ErrCorrupt, what, d.off)
	}
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		d.fail("uvarint")
		return 0
	}
	d.off += n
	return v
}

func (d *decoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.buf[d.off:])
	if n <= 0 {
		d.fail("varint")
		return 0
	}
	d.off += n
	return v
}

// count reads a length that must fit in the remaining buffer.
func (d *decoder) count() int {
	v := d.uvarint()
	if v > uint64(len(d.buf)-d.off) {
		d.fail("count")
		return 0
	}
	return int(v)
}

func (d *decoder) bytes() []byte {
	n := d.count()
	if d.err != nil {
		return nil
	}
	b := slices.Clone(d.buf[d.off : d.off+n])
	d.off += n
	return b
}

func (d *decoder) string() string { return string(d.bytes()) }

func (d *decoder) feature(features []*model.Feature) *model.Feature {
	i := d.uvarint()
	if d.err != nil {
		return nil
	}
	if i >= uint64(len(features)) {
		d.err = fmt.Errorf("%w: feature index %d out of range", ErrCorrupt, i)
		return nil
	}
	return features[i]
}
