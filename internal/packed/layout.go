package packed

import (
	"errors"
	"fmt"
	"math/bits"
)

// Word is the storage type of a composed value.
type Word interface {
	~uint32 | ~uint64
}

var (
	ErrInvalidLayout = errors.New("invalid layout")
	ErrOutOfBounds   = errors.New("index out of bounds")
)

// Field describes where one field lives inside a composed word.
//
// Mask has ones exactly in the bits occupied by the field. Shift is the
// offset of the field's least-significant bit.
type Field[W Word] struct {
	Mask  W
	Shift uint
	Width int
}

// Max returns the largest value the field holds without wrapping.
func (f Field[W]) Max() W {
	return f.Mask >> f.Shift
}

// Layout is an immutable table of field descriptors for one word type.
// Fields are laid out contiguously from bit 0 in the order they were given.
type Layout[W Word] struct {
	fields []Field[W]
	used   int
}

type (
	Layout32 = Layout[uint32]
	Layout64 = Layout[uint64]
)

// Capacity returns the number of bits in W.
func Capacity[W Word]() int {
	return bits.OnesCount64(uint64(^W(0)))
}

// lowMask returns a word with bits [0, n) set.
// At n == capacity the shift would overflow, so the full word is returned.
func lowMask[W Word](n int) W {
	if n >= Capacity[W]() {
		return ^W(0)
	}
	return W(1)<<n - 1
}

// NewLayout builds the descriptor table for fields of the given bit widths.
//
// Every width must be positive and the widths must fit in W, otherwise an
// error wrapping ErrInvalidLayout is returned.
func NewLayout[W Word](widths ...int) (*Layout[W], error) {
	capacity := Capacity[W]()

	total := 0
	for i, w := range widths {
		if w <= 0 {
			return nil, fmt.Errorf("%w: field %d has width %d", ErrInvalidLayout, i, w)
		}
		if w > capacity {
			return nil, fmt.Errorf("%w: requested bits exceed capacity: field %d needs %d bits, word has %d",
				ErrInvalidLayout, i, w, capacity)
		}
		total += w
	}
	if total > capacity {
		return nil, fmt.Errorf("%w: requested bits exceed capacity: capacity %d, requested %d",
			ErrInvalidLayout, capacity, total)
	}

	fields := make([]Field[W], len(widths))
	start := 0
	for i, w := range widths {
		end := start + w
		fields[i] = Field[W]{
			Mask:  lowMask[W](end) ^ lowMask[W](start),
			Shift: uint(start),
			Width: w,
		}
		start = end
	}

	return &Layout[W]{fields: fields, used: total}, nil
}

func New32(widths ...int) (*Layout32, error) {
	return NewLayout[uint32](widths...)
}

func New64(widths ...int) (*Layout64, error) {
	return NewLayout[uint64](widths...)
}

func (l *Layout[W]) Len() int {
	return len(l.fields)
}

// UsedBits returns the sum of all field widths.
func (l *Layout[W]) UsedBits() int {
	return l.used
}

func (l *Layout[W]) Capacity() int {
	return Capacity[W]()
}

// Mask returns the union of all field masks.
func (l *Layout[W]) Mask() W {
	return lowMask[W](l.used)
}

// Field returns the descriptor of field i.
func (l *Layout[W]) Field(i int) (Field[W], error) {
	if i < 0 || i >= len(l.fields) {
		return Field[W]{}, outOfBounds(i, len(l.fields))
	}
	return l.fields[i], nil
}

// Fields returns a copy of the descriptor table.
func (l *Layout[W]) Fields() []Field[W] {
	out := make([]Field[W], len(l.fields))
	copy(out, l.fields)
	return out
}

// Get extracts field i from word. It panics if i is out of range.
func (l *Layout[W]) Get(word W, i int) W {
	f := l.field(i)
	return (word & f.Mask) >> f.Shift
}

// Set returns word with field i replaced by v. Bits of v that do not fit
// the field are dropped, so the stored value is v modulo 2^width.
// It panics if i is out of range.
func (l *Layout[W]) Set(word W, i int, v W) W {
	f := l.field(i)
	return word&^f.Mask | (v<<f.Shift)&f.Mask
}

func (l *Layout[W]) field(i int) *Field[W] {
	if i < 0 || i >= len(l.fields) {
		panic(outOfBounds(i, len(l.fields)))
	}
	return &l.fields[i]
}

func outOfBounds(i, n int) error {
	return fmt.Errorf("%w: field %d, layout has %d fields", ErrOutOfBounds, i, n)
}
