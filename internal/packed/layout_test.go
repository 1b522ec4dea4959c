package packed

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

type maskShift struct {
	mask  uint64
	shift uint
}

func descriptors[W Word](l *Layout[W]) []maskShift {
	out := make([]maskShift, 0, l.Len())
	for _, f := range l.Fields() {
		out = append(out, maskShift{uint64(f.Mask), f.Shift})
	}
	return out
}

func TestLayoutMasks32(t *testing.T) {
	tests := []struct {
		name   string
		widths []int
		want   []maskShift
	}{
		{
			name:   "mixed widths",
			widths: []int{2, 3, 1, 2, 5, 8},
			want:   []maskShift{{0x03, 0}, {0x1C, 2}, {0x20, 5}, {0xC0, 6}, {0x1F00, 8}, {0x1FE000, 13}},
		},
		{
			name:   "single field",
			widths: []int{3},
			want:   []maskShift{{0x07, 0}},
		},
		{
			name:   "ends at word boundary",
			widths: []int{3, 10, 19},
			want:   []maskShift{{0x07, 0}, {0x1FF8, 3}, {0xFFFFE000, 13}},
		},
		{
			name:   "single top bit",
			widths: []int{3, 10, 18, 1},
			want:   []maskShift{{0x07, 0}, {0x1FF8, 3}, {0x7FFFE000, 13}, {0x80000000, 31}},
		},
		{
			name:   "whole word",
			widths: []int{32},
			want:   []maskShift{{0xFFFFFFFF, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New32(tt.widths...)
			if err != nil {
				t.Fatalf("New32(%v) failed: %v", tt.widths, err)
			}
			got := descriptors(l)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d descriptors, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field %d: got mask %#x shift %d, want mask %#x shift %d",
						i, got[i].mask, got[i].shift, tt.want[i].mask, tt.want[i].shift)
				}
			}
		})
	}
}

func TestLayoutMasks64(t *testing.T) {
	tests := []struct {
		name   string
		widths []int
		want   []maskShift
	}{
		{
			name:   "mixed widths",
			widths: []int{2, 3, 1, 2, 5, 8},
			want:   []maskShift{{0x03, 0}, {0x1C, 2}, {0x20, 5}, {0xC0, 6}, {0x1F00, 8}, {0x1FE000, 13}},
		},
		{
			name:   "crosses 32 bits",
			widths: []int{3, 10, 19},
			want:   []maskShift{{0x07, 0}, {0x1FF8, 3}, {0xFFFFE000, 13}},
		},
		{
			name:   "two halves",
			widths: []int{32, 32},
			want:   []maskShift{{0xFFFFFFFF, 0}, {0xFFFFFFFF00000000, 32}},
		},
		{
			name:   "single top bit",
			widths: []int{63, 1},
			want:   []maskShift{{0x7FFFFFFFFFFFFFFF, 0}, {0x8000000000000000, 63}},
		},
		{
			name:   "whole word",
			widths: []int{64},
			want:   []maskShift{{0xFFFFFFFFFFFFFFFF, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New64(tt.widths...)
			if err != nil {
				t.Fatalf("New64(%v) failed: %v", tt.widths, err)
			}
			got := descriptors(l)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d descriptors, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field %d: got mask %#x shift %d, want mask %#x shift %d",
						i, got[i].mask, got[i].shift, tt.want[i].mask, tt.want[i].shift)
				}
			}
		})
	}
}

func TestNewLayoutInvalid(t *testing.T) {
	tests := []struct {
		name   string
		widths []int
		bits   int
	}{
		{"over 32", []int{20, 20}, 32},
		{"one past 32", []int{16, 16, 1}, 32},
		{"over 64", []int{40, 25}, 64},
		{"single field too wide", []int{33}, 32},
		{"zero width", []int{3, 0, 4}, 32},
		{"negative width", []int{-1}, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.bits == 32 {
				_, err = New32(tt.widths...)
			} else {
				_, err = New64(tt.widths...)
			}
			if !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("got %v, want ErrInvalidLayout", err)
			}
		})
	}

	_, err := New32(20, 20)
	if err == nil || !strings.Contains(err.Error(), "requested bits exceed capacity") {
		t.Errorf("got %v, want capacity message", err)
	}
}

func TestEmptyLayout(t *testing.T) {
	l, err := New64()
	if err != nil {
		t.Fatalf("New64() failed: %v", err)
	}
	if l.Len() != 0 || l.UsedBits() != 0 || l.Mask() != 0 {
		t.Errorf("got len %d used %d mask %#x, want all zero", l.Len(), l.UsedBits(), l.Mask())
	}
}

func checkGetSet[W Word](t *testing.T, l *Layout[W], values []W) {
	t.Helper()
	var word W
	for i, v := range values {
		word = l.Set(word, i, v)
	}
	for i, want := range values {
		if got := l.Get(word, i); got != want {
			t.Errorf("field %d: got %d, want %d", i, got, want)
		}
	}
}

func TestGetSet(t *testing.T) {
	l32, err := New32(1, 1, 2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	checkGetSet(t, l32, []uint32{1, 0, 2, 7, 12})

	l32, err = New32(8, 10, 12)
	if err != nil {
		t.Fatal(err)
	}
	checkGetSet(t, l32, []uint32{243, 34, 1047})

	l64, err := New64(1, 1, 2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	checkGetSet(t, l64, []uint64{1, 0, 2, 7, 12})

	l64, err = New64(8, 10, 12)
	if err != nil {
		t.Fatal(err)
	}
	checkGetSet(t, l64, []uint64{243, 34, 1047})
}

func TestSetOverflowWraps(t *testing.T) {
	l, err := New32(2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}

	var w uint32
	w = l.Set(w, 0, 5)
	if got := l.Get(w, 0); got != 1 {
		t.Errorf("field 0: got %d, want 1", got)
	}
	w = l.Set(w, 1, 14)
	if got := l.Get(w, 1); got != 6 {
		t.Errorf("field 1: got %d, want 6", got)
	}
	if got := l.Get(w, 0); got != 1 {
		t.Errorf("field 0 after setting field 1: got %d, want 1", got)
	}
	if got := l.Get(w, 2); got != 0 {
		t.Errorf("field 2: got %d, want 0", got)
	}
	if w&^l.Mask() != 0 {
		t.Errorf("word %#x has bits outside the layout", w)
	}
}

func TestSetOverflowWraps64(t *testing.T) {
	l, err := New64(2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}

	var w uint64
	w = l.Set(w, 0, 5)
	if got := l.Get(w, 0); got != 1 {
		t.Errorf("field 0: got %d, want 1", got)
	}
	w = l.Set(w, 1, 14)
	if got := l.Get(w, 1); got != 6 {
		t.Errorf("field 1: got %d, want 6", got)
	}

	// bits shifted past the top of the word are dropped as well
	l, err = New64(60, 4)
	if err != nil {
		t.Fatal(err)
	}
	w = l.Set(0, 1, ^uint64(0))
	if got := l.Get(w, 1); got != 0xF {
		t.Errorf("top field: got %#x, want 0xf", got)
	}
	if got := l.Get(w, 0); got != 0 {
		t.Errorf("low field: got %#x, want 0", got)
	}
}

func TestTopFieldLogicalShift(t *testing.T) {
	l32, err := New32(31, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := l32.Get(0xFFFFFFFF, 1); got != 1 {
		t.Errorf("32-bit top field: got %d, want 1", got)
	}

	l64, err := New64(4, 60)
	if err != nil {
		t.Fatal(err)
	}
	if got := l64.Get(0xFFFFFFFFFFFFFFFF, 1); got != 1<<60-1 {
		t.Errorf("64-bit top field: got %#x, want %#x", got, uint64(1<<60-1))
	}
}

func TestFullWidthBoundary(t *testing.T) {
	l32, err := New32(8, 24)
	if err != nil {
		t.Fatal(err)
	}
	top, _ := l32.Field(1)
	if top.Mask != 0xFFFFFF00 {
		t.Errorf("32-bit top mask: got %#x, want 0xffffff00", top.Mask)
	}
	checkGetSet(t, l32, []uint32{0xAB, 0xFFFFFF})

	l64, err := New64(40, 24)
	if err != nil {
		t.Fatal(err)
	}
	top64, _ := l64.Field(1)
	if top64.Mask != 0xFFFFFF0000000000 {
		t.Errorf("64-bit top mask: got %#x, want 0xffffff0000000000", top64.Mask)
	}
	checkGetSet(t, l64, []uint64{1<<40 - 1, 0xFFFFFF})

	if l64.Mask() != ^uint64(0) {
		t.Errorf("union mask: got %#x, want all ones", l64.Mask())
	}
}

func checkPartition[W Word](t *testing.T, l *Layout[W]) {
	t.Helper()
	var union W
	fields := l.Fields()
	for i, a := range fields {
		if a.Mask == 0 {
			t.Errorf("field %d has an empty mask", i)
		}
		for j := i + 1; j < len(fields); j++ {
			if a.Mask&fields[j].Mask != 0 {
				t.Errorf("fields %d and %d overlap: %#x & %#x", i, j, a.Mask, fields[j].Mask)
			}
		}
		union |= a.Mask
	}
	if union != l.Mask() {
		t.Errorf("union of masks: got %#x, want %#x", union, l.Mask())
	}
}

func randomWidths(r *rand.Rand, capacity int) []int {
	var widths []int
	remaining := capacity - r.IntN(capacity/4)
	for remaining > 0 {
		w := 1 + r.IntN(min(remaining, 16))
		widths = append(widths, w)
		remaining -= w
	}
	return widths
}

func TestMaskPartition(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		l32, err := New32(randomWidths(r, 32)...)
		if err != nil {
			t.Fatal(err)
		}
		checkPartition(t, l32)

		l64, err := New64(randomWidths(r, 64)...)
		if err != nil {
			t.Fatal(err)
		}
		checkPartition(t, l64)
	}
}

func TestRoundTripAndNonInterference(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 200 {
		l, err := New64(randomWidths(r, 64)...)
		if err != nil {
			t.Fatal(err)
		}

		word := r.Uint64()
		for i := range l.Len() {
			f, _ := l.Field(i)
			v := r.Uint64() & f.Max()

			before := make([]uint64, l.Len())
			for j := range before {
				before[j] = l.Get(word, j)
			}

			word = l.Set(word, i, v)
			if got := l.Get(word, i); got != v {
				t.Fatalf("widths %v field %d: got %d, want %d", l.Fields(), i, got, v)
			}
			for j := range before {
				if j == i {
					continue
				}
				if got := l.Get(word, j); got != before[j] {
					t.Fatalf("setting field %d changed field %d: got %d, want %d", i, j, got, before[j])
				}
			}
		}
	}
}

func TestRoundTrip32(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for range 200 {
		l, err := New32(randomWidths(r, 32)...)
		if err != nil {
			t.Fatal(err)
		}
		word := r.Uint32()
		for i := range l.Len() {
			f, _ := l.Field(i)
			v := r.Uint32() & f.Max()
			if got := l.Get(l.Set(word, i, v), i); got != v {
				t.Fatalf("field %d: got %d, want %d", i, got, v)
			}
		}
	}
}

func TestUnusedBitsPreserved(t *testing.T) {
	l, err := New32(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	w := l.Set(0xFFFF0000, 1, 0x3)
	if w != 0xFFFF0030 {
		t.Errorf("got %#x, want 0xffff0030", w)
	}
}

func expectOutOfBounds(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("%s: expected panic", name)
			return
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("%s: got panic %v, want ErrOutOfBounds", name, r)
		}
	}()
	fn()
}

func TestIndexOutOfRange(t *testing.T) {
	l, err := New32(2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}

	expectOutOfBounds(t, "get past end", func() { l.Get(0, 3) })
	expectOutOfBounds(t, "get negative", func() { l.Get(0, -1) })
	expectOutOfBounds(t, "set past end", func() { l.Set(0, 3, 1) })
	expectOutOfBounds(t, "set negative", func() { l.Set(0, -1, 1) })

	if _, err := l.Field(3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Field(3): got %v, want ErrOutOfBounds", err)
	}
}

func TestFieldsIsCopy(t *testing.T) {
	l, err := New32(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	fields := l.Fields()
	fields[0].Mask = 0
	if got := l.Set(0, 0, 0xF); got != 0xF {
		t.Errorf("layout changed through Fields(): got %#x, want 0xf", got)
	}
}

func BenchmarkGet32(b *testing.B) {
	l, _ := New32(1, 8, 5, 1, 9, 2, 6)
	w := uint32(0x5A5A5A5A)
	var sum uint32
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sum += l.Get(w, i%7)
	}
	_ = sum
}

func BenchmarkSet32(b *testing.B) {
	l, _ := New32(1, 8, 5, 1, 9, 2, 6)
	var w uint32
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w = l.Set(w, i%7, uint32(i))
	}
	_ = w
}

func BenchmarkGet64(b *testing.B) {
	l, _ := New64(1, 8, 5, 1, 9, 2, 6)
	w := uint64(0x5A5A5A5A5A5A5A5A)
	var sum uint64
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sum += l.Get(w, i%7)
	}
	_ = sum
}

func BenchmarkSet64(b *testing.B) {
	l, _ := New64(1, 8, 5, 1, 9, 2, 6)
	var w uint64
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w = l.Set(w, i%7, uint64(i))
	}
	_ = w
}
