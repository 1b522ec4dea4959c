package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/henrytill/bitcomp-go/internal/packed"
	"github.com/henrytill/bitcomp-go/internal/types"
)

// accessor hides the word type of a layout behind uint64 words.
type accessor interface {
	get(word uint64, i int) uint64
	set(word uint64, i int, v uint64) uint64
	field(i int) (mask uint64, shift uint)
	mask() uint64
	capacity() int
}

type layoutAccessor[W packed.Word] struct {
	l *packed.Layout[W]
}

func (a layoutAccessor[W]) get(word uint64, i int) uint64 {
	return uint64(a.l.Get(W(word), i))
}

// set truncates v to W before the layout masks it; the result is the same
// v mod 2^width since no field is wider than W.
func (a layoutAccessor[W]) set(word uint64, i int, v uint64) uint64 {
	return uint64(a.l.Set(W(word), i, W(v)))
}

func (a layoutAccessor[W]) field(i int) (uint64, uint) {
	f, err := a.l.Field(i)
	if err != nil {
		panic(err)
	}
	return uint64(f.Mask), f.Shift
}

func (a layoutAccessor[W]) mask() uint64 {
	return uint64(a.l.Mask())
}

func (a layoutAccessor[W]) capacity() int {
	return a.l.Capacity()
}

// FieldInfo describes where a named field sits in the word.
type FieldInfo struct {
	Index       int
	Name        string
	Description string
	Bits        int
	Shift       uint
	Mask        uint64
}

// Max returns the largest value the field stores without wrapping.
func (f FieldInfo) Max() uint64 {
	return f.Mask >> f.Shift
}

// Codec reads and writes schema fields by name. Words are carried as uint64
// regardless of the schema's word size.
type Codec struct {
	schema *Schema
	layout accessor
	index  map[string]int
}

func (c *Codec) Schema() *Schema {
	return c.schema
}

// Bits returns the word size, 32 or 64.
func (c *Codec) Bits() int {
	return c.layout.capacity()
}

func (c *Codec) UsedBits() int {
	return c.schema.TotalBits()
}

// Mask returns the bits covered by some field.
func (c *Codec) Mask() uint64 {
	return c.layout.mask()
}

func (c *Codec) Names() []string {
	names := make([]string, len(c.schema.Fields))
	for i, f := range c.schema.Fields {
		names[i] = f.Name
	}
	return names
}

func (c *Codec) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

func (c *Codec) Fields() []FieldInfo {
	out := make([]FieldInfo, len(c.schema.Fields))
	for i, f := range c.schema.Fields {
		mask, shift := c.layout.field(i)
		out[i] = FieldInfo{
			Index:       i,
			Name:        f.Name,
			Description: f.Description,
			Bits:        f.Bits,
			Shift:       shift,
			Mask:        mask,
		}
	}
	return out
}

// Check reports whether word fits the schema's word size.
func (c *Codec) Check(word uint64) error {
	if c.Bits() < 64 && word>>c.Bits() != 0 {
		return fmt.Errorf("%w: %#x is wider than %d bits", ErrWordOverflow, word, c.Bits())
	}
	return nil
}

func (c *Codec) lookup(name string) (int, error) {
	i, ok := c.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s not in schema %s", ErrUnknownField, name, c.schema.Name)
	}
	return i, nil
}

func (c *Codec) Get(word uint64, name string) (uint64, error) {
	i, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	if err := c.Check(word); err != nil {
		return 0, err
	}
	return c.layout.get(word, i), nil
}

// Set stores v in the named field. Like packed.Layout.Set it wraps values
// that are too wide for the field.
func (c *Codec) Set(word uint64, name string, v uint64) (uint64, error) {
	i, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	if err := c.Check(word); err != nil {
		return 0, err
	}
	return c.layout.set(word, i, v), nil
}

// Wraps reports whether storing v in the named field would drop bits.
func (c *Codec) Wraps(name string, v uint64) bool {
	i, ok := c.index[name]
	if !ok {
		return false
	}
	mask, shift := c.layout.field(i)
	return v > mask>>shift
}

// Encode applies values on top of word in field order.
func (c *Codec) Encode(word uint64, values map[string]uint64) (uint64, error) {
	if err := c.Check(word); err != nil {
		return 0, err
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if _, err := c.lookup(name); err != nil {
			return 0, err
		}
	}
	for i, f := range c.schema.Fields {
		if v, ok := values[f.Name]; ok {
			word = c.layout.set(word, i, v)
		}
	}
	return word, nil
}

// Decode extracts every field of word in field order.
func (c *Codec) Decode(word uint64) ([]types.FieldValue, error) {
	if err := c.Check(word); err != nil {
		return nil, err
	}
	out := make([]types.FieldValue, len(c.schema.Fields))
	for i, f := range c.schema.Fields {
		out[i] = types.FieldValue{Name: f.Name, Value: c.layout.get(word, i)}
	}
	return out, nil
}
