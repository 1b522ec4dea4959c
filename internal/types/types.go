package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/mod/semver"
)

type Parser interface {
	Parse(r io.Reader) ([]Row, error)
}

type Formatter interface {
	Format(w io.Writer, table *Table) error
}

// WordKey is the reserved row key holding the raw composed word.
const WordKey = "word"

// Row is one input record: an optional starting word plus named field values.
type Row struct {
	Word   *uint64
	Values map[string]uint64
}

// NewRow builds a Row from a decoded mapping. Values may be integers or
// strings holding a decimal or 0x-prefixed hex number.
func NewRow(m map[string]any) (Row, error) {
	row := Row{Values: make(map[string]uint64, len(m))}
	for k, raw := range m {
		v, err := ParseValue(raw)
		if err != nil {
			return Row{}, fmt.Errorf("field %s: %w", k, err)
		}
		if k == WordKey {
			row.Word = &v
			continue
		}
		row.Values[k] = v
	}
	return row, nil
}

func ParseValue(raw any) (uint64, error) {
	switch v := raw.(type) {
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case int:
		return fromSigned(int64(v))
	case int64:
		return fromSigned(v)
	case int32:
		return fromSigned(int64(v))
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxUint64 {
			return 0, fmt.Errorf("not an unsigned integer: %v", v)
		}
		return uint64(v), nil
	case json.Number:
		return parseString(v.String())
	case string:
		return parseString(v)
	default:
		return 0, fmt.Errorf("unsupported value type %T", raw)
	}
}

func fromSigned(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative value: %d", v)
	}
	return uint64(v), nil
}

// parseString reads decimal, or hex after a 0x prefix. Leading zeros are
// decimal: "09" is 9, not an octal error.
func parseString(s string) (uint64, error) {
	digits, base := strings.TrimSpace(s), 10
	if len(digits) > 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits, base = digits[2:], 16
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned integer %q: %w", s, err)
	}
	return v, nil
}

// FormatWord renders word as fixed-width hex for a word of the given size.
func FormatWord(word uint64, bits int) string {
	return "0x" + fmt.Sprintf("%0*x", bits/4, word)
}

type FieldValue struct {
	Name  string
	Value uint64
}

// Record is a composed word together with every field decoded from it.
type Record struct {
	Word   uint64
	Bits   int
	Values []FieldValue
}

func (r Record) mapSlice() yaml.MapSlice {
	out := make(yaml.MapSlice, 0, len(r.Values)+1)
	out = append(out, yaml.MapItem{Key: WordKey, Value: FormatWord(r.Word, r.Bits)})
	for _, fv := range r.Values {
		out = append(out, yaml.MapItem{Key: fv.Name, Value: fv.Value})
	}
	return out
}

func (r Record) MarshalYAML() (any, error) {
	return r.mapSlice(), nil
}

// MarshalJSON keeps the word first and the fields in layout order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range r.mapSlice() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Version string

const ExpectedVersion Version = "v0.1.0"

func (v Version) IsValid() bool {
	return semver.IsValid(string(v))
}

func NewVersion(v string) (Version, error) {
	// Add 'v' prefix if not present for semver validation
	if len(v) > 0 && v[0] != 'v' {
		v = "v" + v
	}
	version := Version(v)
	if !version.IsValid() {
		return "", fmt.Errorf("invalid semantic version: %s", v)
	}
	return version, nil
}

func (v Version) String() string {
	// For serialization compatibility, remove the 'v' prefix if present
	s := string(v)
	if len(s) > 0 && s[0] == 'v' {
		return s[1:]
	}
	return s
}

func (v Version) IsCompatible() bool {
	return semver.Major(string(v)) == semver.Major(string(ExpectedVersion))
}

// Table is the result of running rows through a schema.
type Table struct {
	Version Version
	Schema  string
	Bits    int
	Fields  []string
	Records []Record
}

func (t *Table) Len() int {
	return len(t.Records)
}

type serializedTable struct {
	Version string   `yaml:"version" json:"version"`
	Schema  string   `yaml:"schema"  json:"schema"`
	Word    int      `yaml:"word"    json:"word"`
	Length  int      `yaml:"length"  json:"length"`
	Records []Record `yaml:"records" json:"records"`
}

func (t *Table) toSerialized() serializedTable {
	records := t.Records
	if records == nil {
		records = []Record{}
	}
	return serializedTable{
		Version: t.Version.String(),
		Schema:  t.Schema,
		Word:    t.Bits,
		Length:  len(t.Records),
		Records: records,
	}
}

func (t *Table) MarshalYAML() (any, error) {
	return t.toSerialized(), nil
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.toSerialized())
}

// RowsFromDocument extracts rows from a decoded YAML or JSON document. The
// document is either a list of row mappings or a table with a records list.
func RowsFromDocument(doc any) ([]Row, error) {
	switch d := doc.(type) {
	case nil:
		return []Row{}, nil
	case []any:
		return rowsFromList(d)
	case map[string]any:
		if v, ok := d["version"]; ok {
			version, err := NewVersion(fmt.Sprint(v))
			if err != nil {
				return nil, fmt.Errorf("invalid version in document: %w", err)
			}
			if !version.IsCompatible() {
				return nil, fmt.Errorf(
					"incompatible version: %s, expected compatible with %s",
					version.String(),
					ExpectedVersion.String(),
				)
			}
		}
		records, ok := d["records"]
		if !ok {
			return nil, fmt.Errorf("document has no records")
		}
		if records == nil {
			return []Row{}, nil
		}
		list, ok := records.([]any)
		if !ok {
			return nil, fmt.Errorf("records must be a list, got %T", records)
		}
		return rowsFromList(list)
	default:
		return nil, fmt.Errorf("unsupported document type %T", doc)
	}
}

func rowsFromList(list []any) ([]Row, error) {
	rows := make([]Row, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d: expected a mapping, got %T", i, item)
		}
		row, err := NewRow(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
