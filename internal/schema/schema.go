package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/henrytill/bitcomp-go/internal/packed"
	"github.com/henrytill/bitcomp-go/internal/types"
)

var (
	ErrInvalidSchema = errors.New("invalid schema")
	ErrUnknownField  = errors.New("unknown field")
	ErrWordOverflow  = errors.New("word does not fit schema")
)

// Field is one named entry of a schema.
type Field struct {
	Name        string `yaml:"name"                  json:"name"`
	Bits        int    `yaml:"bits"                  json:"bits"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Schema names the fields of a composed word. Word is 32 or 64; when it is
// left out the smallest word that holds every field is chosen.
type Schema struct {
	Version string  `yaml:"version,omitempty" json:"version,omitempty"`
	Name    string  `yaml:"name"              json:"name"`
	Word    int     `yaml:"word,omitempty"    json:"word,omitempty"`
	Fields  []Field `yaml:"fields"            json:"fields"`
}

func (s *Schema) TotalBits() int {
	total := 0
	for _, f := range s.Fields {
		total += f.Bits
	}
	return total
}

func (s *Schema) Widths() []int {
	widths := make([]int, len(s.Fields))
	for i, f := range s.Fields {
		widths[i] = f.Bits
	}
	return widths
}

func (s *Schema) applyDefaults() {
	if s.Version == "" {
		s.Version = types.ExpectedVersion.String()
	}
	if s.Word == 0 {
		s.Word = 32
		if s.TotalBits() > 32 {
			s.Word = 64
		}
	}
}

// Validate checks the version, word size and fields. Fields wider than the
// word are reported with packed.ErrInvalidLayout.
func (s *Schema) Validate() error {
	version, err := types.NewVersion(s.Version)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if !version.IsCompatible() {
		return fmt.Errorf("%w: incompatible version: %s, expected compatible with %s",
			ErrInvalidSchema, version.String(), types.ExpectedVersion.String())
	}

	if s.Word != 32 && s.Word != 64 {
		return fmt.Errorf("%w: word must be 32 or 64, got %d", ErrInvalidSchema, s.Word)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		name := strings.TrimSpace(f.Name)
		switch {
		case name == "":
			return fmt.Errorf("%w: field %d has no name", ErrInvalidSchema, i)
		case name == types.WordKey:
			return fmt.Errorf("%w: field name %q is reserved", ErrInvalidSchema, name)
		case f.Bits <= 0:
			return fmt.Errorf("%w: field %s has width %d", ErrInvalidSchema, name, f.Bits)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate field %s", ErrInvalidSchema, name)
		}
		seen[name] = struct{}{}
	}

	if total := s.TotalBits(); total > s.Word {
		return fmt.Errorf("schema %s: %w: requested bits exceed capacity: capacity %d, requested %d",
			s.Name, packed.ErrInvalidLayout, s.Word, total)
	}

	return nil
}

// Parse reads a schema from YAML, falling back to JSON.
func Parse(data []byte) (*Schema, error) {
	var s Schema

	if err := yaml.Unmarshal(data, &s); err != nil {
		if jsonErr := json.Unmarshal(data, &s); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse schema as YAML or JSON: YAML error: %v, JSON error: %v", err, jsonErr)
		}
	}

	for i := range s.Fields {
		s.Fields[i].Name = strings.TrimSpace(s.Fields[i].Name)
	}
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a schema file. Files ending in .md or .markdown are read as
// Markdown documents, anything else as YAML or JSON.
func Load(filename string) (*Schema, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open schema file: %w", err)
		}
		defer f.Close()
		return ParseMarkdown(f)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Compile fills in a missing version or word size, trims field names,
// validates the schema and builds its layout.
func (s *Schema) Compile() (*Codec, error) {
	for i := range s.Fields {
		s.Fields[i].Name = strings.TrimSpace(s.Fields[i].Name)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var (
		acc accessor
		err error
	)
	switch s.Word {
	case 32:
		acc, err = newAccessor[uint32](s.Widths())
	default:
		acc, err = newAccessor[uint64](s.Widths())
	}
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}

	index := make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		index[f.Name] = i
	}

	return &Codec{schema: s, layout: acc, index: index}, nil
}

func newAccessor[W packed.Word](widths []int) (accessor, error) {
	l, err := packed.NewLayout[W](widths...)
	if err != nil {
		return nil, err
	}
	return layoutAccessor[W]{l}, nil
}
