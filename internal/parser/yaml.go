package parser

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/henrytill/bitcomp-go/internal/types"
)

// YAMLParser reads either a sequence of row mappings or a table document.
type YAMLParser struct{}

func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Parse(r io.Reader) ([]types.Row, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return types.RowsFromDocument(doc)
}
