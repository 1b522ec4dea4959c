package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/henrytill/bitcomp-go/internal/types"
)

// JSONParser reads either a list of row objects or a table document.
type JSONParser struct{}

func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

func (p *JSONParser) Parse(r io.Reader) ([]types.Row, error) {
	var doc any

	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return []types.Row{}, nil
		}
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return types.RowsFromDocument(doc)
}
