package internal

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/henrytill/bitcomp-go/internal/types"
)

// Mappings renames input columns to schema field names.
type Mappings map[string]string

// LoadMappingsFromFile reads a column-to-field mapping, YAML first and JSON
// as a fallback. An empty file gives empty mappings.
func LoadMappingsFromFile(filename string) (Mappings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file: %w", err)
	}

	var mappings Mappings

	if err := yaml.Unmarshal(data, &mappings); err != nil {
		if jsonErr := json.Unmarshal(data, &mappings); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse mappings file as YAML or JSON: YAML error: %v, JSON error: %v", err, jsonErr)
		}
	}

	if mappings == nil {
		mappings = make(Mappings)
	}

	return mappings, nil
}

// Apply renames the values of every row in place. A column mapped to "word"
// becomes the row's starting word. Two columns that map to the same field
// are an error.
func (m Mappings) Apply(rows []types.Row) error {
	if len(m) == 0 {
		return nil
	}
	for i := range rows {
		renamed := make(map[string]uint64, len(rows[i].Values))
		for k, v := range rows[i].Values {
			name := k
			if to, ok := m[k]; ok {
				name = to
			}
			if name == types.WordKey {
				if rows[i].Word != nil {
					return fmt.Errorf("record %d: more than one column maps to %s", i, name)
				}
				word := v
				rows[i].Word = &word
				continue
			}
			if _, dup := renamed[name]; dup {
				return fmt.Errorf("record %d: more than one column maps to %s", i, name)
			}
			renamed[name] = v
		}
		rows[i].Values = renamed
	}
	return nil
}
