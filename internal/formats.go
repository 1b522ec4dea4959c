package internal

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/henrytill/bitcomp-go/internal/formatter"
	"github.com/henrytill/bitcomp-go/internal/parser"
	"github.com/henrytill/bitcomp-go/internal/types"
)

type FormatCapability uint8

const (
	CapInput FormatCapability = 1 << iota
	CapOutput
	CapBoth = CapInput | CapOutput
)

type Format struct {
	Name       string
	Capability FormatCapability
}

func (f Format) CanInput() bool  { return f.Capability&CapInput != 0 }
func (f Format) CanOutput() bool { return f.Capability&CapOutput != 0 }
func (f Format) String() string  { return f.Name }

var (
	JSON = Format{"json", CapBoth}
	YAML = Format{"yaml", CapBoth}
	HTML = Format{"html", CapBoth}
	XML  = Format{"xml", CapInput}
)

var parsers = map[Format]types.Parser{
	JSON: &parser.JSONParser{},
	YAML: &parser.YAMLParser{},
	HTML: &parser.HTMLParser{},
	XML:  &parser.XMLParser{},
}

var formatters = map[Format]types.Formatter{
	JSON: &formatter.JSONFormatter{},
	YAML: &formatter.YAMLFormatter{},
	HTML: &formatter.HTMLFormatter{},
}

var allFormats = []Format{JSON, YAML, HTML, XML}

func AllInputFormats() []Format {
	var result []Format
	for _, format := range allFormats {
		if format.CanInput() {
			result = append(result, format)
		}
	}
	return result
}

func AllOutputFormats() []Format {
	var result []Format
	for _, format := range allFormats {
		if format.CanOutput() {
			result = append(result, format)
		}
	}
	return result
}

func parseFormat(name string) (Format, bool) {
	normalized := strings.ToLower(name)
	if normalized == "yml" {
		normalized = YAML.Name
	}
	for _, format := range allFormats {
		if format.Name == normalized {
			return format, true
		}
	}
	return Format{}, false
}

// Set implements flag.Value. The capability already held by f restricts
// which formats are accepted, so seed it with CapInput or CapOutput.
func (f *Format) Set(value string) error {
	parsed, ok := parseFormat(value)
	if !ok {
		return fmt.Errorf("invalid format: %s", value)
	}

	if f.CanInput() && !parsed.CanInput() {
		return fmt.Errorf("format %s cannot be used for input", value)
	}
	if f.CanOutput() && !parsed.CanOutput() {
		return fmt.Errorf("format %s cannot be used for output", value)
	}

	*f = parsed
	return nil
}

func DetectInputFormat(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return JSON, true
	case ".yaml", ".yml":
		return YAML, true
	case ".html", ".htm":
		return HTML, true
	case ".xml":
		return XML, true
	default:
		return Format{}, false
	}
}

func Parse(format Format, r io.Reader) ([]types.Row, error) {
	if !format.CanInput() {
		return nil, fmt.Errorf("format %s cannot be used for input", format.Name)
	}

	parser, ok := parsers[format]
	if !ok {
		return nil, fmt.Errorf("no parser available for format: %s", format.Name)
	}

	return parser.Parse(r)
}

func Unparse(format Format, w io.Writer, table *types.Table) error {
	if !format.CanOutput() {
		return fmt.Errorf("format %s cannot be used for output", format.Name)
	}

	formatter, ok := formatters[format]
	if !ok {
		return fmt.Errorf("no formatter available for format: %s", format.Name)
	}

	return formatter.Format(w, table)
}
