package parser

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/henrytill/bitcomp-go/internal/types"
)

// XMLParser reads records stored as attributes:
//
//	<records>
//	  <record word="0x0000112d"/>
//	  <record day="13" pv="34"/>
//	</records>
type XMLParser struct{}

func NewXMLParser() *XMLParser {
	return &XMLParser{}
}

type xmlRecord struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type xmlRecords struct {
	Records []xmlRecord `xml:"record"`
}

func (p *XMLParser) Parse(r io.Reader) ([]types.Row, error) {
	var doc xmlRecords
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return []types.Row{}, nil
		}
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	rows := make([]types.Row, 0, len(doc.Records))
	for i, rec := range doc.Records {
		m := make(map[string]any, len(rec.Attrs))
		for _, attr := range rec.Attrs {
			m[attr.Name.Local] = attr.Value
		}
		row, err := types.NewRow(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
