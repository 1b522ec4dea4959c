package formatter

import (
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/henrytill/bitcomp-go/internal/types"
)

type HTMLFormatter struct{}

func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{}
}

type templateRecord struct {
	Word   string
	Values []string
}

func newTemplateRecord(record types.Record) templateRecord {
	values := make([]string, len(record.Values))
	for i, fv := range record.Values {
		values[i] = strconv.FormatUint(fv.Value, 10)
	}
	return templateRecord{
		Word:   types.FormatWord(record.Word, record.Bits),
		Values: values,
	}
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Schema}}</title>
</head>
<body>
<table>
<tr><th>word</th>{{range .Fields}}<th>{{.}}</th>{{end}}</tr>
{{- range .Records}}
<tr><td>{{.Word}}</td>{{range .Values}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
</body>
</html>
`

// Format writes the table as an HTML document that HTMLParser reads back.
func (f *HTMLFormatter) Format(writer io.Writer, table *types.Table) error {
	templateData := struct {
		Schema  string
		Fields  []string
		Records []templateRecord
	}{
		Schema:  table.Schema,
		Fields:  table.Fields,
		Records: make([]templateRecord, 0, table.Len()),
	}

	for _, record := range table.Records {
		templateData.Records = append(templateData.Records, newTemplateRecord(record))
	}

	t, err := template.New("html").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return t.Execute(writer, templateData)
}
