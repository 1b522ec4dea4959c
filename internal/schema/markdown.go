package schema

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown reads a schema written as a Markdown document:
//
//	# visit
//
//	word: 32
//
//	- day: 5 day of month
//	- mobile: 1
//	- pv: 16 page views
//
// The first level 1 heading names the schema. Top-level paragraph lines of
// the form "key: value" set the word size and version; other prose is
// ignored. Each list item declares one field as "name: bits" followed by an
// optional description.
func ParseMarkdown(r io.Reader) (*Schema, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(content))

	var s Schema

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 && s.Name == "" {
				s.Name = extractText(node, content)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if node.Parent() != doc {
				return ast.WalkContinue, nil
			}
			for line := range strings.SplitSeq(extractText(node, content), "\n") {
				if err := s.setMetadata(line); err != nil {
					return ast.WalkStop, err
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			field, err := parseFieldItem(extractText(node, content))
			if err != nil {
				return ast.WalkStop, err
			}
			s.Fields = append(s.Fields, field)
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) setMetadata(line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)

	switch strings.ToLower(strings.TrimSpace(key)) {
	case "word":
		word, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: invalid word size %q", ErrInvalidSchema, value)
		}
		s.Word = word
	case "version":
		s.Version = value
	}
	return nil
}

func parseFieldItem(item string) (Field, error) {
	name, rest, ok := strings.Cut(item, ":")
	if !ok {
		return Field{}, fmt.Errorf("%w: list item %q is not of the form name: bits", ErrInvalidSchema, item)
	}

	rest = strings.TrimSpace(rest)
	widthText, description, _ := strings.Cut(rest, " ")
	width, err := strconv.Atoi(widthText)
	if err != nil {
		return Field{}, fmt.Errorf("%w: field %s: invalid width %q", ErrInvalidSchema, strings.TrimSpace(name), widthText)
	}

	return Field{
		Name:        strings.TrimSpace(name),
		Bits:        width,
		Description: strings.TrimSpace(description),
	}, nil
}

func extractText(node ast.Node, content []byte) string {
	var buf bytes.Buffer

	var stack []ast.Node
	stack = append(stack, node)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := current.(type) {
		case *ast.Text:
			buf.Write(n.Segment.Value(content))
			if n.SoftLineBreak() || n.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(n.Value)
		default:
			for child := current.LastChild(); child != nil; child = child.PreviousSibling() {
				stack = append(stack, child)
			}
		}
	}

	return strings.TrimSpace(buf.String())
}
