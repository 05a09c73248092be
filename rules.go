package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

//go:embed rules.md
var rulesMarkdown []byte

var markdown = goldmark.New()

func RulesHTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(rulesMarkdown, &buf); err != nil {
		return nil, fmt.Errorf("render rules: %w", err)
	}
	return buf.Bytes(), nil
}

func RenderRules(w io.Writer) error {
	return RenderMarkdownText(w, rulesMarkdown)
}

// RenderMarkdownText prints Markdown as plain terminal text: underlined
// headings, "-" and "1." list markers, link targets in parentheses.
func RenderMarkdownText(w io.Writer, source []byte) error {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if !entering {
				return ast.WalkContinue, nil
			}
			title := plainText(node, source)
			underline := "-"
			if node.Level == 1 {
				title = strings.ToUpper(title)
				underline = "="
			}
			fmt.Fprintf(&b, "%s\n%s\n\n", title, strings.Repeat(underline, len([]rune(title))))
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph:
			if !entering && !inListItem(node) {
				b.WriteString("\n\n")
			}

		case *ast.ListItem:
			if entering {
				b.WriteString(listMarker(node))
			} else {
				b.WriteString("\n")
			}

		case *ast.List:
			if !entering && node.Parent() != nil && node.Parent().Kind() == ast.KindDocument {
				b.WriteString("\n")
			}

		case *ast.Text:
			if !entering {
				return ast.WalkContinue, nil
			}
			b.Write(node.Segment.Value(source))
			switch {
			case node.HardLineBreak():
				b.WriteString("\n")
			case node.SoftLineBreak():
				b.WriteString(" ")
			}

		case *ast.Link:
			if !entering {
				fmt.Fprintf(&b, " (%s)", node.Destination)
			}

		case *ast.AutoLink:
			if entering {
				b.Write(node.URL(source))
			}
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			if entering {
				b.WriteString(strings.Repeat("-", 40) + "\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	_, err = io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func inListItem(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindListItem {
			return true
		}
	}
	return false
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "  - "
	}
	pos := 0
	for c := list.FirstChild(); c != nil && c != ast.Node(item); c = c.NextSibling() {
		pos++
	}
	return "  " + strconv.Itoa(list.Start+pos) + ". "
}
