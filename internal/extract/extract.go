package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ferrostar/askbase/internal/model"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
)

// Text normalizes an uploaded source body to plain text according to its
// declared type. Binary formats (pdf, docx) are extracted upstream; by the
// time a body reaches ingestion it is either plain text or markdown.
func Text(sourceType, body string) (string, error) {
	switch sourceType {
	case model.SourceTypeText:
		return body, nil
	case model.SourceTypeMarkdown:
		return markdownText(body), nil
	default:
		return "", appErr.ErrInvalid
	}
}

// markdownText strips markdown structure, keeping text content and code
// blocks, so the chunker sees prose instead of markup.
func markdownText(markdown string) string {
	md := goldmark.New()
	source := []byte(markdown)
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var parts []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			var sb strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(source))
			}
			if code := strings.TrimSpace(sb.String()); code != "" {
				parts = append(parts, code)
			}
		default:
			if txt := blockText(node, source); txt != "" {
				parts = append(parts, txt)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
