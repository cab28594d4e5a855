package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const defaultMaxChars = 2000

// MarkdownChunker splits markdown (or plain text, which parses as
// paragraphs) along block boundaries, grouping blocks under their nearest
// level 1/2 heading. A document that fits the budget stays one chunk.
type MarkdownChunker struct {
	maxChars int
}

func NewMarkdownChunker(maxChars int) *MarkdownChunker {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &MarkdownChunker{maxChars: maxChars}
}

func (c *MarkdownChunker) Chunk(content string) ([]Chunk, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) <= c.maxChars {
		return []Chunk{{Text: trimmed, Position: 0}}, nil
	}

	md := goldmark.New()
	reader := text.NewReader([]byte(trimmed))
	doc := md.Parser().Parse(reader)

	var chunks []Chunk
	var current []string
	var currentLen int
	var heading string
	position := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		body := strings.Join(current, "\n\n")
		if heading != "" {
			body = heading + "\n" + body
		}
		chunks = append(chunks, Chunk{Text: body, Position: position})
		position++
		current = nil
		currentLen = 0
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				flush()
				heading = string(n.Text(reader.Source()))
				continue
			}
			txt := string(n.Text(reader.Source()))
			current = append(current, txt)
			currentLen += utf8.RuneCountInString(txt)
		case *ast.FencedCodeBlock:
			lang := string(n.Language(reader.Source()))
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			block := "```" + lang + "\n" + code.String() + "```"
			for _, part := range splitLong(block, c.maxChars) {
				size := utf8.RuneCountInString(part)
				if currentLen > 0 && currentLen+size > c.maxChars {
					flush()
				}
				current = append(current, part)
				currentLen += size
			}
		default:
			txt := extractText(node, reader.Source())
			if txt == "" {
				continue
			}
			for _, part := range splitLong(txt, c.maxChars) {
				size := utf8.RuneCountInString(part)
				if currentLen > 0 && currentLen+size > c.maxChars {
					flush()
				}
				current = append(current, part)
				currentLen += size
			}
		}
	}
	flush()
	return chunks, nil
}

// splitLong breaks a single oversized block on sentence boundaries, then
// hard-splits any sentence that alone exceeds the budget.
func splitLong(s string, maxChars int) []string {
	if utf8.RuneCountInString(s) <= maxChars {
		return []string{s}
	}
	var parts []string
	var buf strings.Builder
	bufLen := 0
	for _, sentence := range splitSentences(s) {
		size := utf8.RuneCountInString(sentence)
		if size > maxChars {
			if bufLen > 0 {
				parts = append(parts, strings.TrimSpace(buf.String()))
				buf.Reset()
				bufLen = 0
			}
			parts = append(parts, hardSplit(sentence, maxChars)...)
			continue
		}
		if bufLen+size > maxChars && bufLen > 0 {
			parts = append(parts, strings.TrimSpace(buf.String()))
			buf.Reset()
			bufLen = 0
		}
		buf.WriteString(sentence)
		bufLen += size
	}
	if bufLen > 0 {
		parts = append(parts, strings.TrimSpace(buf.String()))
	}
	return parts
}

func splitSentences(s string) []string {
	var out []string
	start := 0
	runes := []rune(s)
	for i, r := range runes {
		if r == '.' || r == '!' || r == '?' || r == '\n' || r == '。' || r == '！' || r == '？' {
			out = append(out, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func hardSplit(s string, maxChars int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > maxChars {
		out = append(out, strings.TrimSpace(string(runes[:maxChars])))
		runes = runes[maxChars:]
	}
	if len(runes) > 0 {
		out = append(out, strings.TrimSpace(string(runes)))
	}
	return out
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).HardLineBreak() || node.(*ast.Text).SoftLineBreak() {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
