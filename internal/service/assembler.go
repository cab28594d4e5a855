package service

import (
	"strings"
	"unicode/utf8"

	"github.com/collinsayidan/Collinalitics/internal/model"
)

const blockSeparator = "\n\n"

// Assemble formats retrieved chunks into a single context string capped
// at maxChars (counted in runes). Chunks are taken in ranking order and
// assembly stops at the first chunk that would not fit whole, so a
// smaller budget can only ever shrink the output. Returns the assembled
// context and the IDs of the documents that made it in.
func Assemble(chunks []model.RetrievedChunk, maxChars int) (string, []string) {
	if maxChars <= 0 || len(chunks) == 0 {
		return "", nil
	}
	var sb strings.Builder
	var sources []string
	used := 0
	for _, ch := range chunks {
		block := "[source: " + ch.Document.Title + "]\n" + ch.ChunkText
		cost := utf8.RuneCountInString(block)
		if used > 0 {
			cost += utf8.RuneCountInString(blockSeparator)
		}
		if used+cost > maxChars {
			break
		}
		if used > 0 {
			sb.WriteString(blockSeparator)
		}
		sb.WriteString(block)
		used += cost
		sources = append(sources, ch.Document.ID)
	}
	return sb.String(), sources
}
