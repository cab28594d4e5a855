package chunker

// Chunk is a contiguous span of a document small enough to embed in one
// vectorizer call.
type Chunk struct {
	Text     string
	Position int
}

// Chunker splits document content into embeddable chunks. The policy is
// pluggable; the corpus service only relies on every chunk staying within
// the vectorizer's practical input limit.
type Chunker interface {
	Chunk(content string) ([]Chunk, error)
}
