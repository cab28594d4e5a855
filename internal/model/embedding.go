package model

// Embedding is one embedded chunk of a document. All embeddings of a
// corpus generation share the same vector dimension.
type Embedding struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"document_id"`
	ChunkText  string    `json:"chunk_text"`
	Position   int       `json:"position"`
	Vector     []float32 `json:"vector"`
	Ctime      int64     `json:"ctime"`
}

// CorpusMeta records which embedding model produced the current
// generation, so a model change can be detected instead of silently
// comparing incompatible vectors.
type CorpusMeta struct {
	ModelName  string `json:"model_name"`
	Dimension  int    `json:"dimension"`
	Embeddings int    `json:"embeddings"`
	RebuiltAt  int64  `json:"rebuilt_at"`
}

// ScoredEmbedding pairs an embedding with its cosine similarity to a
// query vector. Larger is more similar.
type ScoredEmbedding struct {
	Embedding Embedding `json:"embedding"`
	Score     float64   `json:"score"`
}

// RetrievedChunk is one retrieval result mapped back to its parent
// document.
type RetrievedChunk struct {
	Document  Document `json:"document"`
	ChunkText string   `json:"chunk_text"`
	Score     float64  `json:"score"`
}
