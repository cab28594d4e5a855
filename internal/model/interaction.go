package model

// Interaction is the append-only audit record of one answered question.
type Interaction struct {
	ID        string   `json:"id"`
	Query     string   `json:"query"`
	Answer    string   `json:"answer"`
	SourceIDs []string `json:"source_ids"`
	Ctime     int64    `json:"ctime"`
}

// AnswerResult is what the answer pipeline returns to callers.
type AnswerResult struct {
	Answer    string   `json:"answer"`
	SourceIDs []string `json:"source_ids"`
}
