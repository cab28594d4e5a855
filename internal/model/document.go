package model

// Document is a published unit of knowledge. Content is never edited in
// place after embedding; changing it requires a corpus rebuild.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
	Ctime   int64  `json:"ctime"`
}
