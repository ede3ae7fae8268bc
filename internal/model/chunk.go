package model

// Chunk is one bounded segment of a source's extracted text. BotID is
// denormalized from the source so retrieval can scope by bot without a join.
// Chunks are never mutated after creation.
type Chunk struct {
	ID        int64     `json:"id"`
	SourceID  string    `json:"source_id"`
	BotID     string    `json:"bot_id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	Ctime     int64     `json:"ctime"`
}

// ChunkMatch is a chunk row returned by the index-side ranked search,
// carrying the cosine similarity computed by the database.
type ChunkMatch struct {
	ID         int64
	Content    string
	Similarity float64
}
