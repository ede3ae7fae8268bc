package model

const (
	SourceStatusProcessing = "processing"
	SourceStatusCompleted  = "completed"
	SourceStatusFailed     = "failed"
)

const (
	SourceTypeText     = "text"
	SourceTypeMarkdown = "markdown"
)

type Source struct {
	ID     string `json:"id"`
	BotID  string `json:"bot_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Ctime  int64  `json:"ctime"`
}

// SourceSummary is a Source plus its chunk count, as returned by the
// sources listing.
type SourceSummary struct {
	Source
	ChunkCount int `json:"chunk_count"`
}
