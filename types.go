package ragdex

import "time"

// IngestRequest describes one document to ingest. Zero chunk settings use the client defaults.
type IngestRequest struct {
	Source       string
	Collection   string
	ChunkSize    int
	ChunkOverlap int
	// Replace drops the collection before writing.
	Replace bool
	// Progress, if set, is called after each embedding batch.
	Progress func(done, total int)
}

// IngestReport summarizes a successful ingestion.
type IngestReport struct {
	RunID      string
	Source     string
	Collection string
	Pages      int
	Chunks     int
	Dimension  int
	Duration   time.Duration
}

// Citation points at the page an answer drew from.
type Citation struct {
	Source string
	Page   int
}

// Answer is the result of a query. Grounded is false when nothing relevant was retrieved.
type Answer struct {
	Text      string
	Citations []Citation
	Grounded  bool
}

// Hit is one retrieved chunk.
type Hit struct {
	ID     string
	Score  float64
	Text   string
	Source string
	Page   int
}

// Collection describes a stored collection.
type Collection struct {
	Name        string
	Dimension   int
	RecordCount int
	CreatedAt   time.Time
}
