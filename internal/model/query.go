package model

// QueryResult represents an answered question with its supporting sources.
type QueryResult struct {
	Answer  string        `json:"answer"`
	Sources []ChunkSource `json:"sources"`
}

// ChunkSource carries provenance for a retrieved chunk. Content may be
// truncated for transport.
type ChunkSource struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	Score        float32 `json:"score"`
}

// RetrievedChunk is a ranked retrieval hit before answer generation.
type RetrievedChunk struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	ChunkIndex   int
	Content      string
	Score        float32
}

// StatusCount pairs a document status with the number of documents in it.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Stats summarizes the state of the knowledge base.
type Stats struct {
	Documents   []StatusCount `json:"documents"`
	TotalChunks int64         `json:"total_chunks"`
	VectorRows  int64         `json:"vector_rows"`
}
