// Package model provides data models for the knowledge-hub service.
package model

import (
	"time"
)

// Document status values. A document moves uploaded -> indexing and ends in
// indexed or error. Re-ingestion takes an error document back to indexing.
const (
	StatusUploaded = "uploaded"
	StatusIndexing = "indexing"
	StatusIndexed  = "indexed"
	StatusError    = "error"
)

// Document represents an uploaded file tracked by the ingestion pipeline.
type Document struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	FileName       string    `json:"file_name" gorm:"type:varchar(255);not null"`
	StoragePath    string    `json:"-" gorm:"type:varchar(512);not null"` // Opaque object-store key
	FileSize       int64     `json:"file_size" gorm:"not null"`
	MimeType       string    `json:"mime_type" gorm:"type:varchar(128)"`
	Status         string    `json:"status" gorm:"type:varchar(32);default:'uploaded';index"`
	ErrorMessage   string    `json:"error_message,omitempty" gorm:"type:text"` // Set only when status is error
	ChunkCount     int       `json:"chunk_count" gorm:"default:0"`
	EmbeddingCount int       `json:"embedding_count" gorm:"default:0"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// Chunk represents a text segment produced from a document. ChunkIndex is
// 0-based and contiguous within a document.
type Chunk struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	DocumentID string    `json:"document_id" gorm:"type:varchar(64);index;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	ChunkIndex int       `json:"chunk_index" gorm:"not null"`
	TokenCount *int      `json:"token_count,omitempty"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Chunk.
func (Chunk) TableName() string {
	return "chunks"
}

// DocumentPatch is a partial update applied to a document record. Nil fields
// are left untouched. Setting a status other than error clears ErrorMessage.
type DocumentPatch struct {
	Status         *string
	ErrorMessage   *string
	ChunkCount     *int
	EmbeddingCount *int
}

// IngestResult summarizes one ingestion run of a document.
type IngestResult struct {
	DocumentID     string `json:"document_id"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingCount int    `json:"embedding_count"`
	Status         string `json:"status"`
}
