package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

// CanTransition enforces the monotonic lifecycle:
// uploaded -> processing -> {ready|error}.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch s {
	case DocumentStatusUploaded:
		return next == DocumentStatusProcessing || next == DocumentStatusError
	case DocumentStatusProcessing:
		return next == DocumentStatusReady || next == DocumentStatusError
	default:
		return false
	}
}

type MediaType string

const (
	MediaTypePDF  MediaType = "pdf"
	MediaTypeDOCX MediaType = "docx"
	MediaTypeTXT  MediaType = "txt"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaTypePDF, MediaTypeDOCX, MediaTypeTXT:
		return true
	}
	return false
}

type Document struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;index" json:"user_id"`

	Filename    string    `gorm:"column:filename;not null" json:"filename"`
	StorageKey  string    `gorm:"column:storage_key;not null" json:"storage_key"`
	MediaType   MediaType `gorm:"column:media_type;not null" json:"media_type"`
	ByteSize    int64     `gorm:"column:byte_size;not null" json:"byte_size"`
	ContentHash string    `gorm:"column:content_hash;index" json:"content_hash"`

	Status        DocumentStatus `gorm:"column:status;not null;index" json:"status"`
	FailureReason string         `gorm:"column:failure_reason" json:"failure_reason,omitempty"`

	// Present once extraction succeeded.
	Text       string `gorm:"column:text;type:text" json:"-"`
	PageCount  int    `gorm:"column:page_count" json:"page_count,omitempty"`
	ChunkCount int    `gorm:"column:chunk_count" json:"chunk_count"`
	OCRUsed    bool   `gorm:"column:ocr_used" json:"ocr_used"`

	// Index metadata: provider identity and dimensionality are checked
	// before every search against this document.
	EmbedProvider string `gorm:"column:embed_provider" json:"embed_provider,omitempty"`
	EmbedModel    string `gorm:"column:embed_model" json:"embed_model,omitempty"`
	EmbedDim      int    `gorm:"column:embed_dim" json:"embed_dim,omitempty"`

	UploadedAt  time.Time  `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Document) TableName() string { return "document" }

// Chunk is a contiguous span of the normalized document text. Identity is
// (document id, seq); rows are immutable once written and removed only
// with the owning document.
type Chunk struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`

	Seq       int    `gorm:"column:seq;not null" json:"seq"`
	Text      string `gorm:"column:text;type:text;not null" json:"text"`
	StartRune int    `gorm:"column:start_rune;not null" json:"start_rune"`
	EndRune   int    `gorm:"column:end_rune;not null" json:"end_rune"`
	Page      *int   `gorm:"column:page" json:"page,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Chunk) TableName() string { return "document_chunk" }

// VectorID is the chunk's identity in the vector store namespace.
func (c *Chunk) VectorID() string { return c.ID.String() }
