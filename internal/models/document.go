// Package models defines core data structures for topic documents, consensus records, and snapshots.
package models

import "time"

// Document is one user-authored document inside a discussion topic.
// ParentID is nil for root-level documents.
type Document struct {
	ID        string    `json:"id" db:"id"`
	TopicID   string    `json:"topic_id" db:"topic_id"`
	ParentID  *string   `json:"parent_id,omitempty" db:"parent_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsRoot reports whether the document has no parent.
func (d *Document) IsRoot() bool {
	return d.ParentID == nil || *d.ParentID == ""
}

// Evaluation is a rubric evaluation of a document: dimension name -> score (0-10).
type Evaluation struct {
	ID         string             `json:"id"`
	DocumentID string             `json:"document_id"`
	Scores     map[string]float64 `json:"scores"`
	Discipline string             `json:"discipline,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Summary holds the claims extracted from a document by the upstream summarizer.
type Summary struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Claims     []string  `json:"claims"`
	CreatedAt  time.Time `json:"created_at"`
}

// Severity of a pre-identified disagreement.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank returns the sort rank of the severity (high=3, medium=2, low=1, unknown=0).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Disagreement is a pre-populated disagreement record for a topic.
type Disagreement struct {
	ID            string    `json:"id" db:"id"`
	TopicID       string    `json:"topic_id" db:"topic_id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	Severity      Severity  `json:"severity" db:"severity"`
	Confidence    float64   `json:"confidence" db:"confidence"`
	FalsePositive bool      `json:"false_positive" db:"false_positive"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// AIConfig is a system-wide AI provider configuration. The API key is stored sealed.
type AIConfig struct {
	ID              string    `json:"id" db:"id"`
	Provider        string    `json:"provider" db:"provider"`
	Model           string    `json:"model" db:"model"`
	EmbeddingModel  string    `json:"embedding_model" db:"embedding_model"`
	EncryptedAPIKey string    `json:"-" db:"encrypted_api_key"`
	Endpoint        string    `json:"endpoint,omitempty" db:"endpoint"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
