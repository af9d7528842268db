package models

import (
	"fmt"
	"time"
)

// TopicDump is the import format for seeding a topic's documents, evaluations,
// summaries, and pre-identified disagreements.
type TopicDump struct {
	TopicID       string              `json:"topic_id" yaml:"topic_id"`
	Documents     []DocumentInput     `json:"documents" yaml:"documents"`
	Disagreements []DisagreementInput `json:"disagreements,omitempty" yaml:"disagreements,omitempty"`
}

// DocumentInput is one document in a TopicDump.
type DocumentInput struct {
	ID         string             `json:"id" yaml:"id"`
	ParentID   string             `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	AuthorID   string             `json:"author_id" yaml:"author_id"`
	CreatedAt  time.Time          `json:"created_at" yaml:"created_at"`
	Scores     map[string]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
	Discipline string             `json:"discipline,omitempty" yaml:"discipline,omitempty"`
	Claims     []string           `json:"claims,omitempty" yaml:"claims,omitempty"`
}

// DisagreementInput is one disagreement record in a TopicDump.
type DisagreementInput struct {
	Title         string    `json:"title" yaml:"title"`
	Description   string    `json:"description" yaml:"description"`
	Severity      Severity  `json:"severity" yaml:"severity"`
	Confidence    float64   `json:"confidence" yaml:"confidence"`
	FalsePositive bool      `json:"false_positive,omitempty" yaml:"false_positive,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Validate checks that the dump is self-consistent: a topic id, unique document ids,
// authors on every document, and parents that exist inside the dump.
func (d *TopicDump) Validate() error {
	if d.TopicID == "" {
		return fmt.Errorf("topic_id cannot be empty")
	}
	seen := make(map[string]bool, len(d.Documents))
	for _, doc := range d.Documents {
		if doc.ID == "" {
			return fmt.Errorf("document id cannot be empty")
		}
		if doc.AuthorID == "" {
			return fmt.Errorf("document %s: author_id cannot be empty", doc.ID)
		}
		if seen[doc.ID] {
			return fmt.Errorf("duplicate document id: %s", doc.ID)
		}
		seen[doc.ID] = true
	}
	for _, doc := range d.Documents {
		if doc.ParentID != "" && !seen[doc.ParentID] {
			return fmt.Errorf("document %s: parent %s not in dump", doc.ID, doc.ParentID)
		}
	}
	for _, dis := range d.Disagreements {
		switch dis.Severity {
		case SeverityHigh, SeverityMedium, SeverityLow:
		default:
			return fmt.Errorf("disagreement %q: invalid severity %q", dis.Title, dis.Severity)
		}
	}
	return nil
}
