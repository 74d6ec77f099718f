package models

import "time"

// Run summarizes one tagging pass over a corpus.
type Run struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Documents       int       `json:"documents"`
	TaggedDocuments int       `json:"tagged_documents"`
	FeedbackNames   int       `json:"feedback_names"`
}
