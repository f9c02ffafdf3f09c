// Package extraction turns an uploaded statement document into reviewed
// transaction candidates. It fetches the file from storage, sends it to
// Gemini with an extraction instruction, validates the returned JSON
// against a strict shape and classifies each candidate against the owner's
// history.
package extraction

import (
	"github.com/ddaros/financas/internal/domain"
	"github.com/ddaros/financas/internal/review"
)

// DefaultModelName is the Gemini model used for statement extraction.
const DefaultModelName = "gemini-2.5-flash"

// Candidate is one extracted transaction awaiting review.
type Candidate struct {
	Transaction *domain.Transaction `json:"transaction"`
	Status      review.Match        `json:"status"`
	Preselected bool                `json:"preselected"`
}

// Rejection records one model item dropped during validation, with the item
// index as the model emitted it.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result is what an extraction run hands to the review UI.
type Result struct {
	DocumentID string      `json:"documentId"`
	RunID      string      `json:"runId"`
	Candidates []Candidate `json:"candidates"`
	Rejected   []Rejection `json:"rejected,omitempty"`

	BankName   string `json:"bankName,omitempty"`
	CardNumber string `json:"cardNumber,omitempty"`
	CardHolder string `json:"cardHolder,omitempty"`
}
