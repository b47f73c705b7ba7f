package model

import "time"

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EventSummary is one entry of the event index.
type EventSummary struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Phase string    `json:"phase"`
}

// SubmitResponse is returned for an admitted submission.
type SubmitResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Reserve bool   `json:"reserve"`
}

// RejectionResponse is returned for a rejected submission. Values echoes
// the submitted form so that it can be corrected and resent.
type RejectionResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
	Values map[string]any      `json:"values,omitempty"`
}
