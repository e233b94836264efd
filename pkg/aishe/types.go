// Package aishe implements the wire contract of the AISHE question-answering
// service: payload types, the error taxonomy, response validation and the
// deadline-bounded request executor.
package aishe

// Source is a reference the answer was grounded on. Number is 1-based and
// the slice order is the display order.
type Source struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// AnswerResult is the body returned by the ask endpoint.
type AnswerResult struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ProcessingTime float64  `json:"processing_time"` // seconds
}

// HealthStatus is the body returned by the health endpoint.
type HealthStatus struct {
	Status            string  `json:"status"`
	ServiceAccessible bool    `json:"ollama_accessible"`
	Message           *string `json:"message,omitempty"`
}

// Healthy reports whether the server considers itself fully operational.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy" || h.Status == "ok"
}

// questionRequest is the ask endpoint request body.
type questionRequest struct {
	Question string `json:"question"`
}

// errorResponse is the error envelope the server uses for non-2xx replies.
type errorResponse struct {
	Detail string `json:"detail"`
}
