package handlers

import "time"

type ScanRequest struct {
	Domain  string `json:"domain"`
	Tool    string `json:"tool"`
	Limit   *int   `json:"limit"`
	Sources string `json:"sources"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}
