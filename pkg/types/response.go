package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ConflictEnvelope is the 409 duplicate-order response: the error plus the
// already-persisted order so a retrying client can resume forward.
type ConflictEnvelope struct {
	Error APIError `json:"error"`
	Data  any      `json:"data"`
}

// ListEnvelope is the page-oriented payload returned by list endpoints.
type ListEnvelope struct {
	Items      any   `json:"items"`
	Count      int   `json:"count"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}
