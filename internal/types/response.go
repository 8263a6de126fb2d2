package types

// Response is the JSON envelope written for every API error.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id"`
}
