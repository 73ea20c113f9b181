package models

// ErrorResponse is the JSON body of every failed evolve request
type ErrorResponse struct {
	Error string `json:"error"`
	// Raw carries the unparsed model output when extraction fails
	Raw string `json:"raw,omitempty"`
}
