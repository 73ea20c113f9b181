package models

import "encoding/json"

// EvolveBody is the inbound evolve request as sent by clients.
// apiUrl, apiKey and model may be omitted when the server has defaults.
type EvolveBody struct {
	APIURL       string          `json:"apiUrl,omitempty"`
	APIKey       string          `json:"apiKey,omitempty"`
	Model        string          `json:"model,omitempty"`
	CurrentState json.RawMessage `json:"current_state,omitempty" swaggertype:"object"`
	UserPrompt   string          `json:"user_prompt,omitempty"`
	// Temperature accepts a number, a numeric string or a boolean
	Temperature json.RawMessage `json:"temperature,omitempty" swaggertype:"number"`
}

// EvolveFrameRequest is one inbound WebSocket frame on /ws/evolve
type EvolveFrameRequest struct {
	// ID is echoed back so clients can correlate replies
	ID string `json:"id,omitempty"`
	EvolveBody
}

// EvolveFrameResponse is the reply to one EvolveFrameRequest. Status mirrors
// the HTTP status the same request would get from POST /evolve.
type EvolveFrameResponse struct {
	ID     string          `json:"id,omitempty"`
	Status int             `json:"status"`
	State  json.RawMessage `json:"state,omitempty" swaggertype:"object"`
	Error  string          `json:"error,omitempty"`
	Raw    string          `json:"raw,omitempty"`
}
