package evolution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt instructs the model how to advance the world by one step.
const SystemPrompt = `You are a world-rules evolution engine. Given the current world state and an optional oracle (a player directive), you compute the world state at the next time step.

Rules:
1. You receive a JSON object describing the current world state.
2. If the oracle (user_prompt) is empty, simulate the natural passage of time: resources drift up or down, populations grow or decline, the environment recovers or deteriorates.
3. If the oracle (user_prompt) is not empty, resolve its effects first, then layer natural evolution on top.
4. You may change the value of any existing attribute and may boldly create new attributes when the evolution calls for it.
5. Every numeric change must be plausible and causally consistent.

Hard constraints:
- Output exactly one valid JSON object describing the evolved world state, and nothing else.
- The JSON must be nested: first-level keys are categories (such as "nature", "society", "technology"), second-level keys are attributes with their values.
- Example shape: {"nature":{"trees":128,"animals":65},"society":{"population":25,"food":80}}
- You may freely create new categories and attributes.
- Do not output explanations, comments, markdown or any other text. Output pure JSON only.`

// Message is one chat message sent upstream
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the upstream API for a JSON object reply
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatPayload is the chat-completions request body
type ChatPayload struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	ResponseFormat ResponseFormat `json:"response_format"`
	Temperature    *float64       `json:"temperature,omitempty"`
}

// UserMessage renders the directive, if any, followed by the indented
// current state.
func UserMessage(userPrompt string, currentState json.RawMessage) (string, error) {
	var state bytes.Buffer
	if err := json.Indent(&state, currentState, "", "  "); err != nil {
		return "", fmt.Errorf("failed to format current state: %w", err)
	}

	var b strings.Builder
	if userPrompt != "" {
		b.WriteString("Oracle: ")
		b.WriteString(userPrompt)
		b.WriteString("\n")
	}
	b.WriteString("Current world state:\n")
	b.Write(state.Bytes())
	return b.String(), nil
}

// BuildPayload assembles the two-message chat request for req.
func BuildPayload(req *Request) (ChatPayload, error) {
	user, err := UserMessage(req.UserPrompt, req.CurrentState)
	if err != nil {
		return ChatPayload{}, err
	}

	return ChatPayload{
		Model: req.Model,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: user},
		},
		ResponseFormat: ResponseFormat{Type: "json_object"},
		Temperature:    req.Temperature,
	}, nil
}
