package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ChatClientInterface defines the interface for chat-completion clients
type ChatClientInterface interface {
	Complete(ctx context.Context, endpoint, apiKey string, payload ChatPayload) (string, error)
}

// ChatClient calls an OpenAI-compatible chat-completions endpoint
type ChatClient struct {
	httpClient *http.Client
	tracer     trace.Tracer
}

// StatusError is returned when the endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// chatResponse is the subset of the completion reply the relay reads.
// Content is kept raw since some providers send null or non-string content.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewChatClient creates a new chat-completion client. A zero timeout leaves
// the transport defaults in place.
func NewChatClient(timeout time.Duration) *ChatClient {
	return &ChatClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("chat-client"),
	}
}

// Complete sends payload to endpoint and returns the first choice's message
// content. An empty string means the reply carried no content.
func (c *ChatClient) Complete(ctx context.Context, endpoint, apiKey string, payload ChatPayload) (string, error) {
	ctx, span := c.tracer.Start(ctx, "chat_client.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.endpoint", endpointAttr(endpoint)),
		attribute.String("llm.model", payload.Model),
	)

	content, err := c.completeInternal(ctx, endpoint, apiKey, payload)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.content_length", len(content)))
	return content, nil
}

// endpointAttr reduces endpoint to scheme, host and path so credentials in
// the userinfo or query never reach an exporter.
func endpointAttr(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path, RawPath: u.RawPath}).String()
}

// completeInternal performs the actual HTTP request
func (c *ChatClient) completeInternal(ctx context.Context, endpoint, apiKey string, payload ChatPayload) (string, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	// Inject trace context
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var completion chatResponse
	if err := json.Unmarshal(bodyBytes, &completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", nil
	}
	return contentText(completion.Choices[0].Message.Content), nil
}

// contentText unwraps a JSON string; any other non-null value is returned
// as written so extraction can still inspect it.
func contentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
