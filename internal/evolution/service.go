package evolution

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bizmatters/world-oracle/internal/config"
	"github.com/bizmatters/world-oracle/internal/extract"
	"github.com/bizmatters/world-oracle/internal/metrics"
	"github.com/bizmatters/world-oracle/internal/models"
)

// Service validates evolve requests and relays them to the chat endpoint.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	defaults config.Defaults
	client   ChatClientInterface
	metrics  *metrics.EvolveMetrics
	tracer   trace.Tracer
}

// NewService creates a new evolution service. m may be nil.
func NewService(defaults config.Defaults, client ChatClientInterface, m *metrics.EvolveMetrics) *Service {
	return &Service{
		defaults: defaults,
		client:   client,
		metrics:  m,
		tracer:   otel.Tracer("evolution-service"),
	}
}

// Handle validates body and, if it is complete, evolves the world state.
// Every failure is returned as *Error.
func (s *Service) Handle(ctx context.Context, body models.EvolveBody) (json.RawMessage, error) {
	req, err := Validate(body, s.defaults)
	if err != nil {
		s.Reject(ctx, err)
		return nil, err
	}
	return s.Evolve(ctx, req)
}

// Reject counts a request refused before any upstream call, including
// bodies the transport could not decode.
func (s *Service) Reject(ctx context.Context, err error) {
	var evErr *Error
	if s.metrics != nil && errors.As(err, &evErr) && evErr.Rejected() {
		s.metrics.RecordRejected(ctx, string(evErr.Kind))
	}
}

// Evolve performs exactly one upstream call for req and returns the new
// world state as the model wrote it.
func (s *Service) Evolve(ctx context.Context, req *Request) (json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "evolution.evolve")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Bool("evolve.has_directive", req.UserPrompt != ""),
	)

	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordStarted(ctx, req.Model)
	}

	state, evErr := s.evolve(ctx, req)
	duration := time.Since(start)

	if evErr != nil {
		span.RecordError(evErr)
		span.SetAttributes(
			attribute.String("error.type", string(evErr.Kind)),
			attribute.Int("http.status_code", evErr.Status),
		)
		if s.metrics != nil {
			s.metrics.RecordFailed(ctx, req.Model, string(evErr.Kind), duration)
		}
		log.Printf(`{"level":"warn","message":"Evolve failed","kind":%q,"status":%d,"model":%q,"duration_ms":%d}`,
			evErr.Kind, evErr.Status, req.Model, duration.Milliseconds())
		return nil, evErr
	}

	if s.metrics != nil {
		s.metrics.RecordSucceeded(ctx, req.Model, duration)
	}
	return state, nil
}

func (s *Service) evolve(ctx context.Context, req *Request) (json.RawMessage, *Error) {
	payload, err := BuildPayload(req)
	if err != nil {
		return nil, &Error{
			Kind:    KindTransportFailure,
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
			Err:     err,
		}
	}

	content, err := s.client.Complete(ctx, req.Endpoint, req.APIKey, payload)
	if err != nil {
		return nil, classifyUpstream(err)
	}

	if content == "" {
		return nil, &Error{
			Kind:    KindEmptyUpstreamContent,
			Status:  http.StatusBadGateway,
			Message: "No content in LLM response",
		}
	}

	state, err := extract.JSON(content)
	if err == nil && !extract.IsObject(state) {
		err = errors.New("extracted value is not a JSON object")
	}
	if err != nil {
		return nil, &Error{
			Kind:    KindUnparsableResponse,
			Status:  http.StatusBadGateway,
			Message: "LLM returned invalid JSON",
			Raw:     content,
			Err:     err,
		}
	}

	return state, nil
}

// classifyUpstream maps a chat client failure onto the error taxonomy.
// Non-2xx statuses pass through; 1xx/3xx become 502 since they cannot carry
// an error body back to the caller.
func classifyUpstream(err error) *Error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		status := statusErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return &Error{
			Kind:    KindUpstreamHTTPError,
			Status:  status,
			Message: "LLM API error: " + statusErr.Body,
			Err:     err,
		}
	}

	return &Error{
		Kind:    KindTransportFailure,
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		Err:     err,
	}
}
