package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bizmatters/world-oracle/internal/evolution"
	"github.com/bizmatters/world-oracle/internal/models"
)

// maxBodyBytes bounds a POST /evolve body, the same limit as a socket frame
const maxBodyBytes = maxFrameBytes

// EvolverInterface defines the evolve operation the gateway relays to
type EvolverInterface interface {
	Handle(ctx context.Context, body models.EvolveBody) (json.RawMessage, error)
	// Reject accounts for a request refused before it reached Handle
	Reject(ctx context.Context, err error)
}

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	evolver EvolverInterface
	tracer  trace.Tracer
}

// NewHandler creates a new gateway handler
func NewHandler(evolver EvolverInterface) *Handler {
	return &Handler{
		evolver: evolver,
		tracer:  otel.Tracer("gateway-handler"),
	}
}

// Evolve godoc
// @Summary Evolve world state
// @Description Advance a world state by one time step using the configured chat-completion model.
// @Description apiUrl, apiKey and model fall back to the server defaults when omitted.
// @Tags evolve
// @Accept json
// @Produce json
// @Param request body models.EvolveBody true "Current state and optional directive"
// @Success 200 {object} map[string]interface{} "New world state"
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /evolve [post]
func (h *Handler) Evolve(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "evolve.handle")
	defer span.End()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var body models.EvolveBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		span.RecordError(err)
		evErr := evolution.InvalidBody(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			evErr.Status = http.StatusRequestEntityTooLarge
		}
		h.evolver.Reject(ctx, evErr)
		respondError(c, evErr)
		return
	}

	state, err := h.evolver.Handle(ctx, body)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("evolve.state_bytes", len(state)))
	c.Data(http.StatusOK, "application/json; charset=utf-8", state)
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// errorStatus resolves the status and body for any evolve failure.
func errorStatus(err error) (int, models.ErrorResponse) {
	var evErr *evolution.Error
	if errors.As(err, &evErr) {
		return evErr.Status, models.ErrorResponse{Error: evErr.Message, Raw: evErr.Raw}
	}
	return http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()}
}

func respondError(c *gin.Context, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf(`{"level":"error","message":"Evolve request failed","status":%d,"error":%q}`, status, body.Error)
	}
	_ = c.Error(err)
	c.JSON(status, body)
}
