package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bizmatters/world-oracle/internal/evolution"
	"github.com/bizmatters/world-oracle/internal/models"
)

// maxFrameBytes bounds a single inbound evolve frame
const maxFrameBytes = 1 << 20

// EvolveSocket runs evolve requests received over a WebSocket
type EvolveSocket struct {
	evolver  EvolverInterface
	tracer   trace.Tracer
	upgrader websocket.Upgrader
}

// NewEvolveSocket creates a new evolve WebSocket endpoint
func NewEvolveSocket(evolver EvolverInterface) *EvolveSocket {
	return &EvolveSocket{
		evolver: evolver,
		tracer:  otel.Tracer("evolve-websocket"),
		upgrader: websocket.Upgrader{
			// Same allow-all origin policy as the CORS middleware
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Stream handles WebSocket /ws/evolve
// @Summary Step a world over a WebSocket
// @Description Each text frame is an evolve request (plus optional id). Each reply frame carries
// @Description the status POST /evolve would return and either the new state or the error.
// @Description Frames on one connection are processed in order, one upstream call each.
// @Tags evolve
// @Success 101 "Switching Protocols"
// @Router /ws/evolve [get]
func (s *EvolveSocket) Stream(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "evolve_websocket.stream")
	defer span.End()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"warn","message":"Failed to upgrade connection","error":%q}`, err.Error())
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxFrameBytes)
	requestID := c.GetString(requestIDKey)
	log.Printf(`{"level":"info","message":"Evolve socket opened","request_id":%q}`, requestID)

	frames := 0
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf(`{"level":"warn","message":"Evolve socket read error","request_id":%q,"error":%q}`, requestID, err.Error())
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		frames++

		reply := s.handleFrame(ctx, message)
		if err := conn.WriteJSON(reply); err != nil {
			span.RecordError(err)
			log.Printf(`{"level":"warn","message":"Failed to write evolve frame","request_id":%q,"error":%q}`, requestID, err.Error())
			break
		}
	}

	span.SetAttributes(attribute.Int("evolve.frames", frames))
	log.Printf(`{"level":"info","message":"Evolve socket closed","request_id":%q,"frames":%d}`, requestID, frames)
}

// handleFrame runs one frame through the same path as POST /evolve.
func (s *EvolveSocket) handleFrame(ctx context.Context, message []byte) models.EvolveFrameResponse {
	ctx, span := s.tracer.Start(ctx, "evolve_websocket.frame")
	defer span.End()

	var frame models.EvolveFrameRequest
	if err := json.Unmarshal(message, &frame); err != nil {
		span.RecordError(err)
		evErr := evolution.InvalidBody(err)
		s.evolver.Reject(ctx, evErr)
		return frameError("", evErr)
	}

	state, err := s.evolver.Handle(ctx, frame.EvolveBody)
	if err != nil {
		span.RecordError(err)
		return frameError(frame.ID, err)
	}

	return models.EvolveFrameResponse{
		ID:     frame.ID,
		Status: http.StatusOK,
		State:  state,
	}
}

func frameError(id string, err error) models.EvolveFrameResponse {
	status, body := errorStatus(err)
	return models.EvolveFrameResponse{
		ID:     id,
		Status: status,
		Error:  body.Error,
		Raw:    body.Raw,
	}
}
