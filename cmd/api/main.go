package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/bizmatters/world-oracle/internal/config"
	"github.com/bizmatters/world-oracle/internal/evolution"
	"github.com/bizmatters/world-oracle/internal/gateway"
	"github.com/bizmatters/world-oracle/internal/metrics"
)

// @title World Oracle API
// @version 1.0
// @description Relays a world state and optional directive to a chat-completion model and returns the evolved state.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize OpenTelemetry
	tp, err := initTracer()
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	// Initialize OpenTelemetry metrics before any instrument is created
	mp, err := initMeter()
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}

	evolveMetrics, err := metrics.NewEvolveMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	if cfg.Defaults.APIURL == "" || cfg.Defaults.APIKey == "" || cfg.Defaults.Model == "" {
		log.Printf(`{"level":"warn","message":"Default API settings incomplete; clients must send apiUrl, apiKey and model"}`)
	}

	// Initialize evolution layer
	chatClient := evolution.NewChatClient(cfg.UpstreamTimeout)
	evolutionService := evolution.NewService(cfg.Defaults, chatClient, evolveMetrics)

	// Initialize gateway layer
	handler := gateway.NewHandler(evolutionService)
	socket := gateway.NewEvolveSocket(evolutionService)
	router := gateway.NewRouter(handler, socket, cfg.StaticDir)

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server running on http://localhost%s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Printf("Failed to flush metrics: %v", err)
	}

	log.Println("Server exited")
}

// initTracer initializes OpenTelemetry tracing
func initTracer() (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}

// initMeter initializes OpenTelemetry metrics with a periodic stdout export
func initMeter() (*sdkmetric.MeterProvider, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(time.Minute),
		)),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}
