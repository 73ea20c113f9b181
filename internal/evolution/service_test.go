package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bizmatters/world-oracle/internal/config"
	"github.com/bizmatters/world-oracle/internal/metrics"
	"github.com/bizmatters/world-oracle/internal/models"
)

// MockChatClient implements ChatClientInterface for testing
type MockChatClient struct {
	content  string
	err      error
	calls    int
	endpoint string
	apiKey   string
	payload  ChatPayload
}

func (m *MockChatClient) Complete(ctx context.Context, endpoint, apiKey string, payload ChatPayload) (string, error) {
	m.calls++
	m.endpoint = endpoint
	m.apiKey = apiKey
	m.payload = payload
	return m.content, m.err
}

func newTestService(t *testing.T, client ChatClientInterface, defaults config.Defaults) *Service {
	m, err := metrics.NewEvolveMetrics()
	require.NoError(t, err)
	return NewService(defaults, client, m)
}

func TestService_Evolve(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		clientErr     error
		expectedState string
		expectedKind  Kind
		expectedCode  int
		expectedMsg   string
		expectRaw     bool
	}{
		{
			name:          "plain_json",
			content:       `{"nature":{"trees":99}}`,
			expectedState: `{"nature":{"trees":99}}`,
		},
		{
			name:          "fenced_json",
			content:       "Sure!\n```json\n{\"society\":{\"population\":30}}\n```",
			expectedState: `{"society":{"population":30}}`,
		},
		{
			name:         "empty_content",
			content:      "",
			expectedKind: KindEmptyUpstreamContent,
			expectedCode: http.StatusBadGateway,
			expectedMsg:  "No content in LLM response",
		},
		{
			name:         "prose_only",
			content:      "I cannot simulate that.",
			expectedKind: KindUnparsableResponse,
			expectedCode: http.StatusBadGateway,
			expectedMsg:  "LLM returned invalid JSON",
			expectRaw:    true,
		},
		{
			name:         "array_is_not_a_world",
			content:      `[{"trees":1}]`,
			expectedKind: KindUnparsableResponse,
			expectedCode: http.StatusBadGateway,
			expectedMsg:  "LLM returned invalid JSON",
			expectRaw:    true,
		},
		{
			name:         "upstream_status",
			clientErr:    &StatusError{StatusCode: http.StatusUnauthorized, Body: "invalid api key"},
			expectedKind: KindUpstreamHTTPError,
			expectedCode: http.StatusUnauthorized,
			expectedMsg:  "LLM API error: invalid api key",
		},
		{
			name:         "upstream_redirect_status",
			clientErr:    &StatusError{StatusCode: http.StatusNotModified, Body: ""},
			expectedKind: KindUpstreamHTTPError,
			expectedCode: http.StatusBadGateway,
			expectedMsg:  "LLM API error: ",
		},
		{
			name:         "transport_failure",
			clientErr:    errors.New("failed to make request: connection refused"),
			expectedKind: KindTransportFailure,
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "failed to make request: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockChatClient{content: tt.content, err: tt.clientErr}
			svc := newTestService(t, client, config.Defaults{})

			req, err := Validate(validBody(), config.Defaults{})
			require.NoError(t, err)

			state, err := svc.Evolve(context.Background(), req)
			assert.Equal(t, 1, client.calls)

			if tt.expectedKind == "" {
				require.NoError(t, err)
				assert.JSONEq(t, tt.expectedState, string(state))
				return
			}

			require.Error(t, err)
			assert.Nil(t, state)

			var evErr *Error
			require.True(t, errors.As(err, &evErr))
			assert.Equal(t, tt.expectedKind, evErr.Kind)
			assert.Equal(t, tt.expectedCode, evErr.Status)
			assert.Equal(t, tt.expectedMsg, evErr.Error())
			assert.False(t, evErr.Rejected())
			if tt.expectRaw {
				assert.Equal(t, tt.content, evErr.Raw)
			} else {
				assert.Empty(t, evErr.Raw)
			}
		})
	}
}

func TestService_Handle_ForwardsResolvedRequest(t *testing.T) {
	client := &MockChatClient{content: `{"x":2}`}
	svc := newTestService(t, client, config.Defaults{
		APIURL: "https://llm.example.com/",
		APIKey: "sk-default",
		Model:  "default-model",
	})

	body := models.EvolveBody{
		CurrentState: json.RawMessage(`{"x":1}`),
		UserPrompt:   "double x",
		Temperature:  json.RawMessage(`0.2`),
	}

	state, err := svc.Handle(context.Background(), body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":2}`, string(state))

	assert.Equal(t, "https://llm.example.com/v1/chat/completions", client.endpoint)
	assert.Equal(t, "sk-default", client.apiKey)
	assert.Equal(t, "default-model", client.payload.Model)
	require.NotNil(t, client.payload.Temperature)
	assert.InDelta(t, 0.2, *client.payload.Temperature, 1e-9)
	assert.Contains(t, client.payload.Messages[1].Content, "Oracle: double x")
}

func TestService_Handle_RejectsWithoutCallingUpstream(t *testing.T) {
	client := &MockChatClient{content: `{}`}
	svc := newTestService(t, client, config.Defaults{})

	_, err := svc.Handle(context.Background(), models.EvolveBody{})
	require.Error(t, err)

	var evErr *Error
	require.True(t, errors.As(err, &evErr))
	assert.Equal(t, KindMissingFields, evErr.Kind)
	assert.True(t, evErr.Rejected())
	assert.Zero(t, client.calls)
}

func TestService_RecordsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := metrics.NewEvolveMetricsWithMeter(provider.Meter("test"))
	require.NoError(t, err)

	client := &MockChatClient{content: `{"ok":true}`}
	svc := NewService(config.Defaults{}, client, m)
	ctx := context.Background()

	_, err = svc.Handle(ctx, validBody())
	require.NoError(t, err)
	_, err = svc.Handle(ctx, models.EvolveBody{})
	require.Error(t, err)
	svc.Reject(ctx, InvalidBody(errors.New("unexpected EOF")))
	svc.Reject(ctx, errors.New("not an evolve error"))
	client.content = "no json here"
	_, err = svc.Handle(ctx, validBody())
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := make(map[string]map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			byType := make(map[string]int64)
			for _, dp := range sum.DataPoints {
				kind, _ := dp.Attributes.Value("error.type")
				byType[kind.AsString()] += dp.Value
			}
			sums[metric.Name] = byType
		}
	}

	var requests int64
	for _, n := range sums["world_oracle.evolve.requests"] {
		requests += n
	}
	assert.Equal(t, int64(4), requests)
	assert.Equal(t, map[string]int64{
		"MissingFields":      1,
		"InvalidBody":        1,
		"UnparsableResponse": 1,
	}, sums["world_oracle.evolve.failed"])
}

func TestService_FailureLogLineIsJSON(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}()

	body := validBody()
	body.Model = `gpt-"quoted"`
	svc := NewService(config.Defaults{}, &MockChatClient{}, nil)

	_, err := svc.Handle(context.Background(), body)
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, `gpt-"quoted"`, entry["model"])
	assert.Equal(t, "EmptyUpstreamContent", entry["kind"])
}

func TestService_WithoutMetrics(t *testing.T) {
	svc := NewService(config.Defaults{}, &MockChatClient{content: `{"ok":true}`}, nil)

	state, err := svc.Handle(context.Background(), validBody())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(state))
}

func TestService_EndToEndAgainstFakeUpstream(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-live", r.Header.Get("Authorization"))

		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotContains(t, payload, "temperature")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{
					"role":    "assistant",
					"content": "```json\n{\"nature\":{\"trees\":90},\"weather\":{\"rain\":3}}\n```",
				}},
			},
		})
	}))
	defer server.Close()

	svc := newTestService(t, NewChatClient(5*time.Second), config.Defaults{})
	state, err := svc.Handle(context.Background(), models.EvolveBody{
		APIURL:       server.URL + "/",
		APIKey:       "sk-live",
		Model:        "gpt-4o-mini",
		CurrentState: json.RawMessage(`{"nature":{"trees":100}}`),
	})

	require.NoError(t, err)
	assert.Equal(t, `{"nature":{"trees":90},"weather":{"rain":3}}`, string(state))
	assert.Equal(t, int32(1), hits.Load())
}
