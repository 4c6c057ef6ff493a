package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hpn/hpn-text-optimizer/internal/dispatch"
	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeEngine records calls and returns canned values.
type fakeEngine struct {
	mu sync.Mutex

	result     domain.Result
	connection domain.ConnectionResult
	switchErr  error

	optimizedText  string
	testedProvider domain.ProviderID
	testedModel    string
	testedText     string
	switchedTo     domain.ProviderID
	cleared        int
	requestID      string
}

func (f *fakeEngine) Optimize(ctx context.Context, text string) domain.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optimizedText = text
	f.requestID = dispatch.RequestID(ctx)
	return f.result
}

func (f *fakeEngine) TestConnection(_ context.Context, id domain.ProviderID, model, text string) domain.ConnectionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.testedProvider, f.testedModel, f.testedText = id, model, text
	return f.connection
}

func (f *fakeEngine) SettingsUpdated() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeEngine) SwitchProvider(_ context.Context, id domain.ProviderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switchedTo = id
	return f.switchErr
}

func (f *fakeEngine) Providers() []domain.ProviderConfig {
	return []domain.ProviderConfig{
		{ID: domain.ProviderGrok, DisplayName: "Grok", DefaultModel: "grok-3-beta", SupportedModels: []string{"grok-3-beta"}, AuthMode: domain.AuthBearerHeader},
		{ID: domain.ProviderGemini, DisplayName: "Gemini", DefaultModel: "gemini-1.5-pro", AuthMode: domain.AuthURLQueryParam},
	}
}

func (f *fakeEngine) CacheStats() dispatch.CacheStats {
	return dispatch.CacheStats{Hits: 3, Misses: 1, Size: 2}
}

func (f *fakeEngine) Savings() dispatch.SavingsMetrics {
	return dispatch.SavingsMetrics{TotalTokens: 42, TotalSaved: 0.01}
}

// recordingPrinter captures console request lines.
type recordingPrinter struct {
	mu      sync.Mutex
	actions []string
}

func (p *recordingPrinter) PrintRequest(_, _, action string, _ int, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
}

func newTestRouter(engine Engine, printer RequestPrinter) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(RecoveryMiddleware(logger))
	r.Use(RequestIDMiddleware())
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware(logger, printer))
	NewMessageHandler(engine, WithLogger(logger)).RegisterRoutes(r)
	return r
}

func postMessage(t *testing.T, r http.Handler, msg any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), "body: %s", w.Body.String())
	return w, payload
}

func TestHandleMessageOptimizeText(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &fakeEngine{result: domain.Success("Better text.", "Grok grok-3-beta: choices[0].message.content")}
		printer := &recordingPrinter{}
		w, payload := postMessage(t, newTestRouter(engine, printer), Message{Action: ActionOptimizeText, Text: "some text"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Better text.", payload["optimizedText"])
		assert.Equal(t, "Grok grok-3-beta: choices[0].message.content", payload["debug"])
		assert.NotContains(t, payload, "error")
		assert.Equal(t, "some text", engine.optimizedText)
		assert.Equal(t, []string{ActionOptimizeText}, printer.actions)

		_, err := uuid.Parse(engine.requestID)
		assert.NoError(t, err, "engine sees the request id")
		assert.Equal(t, engine.requestID, w.Header().Get(RequestIDHeader))
	})

	t.Run("failure", func(t *testing.T) {
		engine := &fakeEngine{result: domain.Failure(domain.KindAuthError, "authentication failed (HTTP 401): check that the grok API key is valid", "HTTP 401")}
		w, payload := postMessage(t, newTestRouter(engine, nil), Message{Action: ActionOptimizeText, Text: "some text"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, payload["error"])
		assert.Contains(t, payload["message"], "API key")
		assert.Equal(t, "HTTP 401", payload["debug"])
		assert.NotContains(t, payload, "optimizedText")
	})
}

func TestHandleMessageTestConnection(t *testing.T) {
	engine := &fakeEngine{connection: domain.ConnectionResult{Success: true, Message: "hello"}}
	_, payload := postMessage(t, newTestRouter(engine, nil), Message{
		Action:    ActionTestAPIConnection,
		Model:     " Claude ",
		ModelName: "claude-3-5-haiku-20241022",
		Text:      "ping text",
	})

	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "hello", payload["message"])
	assert.Equal(t, domain.ProviderClaude, engine.testedProvider)
	assert.Equal(t, "claude-3-5-haiku-20241022", engine.testedModel)
	assert.Equal(t, "ping text", engine.testedText)

	engine.connection = domain.ConnectionResult{Success: false, Error: "HTTP error 401: Invalid key"}
	_, payload = postMessage(t, newTestRouter(engine, nil), Message{Action: ActionTestAPIConnection})
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "HTTP error 401: Invalid key", payload["error"])
}

func TestHandleMessageLifecycleActions(t *testing.T) {
	engine := &fakeEngine{}
	r := newTestRouter(engine, nil)

	_, payload := postMessage(t, r, Message{Action: ActionPing})
	assert.Equal(t, map[string]any{"status": "ok"}, payload)

	_, payload = postMessage(t, r, Message{Action: ActionSettingsUpdated})
	assert.Equal(t, map[string]any{"success": true}, payload)
	assert.Equal(t, 1, engine.cleared)

	_, payload = postMessage(t, r, Message{Action: ActionSwitchModel, Model: "GEMINI"})
	assert.Equal(t, map[string]any{"success": true}, payload)
	assert.Equal(t, domain.ProviderGemini, engine.switchedTo)

	engine.switchErr = errors.New("unknown provider")
	_, payload = postMessage(t, r, Message{Action: ActionSwitchModel, Model: "mistral"})
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "unknown provider", payload["error"])
}

func TestHandleMessageListModels(t *testing.T) {
	r := newTestRouter(&fakeEngine{}, nil)

	_, payload := postMessage(t, r, Message{Action: ActionListModels})
	providers := payload["providers"].([]any)
	require.Len(t, providers, 2)
	first := providers[0].(map[string]any)
	assert.Equal(t, "grok", first["id"])
	assert.Equal(t, "grok-3-beta", first["defaultModel"])
	assert.Equal(t, "bearer-header", first["authMode"])

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"gemini"`)
}

func TestHandleMessageBadInput(t *testing.T) {
	r := newTestRouter(&fakeEngine{}, nil)

	w, payload := postMessage(t, r, Message{Action: "launchRockets"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, true, payload["error"])
	assert.Equal(t, "unknown action: launchRockets", payload["message"])

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":true`)
}

func TestHandleHealth(t *testing.T) {
	r := newTestRouter(&fakeEngine{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var payload struct {
		Status  string                  `json:"status"`
		Cache   dispatch.CacheStats     `json:"cache"`
		Savings dispatch.SavingsMetrics `json:"savings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "healthy", payload.Status)
	assert.Equal(t, dispatch.CacheStats{Hits: 3, Misses: 1, Size: 2}, payload.Cache)
	assert.Equal(t, 42, payload.Savings.TotalTokens)
}

func TestDispatchWithoutHTTP(t *testing.T) {
	h := NewMessageHandler(&fakeEngine{result: domain.Success("ok text", "tag")})

	status, payload := h.Dispatch(context.Background(), Message{Action: ActionOptimizeText, Text: "hello world"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, OptimizeResponse{OptimizedText: "ok text", Debug: "tag"}, payload)

	status, payload = h.Dispatch(context.Background(), Message{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.IsType(t, ErrorResponse{}, payload)
}
