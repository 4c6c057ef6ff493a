// Package handler exposes the dispatch engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-text-optimizer/internal/dispatch"
	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

// Message actions accepted on the boundary.
const (
	ActionOptimizeText      = "optimizeText"
	ActionTestAPIConnection = "testApiConnection"
	ActionPing              = "ping"
	ActionSettingsUpdated   = "settingsUpdated"
	ActionSwitchModel       = "switchModel"
	ActionListModels        = "listModels"
)

// Message is one request on the message-passing boundary.
type Message struct {
	Action string `json:"action"`

	// Text is the input for optimizeText and testApiConnection.
	Text string `json:"text,omitempty"`

	// Model is a provider id for testApiConnection and switchModel.
	Model string `json:"model,omitempty"`

	// ModelName is the model variant for testApiConnection.
	ModelName string `json:"modelName,omitempty"`
}

// OptimizeResponse is the success payload of optimizeText.
type OptimizeResponse struct {
	OptimizedText string `json:"optimizedText"`
	Debug         string `json:"debug"`
}

// ErrorResponse is the failure payload of optimizeText and of malformed messages.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Debug   string `json:"debug"`
}

// StatusResponse answers ping.
type StatusResponse struct {
	Status string `json:"status"`
}

// SuccessResponse answers settingsUpdated and switchModel.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ProviderInfo is one catalog entry returned by listModels.
type ProviderInfo struct {
	ID              domain.ProviderID `json:"id"`
	DisplayName     string            `json:"displayName"`
	DefaultModel    string            `json:"defaultModel"`
	SupportedModels []string          `json:"supportedModels"`
	AuthMode        domain.AuthMode   `json:"authMode"`
}

// ProvidersResponse answers listModels and GET /v1/providers.
type ProvidersResponse struct {
	Providers []ProviderInfo `json:"providers"`
}

// Engine is the part of dispatch.Engine the boundary needs.
type Engine interface {
	Optimize(ctx context.Context, text string) domain.Result
	TestConnection(ctx context.Context, providerID domain.ProviderID, modelVariant, testText string) domain.ConnectionResult
	SettingsUpdated()
	SwitchProvider(ctx context.Context, id domain.ProviderID) error
	Providers() []domain.ProviderConfig
	CacheStats() dispatch.CacheStats
	Savings() dispatch.SavingsMetrics
}

// MessageHandler serves the message boundary.
type MessageHandler struct {
	engine  Engine
	logger  *slog.Logger
	started time.Time
}

// MessageHandlerOption is a functional option for configuring MessageHandler.
type MessageHandlerOption func(*MessageHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) MessageHandlerOption {
	return func(h *MessageHandler) {
		h.logger = logger
	}
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(engine Engine, opts ...MessageHandlerOption) *MessageHandler {
	h := &MessageHandler{
		engine:  engine,
		logger:  slog.Default(),
		started: time.Now(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// RegisterRoutes mounts the boundary endpoints on r.
func (h *MessageHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/v1/messages", h.HandleMessage)
	r.GET("/v1/providers", h.HandleProviders)
	r.GET("/health", h.HandleHealth)
}

// HandleMessage handles POST /v1/messages.
func (h *MessageHandler) HandleMessage(c *gin.Context) {
	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   true,
			Message: "invalid message body: " + err.Error(),
			Debug:   "bad request",
		})
		return
	}

	c.Set(actionKey, msg.Action)
	status, payload := h.Dispatch(c.Request.Context(), msg)
	c.JSON(status, payload)
}

// Dispatch answers one message. Every action yields exactly one payload;
// an unknown action yields a 400 error payload.
func (h *MessageHandler) Dispatch(ctx context.Context, msg Message) (int, any) {
	switch msg.Action {
	case ActionOptimizeText:
		result := h.engine.Optimize(ctx, msg.Text)
		if result.IsSuccess() {
			return http.StatusOK, OptimizeResponse{OptimizedText: result.Text, Debug: result.DebugTag}
		}
		return http.StatusOK, ErrorResponse{Error: true, Message: result.Message, Debug: result.DebugTag}

	case ActionTestAPIConnection:
		id := domain.ProviderID(strings.ToLower(strings.TrimSpace(msg.Model)))
		return http.StatusOK, h.engine.TestConnection(ctx, id, strings.TrimSpace(msg.ModelName), msg.Text)

	case ActionPing:
		return http.StatusOK, StatusResponse{Status: "ok"}

	case ActionSettingsUpdated:
		h.engine.SettingsUpdated()
		return http.StatusOK, SuccessResponse{Success: true}

	case ActionSwitchModel:
		id := domain.ProviderID(strings.ToLower(strings.TrimSpace(msg.Model)))
		if err := h.engine.SwitchProvider(ctx, id); err != nil {
			h.logger.Warn("switch model failed",
				slog.String("model", msg.Model),
				slog.String("error", err.Error()),
			)
			return http.StatusOK, SuccessResponse{Success: false, Error: err.Error()}
		}
		return http.StatusOK, SuccessResponse{Success: true}

	case ActionListModels:
		return http.StatusOK, h.providers()

	default:
		return http.StatusBadRequest, ErrorResponse{
			Error:   true,
			Message: "unknown action: " + msg.Action,
			Debug:   "unknown action",
		}
	}
}

// HandleProviders handles GET /v1/providers.
func (h *MessageHandler) HandleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, h.providers())
}

// HandleHealth handles GET /health
// Returns server health status with cache counters and savings.
func (h *MessageHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"cache":          h.engine.CacheStats(),
		"savings":        h.engine.Savings(),
	})
}

func (h *MessageHandler) providers() ProvidersResponse {
	configs := h.engine.Providers()
	out := ProvidersResponse{Providers: make([]ProviderInfo, 0, len(configs))}
	for _, cfg := range configs {
		out.Providers = append(out.Providers, ProviderInfo{
			ID:              cfg.ID,
			DisplayName:     cfg.DisplayName,
			DefaultModel:    cfg.DefaultModel,
			SupportedModels: cfg.SupportedModels,
			AuthMode:        cfg.AuthMode,
		})
	}
	return out
}
