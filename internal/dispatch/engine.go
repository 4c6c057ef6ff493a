package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hpn/hpn-text-optimizer/internal/adapter"
	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/hpn/hpn-text-optimizer/internal/security"
	"github.com/tidwall/gjson"
)

const (
	// DefaultRequestTimeout bounds one optimize round trip.
	DefaultRequestTimeout = 15 * time.Second

	// DefaultTestTimeout bounds one test-connection round trip.
	DefaultTestTimeout = 15 * time.Second

	// DefaultMinInputLength is the shortest text, in characters, worth optimizing.
	DefaultMinInputLength = 5

	// DefaultMaxTokens is used when settings carry no maxLength.
	DefaultMaxTokens = 1000

	// DefaultTemperature is used when settings carry no temperature.
	DefaultTemperature = 0.7

	// TestMaxTokens is the generation budget of a connection test.
	TestMaxTokens = 100

	// DefaultMaxResponseBytes caps how much of a provider body is read.
	DefaultMaxResponseBytes = 4 << 20

	// DefaultTestMessage is sent when a connection test has no text.
	DefaultTestMessage = "This is an API connection test. If you can read this, the connection works!"

	testPreviewLength = 100
)

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Engine runs optimize and test-connection calls. It owns its cache and reads
// settings through a SettingsProvider. All fields are fixed after construction,
// so any number of calls may run concurrently.
type Engine struct {
	settings domain.SettingsProvider
	registry *adapter.Registry
	builder  *adapter.RequestBuilder
	cache    *ResponseCache
	client   HTTPClient
	logger   *slog.Logger
	observer Observer
	savings  *SavingsTracker
	now      func() time.Time

	requestTimeout        time.Duration
	testTimeout           time.Duration
	minInputLength        int
	maxResponseBytes      int64
	allowTemplateFallback bool
}

// EngineOption is a functional option for configuring Engine.
type EngineOption func(*Engine)

// WithRegistry replaces the provider catalog.
func WithRegistry(registry *adapter.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = registry
	}
}

// WithRequestBuilder replaces the request builder.
func WithRequestBuilder(builder *adapter.RequestBuilder) EngineOption {
	return func(e *Engine) {
		e.builder = builder
	}
}

// WithCache sets the response cache. The engine closes it on Close.
func WithCache(cache *ResponseCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client HTTPClient) EngineOption {
	return func(e *Engine) {
		e.client = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver receives dispatch and cache-hit events.
func WithObserver(observer Observer) EngineOption {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

// WithRequestTimeout sets the optimize timeout.
func WithRequestTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		if timeout > 0 {
			e.requestTimeout = timeout
		}
	}
}

// WithTestTimeout sets the test-connection timeout.
func WithTestTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		if timeout > 0 {
			e.testTimeout = timeout
		}
	}
}

// WithMinInputLength sets the shortest accepted input, in characters.
func WithMinInputLength(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.minInputLength = n
		}
	}
}

// WithMaxResponseBytes caps how much of a provider body is read.
func WithMaxResponseBytes(n int64) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxResponseBytes = n
		}
	}
}

// WithTemplateFallback makes a malformed custom template fall back to the
// OpenAI-style body instead of failing with InvalidCustomTemplate.
func WithTemplateFallback(allow bool) EngineOption {
	return func(e *Engine) {
		e.allowTemplateFallback = allow
	}
}

// NewEngine creates an Engine reading settings from settings.
func NewEngine(settings domain.SettingsProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		settings:         settings,
		registry:         adapter.DefaultRegistry(),
		builder:          adapter.NewRequestBuilder(),
		client:           &http.Client{},
		logger:           slog.Default(),
		observer:         nopObserver{},
		savings:          &SavingsTracker{},
		now:              time.Now,
		requestTimeout:   DefaultRequestTimeout,
		testTimeout:      DefaultTestTimeout,
		minInputLength:   DefaultMinInputLength,
		maxResponseBytes: DefaultMaxResponseBytes,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		e.cache = NewResponseCache(WithCacheLogger(e.logger))
	}

	return e
}

// call is one resolved unit of work.
type call struct {
	config   domain.ProviderConfig
	request  domain.GenerationRequest
	apiKey   string
	ext      *domain.CustomExtension
	template string
}

// exchange is a completed 2xx round trip with its extracted text.
type exchange struct {
	extraction adapter.Extraction
	status     int
	model      string
}

// Optimize rewrites text with the currently selected provider. It never
// returns a Go error: every failure is a Result of kind error.
func (e *Engine) Optimize(ctx context.Context, text string) domain.Result {
	start := e.now()
	logger := e.logger.With(slog.String("request_id", RequestID(ctx)))

	if utf8.RuneCountInString(strings.TrimSpace(text)) < e.minInputLength {
		err := domain.NewError(domain.KindInputTooShort,
			fmt.Sprintf("text must be at least %d characters long", e.minInputLength))
		return domain.Failure(err.Kind, err.Message, debugTag(err))
	}

	settings, err := e.settings.Get(ctx)
	if err != nil {
		logger.Error("failed to load settings", slog.String("error", err.Error()))
		de := domain.WrapError(domain.KindInvalidSettings, "failed to load settings", err)
		return domain.Failure(de.Kind, de.Message, debugTag(de))
	}

	c, err := e.resolve(settings, settings.Provider(), "", text)
	if err != nil {
		return e.failure(logger, err)
	}

	cacheKey := CacheKey(c.request.Prompt, c.request.ModelVariant, c.request.Temperature, c.template)
	if cached, ok := e.cache.Get(cacheKey); ok && cached.IsSuccess() {
		latency := e.now().Sub(start)
		metrics := e.savings.Record(c.request.Prompt, cached.Text)
		logger.Info("cache hit",
			slog.String("cache_key", cacheKey[:12]+"..."),
			slog.String("provider", string(c.config.ID)),
			slog.Duration("latency", latency),
		)
		e.observer.OnCacheHit(CacheHitEvent{Key: cacheKey, Latency: latency, Savings: metrics})
		return cached
	}

	ex, err := e.roundTrip(ctx, logger, c, e.requestTimeout)
	latency := e.now().Sub(start)

	var result domain.Result
	status := ex.status
	if err != nil {
		result = e.failure(logger, err)
		var de *domain.Error
		if errors.As(err, &de) {
			status = de.Status
			if shouldCache(de.Kind) {
				e.cache.Set(cacheKey, result)
			}
		}
	} else {
		result = domain.Success(ex.extraction.Text,
			fmt.Sprintf("%s %s: %s", c.config.DisplayName, ex.model, ex.extraction.Path))
		e.cache.Set(cacheKey, result)
		logger.Info("optimize completed",
			slog.String("provider", string(c.config.ID)),
			slog.String("model", ex.model),
			slog.Int("status", ex.status),
			slog.Duration("latency", latency),
			slog.String("path", ex.extraction.Path),
		)
	}

	e.observer.OnDispatch(DispatchEvent{
		Provider: c.config.ID,
		Model:    c.request.ModelVariant,
		Status:   status,
		Latency:  latency,
		Result:   result,
	})
	return result
}

// TestConnection sends one short request to a provider, bypassing the cache.
// An empty providerID uses the selected provider; an empty testText sends a
// default message.
func (e *Engine) TestConnection(ctx context.Context, providerID domain.ProviderID, modelVariant, testText string) domain.ConnectionResult {
	logger := e.logger.With(slog.String("request_id", RequestID(ctx)))

	settings, err := e.settings.Get(ctx)
	if err != nil {
		logger.Error("failed to load settings", slog.String("error", err.Error()))
		return domain.ConnectionResult{Success: false, Error: "failed to load settings: " + err.Error()}
	}

	if providerID == "" {
		providerID = settings.Provider()
	}
	if strings.TrimSpace(testText) == "" {
		testText = DefaultTestMessage
	}

	c, err := e.resolve(settings, providerID, modelVariant, testText)
	if err != nil {
		return domain.ConnectionResult{Success: false, Error: errorMessage(err)}
	}
	c.request.Prompt = testText
	c.request.MaxTokens = TestMaxTokens
	c.request.Temperature = DefaultTemperature

	logger.Info("testing provider connection",
		slog.String("provider", string(providerID)),
		slog.String("model", c.request.ModelVariant),
	)

	ex, err := e.roundTrip(ctx, logger, c, e.testTimeout)
	if err == nil {
		return domain.ConnectionResult{Success: true, Message: preview(ex.extraction.Text, testPreviewLength)}
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return domain.ConnectionResult{Success: false, Error: err.Error()}
	}

	switch {
	case de.Kind == domain.KindExtractionFailed:
		// The provider answered 2xx with a body we cannot read text from;
		// the connection itself works.
		doc := gjson.ParseBytes(de.Body)
		model := doc.Get("model").String()
		if model == "" {
			model = c.request.ModelVariant
		}
		id := doc.Get("id").String()
		if id == "" {
			id = "unknown"
		}
		return domain.ConnectionResult{
			Success: true,
			Message: fmt.Sprintf("API connection succeeded, model: %s, id: %s", model, id),
		}
	case de.Kind.IsProviderFailure():
		detail, ok := adapter.ProviderErrorMessage(de.Body)
		if !ok {
			detail = preview(string(de.Body), 500)
		}
		return domain.ConnectionResult{Success: false, Error: fmt.Sprintf("HTTP error %d: %s", de.Status, detail)}
	default:
		return domain.ConnectionResult{Success: false, Error: de.Message}
	}
}

// SettingsUpdated drops every cached result.
func (e *Engine) SettingsUpdated() {
	n := e.cache.Clear()
	e.logger.Info("settings updated, cache cleared", slog.Int("cleared_entries", n))
}

// SwitchProvider selects a provider and its default model, then clears the cache.
func (e *Engine) SwitchProvider(ctx context.Context, id domain.ProviderID) error {
	cfg, err := e.registry.Get(id)
	if err != nil {
		return err
	}
	model := cfg.DefaultModel
	if err := e.settings.Set(ctx, domain.SettingsPatch{CurrentModel: &id, ModelVariant: &model}); err != nil {
		return fmt.Errorf("failed to save provider selection: %w", err)
	}
	n := e.cache.Clear()
	e.logger.Info("provider switched",
		slog.String("provider", string(id)),
		slog.String("model", model),
		slog.Int("cleared_entries", n),
	)
	return nil
}

// Providers returns the provider catalog.
func (e *Engine) Providers() []domain.ProviderConfig {
	return e.registry.List()
}

// CacheStats returns the cache counters.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

// Savings returns the running cache-hit savings estimate.
func (e *Engine) Savings() SavingsMetrics {
	return e.savings.Totals()
}

// Close stops the cache sweep.
func (e *Engine) Close() {
	e.cache.Close()
}

// resolve turns settings plus input into a call. modelVariant overrides the
// configured variant when non-empty.
func (e *Engine) resolve(settings domain.Settings, id domain.ProviderID, modelVariant, text string) (call, error) {
	cfg, err := e.registry.Get(id)
	if err != nil {
		return call{}, err
	}
	override := settings.APIConfigFor(id)
	cfg = cfg.WithOverrides(override.URL, override.Model)

	model := modelVariant
	if model == "" && id == settings.Provider() {
		model = settings.ModelVariant
	}
	if model == "" {
		model = cfg.DefaultModel
	}

	temperature := DefaultTemperature
	if settings.Settings.Temperature != nil {
		temperature = *settings.Settings.Temperature
	}
	maxTokens := settings.Settings.MaxLength
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	var ext *domain.CustomExtension
	if id == domain.ProviderCustom {
		custom := settings.CustomConfig
		ext = &custom
	}

	return call{
		config: cfg,
		request: domain.GenerationRequest{
			ProviderID:   id,
			ModelVariant: model,
			Prompt:       BuildPrompt(settings.Settings.PromptTemplate, text),
			MaxTokens:    maxTokens,
			Temperature:  temperature,
		},
		apiKey:   settings.APIKey(id),
		ext:      ext,
		template: settings.Settings.PromptTemplate,
	}, nil
}

// build applies the template fallback policy on top of the request builder.
func (e *Engine) build(logger *slog.Logger, c call) (*adapter.HTTPRequest, error) {
	req, err := e.builder.Build(c.config, c.request, c.apiKey, c.ext)
	if err == nil || !e.allowTemplateFallback || !domain.IsKind(err, domain.KindInvalidCustomTemplate) {
		return req, err
	}

	logger.Warn("custom request format rejected, using default body",
		slog.String("error", err.Error()),
	)
	ext := *c.ext
	ext.RequestFormatTemplate = ""
	return e.builder.Build(c.config, c.request, c.apiKey, &ext)
}

// roundTrip builds, sends and extracts one request under timeout.
func (e *Engine) roundTrip(ctx context.Context, logger *slog.Logger, c call, timeout time.Duration) (exchange, error) {
	built, err := e.build(logger, c)
	if err != nil {
		return exchange{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := built.NewRequest(ctx)
	if err != nil {
		return exchange{}, domain.WrapError(domain.KindInvalidSettings,
			fmt.Sprintf("invalid endpoint URL for %s", c.config.ID), err)
	}

	logger.Debug("sending provider request",
		slog.String("provider", string(c.config.ID)),
		slog.String("model", built.Model),
		slog.String("url", built.URL),
		slog.Any("headers", security.RedactHeaders(built.Header)),
		slog.Int("body_bytes", len(built.Body)),
	)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		de := classifyTransport(err, timeout)
		logger.Warn("provider request failed",
			slog.String("provider", string(c.config.ID)),
			slog.String("kind", string(de.Kind)),
			slog.String("error", err.Error()),
		)
		return exchange{}, de
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxResponseBytes+1))
	if err != nil {
		de := classifyTransport(err, timeout)
		de.Status = resp.StatusCode
		return exchange{}, de
	}
	tooLarge := int64(len(body)) > e.maxResponseBytes
	if tooLarge {
		body = body[:e.maxResponseBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		de := classifyStatus(c.config.ID, resp.StatusCode, body)
		logger.Warn("provider returned error status",
			slog.String("provider", string(c.config.ID)),
			slog.Int("status", resp.StatusCode),
			slog.String("kind", string(de.Kind)),
		)
		return exchange{}, de
	}

	if tooLarge {
		return exchange{}, &domain.Error{
			Kind:    domain.KindParseError,
			Message: fmt.Sprintf("%s response too large: exceeds %d bytes", c.config.ID, e.maxResponseBytes),
			Status:  resp.StatusCode,
			Err:     errResponseTooLarge,
		}
	}

	if !json.Valid(body) {
		return exchange{}, &domain.Error{
			Kind:    domain.KindParseError,
			Message: fmt.Sprintf("%s returned a response that is not valid JSON", c.config.ID),
			Status:  resp.StatusCode,
			Body:    body,
		}
	}

	extraction, err := adapter.Extract(c.config.ID, c.ext, body)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			de.Status = resp.StatusCode
		}
		logger.Warn("no text extracted from provider response",
			slog.String("provider", string(c.config.ID)),
			slog.String("error", err.Error()),
		)
		return exchange{}, err
	}

	return exchange{extraction: extraction, status: resp.StatusCode, model: built.Model}, nil
}

// failure converts err into an error Result and logs it.
func (e *Engine) failure(logger *slog.Logger, err error) domain.Result {
	kind := domain.KindOf(err)
	logger.Warn("optimize failed",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	return domain.Failure(kind, errorMessage(err), debugTag(err))
}

// errorMessage returns the user-facing message of err.
func errorMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// preview cuts s to n characters, marking the cut with "...".
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
