package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/hpn/hpn-text-optimizer/internal/dispatch"
	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/stretchr/testify/assert"
)

func newTestConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.now = func() time.Time { return time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC) }
	return c, &buf
}

func TestConsoleOnDispatch(t *testing.T) {
	c, buf := newTestConsole(t)

	c.OnDispatch(dispatch.DispatchEvent{
		Provider: domain.ProviderGrok,
		Model:    "grok-3-beta",
		Status:   200,
		Latency:  812 * time.Millisecond,
		Result:   domain.Success("ok", "Grok grok-3-beta: choices[0].message.content"),
	})
	out := buf.String()
	assert.Contains(t, out, "09:30:00")
	assert.Contains(t, out, "[grok]")
	assert.Contains(t, out, " 200 ")
	assert.Contains(t, out, "812ms")
	assert.Contains(t, out, "✓ Grok grok-3-beta: choices[0].message.content")

	buf.Reset()
	c.OnDispatch(dispatch.DispatchEvent{
		Provider: domain.ProviderGemini,
		Model:    "gemini-1.5-pro",
		Latency:  15 * time.Second,
		Result:   domain.Failure(domain.KindRequestTimeout, "timed out", "timeout"),
	})
	out = buf.String()
	assert.Contains(t, out, " --- ")
	assert.Contains(t, out, "✗ RequestTimeout (timeout)")
}

func TestConsoleOnCacheHit(t *testing.T) {
	c, buf := newTestConsole(t)

	c.OnCacheHit(dispatch.CacheHitEvent{
		Key:     "0123456789abcdef",
		Latency: time.Millisecond,
		Savings: dispatch.SavingsMetrics{MoneySaved: 0.005, TotalSaved: 1.5},
	})
	out := buf.String()
	assert.Contains(t, out, "CACHE HIT")
	assert.Contains(t, out, "key:0123...cdef")
	assert.Contains(t, out, "saved $0.0050, total $1.50")
}

func TestConsolePrintRequest(t *testing.T) {
	c, buf := newTestConsole(t)

	c.PrintRequest("POST", "/v1/messages", "optimizeText", 200, 40*time.Millisecond)
	out := buf.String()
	assert.Contains(t, out, "POST")
	assert.Contains(t, out, "/v1/messages")
	assert.Contains(t, out, "optimizeText")
	assert.Contains(t, out, "40ms")
}

func TestConsoleStartupInfo(t *testing.T) {
	c, buf := newTestConsole(t)

	c.PrintStartupInfo(StartupInfo{Addr: "127.0.0.1:8787", Provider: "grok", Model: "grok-3-beta", SettingsPath: "settings.json"})
	out := buf.String()
	assert.Contains(t, out, "http://127.0.0.1:8787")
	assert.Contains(t, out, "Provider: grok | Model: grok-3-beta")
	assert.Contains(t, out, "/v1/messages")
	assert.Contains(t, out, "/health")
}

func TestFprintBanner(t *testing.T) {
	_, buf := newTestConsole(t)
	FprintBanner(buf)
	assert.Contains(t, buf.String(), "TEXT OPTIMIZER")
	assert.Contains(t, buf.String(), Version)
}

func TestFprintMiniBanner(t *testing.T) {
	_, buf := newTestConsole(t)
	FprintMiniBanner(buf)
	assert.Contains(t, buf.String(), "HPN TEXT OPTIMIZER")
	assert.Contains(t, buf.String(), Version)
}

func TestMaskKeyShort(t *testing.T) {
	assert.Equal(t, "", maskKeyShort(""))
	assert.Equal(t, "***", maskKeyShort("short"))
	assert.Equal(t, "abcd...wxyz", maskKeyShort("abcdefghuvwxyz"))
}
