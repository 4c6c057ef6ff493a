// Package ui provides styled console output for the HPN Text Optimizer.
// It renders request lines, dispatch outcomes, cache hits, and startup info.
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/hpn/hpn-text-optimizer/internal/dispatch"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)

	// Special colors
	moneyGreen = color.New(color.FgHiGreen, color.Bold)
	neonBlue   = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSOLE OBSERVER
// ══════════════════════════════════════════════════════════════════════════════

// Console writes colored lines for engine events. It implements dispatch.Observer.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

var _ dispatch.Observer = (*Console)(nil)

// NewConsole creates a Console writing to out; nil means color.Output.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = color.Output
	}
	return &Console{out: out, now: time.Now}
}

// OnDispatch prints one optimize outcome.
// Format: 15:04:05 [grok] grok-3-beta  200   812ms  ✓ Grok grok-3-beta: choices[0].message.content
func (c *Console) OnDispatch(e dispatch.DispatchEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mutedText.Fprintf(c.out, "%s ", c.now().Format("15:04:05"))
	accentText.Fprintf(c.out, "[%s]", e.Provider)
	fmt.Fprintf(c.out, " %-24s ", truncate(e.Model, 24))
	if e.Status > 0 {
		printStatusBadge(c.out, e.Status)
	} else {
		errorBadge.Fprint(c.out, " --- ")
	}
	fmt.Fprint(c.out, " ")
	printLatency(c.out, e.Latency)
	fmt.Fprint(c.out, "  ")

	if e.Result.IsSuccess() {
		successText.Fprint(c.out, "✓ ")
		mutedText.Fprintln(c.out, e.Result.DebugTag)
		return
	}
	errorText.Fprintf(c.out, "✗ %s", e.Result.ErrorKind)
	mutedText.Fprintf(c.out, " (%s)\n", e.Result.DebugTag)
}

// OnCacheHit prints a cache hit and the estimated savings.
// Format: ⚡ CACHE HIT | key:xxxx...xxxx | 0ms | 💸 saved $X.XX, total $X.XX
func (c *Console) OnCacheHit(e dispatch.CacheHitEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	neonBlue.Fprint(c.out, "⚡ CACHE HIT ")
	fmt.Fprint(c.out, "| key:")
	mutedText.Fprint(c.out, maskKeyShort(e.Key))
	fmt.Fprint(c.out, " | ")
	successText.Fprintf(c.out, "%dms", e.Latency.Milliseconds())
	fmt.Fprint(c.out, " | 💸 saved ")
	moneyGreen.Fprint(c.out, dispatch.FormatMoneySaved(e.Savings.MoneySaved))
	fmt.Fprint(c.out, ", total ")
	moneyGreen.Fprintln(c.out, dispatch.FormatMoneySaved(e.Savings.TotalSaved))
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// PrintRequest logs a boundary request with styled output.
func (c *Console) PrintRequest(method, path, action string, status int, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mutedText.Fprintf(c.out, "%s ", c.now().Format("15:04:05"))
	printMethodBadge(c.out, method)
	fmt.Fprintf(c.out, " %-16s ", truncate(path, 16))
	infoText.Fprintf(c.out, "%-18s ", truncate(action, 18))
	printStatusBadge(c.out, status)
	fmt.Fprint(c.out, " ")
	printLatency(c.out, latency)
	fmt.Fprintln(c.out)
}

// printMethodBadge prints the HTTP method with appropriate color.
func printMethodBadge(w io.Writer, method string) {
	switch method {
	case "POST":
		methodPOST.Fprintf(w, " %-4s ", method)
	case "GET":
		methodGET.Fprintf(w, " %-4s ", method)
	default:
		debugBadge.Fprintf(w, " %-4s ", method)
	}
}

// printStatusBadge prints the status code with appropriate color.
func printStatusBadge(w io.Writer, status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Fprintf(w, " %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Fprintf(w, " %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Fprintf(w, " %d ", status)
	default:
		errorBadge.Fprintf(w, " %d ", status)
	}
}

// printLatency prints latency with color gradient.
// Green: < 1s, Yellow: < 5s, Red: >= 5s
func printLatency(w io.Writer, latency time.Duration) {
	ms := latency.Milliseconds()
	latencyStr := fmt.Sprintf("%5dms", ms)

	switch {
	case ms < 1000:
		successText.Fprint(w, latencyStr)
	case ms < 5000:
		warningText.Fprint(w, latencyStr)
	default:
		errorText.Fprint(w, latencyStr)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UTILITY FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// maskKeyShort returns a short masked version of a key.
// Format: xxxx...xxxx
func maskKeyShort(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// truncate cuts s to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// StartupInfo is what the server prints once it is listening.
type StartupInfo struct {
	Addr         string
	Provider     string
	Model        string
	SettingsPath string
}

// PrintStartupInfo prints styled server startup information.
func (c *Console) PrintStartupInfo(info StartupInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	infoBadge.Fprint(c.out, "[OPTIMIZER]")
	fmt.Fprint(c.out, " Server starting on ")
	neonBlue.Fprintf(c.out, "http://%s\n", info.Addr)

	infoBadge.Fprint(c.out, "[OPTIMIZER]")
	fmt.Fprint(c.out, " Provider: ")
	if info.Provider != "" {
		accentText.Fprint(c.out, info.Provider)
	} else {
		errorText.Fprint(c.out, "none")
	}
	fmt.Fprint(c.out, " | Model: ")
	successText.Fprintln(c.out, info.Model)

	infoBadge.Fprint(c.out, "[OPTIMIZER]")
	fmt.Fprint(c.out, " Settings: ")
	mutedText.Fprintln(c.out, info.SettingsPath)

	fmt.Fprintln(c.out)
	c.printEndpoints()
}

// printEndpoints prints the available API endpoints.
func (c *Console) printEndpoints() {
	endpoints := []struct{ method, path, desc string }{
		{"POST", "/v1/messages", "optimizeText, testApiConnection, ping, ..."},
		{"GET", "/v1/providers", "Provider catalog"},
		{"GET", "/health", "Health check and cache stats"},
	}

	mutedText.Fprintln(c.out, "  ┌──────────────────────────────────────────────────────────────────┐")
	for _, ep := range endpoints {
		mutedText.Fprint(c.out, "  │ ")
		printMethodBadge(c.out, ep.method)
		fmt.Fprintf(c.out, " %-14s ", ep.path)
		mutedText.Fprintf(c.out, " %-42s", ep.desc)
		mutedText.Fprintln(c.out, "│")
	}
	mutedText.Fprintln(c.out, "  └──────────────────────────────────────────────────────────────────┘")
	fmt.Fprintln(c.out)
}

// PrintShutdown prints a styled shutdown message.
func (c *Console) PrintShutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	warningBadge.Fprint(c.out, "[SHUTDOWN]")
	warningText.Fprintln(c.out, " Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func (c *Console) PrintGoodbye() {
	c.mu.Lock()
	defer c.mu.Unlock()

	successBadge.Fprint(c.out, " OK ")
	fmt.Fprint(c.out, " ")
	successText.Fprintln(c.out, "Server stopped. Goodbye! 👋")
}
