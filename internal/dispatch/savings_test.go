package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single word", text: "hello", want: 1},
		{name: "ten words", text: "one two three four five six seven eight nine ten", want: 13},
		{name: "punctuation splits words", text: "hello,world", want: 2},
		{name: "cjk counts per character", text: "你好世界", want: 5},
		{name: "mixed", text: "Go 语言", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestCalculateCost(t *testing.T) {
	assert.InDelta(t, 0.5, CalculateCost(1_000_000, 0), 1e-9)
	assert.InDelta(t, 1.5, CalculateCost(0, 1_000_000), 1e-9)
	assert.InDelta(t, 2.0, CalculateCost(1_000_000, 1_000_000), 1e-9)
}

func TestFormatMoneySaved(t *testing.T) {
	assert.Equal(t, "$0.000050", FormatMoneySaved(0.00005))
	assert.Equal(t, "$0.0050", FormatMoneySaved(0.005))
	assert.Equal(t, "$1.25", FormatMoneySaved(1.25))
}

func TestSavingsTrackerRecord(t *testing.T) {
	var tracker SavingsTracker

	first := tracker.Record("hello world", "hi")
	assert.Equal(t, 2, first.InputTokens)
	assert.Equal(t, 1, first.OutputTokens)
	assert.Equal(t, 3, first.TotalTokens)

	second := tracker.Record("hello world", "hi")
	assert.Equal(t, 6, second.TotalTokens)
	assert.InDelta(t, first.MoneySaved*2, second.TotalSaved, 1e-12)

	totals := tracker.Totals()
	assert.Equal(t, 6, totals.TotalTokens)
	assert.Zero(t, totals.InputTokens)
}
