package dispatch

import (
	"fmt"
	"sync"
	"unicode"
)

// Reference pricing per 1 million tokens (USD), used only to estimate what a
// cache hit saved.
const (
	// InputPricePerMillion is the cost per million input tokens ($0.50)
	InputPricePerMillion = 0.50
	// OutputPricePerMillion is the cost per million output tokens ($1.50)
	OutputPricePerMillion = 1.50
	// TokensPerWord is the approximation ratio (1 word ≈ 1.3 tokens)
	TokensPerWord = 1.3
)

// SavingsTracker accumulates the tokens and money avoided by cache hits.
type SavingsTracker struct {
	mu          sync.Mutex
	totalTokens int
	totalSaved  float64
}

// SavingsMetrics holds the estimate for a single cache hit plus running totals.
type SavingsMetrics struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	MoneySaved   float64 `json:"money_saved"`
	TotalTokens  int     `json:"total_tokens"`
	TotalSaved   float64 `json:"total_saved"`
}

// Record adds the estimate for one avoided call and returns the updated metrics.
func (s *SavingsTracker) Record(inputText, outputText string) SavingsMetrics {
	inputTokens := EstimateTokens(inputText)
	outputTokens := EstimateTokens(outputText)
	saved := CalculateCost(inputTokens, outputTokens)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalTokens += inputTokens + outputTokens
	s.totalSaved += saved

	return SavingsMetrics{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		MoneySaved:   saved,
		TotalTokens:  s.totalTokens,
		TotalSaved:   s.totalSaved,
	}
}

// Totals returns the running totals without recording anything.
func (s *SavingsTracker) Totals() SavingsMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SavingsMetrics{TotalTokens: s.totalTokens, TotalSaved: s.totalSaved}
}

// EstimateTokens estimates the number of tokens in a text string.
// Letters and digits form words; every CJK character counts as its own word,
// since those scripts do not separate words with spaces.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	wordCount := 0
	inWord := false

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r):
			wordCount++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if !inWord {
				wordCount++
				inWord = true
			}
		default:
			inWord = false
		}
	}

	tokens := int(float64(wordCount) * TokensPerWord)
	if tokens == 0 && wordCount > 0 {
		tokens = 1
	}

	return tokens
}

// CalculateCost calculates the equivalent API cost in USD.
func CalculateCost(inputTokens, outputTokens int) float64 {
	inputCost := (float64(inputTokens) / 1_000_000) * InputPricePerMillion
	outputCost := (float64(outputTokens) / 1_000_000) * OutputPricePerMillion
	return inputCost + outputCost
}

// FormatMoneySaved formats the savings as a human-readable string.
func FormatMoneySaved(amount float64) string {
	if amount < 0.0001 {
		return fmt.Sprintf("$%.6f", amount)
	} else if amount < 0.01 {
		return fmt.Sprintf("$%.4f", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}
