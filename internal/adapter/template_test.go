package adapter

import (
	"encoding/json"
	"testing"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate_Substitution(t *testing.T) {
	tmpl := `{"msg":"__PROMPT__","model":"__MODEL__","temp":__TEMPERATURE__,"n":__MAX_TOKENS__}`

	body, err := RenderTemplate(tmpl, "hello", "x", 0.5, 10)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, map[string]any{
		"msg":   "hello",
		"model": "x",
		"temp":  0.5,
		"n":     float64(10),
	}, got)
}

func TestRenderTemplate_Cases(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		prompt string
		want   map[string]any
	}{
		{
			name:   "quoted numeric placeholders become numbers",
			tmpl:   `{"t":"__TEMPERATURE__","n":"__MAX_TOKENS__"}`,
			prompt: "hello",
			want:   map[string]any{"t": 0.5, "n": float64(10)},
		},
		{
			name:   "prompt embedded in a larger string",
			tmpl:   `{"q":"Rewrite: __PROMPT__ (model __MODEL__)"}`,
			prompt: "hello",
			want:   map[string]any{"q": "Rewrite: hello (model x)"},
		},
		{
			name:   "prompt needing escapes",
			tmpl:   `{"q":"__PROMPT__"}`,
			prompt: "say \"hi\"\nthen \\ leave",
			want:   map[string]any{"q": "say \"hi\"\nthen \\ leave"},
		},
		{
			name:   "placeholder text inside prompt is not expanded",
			tmpl:   `{"q":"__PROMPT__","m":"__MODEL__"}`,
			prompt: "literal __MODEL__ and __MAX_TOKENS__",
			want:   map[string]any{"q": "literal __MODEL__ and __MAX_TOKENS__", "m": "x"},
		},
		{
			name:   "nested structure",
			tmpl:   `{"input":[{"role":"user","text":"__PROMPT__"}],"params":{"temperature":__TEMPERATURE__}}`,
			prompt: "hello",
			want: map[string]any{
				"input":  []any{map[string]any{"role": "user", "text": "hello"}},
				"params": map[string]any{"temperature": 0.5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := RenderTemplate(tt.tmpl, tt.prompt, "x", 0.5, 10)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTemplate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
	}{
		{"not json", `msg=__PROMPT__`},
		{"truncated", `{"msg":"__PROMPT__"`},
		{"bare string placeholder", `{"msg":__PROMPT__}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderTemplate(tt.tmpl, "hello", "x", 0.5, 10)
			if !domain.IsKind(err, domain.KindInvalidCustomTemplate) {
				t.Errorf("RenderTemplate() error = %v, want InvalidCustomTemplate", err)
			}
		})
	}
}
