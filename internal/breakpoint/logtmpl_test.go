package breakpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLogVariables(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []string
	}{
		{"no variables", "plain message", nil},
		{"single", "value is {x}", []string{"x"}},
		{"multiple in order", "{a} then {b} then {c}", []string{"a", "b", "c"}},
		{"expression text kept raw", "{items[0].name}", []string{"items[0].name"}},
		{"empty span", "{}", []string{""}},
		{"unterminated span ignored", "start {x", nil},
		{"unterminated after valid", "{a} and {b", []string{"a"}},
		{"no nesting: inner brace kept", "{a{b}", []string{"a{b"}},
		{"adjacent spans", "{a}{b}", []string{"a", "b"}},
		{"regex-unsafe text verbatim", "{x.*[} rest", []string{"x.*["}},
		{"empty template", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLogVariables(tt.template))
		})
	}
}

func TestRenderLogPreview(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no variables", "plain message", "plain message"},
		{"single", "value is {x}", "value is <x>"},
		{"multiple", "{a}+{b}={sum}", "<a>+<b>=<sum>"},
		{"unterminated kept verbatim", "tail {x", "tail {x"},
		{"mixed", "ok {a} then {b", "ok <a> then {b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderLogPreview(tt.template))
		})
	}
}
