package util

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		expected string
	}{
		{"short string unchanged", "loss", 10, "loss"},
		{"exact width unchanged", "loss", 4, "loss"},
		{"long string truncated", "throughput", 6, "throu…"},
		{"zero disables truncation", "throughput", 0, "throughput"},
		{"wide characters count double", "温度温度", 5, "温度…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxWidth); got != tt.expected {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.expected)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"a", 3, "a  "},
		{"abc", 3, "abc"},
		{"abcd", 3, "abcd"},
		{"温", 3, "温 "},
	}

	for _, tt := range tests {
		if got := PadRight(tt.input, tt.width); got != tt.expected {
			t.Errorf("PadRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
		}
	}
}

func TestTruncateANSI(t *testing.T) {
	bold := lipgloss.NewStyle().Bold(true)

	tests := []struct {
		name     string
		input    string
		maxWidth int
		check    func(t *testing.T, result string)
	}{
		{
			name:     "short plain string unchanged",
			input:    "cpu ▁▂▃",
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if result != "cpu ▁▂▃" {
					t.Errorf("expected unchanged, got %q", result)
				}
			},
		},
		{
			name:     "plain string truncated",
			input:    "memory ▁▂▃▄▅▆",
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				if w := lipgloss.Width(result); w > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", w)
				}
				if !strings.HasSuffix(result, Ellipsis) {
					t.Errorf("expected ellipsis suffix, got %q", result)
				}
			},
		},
		{
			name:     "styled string keeps escapes",
			input:    bold.Render("memory") + " ▁▂▃▄▅▆",
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				if w := Width(result); w > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", w)
				}
			},
		},
		{
			name:     "non-positive width disables truncation",
			input:    "memory",
			maxWidth: 0,
			check: func(t *testing.T, result string) {
				if result != "memory" {
					t.Errorf("expected unchanged, got %q", result)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, TruncateANSI(tt.input, tt.maxWidth))
		})
	}
}
