package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTheme(t *testing.T) {
	tests := []struct {
		in       string
		primary  string
		lighter  string
		darker   string
		fallback bool
	}{
		{"#ff0000", "#ff0000", "#ff3333", "#cc0000", false},
		{"#fff", "#ffffff", "#ffffff", "#cccccc", false},
		{"#000", "#000000", "#333333", "#000000", false},
		{"#ABCDEF", "#abcdef", "#bcd7f2", "#89a4bf", false},
		{"red", "#9b87f5", "#af9ff7", "#7c6cc4", true},
		{"#12345", "#9b87f5", "#af9ff7", "#7c6cc4", true},
		{"#12345g", "#9b87f5", "#af9ff7", "#7c6cc4", true},
		{"", "#9b87f5", "#af9ff7", "#7c6cc4", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			th := ResolveTheme(tt.in)
			assert.Equal(t, tt.primary, th.Primary)
			assert.Equal(t, tt.lighter, th.Lighter)
			assert.Equal(t, tt.darker, th.Darker)
			assert.Equal(t, tt.fallback, th.Fallback)
		})
	}
}

func TestResolveTheme_Classes(t *testing.T) {
	th := ResolveTheme("#ff0000")
	assert.Equal(t, ThemeClasses{
		Background:      "bg-[#ff0000]",
		Text:            "text-[#ff0000]",
		Border:          "border-[#ff0000]",
		HoverBackground: "hover:bg-[#cc0000]",
	}, th.Classes)
}
