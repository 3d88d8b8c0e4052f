package site

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPrimaryColor = "#9b87f5"
	shadeAmount         = 0.2
)

type ThemeClasses struct {
	Background      string `json:"background"`
	Text            string `json:"text"`
	Border          string `json:"border"`
	HoverBackground string `json:"hover_background"`
}

// Theme is the color set an operator site is rendered with.
type Theme struct {
	Primary  string       `json:"primary"`
	Lighter  string       `json:"lighter"`
	Darker   string       `json:"darker"`
	Classes  ThemeClasses `json:"classes"`
	Fallback bool         `json:"fallback,omitempty"`
}

// ResolveTheme derives shades and utility classes from a #rgb or #rrggbb
// color. Anything else resolves to the default brand color with Fallback set.
func ResolveTheme(hex string) Theme {
	rgb, ok := parseHex(hex)
	fallback := false
	if !ok {
		rgb, _ = parseHex(DefaultPrimaryColor)
		fallback = true
	}

	primary := rgb.String()
	darker := rgb.mix(0, shadeAmount).String()
	return Theme{
		Primary: primary,
		Lighter: rgb.mix(255, shadeAmount).String(),
		Darker:  darker,
		Classes: ThemeClasses{
			Background:      "bg-[" + primary + "]",
			Text:            "text-[" + primary + "]",
			Border:          "border-[" + primary + "]",
			HoverBackground: "hover:bg-[" + darker + "]",
		},
		Fallback: fallback,
	}
}

// ValidColor reports whether hex is a #rgb or #rrggbb color.
func ValidColor(hex string) bool {
	_, ok := parseHex(hex)
	return ok
}

type rgb [3]uint8

func parseHex(s string) (rgb, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return rgb{}, false
	}
	s = s[1:]
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return rgb{}, false
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

// mix moves every channel amount of the way toward target.
func (c rgb) mix(target float64, amount float64) rgb {
	var out rgb
	for i, ch := range c {
		v := float64(ch) + (target-float64(ch))*amount
		out[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return out
}

func (c rgb) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
