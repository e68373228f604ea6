package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ApplyGradient colors text character by character from startColor to
// endColor. Colors are #rrggbb or #rgb hex strings.
func ApplyGradient(text, startColor, endColor string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}

	start, err := hexToRGB(startColor)
	if err != nil {
		return text
	}
	end, err := hexToRGB(endColor)
	if err != nil {
		return text
	}

	var b strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := fmt.Sprintf("#%02x%02x%02x",
			uint8(math.Round(lerp(float64(start.r), float64(end.r), t))),
			uint8(math.Round(lerp(float64(start.g), float64(end.g), t))),
			uint8(math.Round(lerp(float64(start.b), float64(end.b), t))))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true).Render(string(r)))
	}
	return b.String()
}

type rgb struct {
	r, g, b uint8
}

func hexToRGB(hex string) (rgb, error) {
	hex = strings.TrimPrefix(hex, "#")

	// Short form, e.g. "FFF"
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return rgb{}, fmt.Errorf("invalid hex color %q", hex)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgb{}, err
	}
	return rgb{r: uint8(v >> 16), g: uint8(v >> 8), b: uint8(v)}, nil
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
