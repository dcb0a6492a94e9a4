// SPDX-License-Identifier: AGPL-3.0-only
package theme

type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

func Parse(s string) Mode {
	if Mode(s) == Dark {
		return Dark
	}
	return Light
}

func (m Mode) Toggle() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

type Colors struct {
	Primary       string
	Secondary     string
	Background    string
	Paper         string
	Text          string
	TextSecondary string
	Error         string
}

var palettes = map[Mode]Colors{
	Light: {
		Primary:       "#E1306C",
		Secondary:     "#405DE6",
		Background:    "#fafafa",
		Paper:         "#ffffff",
		Text:          "#262626",
		TextSecondary: "#737373",
		Error:         "#d32f2f",
	},
	Dark: {
		Primary:       "#E1306C",
		Secondary:     "#405DE6",
		Background:    "#121212",
		Paper:         "#1e1e1e",
		Text:          "#f5f5f5",
		TextSecondary: "#a8a8a8",
		Error:         "#f44336",
	},
}

func Palette(m Mode) Colors {
	return palettes[Parse(string(m))]
}
