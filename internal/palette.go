package internal

import "strings"

// Palette maps symbolic color names to mIRC control sequences. It is an
// explicit value handed to renderers rather than ambient state, so rendering
// stays a pure function of event, config and palette.
type Palette struct {
	Reset      string
	White      string
	Black      string
	Blue       string
	Green      string
	Red        string
	Brown      string
	Purple     string
	Orange     string
	Yellow     string
	LightGreen string
	Teal       string
	LightCyan  string
	LightBlue  string
	Pink       string
	Grey       string
	LightGrey  string
}

// MircPalette returns the standard mIRC color table.
func MircPalette() Palette {
	return Palette{
		Reset:      "\x0f",
		White:      "\x0300",
		Black:      "\x0301",
		Blue:       "\x0302",
		Green:      "\x0303",
		Red:        "\x0304",
		Brown:      "\x0305",
		Purple:     "\x0306",
		Orange:     "\x0307",
		Yellow:     "\x0308",
		LightGreen: "\x0309",
		Teal:       "\x0310",
		LightCyan:  "\x0311",
		LightBlue:  "\x0312",
		Pink:       "\x0313",
		Grey:       "\x0314",
		LightGrey:  "\x0315",
	}
}

// Monochrome returns a palette whose every sequence is the empty string.
func Monochrome() Palette {
	return Palette{}
}

// StripColors removes every mIRC formatting sequence from s: color prefixes
// (\x03 with optional foreground and ,background digits), bold, underline,
// reverse and reset.
func StripColors(s string) string {
	if !strings.ContainsAny(s, "\x02\x03\x0f\x16\x1f") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\x02', '\x0f', '\x16', '\x1f':
			continue
		case '\x03':
			// Up to two foreground digits, then an optional ",NN" background.
			j := i + 1
			for n := 0; n < 2 && j < len(s) && isDigit(s[j]); n++ {
				j++
			}
			if j > i+1 && j < len(s) && s[j] == ',' && j+1 < len(s) && isDigit(s[j+1]) {
				j++
				for n := 0; n < 2 && j < len(s) && isDigit(s[j]); n++ {
					j++
				}
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
