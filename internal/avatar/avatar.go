// Package avatar picks a stable fallback colour for users without an avatar image.
package avatar

import "unicode/utf16"

const DefaultColor = "#008080"

var Palette = []string{
	"#008080", "#ff69b4", "#ffa500", "#00ffff", "#ffd700",
	"#2e8b57", "#ff6347", "#9370db", "#3cb371", "#ff8c00",
}

// Color maps username to a palette entry. The hash runs over UTF-16 code
// units and only the shift wraps to 32 bits, so every name lands on the same
// colour a browser client would show.
func Color(username string) string {
	if username == "" {
		return DefaultColor
	}
	return Palette[index(hash(username), len(Palette))]
}

func hash(s string) int64 {
	var h int64
	for _, c := range utf16.Encode([]rune(s)) {
		h = int64(c) + (int64(int32(h)<<5) - h)
	}
	return h
}

func index(h int64, n int) int {
	if h < 0 {
		h = -h
	}
	return int(h % int64(n))
}
