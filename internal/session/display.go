package session

import (
	"strings"

	"github.com/rivo/uniseg"
)

// DisplayName shortens name to at most limit user-perceived characters,
// keeping the extension visible. Combined emoji and accented letters are
// never split.
func DisplayName(name string, limit int) string {
	if limit <= 0 || uniseg.GraphemeClusterCount(name) <= limit {
		return name
	}

	ext := ""
	if i := strings.LastIndex(name, "."); i > 0 {
		ext = name[i:]
	}
	extLen := uniseg.GraphemeClusterCount(ext)
	keep := limit - 1 - extLen
	if keep < 1 {
		ext, keep = "", limit-1
	}

	var sb strings.Builder
	g := uniseg.NewGraphemes(name)
	for n := 0; n < keep && g.Next(); n++ {
		sb.WriteString(g.Str())
	}
	sb.WriteString("…")
	sb.WriteString(ext)
	return sb.String()
}
