package cleaner

import "strings"

// decorationReplacer removes markdown emphasis markers and bracket characters.
// Multi-character markers are listed first so they win over their single-character parts.
var decorationReplacer = strings.NewReplacer(
	"**", "",
	"__", "",
	"~~", "",
	"`", "",
	"*", "",
	"[", "", "]", "",
	"【", "", "】", "",
	"〔", "", "〕", "",
	"［", "", "］", "",
	"〖", "", "〗", "",
)

// StripDecoration removes emphasis markers and bracket decoration from s.
func StripDecoration(s string) string {
	return strings.TrimSpace(decorationReplacer.Replace(s))
}

// StripLeaves applies StripDecoration to every string leaf of a decoded JSON value.
// Maps and slices are modified in place and returned.
func StripLeaves(v any) any {
	switch n := v.(type) {
	case string:
		return StripDecoration(n)
	case map[string]any:
		for k, child := range n {
			n[k] = StripLeaves(child)
		}
		return n
	case []any:
		for i, child := range n {
			n[i] = StripLeaves(child)
		}
		return n
	default:
		return v
	}
}
