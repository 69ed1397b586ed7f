package share

import (
	"fmt"
	"html"
	"strings"
)

// ShareURL places token in the fragment of base, replacing any fragment
// base already has.
func ShareURL(base, token string) string {
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return base + "#" + token
}

// TokenFromURL extracts a token from a share URL, a bare "#fragment", or a
// raw token.
func TokenFromURL(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// EmbedSnippet returns an iframe snippet that embeds url.
func EmbedSnippet(url string) string {
	return fmt.Sprintf(`<iframe src="%s" style="width:100%%;min-height:460px;border:0;border-radius:16px"></iframe>`, html.EscapeString(url))
}
