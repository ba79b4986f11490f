package history

import (
	"encoding/hex"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/crypto/blake2b"
)

const snippetEllipsis = "…"

// Fingerprint identifies a source text. Runs of the same program share it.
func Fingerprint(src []byte) string {
	sum := blake2b.Sum256(src)
	return hex.EncodeToString(sum[:16])
}

// Snippet folds src onto one line and cuts it to at most limit grapheme
// clusters, so combined characters and emoji are never split.
func Snippet(src string, limit int) string {
	folded := strings.Join(strings.Fields(src), " ")
	if limit <= 0 || uniseg.GraphemeClusterCount(folded) <= limit {
		return folded
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(folded)
	for n := 0; n < limit-1 && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	b.WriteString(snippetEllipsis)
	return b.String()
}
