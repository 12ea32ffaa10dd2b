package resultcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const keySeparator = "\x1f"

var caseFolder = cases.Fold()

// Normalize canonicalizes a title or author for key derivation: Unicode
// NFKC normalization, case folding, punctuation stripped to spaces while
// letters and digits of any script survive, internal whitespace collapsed.
// Normalization is idempotent.
func Normalize(value string) string {
	value = norm.NFKC.String(strings.TrimSpace(value))
	value = caseFolder.String(value)

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Key derives the deterministic cache key for a book identity. The author is
// optional; when present it is joined to the title with a fixed separator so
// ("ab", "c") and ("a", "bc") cannot collide.
func Key(title, author string) string {
	material := Normalize(title)
	if normalized := Normalize(author); normalized != "" {
		material += keySeparator + normalized
	}
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}
