// Package normalize canonicalizes the free-text titles, artist names, and
// genre tags that flow through the resolution pipeline. All functions here
// are pure and idempotent.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	featRe       = regexp.MustCompile(`(?i)\s*[(\[]?\s*(?:feat\.?|ft\.?|featuring)\s+[^)\]]*[)\]]?\s*$`)

	// NFD decomposition followed by combining-mark removal. Recomposing
	// with NFC keeps characters that carry no decomposition intact.
	diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// mojibakeReplacer fixes known byte-reinterpretation artifacts: UTF-8 text
// that was decoded once as Windows-1252/Latin-1 and re-encoded. Longer
// sequences come first so they win over their prefixes.
var mojibakeReplacer = strings.NewReplacer(
	"â€™", "'",
	"â€œ", "“",
	"â€", "”",
	"â€“", "–",
	"â€”", "—",
	"Ã©", "é",
	"Ã¨", "è",
	"Ãª", "ê",
	"Ã«", "ë",
	"Ã¡", "á",
	"Ã ", "à",
	"Ã¢", "â",
	"Ã¤", "ä",
	"Ã£", "ã",
	"Ã­", "í",
	"Ã®", "î",
	"Ã¯", "ï",
	"Ã³", "ó",
	"Ã´", "ô",
	"Ã¶", "ö",
	"Ãµ", "õ",
	"Ãº", "ú",
	"Ã¼", "ü",
	"Ã±", "ñ",
	"Ã§", "ç",
	"Ã¸", "ø",
	"Ã¥", "å",
	"Ã†", "Æ",
	"Ã‰", "É",
	"Ã–", "Ö",
	"Ãœ", "Ü",
	"Å‚", "ł",
	"Å", "Ł",
	"Å„", "ń",
	"Åº", "ź",
	"Å¼", "ż",
	"Å›", "ś",
	"Å¡", "š",
	"Å¾", "ž",
	"Ä", "ć",
	"Ä", "ą",
	"Ä™", "ę",
)

// RepairMojibake maps known mis-encoded character sequences back to the
// correct accented characters. Unknown sequences pass through untouched.
func RepairMojibake(text string) string {
	return mojibakeReplacer.Replace(text)
}

// RemoveDiacritics strips accents and other combining marks, leaving the
// base characters. Used to build an ASCII fallback query alongside the
// native-script one.
func RemoveDiacritics(text string) string {
	stripped, _, err := transform.String(diacriticStripper, text)
	if err != nil {
		return text
	}
	// A few letters are standalone code points rather than base+mark.
	return asciiFoldReplacer.Replace(stripped)
}

var asciiFoldReplacer = strings.NewReplacer(
	"ł", "l", "Ł", "L",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ß", "ss",
	"þ", "th", "Þ", "Th",
	"ð", "d", "Ð", "D",
)

// ForComparison lowercases, strips diacritics, replaces every
// non-alphanumeric run with a single space, and trims. The result is the
// canonical form used for all title/artist matching.
func ForComparison(text string) string {
	text = RemoveDiacritics(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// StripFeaturing removes trailing "feat."/"ft." annotations from a title
// or artist credit before it is used to build search queries.
func StripFeaturing(text string) string {
	return strings.TrimSpace(featRe.ReplaceAllString(text, ""))
}
