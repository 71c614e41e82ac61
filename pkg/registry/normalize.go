package registry

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	englishNameRe = regexp.MustCompile(`^[a-zA-Z0-9\s:'\-&!?.]+$`)
	bracketRe     = regexp.MustCompile(`[()（）\[\]【】「」『』]`)
	separatorRe   = regexp.MustCompile(`[:\-–—·•]`)
	spacesRe      = regexp.MustCompile(`\s+`)
	slugPunctRe   = regexp.MustCompile(`[:'&!?.]+`)
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9가-힣\-]`)
	slugDashesRe  = regexp.MustCompile(`-+`)
)

func isHangulSyllable(r rune) bool { return r >= '가' && r <= '힣' }
func isHiragana(r rune) bool       { return r >= 'ぁ' && r <= 'ん' }
func isKatakana(r rune) bool       { return r >= 'ァ' && r <= 'ン' }
func isCJK(r rune) bool            { return r >= '一' && r <= '龯' }
func isASCIIAlnum(r rune) bool     { return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') }

// NormalizeTitle is the strict title key used for exact store matches and kr
// title grouping. Only latin letters, digits, Hangul syllables, kana and CJK
// ideographs survive.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if isASCIIAlnum(r) || isHangulSyllable(r) || isHiragana(r) || isKatakana(r) || isCJK(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeNameKey lowercases, applies NFKD to the whole name and keeps
// latin letters and digits. NFKD splits Hangul syllables into conjoining
// jamo, which are dropped, so a Korean name keeps only its latin part.
func NormalizeNameKey(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(strings.ToLower(name)) {
		if isASCIIAlnum(r) || isHangulSyllable(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName is the looser comparison used by the review queue: brackets
// and separators become spaces.
func NormalizeName(name string) string {
	s := strings.ToLower(name)
	s = bracketRe.ReplaceAllString(s, " ")
	s = separatorRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsKoreanName reports whether name contains a Hangul syllable.
func IsKoreanName(name string) bool {
	for _, r := range name {
		if isHangulSyllable(r) {
			return true
		}
	}
	return false
}

func IsEnglishName(name string) bool {
	return englishNameRe.MatchString(name)
}

// GenerateSlug builds the URL slug from the first English alias, falling
// back to the name.
func GenerateSlug(name string, aliases []string) string {
	base := name
	for _, a := range aliases {
		if IsEnglishName(a) {
			base = a
			break
		}
	}
	s := strings.ToLower(base)
	s = slugPunctRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, "-")
	s = slugInvalidRe.ReplaceAllString(s, "")
	s = slugDashesRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func keyLen(key string) int {
	return utf8.RuneCountInString(key)
}
