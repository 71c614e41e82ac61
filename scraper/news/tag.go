package news

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	articleTypeRe   = regexp.MustCompile(`(?i)^(리뷰|프리뷰|체험기|인터뷰|기획|취재|영상|종합|코드\s*이벤트|순정남|이구동성|포토|오늘의\s*스팀|방구석게임|보드게임|성지순례|기승전결|판례|순위분석|인디言|이슈|메카\s*만평)[①②③④⑤⑥⑦⑧⑨⑩]?\s*$`)
	articleSuffixRe = regexp.MustCompile(`(?i)\s*(리뷰|프리뷰|체험기|인터뷰|기획|취재|영상|종합|코드\s*이벤트|순정남|이구동성|포토|오늘의\s*스팀|방구석게임)[①②③④⑤⑥⑦⑧⑨⑩]?\s*$`)
	nonGameRe       = regexp.MustCompile(`(?i)^(노쇼|버그|업데이트|출시|공개|발표|이벤트|시즌|패치|콜라보|협업|대회|행사|기자|PD|감독|작가|대표|회장|원작자|참여|개발|서비스|종료|오픈|런칭|신작|기대작|인기|순위|랭킹|리뷰|프리뷰|체험|인터뷰|분석|정리|요약|특집|연재|만평|갤러리|커뮤니티|팸|\d+일|\d+월|\d+년|\d+시간|\d+분)$`)
	digitsRe        = regexp.MustCompile(`^\d+$`)
	bracketTagRe    = regexp.MustCompile(`\[([^\]]+)\]`)
	quoteTagRe      = regexp.MustCompile(`['‘’]([^'‘’]+)['‘’]`)
	commaTagRe      = regexp.MustCompile(`^([가-힣A-Za-z0-9\s:]+),`)
	hangulLeadRe    = regexp.MustCompile(`^[가-힣]`)
	bracketsRe      = regexp.MustCompile(`\[.*?\]`)
	hotPrefixRe     = regexp.MustCompile(`(?i)^HOT\s*`)
)

func validTag(tag string, maxLen int) bool {
	n := utf8.RuneCountInString(tag)
	return n >= 2 && n <= maxLen && !digitsRe.MatchString(tag) && !nonGameRe.MatchString(tag)
}

// ExtractGameTag guesses the game a headline is about: a bracket tag that
// is not an article type, else a quoted name, else a Korean name before the
// first comma. It returns "" when nothing qualifies.
func ExtractGameTag(title string) string {
	if m := bracketTagRe.FindStringSubmatch(title); m != nil {
		tag := strings.TrimSpace(m[1])
		if !articleTypeRe.MatchString(tag) {
			tag = strings.TrimSpace(articleSuffixRe.ReplaceAllString(tag, ""))
			if validTag(tag, 20) {
				return tag
			}
		}
	}

	if m := quoteTagRe.FindStringSubmatch(title); m != nil {
		tag := strings.TrimSpace(m[1])
		if validTag(tag, 20) {
			return tag
		}
	}

	if m := commaTagRe.FindStringSubmatch(title); m != nil {
		tag := strings.TrimSpace(m[1])
		if hangulLeadRe.MatchString(tag) && validTag(tag, 12) {
			return tag
		}
	}
	return ""
}

// CleanTitle removes bracket tags and keeps the first line.
func CleanTitle(raw string) string {
	title := bracketsRe.ReplaceAllString(raw, "")
	title = hotPrefixRe.ReplaceAllString(strings.TrimSpace(title), "")
	title, _, _ = strings.Cut(title, "\n")
	return strings.TrimSpace(title)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
