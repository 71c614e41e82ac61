package insight

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
)

var newsImageHosts = map[string]bool{
	"static.inven.co.kr": true,
	"img.ruliweb.com":    true,
	"cdn.gamemeca.com":   true,
	"www.thisisgame.com": true,
	"thisisgame.com":     true,
}

var newsPageMarkers = []string{
	"inven.co.kr/webzine/news/?news=",
	"bbs.ruliweb.com/news/read/",
	"www.gamemeca.com/view.php",
	"thisisgame.com/webzine/news/",
}

var stopWords = wordSet(`의 가 이 은 는 을 를 에 와 과 로 으로 에서 까지 부터 처럼 만 도 등 및
	그 저 급 위 일 월 년 주간 지난주 이번주 오늘 어제
	공개 발표 출시 업데이트 신작 확정 돌파 화제 논란 전망 진출 확산 가능 예정 시작 종료
	인기 상위권 유지 강화 확인 공식 신규 최신 주목`)

func wordSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

var (
	keywordStripRe = regexp.MustCompile(`[^0-9A-Za-z가-힣\s]`)
	digitsRe       = regexp.MustCompile(`^\d+$`)
)

// ThumbnailOptions controls RepairThumbnails. Without Apply nothing is
// written. Aggressive also replaces thumbnails on loose matches; StrictOnly
// ignores loose matches entirely.
type ThumbnailOptions struct {
	Apply      bool
	Aggressive bool
	StrictOnly bool
}

type ThumbnailChange struct {
	Report    string
	Path      string
	Title     string
	Old       string
	New       string
	Strict    bool
	Score     int
	NewsTitle string
}

type ThumbnailResult struct {
	Scanned int
	Updated int
	Errors  int
	Changes []ThumbnailChange
}

type newsThumb struct {
	title     string
	thumbnail string
}

type thumbMatch struct {
	strict    bool
	score     int
	newsTitle string
	thumbnail string
}

// keywords splits title into lookup tokens: Hangul, latin and digit words of
// two or more characters that are not stop words or plain numbers, first
// occurrence kept.
func keywords(title string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(keywordStripRe.ReplaceAllString(title, " ")) {
		if utf8.RuneCountInString(w) < 2 || stopWords[w] || digitsRe.MatchString(w) {
			continue
		}
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

func matchScore(tokens []string, newsTitle string) (score, matched int) {
	hay := strings.ToLower(newsTitle)
	for _, t := range tokens {
		if strings.Contains(hay, strings.ToLower(t)) {
			matched++
			score += utf8.RuneCountInString(t)
		}
	}
	return score, matched
}

// bestNewsThumbnail picks the news item whose title shares the most keyword
// characters with title. Items containing both leading keywords are strict
// candidates; without any, a loose match needs two keywords.
func bestNewsThumbnail(title string, news []newsThumb) *thumbMatch {
	tokens := keywords(title)
	if len(tokens) == 0 {
		return nil
	}
	core := tokens
	if len(core) > 2 {
		core = core[:2]
	}

	var strict []newsThumb
	for _, n := range news {
		hay := strings.ToLower(n.title)
		all := true
		for _, c := range core {
			if !strings.Contains(hay, strings.ToLower(c)) {
				all = false
				break
			}
		}
		if all {
			strict = append(strict, n)
		}
	}
	candidates := strict
	if len(strict) == 0 {
		candidates = news
	}

	var best *thumbMatch
	bestScore := 0
	for _, n := range candidates {
		score, matched := matchScore(tokens, n.title)
		if len(strict) == 0 && matched < 2 {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = &thumbMatch{strict: len(strict) > 0, score: score, newsTitle: n.title, thumbnail: n.thumbnail}
		}
	}
	return best
}

func normalizeImageURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func isNewsImage(u string) bool {
	u = normalizeImageURL(u)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return newsImageHosts[strings.ToLower(parsed.Hostname())]
}

func isNewsPage(u string) bool {
	u = normalizeImageURL(u)
	if u == "" {
		return false
	}
	for _, m := range newsPageMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return strings.HasSuffix(u, ".html")
}

type thumbSlot struct {
	path  string
	title string
	value *string
}

func insightSlots(ai *models.AIInsight, weekly bool) []thumbSlot {
	slots := []thumbSlot{{path: "ai.thumbnail", title: ai.Headline, value: &ai.Thumbnail}}
	sections := []struct {
		name  string
		cards []models.InsightCard
	}{
		{"issues", ai.Issues},
		{"industryIssues", ai.IndustryIssues},
		{"metrics", ai.Metrics},
	}
	if weekly {
		sections = append(sections, struct {
			name  string
			cards []models.InsightCard
		}{"global", ai.Global})
	}
	for _, sec := range sections {
		for i := range sec.cards {
			slots = append(slots, thumbSlot{
				path:  fmt.Sprintf("ai.%s[%d].thumbnail", sec.name, i),
				title: sec.cards[i].Title,
				value: &sec.cards[i].Thumbnail,
			})
		}
	}
	return slots
}

// repairInsight points thumbnails of ai at matching news images and returns
// the changes made.
func repairInsight(ai *models.AIInsight, weekly bool, news []newsThumb, opts ThumbnailOptions) []ThumbnailChange {
	var changes []ThumbnailChange
	for _, slot := range insightSlots(ai, weekly) {
		if slot.title == "" {
			continue
		}
		best := bestNewsThumbnail(slot.title, news)
		if best == nil || (opts.StrictOnly && !best.strict) {
			continue
		}
		next := normalizeImageURL(best.thumbnail)
		if next == "" {
			continue
		}
		old := *slot.value
		current := normalizeImageURL(old)
		replace := best.strict || opts.Aggressive || isNewsPage(old) || current == "" || !isNewsImage(old)
		if !replace || current == next {
			continue
		}
		*slot.value = best.thumbnail
		changes = append(changes, ThumbnailChange{
			Path:      slot.path,
			Title:     slot.title,
			Old:       old,
			New:       best.thumbnail,
			Strict:    best.strict,
			Score:     best.score,
			NewsTitle: best.newsTitle,
		})
	}
	return changes
}

// historyNews returns the titled news items with thumbnails of one history
// snapshot, or nothing when the snapshot is missing.
func (s *Service) historyNews(date string) []newsThumb {
	snap, err := s.store.LoadSnapshot(date)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warnf("history %s unreadable: %v", date, err)
		}
		return nil
	}
	var out []newsThumb
	for _, src := range newsSources {
		for _, n := range snap.News.Source(src) {
			if n.Title != "" && n.Thumbnail != "" {
				out = append(out, newsThumb{title: n.Title, thumbnail: n.Thumbnail})
			}
		}
	}
	return out
}

func (s *Service) weekNews(w models.WeekInfo) ([]newsThumb, error) {
	if w.StartDate == "" || w.EndDate == "" {
		return nil, errors.New("week has no start or end date")
	}
	var out []newsThumb
	for d := w.StartDate; d <= w.EndDate; {
		out = append(out, s.historyNews(d)...)
		next, err := kst.AddDays(d, 1)
		if err != nil {
			return nil, err
		}
		d = next
	}
	return out, nil
}

// RepairThumbnails matches AI insight thumbnails in daily and weekly reports
// against the news images crawled on the covered days.
func (s *Service) RepairThumbnails(ctx context.Context, opts ThumbnailOptions) (*ThumbnailResult, error) {
	res := &ThumbnailResult{}

	dates, err := s.store.ReportDates()
	if err != nil {
		return nil, err
	}
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Scanned++
		r, err := s.store.LoadReport(date)
		if err != nil {
			log.Warnf("skipping report %s: %v", date, err)
			res.Errors++
			continue
		}
		if r.AI == nil {
			continue
		}
		changes := repairInsight(r.AI, false, s.historyNews(date), opts)
		if len(changes) == 0 {
			continue
		}
		res.add("reports/"+date+".json", changes)
		if opts.Apply {
			if err := s.store.SaveReport(r); err != nil {
				return nil, fmt.Errorf("failed to save report %s: %w", date, err)
			}
			res.Updated++
		}
	}

	ids, err := s.store.WeeklyIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Scanned++
		w, err := s.store.LoadWeekly(id)
		if err != nil {
			log.Warnf("skipping weekly report %s: %v", id, err)
			res.Errors++
			continue
		}
		if w.AI == nil {
			continue
		}
		news, err := s.weekNews(w.WeekInfo)
		if err != nil {
			log.Warnf("skipping weekly report %s: %v", id, err)
			res.Errors++
			continue
		}
		changes := repairInsight(w.AI, true, news, opts)
		if len(changes) == 0 {
			continue
		}
		res.add("reports/weekly/"+id+".json", changes)
		if opts.Apply {
			if err := s.store.SaveWeekly(id, w); err != nil {
				return nil, fmt.Errorf("failed to save weekly report %s: %w", id, err)
			}
			res.Updated++
		}
	}

	log.Printf("Thumbnails: %d reports scanned, %d changes, %d files written", res.Scanned, len(res.Changes), res.Updated)
	return res, nil
}

func (r *ThumbnailResult) add(report string, changes []ThumbnailChange) {
	for _, c := range changes {
		c.Report = report
		r.Changes = append(r.Changes, c)
	}
}
