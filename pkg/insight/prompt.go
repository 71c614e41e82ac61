package insight

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/scraper/rankings"
	"github.com/dustin/go-humanize"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

type promptData struct {
	Today    string
	Time     string
	Week     models.WeekInfo
	Data     string
	Rankings string
	Recent   string
}

func execute(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// DailyPrompt asks for the daily insight of snap. Ranking changes and the
// recent insights are included only when present.
func DailyPrompt(snap *models.Snapshot, changes Changes, recent []*models.AIInsight, now time.Time) (string, error) {
	t := now.In(kst.Location)
	data := promptData{
		Today:  kst.Date(t),
		Time:   t.Format("15:04"),
		Data:   DataSummary(snap),
		Recent: recentSummary(recent),
	}
	if !changes.Empty() {
		data.Rankings = changeSummary(changes)
	}
	return execute("daily.tmpl", data)
}

// WeeklyPrompt asks for the recap of week built from its daily reports.
func WeeklyPrompt(reports []*models.DailyReport, week models.WeekInfo, changes Changes, previous []*models.AIInsight, now time.Time) (string, error) {
	t := now.In(kst.Location)
	data := promptData{
		Today:  kst.Date(t),
		Time:   t.Format("15:04"),
		Week:   week,
		Data:   weeklySummary(reports, week),
		Recent: previousWeekSummary(previous),
	}
	if !changes.Empty() {
		data.Rankings = changeSummary(changes)
	}
	return execute("weekly.tmpl", data)
}

// DataSummary condenses a snapshot into the crawl section of the prompt.
func DataSummary(snap *models.Snapshot) string {
	var lines []string
	section := func(title string) {
		if len(lines) > 0 {
			title = "\n" + title
		}
		lines = append(lines, title)
	}
	top := func(items []models.RankItem) []models.RankItem {
		if len(items) > 5 {
			return items[:5]
		}
		return items
	}

	if items := top(snap.Rankings.List(rankings.ChartGrossing, "kr", models.PlatformIOS)); len(items) > 0 {
		section("### iOS 매출 TOP 5:")
		for i, g := range items {
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, g.Title, g.Developer))
		}
	}
	if items := top(snap.Rankings.List(rankings.ChartGrossing, "kr", models.PlatformAndroid)); len(items) > 0 {
		section("### Android 매출 TOP 5:")
		for i, g := range items {
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, g.Title, g.Developer))
		}
	}
	if items := top(snap.Rankings.List(rankings.ChartFree, "kr", models.PlatformIOS)); len(items) > 0 {
		section("### iOS 인기 TOP 5:")
		for i, g := range items {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, g.Title))
		}
	}

	if steam := snap.Steam.MostPlayed; len(steam) > 0 {
		section("### Steam 동시접속 TOP 5:")
		for i, g := range steam {
			if i == 5 {
				break
			}
			ccu := "N/A"
			if g.CCU > 0 {
				ccu = humanize.Comma(int64(g.CCU))
			}
			lines = append(lines, fmt.Sprintf("%d. %s - %s명", i+1, g.Name, ccu))
		}
	}

	var news []models.NewsItem
	for _, source := range newsSources {
		for _, n := range snap.News.Source(source) {
			if n.Thumbnail != "" && len(news) < 20 {
				news = append(news, n)
			}
		}
	}
	if len(news) > 0 {
		section("### 최신 뉴스 (썸네일 URL 포함):")
		for i, n := range news {
			lines = append(lines, fmt.Sprintf("%d. [%s] → %s", i+1, n.Title, n.Thumbnail))
		}
	}

	var community []string
	for _, c := range []struct {
		label string
		posts []models.CommunityPost
	}{
		{"디시", snap.Community.Dcinside},
		{"아카", snap.Community.Arca},
		{"인벤", snap.Community.Inven},
	} {
		for i, p := range c.posts {
			if i == 3 {
				break
			}
			community = append(community, fmt.Sprintf("- [%s] %s", c.label, p.Title))
		}
	}
	if len(community) > 0 {
		section("### 커뮤니티 인기글:")
		lines = append(lines, community...)
	}

	if videos := snap.YouTube.Gaming; len(videos) > 0 {
		section("### 유튜브 인기 게임 영상:")
		for i, v := range videos {
			if i == 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s (%s)", v.Title, v.Channel))
		}
	}
	if streams := snap.Chzzk; len(streams) > 0 {
		section("### 치지직 인기 방송:")
		for i, s := range streams {
			if i == 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s (%s)", s.Title, s.Channel))
		}
	}
	return strings.Join(lines, "\n")
}

func changeSummary(c Changes) string {
	var lines []string
	prev := func(r int) string {
		if r == 0 {
			return "?"
		}
		return fmt.Sprint(r)
	}
	group := func(title string, cards []models.RankingCard, line func(models.RankingCard) string) {
		if len(cards) == 0 {
			return
		}
		if len(lines) > 0 {
			title = "\n" + title
		}
		lines = append(lines, title)
		for i, g := range cards {
			if i == 5 {
				break
			}
			lines = append(lines, line(g))
		}
	}
	group("### 급상승 (TOP 5):", c.Up, func(g models.RankingCard) string {
		return fmt.Sprintf("- %s (%s) : %s위 → %d위 (+%d)", g.Title, g.Platform, prev(g.PrevRank), g.Rank, g.Change)
	})
	group("### 급하락 (TOP 5):", c.Down, func(g models.RankingCard) string {
		return fmt.Sprintf("- %s (%s) : %s위 → %d위 (%d)", g.Title, g.Platform, prev(g.PrevRank), g.Rank, g.Change)
	})
	group("### 신규진입 (TOP 5):", c.New, func(g models.RankingCard) string {
		return fmt.Sprintf("- %s (%s) : %d위 진입", g.Title, g.Platform, g.Rank)
	})
	return strings.Join(lines, "\n")
}

// recentSummary lists recent daily insights with the titles the writer must
// not reuse. Streaming cards are left out.
func recentSummary(recent []*models.AIInsight) string {
	if len(recent) == 0 {
		return ""
	}
	lines := []string{"\n\n## ⛔ 중복 금지 - 최근 인사이트 (아래 내용 절대 재사용 금지):"}
	var blacklist []string
	seen := make(map[string]bool)
	ban := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			blacklist = append(blacklist, s)
		}
	}

	for i, ins := range recent {
		lines = append(lines, fmt.Sprintf("\n### 최근 리포트 %d:", i+1))
		if ins.Summary != "" {
			lines = append(lines, "- [요약] "+ins.Summary)
		}
		for _, c := range ins.Issues {
			lines = append(lines, fmt.Sprintf("- [%s] %s: %s", c.Tag, c.Title, c.Desc))
			ban(c.Title)
		}
		for _, c := range ins.IndustryIssues {
			lines = append(lines, fmt.Sprintf("- [%s] %s: %s", c.Tag, c.Title, c.Desc))
			ban(c.Title)
		}
		for _, c := range ins.Community {
			lines = append(lines, fmt.Sprintf("- [커뮤니티] %s: %s", c.Title, c.Desc))
			ban(c.Tag)
		}
		for _, c := range ins.Metrics {
			ban(c.Title)
		}
		for _, r := range ins.Rankings {
			ban(r.Title)
		}
	}

	if len(blacklist) > 0 {
		lines = append(lines, "\n### 🚫 사용 금지 키워드 (이 단어가 들어간 주제 선정 금지):", strings.Join(blacklist, ", "))
	}
	lines = append(lines, `
### ⚠️ 중복 방지 규칙 (필수 준수):
1. 위 리포트에서 다룬 게임/이슈를 모든 섹션(issues, industryIssues, metrics, rankings, community)에 다시 쓰지 말 것 (streaming은 제외)
2. 같은 게임이라도 완전히 다른 각도의 새 이슈만 허용
3. 비슷한 표현/문장 구조도 금지
4. 확실히 새로운 뉴스/이슈만 선정할 것`)
	return strings.Join(lines, "\n")
}

type counted struct {
	name  string
	count int
}

func topCounts(counts map[string]int, order []string, n int) []counted {
	out := make([]counted, 0, len(order))
	for _, name := range order {
		out = append(out, counted{name, counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// weeklySummary condenses the daily AI insights of a week, with mention
// counts and the news thumbnails the writer may pick from.
func weeklySummary(reports []*models.DailyReport, week models.WeekInfo) string {
	lines := []string{fmt.Sprintf("### 기간: %s ~ %s (%d주차)\n", week.StartDate, week.EndDate, week.WeekNumber)}

	mentions := make(map[string]int)
	var mentionOrder []string
	mention := func(name string) {
		if name == "" {
			return
		}
		if mentions[name] == 0 {
			mentionOrder = append(mentionOrder, name)
		}
		mentions[name]++
	}
	tags := make(map[string]int)
	var tagOrder []string

	for _, r := range reports {
		if r == nil || r.AI == nil {
			continue
		}
		ai := r.AI
		lines = append(lines, fmt.Sprintf("\n#### %s:", r.Date))
		cards := func(title string, list []models.InsightCard, withDesc bool) {
			if len(list) == 0 {
				return
			}
			lines = append(lines, title)
			for _, c := range list {
				if withDesc {
					lines = append(lines, fmt.Sprintf("  • [%s] %s: %s", c.Tag, c.Title, c.Desc))
				} else {
					lines = append(lines, fmt.Sprintf("  • [%s] %s", c.Tag, c.Title))
				}
			}
		}
		cards("- 주요 이슈:", ai.Issues, true)
		cards("- 업계 동향:", ai.IndustryIssues, true)
		if len(ai.Rankings) > 0 {
			lines = append(lines, "- 순위 변동:")
			for _, rk := range ai.Rankings {
				lines = append(lines, fmt.Sprintf("  • [%s] %s: %s", rk.Tag, rk.Title, rk.Desc))
			}
		}
		cards("- 커뮤니티:", ai.Community, true)
		cards("- 스트리밍:", ai.Streaming, false)
		if picks := ai.StockPicks(); len(picks) > 0 {
			lines = append(lines, "- 주목 게임주:")
			for _, p := range picks {
				lines = append(lines, fmt.Sprintf("  • %s: %s", p.Name, p.Comment))
			}
		}

		for _, rk := range ai.Rankings {
			mention(rk.Title)
		}
		for _, c := range ai.Community {
			mention(c.Tag)
		}
		for _, c := range ai.IndustryIssues {
			if c.Tag == "" {
				continue
			}
			if tags[c.Tag] == 0 {
				tagOrder = append(tagOrder, c.Tag)
			}
			tags[c.Tag]++
		}
	}

	lines = append(lines, "\n### 주간 통계:")
	if top := topCounts(mentions, mentionOrder, 10); len(top) > 0 {
		lines = append(lines, "- 주간 언급 빈도 TOP 10:")
		for i, m := range top {
			lines = append(lines, fmt.Sprintf("  %d. %s (%d회)", i+1, m.name, m.count))
		}
	}
	if top := topCounts(tags, tagOrder, 5); len(top) > 0 {
		lines = append(lines, "- 업계 이슈 키워드:")
		for _, m := range top {
			lines = append(lines, fmt.Sprintf("  • %s (%d회)", m.name, m.count))
		}
	}

	var news []models.Highlight
	for _, r := range reports {
		if r == nil {
			continue
		}
		for _, n := range r.News {
			if n.Title != "" && n.Thumbnail != "" && len(news) < 30 {
				news = append(news, n)
			}
		}
	}
	if len(news) > 0 {
		lines = append(lines, "\n### 뉴스 썸네일 URL 목록 (이슈별 thumbnail 선택용):")
		for i, n := range news {
			lines = append(lines, fmt.Sprintf("%d. [%s] → %s", i+1, n.Title, n.Thumbnail))
		}
	}
	return strings.Join(lines, "\n")
}

// previousWeekSummary lists the recent weekly insights so the recap avoids
// repeating their topics.
func previousWeekSummary(previous []*models.AIInsight) string {
	if len(previous) == 0 {
		return ""
	}
	lines := []string{"\n\n## 반복 방지 - 전주 인사이트 (동일/유사 주제 피할 것):"}
	for _, ins := range previous {
		if ins.Summary != "" {
			lines = append(lines, "- [요약] "+ins.Summary)
		}
		for _, c := range ins.Issues {
			lines = append(lines, fmt.Sprintf("- [%s] %s: %s", c.Tag, c.Title, c.Desc))
		}
		for _, c := range ins.IndustryIssues {
			lines = append(lines, fmt.Sprintf("- [%s] %s: %s", c.Tag, c.Title, c.Desc))
		}
		if ins.MVP != nil {
			lines = append(lines, fmt.Sprintf("- [MVP] %s: %s", ins.MVP.Name, ins.MVP.Desc))
		}
		for _, c := range ins.Community {
			lines = append(lines, fmt.Sprintf("- [커뮤니티] %s: %s", c.Title, c.Desc))
		}
	}
	lines = append(lines, "\n→ 위 전주 리포트에서 이미 다룬 주제와 동일하거나 유사한 내용은 피하고, 새로운 관점이나 다른 이슈를 찾아주세요.")
	return strings.Join(lines, "\n")
}
