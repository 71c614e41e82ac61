package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invenHTML = `<html><body><ul>
<li><a href="/webzine/news/?news=1"><img src="/img/1.jpg"><span class="cols title">HOT [로스트아크] 신규 레이드 업데이트 예정 <span class="cmtnum">[12]</span></span></a></li>
<li><a href="/webzine/news/?news=2"><span class="cols title">짧은 제목</span></a></li>
<li><a href="/webzine/news/?news=3"><span class="cols title">[로스트아크] 신규 레이드 업데이트 예정</span></a></li>
</ul>
<div><a href="https://www.inven.co.kr/webzine/news/?news=4"><span class="cols title">넥슨 'Mabinogi' 신작 발표회 일정 공개</span></a></div>
<a href="/webzine/news/?news=5">no title span</a>
</body></html>`

const ruliwebRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>ruliweb</title>
<item><title>[PS5] 신작 액션 게임 발매일 확정 소식</title><link>https://bbs.ruliweb.com/news/read/1</link>
<description><![CDATA[<p><img src="https://i.ruliweb.com/1.jpg" alt=""></p>본문]]></description></item>
<item><title>짧다</title><link>https://bbs.ruliweb.com/news/read/2</link><description></description></item>
<item><title>링크 없는 기사 제목이 여기 있습니다</title><link></link></item>
</channel></rss>`

type fakeRenderer struct {
	html string
	err  error
}

func (f fakeRenderer) RenderHTML(context.Context, string) (string, error) {
	return f.html, f.err
}

func TestInven(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, invenHTML)
	}))
	defer srv.Close()

	s := NewScraper(fetch.NewClient(config.HTTPConfig{Timeout: 5}), nil)
	s.invenURL = srv.URL
	items, err := s.Inven(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "신규 레이드 업데이트 예정", items[0].Title)
	assert.Equal(t, "로스트아크", items[0].Tag)
	assert.Equal(t, "https://www.inven.co.kr/webzine/news/?news=1", items[0].Link)
	assert.Equal(t, "https://www.inven.co.kr/img/1.jpg", items[0].Thumbnail)
	assert.Equal(t, "inven", items[0].Source)

	assert.Equal(t, "Mabinogi", items[1].Tag)
	assert.Empty(t, items[1].Thumbnail)
}

func TestParseRuliweb(t *testing.T) {
	items, err := ParseRuliweb([]byte(ruliwebRSS))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "신작 액션 게임 발매일 확정 소식", items[0].Title)
	assert.Equal(t, "PS5", items[0].Tag)
	assert.Equal(t, "https://i.ruliweb.com/1.jpg", items[0].Thumbnail)
}

func TestParseGamemecaLimitsAndTruncates(t *testing.T) {
	var b strings.Builder
	b.WriteString("<ul>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<li><img src="/t/%d.jpg"><strong class="tit_thumb"><a href="/view.php?gid=%d">%d번째 %s</a></strong></li>`,
			i, i, i, strings.Repeat("가", 60))
	}
	b.WriteString("</ul>")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	require.NoError(t, err)

	items := ParseGamemeca(doc.Selection)
	require.Len(t, items, 15)
	assert.Equal(t, "https://www.gamemeca.com/view.php?gid=0", items[0].Link)
	assert.Equal(t, "https://www.gamemeca.com/t/0.jpg", items[0].Thumbnail)
	assert.Len(t, []rune(items[0].Title), 55)
}

func TestThisisgame(t *testing.T) {
	html := `<html><body>
<div class="relative"><a href="/articles/100"><img src="https://img/100.jpg"><p>[발로란트] 새 요원 공개와 함께 시즌 시작</p></a></div>
<div class="relative"><a href="/articles/101"><p>이미지가 없는 기사는 건너뛴다</p></a></div>
<div class="relative"><a href="/articles/?categoryId=3"><img src="x.jpg"><p>카테고리 링크는 건너뛴다고요</p></a></div>
<div class="relative"><a href="/articles/102"><img src="/img/102.jpg">링크 텍스트만 있는 기사 제목</a></div>
</body></html>`
	s := NewScraper(fetch.NewClient(config.HTTPConfig{}), fakeRenderer{html: html})
	items, err := s.Thisisgame(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "새 요원 공개와 함께 시즌 시작", items[0].Title)
	assert.Equal(t, "발로란트", items[0].Tag)
	assert.Equal(t, "https://www.thisisgame.com/articles/100", items[0].Link)
	assert.Equal(t, "https://www.thisisgame.com/img/102.jpg", items[1].Thumbnail)
}

func TestFetchKeepsOtherSourcesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			fmt.Fprint(w, ruliwebRSS)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := NewScraper(fetch.NewClient(config.HTTPConfig{Timeout: 5}), fakeRenderer{err: errors.New("no chrome")})
	s.invenURL = srv.URL + "/inven"
	s.ruliwebURL = srv.URL + "/rss"
	s.gamemecaURL = srv.URL + "/meca"

	res := s.Fetch(context.Background())
	assert.Empty(t, res.Inven)
	assert.Len(t, res.Ruliweb, 1)
	assert.Empty(t, res.Gamemeca)
	assert.Empty(t, res.Thisisgame)
}
