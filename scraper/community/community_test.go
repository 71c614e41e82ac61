package community

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/pkg/firecrawl"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ruliwebBestHTML = `<html><body><table class="board_list_table"><tbody>
<tr><td><a class="deco" href="/best/read/1"><strong class="text_over"><span class="subject_tag">[잡담]</span>오늘의 베스트 글</strong></a></td></tr>
<tr><td><a class="subject_link" href="/best/read/2">두번째 글</a></td></tr>
<tr><td><a class="deco" href="/best/read/3">12345</a></td></tr>
<tr><td><span class="text_over">링크 없는 글</span></td></tr>
</tbody></table></body></html>`

func TestRuliweb(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/best/game", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "24h", r.URL.Query().Get("range"))
		fmt.Fprint(w, ruliwebBestHTML)
	})
	mux.HandleFunc("/best/read/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a id="board_name"> 유머 게시판 </a></body></html>`)
	})
	mux.HandleFunc("/best/read/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewScraper(fetch.NewClient(config.HTTPConfig{Timeout: 5}), nil)
	s.ruliwebBase = srv.URL
	s.ruliwebURL = srv.URL + "/best/game?orderby=recommend&range=24h"

	posts, err := s.Ruliweb(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "오늘의 베스트 글", posts[0].Title)
	assert.Equal(t, srv.URL+"/best/read/1", posts[0].Link)
	assert.Equal(t, "유머 게시판", posts[0].Channel)
	assert.Equal(t, "두번째 글", posts[1].Title)
	assert.Empty(t, posts[1].Channel)
}

func TestParseArca(t *testing.T) {
	md := strings.Join([]string{
		"1[유머](https://arca.live/b/humor)",
		`[웃긴 글 제목입니다 \[12\]](https://arca.live/b/live/100?p=1)`,
		"[3 hours ago](https://arca.live/b/live/101)",
		"[모바일 앱 이용 안내](https://arca.live/b/live/102)",
		`[웃긴 글 제목입니다 \[12\]](https://arca.live/b/live/100?p=1)`,
		"[" + strings.Repeat("가", 55) + "](https://arca.live/b/live/103)",
	}, "\n")

	posts := ParseArca(md)
	require.Len(t, posts, 2)
	assert.Equal(t, "웃긴 글 제목입니다", posts[0].Title)
	assert.Equal(t, "https://arca.live/b/live/100?p=1", posts[0].Link)
	assert.Equal(t, "유머", posts[0].Channel)
	assert.Equal(t, strings.Repeat("가", 50)+"...", posts[1].Title)
}

func TestParseDcinside(t *testing.T) {
	md := `- [**\[싱글벙글\]** 오늘 있었던 일](https://gall.dcinside.com/board/view/?id=dcbest&no=1)
- [**\[공지\]** 갤러리 이용 안내](https://gall.dcinside.com/board/view/?id=dcbest&no=2)
- [**\[싱글벙글\]** 오늘 있었던 일](https://gall.dcinside.com/board/view/?id=dcbest&no=1)`

	posts := ParseDcinside(md)
	require.Len(t, posts, 1)
	assert.Equal(t, "오늘 있었던 일", posts[0].Title)
	assert.Equal(t, "싱글벙글", posts[0].Channel)
	assert.Equal(t, "dcinside", posts[0].Source)
}

func TestParseInvenHot(t *testing.T) {
	md := "[1\\\\\n\\\\\n로스트아크\\\\\n\\\\\n신규 직업 너무 재밌네요 \\\n\\[23\\]](https://www.inven.co.kr/board/lostark/4811/1)\n" +
		"[2\\\\\n\\\\\n메이플스토리\\\\\n\\\\\n이벤트 보상 정리\\\n\\[5\\]](https://www.inven.co.kr/board/maple/5974/2)"

	posts := ParseInvenHot(md)
	require.Len(t, posts, 2)
	assert.Equal(t, "신규 직업 너무 재밌네요", posts[0].Title)
	assert.Equal(t, "로스트아크", posts[0].Channel)
	assert.Equal(t, "https://www.inven.co.kr/board/lostark/4811/1", posts[0].Link)
	assert.Equal(t, "이벤트 보상 정리", posts[1].Title)
}

func TestFetchWithoutFirecrawlKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	httpClient := fetch.NewClient(config.HTTPConfig{Timeout: 5})
	s := NewScraper(httpClient, firecrawl.NewClient(httpClient, ""))
	s.ruliwebURL = srv.URL

	res := s.Fetch(context.Background())
	assert.Empty(t, res.Ruliweb)
	assert.Empty(t, res.Arca)
	assert.Empty(t, res.Dcinside)
	assert.Empty(t, res.Inven)
}
