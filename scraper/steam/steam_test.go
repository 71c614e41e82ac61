package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func chartPageHTML(page int) string {
	var rows strings.Builder
	for i := 0; i < 25; i++ {
		id := (page-1)*25 + i + 1
		fmt.Fprintf(&rows, `<tr><td>%d.</td><td class="game-name left"><a href="/app/%d">Game %d</a></td><td class="num">%d,000</td><td class="num">1</td></tr>`, id, id, id, 100-id)
	}
	return `<table id="top-games"><tbody>` + rows.String() + `</tbody></table>`
}

const sellersHTML = `
<a class="search_result_row" data-ds-appid="730"><div class="search_capsule"><img src="cs2.jpg"></div>
  <span class="title">Counter-Strike 2</span><div class="search_price">무료</div></a>
<a class="search_result_row" data-ds-appid="999"><div class="search_capsule"></div>
  <span class="title">Sale Game</span><div class="discount_pct">-50%</div><div class="discount_final_price">₩ 10,000</div></a>
<a class="search_result_row"><span class="title">No id</span></a>`

const mostPlayedHTML = `<a class="search_result_row" data-ds-appid="1"><div class="search_capsule"><img src="game1.jpg"></div></a>`

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/top", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartPageHTML(1))
	})
	for p := 2; p <= 4; p++ {
		mux.HandleFunc(fmt.Sprintf("/top/p.%d", p), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chartPageHTML(p))
		})
	}
	mux.HandleFunc("/search/results/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "kr", r.URL.Query().Get("cc"))
		html := sellersHTML
		if r.URL.Query().Get("filter") == "mostplayed" {
			html = mostPlayedHTML
		}
		json.NewEncoder(w).Encode(map[string]any{"success": 1, "results_html": html})
	})
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("appids")
		switch id {
		case "730":
			fmt.Fprintf(w, `{"730":{"success":true,"data":{"developers":["Valve"],"header_image":"cs2-header.jpg"}}}`)
		case "2":
			fmt.Fprintf(w, `{"2":{"success":true,"data":{"publishers":["Pub"],"header_image":"h2.jpg"}}}`)
		default:
			fmt.Fprintf(w, `{"%s":{"success":false}}`, id)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper(srv *httptest.Server) *Scraper {
	s := NewScraper(fetch.NewClient(config.HTTPConfig{Timeout: 5}))
	s.storeURL = srv.URL
	s.chartsURL = srv.URL
	s.pageDelay = time.Millisecond
	s.pause = func(time.Duration) {}
	return s
}

func TestRankings(t *testing.T) {
	s := newTestScraper(newTestServer(t))
	res := s.Rankings(context.Background())

	require.Len(t, res.MostPlayed, 100)
	for i, g := range res.MostPlayed {
		assert.Equal(t, i+1, g.Rank)
	}
	first := res.MostPlayed[0]
	assert.Equal(t, "1", first.AppID)
	assert.Equal(t, "Game 1", first.Name)
	assert.Equal(t, 99000, first.CCU)
	assert.Equal(t, "game1.jpg", first.Img)
	assert.Equal(t, "Pub", res.MostPlayed[1].Developer)
	assert.Equal(t, "h2.jpg", res.MostPlayed[1].Img)
	assert.Equal(t, PlaceholderImage, res.MostPlayed[2].Img)

	require.Len(t, res.TopSellers, 2)
	assert.Equal(t, "Counter-Strike 2", res.TopSellers[0].Name)
	assert.Equal(t, "무료", res.TopSellers[0].Price)
	assert.Equal(t, "Valve", res.TopSellers[0].Developer)
	assert.Equal(t, "cs2.jpg", res.TopSellers[0].Img)
	assert.Equal(t, 2, res.TopSellers[1].Rank)
	assert.Equal(t, "₩ 10,000", res.TopSellers[1].Price)
	assert.Equal(t, "-50%", res.TopSellers[1].Discount)
	assert.Equal(t, PlaceholderImage, res.TopSellers[1].Img)
}

func TestParseChartRowsCapsRank(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(chartPageHTML(5)))
	require.NoError(t, err)
	assert.Empty(t, ParseChartRows(doc.Find("#top-games tbody"), 5))

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(chartPageHTML(4)))
	require.NoError(t, err)
	rows := ParseChartRows(doc.Find("#top-games tbody"), 4)
	require.Len(t, rows, 25)
	assert.Equal(t, 76, rows[0].Rank)
	assert.Equal(t, 100, rows[24].Rank)
}

func TestChartPage(t *testing.T) {
	assert.Equal(t, 1, chartPage("/top"))
	assert.Equal(t, 3, chartPage("/top/p.3"))
	assert.Equal(t, 1, chartPage("/top/p.x"))
}

func TestParseDetails(t *testing.T) {
	res := gjson.Parse(`{"10":{"data":{"developers":[],"publishers":["P"],"header_image":"x"}}}`)
	d := parseDetails(res, "10")
	require.NotNil(t, d)
	assert.Equal(t, "P", d.Developer)
	assert.Nil(t, parseDetails(res, "11"))
}
