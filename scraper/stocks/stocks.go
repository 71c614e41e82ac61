// Package stocks reads game industry share prices from Naver Finance.
package stocks

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/korean"
)

var (
	codeRe      = regexp.MustCompile(`code=(\d{6})`)
	dateRe      = regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}`)
	stockNameRe = regexp.MustCompile(`^(.+?)\s*\((\d{6})\)$`)

	naverHeaders = map[string]string{"Referer": "https://finance.naver.com/"}
)

type Client struct {
	http    *fetch.Client
	baseURL string

	mu     sync.Mutex
	cached map[string]string
}

func NewClient(httpClient *fetch.Client) *Client {
	return &Client{
		http:    httpClient,
		baseURL: "https://finance.naver.com",
		cached:  map[string]string{},
	}
}

// ParseStockName splits "엔씨소프트(036570)" into name and code. Without a
// code suffix the trimmed input is returned as the name.
func ParseStockName(s string) (name, code string) {
	s = strings.TrimSpace(s)
	if m := stockNameRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return s, ""
}

func (c *Client) document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.http.Get(ctx, rawURL, naverHeaders)
	if err != nil {
		return nil, err
	}
	utf8Body, err := korean.EUCKR.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EUC-KR: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(utf8Body)))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

// GameStocks returns name → code for the game industry group. On failure the
// last successful list is returned.
func (c *Client) GameStocks(ctx context.Context) map[string]string {
	doc, err := c.document(ctx, c.baseURL+"/sise/sise_group_detail.naver?type=upjong&no=263")
	if err != nil {
		log.WithField("source", "naver").Warnf("game stock list failed: %v", err)
		return c.lastList()
	}
	list := ParseGroup(doc.Selection)
	if len(list) == 0 {
		log.WithField("source", "naver").Warn("game stock list is empty")
		return map[string]string{}
	}
	c.mu.Lock()
	c.cached = list
	c.mu.Unlock()
	log.Printf("Game stocks: %d", len(list))
	return list
}

func (c *Client) lastList() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.cached))
	for k, v := range c.cached {
		out[k] = v
	}
	return out
}

func ParseGroup(root *goquery.Selection) map[string]string {
	list := make(map[string]string)
	root.Find("table.type_5 tbody tr").Each(func(_ int, row *goquery.Selection) {
		a := row.Find("td").First().Find("a")
		name := strings.TrimSpace(a.Text())
		href, _ := a.Attr("href")
		if m := codeRe.FindStringSubmatch(href); name != "" && m != nil {
			list[name] = m[1]
		}
	})
	return list
}

// DailyPrice returns the previous close of code, or the latest row when only
// one is listed.
func (c *Client) DailyPrice(ctx context.Context, code string) (*models.StockPrice, error) {
	doc, err := c.document(ctx, c.baseURL+"/item/sise_day.naver?code="+code)
	if err != nil {
		return nil, err
	}
	rows := ParseDaily(doc.Selection)
	switch {
	case len(rows) >= 2:
		return &rows[1], nil
	case len(rows) == 1:
		return &rows[0], nil
	}
	return nil, fmt.Errorf("no price rows for %s", code)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	return n
}

func ParseDaily(root *goquery.Selection) []models.StockPrice {
	var rows []models.StockPrice
	root.Find("table.type2 tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 7 {
			return
		}
		date := strings.TrimSpace(tds.Eq(0).Text())
		if !dateRe.MatchString(date) {
			return
		}
		price := atoi(tds.Eq(1).Text())
		changeCell := tds.Eq(2)
		change := atoi(changeCell.Find("span.tah").Text())
		if changeCell.Find("em.bu_pdn").Length() > 0 {
			change = -change
		}
		var percent float64
		if price > 0 && price != change {
			percent = math.Round(float64(change)/float64(price-change)*100*100) / 100
		}
		high, low := atoi(tds.Eq(3).Text()), atoi(tds.Eq(4).Text())
		if high == 0 {
			high = price
		}
		if low == 0 {
			low = price
		}
		rows = append(rows, models.StockPrice{
			Date:          date,
			Price:         price,
			Change:        change,
			ChangePercent: percent,
			High:          high,
			Low:           low,
			Volume:        atoi(tds.Eq(5).Text()),
		})
	})
	return rows
}

// Prices resolves picks to codes, through the code suffix of the name or the
// industry list, and fetches their prices concurrently.
func (c *Client) Prices(ctx context.Context, picks []models.StockPick) (map[string]string, map[string]models.StockPrice) {
	stockMap := c.GameStocks(ctx)

	codes := make(map[string]bool)
	for _, p := range picks {
		name, code := ParseStockName(p.Name)
		if code == "" {
			code = p.Code
		}
		if code == "" {
			code = stockMap[name]
		}
		if code != "" {
			codes[code] = true
		}
	}

	var mu sync.Mutex
	prices := make(map[string]models.StockPrice)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for code := range codes {
		g.Go(func() error {
			price, err := c.DailyPrice(gctx, code)
			if err != nil {
				log.WithField("code", code).Warnf("stock price failed: %v", err)
				return nil
			}
			mu.Lock()
			prices[code] = *price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	log.Printf("Stock prices: %d", len(prices))
	return stockMap, prices
}
