package models

import "encoding/json"

const (
	ChangeNew  = "new"
	ChangeUp   = "up"
	ChangeDown = "down"
	ChangeSame = "same"
)

// DailyReport is reports/<date>.json.
type DailyReport struct {
	Date             string                     `json:"date"`
	GeneratedAt      string                     `json:"generatedAt,omitempty"`
	HasYesterdayData bool                       `json:"hasYesterdayData"`
	Summary          []string                   `json:"summary"`
	Mobile           map[string]PlatformChanges `json:"mobile"`
	Steam            []SteamChange              `json:"steam"`
	News             []Highlight                `json:"news"`
	Community        []Highlight                `json:"community"`

	AI            *AIInsight            `json:"ai,omitempty"`
	AIGeneratedAt string                `json:"aiGeneratedAt,omitempty"`
	StockMap      map[string]string     `json:"stockMap,omitempty"`
	StockPrices   map[string]StockPrice `json:"stockPrices,omitempty"`
}

type PlatformChanges struct {
	IOS     []RankChange `json:"ios"`
	Android []RankChange `json:"android"`
}

func (p PlatformChanges) Get(platform string) []RankChange {
	if platform == PlatformAndroid {
		return p.Android
	}
	return p.IOS
}

type RankChange struct {
	Rank          int    `json:"rank"`
	Title         string `json:"title"`
	Developer     string `json:"developer,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Change        int    `json:"change"`
	Status        string `json:"status"`
	YesterdayRank int    `json:"yesterdayRank,omitempty"`
}

type SteamChange struct {
	Rank      int    `json:"rank"`
	Name      string `json:"name"`
	CCU       int    `json:"ccu"`
	CCUChange int    `json:"ccuChange"`
	Change    int    `json:"change"`
	Status    string `json:"status"`
	Image     string `json:"image,omitempty"`
}

type Highlight struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Channel   string `json:"channel,omitempty"`
}

// AIInsight is the object produced by the insight writer. Daily and weekly
// insights share it; the weekly one also fills MVP, Releases and Global.
type AIInsight struct {
	Date           string          `json:"date"`
	WeekNumber     int             `json:"weekNumber,omitempty"`
	Summary        string          `json:"summary"`
	Headline       string          `json:"headline"`
	Thumbnail      string          `json:"thumbnail,omitempty"`
	Issues         []InsightCard   `json:"issues"`
	IndustryIssues []InsightCard   `json:"industryIssues"`
	Metrics        []InsightCard   `json:"metrics"`
	Rankings       []RankingCard   `json:"rankings,omitempty"`
	Community      []InsightCard   `json:"community"`
	Streaming      []InsightCard   `json:"streaming"`
	Stocks         json.RawMessage `json:"stocks,omitempty"`
	MVP            *MVP            `json:"mvp,omitempty"`
	Releases       []Release       `json:"releases,omitempty"`
	Global         []InsightCard   `json:"global,omitempty"`
}

// StockPicks decodes the daily form of Stocks, a list of {name, comment}.
// The weekly {up, down} form yields nil.
func (a *AIInsight) StockPicks() []StockPick {
	if a == nil || len(a.Stocks) == 0 {
		return nil
	}
	var picks []StockPick
	if err := json.Unmarshal(a.Stocks, &picks); err != nil {
		return nil
	}
	return picks
}

type InsightCard struct {
	Tag       string `json:"tag"`
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type RankingCard struct {
	Tag      string `json:"tag"`
	Title    string `json:"title"`
	PrevRank int    `json:"prevRank,omitempty"`
	Rank     int    `json:"rank"`
	Change   int    `json:"change"`
	Platform string `json:"platform"`
	Desc     string `json:"desc,omitempty"`
}

type StockPick struct {
	Name    string `json:"name"`
	Code    string `json:"code,omitempty"`
	Comment string `json:"comment"`
}

type MVP struct {
	Name       string   `json:"name"`
	Tag        string   `json:"tag"`
	Desc       string   `json:"desc"`
	Highlights []string `json:"highlights"`
}

type Release struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Platform string `json:"platform"`
	Type     string `json:"type"`
	Desc     string `json:"desc"`
}

type StockPrice struct {
	Date          string  `json:"date"`
	Price         int     `json:"price"`
	Change        int     `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          int     `json:"high"`
	Low           int     `json:"low"`
	Volume        int     `json:"volume"`
}

// WeekInfo identifies a Monday to Sunday week.
type WeekInfo struct {
	Year       int      `json:"year"`
	WeekNumber int      `json:"weekNumber"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dates      []string `json:"dates"`
}

// WeeklyReport is reports/weekly/<YYYY>-W<NN>.json.
type WeeklyReport struct {
	WeekInfo         WeekInfo   `json:"weekInfo"`
	GeneratedAt      string     `json:"generatedAt"`
	DailyReportCount int        `json:"dailyReportCount"`
	AI               *AIInsight `json:"ai"`
}
