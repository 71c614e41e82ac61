package models

// Snapshot is one crawl of every source, stored as history/<date>.json and data-cache.json.
type Snapshot struct {
	RunID      string           `bson:"run_id,omitempty" json:"runId,omitempty"`
	Timestamp  string           `bson:"timestamp" json:"timestamp"`
	Rankings   Rankings         `bson:"rankings" json:"rankings"`
	Steam      SteamRankings    `bson:"steam" json:"steam"`
	YouTube    YouTubeVideos    `bson:"youtube" json:"youtube"`
	Chzzk      []LiveStream     `bson:"chzzk" json:"chzzk"`
	Soop       []LiveStream     `bson:"soop" json:"soop"`
	News       NewsSources      `bson:"news" json:"news"`
	Community  CommunitySources `bson:"community" json:"community"`
	Upcoming   UpcomingSources  `bson:"upcoming" json:"upcoming"`
	Metacritic MetacriticList   `bson:"metacritic" json:"metacritic"`
}

// Rankings maps chart ("grossing", "free") to country code to platform lists.
type Rankings map[string]map[string]PlatformRanks

type PlatformRanks struct {
	IOS     []RankItem `bson:"ios" json:"ios"`
	Android []RankItem `bson:"android" json:"android"`
}

// Get returns the platform list or nil.
func (p PlatformRanks) Get(platform string) []RankItem {
	switch platform {
	case PlatformIOS:
		return p.IOS
	case PlatformAndroid:
		return p.Android
	}
	return nil
}

// List returns rankings[chart][country][platform], nil when any level is missing.
func (r Rankings) List(chart, country, platform string) []RankItem {
	byCountry, ok := r[chart]
	if !ok {
		return nil
	}
	lists, ok := byCountry[country]
	if !ok {
		return nil
	}
	return lists.Get(platform)
}

// Set stores items at rankings[chart][country][platform].
func (r Rankings) Set(chart, country, platform string, items []RankItem) {
	if r[chart] == nil {
		r[chart] = make(map[string]PlatformRanks)
	}
	lists := r[chart][country]
	switch platform {
	case PlatformIOS:
		lists.IOS = items
	case PlatformAndroid:
		lists.Android = items
	}
	r[chart][country] = lists
}

type RankItem struct {
	Rank      int    `bson:"rank" json:"rank"`
	AppID     string `bson:"app_id" json:"appId"`
	Title     string `bson:"title" json:"title"`
	Developer string `bson:"developer" json:"developer"`
	Icon      string `bson:"icon" json:"icon"`
	URL       string `bson:"url,omitempty" json:"url,omitempty"`
	Released  string `bson:"released,omitempty" json:"released,omitempty"`
}

type SteamRankings struct {
	MostPlayed []SteamGame `bson:"most_played" json:"mostPlayed"`
	TopSellers []SteamGame `bson:"top_sellers" json:"topSellers"`
}

type SteamGame struct {
	Rank      int    `bson:"rank" json:"rank"`
	AppID     string `bson:"appid" json:"appid"`
	Name      string `bson:"name" json:"name"`
	CCU       int    `bson:"ccu,omitempty" json:"ccu,omitempty"`
	Price     string `bson:"price,omitempty" json:"price,omitempty"`
	Discount  string `bson:"discount,omitempty" json:"discount,omitempty"`
	Developer string `bson:"developer" json:"developer"`
	Img       string `bson:"img" json:"img"`
}

type YouTubeVideos struct {
	Gaming []Video `bson:"gaming" json:"gaming"`
	Music  []Video `bson:"music" json:"music"`
}

type Video struct {
	Rank        int    `bson:"rank" json:"rank"`
	VideoID     string `bson:"video_id" json:"videoId"`
	Title       string `bson:"title" json:"title"`
	Channel     string `bson:"channel" json:"channel"`
	Thumbnail   string `bson:"thumbnail" json:"thumbnail"`
	Views       int64  `bson:"views" json:"views"`
	PublishedAt string `bson:"published_at" json:"publishedAt"`
}

type LiveStream struct {
	Rank      int    `bson:"rank" json:"rank"`
	Title     string `bson:"title" json:"title"`
	Channel   string `bson:"channel" json:"channel"`
	ChannelID string `bson:"channel_id,omitempty" json:"channelId,omitempty"`
	Thumbnail string `bson:"thumbnail" json:"thumbnail"`
	Viewers   int    `bson:"viewers" json:"viewers"`
	Category  string `bson:"category" json:"category"`
}

type NewsSources struct {
	Inven      []NewsItem `bson:"inven" json:"inven"`
	Ruliweb    []NewsItem `bson:"ruliweb" json:"ruliweb"`
	Gamemeca   []NewsItem `bson:"gamemeca" json:"gamemeca"`
	Thisisgame []NewsItem `bson:"thisisgame" json:"thisisgame"`
}

// Source returns the items of the named news source.
func (n NewsSources) Source(name string) []NewsItem {
	switch name {
	case "inven":
		return n.Inven
	case "ruliweb":
		return n.Ruliweb
	case "gamemeca":
		return n.Gamemeca
	case "thisisgame":
		return n.Thisisgame
	}
	return nil
}

type NewsItem struct {
	Title     string `bson:"title" json:"title"`
	Link      string `bson:"link" json:"link"`
	Tag       string `bson:"tag,omitempty" json:"tag,omitempty"`
	Thumbnail string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Source    string `bson:"source,omitempty" json:"source,omitempty"`
}

type CommunitySources struct {
	Ruliweb  []CommunityPost `bson:"ruliweb" json:"ruliweb"`
	Arca     []CommunityPost `bson:"arca" json:"arca"`
	Dcinside []CommunityPost `bson:"dcinside" json:"dcinside"`
	Inven    []CommunityPost `bson:"inven" json:"inven"`
}

// Source returns the posts of the named community.
func (c CommunitySources) Source(name string) []CommunityPost {
	switch name {
	case "ruliweb":
		return c.Ruliweb
	case "arca":
		return c.Arca
	case "dcinside":
		return c.Dcinside
	case "inven":
		return c.Inven
	}
	return nil
}

type CommunityPost struct {
	Title   string `bson:"title" json:"title"`
	Link    string `bson:"link" json:"link"`
	Channel string `bson:"channel,omitempty" json:"channel,omitempty"`
	Source  string `bson:"source,omitempty" json:"source,omitempty"`
}

type UpcomingSources struct {
	Steam    []UpcomingGame `bson:"steam" json:"steam"`
	Nintendo []UpcomingGame `bson:"nintendo" json:"nintendo"`
	PS5      []UpcomingGame `bson:"ps5" json:"ps5"`
	Mobile   []UpcomingGame `bson:"mobile" json:"mobile"`
}

type UpcomingGame struct {
	Rank        int    `bson:"rank" json:"rank"`
	Name        string `bson:"name" json:"name"`
	AppID       string `bson:"appid,omitempty" json:"appid,omitempty"`
	Img         string `bson:"img" json:"img"`
	Link        string `bson:"link" json:"link"`
	ReleaseDate string `bson:"release_date" json:"releaseDate"`
	Publisher   string `bson:"publisher" json:"publisher"`
}

type MetacriticList struct {
	Year  int              `bson:"year" json:"year"`
	Games []MetacriticGame `bson:"games" json:"games"`
}

type MetacriticGame struct {
	Rank        int    `bson:"rank" json:"rank"`
	Title       string `bson:"title" json:"title"`
	Score       int    `bson:"score" json:"score"`
	Platform    string `bson:"platform" json:"platform"`
	ReleaseDate string `bson:"release_date" json:"releaseDate"`
	Img         string `bson:"img" json:"img"`
	Year        int    `bson:"year" json:"year"`
}
