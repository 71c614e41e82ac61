package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformSteam   = "steam"

	RegistryVersion = "5.0.0"
)

// Registry is data/games.json: every known game keyed by its display name.
type Registry struct {
	Version     string           `bson:"version" json:"version"`
	Games       map[string]*Game `bson:"games" json:"games"`
	TotalGames  int              `bson:"total_games,omitempty" json:"totalGames,omitempty"`
	LastUpdated string           `bson:"last_updated,omitempty" json:"lastUpdated,omitempty"`
	LastMerged  string           `bson:"last_merged,omitempty" json:"lastMerged,omitempty"`
}

func NewRegistry() *Registry {
	return &Registry{
		Version: RegistryVersion,
		Games:   make(map[string]*Game),
	}
}

// Game is one registry entry. AppIDs keys are a platform ("ios", "android",
// "steam") or a regional variant "platform:region".
type Game struct {
	Name      string   `bson:"name" json:"-"`
	AppIDs    AppIDs   `bson:"app_ids" json:"appIds"`
	Aliases   []string `bson:"aliases" json:"aliases"`
	Developer string   `bson:"developer" json:"developer"`
	Icon      string   `bson:"icon" json:"icon"`
	Slug      string   `bson:"slug,omitempty" json:"slug,omitempty"`
	Platforms []string `bson:"platforms,omitempty" json:"platforms,omitempty"`
}

// HasAlias reports whether name is already one of the aliases.
func (g *Game) HasAlias(name string) bool {
	for _, a := range g.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// AddAlias appends name unless it is empty, equal to owner or already present.
func (g *Game) AddAlias(name, owner string) bool {
	if name == "" || name == owner || g.HasAlias(name) {
		return false
	}
	g.Aliases = append(g.Aliases, name)
	return true
}

// AddPlatform appends platform when missing.
func (g *Game) AddPlatform(platform string) {
	for _, p := range g.Platforms {
		if p == platform {
			return
		}
	}
	g.Platforms = append(g.Platforms, platform)
}

// AppIDs maps a platform key to a store id. Older files store some ids as
// JSON numbers, so decoding accepts both.
type AppIDs map[string]string

func (a *AppIDs) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(AppIDs, len(raw))
	for k, v := range raw {
		id, err := decodeID(v)
		if err != nil {
			return fmt.Errorf("appIds.%s: %w", k, err)
		}
		out[k] = id
	}
	*a = out
	return nil
}

// Contains reports whether id is any of the values.
func (a AppIDs) Contains(id string) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// KeyPlatform returns the platform part of a key such as "ios:jp".
func KeyPlatform(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func decodeID(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return "", nil
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

const (
	StatusMatched = "matched"
	StatusSingle  = "single"
)

// ReviewQueue is data/review-queue.json.
type ReviewQueue struct {
	Pending  []*PendingItem `bson:"pending" json:"pending"`
	Approved []*PendingItem `bson:"approved" json:"approved"`
	Rejected []*PendingItem `bson:"rejected" json:"rejected"`
}

func NewReviewQueue() *ReviewQueue {
	return &ReviewQueue{
		Pending:  []*PendingItem{},
		Approved: []*PendingItem{},
		Rejected: []*PendingItem{},
	}
}

type PendingItem struct {
	ID            string         `bson:"id,omitempty" json:"id,omitempty"`
	Title         string         `bson:"title" json:"title"`
	Status        string         `bson:"status" json:"status"`
	AppIDs        AppIDs         `bson:"app_ids" json:"appIds"`
	Developer     string         `bson:"developer" json:"developer"`
	Icon          string         `bson:"icon" json:"icon"`
	SearchResults []SearchResult `bson:"search_results" json:"searchResults"`
	AddedAt       string         `bson:"added_at,omitempty" json:"addedAt,omitempty"`
	LastSearched  string         `bson:"last_searched,omitempty" json:"lastSearched,omitempty"`
}

type SearchResult struct {
	Title     string `bson:"title" json:"title"`
	AppID     string `bson:"app_id" json:"appId"`
	Developer string `bson:"-" json:"-"`
}

func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title string          `json:"title"`
		AppID json.RawMessage `json:"appId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.AppID)
	if err != nil {
		return err
	}
	r.Title = raw.Title
	r.AppID = id
	return nil
}

// PopularGame is one entry of data/popular-games.json.
type PopularGame struct {
	Slug  string `bson:"slug" json:"slug"`
	Views int    `bson:"views" json:"views"`
}

type PopularGames struct {
	UpdatedAt string        `json:"updatedAt"`
	Period    string        `json:"period"`
	Games     []PopularGame `json:"games"`
}
