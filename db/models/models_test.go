package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppIDsAcceptNumbers(t *testing.T) {
	var g Game
	err := json.Unmarshal([]byte(`{"appIds":{"ios":1234567890,"android":"com.example.game","steam":"730"}}`), &g)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", g.AppIDs["ios"])
	assert.Equal(t, "com.example.game", g.AppIDs["android"])
	assert.True(t, g.AppIDs.Contains("730"))
}

func TestSearchResultNumericAppID(t *testing.T) {
	var item PendingItem
	err := json.Unmarshal([]byte(`{"title":"A","searchResults":[{"title":"B","appId":42}]}`), &item)
	require.NoError(t, err)
	require.Len(t, item.SearchResults, 1)
	assert.Equal(t, "42", item.SearchResults[0].AppID)
}

func TestGameAliasesAndPlatforms(t *testing.T) {
	g := &Game{AppIDs: AppIDs{}}
	assert.True(t, g.AddAlias("Other", "Main"))
	assert.False(t, g.AddAlias("Other", "Main"))
	assert.False(t, g.AddAlias("Main", "Main"))
	assert.False(t, g.AddAlias("", "Main"))
	g.AddPlatform("ios")
	g.AddPlatform("ios")
	assert.Equal(t, []string{"Other"}, g.Aliases)
	assert.Equal(t, []string{"ios"}, g.Platforms)
	assert.Equal(t, "ios", KeyPlatform("ios:jp"))
	assert.Equal(t, "steam", KeyPlatform("steam"))
}

func TestRankingsSetAndList(t *testing.T) {
	r := Rankings{}
	r.Set("grossing", "kr", PlatformAndroid, []RankItem{{Rank: 1, Title: "x"}})
	assert.Len(t, r.List("grossing", "kr", PlatformAndroid), 1)
	assert.Nil(t, r.List("grossing", "kr", PlatformIOS))
	assert.Nil(t, r.List("free", "jp", PlatformIOS))
}

func TestStockPicks(t *testing.T) {
	daily := &AIInsight{Stocks: json.RawMessage(`[{"name":"엔씨소프트(036570)","comment":"신작"}]`)}
	assert.Equal(t, []StockPick{{Name: "엔씨소프트(036570)", Comment: "신작"}}, daily.StockPicks())

	weekly := &AIInsight{Stocks: json.RawMessage(`{"up":[],"down":[]}`)}
	assert.Nil(t, weekly.StockPicks())
}
