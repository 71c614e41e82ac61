package repository

import (
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSearchFilter(t *testing.T) {
	_, ok := SearchFilter("")
	assert.False(t, ok)
	_, ok = SearchFilter(" - ")
	assert.False(t, ok)

	f, ok := SearchFilter("Lost.Ark: Mobile")
	require.True(t, ok)
	re, ok := f["search_keys"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, `lost\.ark mobile`, re.Pattern)
}

func TestGameDocsUseSiteSlugs(t *testing.T) {
	reg := models.NewRegistry()
	reg.Games["A-B"] = &models.Game{AppIDs: models.AppIDs{"ios": "1"}}
	reg.Games["A B"] = &models.Game{AppIDs: models.AppIDs{"ios": "2"}}
	reg.Games["原神"] = &models.Game{}
	reg.Games["원신"] = &models.Game{Slug: "genshin", Aliases: []string{"Genshin: Impact"}}

	docs := gameDocs(reg)
	require.Len(t, docs, 4)
	got := make(map[string]string, len(docs))
	for _, d := range docs {
		got[d.Name] = d.Slug
	}
	assert.Equal(t, map[string]string{"A B": "a-b", "A-B": "a-b-2", "原神": "", "원신": "genshin"}, got)
	assert.Equal(t, "A B", docs[0].Name)
	assert.Equal(t, []string{"원신", "genshin impact"}, docs[3].SearchKeys)

	raw, err := bson.Marshal(docs[1])
	require.NoError(t, err)
	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "A-B", m["name"])
	assert.Equal(t, "a-b-2", m["slug"])
	assert.Contains(t, m, "search_keys")
	assert.NotContains(t, m, "game")

	raw, err = bson.Marshal(docs[2])
	require.NoError(t, err)
	m = bson.M{}
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.NotContains(t, m, "slug")
}
