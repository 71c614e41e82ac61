package insight

import (
	"context"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNews = []newsThumb{
	{title: "원신 캐릭터 푸리나 공개", thumbnail: "https://static.inven.co.kr/furina.jpg"},
	{title: "리니지 매출 급등 소식", thumbnail: "//img.ruliweb.com/lineage.jpg"},
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"원신", "캐릭터"}, keywords("원신 신규 캐릭터 업데이트 2025 공개! 원신"))
	assert.Equal(t, []string{"Genshin", "PS5"}, keywords("Genshin: PS5 genshin x"))
	assert.Empty(t, keywords("오늘 공개"))
}

func TestBestNewsThumbnail(t *testing.T) {
	m := bestNewsThumbnail("원신 캐릭터 인기", testNews)
	require.NotNil(t, m)
	assert.True(t, m.strict)
	assert.Equal(t, 5, m.score)
	assert.Equal(t, "https://static.inven.co.kr/furina.jpg", m.thumbnail)

	m = bestNewsThumbnail("리니지 모바일 매출 반등", testNews)
	require.NotNil(t, m)
	assert.False(t, m.strict)
	assert.Equal(t, "//img.ruliweb.com/lineage.jpg", m.thumbnail)

	assert.Nil(t, bestNewsThumbnail("리니지 모바일 이벤트", testNews))
}

func TestRepairInsightRules(t *testing.T) {
	loose := func(thumb string) *models.AIInsight {
		return &models.AIInsight{Issues: []models.InsightCard{{Title: "리니지 모바일 매출 반등", Thumbnail: thumb}}}
	}

	ai := loose("https://img.ruliweb.com/old.jpg")
	assert.Empty(t, repairInsight(ai, false, testNews, ThumbnailOptions{}))
	changes := repairInsight(ai, false, testNews, ThumbnailOptions{Aggressive: true})
	require.Len(t, changes, 1)
	assert.Equal(t, "ai.issues[0].thumbnail", changes[0].Path)
	assert.Equal(t, "//img.ruliweb.com/lineage.jpg", ai.Issues[0].Thumbnail)

	for _, old := range []string{"", "https://cdn.example.com/a.png", "https://www.inven.co.kr/webzine/news/?news=1"} {
		ai = loose(old)
		assert.Len(t, repairInsight(ai, false, testNews, ThumbnailOptions{}), 1, old)
	}
	ai = loose("")
	assert.Empty(t, repairInsight(ai, false, testNews, ThumbnailOptions{StrictOnly: true}))

	ai = loose("https://img.ruliweb.com/lineage.jpg")
	assert.Empty(t, repairInsight(ai, false, testNews, ThumbnailOptions{Aggressive: true}))

	weekly := &models.AIInsight{Global: []models.InsightCard{{Title: "원신 캐릭터 해외 반응"}}}
	assert.Empty(t, repairInsight(weekly, false, testNews, ThumbnailOptions{}))
	assert.Len(t, repairInsight(weekly, true, testNews, ThumbnailOptions{}), 1)
}

func TestRepairThumbnails(t *testing.T) {
	s, store, _ := newTestService(t, nil)
	snap := &models.Snapshot{}
	snap.News.Inven = []models.NewsItem{{Title: "원신 캐릭터 푸리나 공개", Thumbnail: "https://static.inven.co.kr/furina.jpg"}}
	require.NoError(t, store.SaveSnapshot("2025-03-05", snap))

	require.NoError(t, store.SaveReport(&models.DailyReport{Date: "2025-03-05", AI: &models.AIInsight{
		Issues: []models.InsightCard{{Title: "원신 캐릭터 인기", Thumbnail: "https://example.com/x.png"}},
	}}))
	require.NoError(t, store.SaveReport(&models.DailyReport{Date: "2025-03-06"}))
	require.NoError(t, store.SaveWeekly("2025-W10", &models.WeeklyReport{
		WeekInfo: models.WeekInfo{StartDate: "2025-03-03", EndDate: "2025-03-09"},
		AI:       &models.AIInsight{Headline: "원신 캐릭터 돌풍"},
	}))

	res, err := s.RepairThumbnails(context.Background(), ThumbnailOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 0, res.Updated)
	require.Len(t, res.Changes, 2)
	assert.Equal(t, "reports/2025-03-05.json", res.Changes[0].Report)
	assert.Equal(t, "reports/weekly/2025-W10.json", res.Changes[1].Report)
	assert.Equal(t, "ai.thumbnail", res.Changes[1].Path)

	r, err := store.LoadReport("2025-03-05")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x.png", r.AI.Issues[0].Thumbnail)

	res, err = s.RepairThumbnails(context.Background(), ThumbnailOptions{Apply: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	r, err = store.LoadReport("2025-03-05")
	require.NoError(t, err)
	assert.Equal(t, "https://static.inven.co.kr/furina.jpg", r.AI.Issues[0].Thumbnail)
	w, err := store.LoadWeekly("2025-W10")
	require.NoError(t, err)
	assert.Equal(t, "https://static.inven.co.kr/furina.jpg", w.AI.Thumbnail)

	res, err = s.RepairThumbnails(context.Background(), ThumbnailOptions{Apply: true})
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
}
