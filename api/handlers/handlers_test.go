package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *storage.Storage, *FileBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := storage.NewStorage(t.TempDir(), "docs")

	reg := models.NewRegistry()
	reg.Games["원신"] = &models.Game{AppIDs: models.AppIDs{"ios": "1517783697"}, Aliases: []string{"Genshin Impact"}, Developer: "HoYoverse"}
	reg.Games["리니지M"] = &models.Game{Aliases: []string{"Lineage M"}}
	require.NoError(t, store.SaveRegistry(reg))
	require.NoError(t, store.SaveReport(&models.DailyReport{Date: "2025-03-10", Summary: []string{"s"}}))
	require.NoError(t, store.SaveWeekly("2025-W10", &models.WeeklyReport{DailyReportCount: 7}))

	backend, err := NewFileBackend(store)
	require.NoError(t, err)
	r := gin.New()
	NewHandler(backend).Register(r)
	return r, store, backend
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestSearchGames(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := get(r, "/games?q=genshin")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int `json:"count"`
		Games []struct {
			Name      string   `json:"name"`
			Slug      string   `json:"slug"`
			Aliases   []string `json:"aliases"`
			Developer string   `json:"developer"`
		} `json:"games"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "원신", body.Games[0].Name)
	assert.Equal(t, "genshin-impact", body.Games[0].Slug)
	assert.Equal(t, "HoYoverse", body.Games[0].Developer)

	assert.Equal(t, http.StatusBadRequest, get(r, "/games").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/games?q=a&limit=x").Code)

	w = get(r, "/games?q=m&limit=1")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestGetGame(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := get(r, "/games/lineage-m")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"리니지M"`)

	assert.Equal(t, http.StatusNotFound, get(r, "/games/nope").Code)
}

func TestReports(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := get(r, "/reports/2025-03-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"summary":["s"]`)
	assert.Equal(t, http.StatusNotFound, get(r, "/reports/2025-03-11").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/reports/latest").Code)

	w = get(r, "/reports/weekly/2025-W10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dailyReportCount":7`)
	assert.Equal(t, http.StatusNotFound, get(r, "/reports/weekly/2025-W11").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/reports/weekly/2025-10").Code)
}

func TestReviewQueueAndHealth(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := get(r, "/review-queue")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":0`)

	w = get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestWatchReloadsRegistry(t *testing.T) {
	_, store, backend := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- backend.Watch(ctx) }()

	reg, err := store.LoadRegistry()
	require.NoError(t, err)
	reg.Games["블루 아카이브"] = &models.Game{Slug: "blue-archive"}

	assert.Eventually(t, func() bool {
		if err := store.SaveRegistry(reg); err != nil {
			return false
		}
		_, err := backend.GameBySlug(ctx, "blue-archive")
		return err == nil
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestSearchPunctuationOnlyQuery(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := get(r, "/games?q=-")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"query":"-","count":0,"games":[]}`, w.Body.String())
}

func TestCollidingSlugs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewStorage(t.TempDir(), "docs")
	reg := models.NewRegistry()
	reg.Games["A B"] = &models.Game{AppIDs: models.AppIDs{"ios": "1"}}
	reg.Games["A-B"] = &models.Game{AppIDs: models.AppIDs{"ios": "2"}}
	require.NoError(t, store.SaveRegistry(reg))

	backend, err := NewFileBackend(store)
	require.NoError(t, err)
	r := gin.New()
	NewHandler(backend).Register(r)

	w := get(r, "/games/a-b")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"A B"`)

	w = get(r, "/games/a-b-2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"A-B"`)
	assert.Contains(t, w.Body.String(), `"slug":"a-b-2"`)
}
