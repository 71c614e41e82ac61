package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistryMissing(t *testing.T) {
	s := NewStorage(t.TempDir(), "")
	reg, err := s.LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, "5.0.0", reg.Version)
	assert.Empty(t, reg.Games)
}

func TestRegistryRoundTripFormat(t *testing.T) {
	s := NewStorage(t.TempDir(), "")
	reg := models.NewRegistry()
	reg.Games["리니지M"] = &models.Game{
		AppIDs:  models.AppIDs{"ios": "1", "android": "com.ncsoft.lineagem"},
		Aliases: []string{"Lineage M"},
	}
	reg.TotalGames = 1
	require.NoError(t, s.SaveRegistry(reg))

	raw, err := os.ReadFile(s.RegistryPath())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, utf8BOM))
	assert.True(t, bytes.HasSuffix(raw, []byte("}\r\n")))
	assert.NotContains(t, string(bytes.ReplaceAll(raw, []byte("\r\n"), nil)), "\n")

	loaded, err := s.LoadRegistry()
	require.NoError(t, err)
	require.Contains(t, loaded.Games, "리니지M")
	g := loaded.Games["리니지M"]
	assert.Equal(t, "리니지M", g.Name)
	assert.Equal(t, "com.ncsoft.lineagem", g.AppIDs["android"])
	assert.Equal(t, 1, loaded.TotalGames)
}

func TestRegistryWritesEmptyAliases(t *testing.T) {
	s := NewStorage(t.TempDir(), "")
	reg := models.NewRegistry()
	reg.Games["Dota 2"] = &models.Game{AppIDs: models.AppIDs{"steam": "570"}}
	require.NoError(t, s.SaveRegistry(reg))

	raw, err := os.ReadFile(s.RegistryPath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"aliases": []`)
	assert.NotContains(t, string(raw), "null")

	loaded, err := s.LoadRegistry()
	require.NoError(t, err)
	assert.NotNil(t, loaded.Games["Dota 2"].Aliases)
}

func TestSnapshotsAndHistoryDates(t *testing.T) {
	s := NewStorage(t.TempDir(), "")
	for _, d := range []string{"2025-01-03", "2025-01-01", "2025-01-02"} {
		require.NoError(t, s.SaveSnapshot(d, &models.Snapshot{Timestamp: d}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.HistoryDir(), "2025-01-02-mentions.json"), []byte("{}"), 0o644))

	dates, err := s.HistoryDates()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, dates)

	date, snap, err := s.LatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", date)
	assert.Equal(t, "2025-01-03", snap.Timestamp)

	_, err = s.LoadSnapshot("1999-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportsWeeklyAndDocs(t *testing.T) {
	s := NewStorage(t.TempDir(), "site")
	require.NoError(t, s.SaveReport(&models.DailyReport{Date: "2025-02-01", Summary: []string{"a"}}))
	r, err := s.LoadReport("2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, r.Summary)

	_, err = s.LoadReport("2025-02-02")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.False(t, s.WeeklyExists("2025-W05"))
	require.NoError(t, s.SaveWeekly("2025-W05", &models.WeeklyReport{DailyReportCount: 7}))
	assert.True(t, s.WeeklyExists("2025-W05"))
	w, err := s.LoadWeekly("2025-W05")
	require.NoError(t, err)
	assert.Equal(t, 7, w.DailyReportCount)

	require.NoError(t, s.WriteDoc("games/a/index.html", []byte("<html>")))
	data, err := s.ReadDoc("games/a/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(data))
	assert.FileExists(t, filepath.Join(s.Root, "site", "games", "a", "index.html"))
	assert.True(t, s.DocExists("games/a/index.html"))
	assert.False(t, s.DocExists("games/b/index.html"))

	_, err = s.ReadDoc("missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWeeklyIDsSorted(t *testing.T) {
	s := NewStorage(t.TempDir(), "")
	ids, err := s.WeeklyIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"2025-W10", "2024-W52", "2025-W02"} {
		require.NoError(t, s.SaveWeekly(id, &models.WeeklyReport{}))
	}
	ids, err = s.WeeklyIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-W52", "2025-W02", "2025-W10"}, ids)
}

func TestLockRegistry(t *testing.T) {
	s := NewStorage(t.TempDir(), "")
	unlock, err := s.LockRegistry(context.Background())
	require.NoError(t, err)
	unlock()

	unlock, err = s.LockRegistry(context.Background())
	require.NoError(t, err)
	unlock()
}

func TestPopularGamesMissing(t *testing.T) {
	s := NewStorage(t.TempDir(), "")
	p, err := s.LoadPopularGames()
	require.NoError(t, err)
	assert.Empty(t, p.Games)
}
