package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Storage struct {
	Root    string
	DocsDir string
	lock    *flock.Flock
}

func NewStorage(root, docsDir string) *Storage {
	if root == "" {
		root = "."
	}
	if docsDir == "" {
		docsDir = "docs"
	}
	if !filepath.IsAbs(docsDir) {
		docsDir = filepath.Join(root, docsDir)
	}
	return &Storage{
		Root:    root,
		DocsDir: docsDir,
		lock:    flock.New(filepath.Join(root, "data", ".games.lock")),
	}
}

func (s *Storage) HistoryDir() string      { return filepath.Join(s.Root, "history") }
func (s *Storage) ReportsDir() string      { return filepath.Join(s.Root, "reports") }
func (s *Storage) WeeklyDir() string       { return filepath.Join(s.Root, "reports", "weekly") }
func (s *Storage) DataDir() string         { return filepath.Join(s.Root, "data") }
func (s *Storage) RegistryPath() string    { return filepath.Join(s.DataDir(), "games.json") }
func (s *Storage) ReviewQueuePath() string { return filepath.Join(s.DataDir(), "review-queue.json") }
func (s *Storage) PopularPath() string     { return filepath.Join(s.DataDir(), "popular-games.json") }
func (s *Storage) CachePath() string       { return filepath.Join(s.Root, "data-cache.json") }

// LockRegistry blocks until the registry lock is held or ctx ends.
func (s *Storage) LockRegistry(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(s.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	ok, err := s.lock.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire registry lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire registry lock: %w", ctx.Err())
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			log.Warnf("failed to release registry lock: %v", err)
		}
	}, nil
}

func (s *Storage) LoadRegistry() (*models.Registry, error) {
	reg := models.NewRegistry()
	found, err := readJSON(s.RegistryPath(), reg)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	if !found {
		return reg, nil
	}
	if reg.Games == nil {
		reg.Games = make(map[string]*models.Game)
	}
	for name, g := range reg.Games {
		if g == nil {
			g = &models.Game{}
			reg.Games[name] = g
		}
		if g.AppIDs == nil {
			g.AppIDs = models.AppIDs{}
		}
		if g.Aliases == nil {
			g.Aliases = []string{}
		}
		g.Name = name
	}
	return reg, nil
}

// SaveRegistry writes games.json with a BOM and CRLF line endings.
func (s *Storage) SaveRegistry(reg *models.Registry) error {
	for _, g := range reg.Games {
		if g == nil {
			continue
		}
		if g.AppIDs == nil {
			g.AppIDs = models.AppIDs{}
		}
		if g.Aliases == nil {
			g.Aliases = []string{}
		}
	}
	return writeJSON(s.RegistryPath(), reg, true)
}

func (s *Storage) LoadReviewQueue() (*models.ReviewQueue, error) {
	q := models.NewReviewQueue()
	if _, err := readJSON(s.ReviewQueuePath(), q); err != nil {
		return nil, fmt.Errorf("failed to load review queue: %w", err)
	}
	if q.Pending == nil {
		q.Pending = []*models.PendingItem{}
	}
	if q.Approved == nil {
		q.Approved = []*models.PendingItem{}
	}
	if q.Rejected == nil {
		q.Rejected = []*models.PendingItem{}
	}
	return q, nil
}

func (s *Storage) SaveReviewQueue(q *models.ReviewQueue) error {
	return writeJSON(s.ReviewQueuePath(), q, true)
}

func (s *Storage) SaveSnapshot(date string, snap *models.Snapshot) error {
	return writeJSON(filepath.Join(s.HistoryDir(), date+".json"), snap, false)
}

func (s *Storage) LoadSnapshot(date string) (*models.Snapshot, error) {
	var snap models.Snapshot
	found, err := readJSON(filepath.Join(s.HistoryDir(), date+".json"), &snap)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", date, err)
	}
	if !found {
		return nil, fmt.Errorf("snapshot %s: %w", date, ErrNotFound)
	}
	return &snap, nil
}

// HistoryDates lists snapshot dates in ascending order. Files whose names
// contain "mentions" are not snapshots.
func (s *Storage) HistoryDates() ([]string, error) {
	return listJSON(s.HistoryDir(), func(name string) bool {
		return !strings.Contains(name, "mentions")
	})
}

// LatestSnapshot returns the newest history snapshot and its date.
func (s *Storage) LatestSnapshot() (string, *models.Snapshot, error) {
	dates, err := s.HistoryDates()
	if err != nil {
		return "", nil, err
	}
	if len(dates) == 0 {
		return "", nil, fmt.Errorf("history: %w", ErrNotFound)
	}
	date := dates[len(dates)-1]
	snap, err := s.LoadSnapshot(date)
	return date, snap, err
}

func (s *Storage) SaveCache(snap *models.Snapshot) error {
	return writeJSON(s.CachePath(), snap, false)
}

func (s *Storage) LoadCache() (*models.Snapshot, error) {
	var snap models.Snapshot
	found, err := readJSON(s.CachePath(), &snap)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("data cache: %w", ErrNotFound)
	}
	return &snap, nil
}

func (s *Storage) SaveReport(r *models.DailyReport) error {
	return writeJSON(filepath.Join(s.ReportsDir(), r.Date+".json"), r, false)
}

func (s *Storage) LoadReport(date string) (*models.DailyReport, error) {
	var r models.DailyReport
	found, err := readJSON(filepath.Join(s.ReportsDir(), date+".json"), &r)
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", date, err)
	}
	if !found {
		return nil, fmt.Errorf("report %s: %w", date, ErrNotFound)
	}
	return &r, nil
}

// ReportDates lists daily report dates in ascending order.
func (s *Storage) ReportDates() ([]string, error) {
	return listJSON(s.ReportsDir(), nil)
}

func (s *Storage) SaveWeekly(id string, w *models.WeeklyReport) error {
	return writeJSON(filepath.Join(s.WeeklyDir(), id+".json"), w, false)
}

func (s *Storage) LoadWeekly(id string) (*models.WeeklyReport, error) {
	var w models.WeeklyReport
	found, err := readJSON(filepath.Join(s.WeeklyDir(), id+".json"), &w)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly report %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("weekly report %s: %w", id, ErrNotFound)
	}
	return &w, nil
}

// WeeklyIDs lists weekly report IDs such as 2025-W10 in ascending order.
func (s *Storage) WeeklyIDs() ([]string, error) {
	return listJSON(s.WeeklyDir(), nil)
}

func (s *Storage) WeeklyExists(id string) bool {
	_, err := os.Stat(filepath.Join(s.WeeklyDir(), id+".json"))
	return err == nil
}

func (s *Storage) SavePopularGames(p *models.PopularGames) error {
	return writeJSON(s.PopularPath(), p, false)
}

// LoadPopularGames returns an empty list when the file is missing.
func (s *Storage) LoadPopularGames() (*models.PopularGames, error) {
	p := &models.PopularGames{Games: []models.PopularGame{}}
	if _, err := readJSON(s.PopularPath(), p); err != nil {
		return nil, fmt.Errorf("failed to load popular games: %w", err)
	}
	return p, nil
}

// WriteDoc writes data under the docs directory.
func (s *Storage) WriteDoc(rel string, data []byte) error {
	return writeFile(filepath.Join(s.DocsDir, filepath.FromSlash(rel)), data)
}

// WriteDocJSON writes v as indented JSON under the docs directory.
func (s *Storage) WriteDocJSON(rel string, v any) error {
	return writeJSON(filepath.Join(s.DocsDir, filepath.FromSlash(rel)), v, false)
}

func (s *Storage) DocExists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.DocsDir, filepath.FromSlash(rel)))
	return err == nil
}

// ReadDoc reads a file under the docs directory.
func (s *Storage) ReadDoc(rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.DocsDir, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("doc %s: %w", rel, ErrNotFound)
	}
	return data, err
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeJSON(path string, v any, windows bool) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	data := buf.Bytes()
	if windows {
		data = bytes.TrimRight(data, "\n")
		data = bytes.ReplaceAll(data, []byte("\n"), []byte("\r\n"))
		data = append(append(append([]byte{}, utf8BOM...), data...), '\r', '\n')
	}
	return writeFile(path, data)
}

// writeFile writes to a temp file in the target directory and renames it
// into place.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

func listJSON(dir string, keep func(string) bool) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")
		if keep != nil && !keep(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
