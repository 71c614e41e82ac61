package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var weekIDRe = regexp.MustCompile(`^\d{4}-W\d{2}$`)

// Backend is implemented by the Mongo repository and by FileBackend.
type Backend interface {
	SearchGames(ctx context.Context, q string, limit int) ([]*models.Game, error)
	GameBySlug(ctx context.Context, slug string) (*models.Game, error)
	Report(ctx context.Context, date string) (*models.DailyReport, error)
	Weekly(ctx context.Context, id string) (*models.WeeklyReport, error)
	ReviewQueue(ctx context.Context) (*models.ReviewQueue, error)
}

type Handler struct {
	backend Backend
}

func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/games", h.SearchGames)
	r.GET("/games/:slug", h.GetGame)
	r.GET("/reports/weekly/:week", h.GetWeekly)
	r.GET("/reports/:date", h.GetReport)
	r.GET("/review-queue", h.GetReviewQueue)
}

// gameResponse restores the name, which games.json keeps as the map key.
type gameResponse struct {
	Name string `json:"name"`
	*models.Game
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log.Warnf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SearchGames handles GET /games?q=&limit=
func (h *Handler) SearchGames(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit := defaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		limit = min(n, maxLimit)
	}

	games, err := h.backend.SearchGames(c, q, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, gameResponse{Name: g.Name, Game: g})
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "count": len(out), "games": out})
}

// GetGame handles GET /games/:slug
func (h *Handler) GetGame(c *gin.Context) {
	g, err := h.backend.GameBySlug(c, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameResponse{Name: g.Name, Game: g})
}

// GetReport handles GET /reports/:date
func (h *Handler) GetReport(c *gin.Context) {
	date := c.Param("date")
	if _, err := kst.ParseDate(date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	r, err := h.backend.Report(c, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetWeekly handles GET /reports/weekly/:week
func (h *Handler) GetWeekly(c *gin.Context) {
	id := c.Param("week")
	if !weekIDRe.MatchString(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week must look like 2025-W10"})
		return
	}
	w, err := h.backend.Weekly(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) GetReviewQueue(c *gin.Context) {
	q, err := h.backend.ReviewQueue(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":  len(q.Pending),
		"approved": len(q.Approved),
		"rejected": len(q.Rejected),
		"queue":    q,
	})
}
