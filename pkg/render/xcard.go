package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
)

const (
	cardWidth  = 1200
	cardHeight = 675
	cardIssues = 3

	cardImage = "images/x-card-daily.png"
	cardMeta  = "images/x-card-meta.json"
)

// Screenshotter renders an HTML document to a PNG.
type Screenshotter interface {
	Screenshot(ctx context.Context, html string, width, height int64) ([]byte, error)
}

type cardMetadata struct {
	Date        string `json:"date"`
	GeneratedAt string `json:"generatedAt"`
}

// CardHTML renders the social card for the first issues of ins.
func (r *Renderer) CardHTML(ins *models.AIInsight) (string, error) {
	data := struct {
		Date   string
		Issues []models.InsightCard
	}{ins.Date, top(ins.Issues, cardIssues)}
	var buf bytes.Buffer
	if err := r.card.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render card: %w", err)
	}
	return buf.String(), nil
}

// XCard screenshots the card for docs/daily-insight.json into
// images/x-card-daily.png. It reports false when the card for that date
// already exists.
func (r *Renderer) XCard(ctx context.Context, shot Screenshotter) (bool, error) {
	raw, err := r.store.ReadDoc("daily-insight.json")
	if err != nil {
		return false, err
	}
	var ins models.AIInsight
	if err := json.Unmarshal(raw, &ins); err != nil {
		return false, fmt.Errorf("failed to decode daily insight: %w", err)
	}
	if ins.Date == "" {
		ins.Date = kst.Date(r.now())
	}
	if len(ins.Issues) == 0 {
		return false, fmt.Errorf("daily insight %s has no issues", ins.Date)
	}

	if data, err := r.store.ReadDoc(cardMeta); err == nil {
		var meta cardMetadata
		if json.Unmarshal(data, &meta) == nil && meta.Date == ins.Date && r.store.DocExists(cardImage) {
			log.Printf("X card for %s already generated", ins.Date)
			return false, nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	html, err := r.CardHTML(&ins)
	if err != nil {
		return false, err
	}
	png, err := shot.Screenshot(ctx, html, cardWidth, cardHeight)
	if err != nil {
		return false, err
	}
	if err := r.store.WriteDoc(cardImage, png); err != nil {
		return false, fmt.Errorf("failed to write card image: %w", err)
	}
	meta := cardMetadata{Date: ins.Date, GeneratedAt: kst.Timestamp(r.now())}
	if err := r.store.WriteDocJSON(cardMeta, meta); err != nil {
		return false, fmt.Errorf("failed to write card metadata: %w", err)
	}
	log.Printf("X card saved: %s (%d bytes)", cardImage, len(png))
	return true, nil
}
