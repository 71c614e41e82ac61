package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

var ErrNoJSON = errors.New("no JSON object in reply")

// Generator turns a prompt into a text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAI generates with a Gemini model grounded on Google Search.
type GenAI struct {
	client *genai.Client
	model  string
}

func NewGenAI(ctx context.Context, cfg config.AIConfig) (*GenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-pro"
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// Writer asks the generator for an insight and decodes the reply, retrying
// failed attempts.
type Writer struct {
	gen     Generator
	retries int
	delay   time.Duration
}

func NewWriter(gen Generator) *Writer {
	return &Writer{gen: gen, retries: 2, delay: 5 * time.Second}
}

func (w *Writer) Write(ctx context.Context, prompt string) (*models.AIInsight, error) {
	var lastErr error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			log.Printf("Retrying insight %d/%d in %s", attempt, w.retries, w.delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(w.delay):
			}
		}

		reply, err := w.gen.Generate(ctx, prompt)
		if err == nil {
			var ins models.AIInsight
			if err = decodeReply(reply, &ins); err == nil {
				return &ins, nil
			}
			log.Warnf("reply head: %s", head(reply, 300))
		}
		lastErr = err
		log.Warnf("insight attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("insight generation failed after %d attempts: %w", w.retries+1, lastErr)
}

func decodeReply(reply string, v any) error {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode insight: %w", err)
	}
	return nil
}

// ExtractJSON returns the first balanced {...} object of a reply, skipping
// braces inside string literals.
func ExtractJSON(reply string) (string, error) {
	start := -1
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(reply); i++ {
		ch := reply[i]
		if start < 0 {
			if ch == '{' {
				start, depth = i, 1
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return reply[start : i+1], nil
			}
		}
	}
	if start < 0 {
		return "", fmt.Errorf("missing opening brace: %w", ErrNoJSON)
	}
	return "", fmt.Errorf("unbalanced object: %w", ErrNoJSON)
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
