// Package browser drives headless Chrome for JS-rendered pages and card screenshots.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

type Browser struct {
	execPath string
	timeout  time.Duration
	settle   time.Duration
}

// New returns a Browser using the Chrome binary at execPath, or the one
// chromedp finds on the PATH when execPath is empty.
func New(execPath string) *Browser {
	return &Browser{
		execPath: execPath,
		timeout:  45 * time.Second,
		settle:   2 * time.Second,
	}
}

func (b *Browser) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1280, 800),
	)
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	allocCtx, allocCancel := b.allocator(ctx)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))
	defer browserCancel()

	return chromedp.Run(browserCtx, actions...)
}

// RenderHTML loads pageURL, waits for scripts to settle and returns the
// rendered document.
func (b *Browser) RenderHTML(ctx context.Context, pageURL string) (string, error) {
	var html string
	err := b.run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", pageURL, err)
	}
	return html, nil
}

// Screenshot renders html at width×height and returns a PNG.
func (b *Browser) Screenshot(ctx context.Context, html string, width, height int64) ([]byte, error) {
	dir, err := os.MkdirTemp("", "gamerscrawl-card-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	page := filepath.Join(dir, "card.html")
	if err := os.WriteFile(page, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write card page: %w", err)
	}

	var png []byte
	err = b.run(ctx,
		chromedp.EmulateViewport(width, height),
		chromedp.Navigate("file://"+page),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.CaptureScreenshot(&png),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return png, nil
}
