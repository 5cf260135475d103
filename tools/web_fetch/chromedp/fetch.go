package chromedp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch/models"
)

const defaultUserAgent = "ResearcherBot/1.0 (+https://github.com/mohammad-safakhou/researcher)"

type Fetch struct {
	Timeout   time.Duration
	MaxChars  int // Maximum characters to return from the article text
	UserAgent string
}

// Exec renders the page in headless Chrome and extracts the readable article.
func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	if strings.TrimSpace(rawURL) == "" {
		return models.Result{}, errors.New("invalid url")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.Result{}, fmt.Errorf("parse url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	// Headless browsing
	html, err := f.fetchHTML(ctx, rawURL)
	if err != nil {
		return models.Result{}, fmt.Errorf("render %s: %w", rawURL, err)
	}
	return Extract(html, parsed, f.MaxChars, int(time.Since(t0)/time.Millisecond))
}

// Extract runs readability over html. It is shared with the plain HTTP fetcher.
func Extract(html string, pageURL *url.URL, maxChars, renderMS int) (models.Result, error) {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return models.Result{}, fmt.Errorf("extract article: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}

	sum := sha1.Sum([]byte(html))
	return models.Result{
		URL:      pageURL.String(),
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: strings.TrimSpace(article.SiteName),
		Text:     text,
		HTMLHash: hex.EncodeToString(sum[:]),
		Status:   200,
		RenderMS: renderMS,
	}, nil
}

func (f Fetch) fetchHTML(ctx context.Context, rawURL string) (string, error) {
	ua := f.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(ua),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
