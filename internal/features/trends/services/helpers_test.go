package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

// trendFeed renders a trends RSS document with one item per entry of items
func trendFeed(items ...feedItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:ht="https://trends.google.com/trending/rss">
<channel>
<title>Daily Search Trends</title>
<link>https://trends.google.com/trending/rss</link>
`)
	for _, it := range items {
		b.WriteString("<item>\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", it.title)
		if it.traffic != "" {
			fmt.Fprintf(&b, "<ht:approx_traffic>%s</ht:approx_traffic>\n", it.traffic)
		}
		if it.pubDate != "" {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>\n", it.pubDate)
		}
		if it.picture != "" {
			fmt.Fprintf(&b, "<ht:picture>%s</ht:picture>\n", it.picture)
		}
		for _, n := range it.news {
			b.WriteString("<ht:news_item>\n")
			fmt.Fprintf(&b, "<ht:news_item_title>%s</ht:news_item_title>\n", n.Title)
			fmt.Fprintf(&b, "<ht:news_item_url>%s</ht:news_item_url>\n", n.URL)
			if n.Source != "" {
				fmt.Fprintf(&b, "<ht:news_item_source>%s</ht:news_item_source>\n", n.Source)
			}
			if n.PictureURL != "" {
				fmt.Fprintf(&b, "<ht:news_item_picture>%s</ht:news_item_picture>\n", n.PictureURL)
			}
			b.WriteString("</ht:news_item>\n")
		}
		b.WriteString("</item>\n")
	}
	b.WriteString("</channel>\n</rss>\n")
	return b.String()
}

type feedItem struct {
	title   string
	traffic string
	pubDate string
	picture string
	news    []models.NewsItem
}

// syncBuffer is a log sink that is safe to read while handlers write
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*core.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return core.NewLoggerWithWriter(buf, slog.LevelDebug), buf
}

// sleepRecorder replaces real sleeps and remembers every requested wait
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

func lowerBound(lo, hi time.Duration) time.Duration { return lo }

func testFetcherConfig(baseURL string) *models.FetcherConfig {
	return &models.FetcherConfig{
		FeedBaseURL: baseURL,
		UserAgent:   "trendwatch-test/1.0",
		Timeout:     5 * time.Second,
		MaxRetries:  3,
		DelayMin:    time.Second,
		DelayMax:    2 * time.Second,
	}
}
