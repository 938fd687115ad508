package services

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

// trendsPrefix is the namespace prefix the trends feed declares for its
// custom elements (approx_traffic, picture, news_item)
const trendsPrefix = "ht"

// pubDateLayouts are the RFC 822/1123 variants seen in feed pubDate values.
// Layouts without a zone parse as UTC.
var pubDateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05",
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
}

const (
	defaultTitle      = "untitled"
	defaultNewsSource = "unknown source"
)

// ParserService turns a region's raw feed payload into trend records.
//
// A payload that cannot be parsed yields no records. Callers cannot tell a
// broken feed from an empty one, and they are not meant to: both mean there
// is nothing to merge for that region.
type ParserService struct {
	feedParser *gofeed.Parser
	logger     *core.Logger
	now        func() time.Time
}

// NewParserService creates a new feed parser
func NewParserService(logger *core.Logger) *ParserService {
	return &ParserService{
		feedParser: gofeed.NewParser(),
		logger:     logger,
		now:        time.Now,
	}
}

// Parse converts one feed document into records attributed to regionName and,
// when countryName is not empty, to that country
func (p *ParserService) Parse(raw []byte, regionName, countryName string) []models.TrendRecord {
	feed, err := p.feedParser.Parse(bytes.NewReader(raw))
	if err != nil {
		p.logger.Warn("Failed to parse feed XML", "region", regionName, "error", err)
		return nil
	}

	if feed.FeedType != "rss" {
		p.logger.Warn("Unexpected feed type", "region", regionName, "type", feed.FeedType)
		return nil
	}

	if len(feed.Items) == 0 {
		p.logger.Debug("Feed has no items", "region", regionName)
		return nil
	}

	country := models.SingleCountry(countryName)
	records := make([]models.TrendRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		records = append(records, p.parseItem(item, regionName, country))
	}

	return records
}

func (p *ParserService) parseItem(item *gofeed.Item, regionName string, country models.Country) models.TrendRecord {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = defaultTitle
	}

	fields := trendFields(item.Extensions)

	trafficRaw := extValue(fields, "approx_traffic")
	if trafficRaw == "" {
		trafficRaw = "0"
	}

	record := models.TrendRecord{
		Title:        title,
		TrafficRaw:   trafficRaw,
		TrafficValue: ParseTraffic(trafficRaw),
		PublishedRaw: item.Published,
		PublishedAt:  p.publishedAt(item, regionName, title),
		ImageURL:     extValue(fields, "picture"),
		NewsItems:    parseNewsItems(fields["news_item"]),
		Regions:      models.NewRegionSet(regionName),
		Country:      country,
	}

	return record
}

// publishedAt returns the item's publication time in the feed's own offset,
// or now in UTC when the feed omits it or it cannot be parsed.
// gofeed normalizes PublishedParsed to UTC, so it is only a fallback for
// formats the layouts above do not cover.
func (p *ParserService) publishedAt(item *gofeed.Item, regionName, title string) time.Time {
	if t, ok := parsePubDate(item.Published); ok {
		return t
	}
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	if strings.TrimSpace(item.Published) != "" {
		p.logger.Warn("Failed to parse publication date, using current time",
			"region", regionName, "title", title, "date", item.Published)
	}
	return p.now().UTC()
}

func parsePubDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNewsItems(elems []ext.Extension) []models.NewsItem {
	news := make([]models.NewsItem, 0, len(elems))
	for _, elem := range elems {
		source := extValue(elem.Children, "news_item_source")
		if source == "" {
			source = defaultNewsSource
		}

		news = append(news, models.NewsItem{
			Title:      extValue(elem.Children, "news_item_title"),
			URL:        extValue(elem.Children, "news_item_url"),
			Source:     source,
			PictureURL: extValue(elem.Children, "news_item_picture"),
		})
	}
	return news
}

// trendFields returns the item's trends-namespace elements. The namespace is
// normally declared as "ht"; any other prefix carrying approx_traffic is
// accepted too.
func trendFields(exts ext.Extensions) map[string][]ext.Extension {
	if fields, ok := exts[trendsPrefix]; ok {
		return fields
	}
	for _, fields := range exts {
		if _, ok := fields["approx_traffic"]; ok {
			return fields
		}
	}
	return nil
}

func extValue(fields map[string][]ext.Extension, name string) string {
	if values := fields[name]; len(values) > 0 {
		return strings.TrimSpace(values[0].Value)
	}
	return ""
}

// ParseTraffic converts a traffic magnitude such as "12,345+" to 12345.
// Anything that is not purely numeric once separators and "+" are removed
// yields 0.
func ParseTraffic(raw string) int64 {
	cleaned := strings.NewReplacer(",", "", "+", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}

	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return 0
		}
	}

	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
