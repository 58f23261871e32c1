package services

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"time"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	newsServiceName  = "NewsService"
	defaultNewsTitle = "Market Update"
)

// NewsService aggregates market headlines from RSS feeds
type NewsService struct {
	feeds          []models.FeedSource
	configuration  shared.NewsConfig
	utilityService *UtilityService
	serviceMetrics *shared.ServiceMetrics
}

// NewNewsService creates a news aggregator over the given feeds
func NewNewsService(feeds []models.FeedSource, config *shared.NewsConfig) *NewsService {
	if config == nil {
		defaults := shared.NewDefaultUnifiedConfiguration().News
		config = &defaults
	}

	logrus.WithFields(logrus.Fields{
		"component":    newsServiceName,
		"feeds":        len(feeds),
		"http_timeout": config.HTTPRequestTimeout,
	}).Info("News service initialized")

	return &NewsService{
		feeds:          feeds,
		configuration:  *config,
		utilityService: NewUtilityService(),
		serviceMetrics: shared.NewServiceMetrics(newsServiceName),
	}
}

// Feeds returns the configured feed sources
func (s *NewsService) Feeds() []models.FeedSource {
	return s.feeds
}

// GetNews fetches every feed concurrently and returns the newest items.
// Failed feeds contribute nothing. When no feed yields an item the static
// fallback list is returned.
func (s *NewsService) GetNews(ctx context.Context) []models.NewsItem {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"component": newsServiceName,
		"operation": "GetNews",
		"caller":    models.CallerFromContext(ctx).ID,
	})

	results := make([]FetchResult[[]models.NewsItem], len(s.feeds))

	var group errgroup.Group
	for i, feed := range s.feeds {
		group.Go(func() error {
			items, err := s.fetchFeed(ctx, feed, startTime)
			results[i] = FetchResult[[]models.NewsItem]{Value: items, Err: err}
			return nil
		})
	}
	_ = group.Wait()

	merged := make([]models.NewsItem, 0, len(s.feeds)*s.configuration.EntriesPerFeed)
	for i, result := range results {
		if !result.OK() {
			s.serviceMetrics.IncrementCustomCounter("feeds_failed")
			logger.WithField("source", s.feeds[i].Name).WithError(result.Err).Warn("News feed failed, skipping")
			continue
		}
		s.serviceMetrics.IncrementCustomCounter("feeds_succeeded")
		merged = append(merged, result.Value...)
	}

	if len(merged) == 0 {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		logger.Warn("No news items from any feed, serving fallback")
		return FallbackNews(startTime)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if len(merged) > s.configuration.MaxItems {
		merged = merged[:s.configuration.MaxItems]
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	logger.WithFields(logrus.Fields{
		"items":    len(merged),
		"duration": time.Since(startTime),
	}).Debug("News aggregated")

	return merged
}

// rawFeedEntry holds the fields read from one RSS item
type rawFeedEntry struct {
	title       string
	link        string
	description string
	published   string
	imageURL    string
}

// fetchFeed downloads one feed and normalizes its first entries
func (s *NewsService) fetchFeed(ctx context.Context, feed models.FeedSource, aggregatedAt time.Time) ([]models.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.NewUpstreamError(newsServiceName, "fetchFeed", "request cancelled", err)
	}

	collector := colly.NewCollector(colly.AllowURLRevisit())
	collector.SetRequestTimeout(s.configuration.HTTPRequestTimeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		r.Headers.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	})

	// Feeds are parsed as XML whatever content type the server labels them with
	collector.OnResponse(func(r *colly.Response) {
		r.Headers.Set("Content-Type", feedContentType(r.Headers.Get("Content-Type")))
	})

	entries := make([]rawFeedEntry, 0, s.configuration.EntriesPerFeed)
	collector.OnXML("//item", func(e *colly.XMLElement) {
		if len(entries) >= s.configuration.EntriesPerFeed {
			return
		}

		imageURL := e.ChildAttr("enclosure", "url")
		if imageURL == "" {
			imageURL = e.ChildAttr("media:content", "url")
		}

		entries = append(entries, rawFeedEntry{
			title:       e.ChildText("title"),
			link:        e.ChildText("link"),
			description: e.ChildText("description"),
			published:   e.ChildText("pubDate"),
			imageURL:    imageURL,
		})
	})

	var responseErr error
	collector.OnError(func(r *colly.Response, err error) {
		responseErr = fmt.Errorf("feed responded with HTTP %d: %w", r.StatusCode, err)
	})

	if err := collector.Visit(feed.FeedURL); err != nil {
		if responseErr != nil {
			err = responseErr
		}
		return nil, shared.NewUpstreamError(newsServiceName, "fetchFeed",
			fmt.Sprintf("failed to fetch %s feed", feed.Name), err)
	}

	items := make([]models.NewsItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, s.normalizeEntry(feed, entry, aggregatedAt))
	}
	return items, nil
}

// feedContentType relabels a response as XML, keeping any charset parameter
func feedContentType(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "application/xml"
	}
	return mime.FormatMediaType("application/xml", params)
}

// normalizeEntry applies defaults and cleanup to one feed entry
func (s *NewsService) normalizeEntry(feed models.FeedSource, entry rawFeedEntry, aggregatedAt time.Time) models.NewsItem {
	title := s.utilityService.NormalizeTextContent(entry.title)
	if title == "" {
		title = defaultNewsTitle
	}

	link := strings.TrimSpace(entry.link)
	if link == "" {
		link = feed.BaseURL
	}

	publishedAt := aggregatedAt
	if parsed := s.utilityService.ParseFeedDate(entry.published, feed.DateLayout); parsed != nil {
		publishedAt = *parsed
	}

	item := models.NewsItem{
		Title:       title,
		Description: s.utilityService.TruncateText(s.utilityService.StripHTML(entry.description), s.configuration.DescriptionLimit),
		URL:         link,
		Source:      feed.Name,
		PublishedAt: publishedAt,
	}
	if imageURL := strings.TrimSpace(entry.imageURL); imageURL != "" {
		item.ImageURL = &imageURL
	}
	return item
}

// FallbackNews returns the static headlines served when every feed fails
func FallbackNews(now time.Time) []models.NewsItem {
	return []models.NewsItem{
		{
			Title:       "Markets open with mixed sentiment",
			Description: "Benchmark indices opened mixed as investors weighed global cues and domestic earnings.",
			URL:         "https://www.moneycontrol.com",
			Source:      "Moneycontrol",
			PublishedAt: now,
		},
		{
			Title:       "Banking stocks lead sectoral moves",
			Description: "Private lenders were among the most active counters on the NSE in early trade.",
			URL:         "https://economictimes.indiatimes.com",
			Source:      "Economic Times",
			PublishedAt: now.Add(-30 * time.Minute),
		},
		{
			Title:       "IT shares track global technology peers",
			Description: "Information technology stocks moved in line with overnight cues from US technology shares.",
			URL:         "https://www.livemint.com",
			Source:      "LiveMint",
			PublishedAt: now.Add(-1 * time.Hour),
		},
	}
}
