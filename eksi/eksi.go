package eksi

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/eksirss/dbopen"
	"github.com/hazyhaar/eksirss/eksi/internal/fetch"
	"github.com/hazyhaar/eksirss/eksi/internal/rss"
	"github.com/hazyhaar/eksirss/eksi/internal/store"
)

// Service resolves topics, assembles feeds and manages the subscription
// list. One Service per process; safe for concurrent requests (the fetch
// cache and the store carry their own locks).
type Service struct {
	fetcher fetch.Client
	subs    *store.Store
	cfg     Config
	logger  *slog.Logger
	policy  *bluemonday.Policy
	md      *converter.Converter
	now     func() time.Time

	// owned resources, set by Open
	browser *fetch.Browser
	logDB   *sql.DB
}

// New creates a Service on explicit collaborators. Open is the production
// entry point; New is for wiring a Service onto a stub fetcher.
func New(fetcher fetch.Client, subs *store.Store, cfg Config, logger *slog.Logger) *Service {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher: fetcher,
		subs:    subs,
		cfg:     cfg,
		logger:  logger,
		policy:  bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		now: time.Now,
	}
}

// Open builds the full production stack from configuration: HTTP or
// headless-browser fetch, TTL cache, optional SQLite fetch log, JSON
// subscription store. The caller must blank-import the SQLite driver when
// cfg.FetchLogDB is set. Close releases everything Open acquired.
func Open(cfg Config, logger *slog.Logger) (*Service, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	var (
		client  fetch.Client
		browser *fetch.Browser
	)
	if cfg.Browser.Enabled {
		browser = fetch.NewBrowser(fetch.BrowserConfig{
			RemoteURL:  cfg.Browser.RemoteURL,
			NavTimeout: cfg.Fetch.Timeout,
			Logger:     logger,
		})
		client = browser
	} else {
		client = fetch.NewHTTP(cfg.Fetch)
	}

	var logDB *sql.DB
	if cfg.FetchLogDB != "" {
		db, err := dbopen.Open(cfg.FetchLogDB, dbopen.WithMkdirAll())
		if err != nil {
			return nil, fmt.Errorf("eksi: open fetch log: %w", err)
		}
		fl := store.NewFetchLog(db, logger)
		if err := fl.Init(); err != nil {
			db.Close()
			return nil, err
		}
		client = fetch.WithRecorder(client, fl)
		logDB = db
	}

	client = fetch.NewCache(client, cfg.CacheTTL)

	s := New(client, store.New(cfg.SubscriptionsFile), cfg, logger)
	s.browser = browser
	s.logDB = logDB
	return s, nil
}

// Close releases resources acquired by Open.
func (s *Service) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.logDB != nil {
		if cerr := s.logDB.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ResolveTopic normalises input, fetches the resulting page and extracts
// topic identity from it.
func (s *Service) ResolveTopic(ctx context.Context, input string) (*Topic, error) {
	fetchURL, id := Resolve(s.cfg.BaseURL, input)
	res, err := s.fetcher.Fetch(ctx, fetchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrTopicNotFound, fetchURL, err)
	}
	return ExtractTopic(res.Body, res.FinalURL, id)
}

// TopicFeed assembles the same-day feed for one topic. maxPages <= 0 uses
// the configured default. The first fetch (no date filter) resolves topic
// identity; subsequent fetches walk today's pages until a partial page, an
// empty page past the first, a failed fetch or the page bound.
//
// Items keep encounter order across pages. Source pages occasionally carry
// out-of-order timestamps and feed readers handle that better than a
// reordered feed, so no re-sort happens here.
func (s *Service) TopicFeed(ctx context.Context, topicURL, knownID string, maxPages int) (*rss.Feed, error) {
	if maxPages <= 0 {
		maxPages = s.cfg.MaxPages
	}

	res, err := s.fetcher.Fetch(ctx, topicURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrTopicNotFound, topicURL, err)
	}
	topic, err := ExtractTopic(res.Body, res.FinalURL, knownID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(Zone)
	feed := &rss.Feed{
		Title:       "Ekşi - " + topic.Title,
		Link:        topic.URL,
		Description: fmt.Sprintf("Bugünün girdileri: %s", topic.Title),
		Language:    "tr",
		PubDate:     now,
	}

	day := now.Format("2006-01-02")
	for page := 1; page <= maxPages; page++ {
		pageURL := dayPageURL(topic.URL, day, page)
		res, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			s.logger.Warn("page fetch failed", "url", pageURL, "page", page, "error", err)
			if page == 1 {
				feed.Items = append(feed.Items, s.placeholderItem(topic, day, now))
			}
			break
		}

		var count int
		for _, er := range ExtractEntries(res.Body) {
			if er.Skip != "" {
				s.logger.Debug("entry skipped", "url", pageURL, "reason", er.Skip)
				continue
			}
			count++
			feed.Items = append(feed.Items, s.feedItem(er.Entry))
		}

		if count == 0 {
			if page == 1 {
				feed.Items = append(feed.Items, s.placeholderItem(topic, day, now))
			}
			break
		}
		if count < s.cfg.PageSize {
			break
		}
	}

	return feed, nil
}

// SearchFeed assembles a feed for a free-form phrase by letting the site's
// search redirect to the matching topic.
func (s *Service) SearchFeed(ctx context.Context, term string) (*rss.Feed, error) {
	fetchURL, id := Resolve(s.cfg.BaseURL, term)
	return s.TopicFeed(ctx, fetchURL, id, 0)
}

// CombinedFeed concatenates the feeds of the first stored subscriptions,
// in store order, up to the configured limit. Subscriptions whose assembly
// fails are skipped, not fatal.
func (s *Service) CombinedFeed(ctx context.Context) (*rss.Feed, error) {
	subs, err := s.subs.List()
	if err != nil {
		return nil, err
	}
	if len(subs) > s.cfg.CombinedLimit {
		subs = subs[:s.cfg.CombinedLimit]
	}

	feed := &rss.Feed{
		Title:       "Ekşi - Tüm Abonelikler",
		Link:        s.cfg.BaseURL,
		Description: "Abone olunan başlıkların bugünkü girdileri",
		Language:    "tr",
		PubDate:     s.now().UTC(),
	}
	for _, sub := range subs {
		tf, err := s.TopicFeed(ctx, s.topicURLFor(sub), sub.ID, 0)
		if err != nil {
			s.logger.Warn("subscription feed failed", "id", sub.ID, "title", sub.Title, "error", err)
			continue
		}
		feed.Items = append(feed.Items, tf.Items...)
	}
	return feed, nil
}

// Subscribe resolves input to a topic and appends it to the store.
// Idempotent by topic ID; returns the stored subscription either way.
func (s *Service) Subscribe(ctx context.Context, input string) (*Subscription, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidInput)
	}
	topic, err := s.ResolveTopic(ctx, input)
	if err != nil {
		return nil, err
	}
	sub := Subscription{
		ID:    topic.ID,
		Title: topic.Title,
		URL:   topic.URL,
		Slug:  topic.Slug,
		Added: s.now().UTC(),
	}
	changed, err := s.subs.Add(sub)
	if err != nil {
		return nil, err
	}
	if !changed {
		if existing, err := s.subs.Get(topic.ID); err == nil && existing != nil {
			return existing, nil
		}
	}
	return &sub, nil
}

// Unsubscribe removes a subscription by topic ID. Unknown IDs are a no-op.
func (s *Service) Unsubscribe(id string) error {
	return s.subs.Remove(id)
}

// Subscriptions lists the stored subscriptions in store order.
func (s *Service) Subscriptions() ([]Subscription, error) {
	return s.subs.List()
}

// TopicURL returns the fetchable URL for a topic ID, preferring the stored
// resolved URL over the synthesised /baslik form.
func (s *Service) TopicURL(id string) string {
	if sub, err := s.subs.Get(id); err == nil && sub != nil && sub.URL != "" {
		return sub.URL
	}
	return s.cfg.BaseURL + "/baslik/" + id
}

func (s *Service) topicURLFor(sub Subscription) string {
	if sub.URL != "" {
		return sub.URL
	}
	return s.cfg.BaseURL + "/baslik/" + sub.ID
}

// feedItem maps an extracted entry to a feed item: the author name doubles
// as the item title, content is sanitised HTML, the description is a
// markdown rendition for readers that ignore content:encoded.
func (s *Service) feedItem(e Entry) rss.Item {
	link := e.Permalink
	if strings.HasPrefix(link, "/") {
		link = s.cfg.BaseURL + link
	}
	safe := s.policy.Sanitize(e.ContentHTML)
	desc, err := s.md.ConvertString(safe, converter.WithDomain(s.cfg.BaseURL))
	if err != nil {
		s.logger.Debug("markdown conversion failed", "entry", e.ID, "error", err)
		desc = ""
	}
	return rss.Item{
		GUID:        link,
		Title:       e.Author,
		Link:        link,
		Author:      e.Author,
		Description: strings.TrimSpace(desc),
		ContentHTML: safe,
		Published:   e.Published,
	}
}

// placeholderItem is the single informational item emitted when a topic has
// no entries today (or its first page cannot be fetched): feed readers keep
// showing the topic instead of treating the feed as broken.
func (s *Service) placeholderItem(topic *Topic, day string, now time.Time) rss.Item {
	return rss.Item{
		GUID:        topic.URL + "#no-entries-" + day,
		Title:       "bugün girdi yok",
		Link:        topic.URL,
		Author:      "eksirss",
		Description: fmt.Sprintf("%s başlığına bugün girdi girilmemiş.", topic.Title),
		Published:   now,
	}
}

// dayPageURL appends the same-day filter and, past page 1, the page number.
func dayPageURL(topicURL, day string, page int) string {
	sep := "?"
	if strings.Contains(topicURL, "?") {
		sep = "&"
	}
	u := topicURL + sep + "day=" + day
	if page > 1 {
		u += "&p=" + strconv.Itoa(page)
	}
	return u
}
