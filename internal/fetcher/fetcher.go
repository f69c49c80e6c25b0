// Package fetcher downloads and parses the upstream feed.
package fetcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"relay_bot/internal/filter"
	"relay_bot/internal/model"
)

const (
	maxDescription = 3500
	// maxMessage is the Telegram limit for a text message, in characters.
	maxMessage = 4096
	ellipsis   = "..."
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses RSS and Atom feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses a feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "JobAlertRelay/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// FetchRecent returns at most limit items, newest first.
func (f *Fetcher) FetchRecent(ctx context.Context, url string, limit int) ([]model.Item, error) {
	feed, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, ToItem(it))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// ToItem converts a parsed feed entry into an upstream item with a ready
// to send text payload.
func ToItem(it *gofeed.Item) model.Item {
	var published time.Time
	switch {
	case it.PublishedParsed != nil:
		published = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		published = *it.UpdatedParsed
	}

	desc := truncate(PlainText(it.Description), maxDescription)
	item := model.Item{
		ID:          ItemGUID(it),
		Title:       strings.TrimSpace(it.Title),
		Description: desc,
		Link:        it.Link,
		PublishedAt: published,
	}
	item.Payload = model.Payload{Text: formatItem(item)}
	return item
}

// ItemGUID returns the GUID for a feed item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}

// PlainText strips markup from an HTML fragment.
func PlainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return strings.TrimSpace(doc.Text())
}

// FilterItems returns the items that pass the filters.
func FilterItems(items []model.Item, filters []model.Filter) []model.Item {
	if len(filters) == 0 {
		return items
	}
	var matched []model.Item
	for _, item := range items {
		fi := filter.FeedItem{Title: item.Title, Description: item.Description}
		if filter.Match(fi, filters) {
			matched = append(matched, item)
		}
	}
	return matched
}

// formatItem renders an item as a message of at most maxMessage characters.
// An overlong description is shortened first so the link survives.
func formatItem(item model.Item) string {
	desc := item.Description
	if desc == item.Title {
		desc = ""
	}
	text := layout(item.Title, desc, item.Link)
	if over := utf8.RuneCountInString(text) - maxMessage; over > 0 && desc != "" {
		if keep := utf8.RuneCountInString(desc) - over - len(ellipsis); keep > 0 {
			desc = truncate(desc, keep)
		} else {
			desc = ""
		}
		text = layout(item.Title, desc, item.Link)
	}
	if utf8.RuneCountInString(text) > maxMessage {
		text = truncate(text, maxMessage-len(ellipsis))
	}
	return text
}

func layout(title, desc, link string) string {
	var b strings.Builder
	b.WriteString(title)
	if desc != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(desc)
	}
	if link != "" {
		b.WriteString("\n\n")
		b.WriteString(link)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + ellipsis
}
