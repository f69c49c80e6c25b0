// Package scheduler runs the poll-and-fanout loop: once per tick it pulls
// today's upstream items, delivers the unseen ones to every due group, and
// then runs the ad campaign and the daily promo on the same delivery path.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"relay_bot/internal/dedup"
	"relay_bot/internal/fetcher"
	"relay_bot/internal/model"
	"relay_bot/internal/registry"
)

// Feed returns the most recent upstream items, newest first.
type Feed interface {
	FetchRecent(ctx context.Context, url string, limit int) ([]model.Item, error)
}

// Sender delivers a payload to a destination. Failures wrap
// model.ErrPermanentDelivery or model.ErrTransientDelivery.
type Sender interface {
	Deliver(ctx context.Context, chatID int64, p model.Payload) error
}

// Options tunes the scheduler.
type Options struct {
	FeedURL        string
	FeedLimit      int
	Location       *time.Location
	Filters        []model.Filter
	Tick           time.Duration
	SendDelay      time.Duration
	SendTimeout    time.Duration
	DedupRetention time.Duration
	// PromoText is the daily HTML reminder. Empty disables it.
	PromoText string
}

// Scheduler periodically relays upstream items to subscribed groups.
type Scheduler struct {
	reg     *registry.Registry
	seen    *dedup.Cache
	feed    Feed
	sender  Sender
	opts    Options
	limiter *rate.Limiter
	now     func() time.Time
	log     *slog.Logger
}

// New creates a Scheduler.
func New(reg *registry.Registry, seen *dedup.Cache, feed Feed, sender Sender, opts Options, log *slog.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.SendDelay > 0 {
		limit = rate.Every(opts.SendDelay)
	}
	return &Scheduler{
		reg:     reg,
		seen:    seen,
		feed:    feed,
		sender:  sender,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		log:     log,
	}
}

// Run executes ticks until ctx is cancelled. The wait between ticks starts
// after the previous tick completes, so ticks never overlap. A tick in
// progress when ctx is cancelled runs to completion.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", "tick", s.opts.Tick, "feed", s.opts.FeedURL)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-timer.C:
			s.runTick(context.WithoutCancel(ctx))
			timer.Reset(s.opts.Tick)
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick panicked", "panic", r)
		}
	}()
	s.tick(ctx, s.now())
}

// tick runs one fetch-fanout-inject cycle. Every time comparison uses now,
// captured once at tick start.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	// Group state is read before the fetch so the tick works from its start.
	snap := s.reg.Snapshot()
	items := s.todayItems(ctx, now)

	skip := s.fanout(ctx, snap, items, now)
	s.runCampaign(ctx, snap, skip, now)
	s.runPromo(ctx, snap, skip, now)

	if s.opts.DedupRetention > 0 {
		if n := s.seen.Prune(now.Add(-s.opts.DedupRetention)); n > 0 {
			s.log.Debug("pruned dedup entries", "count", n)
		}
	}

	s.reg.Flush()
}

// todayItems returns the items published on the current calendar day,
// oldest first. Fetch failures yield no items.
func (s *Scheduler) todayItems(ctx context.Context, now time.Time) []model.Item {
	items, err := s.feed.FetchRecent(ctx, s.opts.FeedURL, s.opts.FeedLimit)
	if err != nil {
		s.log.Warn("fetch feed", "url", s.opts.FeedURL, "error", err)
		return nil
	}

	local := now.In(s.opts.Location)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.opts.Location)

	var today []model.Item
	for _, item := range items {
		if item.PublishedAt.IsZero() {
			continue
		}
		if item.PublishedAt.Before(startOfDay) {
			break
		}
		today = append(today, item)
	}

	today = fetcher.FilterItems(today, s.opts.Filters)
	slices.Reverse(today)
	return today
}

// fanout delivers unseen items to every due group and returns the groups
// deactivated during this tick.
func (s *Scheduler) fanout(ctx context.Context, snap model.Document, items []model.Item, now time.Time) map[int64]bool {
	deactivated := map[int64]bool{}
	if len(items) == 0 {
		return deactivated
	}

	for _, chatID := range sortedGroupIDs(snap) {
		g := snap.Groups[chatID]
		if !g.Active || now.Sub(g.LastPost.Time()) < g.Interval() {
			continue
		}

		sent := 0
	deliver:
		for _, item := range items {
			if s.seen.Seen(chatID, item.ID) {
				continue
			}
			err := s.send(ctx, chatID, item.Payload)
			switch {
			case err == nil:
				s.seen.Mark(chatID, item.ID, now)
				sent++
			case errors.Is(err, model.ErrPermanentDelivery):
				s.log.Warn("deactivating group", "chat_id", chatID, "item_id", item.ID, "error", err)
				s.reg.Deactivate(chatID)
				deactivated[chatID] = true
				break deliver
			default:
				s.log.Warn("deliver item", "chat_id", chatID, "item_id", item.ID, "error", err)
			}
		}

		if sent > 0 {
			s.reg.MarkDelivered(chatID, now)
			s.log.Info("relayed items", "chat_id", chatID, "count", sent)
		}
	}
	return deactivated
}

func (s *Scheduler) runCampaign(ctx context.Context, snap model.Document, skip map[int64]bool, now time.Time) {
	ad := snap.Ads
	if !ad.Active || ad.Exhausted() || now.Sub(ad.LastSent.Time()) < ad.Interval() {
		return
	}

	payload := model.Payload{Text: ad.Content, ParseMode: model.ParseModeHTML}
	delivered := s.broadcastActive(ctx, snap, skip, payload, "ad")
	s.reg.RecordAdRun(now)
	s.log.Info("campaign run", "run", ad.Sent+1, "limit", ad.Limit, "delivered", delivered)
}

func (s *Scheduler) runPromo(ctx context.Context, snap model.Document, skip map[int64]bool, now time.Time) {
	if s.opts.PromoText == "" || now.Sub(snap.Settings.LastSupportPromo.Time()) < model.PromoCadence {
		return
	}

	delivered := s.broadcastActive(ctx, snap, skip, model.Payload{Text: s.opts.PromoText, ParseMode: model.ParseModeHTML}, "promo")
	s.reg.RecordPromo(now)
	s.log.Info("daily promo sent", "delivered", delivered)
}

// broadcastActive sends p to every active group. Failures are logged and
// otherwise ignored.
func (s *Scheduler) broadcastActive(ctx context.Context, snap model.Document, skip map[int64]bool, p model.Payload, kind string) int {
	delivered := 0
	for _, chatID := range sortedGroupIDs(snap) {
		if !snap.Groups[chatID].Active || skip[chatID] {
			continue
		}
		if err := s.send(ctx, chatID, p); err != nil {
			s.log.Warn("deliver "+kind, "chat_id", chatID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// send paces deliveries across all destinations and bounds each call.
func (s *Scheduler) send(ctx context.Context, chatID int64, p model.Payload) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", model.ErrTransientDelivery, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()
	return s.sender.Deliver(ctx, chatID, p)
}

func sortedGroupIDs(doc model.Document) []int64 {
	ids := make([]int64, 0, len(doc.Groups))
	for id := range doc.Groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
