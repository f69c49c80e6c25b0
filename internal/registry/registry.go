// Package registry owns the in-memory subscriber registry and persists it
// through a storage backend after every mutation.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"relay_bot/internal/model"
	"relay_bot/internal/storage"
)

// Registry is the shared state handed to the scheduler and every command
// handler. All mutations are serialized by one mutex and saved before the
// lock is released.
type Registry struct {
	mu    sync.Mutex
	doc   model.Document
	store storage.Storage
	log   *slog.Logger
}

// Open loads the document from store. A document that cannot be read or
// decoded is replaced by defaults and the problem is logged.
func Open(ctx context.Context, store storage.Storage, log *slog.Logger) *Registry {
	doc, err := store.Load(ctx)
	if err != nil {
		log.Warn("load document, starting from defaults", "error", err)
		doc = model.DefaultDocument()
	}
	return &Registry{doc: doc, store: store, log: log}
}

// Snapshot returns a deep copy of the current document.
func (r *Registry) Snapshot() model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Clone()
}

// Group returns the settings of a subscribed group.
func (r *Registry) Group(chatID int64) (model.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.doc.Groups[chatID]
	return g, ok
}

// Subscribe adds a group with default settings. An existing but inactive
// group is reactivated with its interval and history kept. It reports
// whether anything changed.
func (r *Registry) Subscribe(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.doc.Groups[chatID]
	switch {
	case !ok:
		r.doc.Groups[chatID] = model.NewGroup()
	case !g.Active:
		g.Active = true
		r.doc.Groups[chatID] = g
	default:
		return false
	}
	r.saveLocked()
	return true
}

// Unsubscribe removes a group. It reports whether the group was present.
func (r *Registry) Unsubscribe(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doc.Groups[chatID]; !ok {
		return false
	}
	delete(r.doc.Groups, chatID)
	r.saveLocked()
	return true
}

// SetInterval changes the delivery spacing of a subscribed group. d must be
// a whole number of minutes within the accepted range. Every failure wraps
// model.ErrInvalidInterval; an unknown group also wraps model.ErrNotSubscribed.
func (r *Registry) SetInterval(chatID int64, d time.Duration) error {
	if d%time.Minute != 0 {
		return fmt.Errorf("%w: %s is not a whole number of minutes", model.ErrInvalidInterval, d)
	}
	if mins := d / time.Minute; mins < model.MinIntervalMinutes || mins > model.MaxIntervalMinutes {
		return fmt.Errorf("%w: %s is outside %d..%d minutes", model.ErrInvalidInterval, d, model.MinIntervalMinutes, model.MaxIntervalMinutes)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.doc.Groups[chatID]
	if !ok {
		return fmt.Errorf("%w: %w: chat %d", model.ErrInvalidInterval, model.ErrNotSubscribed, chatID)
	}
	g.IntervalMinutes = int(d / time.Minute)
	r.doc.Groups[chatID] = g
	r.saveLocked()
	return nil
}

// Deactivate stops scheduled and ad delivery to a group without removing it.
func (r *Registry) Deactivate(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.doc.Groups[chatID]
	if !ok || !g.Active {
		return
	}
	g.Active = false
	r.doc.Groups[chatID] = g
	r.saveLocked()
}

// MarkDelivered records a successful fanout to a group.
func (r *Registry) MarkDelivered(chatID int64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.doc.Groups[chatID]
	if !ok {
		// Unsubscribed while the tick was running.
		return
	}
	g.LastPost = model.UnixOf(now)
	r.doc.Groups[chatID] = g
	r.saveLocked()
}

// AddUser registers a private subscriber. It reports whether the user is new.
func (r *Registry) AddUser(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.doc.Users, userID) {
		return false
	}
	r.doc.Users = append(r.doc.Users, userID)
	r.saveLocked()
	return true
}

// RemoveUser unregisters a private subscriber. It reports whether the user
// was registered.
func (r *Registry) RemoveUser(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.doc.Users, userID)
	if i < 0 {
		return false
	}
	r.doc.Users = slices.Delete(r.doc.Users, i, i+1)
	r.saveLocked()
	return true
}

// Targets lists the broadcast recipients for a target set. Inactive groups
// are included.
func (r *Registry) Targets(set model.TargetSet) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	if set == model.TargetAll || set == model.TargetGroups {
		groups := make([]int64, 0, len(r.doc.Groups))
		for id := range r.doc.Groups {
			groups = append(groups, id)
		}
		slices.Sort(groups)
		ids = append(ids, groups...)
	}
	if set == model.TargetAll || set == model.TargetIndividuals {
		ids = append(ids, r.doc.Users...)
	}
	return ids
}

// Campaign returns the current ad campaign.
func (r *Registry) Campaign() model.Campaign {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Ads
}

// UpdateCampaign applies fn to the campaign and persists the result.
func (r *Registry) UpdateCampaign(fn func(*model.Campaign)) model.Campaign {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(&r.doc.Ads)
	r.saveLocked()
	return r.doc.Ads
}

// RecordAdRun counts one campaign run. The count never exceeds the limit.
func (r *Registry) RecordAdRun(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc.Ads.Exhausted() {
		return
	}
	r.doc.Ads.Sent++
	r.doc.Ads.LastSent = model.UnixOf(now)
	r.saveLocked()
}

// RecordPromo records when the daily reminder went out.
func (r *Registry) RecordPromo(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc.Settings.LastSupportPromo = model.UnixOf(now)
	r.saveLocked()
}

// Flush saves the current document.
func (r *Registry) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveLocked()
}

// Stats summarizes the registry for dashboards.
type Stats struct {
	Groups       int `json:"groups"`
	ActiveGroups int `json:"active_groups"`
	Users        int `json:"users"`
}

// Stats counts groups and users.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{Groups: len(r.doc.Groups), Users: len(r.doc.Users)}
	for _, g := range r.doc.Groups {
		if g.Active {
			st.ActiveGroups++
		}
	}
	return st
}

// saveLocked persists the document. A failed save leaves the in-memory
// state authoritative; the next successful save restores durability.
func (r *Registry) saveLocked() {
	if err := r.store.Save(context.Background(), r.doc); err != nil {
		r.log.Error("save document", "error", fmt.Errorf("%w: %w", model.ErrStoreWrite, err))
	}
}
