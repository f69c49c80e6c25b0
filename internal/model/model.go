// Package model defines the domain types used across the application.
package model

import (
	"strconv"
	"time"
)

// Defaults applied to new and upgraded records.
const (
	DefaultIntervalMinutes   = 30
	MinIntervalMinutes       = 1
	MaxIntervalMinutes       = 30 * 24 * 60
	DefaultAdIntervalMinutes = 60
	DefaultAdContent         = "Advertise here!"
	PromoCadence             = 24 * time.Hour
	ParseModeHTML            = "HTML"
)

// Unix is an epoch timestamp in whole seconds. Zero means never.
type Unix int64

// UnixOf converts t to a Unix timestamp.
func UnixOf(t time.Time) Unix {
	return Unix(t.Unix())
}

// Time returns the timestamp as a time.Time.
func (u Unix) Time() time.Time {
	return time.Unix(int64(u), 0)
}

// UnmarshalJSON accepts integer and fractional epoch seconds.
func (u *Unix) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*u = 0
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*u = Unix(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*u = Unix(int64(f))
	return nil
}

// Group is a chat subscribed to periodic alerts.
type Group struct {
	IntervalMinutes int  `json:"interval"`
	LastPost        Unix `json:"last_post"`
	Active          bool `json:"active"`
}

// NewGroup returns a group with default settings.
func NewGroup() Group {
	return Group{IntervalMinutes: DefaultIntervalMinutes, Active: true}
}

// Interval returns the minimum spacing between deliveries.
func (g Group) Interval() time.Duration {
	return minutes(g.IntervalMinutes)
}

// Campaign is the recurring paid announcement.
type Campaign struct {
	Active          bool   `json:"active"`
	Content         string `json:"content"`
	IntervalMinutes int    `json:"interval"`
	Limit           int    `json:"limit"`
	Sent            int    `json:"sent"`
	LastSent        Unix   `json:"last_sent"`
}

// DefaultCampaign returns an inactive campaign with placeholder content.
func DefaultCampaign() Campaign {
	return Campaign{
		Content:         DefaultAdContent,
		IntervalMinutes: DefaultAdIntervalMinutes,
	}
}

// Interval returns the minimum spacing between campaign runs.
func (c Campaign) Interval() time.Duration {
	return minutes(c.IntervalMinutes)
}

// ValidInterval reports whether n minutes is an accepted interval.
func ValidInterval(n int) bool {
	return n >= MinIntervalMinutes && n <= MaxIntervalMinutes
}

// minutes converts n to a duration clamped to the accepted interval range.
func minutes(n int) time.Duration {
	return time.Duration(min(max(n, MinIntervalMinutes), MaxIntervalMinutes)) * time.Minute
}

// Exhausted reports whether the campaign has used up its run budget.
// A zero limit allows no runs at all.
func (c Campaign) Exhausted() bool {
	return c.Sent >= c.Limit
}

// Settings holds scheduler bookkeeping.
type Settings struct {
	LastSupportPromo Unix `json:"last_support_promo"`
}

// Document is the whole persisted state.
type Document struct {
	Groups   map[int64]Group `json:"groups"`
	Users    []int64         `json:"users"`
	Ads      Campaign        `json:"ads"`
	Settings Settings        `json:"settings"`
}

// DefaultDocument returns an empty document.
func DefaultDocument() Document {
	return Document{
		Groups: map[int64]Group{},
		Users:  []int64{},
		Ads:    DefaultCampaign(),
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	cp := d
	cp.Groups = make(map[int64]Group, len(d.Groups))
	for id, g := range d.Groups {
		cp.Groups[id] = g
	}
	cp.Users = append([]int64(nil), d.Users...)
	if cp.Users == nil {
		cp.Users = []int64{}
	}
	return cp
}

// MessageRef points at an existing Telegram message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Payload is what gets delivered to a destination: either text or a copy
// of an existing message.
type Payload struct {
	Text      string
	ParseMode string
	Copy      *MessageRef
}

// Item is a single upstream post.
type Item struct {
	ID          string
	Title       string
	Description string
	Link        string
	PublishedAt time.Time
	Payload     Payload
}

// TargetSet selects broadcast recipients.
type TargetSet string

// Supported target sets.
const (
	TargetAll         TargetSet = "all"
	TargetGroups      TargetSet = "groups"
	TargetIndividuals TargetSet = "individuals"
)

// FilterKind defines the type of filter rule.
type FilterKind string

// Supported filter kinds.
const (
	FilterInclude   FilterKind = "include"
	FilterExclude   FilterKind = "exclude"
	FilterIncludeRe FilterKind = "include_re"
	FilterExcludeRe FilterKind = "exclude_re"
)

// FilterScope defines which part of an upstream item a filter matches against.
type FilterScope string

// Supported filter scopes.
const (
	ScopeTitle   FilterScope = "title"
	ScopeContent FilterScope = "content"
	ScopeAll     FilterScope = "all"
)

// Filter is a single rule applied to upstream items before fanout.
type Filter struct {
	Kind  FilterKind
	Scope FilterScope
	Value string
}
