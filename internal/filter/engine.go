// Package filter implements the upstream item matching engine.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"relay_bot/internal/model"
)

const regexPrefix = "re:"

// FeedItem is the text of an upstream item that filters match against.
type FeedItem struct {
	Title       string
	Description string
}

// Match checks whether an item passes the given set of filters.
// If no filters are provided, the item always passes.
// Include filters use OR logic (at least one must match).
// Exclude filters use AND logic (none must match).
func Match(item FeedItem, filters []model.Filter) bool {
	if len(filters) == 0 {
		return true
	}

	hasIncludes := false
	anyIncludeMatched := false

	for _, f := range filters {
		switch f.Kind {
		case model.FilterInclude, model.FilterIncludeRe:
			hasIncludes = true
			if matchesFilter(item, f) {
				anyIncludeMatched = true
			}
		case model.FilterExclude, model.FilterExcludeRe:
			if matchesFilter(item, f) {
				return false
			}
		}
	}

	return !hasIncludes || anyIncludeMatched
}

// ParseRules builds filters from comma separated include and exclude lists.
// An entry prefixed with "re:" is a case-insensitive regular expression,
// anything else a case-insensitive substring. A leading "title:" or
// "content:" limits the entry to that part of the item, e.g. "title:re:^ssc".
func ParseRules(include, exclude string) ([]model.Filter, error) {
	var filters []model.Filter
	add := func(raw string, word, re model.FilterKind) error {
		for _, entry := range strings.Split(raw, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			scope := model.ScopeAll
			for _, s := range []model.FilterScope{model.ScopeTitle, model.ScopeContent} {
				if rest, ok := strings.CutPrefix(entry, string(s)+":"); ok {
					scope, entry = s, rest
					break
				}
			}
			if entry == "" {
				return fmt.Errorf("empty %s filter", scope)
			}
			kind := word
			if strings.HasPrefix(entry, regexPrefix) {
				kind = re
				entry = strings.TrimPrefix(entry, regexPrefix)
				if err := ValidateRegex(entry); err != nil {
					return err
				}
			}
			filters = append(filters, model.Filter{Kind: kind, Scope: scope, Value: entry})
		}
		return nil
	}
	if err := add(include, model.FilterInclude, model.FilterIncludeRe); err != nil {
		return nil, err
	}
	if err := add(exclude, model.FilterExclude, model.FilterExcludeRe); err != nil {
		return nil, err
	}
	return filters, nil
}

func matchesFilter(item FeedItem, f model.Filter) bool {
	text := textForScope(item, f.Scope)
	switch f.Kind {
	case model.FilterInclude, model.FilterExclude:
		return strings.Contains(text, strings.ToLower(f.Value))
	case model.FilterIncludeRe, model.FilterExcludeRe:
		re, err := regexp.Compile("(?i)" + f.Value)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

func textForScope(item FeedItem, scope model.FilterScope) string {
	switch scope {
	case model.ScopeTitle:
		return strings.ToLower(item.Title)
	case model.ScopeContent:
		return strings.ToLower(item.Description)
	default:
		return strings.ToLower(item.Title + " " + item.Description)
	}
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}
