package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"relay_bot/internal/model"
)

type groupRecord struct {
	Interval *int       `json:"interval"`
	LastPost model.Unix `json:"last_post"`
	Active   *bool      `json:"active"`
}

type rawDocument struct {
	Groups   json.RawMessage `json:"groups"`
	Users    []int64         `json:"users"`
	Ads      json.RawMessage `json:"ads"`
	Settings json.RawMessage `json:"settings"`
}

// Decode parses a persisted document. Legacy shapes are upgraded: a plain
// list of group ids becomes a map of default settings, and missing sections
// or fields are filled with defaults.
func Decode(data []byte) (model.Document, error) {
	doc := model.DefaultDocument()

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.DefaultDocument(), fmt.Errorf("decode document: %w", err)
	}

	groups, err := decodeGroups(raw.Groups)
	if err != nil {
		return model.DefaultDocument(), err
	}
	doc.Groups = groups

	if raw.Users != nil {
		doc.Users = raw.Users
	}

	if !isEmpty(raw.Ads) {
		if err := json.Unmarshal(raw.Ads, &doc.Ads); err != nil {
			return model.DefaultDocument(), fmt.Errorf("decode ads: %w", err)
		}
		if !model.ValidInterval(doc.Ads.IntervalMinutes) {
			doc.Ads.IntervalMinutes = model.DefaultAdIntervalMinutes
		}
	}
	if !isEmpty(raw.Settings) {
		if err := json.Unmarshal(raw.Settings, &doc.Settings); err != nil {
			return model.DefaultDocument(), fmt.Errorf("decode settings: %w", err)
		}
	}

	return doc, nil
}

// Encode serializes a document in its current shape.
func Encode(doc model.Document) ([]byte, error) {
	if doc.Groups == nil {
		doc.Groups = map[int64]model.Group{}
	}
	if doc.Users == nil {
		doc.Users = []int64{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func decodeGroups(raw json.RawMessage) (map[int64]model.Group, error) {
	groups := map[int64]model.Group{}
	if isEmpty(raw) {
		return groups, nil
	}

	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '[' {
		var ids []json.RawMessage
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, fmt.Errorf("decode legacy groups: %w", err)
		}
		for _, rawID := range ids {
			id, err := strconv.ParseInt(string(bytes.Trim(rawID, `"`)), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("decode legacy group id %s: %w", rawID, err)
			}
			groups[id] = model.NewGroup()
		}
		return groups, nil
	}

	var records map[int64]groupRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	for id, rec := range records {
		g := model.NewGroup()
		if rec.Interval != nil && model.ValidInterval(*rec.Interval) {
			g.IntervalMinutes = *rec.Interval
		}
		if rec.Active != nil {
			g.Active = *rec.Active
		}
		g.LastPost = rec.LastPost
		groups[id] = g
	}
	return groups, nil
}

func isEmpty(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
