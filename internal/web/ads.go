package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"relay_bot/internal/model"
	"relay_bot/internal/registry"
)

type handler struct {
	reg *registry.Registry
	log *slog.Logger
}

// CampaignUpdate is a partial campaign change. Nil fields are left as they are.
type CampaignUpdate struct {
	Active   *bool   `json:"active"`
	Content  *string `json:"content"`
	Interval *int    `json:"interval"`
	Limit    *int    `json:"limit"`
}

func (u CampaignUpdate) validate() string {
	if u.Interval != nil && !model.ValidInterval(*u.Interval) {
		return fmt.Sprintf("interval must be between %d and %d minutes", model.MinIntervalMinutes, model.MaxIntervalMinutes)
	}
	if u.Limit != nil && *u.Limit < 0 {
		return "limit must not be negative"
	}
	if u.Content != nil && *u.Content == "" {
		return "content must not be empty"
	}
	return ""
}

func (h *handler) Stats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.reg.Stats())
}

func (h *handler) GetCampaign(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.reg.Campaign())
}

func (h *handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CampaignUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	c := h.reg.UpdateCampaign(func(c *model.Campaign) {
		if req.Active != nil {
			c.Active = *req.Active
		}
		if req.Content != nil {
			c.Content = *req.Content
		}
		if req.Interval != nil {
			c.IntervalMinutes = *req.Interval
		}
		if req.Limit != nil {
			c.Limit = *req.Limit
		}
	})
	h.log.Info("ad campaign updated from dashboard", "active", c.Active, "interval", c.IntervalMinutes, "limit", c.Limit)
	respondJSON(w, http.StatusOK, c)
}

func (h *handler) ResetCampaign(w http.ResponseWriter, _ *http.Request) {
	c := h.reg.UpdateCampaign(func(c *model.Campaign) {
		c.Sent = 0
	})
	respondJSON(w, http.StatusOK, c)
}
