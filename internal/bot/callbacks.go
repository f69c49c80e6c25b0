package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const callbackAd = "ad"

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	ack := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(ack); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if cb.Message == nil || cb.From == nil {
		return
	}

	prefix, action, ok := strings.Cut(cb.Data, ":")
	if !ok || prefix != callbackAd {
		return
	}

	chatID := cb.Message.Chat.ID
	b.log.Info("callback",
		"action", action,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	if !b.gate.IsOwner(cb.From.ID) {
		return
	}

	switch action {
	case adOn, adOff, adReset:
	default:
		return
	}

	c := b.applyAd(AdArgs{Action: action})
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID, FormatCampaign(c), campaignKeyboard())
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit campaign status", "chat_id", chatID, "error", err)
	}
}
