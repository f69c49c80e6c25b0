package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay_bot/internal/model"
)

const (
	cmdStart           = "start"
	cmdStop            = "stop"
	cmdSet             = "set"
	cmdAd              = "ad"
	cmdBroadcast       = "broadcast"
	cmdBroadcastGroups = "broadcastg"
	cmdBroadcastUsers  = "broadcastp"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID, "user_id", actorID(msg))

	switch cmd {
	case cmdStart:
		b.handleStart(ctx, msg)
	case cmdSet:
		b.handleSet(ctx, msg, args)
	case cmdStop:
		b.handleStop(ctx, msg)
	case cmdAd:
		b.handleAd(msg, args)
	case cmdBroadcast, cmdBroadcastGroups, cmdBroadcastUsers:
		b.handleBroadcast(ctx, msg, cmd)
	}
}

// actorID is the id a message was sent as: the chat itself for anonymous
// admins, the user otherwise.
func actorID(msg *tgbotapi.Message) int64 {
	if msg.SenderChat != nil {
		return msg.SenderChat.ID
	}
	if msg.From != nil {
		return msg.From.ID
	}
	return 0
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	keyboard := startKeyboard(b.self.UserName, b.cfg.SupportChannel, b.cfg.SupportGroup, b.cfg.OwnerLink)

	if msg.Chat.IsPrivate() {
		if b.reg.AddUser(actorID(msg)) {
			b.log.Info("new subscriber", "user_id", actorID(msg))
			b.notifyLog(FormatNewUser(msg.From))
		}
		b.replyMarkup(chatID, textWelcome, &keyboard)
		return
	}

	if !b.authorize(ctx, msg) {
		return
	}

	if !b.isChatAdmin(ctx, chatID, b.self.ID) {
		b.reply(chatID, textNeedAdmin)
		return
	}

	if b.reg.Subscribe(chatID) {
		b.log.Info("group subscribed", "chat_id", chatID, "title", msg.Chat.Title)
	}
	b.replyMarkup(chatID, FormatGroupActivated(), &keyboard)
}

// authorize replies with a denial when the sender may not manage the chat.
func (b *Bot) authorize(ctx context.Context, msg *tgbotapi.Message) bool {
	err := b.gate.Check(ctx, msg.Chat.ID, actorID(msg))
	if errors.Is(err, model.ErrPermissionDenied) {
		b.log.Info("command denied", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg.Chat.ID, textDenied)
		return false
	}
	return true
}

func (b *Bot) isChatAdmin(ctx context.Context, chatID, userID int64) bool {
	admins, err := b.Administrators(ctx, chatID)
	if err != nil {
		b.log.Warn("admin lookup failed", "chat_id", chatID, "error", err)
		return false
	}
	return slices.Contains(admins, userID)
}

func (b *Bot) handleSet(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	if msg.Chat.IsPrivate() {
		return
	}
	if !b.authorize(ctx, msg) {
		return
	}

	if args == "" {
		b.reply(chatID, textSetUsage)
		return
	}
	mins, err := ParseMinutes(args)
	if errors.Is(err, model.ErrInvalidInterval) {
		b.reply(chatID, textIntervalRange)
		return
	}
	if err != nil {
		b.reply(chatID, "❌ Please enter a valid number.")
		return
	}

	err = b.reg.SetInterval(chatID, time.Duration(mins)*time.Minute)
	switch {
	case errors.Is(err, model.ErrNotSubscribed):
		b.reply(chatID, textNotActive)
	case err != nil:
		b.reply(chatID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	default:
		b.reply(chatID, fmt.Sprintf("✅ Interval set to <b>%d minutes</b>.", mins))
	}
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.Chat.IsPrivate() {
		if b.reg.RemoveUser(actorID(msg)) {
			b.reply(chatID, textStoppedPrivate)
		}
		return
	}

	if !b.authorize(ctx, msg) {
		return
	}
	if b.reg.Unsubscribe(chatID) {
		b.log.Info("group unsubscribed", "chat_id", chatID)
	}
	b.reply(chatID, textStoppedGroup)
}

func (b *Bot) handleJoin(ctx context.Context, msg *tgbotapi.Message) {
	joined := slices.ContainsFunc(msg.NewChatMembers, func(u tgbotapi.User) bool {
		return u.ID == b.self.ID
	})
	if !joined {
		return
	}

	chatID := msg.Chat.ID
	b.log.Info("added to group", "chat_id", chatID, "title", msg.Chat.Title)

	keyboard := ownerKeyboard(b.cfg.OwnerLink)
	b.replyMarkup(chatID, textJoinGreeting, &keyboard)

	link, err := b.InviteLink(ctx, chatID)
	if err != nil {
		b.log.Debug("invite link unavailable", "chat_id", chatID, "error", err)
		link = textNoLink
	}
	b.notifyLog(FormatGroupAdded(msg.Chat, link, msg.From))
}

func (b *Bot) handleAd(msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	if !b.gate.IsOwner(actorID(msg)) {
		return
	}

	ad, err := ParseAdArgs(args)
	if err != nil {
		b.reply(chatID, html.EscapeString(err.Error())+"\n\n"+textAdUsage)
		return
	}

	if ad.Action == adContent && msg.ReplyToMessage != nil {
		ad.Content = html.EscapeString(replyText(msg.ReplyToMessage))
	}
	if ad.Action == adContent && ad.Content == "" {
		b.reply(chatID, textAdUsage)
		return
	}

	c := b.applyAd(ad)
	keyboard := campaignKeyboard()
	b.replyMarkup(chatID, FormatCampaign(c), &keyboard)
}

// applyAd performs an ad action and returns the resulting campaign.
func (b *Bot) applyAd(ad AdArgs) model.Campaign {
	if ad.Action == adStatus {
		return b.reg.Campaign()
	}
	c := b.reg.UpdateCampaign(func(c *model.Campaign) {
		switch ad.Action {
		case adOn:
			c.Active = true
		case adOff:
			c.Active = false
		case adReset:
			c.Sent = 0
		case adInterval:
			c.IntervalMinutes = ad.Number
		case adLimit:
			c.Limit = ad.Number
		case adContent:
			c.Content = ad.Content
		}
	})
	b.log.Info("ad campaign updated", "action", ad.Action, "active", c.Active, "sent", c.Sent, "limit", c.Limit)
	return c
}

func replyText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message, cmd string) {
	chatID := msg.Chat.ID
	if !b.gate.IsOwner(actorID(msg)) {
		return
	}
	if msg.ReplyToMessage == nil {
		b.reply(chatID, textReplyRequired)
		return
	}
	set, ok := broadcastTarget(cmd)
	if !ok {
		return
	}

	targets := b.reg.Targets(set)
	status, err := b.sendHTML(chatID, fmt.Sprintf("🚀 Sending to %d targets...", len(targets)), nil)
	if err != nil {
		b.log.Error("send broadcast status", "chat_id", chatID, "error", err)
	}

	payload := model.Payload{Copy: &model.MessageRef{
		ChatID:    chatID,
		MessageID: msg.ReplyToMessage.MessageID,
	}}

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()

		count := b.caster.Send(ctx, targets, payload)
		text := fmt.Sprintf("✅ Sent to %d recipients.", count)
		if status.MessageID == 0 {
			b.reply(chatID, text)
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID, status.MessageID, text)
		if _, err := b.api.Send(edit); err != nil {
			b.log.Error("edit broadcast status", "chat_id", chatID, "error", err)
		}
	}()
}
