package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay_bot/internal/access"
	"relay_bot/internal/broadcast"
	"relay_bot/internal/config"
	"relay_bot/internal/model"
	"relay_bot/internal/registry"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatAdministrators(config tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error)
	GetInviteLink(config tgbotapi.ChatInviteLinkConfig) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram transport and command surface.
type Bot struct {
	api    telegramAPI
	self   tgbotapi.User
	reg    *registry.Registry
	gate   *access.Gate
	caster *broadcast.Broadcaster
	cfg    *config.Config
	log    *slog.Logger

	inflight sync.WaitGroup
}

// New creates a Bot. Every API call goes through an HTTP client bounded by
// cfg.SendTimeout.
func New(cfg *config.Config, reg *registry.Registry, log *slog.Logger) (*Bot, error) {
	client := &http.Client{Timeout: cfg.SendTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramBotToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := &Bot{
		api:  api,
		self: api.Self,
		reg:  reg,
		cfg:  cfg,
		log:  log,
	}
	b.gate = access.NewGate(cfg.AdminIDs, b, log)
	b.caster = broadcast.New(b, cfg.BroadcastDelay, cfg.SendTimeout, log)
	return b, nil
}

// Run registers the command menus and handles updates until ctx is
// cancelled. It returns once in-flight broadcasts have finished.
func (b *Bot) Run(ctx context.Context) {
	b.setupCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.inflight.Wait()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	msg := update.Message
	if msg == nil {
		return
	}
	if len(msg.NewChatMembers) > 0 {
		b.handleJoin(ctx, msg)
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
	}
}

// Deliver sends a payload to a chat. Errors wrap model.ErrPermanentDelivery
// when the bot lacks the right to post there, model.ErrTransientDelivery
// otherwise.
func (b *Bot) Deliver(ctx context.Context, chatID int64, p model.Payload) error {
	var c tgbotapi.Chattable
	if p.Copy != nil {
		c = tgbotapi.NewCopyMessage(chatID, p.Copy.ChatID, p.Copy.MessageID)
	} else {
		msg := tgbotapi.NewMessage(chatID, p.Text)
		msg.ParseMode = p.ParseMode
		c = msg
	}
	return call(ctx, func() error {
		_, err := b.api.Send(c)
		return err
	})
}

// Administrators lists the user ids of a chat's administrators.
func (b *Bot) Administrators(ctx context.Context, chatID int64) ([]int64, error) {
	var members []tgbotapi.ChatMember
	err := call(ctx, func() error {
		var err error
		members, err = b.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get chat administrators: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			ids = append(ids, m.User.ID)
		}
	}
	return ids, nil
}

// InviteLink exports the primary invite link of a chat.
func (b *Bot) InviteLink(ctx context.Context, chatID int64) (string, error) {
	var link string
	err := call(ctx, func() error {
		var err error
		link, err = b.api.GetInviteLink(tgbotapi.ChatInviteLinkConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("export invite link: %w", err)
	}
	return link, nil
}

// call runs fn and classifies its error. It returns early when ctx ends;
// fn itself is bounded by the HTTP client timeout.
func call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			return classify(err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", model.ErrTransientDelivery, ctx.Err())
	}
}

var permanentMarkers = []string{
	"rights",
	"permission",
	"chat_write_forbidden",
	"chat not found",
	"kicked",
	"not a member",
	"blocked",
	"deactivated",
}

func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: %w", model.ErrPermanentDelivery, err)
		}
		if apiErr.Code == http.StatusBadRequest {
			msg := strings.ToLower(apiErr.Message)
			for _, marker := range permanentMarkers {
				if strings.Contains(msg, marker) {
					return fmt.Errorf("%w: %w", model.ErrPermanentDelivery, err)
				}
			}
		}
	}
	return fmt.Errorf("%w: %w", model.ErrTransientDelivery, err)
}

func (b *Bot) reply(chatID int64, text string) {
	b.replyMarkup(chatID, text, nil)
}

func (b *Bot) replyMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.sendHTML(chatID, text, markup); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendHTML(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	return b.api.Send(msg)
}

func (b *Bot) notifyLog(text string) {
	if b.cfg.LogChannel == 0 {
		return
	}
	b.reply(b.cfg.LogChannel, text)
}

func (b *Bot) setupCommands() {
	public := publicCommands()
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(public...)); err != nil {
		b.log.Error("set commands", "error", err)
		return
	}

	owner := append(public, ownerCommands()...)
	for _, id := range b.cfg.AdminIDs {
		scope := tgbotapi.NewBotCommandScopeChat(id)
		if _, err := b.api.Request(tgbotapi.NewSetMyCommandsWithScope(scope, owner...)); err != nil {
			b.log.Error("set owner commands", "user_id", id, "error", err)
		}
	}
	b.log.Info("bot commands updated")
}
