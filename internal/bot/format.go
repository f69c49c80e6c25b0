package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay_bot/internal/model"
)

const (
	textWelcome = "👋 <b>Hello! I am the Job Alert Bot.</b>\n\n" +
		"I forward fresh job alerts as soon as they are published.\n" +
		"Add me to your group and <b>Promote to Admin</b>."

	textJoinGreeting   = "👋 <b>Hi!</b> Promote me to <b>Admin</b> and type /start."
	textNeedAdmin      = "⚠️ <b>Action Required:</b> Make me <b>Admin</b> to receive alerts."
	textDenied         = "❌ <b>Permission Denied:</b> Only Group Admins (or Owner) can use this command."
	textNotActive      = "⚠️ Bot not active. Type /start first."
	textSetUsage       = "Usage: <code>/set 30</code> (minutes)"
	textIntervalRange  = "⚠️ Interval must be between 1 minute and 30 days."
	textStoppedPrivate = "🔕 Stopped."
	textStoppedGroup   = "🔕 <b>Stopped.</b> Type /start to resume."
	textReplyRequired  = "Reply to a message to broadcast."
	textNoLink         = "No Link (Bot needs Admin)"
	textUnknown        = "Unknown"

	textAdUsage = "Usage:\n" +
		"/ad - show campaign status\n" +
		"/ad on | /ad off\n" +
		"/ad interval &lt;min&gt;\n" +
		"/ad limit &lt;n&gt;\n" +
		"/ad reset - restart the send counter\n" +
		"/ad content &lt;html&gt; (or reply to a message)"
)

// PromoText is the daily support reminder posted to every active group.
func PromoText(supportGroup string) string {
	return "📢 <b>Daily Reminder:</b>\nJoin our Support Group!\n" + html.EscapeString(supportGroup)
}

// FormatGroupActivated confirms a subscription in a group.
func FormatGroupActivated() string {
	return fmt.Sprintf("✅ <b>Bot Active!</b>\n"+
		"• Default Interval: %d mins\n"+
		"• Change: <code>/set 15</code> (min %d min)\n"+
		"• Stop: /stop", model.DefaultIntervalMinutes, model.MinIntervalMinutes)
}

// FormatUserInfo renders a Telegram user for the log channel.
func FormatUserInfo(u *tgbotapi.User) string {
	if u == nil {
		return textUnknown
	}
	username := "No Username"
	if u.UserName != "" {
		username = "@" + u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return fmt.Sprintf("👤 <b>Name:</b> %s\n🆔 <b>ID:</b> <code>%d</code>\n🔗 <b>Username:</b> %s",
		html.EscapeString(name), u.ID, html.EscapeString(username))
}

// FormatNewUser is the log channel notice for a first /start.
func FormatNewUser(u *tgbotapi.User) string {
	return "🆕 <b>New User Started Bot</b>\n\n" + FormatUserInfo(u)
}

// FormatGroupAdded is the log channel notice for the bot joining a group.
func FormatGroupAdded(chat *tgbotapi.Chat, link string, addedBy *tgbotapi.User) string {
	var b strings.Builder
	b.WriteString("➕ <b>Bot Added to Group</b>\n\n")
	fmt.Fprintf(&b, "📛 <b>Group:</b> %s\n", html.EscapeString(chat.Title))
	fmt.Fprintf(&b, "🆔 <b>Group ID:</b> <code>%d</code>\n", chat.ID)
	fmt.Fprintf(&b, "🔗 <b>Link:</b> %s\n\n", html.EscapeString(link))
	b.WriteString("👮 <b>Added By:</b>\n")
	b.WriteString(FormatUserInfo(addedBy))
	return b.String()
}

// FormatCampaign renders the ad campaign status for owners.
func FormatCampaign(c model.Campaign) string {
	status := "🔴 off"
	if c.Active {
		status = "🟢 on"
	}
	last := "never"
	if c.LastSent > 0 {
		last = c.LastSent.Time().UTC().Format("2006-01-02 15:04 UTC")
	}

	var b strings.Builder
	b.WriteString("📣 <b>Ad Campaign</b>\n\n")
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Interval: every %d min\n", c.IntervalMinutes)
	fmt.Fprintf(&b, "Sent: %d / %d\n", c.Sent, c.Limit)
	fmt.Fprintf(&b, "Last run: %s\n\n", last)
	b.WriteString("Content:\n")
	b.WriteString(c.Content)
	return b.String()
}

func startKeyboard(botUsername, supportChannel, supportGroup, ownerLink string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Support Channel", supportChannel),
			tgbotapi.NewInlineKeyboardButtonURL("👥 Support Group", supportGroup),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("➕ Add to Group", fmt.Sprintf("https://t.me/%s?startgroup=true", botUsername)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👤 Owner", ownerLink),
		),
	)
}

func ownerKeyboard(ownerLink string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👤 Owner", ownerLink),
		),
	)
}

func campaignKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Turn on", callbackAd+":"+adOn),
			tgbotapi.NewInlineKeyboardButtonData("Turn off", callbackAd+":"+adOff),
			tgbotapi.NewInlineKeyboardButtonData("Reset counter", callbackAd+":"+adReset),
		),
	)
}

func publicCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: cmdStart, Description: "Start Alerts"},
		{Command: cmdStop, Description: "Stop Alerts"},
		{Command: cmdSet, Description: "Set Interval"},
	}
}

func ownerCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: cmdAd, Description: "Ad Campaign"},
		{Command: cmdBroadcast, Description: "Broadcast All"},
		{Command: cmdBroadcastGroups, Description: "Broadcast Groups"},
		{Command: cmdBroadcastUsers, Description: "Broadcast Users"},
	}
}
