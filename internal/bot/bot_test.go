package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"relay_bot/internal/access"
	"relay_bot/internal/broadcast"
	"relay_bot/internal/config"
	"relay_bot/internal/model"
	"relay_bot/internal/registry"
	"relay_bot/internal/storage"
)

const (
	botID      int64 = 999
	ownerID    int64 = 7
	adminID    int64 = 1
	strangerID int64 = 42
	groupID    int64 = -100
	logChat    int64 = -500
)

// --- mocks ---

type sentMsg struct {
	ChatID int64
	Text   string
}

type copiedMsg struct {
	ChatID     int64
	FromChatID int64
	MessageID  int
}

type mockAPI struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMsg
	copies   []copiedMsg
	edits    []sentMsg
	requests []tgbotapi.Chattable
	sendErrs map[int64]error

	admins    map[int64][]int64
	adminsErr error
	link      string
	linkErr   error
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch msg := c.(type) {
	case tgbotapi.MessageConfig:
		if err := m.sendErrs[msg.ChatID]; err != nil {
			return tgbotapi.Message{}, err
		}
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
	case tgbotapi.CopyMessageConfig:
		if err := m.sendErrs[msg.ChatID]; err != nil {
			return tgbotapi.Message{}, err
		}
		m.copies = append(m.copies, copiedMsg{ChatID: msg.ChatID, FromChatID: msg.FromChatID, MessageID: msg.MessageID})
	case tgbotapi.EditMessageTextConfig:
		m.edits = append(m.edits, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
	}
	m.nextID++
	return tgbotapi.Message{MessageID: m.nextID}, nil
}

func (m *mockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockAPI) GetChatAdministrators(cfg tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error) {
	if m.adminsErr != nil {
		return nil, m.adminsErr
	}
	var members []tgbotapi.ChatMember
	for _, id := range m.admins[cfg.ChatID] {
		members = append(members, tgbotapi.ChatMember{User: &tgbotapi.User{ID: id}, Status: "administrator"})
	}
	return members, nil
}

func (m *mockAPI) GetInviteLink(tgbotapi.ChatInviteLinkConfig) (string, error) {
	return m.link, m.linkErr
}

func (m *mockAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) textsTo(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s.Text)
		}
	}
	return out
}

func (m *mockAPI) lastTextTo(chatID int64) string {
	texts := m.textsTo(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// --- helpers ---

func newTestBot(t *testing.T, api *mockAPI, doc model.Document) *Bot {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	cfg := &config.Config{
		AdminIDs:       []int64{ownerID},
		LogChannel:     logChat,
		SupportGroup:   "https://t.me/support_group",
		SupportChannel: "https://t.me/support_channel",
		OwnerLink:      "https://t.me/owner",
		SendTimeout:    time.Second,
	}

	b := &Bot{
		api:  api,
		self: tgbotapi.User{ID: botID, UserName: "relaybot", IsBot: true},
		reg:  registry.Open(ctx, store, log),
		cfg:  cfg,
		log:  log,
	}
	b.gate = access.NewGate(cfg.AdminIDs, b, log)
	b.caster = broadcast.New(b, 0, time.Second, log)
	return b
}

var (
	privateChat = func(id int64) *tgbotapi.Chat { return &tgbotapi.Chat{ID: id, Type: "private"} }
	groupChat   = &tgbotapi.Chat{ID: groupID, Type: "supergroup", Title: "Jobs <Daily>"}
)

func command(chat *tgbotapi.Chat, fromID int64, text string) *tgbotapi.Message {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return &tgbotapi.Message{
		MessageID: 10,
		Chat:      chat,
		From:      &tgbotapi.User{ID: fromID, FirstName: "Asha", UserName: "asha"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}
}

func dispatch(b *Bot, msg *tgbotapi.Message) {
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

// --- tests ---

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{name: "forbidden", err: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked from the group chat"}, permanent: true},
		{name: "no rights", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: not enough rights to send text messages to the chat"}, permanent: true},
		{name: "chat not found", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, permanent: true},
		{name: "bad markup", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"}, permanent: false},
		{name: "flood", err: &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"}, permanent: false},
		{name: "network", err: errors.New("dial tcp: i/o timeout"), permanent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			if got := errors.Is(err, model.ErrPermanentDelivery); got != tt.permanent {
				t.Errorf("permanent = %v, want %v (err %v)", got, tt.permanent, err)
			}
			if got := errors.Is(err, model.ErrTransientDelivery); got == tt.permanent {
				t.Errorf("transient = %v, want %v (err %v)", got, !tt.permanent, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("classified error does not wrap the original: %v", err)
			}
		})
	}
}

func TestDeliver(t *testing.T) {
	api := &mockAPI{sendErrs: map[int64]error{
		-2: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot is not a member of the supergroup chat"},
	}}
	b := newTestBot(t, api, model.DefaultDocument())
	ctx := context.Background()

	if err := b.Deliver(ctx, -1, model.Payload{Text: "<b>job</b>", ParseMode: model.ParseModeHTML}); err != nil {
		t.Fatalf("deliver text: %v", err)
	}
	if err := b.Deliver(ctx, -1, model.Payload{Copy: &model.MessageRef{ChatID: 5, MessageID: 77}}); err != nil {
		t.Fatalf("deliver copy: %v", err)
	}
	if err := b.Deliver(ctx, -2, model.Payload{Text: "x"}); !errors.Is(err, model.ErrPermanentDelivery) {
		t.Errorf("deliver to removed chat: got %v, want permanent failure", err)
	}

	if diff := cmp.Diff([]string{"<b>job</b>"}, api.textsTo(-1)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]copiedMsg{{ChatID: -1, FromChatID: 5, MessageID: 77}}, api.copies); diff != "" {
		t.Errorf("copies mismatch (-want +got):\n%s", diff)
	}
}

func TestCallHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)
	err := call(ctx, func() error {
		<-block
		return nil
	})
	if !errors.Is(err, model.ErrTransientDelivery) || !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want transient context.Canceled", err)
	}
}

func TestAdministrators(t *testing.T) {
	api := &mockAPI{admins: map[int64][]int64{groupID: {adminID, botID}}}
	b := newTestBot(t, api, model.DefaultDocument())

	got, err := b.Administrators(context.Background(), groupID)
	if err != nil {
		t.Fatalf("administrators: %v", err)
	}
	if diff := cmp.Diff([]int64{adminID, botID}, got); diff != "" {
		t.Errorf("admins mismatch (-want +got):\n%s", diff)
	}
}

func TestStartPrivate(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	dispatch(b, command(privateChat(55), 55, "/start"))
	dispatch(b, command(privateChat(55), 55, "/start"))

	if diff := cmp.Diff([]int64{55}, b.reg.Snapshot().Users); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}

	logs := api.textsTo(logChat)
	if len(logs) != 1 {
		t.Fatalf("log channel got %d messages, want 1: %q", len(logs), logs)
	}
	if !strings.Contains(logs[0], "New User Started Bot") || !strings.Contains(logs[0], "<code>55</code>") {
		t.Errorf("unexpected new user log: %q", logs[0])
	}

	if got := len(api.textsTo(55)); got != 2 {
		t.Errorf("welcome sent %d times, want 2", got)
	}
	if !strings.Contains(api.lastTextTo(55), "Job Alert Bot") {
		t.Errorf("unexpected welcome: %q", api.lastTextTo(55))
	}
}

func TestStartGroup(t *testing.T) {
	tests := []struct {
		name       string
		actor      int64
		admins     []int64
		adminsErr  error
		wantText   string
		subscribed bool
	}{
		{name: "stranger denied", actor: strangerID, admins: []int64{adminID, botID}, wantText: "Permission Denied"},
		{name: "bot not admin", actor: adminID, admins: []int64{adminID}, wantText: "Make me <b>Admin</b>"},
		{name: "admin subscribes", actor: adminID, admins: []int64{adminID, botID}, wantText: "Bot Active!", subscribed: true},
		{name: "owner subscribes", actor: ownerID, admins: []int64{botID}, wantText: "Bot Active!", subscribed: true},
		{name: "anonymous admin", actor: groupID, admins: []int64{botID}, wantText: "Bot Active!", subscribed: true},
		{name: "lookup failure denies", actor: adminID, adminsErr: errors.New("timeout"), wantText: "Permission Denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{admins: map[int64][]int64{groupID: tt.admins}, adminsErr: tt.adminsErr}
			b := newTestBot(t, api, model.DefaultDocument())

			msg := command(groupChat, tt.actor, "/start")
			if tt.actor == groupID {
				msg.SenderChat = groupChat
			}
			dispatch(b, msg)

			if got := api.lastTextTo(groupID); !strings.Contains(got, tt.wantText) {
				t.Errorf("reply = %q, want it to contain %q", got, tt.wantText)
			}
			g, ok := b.reg.Group(groupID)
			if ok != tt.subscribed {
				t.Fatalf("subscribed = %v, want %v", ok, tt.subscribed)
			}
			if ok {
				if diff := cmp.Diff(model.NewGroup(), g); diff != "" {
					t.Errorf("group mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestStartReactivatesGroup(t *testing.T) {
	doc := model.DefaultDocument()
	doc.Groups[groupID] = model.Group{IntervalMinutes: 15, Active: false}
	api := &mockAPI{admins: map[int64][]int64{groupID: {adminID, botID}}}
	b := newTestBot(t, api, doc)

	dispatch(b, command(groupChat, adminID, "/start"))

	g, _ := b.reg.Group(groupID)
	if diff := cmp.Diff(model.Group{IntervalMinutes: 15, Active: true}, g); diff != "" {
		t.Errorf("group mismatch (-want +got):\n%s", diff)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name         string
		subscribed   bool
		actor        int64
		text         string
		wantText     string
		wantInterval int
	}{
		{name: "valid", subscribed: true, actor: adminID, text: "/set 15", wantText: "Interval set to <b>15 minutes</b>", wantInterval: 15},
		{name: "minimum", subscribed: true, actor: adminID, text: "/set 1", wantText: "1 minutes", wantInterval: 1},
		{name: "zero", subscribed: true, actor: adminID, text: "/set 0", wantText: "between 1 minute and 30 days", wantInterval: 30},
		{name: "not a number", subscribed: true, actor: adminID, text: "/set soon", wantText: "valid number", wantInterval: 30},
		{name: "no argument", subscribed: true, actor: adminID, text: "/set", wantText: "Usage", wantInterval: 30},
		{name: "stranger", subscribed: true, actor: strangerID, text: "/set 5", wantText: "Permission Denied", wantInterval: 30},
		{name: "not subscribed", actor: adminID, text: "/set 5", wantText: "Bot not active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := model.DefaultDocument()
			if tt.subscribed {
				doc.Groups[groupID] = model.NewGroup()
			}
			api := &mockAPI{admins: map[int64][]int64{groupID: {adminID, botID}}}
			b := newTestBot(t, api, doc)

			dispatch(b, command(groupChat, tt.actor, tt.text))

			if got := api.lastTextTo(groupID); !strings.Contains(got, tt.wantText) {
				t.Errorf("reply = %q, want it to contain %q", got, tt.wantText)
			}
			g, _ := b.reg.Group(groupID)
			if g.IntervalMinutes != tt.wantInterval {
				t.Errorf("interval = %d, want %d", g.IntervalMinutes, tt.wantInterval)
			}
		})
	}
}

func TestSetIgnoredInPrivate(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	dispatch(b, command(privateChat(55), 55, "/set 5"))

	if got := api.textsTo(55); len(got) != 0 {
		t.Errorf("expected no reply, got %q", got)
	}
}

func TestStop(t *testing.T) {
	doc := model.DefaultDocument()
	doc.Groups[groupID] = model.NewGroup()
	doc.Users = []int64{55}
	api := &mockAPI{admins: map[int64][]int64{groupID: {adminID, botID}}}
	b := newTestBot(t, api, doc)

	dispatch(b, command(groupChat, strangerID, "/stop"))
	if _, ok := b.reg.Group(groupID); !ok {
		t.Fatal("stranger unsubscribed the group")
	}

	dispatch(b, command(groupChat, adminID, "/stop"))
	if _, ok := b.reg.Group(groupID); ok {
		t.Error("group still subscribed after /stop")
	}
	if got := api.lastTextTo(groupID); !strings.Contains(got, "Stopped.") {
		t.Errorf("unexpected reply %q", got)
	}

	dispatch(b, command(privateChat(55), 55, "/stop"))
	if got := b.reg.Snapshot().Users; len(got) != 0 {
		t.Errorf("users = %v, want empty", got)
	}
	if diff := cmp.Diff([]string{textStoppedPrivate}, api.textsTo(55)); diff != "" {
		t.Errorf("private replies mismatch (-want +got):\n%s", diff)
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		linkErr  error
		wantLink string
	}{
		{name: "with link", link: "https://t.me/+abc", wantLink: "https://t.me/+abc"},
		{name: "no rights", linkErr: &tgbotapi.Error{Code: 400, Message: "Bad Request: not enough rights"}, wantLink: textNoLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{link: tt.link, linkErr: tt.linkErr}
			b := newTestBot(t, api, model.DefaultDocument())

			msg := &tgbotapi.Message{
				Chat:           groupChat,
				From:           &tgbotapi.User{ID: adminID, FirstName: "Asha"},
				NewChatMembers: []tgbotapi.User{{ID: botID, IsBot: true}},
			}
			dispatch(b, msg)

			if diff := cmp.Diff([]string{textJoinGreeting}, api.textsTo(groupID)); diff != "" {
				t.Errorf("greeting mismatch (-want +got):\n%s", diff)
			}
			logs := api.textsTo(logChat)
			if len(logs) != 1 {
				t.Fatalf("log channel got %d messages, want 1", len(logs))
			}
			for _, want := range []string{"Bot Added to Group", "Jobs &lt;Daily&gt;", "<code>-100</code>", tt.wantLink, "<code>1</code>"} {
				if !strings.Contains(logs[0], want) {
					t.Errorf("log %q missing %q", logs[0], want)
				}
			}
			if _, ok := b.reg.Group(groupID); ok {
				t.Error("joining must not subscribe the group")
			}
		})
	}
}

func TestJoinIgnoresOtherMembers(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	dispatch(b, &tgbotapi.Message{
		Chat:           groupChat,
		From:           &tgbotapi.User{ID: adminID},
		NewChatMembers: []tgbotapi.User{{ID: 1234}},
	})

	if len(api.textsTo(groupID)) != 0 || len(api.textsTo(logChat)) != 0 {
		t.Error("expected no messages for a regular member joining")
	}
}

func TestAdCommand(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())
	owner := privateChat(ownerID)

	dispatch(b, command(privateChat(strangerID), strangerID, "/ad on"))
	if b.reg.Campaign().Active {
		t.Fatal("non-owner enabled the campaign")
	}

	for _, text := range []string{"/ad on", "/ad interval 120", "/ad limit 3", "/ad content <b>Hiring</b>"} {
		dispatch(b, command(owner, ownerID, text))
	}

	want := model.Campaign{Active: true, Content: "<b>Hiring</b>", IntervalMinutes: 120, Limit: 3}
	if diff := cmp.Diff(want, b.reg.Campaign()); diff != "" {
		t.Errorf("campaign mismatch (-want +got):\n%s", diff)
	}
	if got := api.lastTextTo(ownerID); !strings.Contains(got, "Sent: 0 / 3") {
		t.Errorf("unexpected status %q", got)
	}

	b.reg.RecordAdRun(time.Unix(1000, 0))
	dispatch(b, command(owner, ownerID, "/ad reset"))
	if got := b.reg.Campaign().Sent; got != 0 {
		t.Errorf("sent after reset = %d, want 0", got)
	}
}

func TestAdContentFromReply(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	msg := command(privateChat(ownerID), ownerID, "/ad content")
	msg.ReplyToMessage = &tgbotapi.Message{MessageID: 3, Text: "Apply <now> & win"}
	dispatch(b, msg)

	if got, want := b.reg.Campaign().Content, "Apply &lt;now&gt; &amp; win"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestAdInvalidArgs(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	dispatch(b, command(privateChat(ownerID), ownerID, "/ad interval 0"))

	if got := b.reg.Campaign(); got.IntervalMinutes != model.DefaultAdIntervalMinutes {
		t.Errorf("interval = %d, want unchanged", got.IntervalMinutes)
	}
	if got := api.lastTextTo(ownerID); !strings.Contains(got, "Usage") {
		t.Errorf("expected usage reply, got %q", got)
	}
}

func TestAdCallback(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: ownerID},
		Message: &tgbotapi.Message{MessageID: 4, Chat: privateChat(ownerID)},
		Data:    "ad:on",
	}
	b.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: cb})

	if !b.reg.Campaign().Active {
		t.Error("callback did not enable the campaign")
	}
	if len(api.edits) != 1 || !strings.Contains(api.edits[0].Text, "🟢 on") {
		t.Errorf("unexpected edits %v", api.edits)
	}
	if len(api.requests) != 1 {
		t.Errorf("callback acknowledged %d times, want 1", len(api.requests))
	}

	cb.From = &tgbotapi.User{ID: strangerID}
	cb.Data = "ad:off"
	b.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: cb})
	if !b.reg.Campaign().Active {
		t.Error("non-owner callback changed the campaign")
	}
}

func TestBroadcast(t *testing.T) {
	tests := []struct {
		name        string
		cmd         string
		wantTargets []int64
	}{
		{name: "all", cmd: "/broadcast", wantTargets: []int64{-300, -200, 55, 66}},
		{name: "groups", cmd: "/broadcastg", wantTargets: []int64{-300, -200}},
		{name: "individuals", cmd: "/broadcastp", wantTargets: []int64{55, 66}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := model.DefaultDocument()
			doc.Groups[-200] = model.NewGroup()
			doc.Groups[-300] = model.Group{IntervalMinutes: 30, Active: false}
			doc.Users = []int64{55, 66}
			api := &mockAPI{sendErrs: map[int64]error{66: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}}}
			b := newTestBot(t, api, doc)

			msg := command(privateChat(ownerID), ownerID, tt.cmd)
			msg.ReplyToMessage = &tgbotapi.Message{MessageID: 9, Text: "news"}
			dispatch(b, msg)
			b.inflight.Wait()

			var got []int64
			for _, c := range api.copies {
				if c.FromChatID != ownerID || c.MessageID != 9 {
					t.Errorf("unexpected copy source %+v", c)
				}
				got = append(got, c.ChatID)
			}
			want := make([]int64, 0, len(tt.wantTargets))
			for _, id := range tt.wantTargets {
				if id != 66 {
					want = append(want, id)
				}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("copies mismatch (-want +got):\n%s", diff)
			}

			status := api.textsTo(ownerID)
			if len(status) != 1 || !strings.Contains(status[0], "Sending to") {
				t.Errorf("unexpected status messages %q", status)
			}
			if len(api.edits) != 1 || !strings.Contains(api.edits[0].Text, "Sent to") {
				t.Fatalf("unexpected edits %v", api.edits)
			}
		})
	}
}

func TestBroadcastRequiresReply(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	dispatch(b, command(privateChat(ownerID), ownerID, "/broadcast"))
	dispatch(b, command(privateChat(strangerID), strangerID, "/broadcast"))
	b.inflight.Wait()

	if diff := cmp.Diff([]string{textReplyRequired}, api.textsTo(ownerID)); diff != "" {
		t.Errorf("owner replies mismatch (-want +got):\n%s", diff)
	}
	if got := api.textsTo(strangerID); len(got) != 0 {
		t.Errorf("stranger got replies %q", got)
	}
}

func TestSetupCommands(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(t, api, model.DefaultDocument())

	b.setupCommands()

	if len(api.requests) != 2 {
		t.Fatalf("requests = %d, want default set plus one owner scope", len(api.requests))
	}
	owner, ok := api.requests[1].(tgbotapi.SetMyCommandsConfig)
	if !ok {
		t.Fatalf("unexpected request %T", api.requests[1])
	}
	var names []string
	for _, c := range owner.Commands {
		names = append(names, c.Command)
	}
	want := []string{"start", "stop", "set", "ad", "broadcast", "broadcastg", "broadcastp"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("owner commands mismatch (-want +got):\n%s", diff)
	}
}
