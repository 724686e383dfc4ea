package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"creditbot/events"
	"creditbot/lookup"
	"creditbot/models"
	"creditbot/service"
	"creditbot/session"
)

const (
	ownerID = int64(1)
	adminID = int64(2)
	userID  = int64(100)
)

// recordingClient captures everything the bot sends
type recordingClient struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	members   map[int64]string
	memberErr error
	nextID    int
}

func newRecordingClient() *recordingClient {
	return &recordingClient{members: make(map[int64]string)}
}

func (c *recordingClient) Send(ch tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sent = append(c.sent, ch)
	c.nextID++
	msg := tgbotapi.Message{MessageID: c.nextID, Chat: &tgbotapi.Chat{}}
	if m, ok := ch.(tgbotapi.MessageConfig); ok {
		msg.Chat.ID = m.ChatID
		msg.Text = m.Text
	}
	return msg, nil
}

func (c *recordingClient) Request(ch tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, ch)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (c *recordingClient) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.memberErr != nil {
		return tgbotapi.ChatMember{}, c.memberErr
	}
	status, ok := c.members[config.ChatID]
	if !ok {
		status = "left"
	}
	return tgbotapi.ChatMember{Status: status}, nil
}

// messages returns the text of every sent message, in order
func (c *recordingClient) messages() []tgbotapi.MessageConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []tgbotapi.MessageConfig
	for _, ch := range c.sent {
		if m, ok := ch.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *recordingClient) lastText() string {
	msgs := c.messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Text
}

func (c *recordingClient) edits() []tgbotapi.EditMessageTextConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []tgbotapi.EditMessageTextConfig
	for _, ch := range c.requests {
		if e, ok := ch.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (c *recordingClient) callbackAnswers() []tgbotapi.CallbackConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []tgbotapi.CallbackConfig
	for _, ch := range c.requests {
		if a, ok := ch.(tgbotapi.CallbackConfig); ok {
			out = append(out, a)
		}
	}
	return out
}

type redeemCall struct {
	userID int64
	code   string
}

type registration struct {
	userID     int64
	referrerID *int64
}

// stubLedger implements the parts of LedgerService the router reaches.
// Unimplemented methods panic through the embedded nil interface.
type stubLedger struct {
	service.LedgerService

	mu            sync.Mutex
	users         map[int64]*models.User
	registrations []registration
	redeems       []redeemCall
	redeemResult  models.RedeemResult
	sweeps        int
	sweepCount    int64
}

func newStubLedger() *stubLedger {
	return &stubLedger{users: make(map[int64]*models.User)}
}

func (l *stubLedger) GetUser(ctx context.Context, id int64) *models.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users[id]
}

func (l *stubLedger) RegisterUser(ctx context.Context, id int64, username string, referrerID *int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registrations = append(l.registrations, registration{userID: id, referrerID: referrerID})
	l.users[id] = &models.User{UserID: id, Credits: service.StartingCredits}
	return true
}

func (l *stubLedger) TouchActivity(ctx context.Context, id int64) {}

func (l *stubLedger) RedeemCode(ctx context.Context, id int64, code string) models.RedeemResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.redeems = append(l.redeems, redeemCall{userID: id, code: code})
	return l.redeemResult
}

func (l *stubLedger) SweepExpiredCodes(ctx context.Context) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweeps++
	return l.sweepCount
}

func (l *stubLedger) sweepRuns() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweeps
}

// stubAccess resolves levels from a fixed table
type stubAccess struct {
	service.AccessService
	levels map[int64]models.AdminLevel
}

func (a *stubAccess) Level(ctx context.Context, id int64) models.AdminLevel {
	return a.levels[id]
}

func (a *stubAccess) IsOwner(id int64) bool {
	return a.levels[id] == models.AdminLevelOwner
}

// stubReports answers the aggregate queries used by router tests
type stubReports struct {
	service.ReportService
	stats *models.LedgerStats
}

func (r *stubReports) Stats(ctx context.Context) *models.LedgerStats {
	return r.stats
}

func (r *stubReports) TopReferrers(ctx context.Context, limit int) []*models.ReferrerEntry {
	return nil
}

// stubRunner serves lookups from memory
type stubRunner struct {
	mu         sync.Mutex
	categories map[string]bool
	result     *lookup.Result
	err        error
	calls      []string
}

func (r *stubRunner) Available(category string) bool {
	return r.categories[category]
}

func (r *stubRunner) Run(ctx context.Context, id int64, category, input string) (*lookup.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, category+":"+input)
	if r.err != nil {
		return nil, r.err
	}
	out := *r.result
	out.Category = category
	out.Input = input
	return &out, nil
}

type fixture struct {
	bot      *Bot
	client   *recordingClient
	ledger   *stubLedger
	reports  *stubReports
	runner   *stubRunner
	sessions *session.MemoryStore
	bus      *events.Bus
}

func newFixture(t *testing.T, configure ...func(*Config)) *fixture {
	t.Helper()

	cfg := Config{
		Username:    "credit_test_bot",
		Categories:  []string{"num", "email"},
		LogChannels: map[string]int64{},
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	f := &fixture{
		client:   newRecordingClient(),
		ledger:   newStubLedger(),
		reports:  &stubReports{stats: &models.LedgerStats{TotalUsers: 12, ActiveCodes: 3}},
		runner:   &stubRunner{categories: map[string]bool{"num": true}, result: &lookup.Result{Text: `{"name": "x"}`, Payload: `{"name": "x"}`}},
		sessions: session.NewMemoryStore(0),
		bus:      events.NewBus(),
	}
	access := &stubAccess{levels: map[int64]models.AdminLevel{
		ownerID: models.AdminLevelOwner,
		adminID: models.AdminLevelAdmin,
	}}

	f.bot = New(cfg, f.client, f.ledger, f.reports, access, f.runner, f.sessions, f.bus)
	return f
}

func privateChat(id int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: "private"}
}

func textMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: from, FirstName: "Tester", UserName: "tester"},
		Chat:      privateChat(from),
		Text:      text,
	}
}

func commandMessage(from int64, text string) *tgbotapi.Message {
	msg := textMessage(from, text)
	name := strings.SplitN(text, " ", 2)[0]
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}}
	return msg
}

func callback(from int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: from, UserName: "tester"},
		Message: &tgbotapi.Message{MessageID: 55, Chat: privateChat(from)},
		Data:    data,
	}
}

func (f *fixture) send(msg *tgbotapi.Message) {
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (f *fixture) press(cb *tgbotapi.CallbackQuery) {
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: cb})
}

var errChatNotFound = errors.New("Bad Request: chat not found")
