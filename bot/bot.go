package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/bot/features/account"
	"creditbot/bot/features/admins"
	"creditbot/bot/features/codes"
	"creditbot/bot/features/credits"
	"creditbot/bot/features/lookups"
	"creditbot/bot/features/redeem"
	"creditbot/bot/features/reports"
	"creditbot/events"
	"creditbot/service"
	"creditbot/session"
)

// updateTimeout bounds the handling of a single update
const updateTimeout = 2 * time.Minute

// Config holds bot configuration
type Config struct {
	Username          string
	Categories        []string
	LogChannels       map[string]int64
	ForceJoinChannels []int64
	ForceJoinLinks    []string

	// Webhook mode is used when WebhookURL is set, long polling otherwise
	WebhookURL    string
	WebhookPath   string
	WebhookSecret string
	ListenAddr    string

	MaintenanceInterval time.Duration
}

// Bot routes Telegram updates to the feature modules
type Bot struct {
	// Core components
	config   Config
	client   common.Client
	ledger   service.LedgerService
	access   service.AccessService
	sessions session.Store
	menu     *tgbotapi.InlineKeyboardMarkup

	// Feature modules
	account *account.Feature
	redeem  *redeem.Feature
	lookups *lookups.Feature
	codes   *codes.Feature
	credits *credits.Feature
	reports *reports.Feature
	admins  *admins.Feature

	// Routing tables
	commands  map[string]command
	callbacks map[string]callbackRoute
	states    map[session.State]stateRoute

	inflight sync.WaitGroup
}

// New creates a new bot instance with all features
func New(
	config Config,
	client common.Client,
	ledger service.LedgerService,
	reportService service.ReportService,
	access service.AccessService,
	runner lookups.Runner,
	sessions session.Store,
	eventBus *events.Bus,
) *Bot {
	menu := common.MainMenu(config.Categories)
	membership := NewMembership(client, access, config.ForceJoinChannels, config.ForceJoinLinks)

	b := &Bot{
		config:   config,
		client:   client,
		ledger:   ledger,
		access:   access,
		sessions: sessions,
		menu:     menu,

		account: account.New(client, ledger, access, membership, menu, config.Username),
		redeem:  redeem.New(client, ledger, sessions, menu),
		lookups: lookups.New(client, runner, sessions, membership, config.LogChannels, menu),
		codes:   codes.New(client, ledger, reportService, sessions),
		credits: credits.New(client, ledger, access, sessions),
		reports: reports.New(client, reportService),
		admins:  admins.New(client, access),
	}
	b.registerRoutes()

	if eventBus != nil {
		eventBus.Subscribe(events.EventTypeReferralBonus, b.notifyReferrer)
		eventBus.Subscribe(events.EventTypeCodesExpired, func(ctx context.Context, event events.Event) {
			if e, ok := event.(events.CodesExpiredEvent); ok {
				log.WithField("count", e.Count).Info("Expired redeem codes deactivated")
			}
		})
	}

	return b
}

// notifyReferrer tells the referrer about the bonus they just earned
func (b *Bot) notifyReferrer(ctx context.Context, event events.Event) {
	e, ok := event.(events.ReferralBonusEvent)
	if !ok {
		return
	}

	who := fmt.Sprintf("<code>%d</code>", e.NewUserID)
	if e.NewUsername != "" {
		who = "@" + common.Escape(e.NewUsername)
	}
	common.Notify(b.client, e.ReferrerID,
		fmt.Sprintf("🎉 <b>Referral +%d Credits!</b>\n\n%s joined using your link.", e.Bonus, who))
}

// HandleUpdate processes a single update. Panics are logged and swallowed so
// one bad update never stops the receive loop.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"update_id": update.UpdateID,
				"panic":     r,
				"stack":     string(debug.Stack()),
			}).Error("Panic while handling update")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// dispatch handles the update on its own goroutine. The handler context
// survives cancellation of ctx so in-flight updates can finish during shutdown.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.HandleUpdate(context.WithoutCancel(ctx), update)
	}()
}

// Wait blocks until every dispatched update finished or timeout elapsed
func (b *Bot) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
