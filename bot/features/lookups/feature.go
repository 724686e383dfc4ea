package lookups

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"creditbot/bot/common"
	"creditbot/lookup"
	"creditbot/session"
)

// Runner executes a paid lookup
type Runner interface {
	Available(category string) bool
	Run(ctx context.Context, userID int64, category, input string) (*lookup.Result, error)
}

// Feature handles the lookup menu buttons and the input that follows them
type Feature struct {
	client      common.Client
	runner      Runner
	sessions    session.Store
	membership  common.Membership
	logChannels map[string]int64
	menu        *tgbotapi.InlineKeyboardMarkup
	meta        lookup.Meta
	now         func() time.Time
}

// New creates the lookups feature. Results of a category are mirrored to its log
// channel when one is configured.
func New(client common.Client, runner Runner, sessions session.Store, membership common.Membership, logChannels map[string]int64, menu *tgbotapi.InlineKeyboardMarkup) *Feature {
	return &Feature{
		client:      client,
		runner:      runner,
		sessions:    sessions,
		membership:  membership,
		logChannels: logChannels,
		menu:        menu,
		meta:        lookup.DefaultMeta(time.Time{}),
		now:         time.Now,
	}
}
