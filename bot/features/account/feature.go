package account

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"creditbot/bot/common"
	"creditbot/service"
)

// Feature handles onboarding, the main menu and the profile screens
type Feature struct {
	client      common.Client
	ledger      service.LedgerService
	access      service.AccessService
	membership  common.Membership
	menu        *tgbotapi.InlineKeyboardMarkup
	botUsername string
}

// New creates the account feature
func New(client common.Client, ledger service.LedgerService, access service.AccessService, membership common.Membership, menu *tgbotapi.InlineKeyboardMarkup, botUsername string) *Feature {
	return &Feature{
		client:      client,
		ledger:      ledger,
		access:      access,
		membership:  membership,
		menu:        menu,
		botUsername: botUsername,
	}
}
