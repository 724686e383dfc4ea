package redeem

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"creditbot/bot/common"
	"creditbot/service"
	"creditbot/session"
)

// Feature handles promotional code redemption by users
type Feature struct {
	client   common.Client
	ledger   service.LedgerService
	sessions session.Store
	menu     *tgbotapi.InlineKeyboardMarkup
}

// New creates the redeem feature
func New(client common.Client, ledger service.LedgerService, sessions session.Store, menu *tgbotapi.InlineKeyboardMarkup) *Feature {
	return &Feature{
		client:   client,
		ledger:   ledger,
		sessions: sessions,
		menu:     menu,
	}
}
