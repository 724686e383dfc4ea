package credits

import (
	"creditbot/bot/common"
	"creditbot/service"
	"creditbot/session"
)

// Feature handles operator balance adjustments and bans
type Feature struct {
	client   common.Client
	ledger   service.LedgerService
	access   service.AccessService
	sessions session.Store
}

// New creates the credits feature
func New(client common.Client, ledger service.LedgerService, access service.AccessService, sessions session.Store) *Feature {
	return &Feature{
		client:   client,
		ledger:   ledger,
		access:   access,
		sessions: sessions,
	}
}
