package codes

import (
	"time"

	"creditbot/bot/common"
	"creditbot/service"
	"creditbot/session"
)

// Feature handles promotional code administration
type Feature struct {
	client   common.Client
	ledger   service.LedgerService
	reports  service.ReportService
	sessions session.Store
	now      func() time.Time
}

// New creates the codes feature
func New(client common.Client, ledger service.LedgerService, reports service.ReportService, sessions session.Store) *Feature {
	return &Feature{
		client:   client,
		ledger:   ledger,
		reports:  reports,
		sessions: sessions,
		now:      time.Now,
	}
}
