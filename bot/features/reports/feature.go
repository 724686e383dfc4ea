package reports

import (
	"time"

	"creditbot/bot/common"
	"creditbot/service"
)

// Feature renders operator reports
type Feature struct {
	client  common.Client
	reports service.ReportService
	now     func() time.Time
}

// New creates the reports feature
func New(client common.Client, reports service.ReportService) *Feature {
	return &Feature{
		client:  client,
		reports: reports,
		now:     time.Now,
	}
}
