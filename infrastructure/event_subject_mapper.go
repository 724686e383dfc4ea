package infrastructure

import (
	"fmt"

	"creditbot/events"
)

// LedgerStreamName is the JetStream stream carrying ledger events
const LedgerStreamName = "ledger_events"

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChanged: "ledger.balance_changed",
	events.EventTypeUserRegistered: "ledger.user_registered",
	events.EventTypeReferralBonus:  "ledger.referral_bonus",
	events.EventTypeCodeRedeemed:   "ledger.code_redeemed",
	events.EventTypeCodesExpired:   "ledger.codes_expired",
}

// SubjectForEvent converts a ledger event to its NATS subject
func SubjectForEvent(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("ledger.unknown.%s", event.Type())
}

// LedgerSubjects returns every subject the ledger publishes to
func LedgerSubjects() []string {
	return []string{"ledger.>"}
}
