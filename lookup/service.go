package lookup

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"creditbot/events"
	"creditbot/models"
)

// LookupCost is the number of credits one successful lookup costs
const LookupCost int64 = 1

var (
	// ErrBanned is returned for banned users, who are ignored silently
	ErrBanned = errors.New("user is banned")
	// ErrInsufficientCredits is returned when a paying user has no credits left
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Ledger is the slice of the ledger the lookup flow needs
type Ledger interface {
	GetUser(ctx context.Context, userID int64) *models.User
	AdjustBalance(ctx context.Context, userID int64, delta int64, reason events.BalanceChangeReason) bool
	RecordLookup(ctx context.Context, userID int64, category, input, result string)
	TouchActivity(ctx context.Context, userID int64)
}

// Access resolves operator privileges
type Access interface {
	Level(ctx context.Context, userID int64) models.AdminLevel
}

// Fetcher calls an upstream lookup API
type Fetcher interface {
	Has(category string) bool
	Fetch(ctx context.Context, category, input string) (Node, error)
}

// Result is a finished lookup
type Result struct {
	Category  string
	Input     string
	Text      string // rendered for display, possibly truncated
	Truncated bool
	Payload   string // full rendered payload as recorded
	Failed    bool   // upstream unreachable; nothing was charged
	Charged   bool
}

// Service runs the paid lookup flow
type Service struct {
	ledger    Ledger
	access    Access
	fetcher   Fetcher
	rules     Rules
	maxRender int
	now       func() time.Time
}

// NewService creates a lookup service with the default sanitizing rules
func NewService(ledger Ledger, access Access, fetcher Fetcher) *Service {
	return &Service{
		ledger:    ledger,
		access:    access,
		fetcher:   fetcher,
		rules:     DefaultRules(),
		maxRender: DefaultMaxRender,
		now:       time.Now,
	}
}

// Available reports whether the category can be queried
func (s *Service) Available(category string) bool {
	return s.fetcher.Has(category)
}

// Run checks the caller may pay, queries the category and charges one credit on success.
// Privileged users are never charged.
func (s *Service) Run(ctx context.Context, userID int64, category, input string) (*Result, error) {
	user := s.ledger.GetUser(ctx, userID)
	if user != nil && user.IsBanned {
		return nil, ErrBanned
	}

	privileged := s.access.Level(ctx, userID).IsPrivileged()
	if !privileged && (user == nil || !user.HasCredits()) {
		return nil, ErrInsufficientCredits
	}
	if !s.fetcher.Has(category) {
		return nil, ErrUnavailable
	}

	result := &Result{Category: category, Input: input}

	var payload *Mapping
	node, err := s.fetcher.Fetch(ctx, category, input)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":  userID,
			"category": category,
		}).Error("Lookup request failed")
		payload = Wrap(ServerError(err), DefaultMeta(s.now()))
		result.Failed = true
	} else {
		payload = Wrap(Sanitize(node, s.rules), DefaultMeta(s.now()))
	}

	result.Text, result.Truncated = Render(payload, s.maxRender)
	result.Payload, _ = Render(payload, 0)

	// The credit check above and this debit are separate ledger calls, so two
	// concurrent lookups on the last credit can both succeed.
	if !result.Failed && !privileged {
		result.Charged = s.ledger.AdjustBalance(ctx, userID, -LookupCost, events.ReasonLookup)
		if !result.Charged {
			log.WithField("user_id", userID).Warn("Failed to charge for lookup")
		}
	}

	s.ledger.RecordLookup(ctx, userID, category, input, result.Payload)
	s.ledger.TouchActivity(ctx, userID)

	log.WithFields(log.Fields{
		"user_id":   userID,
		"category":  category,
		"charged":   result.Charged,
		"truncated": result.Truncated,
	}).Info("Lookup completed")
	return result, nil
}
