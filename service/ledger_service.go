package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"creditbot/events"
	"creditbot/models"
)

const (
	// StartingCredits is the balance of a freshly registered user
	StartingCredits int64 = 5
	// ReferralBonus is paid to an existing referrer when a referred user registers
	ReferralBonus int64 = 3
	// MaxBulkUsers bounds a single bulk adjustment
	MaxBulkUsers = 50
	// DefaultStoreTimeout bounds every ledger operation
	DefaultStoreTimeout = 15 * time.Second

	generatedCodePrefix = "PRO-"
	maxGenerateAttempts = 5

	msgCodeCreated  = "Code created successfully"
	msgCodeExists   = "Code already exists"
	msgCodeEmpty    = "Code must not be empty"
	msgAmountNotPos = "Amount must be positive"
	msgUsesNotPos   = "Max uses must be positive"
	msgExpiryTooBig = "Expiry is too long"
	msgStoreFailure = "Database error, please try again"
)

var (
	errUserMissing       = errors.New("user not found")
	errAlreadyRegistered = errors.New("user already registered")
)

// rejection aborts a unit of work with a user-facing message
type rejection string

func (r rejection) Error() string { return string(r) }

// redeemRejection aborts a redemption with a named outcome
type redeemRejection models.RedeemOutcome

func (r redeemRejection) Error() string { return "redemption rejected: " + string(r) }

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	timeout    time.Duration
	now        func() time.Time
	random     io.Reader
}

// LedgerOption configures the ledger service
type LedgerOption func(*ledgerService)

// WithStoreTimeout bounds every ledger operation
func WithStoreTimeout(d time.Duration) LedgerOption {
	return func(s *ledgerService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces the wall clock used for code creation, expiry and claims
func WithClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, opts ...LedgerOption) LedgerService {
	s := &ledgerService{
		uowFactory: uowFactory,
		timeout:    DefaultStoreTimeout,
		now:        time.Now,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// execute runs fn in a bounded transaction. Any error rolls everything back.
func (s *ledgerService) execute(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// query runs a read-only fn in a bounded transaction that is never committed
func (s *ledgerService) query(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(ctx, uow)
}

func (s *ledgerService) GetUser(ctx context.Context, userID int64) *models.User {
	var user *models.User
	err := s.query(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		user, err = uow.UserRepository().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to get user")
		return nil
	}
	return user
}

func (s *ledgerService) RegisterUser(ctx context.Context, userID int64, username string, referrerID *int64) bool {
	if referrerID != nil && *referrerID == userID {
		log.WithField("user_id", userID).Info("Ignoring self-referral")
		referrerID = nil
	}

	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		existing, err := uow.UserRepository().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errAlreadyRegistered
		}

		bonusPaid := false
		if referrerID != nil {
			bonusPaid, err = applyReferralBonus(ctx, uow, *referrerID)
			if err != nil {
				return fmt.Errorf("failed to pay referral bonus: %w", err)
			}
		}

		user, err := uow.UserRepository().Create(ctx, userID, optionalString(username), referrerID, StartingCredits)
		if err != nil {
			return err
		}
		if user == nil {
			// Lost a registration race; the bonus must not be paid twice
			return errAlreadyRegistered
		}

		uow.EventBus().Publish(events.UserRegisteredEvent{
			UserID:         userID,
			Username:       username,
			ReferrerID:     referrerID,
			InitialCredits: StartingCredits,
		})
		if bonusPaid {
			uow.EventBus().Publish(events.ReferralBonusEvent{
				ReferrerID:  *referrerID,
				NewUserID:   userID,
				NewUsername: username,
				Bonus:       ReferralBonus,
			})
		}
		return nil
	})

	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"user_id":  userID,
			"referrer": referrerID != nil,
		}).Info("Registered new user")
		return true
	case errors.Is(err, errAlreadyRegistered):
		return false
	default:
		log.WithError(err).WithField("user_id", userID).Error("Failed to register user")
		return false
	}
}

func (s *ledgerService) AdjustBalance(ctx context.Context, userID int64, delta int64, reason events.BalanceChangeReason) bool {
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		found, err := ApplyBalanceChange(ctx, uow, userID, delta, reason)
		if err != nil {
			return err
		}
		if !found {
			return errUserMissing
		}
		return nil
	})

	if errors.Is(err, errUserMissing) {
		log.WithField("user_id", userID).Info("Balance adjustment for unknown user")
		return false
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"delta":   delta,
			"reason":  reason,
		}).Error("Failed to adjust balance")
		return false
	}
	return true
}

func (s *ledgerService) SetBan(ctx context.Context, userID int64, banned bool) bool {
	var found bool
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		found, err = uow.UserRepository().SetBanned(ctx, userID, banned)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to update ban status")
		return false
	}
	return found
}

func (s *ledgerService) CreateCode(ctx context.Context, code string, amount int64, maxUses int, expiryMinutes *int) (bool, string) {
	code = normalizeCode(code)
	if code == "" {
		return false, msgCodeEmpty
	}
	if expiryMinutes != nil && *expiryMinutes <= 0 {
		expiryMinutes = nil
	}
	if expiryMinutes != nil && int64(*expiryMinutes) > models.MaxExpiryMinutes {
		return false, msgExpiryTooBig
	}

	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		existing, err := uow.RedeemCodeRepository().Get(ctx, code)
		if err != nil {
			return err
		}
		if existing != nil {
			return rejection(msgCodeExists)
		}
		if amount <= 0 {
			return rejection(msgAmountNotPos)
		}
		if maxUses <= 0 {
			return rejection(msgUsesNotPos)
		}

		createdAt := s.now()
		created, err := uow.RedeemCodeRepository().Create(ctx, &models.RedeemCode{
			Code:          code,
			Amount:        amount,
			MaxUses:       maxUses,
			ExpiryMinutes: expiryMinutes,
			CreatedAt:     &createdAt,
		})
		if err != nil {
			return err
		}
		if !created {
			return rejection(msgCodeExists)
		}
		return nil
	})

	var rejected rejection
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"code":     code,
			"amount":   amount,
			"max_uses": maxUses,
			"expiry":   FormatExpiry(expiryMinutes),
		}).Info("Created redeem code")
		return true, msgCodeCreated
	case errors.As(err, &rejected):
		return false, string(rejected)
	default:
		log.WithError(err).WithField("code", code).Error("Failed to create redeem code")
		return false, msgStoreFailure
	}
}

func (s *ledgerService) GenerateCode(ctx context.Context, amount int64, maxUses int, expiryMinutes *int) (string, bool, string) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := s.randomCodeName()
		if err != nil {
			log.WithError(err).Error("Failed to generate random code")
			return "", false, msgStoreFailure
		}

		ok, msg := s.CreateCode(ctx, code, amount, maxUses, expiryMinutes)
		if ok {
			return code, true, msg
		}
		if msg != msgCodeExists {
			return "", false, msg
		}
	}
	return "", false, "Could not generate a unique code"
}

func (s *ledgerService) randomCodeName() (string, error) {
	buf := make([]byte, 3)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%X", generatedCodePrefix, buf), nil
}

func (s *ledgerService) RedeemCode(ctx context.Context, userID int64, code string) models.RedeemResult {
	code = normalizeCode(code)

	var amount int64
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		// Lock order is user row then code row
		user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return redeemRejection(models.RedeemUserNotFound)
		}

		claimed, err := uow.RedemptionRepository().Exists(ctx, userID, code)
		if err != nil {
			return err
		}
		if claimed {
			return redeemRejection(models.RedeemAlreadyClaimed)
		}

		rc, err := uow.RedeemCodeRepository().GetForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if rc == nil {
			return redeemRejection(models.RedeemInvalid)
		}
		if !rc.IsActive {
			return redeemRejection(models.RedeemInactive)
		}
		if rc.CurrentUses >= rc.MaxUses {
			return redeemRejection(models.RedeemLimitReached)
		}

		now := s.now()
		if rc.ExpiryMinutes != nil && rc.CreatedAt == nil {
			log.WithField("code", code).Warn("Code has an expiry but no creation time, skipping expiry check")
		} else if rc.IsExpired(now) {
			return redeemRejection(models.RedeemExpired)
		}

		if err := uow.RedeemCodeRepository().IncrementUses(ctx, code); err != nil {
			return err
		}

		found, err := ApplyBalanceChange(ctx, uow, userID, rc.Amount, events.ReasonRedemption)
		if err != nil {
			return err
		}
		if !found {
			return redeemRejection(models.RedeemUserNotFound)
		}

		if err := uow.RedemptionRepository().Create(ctx, userID, code, now); err != nil {
			if errors.Is(err, ErrDuplicateRedemption) {
				return redeemRejection(models.RedeemAlreadyClaimed)
			}
			return err
		}

		uow.EventBus().Publish(events.CodeRedeemedEvent{
			UserID: userID,
			Code:   code,
			Amount: rc.Amount,
		})
		amount = rc.Amount
		return nil
	})

	var rejected redeemRejection
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"user_id": userID,
			"code":    code,
			"amount":  amount,
		}).Info("Code redeemed")
		return models.RedeemResult{Outcome: models.RedeemSuccess, Amount: amount}
	case errors.As(err, &rejected):
		log.WithFields(log.Fields{
			"user_id": userID,
			"code":    code,
			"outcome": string(rejected),
		}).Info("Redemption rejected")
		return models.RedeemResult{Outcome: models.RedeemOutcome(rejected)}
	default:
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"code":    code,
		}).Error("Redemption failed")
		return models.RedeemResult{Outcome: models.RedeemError}
	}
}

func (s *ledgerService) SweepExpiredCodes(ctx context.Context) int64 {
	var count int64
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		count, err = uow.RedeemCodeRepository().DeactivateExpired(ctx, s.now())
		if err != nil {
			return err
		}
		if count > 0 {
			uow.EventBus().Publish(events.CodesExpiredEvent{Count: count})
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to sweep expired codes")
		return 0
	}
	if count > 0 {
		log.WithField("count", count).Info("Deactivated expired codes")
	}
	return count
}

func (s *ledgerService) RecordLookup(ctx context.Context, userID int64, category, input, result string) {
	record := &models.LookupRecord{
		UserID:    userID,
		APIType:   category,
		InputData: truncateRunes(input, models.MaxLookupInputLength),
		Result:    truncateRunes(result, models.MaxLookupResultLength),
	}

	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		return uow.LookupRepository().Create(ctx, record)
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":  userID,
			"category": category,
		}).Error("Failed to record lookup")
	}
}

func (s *ledgerService) BulkAdjust(ctx context.Context, userIDs []int64, delta int64) (bool, string) {
	if len(userIDs) == 0 {
		return false, "No user ids given"
	}
	if len(userIDs) > MaxBulkUsers {
		return false, fmt.Sprintf("Bulk limit exceeded: maximum %d users at once", MaxBulkUsers)
	}
	if delta == 0 {
		return false, "Amount must not be zero"
	}

	updated := 0
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		for _, id := range userIDs {
			found, err := ApplyBalanceChange(ctx, uow, id, delta, events.ReasonBulkGift)
			if err != nil {
				return err
			}
			if found {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("users", len(userIDs)).Error("Bulk adjustment failed")
		return false, msgStoreFailure
	}

	log.WithFields(log.Fields{
		"requested": len(userIDs),
		"updated":   updated,
		"delta":     delta,
	}).Info("Bulk adjustment applied")
	return true, fmt.Sprintf("Updated %d of %d users", updated, len(userIDs))
}

func (s *ledgerService) DeactivateCode(ctx context.Context, code string) bool {
	code = normalizeCode(code)
	var found bool
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		found, err = uow.RedeemCodeRepository().Deactivate(ctx, code)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("code", code).Error("Failed to deactivate code")
		return false
	}
	return found
}

func (s *ledgerService) DeleteCode(ctx context.Context, code string) bool {
	code = normalizeCode(code)
	var found bool
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		found, err = uow.RedeemCodeRepository().Delete(ctx, code)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("code", code).Error("Failed to delete code")
		return false
	}
	return found
}

func (s *ledgerService) DeleteUser(ctx context.Context, userID int64) bool {
	var found bool
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		found, err = uow.UserRepository().Delete(ctx, userID)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to delete user")
		return false
	}
	return found
}

func (s *ledgerService) ResetCredits(ctx context.Context, userID int64) bool {
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserMissing
		}

		if _, err := uow.UserRepository().SetCredits(ctx, userID, 0); err != nil {
			return err
		}
		if user.Credits != 0 {
			uow.EventBus().Publish(events.BalanceChangedEvent{
				UserID: userID,
				Delta:  -user.Credits,
				Reason: events.ReasonReset,
			})
		}
		return nil
	})

	if errors.Is(err, errUserMissing) {
		return false
	}
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to reset credits")
		return false
	}
	return true
}

func (s *ledgerService) TouchActivity(ctx context.Context, userID int64) {
	err := s.execute(ctx, func(ctx context.Context, uow UnitOfWork) error {
		return uow.UserRepository().Touch(ctx, userID)
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to update last activity")
	}
}

func (s *ledgerService) CodeUsage(ctx context.Context, code string) *models.CodeUsage {
	code = normalizeCode(code)
	var usage *models.CodeUsage
	err := s.query(ctx, func(ctx context.Context, uow UnitOfWork) error {
		rc, err := uow.RedeemCodeRepository().Get(ctx, code)
		if err != nil || rc == nil {
			return err
		}

		redemptions, err := uow.RedemptionRepository().ListByCode(ctx, code)
		if err != nil {
			return err
		}
		usage = &models.CodeUsage{Code: rc, Redemptions: redemptions}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("code", code).Error("Failed to get code usage")
		return nil
	}
	return usage
}

func (s *ledgerService) UserStats(ctx context.Context, userID int64) *models.UserStats {
	var stats *models.UserStats
	err := s.query(ctx, func(ctx context.Context, uow UnitOfWork) error {
		user, err := uow.UserRepository().GetByID(ctx, userID)
		if err != nil || user == nil {
			return err
		}

		stats, err = uow.ReportRepository().UserStats(ctx, userID)
		if err != nil {
			return err
		}
		stats.User = user
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to get user stats")
		return nil
	}
	return stats
}

// normalizeCode canonicalizes operator and user supplied code names
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
